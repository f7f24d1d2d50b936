package signing_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"swarmos.dev/swarmhive/keys"
	"swarmos.dev/swarmhive/signing"
)

// fixedKey is an arbitrary but fixed secp256k1 private key used across the
// test suite so failures reproduce byte-for-byte.
const fixedKey = "0101010101010101010101010101010101010101010101010101010101010101"

func fixedSigner(t *testing.T) *keys.LocalSigner {
	t.Helper()
	s, err := keys.LocalSignerFromHex(fixedKey)
	if err != nil {
		t.Fatalf("LocalSignerFromHex: %v", err)
	}
	return s
}

func testSnapshot() map[string]any {
	return map[string]any{
		"payload": map[string]any{
			"agents": json.Number("3"),
			"epoch":  json.Number("42"),
		},
		"signing": map[string]any{},
	}
}

func TestSignSnapshot_RoundTrip(t *testing.T) {
	signer := fixedSigner(t)
	snap := testSnapshot()

	digest, sig, err := signing.SignSnapshot(context.Background(), signer, snap)
	if err != nil {
		t.Fatalf("SignSnapshot: %v", err)
	}

	block, ok := snap["signing"].(map[string]any)
	if !ok {
		t.Fatalf("signing block lost")
	}
	if block["payload_hash"] != signing.FormatDigest(digest) {
		t.Fatalf("payload_hash = %v", block["payload_hash"])
	}
	if block["signature"] != signing.FormatSignature(sig) {
		t.Fatalf("signature = %v", block["signature"])
	}
	if block["scheme"] != signing.Scheme {
		t.Fatalf("scheme = %v", block["scheme"])
	}

	if err := signing.Verify(snap, signer.Address()); err != nil {
		t.Fatalf("Verify after sign: %v", err)
	}
	recovered, err := signing.RecoverSigner(snap)
	if err != nil {
		t.Fatalf("RecoverSigner: %v", err)
	}
	if recovered != signer.Address() {
		t.Fatalf("recovered %s, want %s", recovered.Hex(), signer.Address().Hex())
	}
}

func TestSignSnapshot_Deterministic(t *testing.T) {
	signer := fixedSigner(t)

	d1, s1, err := signing.SignSnapshot(context.Background(), signer, testSnapshot())
	if err != nil {
		t.Fatalf("SignSnapshot(1): %v", err)
	}
	d2, s2, err := signing.SignSnapshot(context.Background(), signer, testSnapshot())
	if err != nil {
		t.Fatalf("SignSnapshot(2): %v", err)
	}
	if d1 != d2 {
		t.Fatalf("digest not deterministic")
	}
	// crypto.Sign is RFC 6979 deterministic, so the whole pipeline is.
	if s1 != s2 {
		t.Fatalf("signature not deterministic")
	}
}

func TestSignSnapshot_MissingScaffold(t *testing.T) {
	signer := fixedSigner(t)

	_, _, err := signing.SignSnapshot(context.Background(), signer, map[string]any{"a": json.Number("1")})
	if !signing.IsKind(err, signing.KindMissingSigningBlock) {
		t.Fatalf("got %v, want KindMissingSigningBlock", err)
	}

	_, _, err = signing.SignSnapshot(context.Background(), signer, map[string]any{"signing": "not an object"})
	if !signing.IsKind(err, signing.KindMissingSigningBlock) {
		t.Fatalf("non-object signing: got %v, want KindMissingSigningBlock", err)
	}
}

func TestAttach_RequiresSigningBlock(t *testing.T) {
	var digest signing.Digest
	var sig signing.Signature
	err := signing.Attach(map[string]any{"a": json.Number("1")}, digest, sig)
	if !signing.IsKind(err, signing.KindMissingSigningBlock) {
		t.Fatalf("got %v, want KindMissingSigningBlock", err)
	}
}

// failingSigner simulates an unreachable custody backend.
type failingSigner struct{ *keys.LocalSigner }

var errBackend = errors.New("custody backend unreachable")

func (f failingSigner) Sign(ctx context.Context, digest signing.Digest) (signing.Signature, error) {
	return signing.Signature{}, errBackend
}

func TestSign_CapabilityFailure(t *testing.T) {
	signer := failingSigner{fixedSigner(t)}
	var digest signing.Digest

	_, _, err := signing.Sign(context.Background(), signer, digest)
	if !signing.IsKind(err, signing.KindSigning) {
		t.Fatalf("got kind %q, want KindSigning", signing.KindOf(err))
	}
	if !errors.Is(err, errBackend) {
		t.Fatalf("cause not preserved: %v", err)
	}
}

// lyingSigner returns valid signatures but reports someone else's address.
type lyingSigner struct {
	*keys.LocalSigner
	impostor *keys.LocalSigner
}

func (l lyingSigner) Sign(ctx context.Context, digest signing.Digest) (signing.Signature, error) {
	return l.impostor.Sign(ctx, digest)
}

func TestSign_SelfCheck(t *testing.T) {
	impostor, err := keys.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	signer := lyingSigner{LocalSigner: fixedSigner(t), impostor: impostor}

	_, _, err = signing.Sign(context.Background(), signer, signing.Keccak256([]byte("x")))
	if !signing.IsKind(err, signing.KindSelfCheckFailed) {
		t.Fatalf("got %v, want KindSelfCheckFailed", err)
	}
}

func TestSign_ContextCancelled(t *testing.T) {
	signer := fixedSigner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := signing.Sign(ctx, signer, signing.Keccak256([]byte("x")))
	if err == nil {
		t.Fatalf("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cause should be context.Canceled: %v", err)
	}
}
