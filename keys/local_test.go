package keys

import (
	"context"
	"errors"
	"strings"
	"testing"

	"swarmos.dev/swarmhive/signing"
)

const testKey = "0101010101010101010101010101010101010101010101010101010101010101"

func TestParsePrivateKeyHex_PrefixAndWhitespace(t *testing.T) {
	bare, err := LocalSignerFromHex(testKey)
	if err != nil {
		t.Fatalf("bare hex: %v", err)
	}
	prefixed, err := LocalSignerFromHex("0x" + testKey)
	if err != nil {
		t.Fatalf("0x hex: %v", err)
	}
	padded, err := LocalSignerFromHex("  \t0x" + testKey + "\n")
	if err != nil {
		t.Fatalf("padded hex: %v", err)
	}

	if bare.Address() != prefixed.Address() || bare.Address() != padded.Address() {
		t.Fatalf("same key bytes produced different identities")
	}
}

func TestParsePrivateKeyHex_Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"31 bytes", strings.Repeat("ab", 31), ErrInvalidKeyLength},
		{"33 bytes", strings.Repeat("ab", 33), ErrInvalidKeyLength},
		{"odd length", testKey[:63], ErrInvalidHex},
		{"not hex", "zz" + testKey[2:], ErrInvalidHex},
		{"zero key", strings.Repeat("00", 32), ErrInvalidKey},
		// secp256k1 group order: not a valid scalar.
		{"group order", "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", ErrInvalidKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePrivateKeyHex(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLocalSigner_SignaturesRecover(t *testing.T) {
	signer, err := LocalSignerFromHex(testKey)
	if err != nil {
		t.Fatalf("LocalSignerFromHex: %v", err)
	}

	digest := signing.Keccak256([]byte("hive state"))
	sig, err := signer.Sign(context.Background(), digest)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	v := sig[signing.SignatureSize-1]
	if v != 27 && v != 28 {
		t.Fatalf("recovery id on the wire should be 27/28, got %d", v)
	}

	recovered, err := signing.RecoverAddress(digest, sig)
	if err != nil {
		t.Fatalf("RecoverAddress: %v", err)
	}
	if recovered != signer.Address() {
		t.Fatalf("recovered %s, want %s", recovered.Hex(), signer.Address().Hex())
	}
}

func TestLocalSigner_ExportRoundTrip(t *testing.T) {
	signer, err := LocalSignerFromHex("0x" + testKey)
	if err != nil {
		t.Fatalf("LocalSignerFromHex: %v", err)
	}
	if signer.ExportHex() != testKey {
		t.Fatalf("ExportHex = %s", signer.ExportHex())
	}
}

func TestGenerate_UniqueSigners(t *testing.T) {
	a, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.Address() == b.Address() {
		t.Fatalf("two generated keys share an address")
	}
}

func TestNewLocalSigner_NilKey(t *testing.T) {
	if _, err := NewLocalSigner(nil); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("got %v, want ErrInvalidKey", err)
	}
}
