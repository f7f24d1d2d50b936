package signing

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sign produces a recoverable signature over digest using the supplied
// capability, then self-checks the result: the signature must recover to the
// address the signer reports. The self-check guards against key/encoding
// mismatches between this package and the capability implementation.
func Sign(ctx context.Context, signer Signer, digest Digest) (Signature, common.Address, error) {
	sig, err := signer.Sign(ctx, digest)
	if err != nil {
		return Signature{}, common.Address{}, wrapError(KindSigning, "signing capability failed", err)
	}
	addr := signer.Address()

	recovered, err := RecoverAddress(digest, sig)
	if err != nil {
		return Signature{}, common.Address{}, wrapError(KindSelfCheckFailed, "post-sign recovery failed", err)
	}
	if recovered != addr {
		return Signature{}, common.Address{}, newError(KindSelfCheckFailed,
			fmt.Sprintf("signature recovers to %s but signer reports %s", recovered.Hex(), addr.Hex()))
	}
	return sig, addr, nil
}

// Attach writes the signing envelope into the snapshot's existing signing
// object: the digest's textual form, the signature's textual form, and the
// scheme identifier. The signing object must already exist; Attach never
// creates it and touches no other fields.
func Attach(snapshot map[string]any, digest Digest, sig Signature) error {
	block, err := signingBlock(snapshot)
	if err != nil {
		return err
	}
	block[FieldPayloadHash] = FormatDigest(digest)
	block[FieldSignature] = FormatSignature(sig)
	block[FieldScheme] = Scheme
	return nil
}

// SignSnapshot runs the full pipeline in place: hash the snapshot with its
// signing envelope excluded, sign the digest, and attach the result. The
// snapshot must carry a signing object scaffold before the call. Re-signing
// a previously signed snapshot overwrites the envelope and needs no manual
// cleanup, since stale envelope fields are not part of the digest.
func SignSnapshot(ctx context.Context, signer Signer, snapshot map[string]any) (Digest, Signature, error) {
	// Require the scaffold up front so a custody round trip is never wasted
	// on a snapshot that cannot accept the result.
	if _, err := signingBlock(snapshot); err != nil {
		return Digest{}, Signature{}, err
	}
	digest, err := PayloadHash(snapshot)
	if err != nil {
		return Digest{}, Signature{}, err
	}
	sig, _, err := Sign(ctx, signer, digest)
	if err != nil {
		return Digest{}, Signature{}, err
	}
	if err := Attach(snapshot, digest, sig); err != nil {
		return Digest{}, Signature{}, err
	}
	return digest, sig, nil
}

func signingBlock(snapshot map[string]any) (map[string]any, error) {
	raw, ok := snapshot[FieldSigning]
	if !ok {
		return nil, newError(KindMissingSigningBlock, "snapshot has no signing object")
	}
	block, ok := raw.(map[string]any)
	if !ok {
		return nil, newError(KindMissingSigningBlock, fmt.Sprintf("signing must be an object, got %T", raw))
	}
	return block, nil
}
