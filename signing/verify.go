package signing

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Verify checks a signed snapshot against an expected signer address.
//
// Checks run in a fixed order, each with a distinct failure Kind:
//
//  1. signing object present            (MissingSigningBlock)
//  2. payload_hash present and valid    (MissingField / BadEncoding)
//  3. signature present and valid      (MissingField / BadEncoding / MalformedSignature)
//  4. signature recovers to expected    (RecoveryFailed / AddressMismatch)
//  5. current content matches the hash  (PayloadTampered)
//
// Recovery is checked before the content is rehashed, so a signature that is
// cryptographically sound but covers stale content is reported as
// PayloadTampered rather than as a recovery failure.
func Verify(snapshot map[string]any, expected common.Address) error {
	stored, sig, err := storedEnvelope(snapshot)
	if err != nil {
		return err
	}

	recovered, err := RecoverAddress(stored, sig)
	if err != nil {
		return err
	}
	if recovered != expected {
		return newError(KindAddressMismatch,
			fmt.Sprintf("signature recovers to %s, expected %s", recovered.Hex(), expected.Hex()))
	}

	return checkPayload(snapshot, stored)
}

// RecoverSigner returns the address that signed the snapshot's current
// content. It fails with PayloadTampered if the content no longer matches the
// stored payload_hash, so a returned address always vouches for the snapshot
// as it stands.
func RecoverSigner(snapshot map[string]any) (common.Address, error) {
	stored, sig, err := storedEnvelope(snapshot)
	if err != nil {
		return common.Address{}, err
	}
	recovered, err := RecoverAddress(stored, sig)
	if err != nil {
		return common.Address{}, err
	}
	if err := checkPayload(snapshot, stored); err != nil {
		return common.Address{}, err
	}
	return recovered, nil
}

func storedEnvelope(snapshot map[string]any) (Digest, Signature, error) {
	block, err := signingBlock(snapshot)
	if err != nil {
		return Digest{}, Signature{}, err
	}

	hashText, err := stringField(block, FieldPayloadHash)
	if err != nil {
		return Digest{}, Signature{}, err
	}
	stored, err := ParseDigest(hashText)
	if err != nil {
		return Digest{}, Signature{}, err
	}

	sigText, err := stringField(block, FieldSignature)
	if err != nil {
		return Digest{}, Signature{}, err
	}
	sig, err := ParseSignatureText(sigText)
	if err != nil {
		return Digest{}, Signature{}, err
	}
	return stored, sig, nil
}

func stringField(block map[string]any, field string) (string, error) {
	raw, ok := block[field]
	if !ok {
		return "", newError(KindMissingField, "signing."+field+" is missing")
	}
	s, ok := raw.(string)
	if !ok {
		return "", newError(KindMissingField, fmt.Sprintf("signing.%s must be a string, got %T", field, raw))
	}
	return s, nil
}

func checkPayload(snapshot map[string]any, stored Digest) error {
	recomputed, err := PayloadHash(snapshot)
	if err != nil {
		return err
	}
	if recomputed != stored {
		return newError(KindPayloadTampered,
			fmt.Sprintf("content hashes to %s but signing.payload_hash is %s",
				FormatDigest(recomputed), FormatDigest(stored)))
	}
	return nil
}
