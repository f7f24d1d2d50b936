package signing

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Plain-text message signing under the same EIP-191 convention and signature
// envelope as snapshots. Used for lightweight challenges (job requests, epoch
// seals) where a full snapshot document would be overkill.

// TextSigner is the optional extension of Signer for capabilities that can
// prefix and sign arbitrary text themselves. Signer.Sign only accepts a
// 32-byte digest, so text signing cannot be expressed through it without
// handing the capability a pre-hashed value it cannot display or audit.
type TextSigner interface {
	Signer
	// SignText signs the EIP-191 prefixed hash of message.
	SignText(ctx context.Context, message string) (Signature, error)
}

// SignMessage signs message through the capability and self-checks the result
// the same way Sign does for digests. The signer must implement TextSigner;
// a digest-only capability fails with KindSigning.
func SignMessage(ctx context.Context, signer Signer, message string) (Signature, common.Address, error) {
	ts, ok := signer.(TextSigner)
	if !ok {
		return Signature{}, common.Address{}, newError(KindSigning,
			fmt.Sprintf("signing capability %T cannot sign text", signer))
	}
	sig, err := ts.SignText(ctx, message)
	if err != nil {
		return Signature{}, common.Address{}, wrapError(KindSigning, "signing capability failed", err)
	}
	addr := signer.Address()

	recovered, err := recoverPrefixed(TextHash([]byte(message)), sig)
	if err != nil {
		return Signature{}, common.Address{}, wrapError(KindSelfCheckFailed, "post-sign recovery failed", err)
	}
	if recovered != addr {
		return Signature{}, common.Address{}, newError(KindSelfCheckFailed,
			fmt.Sprintf("signature recovers to %s but signer reports %s", recovered.Hex(), addr.Hex()))
	}
	return sig, addr, nil
}

// RecoverMessage derives the address that signed message. The signature is
// expected in the textual "eip191:0x..." form.
func RecoverMessage(message string, sigText string) (common.Address, error) {
	sig, err := ParseSignatureText(sigText)
	if err != nil {
		return common.Address{}, err
	}
	// The prefix hash covers the text directly, with its own length, exactly
	// as personal_sign does. Snapshot signatures prefix the 32 digest bytes
	// instead, so the two kinds of signature can never be confused.
	return recoverPrefixed(TextHash([]byte(message)), sig)
}

// VerifyMessage checks that sigText over message recovers to expected.
func VerifyMessage(message string, sigText string, expected common.Address) error {
	recovered, err := RecoverMessage(message, sigText)
	if err != nil {
		return err
	}
	if recovered != expected {
		return newError(KindAddressMismatch,
			fmt.Sprintf("message signature recovers to %s, expected %s", recovered.Hex(), expected.Hex()))
	}
	return nil
}
