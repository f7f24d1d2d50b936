package signing

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Scheme is the literal signature scheme identifier written into
// signing.scheme and used as the signature text prefix.
const Scheme = "eip191"

const signaturePrefix = Scheme + ":0x"

// SignatureSize is the size of a recoverable signature in bytes:
// r (32) || s (32) || recovery id (1).
const SignatureSize = 65

// Signature is a recoverable secp256k1 signature. The final byte carries the
// recovery id in the Ethereum convention (27 or 28); the raw form (0 or 1) is
// accepted on parse and normalized before recovery.
type Signature [SignatureSize]byte

func (s Signature) String() string { return FormatSignature(s) }

// Signer is the key-custody capability bound to an identity. Implementations
// must apply the EIP-191 personal-message convention when signing, treating
// the 32 digest bytes as the message, and may be backed by an in-memory key
// or a remote signer -- the context covers the latter's call.
type Signer interface {
	Address() common.Address
	Sign(ctx context.Context, digest Digest) (Signature, error)
}

// TextHash computes the EIP-191 personal-message hash of data:
// keccak256("\x19Ethereum Signed Message:\n" + len(data) + data).
// The length prefix prevents signatures from being replayed against other
// protocols that sign raw digests.
func TextHash(data []byte) Digest {
	prefix := "\x19Ethereum Signed Message:\n" + strconv.Itoa(len(data))
	h := make([]byte, 0, len(prefix)+len(data))
	h = append(h, prefix...)
	h = append(h, data...)
	return Keccak256(h)
}

// FormatSignature renders a signature in its stable textual form,
// "eip191:0x" followed by 130 lowercase hex characters.
func FormatSignature(sig Signature) string {
	return signaturePrefix + hex.EncodeToString(sig[:])
}

// ParseSignatureText is the inverse of FormatSignature. Prefix and decoded
// length failures report KindBadEncoding; a structurally invalid 65-byte
// value reports KindMalformedSignature.
func ParseSignatureText(s string) (Signature, error) {
	rest, ok := strings.CutPrefix(s, signaturePrefix)
	if !ok {
		return Signature{}, newError(KindBadEncoding, fmt.Sprintf("signature must start with %q", signaturePrefix))
	}
	raw, err := hex.DecodeString(rest)
	if err != nil {
		return Signature{}, wrapError(KindBadEncoding, "signature is not valid hex", err)
	}
	if len(raw) != SignatureSize {
		return Signature{}, newError(KindBadEncoding, fmt.Sprintf("signature must decode to %d bytes, got %d", SignatureSize, len(raw)))
	}
	return ParseSignature(raw)
}

// ParseSignature validates a raw 65-byte r||s||v value.
func ParseSignature(raw []byte) (Signature, error) {
	if len(raw) != SignatureSize {
		return Signature{}, newError(KindMalformedSignature, fmt.Sprintf("signature must be %d bytes, got %d", SignatureSize, len(raw)))
	}
	v := raw[SignatureSize-1]
	if v > 1 && v != 27 && v != 28 {
		return Signature{}, newError(KindMalformedSignature, fmt.Sprintf("invalid recovery id %d", v))
	}
	var sig Signature
	copy(sig[:], raw)
	return sig, nil
}

// RecoverAddress derives the address that produced sig over digest under the
// EIP-191 convention, or fails with KindRecoveryFailed.
func RecoverAddress(digest Digest, sig Signature) (common.Address, error) {
	return recoverPrefixed(TextHash(digest[:]), sig)
}

// recoverPrefixed recovers the signer from a signature over an already
// prefix-hashed message.
func recoverPrefixed(prefixed Digest, sig Signature) (common.Address, error) {
	rsv := make([]byte, SignatureSize)
	copy(rsv, sig[:])
	if rsv[SignatureSize-1] >= 27 {
		rsv[SignatureSize-1] -= 27
	}
	if rsv[SignatureSize-1] > 1 {
		return common.Address{}, newError(KindMalformedSignature, fmt.Sprintf("invalid recovery id %d", sig[SignatureSize-1]))
	}
	pub, err := crypto.SigToPub(prefixed[:], rsv)
	if err != nil {
		return common.Address{}, wrapError(KindRecoveryFailed, "signature recovery failed", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
