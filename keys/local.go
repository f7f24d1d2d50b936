package keys

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"swarmos.dev/swarmhive/signing"
)

var (
	// ErrInvalidKeyLength is returned when a key decodes to anything other
	// than exactly 32 bytes.
	ErrInvalidKeyLength = errors.New("keys: private key must be 32 bytes")

	// ErrInvalidHex is returned when key text is not valid hex.
	ErrInvalidHex = errors.New("keys: private key is not valid hex")

	// ErrInvalidKey is returned when 32 valid bytes are rejected by the
	// curve (zero, or not below the group order).
	ErrInvalidKey = errors.New("keys: invalid private key")
)

// PrivateKeySize is the raw secp256k1 private key length in bytes.
const PrivateKeySize = 32

// ParsePrivateKeyHex parses a hex-encoded secp256k1 private key, tolerating
// surrounding whitespace and an optional 0x prefix. Keys with and without the
// prefix yield identical signers.
func ParsePrivateKeyHex(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	if len(raw) != PrivateKeySize {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidKeyLength, len(raw))
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

// LocalSigner is an in-memory signing.Signer backed by a secp256k1 private
// key. Signatures follow the EIP-191 personal-message convention with the
// recovery id in the 27/28 form.
type LocalSigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

var _ signing.TextSigner = (*LocalSigner)(nil)

// NewLocalSigner wraps an already-validated private key.
func NewLocalSigner(key *ecdsa.PrivateKey) (*LocalSigner, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: nil key", ErrInvalidKey)
	}
	return &LocalSigner{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// LocalSignerFromHex parses the key text and wraps it in one step.
func LocalSignerFromHex(s string) (*LocalSigner, error) {
	key, err := ParsePrivateKeyHex(s)
	if err != nil {
		return nil, err
	}
	return NewLocalSigner(key)
}

// Generate creates a signer with a fresh random key.
func Generate() (*LocalSigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewLocalSigner(key)
}

// Address returns the identity derived from the public key.
func (s *LocalSigner) Address() common.Address { return s.addr }

// Sign signs the digest as an EIP-191 personal message.
func (s *LocalSigner) Sign(ctx context.Context, digest signing.Digest) (signing.Signature, error) {
	return s.signPrefixed(ctx, signing.TextHash(digest[:]))
}

// SignText signs arbitrary text as an EIP-191 personal message. The result
// verifies with signing.VerifyMessage.
func (s *LocalSigner) SignText(ctx context.Context, message string) (signing.Signature, error) {
	return s.signPrefixed(ctx, signing.TextHash([]byte(message)))
}

func (s *LocalSigner) signPrefixed(ctx context.Context, prefixed signing.Digest) (signing.Signature, error) {
	if err := ctx.Err(); err != nil {
		return signing.Signature{}, err
	}
	raw, err := crypto.Sign(prefixed[:], s.key)
	if err != nil {
		return signing.Signature{}, err
	}
	var sig signing.Signature
	copy(sig[:], raw)
	// crypto.Sign emits the recovery id as 0/1; the wire form uses 27/28.
	sig[signing.SignatureSize-1] += 27
	return sig, nil
}

// ExportHex returns the raw key as bare lowercase hex.
func (s *LocalSigner) ExportHex() string {
	return hex.EncodeToString(crypto.FromECDSA(s.key))
}
