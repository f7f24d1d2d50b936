package signing

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// DigestSize is the size of a payload digest in bytes.
const DigestSize = 32

// Digest is a keccak256 hash over canonical snapshot bytes.
type Digest [DigestSize]byte

// HashAlg tags the digest algorithm in the textual payload_hash form.
const HashAlg = "keccak256"

const digestPrefix = HashAlg + ":"

// Snapshot field names structurally significant to this package.
const (
	FieldSigning     = "signing"
	FieldPayloadHash = "payload_hash"
	FieldSignature   = "signature"
	FieldScheme      = "scheme"
)

// PayloadHash computes the digest of a snapshot with the signature envelope
// excluded.
//
// The snapshot itself is never mutated: a working copy is hashed with the
// three fields Attach writes (signature, payload_hash, scheme) removed from
// the signing object. The envelope cannot feed into its own digest, which is
// what lets sign-then-verify round-trip: the content hashed at signing time
// is exactly the content a verifier reconstructs after the envelope has been
// attached. Any other fields in the signing object are covered by the
// digest, and re-signing an already-signed snapshot is stable because stale
// envelope fields never reach the hash.
func PayloadHash(snapshot map[string]any) (Digest, error) {
	work := make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		work[k] = v
	}
	if raw, ok := work[FieldSigning]; ok {
		if block, ok := raw.(map[string]any); ok {
			trimmed := make(map[string]any, len(block))
			for k, v := range block {
				switch k {
				case FieldSignature, FieldPayloadHash, FieldScheme:
					continue
				}
				trimmed[k] = v
			}
			work[FieldSigning] = trimmed
		}
	}

	canon, err := Canonicalize(work)
	if err != nil {
		return Digest{}, err
	}
	return Keccak256(canon), nil
}

// Keccak256 returns the legacy keccak256 digest of data.
func Keccak256(data []byte) Digest {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var d Digest
	h.Sum(d[:0])
	return d
}

// FormatDigest renders a digest in its stable textual form,
// "keccak256:" followed by 64 lowercase hex characters.
func FormatDigest(d Digest) string {
	return digestPrefix + hex.EncodeToString(d[:])
}

// ParseDigest is the inverse of FormatDigest. It enforces the algorithm
// prefix and the exact 32-byte decoded length.
func ParseDigest(s string) (Digest, error) {
	rest, ok := strings.CutPrefix(s, digestPrefix)
	if !ok {
		return Digest{}, newError(KindBadEncoding, fmt.Sprintf("payload_hash must start with %q", digestPrefix))
	}
	raw, err := hex.DecodeString(rest)
	if err != nil {
		return Digest{}, wrapError(KindBadEncoding, "payload_hash is not valid hex", err)
	}
	if len(raw) != DigestSize {
		return Digest{}, newError(KindBadEncoding, fmt.Sprintf("payload_hash must decode to %d bytes, got %d", DigestSize, len(raw)))
	}
	var d Digest
	copy(d[:], raw)
	return d, nil
}
