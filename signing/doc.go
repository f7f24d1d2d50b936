// Package signing implements the SwarmOS snapshot signing envelope.
//
// A snapshot is an arbitrary JSON object whose optional "signing" sub-object
// binds the rest of the document to an Ethereum-style identity:
//
//	{
//	  ... payload fields ...,
//	  "signing": {
//	    "payload_hash": "keccak256:<64 hex>",
//	    "signature":    "eip191:0x<130 hex>",
//	    "scheme":       "eip191"
//	  }
//	}
//
// The pipeline is canonicalize -> hash -> sign -> verify. Canonicalization
// produces a unique byte serialization independent of key insertion order;
// the payload hash is keccak256 over those bytes with the signing envelope
// fields removed; signatures follow the EIP-191 personal-message convention and are
// recoverable, so verification derives the signer address from the signature
// itself and cross-checks it against the caller's expectation.
//
// All functions are pure and safe for concurrent use across distinct
// snapshots. Attach mutates a single snapshot in place; callers must
// serialize concurrent mutations of the same value.
package signing
