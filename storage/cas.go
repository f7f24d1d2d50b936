// Package storage persists signed snapshots in content-addressable stores.
//
// Snapshots are addressed by the CID of their canonical bytes, so two
// semantically equal snapshots always land at the same address regardless of
// how their JSON was formatted when submitted.
package storage

import "github.com/ipfs/go-cid"

// CAS is a minimal content-addressable storage interface.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written (callers are responsible for supplying canonical bytes).
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
