package storage

import (
	"github.com/ipfs/go-cid"

	"swarmos.dev/swarmhive/signing"
)

// SnapshotStore stores snapshots as canonical bytes in a CAS.
type SnapshotStore struct {
	CAS CAS
}

// Put canonicalizes and stores a snapshot, returning its CID. The input is
// not required to carry a signing envelope; whatever the snapshot contains is
// what gets addressed.
func (s *SnapshotStore) Put(snapshot map[string]any) (cid.Cid, error) {
	if s == nil || s.CAS == nil {
		return cid.Undef, ErrNotFound
	}
	canon, err := signing.Canonicalize(snapshot)
	if err != nil {
		return cid.Undef, err
	}
	return s.CAS.Put(canon)
}

// Get fetches and decodes a snapshot. Numbers come back as json.Number so a
// round trip through the store preserves canonical bytes exactly.
func (s *SnapshotStore) Get(id cid.Cid) (map[string]any, error) {
	if s == nil || s.CAS == nil {
		return nil, ErrNotFound
	}
	data, err := s.CAS.Get(id)
	if err != nil {
		return nil, err
	}
	return signing.DecodeSnapshot(data)
}

// Has reports whether the store holds a snapshot at id.
func (s *SnapshotStore) Has(id cid.Cid) bool {
	return s != nil && s.CAS != nil && s.CAS.Has(id)
}
