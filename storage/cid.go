package storage

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"swarmos.dev/swarmhive/signing"
)

// CIDForBytes returns an IPFS-compatible CIDv1 (raw + sha2-256) for data.
func CIDForBytes(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// CIDForSnapshot returns the address a snapshot would be stored at: the CID
// of its canonical bytes. Signed and unsigned variants of the same payload
// have different CIDs because the signing envelope is part of the content.
func CIDForSnapshot(snapshot map[string]any) (cid.Cid, error) {
	canon, err := signing.Canonicalize(snapshot)
	if err != nil {
		return cid.Undef, err
	}
	return CIDForBytes(canon)
}
