package storage_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"

	"swarmos.dev/swarmhive/signing"
	"swarmos.dev/swarmhive/storage"
)

// memCAS is a minimal in-memory CAS for exercising SnapshotStore and
// ReplicatingCAS without touching the filesystem.
type memCAS struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemCAS() *memCAS { return &memCAS{objects: map[string][]byte{}} }

func (m *memCAS) Put(data []byte) (cid.Cid, error) {
	id, err := storage.CIDForBytes(data)
	if err != nil {
		return cid.Undef, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[id.String()] = append([]byte(nil), data...)
	return id, nil
}

func (m *memCAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[id.String()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *memCAS) Has(id cid.Cid) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[id.String()]
	return ok
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	store := &storage.SnapshotStore{CAS: newMemCAS()}

	snapshot := map[string]any{
		"payload": map[string]any{"agents": json.Number("3"), "epoch": json.Number("7")},
		"signing": map[string]any{},
	}

	id, err := store.Put(snapshot)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !store.Has(id) {
		t.Fatalf("Has: expected true after Put")
	}

	got, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	canonGot, err := signing.Canonicalize(got)
	if err != nil {
		t.Fatalf("Canonicalize(got): %v", err)
	}
	canonWant, err := signing.Canonicalize(snapshot)
	if err != nil {
		t.Fatalf("Canonicalize(want): %v", err)
	}
	if string(canonGot) != string(canonWant) {
		t.Fatalf("round trip changed canonical bytes:\n got %s\nwant %s", canonGot, canonWant)
	}
}

func TestSnapshotStore_PermutedInputSameCID(t *testing.T) {
	store := &storage.SnapshotStore{CAS: newMemCAS()}

	// Two decodings of the same document with different key order.
	a, err := signing.DecodeSnapshot([]byte(`{"b":2,"a":1,"signing":{}}`))
	if err != nil {
		t.Fatalf("DecodeSnapshot(a): %v", err)
	}
	b, err := signing.DecodeSnapshot([]byte(`{"signing":{},"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("DecodeSnapshot(b): %v", err)
	}

	idA, err := store.Put(a)
	if err != nil {
		t.Fatalf("Put(a): %v", err)
	}
	idB, err := store.Put(b)
	if err != nil {
		t.Fatalf("Put(b): %v", err)
	}
	if idA != idB {
		t.Fatalf("same document stored at two addresses: %s vs %s", idA, idB)
	}
}

func TestSnapshotStore_GetMissing(t *testing.T) {
	store := &storage.SnapshotStore{CAS: newMemCAS()}
	id, err := storage.CIDForBytes([]byte("nope"))
	if err != nil {
		t.Fatalf("CIDForBytes: %v", err)
	}
	if _, err := store.Get(id); !storage.IsNotFound(err) {
		t.Fatalf("Get missing: got %v, want ErrNotFound", err)
	}
}
