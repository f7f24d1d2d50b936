// Package merkle builds binary Merkle trees over snapshot items for
// inclusion proofs.
//
// Leaves are sha256 hashes of each item's canonical JSON, and items are
// sorted by a caller-chosen key field, so the same set of items always
// produces the same root regardless of input order. Hashes travel as lowercase
// hex strings; proofs are lists of sibling steps that replay bottom-up.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"swarmos.dev/swarmhive/signing"
)

// Position tells the verifier which side a sibling hash sits on.
const (
	PositionLeft  = "left"
	PositionRight = "right"
)

// ProofStep is one level of an inclusion proof.
type ProofStep struct {
	Hash     string `json:"hash"`
	Position string `json:"position"`
}

// Tree is an immutable binary Merkle tree. Odd levels duplicate the last
// node.
type Tree struct {
	leaves []string
	index  map[string]int
	levels [][]string
}

// New builds a tree from items, sorting them by keyField. Items missing the
// key field sort under the empty key; duplicate keys keep the last item's
// index for lookups, matching map semantics.
func New(items []map[string]any, keyField string) (*Tree, error) {
	sorted := make([]map[string]any, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return itemKey(sorted[i], keyField) < itemKey(sorted[j], keyField)
	})

	t := &Tree{
		leaves: make([]string, 0, len(sorted)),
		index:  make(map[string]int, len(sorted)),
	}
	for i, item := range sorted {
		canon, err := signing.Canonicalize(item)
		if err != nil {
			return nil, fmt.Errorf("merkle: canonicalize item %d: %w", i, err)
		}
		t.leaves = append(t.leaves, hashHex(canon))
		t.index[itemKey(item, keyField)] = i
	}

	t.levels = [][]string{append([]string(nil), t.leaves...)}
	t.build()
	return t, nil
}

func (t *Tree) build() {
	if len(t.leaves) == 0 {
		return
	}
	current := t.levels[0]
	for len(current) > 1 {
		next := make([]string, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			left := current[i]
			right := left
			if i+1 < len(current) {
				right = current[i+1]
			}
			next = append(next, hashPair(left, right))
		}
		t.levels = append(t.levels, next)
		current = next
	}
}

// Root returns the root hash. The empty tree's root is sha256 of zero bytes.
func (t *Tree) Root() string {
	if len(t.leaves) == 0 {
		return hashHex(nil)
	}
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Len reports the number of leaves.
func (t *Tree) Len() int { return len(t.leaves) }

// LeafHash returns the leaf hash for the item stored under key.
func (t *Tree) LeafHash(key string) (string, bool) {
	i, ok := t.index[key]
	if !ok {
		return "", false
	}
	return t.leaves[i], true
}

// Proof returns the inclusion proof for the item stored under key. A
// single-leaf tree yields an empty proof.
func (t *Tree) Proof(key string) ([]ProofStep, bool) {
	index, ok := t.index[key]
	if !ok {
		return nil, false
	}

	proof := []ProofStep{}
	for _, level := range t.levels[:len(t.levels)-1] {
		var sibling int
		var position string
		if index%2 == 0 {
			sibling, position = index+1, PositionRight
		} else {
			sibling, position = index-1, PositionLeft
		}
		hash := level[index] // duplicated-last case
		if sibling < len(level) {
			hash = level[sibling]
		}
		proof = append(proof, ProofStep{Hash: hash, Position: position})
		index /= 2
	}
	return proof, true
}

// VerifyProof replays a proof from leafHash and reports whether it lands on
// expectedRoot.
func VerifyProof(leafHash string, proof []ProofStep, expectedRoot string) bool {
	current := leafHash
	for _, step := range proof {
		if step.Position == PositionLeft {
			current = hashPair(step.Hash, current)
		} else {
			current = hashPair(current, step.Hash)
		}
	}
	return current == expectedRoot
}

func itemKey(item map[string]any, keyField string) string {
	switch v := item[keyField].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hashPair(left, right string) string {
	lb, err := hex.DecodeString(left)
	if err != nil {
		return ""
	}
	rb, err := hex.DecodeString(right)
	if err != nil {
		return ""
	}
	return hashHex(append(lb, rb...))
}
