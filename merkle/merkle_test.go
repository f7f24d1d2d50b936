package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
)

func items(n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{
			"id":     fmt.Sprintf("job-%03d", i),
			"worker": fmt.Sprintf("0x%040x", i),
		})
	}
	return out
}

func TestTree_RootDeterministicUnderReordering(t *testing.T) {
	base := items(5)
	reversed := make([]map[string]any, len(base))
	for i, item := range base {
		reversed[len(base)-1-i] = item
	}

	a, err := New(base, "id")
	if err != nil {
		t.Fatalf("New(base): %v", err)
	}
	b, err := New(reversed, "id")
	if err != nil {
		t.Fatalf("New(reversed): %v", err)
	}
	if a.Root() != b.Root() {
		t.Fatalf("input order changed root: %s vs %s", a.Root(), b.Root())
	}
}

func TestTree_ProofVerifies(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8} {
		t.Run(fmt.Sprintf("leaves=%d", n), func(t *testing.T) {
			tree, err := New(items(n), "id")
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			for i := 0; i < n; i++ {
				key := fmt.Sprintf("job-%03d", i)
				leaf, ok := tree.LeafHash(key)
				if !ok {
					t.Fatalf("LeafHash(%s): not found", key)
				}
				proof, ok := tree.Proof(key)
				if !ok {
					t.Fatalf("Proof(%s): not found", key)
				}
				if !VerifyProof(leaf, proof, tree.Root()) {
					t.Fatalf("proof for %s did not verify", key)
				}
			}
		})
	}
}

func TestTree_SingleLeafEmptyProof(t *testing.T) {
	tree, err := New(items(1), "id")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	leaf, _ := tree.LeafHash("job-000")
	if tree.Root() != leaf {
		t.Fatalf("single-leaf root should equal the leaf hash")
	}
	proof, ok := tree.Proof("job-000")
	if !ok || len(proof) != 0 {
		t.Fatalf("single-leaf proof should be empty, got %v", proof)
	}
}

func TestTree_EmptyRoot(t *testing.T) {
	tree, err := New(nil, "id")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sum := sha256.Sum256(nil)
	if tree.Root() != hex.EncodeToString(sum[:]) {
		t.Fatalf("empty root should be sha256 of zero bytes, got %s", tree.Root())
	}
	if _, ok := tree.Proof("anything"); ok {
		t.Fatalf("empty tree should have no proofs")
	}
}

func TestVerifyProof_TamperFails(t *testing.T) {
	tree, err := New(items(4), "id")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	leaf, _ := tree.LeafHash("job-002")
	proof, _ := tree.Proof("job-002")

	// Flip a sibling hash.
	bad := make([]ProofStep, len(proof))
	copy(bad, proof)
	raw, _ := hex.DecodeString(bad[0].Hash)
	raw[0] ^= 0xff
	bad[0].Hash = hex.EncodeToString(raw)

	if VerifyProof(leaf, bad, tree.Root()) {
		t.Fatalf("tampered proof verified")
	}
	if VerifyProof(leaf, proof, tree.Root()) != true {
		t.Fatalf("control proof should verify")
	}

	// Wrong leaf against a valid proof.
	otherLeaf, _ := tree.LeafHash("job-001")
	if VerifyProof(otherLeaf, proof, tree.Root()) {
		t.Fatalf("proof verified for the wrong leaf")
	}
}

func TestTree_MissingKey(t *testing.T) {
	tree, err := New(items(3), "id")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := tree.LeafHash("job-999"); ok {
		t.Fatalf("LeafHash should miss for unknown key")
	}
	if _, ok := tree.Proof("job-999"); ok {
		t.Fatalf("Proof should miss for unknown key")
	}
}
