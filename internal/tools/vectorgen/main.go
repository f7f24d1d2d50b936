// vectorgen prints a deterministic signed-snapshot test vector for
// cross-implementation conformance checks. The key is fixed, the payload is
// fixed, and EIP-191 signing with secp256k1 is deterministic (RFC 6979), so
// the output never changes.
package main

import (
	"context"
	"encoding/json"
	"fmt"

	"swarmos.dev/swarmhive/keys"
	"swarmos.dev/swarmhive/signing"
	"swarmos.dev/swarmhive/storage"
)

const vectorKey = "0101010101010101010101010101010101010101010101010101010101010101"

func main() {
	signer, err := keys.LocalSignerFromHex(vectorKey)
	if err != nil {
		panic(err)
	}

	snapshot := map[string]any{
		"swarm": "conformance",
		"payload": map[string]any{
			"agents": json.Number("3"),
			"epoch":  json.Number("1"),
		},
		"signing": map[string]any{},
	}

	unsigned, err := signing.Canonicalize(snapshot)
	if err != nil {
		panic(err)
	}

	digest, sig, err := signing.SignSnapshot(context.Background(), signer, snapshot)
	if err != nil {
		panic(err)
	}

	signed, err := signing.Canonicalize(snapshot)
	if err != nil {
		panic(err)
	}
	id, err := storage.CIDForBytes(signed)
	if err != nil {
		panic(err)
	}

	fmt.Printf("address=%s\n", signer.Address().Hex())
	fmt.Printf("unsigned=%s\n", unsigned)
	fmt.Printf("payload_hash=%s\n", signing.FormatDigest(digest))
	fmt.Printf("signature=%s\n", signing.FormatSignature(sig))
	fmt.Printf("cid=%s\n", id)
	fmt.Printf("signed=%s\n", signed)
}
