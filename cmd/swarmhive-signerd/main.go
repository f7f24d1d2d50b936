// swarmhive-signerd holds one private key and signs snapshot digests over
// gRPC. The key never leaves the process; clients only see digests in and
// signatures out.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"google.golang.org/grpc"

	"swarmos.dev/swarmhive/keys"
	"swarmos.dev/swarmhive/keys/grpcsigner"
)

func main() {
	fs := flag.NewFlagSet("swarmhive-signerd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7778", "listen address")
	name := fs.String("signer", "", "key name in the local keystore")
	keyFile := fs.String("key-file", "", "file containing a hex private key")
	keysDir := fs.String("keys-dir", "", "keystore directory (default ~/.swarmos/keys)")

	_ = fs.Parse(os.Args[1:])
	if (*name == "") == (*keyFile == "") {
		fmt.Fprintln(os.Stderr, "exactly one of --signer or --key-file is required")
		os.Exit(2)
	}

	var signer *keys.LocalSigner
	var err error
	if *name != "" {
		var ks *keys.KeyStore
		ks, err = keys.CreateKeyStore(*keysDir)
		if err == nil {
			signer, err = ks.Load(*name)
		}
	} else {
		var b []byte
		b, err = os.ReadFile(*keyFile)
		if err == nil {
			signer, err = keys.LocalSignerFromHex(strings.TrimSpace(string(b)))
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcsigner.RegisterSignerServer(s, &grpcsigner.Server{Signer: signer})

	fmt.Fprintf(os.Stderr, "swarmhive-signerd listening on %s (address=%s)\n", lis.Addr().String(), signer.Address().Hex())
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
