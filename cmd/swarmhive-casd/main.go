// swarmhive-casd serves a local filesystem snapshot store over gRPC.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"swarmos.dev/swarmhive/storage/grpccas"
	"swarmos.dev/swarmhive/storage/localfs"
)

func main() {
	fs := flag.NewFlagSet("swarmhive-casd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	root := fs.String("root", "", "store directory (required)")

	_ = fs.Parse(os.Args[1:])
	if *root == "" {
		fmt.Fprintln(os.Stderr, "missing --root")
		os.Exit(2)
	}

	cas, err := localfs.New(*root)
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
	grpccas.RegisterCASServer(s, &grpccas.Server{CAS: cas})

	fmt.Fprintf(os.Stderr, "swarmhive-casd listening on %s (root=%s)\n", lis.Addr().String(), *root)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
