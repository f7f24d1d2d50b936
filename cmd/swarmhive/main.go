package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-cid"

	"swarmos.dev/swarmhive/keys"
	"swarmos.dev/swarmhive/keys/grpcsigner"
	"swarmos.dev/swarmhive/signing"
	"swarmos.dev/swarmhive/storage"
	"swarmos.dev/swarmhive/storage/grpccas"
	"swarmos.dev/swarmhive/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "hash":
		return cmdHash(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "recover":
		return cmdRecover(args[1:], out, errOut)
	case "cid":
		return cmdCID(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "store":
		return cmdStore(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "swarmhive: snapshot signing and verification CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  swarmhive hash <snapshot.json>")
	fmt.Fprintln(w, "  swarmhive sign (--signer <name> | --key-file <path> | --key-hex <64hex> | --remote <addr>) [--out <file>] <snapshot.json>")
	fmt.Fprintln(w, "  swarmhive verify --address <0x...> <snapshot.json>")
	fmt.Fprintln(w, "  swarmhive recover <snapshot.json>")
	fmt.Fprintln(w, "  swarmhive cid <snapshot.json>")
	fmt.Fprintln(w, "  swarmhive key init --name <name> [--force]")
	fmt.Fprintln(w, "  swarmhive key import --name <name> (--key-hex <64hex> | --key-file <path>) [--force]")
	fmt.Fprintln(w, "  swarmhive key list")
	fmt.Fprintln(w, "  swarmhive key export --name <name>")
	fmt.Fprintln(w, "  swarmhive store put (--root <dir> | --target <addr>) <snapshot.json>")
	fmt.Fprintln(w, "  swarmhive store get (--root <dir> | --target <addr>) <cid>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - sign creates an empty signing object if the snapshot has none")
	fmt.Fprintln(w, "  - sign writes the signed snapshot's canonical bytes to stdout (or --out)")
	fmt.Fprintln(w, "  - keys are stored under ~/.swarmos/keys/<name> (0600 private key files)")
	fmt.Fprintln(w, "  - store addresses snapshots by the CID of their canonical bytes")
	fmt.Fprintln(w, "  - --remote and --target speak gRPC to swarmhive-signerd / swarmhive-casd")
}

func readSnapshot(path string, errOut io.Writer) (map[string]any, int) {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read snapshot: %v\n", err)
		return nil, 1
	}
	snap, err := signing.DecodeSnapshot(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid snapshot: %v\n", err)
		return nil, 1
	}
	return snap, 0
}

func cmdHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: swarmhive hash <snapshot.json>")
		return 2
	}
	snap, code := readSnapshot(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	digest, err := signing.PayloadHash(snap)
	if err != nil {
		fmt.Fprintf(errOut, "hash: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, signing.FormatDigest(digest))
	return 0
}

// signerFlags registers the four mutually exclusive signer sources on fs.
type signerFlags struct {
	name    string
	keyFile string
	keyHex  string
	remote  string
	keysDir string
}

func (sf *signerFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&sf.name, "signer", "", "Key name in the local keystore")
	fs.StringVar(&sf.keyFile, "key-file", "", "File containing a hex private key")
	fs.StringVar(&sf.keyHex, "key-hex", "", "Hex private key (prefer --signer or --key-file)")
	fs.StringVar(&sf.remote, "remote", "", "Address of a swarmhive-signerd gRPC signer")
	fs.StringVar(&sf.keysDir, "keys-dir", "", "Keystore directory (default ~/.swarmos/keys)")
}

// open resolves the flags into a signer. The returned closer is non-nil for
// remote signers.
func (sf *signerFlags) open() (signing.Signer, func() error, error) {
	set := 0
	for _, s := range []string{sf.name, sf.keyFile, sf.keyHex, sf.remote} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return nil, nil, fmt.Errorf("exactly one of --signer, --key-file, --key-hex, --remote is required")
	}

	switch {
	case sf.name != "":
		ks, err := keys.CreateKeyStore(sf.keysDir)
		if err != nil {
			return nil, nil, err
		}
		signer, err := ks.Load(sf.name)
		if err != nil {
			return nil, nil, fmt.Errorf("load key %q: %w", sf.name, err)
		}
		return signer, nil, nil
	case sf.keyFile != "":
		b, err := os.ReadFile(sf.keyFile)
		if err != nil {
			return nil, nil, err
		}
		signer, err := keys.LocalSignerFromHex(strings.TrimSpace(string(b)))
		if err != nil {
			return nil, nil, err
		}
		return signer, nil, nil
	case sf.keyHex != "":
		signer, err := keys.LocalSignerFromHex(sf.keyHex)
		if err != nil {
			return nil, nil, err
		}
		return signer, nil, nil
	default:
		client, err := grpcsigner.Dial(sf.remote, grpcsigner.DialOptions{Timeout: 10 * time.Second})
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	}
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var sf signerFlags
	var outPath string
	sf.register(fs)
	fs.StringVar(&outPath, "out", "", "Write the signed snapshot here instead of stdout")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: swarmhive sign [flags] <snapshot.json>")
		return 2
	}

	snap, code := readSnapshot(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	// Scaffold for first-time signing; attach requires it.
	if _, ok := snap[signing.FieldSigning]; !ok {
		snap[signing.FieldSigning] = map[string]any{}
	}

	signer, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintf(errOut, "signer: %v\n", err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	digest, _, err := signing.SignSnapshot(context.Background(), signer, snap)
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}

	canon, err := signing.Canonicalize(snap)
	if err != nil {
		fmt.Fprintf(errOut, "encode signed snapshot: %v\n", err)
		return 1
	}
	if outPath != "" {
		if err := os.WriteFile(outPath, canon, 0o644); err != nil {
			fmt.Fprintf(errOut, "write %s: %v\n", outPath, err)
			return 1
		}
	} else {
		_, _ = out.Write(canon)
	}

	fmt.Fprintf(errOut, "signed by %s (%s)\n", signer.Address().Hex(), signing.FormatDigest(digest))
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var addrHex string
	fs.StringVar(&addrHex, "address", "", "Expected signer address (0x-prefixed)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: swarmhive verify --address <0x...> <snapshot.json>")
		return 2
	}
	if !common.IsHexAddress(addrHex) {
		fmt.Fprintln(errOut, "invalid --address")
		return 2
	}

	snap, code := readSnapshot(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	if err := signing.Verify(snap, common.HexToAddress(addrHex)); err != nil {
		fmt.Fprintf(errOut, "verify failed (%s): %v\n", signing.KindOf(err), err)
		return 1
	}
	fmt.Fprintln(out, "OK")
	return 0
}

func cmdRecover(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("recover", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: swarmhive recover <snapshot.json>")
		return 2
	}
	snap, code := readSnapshot(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	addr, err := signing.RecoverSigner(snap)
	if err != nil {
		fmt.Fprintf(errOut, "recover failed (%s): %v\n", signing.KindOf(err), err)
		return 1
	}
	fmt.Fprintln(out, addr.Hex())
	return 0
}

func cmdCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: swarmhive cid <snapshot.json>")
		return 2
	}
	snap, code := readSnapshot(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	id, err := storage.CIDForSnapshot(snap)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, id)
	return 0
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "import":
		return cmdKeyImport(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "swarmhive key: minimal local key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  swarmhive key init --name <name> [--force]")
	fmt.Fprintln(w, "  swarmhive key import --name <name> (--key-hex <64hex> | --key-file <path>) [--force]")
	fmt.Fprintln(w, "  swarmhive key list")
	fmt.Fprintln(w, "  swarmhive key export --name <name>")
}

func openKeyStore(dir string, errOut io.Writer) (*keys.KeyStore, int) {
	ks, err := keys.CreateKeyStore(dir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return nil, 1
	}
	return ks, 0
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var force bool
	var keysDir string
	fs.StringVar(&name, "name", "", "Key name (directory under ~/.swarmos/keys)")
	fs.BoolVar(&force, "force", false, "Overwrite an existing key")
	fs.StringVar(&keysDir, "keys-dir", "", "Keystore directory (default ~/.swarmos/keys)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	ks, code := openKeyStore(keysDir, errOut)
	if code != 0 {
		return code
	}
	addr, path, err := ks.Init(name, force)
	if err != nil {
		fmt.Fprintf(errOut, "init key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created key: %s\n", addr.Hex())
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key import", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var keyHex string
	var keyFile string
	var force bool
	var keysDir string
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&keyHex, "key-hex", "", "Hex private key")
	fs.StringVar(&keyFile, "key-file", "", "File containing a hex private key")
	fs.BoolVar(&force, "force", false, "Overwrite an existing key")
	fs.StringVar(&keysDir, "keys-dir", "", "Keystore directory (default ~/.swarmos/keys)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if (keyHex == "") == (keyFile == "") {
		fmt.Fprintln(errOut, "exactly one of --key-hex or --key-file is required")
		return 2
	}
	if keyFile != "" {
		b, err := os.ReadFile(keyFile)
		if err != nil {
			fmt.Fprintf(errOut, "read key file: %v\n", err)
			return 1
		}
		keyHex = strings.TrimSpace(string(b))
	}
	ks, code := openKeyStore(keysDir, errOut)
	if code != 0 {
		return code
	}
	addr, path, err := ks.Import(name, keyHex, force)
	if err != nil {
		fmt.Fprintf(errOut, "import key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Imported key: %s\n", addr.Hex())
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var keysDir string
	fs.StringVar(&keysDir, "keys-dir", "", "Keystore directory (default ~/.swarmos/keys)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, code := openKeyStore(keysDir, errOut)
	if code != 0 {
		return code
	}
	entries, err := ks.List()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\t%s\n", e.Name, e.Address.Hex())
	}
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var keysDir string
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&keysDir, "keys-dir", "", "Keystore directory (default ~/.swarmos/keys)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	ks, code := openKeyStore(keysDir, errOut)
	if code != 0 {
		return code
	}
	keyHex, err := ks.Export(name)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, keyHex)
	return 0
}

func openCAS(root, target string, errOut io.Writer) (storage.CAS, func() error, int) {
	if (root == "") == (target == "") {
		fmt.Fprintln(errOut, "exactly one of --root or --target is required")
		return nil, nil, 2
	}
	if root != "" {
		cas, err := localfs.New(root)
		if err != nil {
			fmt.Fprintf(errOut, "open store: %v\n", err)
			return nil, nil, 1
		}
		return cas, nil, 0
	}
	client, err := grpccas.Dial(target, grpccas.DialOptions{Timeout: 10 * time.Second})
	if err != nil {
		fmt.Fprintf(errOut, "dial store: %v\n", err)
		return nil, nil, 1
	}
	return client, client.Close, 0
}

func cmdStore(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: swarmhive store <put|get> ...")
		return 2
	}
	switch args[0] {
	case "put":
		return cmdStorePut(args[1:], out, errOut)
	case "get":
		return cmdStoreGet(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown store subcommand: %s\n", args[0])
		return 2
	}
}

func cmdStorePut(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("store put", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var root, target string
	fs.StringVar(&root, "root", "", "Local store directory")
	fs.StringVar(&target, "target", "", "Address of a swarmhive-casd gRPC store")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: swarmhive store put (--root <dir> | --target <addr>) <snapshot.json>")
		return 2
	}

	snap, code := readSnapshot(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	cas, closeFn, code := openCAS(root, target, errOut)
	if code != 0 {
		return code
	}
	if closeFn != nil {
		defer closeFn()
	}

	store := &storage.SnapshotStore{CAS: cas}
	id, err := store.Put(snap)
	if err != nil {
		fmt.Fprintf(errOut, "store put: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, id)
	return 0
}

func cmdStoreGet(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("store get", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var root, target string
	fs.StringVar(&root, "root", "", "Local store directory")
	fs.StringVar(&target, "target", "", "Address of a swarmhive-casd gRPC store")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: swarmhive store get (--root <dir> | --target <addr>) <cid>")
		return 2
	}

	id, err := cid.Decode(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "invalid cid: %v\n", err)
		return 2
	}
	cas, closeFn, code := openCAS(root, target, errOut)
	if code != 0 {
		return code
	}
	if closeFn != nil {
		defer closeFn()
	}

	b, err := cas.Get(id)
	if err != nil {
		fmt.Fprintf(errOut, "store get: %v\n", err)
		return 1
	}
	_, _ = out.Write(b)
	return 0
}
