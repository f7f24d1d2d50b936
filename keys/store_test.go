package keys

import (
	"os"
	"testing"
)

func testStore(t *testing.T) *KeyStore {
	t.Helper()
	ks, err := CreateKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("CreateKeyStore: %v", err)
	}
	return ks
}

func TestKeyStore_InitLoadExport(t *testing.T) {
	ks := testStore(t)

	addr, path, err := ks.Init("queen", false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat key file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("key file mode = %o, want 600", perm)
	}

	signer, err := ks.Load("queen")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if signer.Address() != addr {
		t.Fatalf("loaded address %s, want %s", signer.Address().Hex(), addr.Hex())
	}

	keyHex, err := ks.Export("queen")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	reimported, err := LocalSignerFromHex(keyHex)
	if err != nil {
		t.Fatalf("LocalSignerFromHex(exported): %v", err)
	}
	if reimported.Address() != addr {
		t.Fatalf("export round trip changed identity")
	}
}

func TestKeyStore_InitRefusesOverwrite(t *testing.T) {
	ks := testStore(t)

	first, _, err := ks.Init("worker", false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, _, err := ks.Init("worker", false); err == nil {
		t.Fatalf("second Init without overwrite should fail")
	}

	second, _, err := ks.Init("worker", true)
	if err != nil {
		t.Fatalf("Init with overwrite: %v", err)
	}
	if first == second {
		t.Fatalf("overwrite kept the old key")
	}
}

func TestKeyStore_Import(t *testing.T) {
	ks := testStore(t)

	addr, _, err := ks.Import("imported", "0x"+testKey, false)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	signer, err := ks.Load("imported")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if signer.Address() != addr {
		t.Fatalf("imported key identity mismatch")
	}

	// Invalid key text must fail before touching the filesystem.
	if _, _, err := ks.Import("bad", "zzzz", false); err == nil {
		t.Fatalf("Import of invalid hex should fail")
	}
	if _, err := os.Stat(ks.keyFilePath("bad")); !os.IsNotExist(err) {
		t.Fatalf("failed import left a key file behind")
	}
}

func TestKeyStore_List(t *testing.T) {
	ks := testStore(t)

	if entries, err := ks.List(); err != nil || entries != nil {
		t.Fatalf("empty store List = %v, %v", entries, err)
	}

	if _, _, err := ks.Init("bravo", false); err != nil {
		t.Fatalf("Init bravo: %v", err)
	}
	if _, _, err := ks.Init("alpha", false); err != nil {
		t.Fatalf("Init alpha: %v", err)
	}
	// A malformed entry is skipped, not fatal.
	if err := os.MkdirAll(ks.Directory+"/broken", 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(ks.Directory+"/broken/signer.key", []byte("junk"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	entries, err := ks.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "alpha" || entries[1].Name != "bravo" {
		t.Fatalf("List = %v", entries)
	}
}

func TestCheckKeyName(t *testing.T) {
	for _, good := range []string{"queen", "worker-01", "A_b-3"} {
		if err := CheckKeyName(good); err != nil {
			t.Fatalf("CheckKeyName(%q): %v", good, err)
		}
	}
	for _, bad := range []string{"", "has space", "dot.name", "../escape", "slash/name"} {
		if err := CheckKeyName(bad); err == nil {
			t.Fatalf("CheckKeyName(%q) should fail", bad)
		}
	}
}
