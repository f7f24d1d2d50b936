package keys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// KeyStore is a simple local-first key management system.
//
// EXPERIMENTAL: this filesystem-backed storage surface is not part of the
// stable protocol core API and may change in MINOR releases.
//
// Features:
// - Supports secp256k1 keys only
// - Stores keys as hex on the local filesystem (0600 files, 0700 dirs)
// - No external dependencies beyond the signing stack
type KeyStore struct {
	Directory string
}

// KeyEntry describes one stored key.
type KeyEntry struct {
	Name    string
	Address common.Address
}

// DefaultDirectory returns ~/.swarmos/keys.
func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".swarmos", "keys"), nil
}

// CreateKeyStore opens a store rooted at directory, falling back to
// DefaultDirectory when directory is empty.
func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

// CheckKeyName restricts names to [A-Za-z0-9_-] so they are safe as path
// components.
func CheckKeyName(name string) error {
	if name == "" {
		return errors.New("key name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in key name", char)
	}
	return nil
}

func (ks *KeyStore) keyFilePath(name string) string {
	return filepath.Join(ks.Directory, name, "signer.key")
}

func (ks *KeyStore) saveKeyToFile(filePath string, keyHex string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(keyHex + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadSignerFromFile(filePath string) (*LocalSigner, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return LocalSignerFromHex(strings.TrimSpace(string(data)))
}

// Init generates a fresh key under name and returns its address and file
// path. Fails if the key exists unless overwrite is set.
func (ks *KeyStore) Init(name string, overwrite bool) (common.Address, string, error) {
	if err := CheckKeyName(name); err != nil {
		return common.Address{}, "", err
	}
	signer, err := Generate()
	if err != nil {
		return common.Address{}, "", err
	}
	filePath := ks.keyFilePath(name)
	if err := ks.saveKeyToFile(filePath, signer.ExportHex(), overwrite); err != nil {
		return common.Address{}, "", err
	}
	return signer.Address(), filePath, nil
}

// Import stores an existing hex key under name. The key text is validated
// before anything touches the filesystem.
func (ks *KeyStore) Import(name string, keyHex string, overwrite bool) (common.Address, string, error) {
	if err := CheckKeyName(name); err != nil {
		return common.Address{}, "", err
	}
	signer, err := LocalSignerFromHex(keyHex)
	if err != nil {
		return common.Address{}, "", err
	}
	filePath := ks.keyFilePath(name)
	if err := ks.saveKeyToFile(filePath, signer.ExportHex(), overwrite); err != nil {
		return common.Address{}, "", err
	}
	return signer.Address(), filePath, nil
}

// Load returns a signer for a stored key.
func (ks *KeyStore) Load(name string) (*LocalSigner, error) {
	if err := CheckKeyName(name); err != nil {
		return nil, err
	}
	return ks.loadSignerFromFile(ks.keyFilePath(name))
}

// Export returns the stored key as bare hex.
func (ks *KeyStore) Export(name string) (string, error) {
	signer, err := ks.Load(name)
	if err != nil {
		return "", err
	}
	return signer.ExportHex(), nil
}

// List enumerates stored keys with their derived addresses, sorted by name.
// Unreadable or malformed entries are skipped.
func (ks *KeyStore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var result []KeyEntry
	for _, name := range names {
		signer, err := ks.loadSignerFromFile(ks.keyFilePath(name))
		if err != nil {
			continue
		}
		result = append(result, KeyEntry{Name: name, Address: signer.Address()})
	}
	return result, nil
}
