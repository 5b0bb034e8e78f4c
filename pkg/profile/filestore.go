package profile

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/azuretools/azprofile/pkg/osutil"
	"github.com/gofrs/flock"
)

// FileStore is the persistence capability the profile store is built on.
// The on-disk representation belongs to the implementation.
type FileStore interface {
	Exists(path string) bool
	ReadAll(path string) ([]byte, error)
	WriteAll(path string, data []byte) error
	Delete(path string) error
	Rename(oldPath, newPath string) error

	// ImportCredential stores opaque credential material (for example a
	// management certificate) and returns the key it was stored under.
	ImportCredential(material []byte) (string, error)
}

// OsFileStore is a FileStore over the local filesystem. Writes are guarded
// with an advisory file lock so concurrent processes do not interleave
// partial profiles.
type OsFileStore struct {
	// root holds imported credential material. May be empty when credential
	// import is not needed.
	root string
}

// NewOsFileStore returns a FileStore storing credential material under root.
func NewOsFileStore(root string) *OsFileStore {
	return &OsFileStore{root: root}
}

func (s *OsFileStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *OsFileStore) ReadAll(path string) ([]byte, error) {
	fl := flock.New(lockPath(path))
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("locking file %s: %w", lockPath(path), err)
	}
	defer unlock(fl)

	return os.ReadFile(path)
}

func (s *OsFileStore) WriteAll(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), osutil.PermissionDirectoryOwnerOnly); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}

	fl := flock.New(lockPath(path))
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("locking file %s: %w", lockPath(path), err)
	}
	defer unlock(fl)

	return os.WriteFile(path, data, osutil.PermissionFileOwnerOnly)
}

func (s *OsFileStore) Delete(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *OsFileStore) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (s *OsFileStore) ImportCredential(material []byte) (string, error) {
	if s.root == "" {
		return "", errors.New("credential store root is not configured")
	}

	dir := filepath.Join(s.root, "credentials")
	if err := os.MkdirAll(dir, osutil.PermissionDirectoryOwnerOnly); err != nil {
		return "", fmt.Errorf("creating credential directory: %w", err)
	}

	sum := sha1.Sum(material)
	key := hex.EncodeToString(sum[:])
	if err := os.WriteFile(filepath.Join(dir, key), material, osutil.PermissionFileOwnerOnly); err != nil {
		return "", fmt.Errorf("writing credential material: %w", err)
	}

	return key, nil
}

func lockPath(path string) string {
	return path + ".lock"
}

func unlock(fl *flock.Flock) {
	if err := fl.Unlock(); err != nil {
		log.Printf("failed to release file lock: %v", err)
	}
}

// MemoryFileStore is an in-memory FileStore used by tests.
type MemoryFileStore struct {
	files       map[string][]byte
	credentials map[string][]byte
}

func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{
		files:       map[string][]byte{},
		credentials: map[string][]byte{},
	}
}

func (s *MemoryFileStore) Exists(path string) bool {
	_, ok := s.files[path]
	return ok
}

func (s *MemoryFileStore) ReadAll(path string) ([]byte, error) {
	data, ok := s.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (s *MemoryFileStore) WriteAll(path string, data []byte) error {
	s.files[path] = data
	return nil
}

func (s *MemoryFileStore) Delete(path string) error {
	delete(s.files, path)
	return nil
}

func (s *MemoryFileStore) Rename(oldPath, newPath string) error {
	data, ok := s.files[oldPath]
	if !ok {
		return os.ErrNotExist
	}
	s.files[newPath] = data
	delete(s.files, oldPath)
	return nil
}

func (s *MemoryFileStore) ImportCredential(material []byte) (string, error) {
	sum := sha1.Sum(material)
	key := hex.EncodeToString(sum[:])
	s.credentials[key] = material
	return key, nil
}
