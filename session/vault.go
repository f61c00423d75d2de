package session

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/crypto"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
)

// Vault persists the opaque gateway credential across restarts.
// Load returns "" when nothing is stored.
type Vault interface {
	Load() (string, error)
	Save(credential string) error
	Clear() error
}

// MemoryVault keeps the credential in process memory.
type MemoryVault struct {
	mu         sync.Mutex
	credential string
}

// NewMemoryVault returns an empty in-process vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{}
}

func (v *MemoryVault) Load() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.credential, nil
}

func (v *MemoryVault) Save(credential string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.credential = credential
	return nil
}

func (v *MemoryVault) Clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.credential = ""
	return nil
}

// FileVault stores the credential AES-GCM sealed in a single file.
//
// Writes go to a temp file that is synced and renamed over the target, so a
// crash leaves either the old blob or the new one. A blob that fails to
// decrypt is treated as absent.
type FileVault struct {
	mu   sync.Mutex
	path string
	key  []byte
	log  *slog.Logger
}

// NewFileVault opens a vault at path sealed with a 64 hex character key.
func NewFileVault(path, hexKey string, log *slog.Logger) (*FileVault, error) {
	key, err := crypto.DeriveKey(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid vault key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	return &FileVault{path: path, key: key, log: logger.For(log, "vault")}, nil
}

func (v *FileVault) Load() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := os.ReadFile(v.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read vault: %w", err)
	}

	credential, err := crypto.Decrypt(strings.TrimSpace(string(data)), v.key)
	if err != nil {
		v.log.Warn("discarding unreadable credential", "path", v.path, "error", err)
		return "", nil
	}
	return credential, nil
}

func (v *FileVault) Save(credential string) error {
	sealed, err := crypto.Encrypt(credential, v.key)
	if err != nil {
		return fmt.Errorf("failed to seal credential: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(v.path), ".vault-*")
	if err != nil {
		return fmt.Errorf("failed to create vault temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.WriteString(sealed); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write vault: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync vault: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close vault: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("failed to chmod vault: %w", err)
	}
	if err := os.Rename(tmp.Name(), v.path); err != nil {
		return fmt.Errorf("failed to replace vault: %w", err)
	}
	return nil
}

func (v *FileVault) Clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := os.Remove(v.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear vault: %w", err)
	}
	return nil
}
