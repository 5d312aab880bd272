package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultDir returns the per-user config directory for the client.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "arc")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "arc")
}

type tokenFile struct {
	AccessToken string    `json:"access_token,omitempty"`
	Sealed      []byte    `json:"sealed,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	SavedAt     time.Time `json:"saved_at"`
}

// FileBackend is the durable client-side storage: a JSON record in the
// config directory. Writes are best effort.
type FileBackend struct {
	dir    string
	sealer *Sealer
}

// NewFile stores the token under dir. An empty dir makes the backend
// unavailable. A nil sealer stores the token in plain text.
func NewFile(dir string, sealer *Sealer) *FileBackend {
	return &FileBackend{dir: dir, sealer: sealer}
}

func (f *FileBackend) Name() string { return "file" }

// BestEffort marks durable writes as non-fatal.
func (f *FileBackend) BestEffort() bool { return true }

// Path is the location of the token record.
func (f *FileBackend) Path() string {
	if f.dir == "" {
		return ""
	}
	return filepath.Join(f.dir, Key+".json")
}

func (f *FileBackend) Load(context.Context) (string, error) {
	if f.dir == "" {
		return "", ErrUnavailable
	}
	b, err := os.ReadFile(f.Path())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", fmt.Errorf("decode token file: %w", err)
	}
	if len(tf.Sealed) > 0 {
		if f.sealer == nil {
			return "", errors.New("token file is sealed but no key is configured")
		}
		plain, err := f.sealer.Open(tf.Sealed)
		if err != nil {
			return "", fmt.Errorf("open sealed token: %w", err)
		}
		return string(plain), nil
	}
	if tf.AccessToken == "" {
		return "", ErrNoToken
	}
	return tf.AccessToken, nil
}

func (f *FileBackend) Save(_ context.Context, token string) error {
	if f.dir == "" {
		return ErrUnavailable
	}
	if token == "" {
		if err := os.Remove(f.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}

	tf := tokenFile{SavedAt: time.Now().UTC()}
	if exp, ok := ExpiryOf(token); ok {
		tf.ExpiresAt = exp
	}
	if f.sealer != nil {
		sealed, err := f.sealer.Seal([]byte(token))
		if err != nil {
			return err
		}
		tf.Sealed = sealed
	} else {
		tf.AccessToken = token
	}

	b, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.Path() + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path())
}
