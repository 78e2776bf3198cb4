// Package localstore is the persistence substrate standing in for browser
// storage: small JSON documents under named keys, one file per key,
// rewritten atomically after every mutation and read back at startup.
//
// Storage is best-effort. A missing or corrupt file reads as "not present";
// callers treat persisted state as a cache of last known state, never as a
// source of truth.
package localstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

// ThemeKey is the storage key for the UI theme preference.
const ThemeKey = "theme"

// TokenKey is the storage key for the session token.
const TokenKey = "auth-token"

// Theme is the persisted UI theme preference.
type Theme struct {
	IsDark bool `json:"isDark"`
}

// Store persists keyed JSON documents in a single directory.
type Store struct {
	dir string
}

// Open prepares a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create storage dir")
	}
	return &Store{dir: dir}, nil
}

// DefaultDir returns the per-user storage directory for the storefront.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user config dir")
	}
	return filepath.Join(base, "storefront"), nil
}

// Get reads the document stored under key into v. It returns false when the
// key has never been written or its file is unreadable garbage.
func (s *Store) Get(key string, v any) (bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "read %q", key)
	}
	if err := json.Unmarshal(data, v); err != nil {
		// Corrupt state is treated as absent rather than fatal.
		return false, errors.Wrapf(err, "decode %q", key)
	}
	return true, nil
}

// Put serializes v and atomically replaces the document under key. The write
// goes to a temp file in the same directory first so a crash mid-write never
// leaves a truncated document behind.
func (s *Store) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %q", key)
	}

	tmp, err := os.CreateTemp(s.dir, keyFile(key)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %q", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %q", key)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return errors.Wrapf(err, "replace %q", key)
	}
	return nil
}

// Delete removes the document under key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete %q", key)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, keyFile(key))
}

// keyFile maps a key to a file name, replacing separators so a key can never
// escape the storage directory.
func keyFile(key string) string {
	key = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return key + ".json"
}

// Tokens adapts a Store to the token source the API client expects.
type Tokens struct {
	store *Store
}

// NewTokens returns a token store persisting under TokenKey.
func NewTokens(store *Store) *Tokens {
	return &Tokens{store: store}
}

// Token returns the persisted session token, or "" when signed out.
func (t *Tokens) Token() string {
	var tok string
	ok, err := t.store.Get(TokenKey, &tok)
	if err != nil || !ok {
		return ""
	}
	return tok
}

// Set persists a new session token.
func (t *Tokens) Set(token string) error {
	return t.store.Put(TokenKey, token)
}

// Clear drops the persisted token. Called after the backend answers with a
// 401-class error so the next request starts unauthenticated.
func (t *Tokens) Clear() {
	_ = t.store.Delete(TokenKey)
}

// LoadTheme reads the persisted theme preference, defaulting to light.
func (s *Store) LoadTheme() Theme {
	var th Theme
	if ok, err := s.Get(ThemeKey, &th); err != nil || !ok {
		return Theme{}
	}
	return th
}

// SaveTheme persists the theme preference.
func (s *Store) SaveTheme(th Theme) error {
	return s.Put(ThemeKey, th)
}
