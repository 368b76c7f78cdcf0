package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mesavista/storefront-core/internal/core/domain"
)

// fileRecord is the on-disk layout: one JSON document per browser session
// holding all three durable records.
type fileRecord struct {
	SessionKey string          `json:"session_key,omitempty"`
	UserData   json.RawMessage `json:"user_data,omitempty"`
	Cart       json.RawMessage `json:"cart,omitempty"`
}

// File is a file-backed SessionStore, one JSON file per namespace under a
// base directory. Every save rewrites the file synchronously, so a process
// restart never silently drops state.
type File struct {
	path string
	log  zerolog.Logger

	mu sync.Mutex
}

// NewFile returns a File store writing to <dir>/<namespace>.json. The
// directory is created on first save.
func NewFile(dir, namespace string, log zerolog.Logger) *File {
	return &File{path: filepath.Join(dir, namespace+".json"), log: log}
}

func (f *File) SaveSession(sessionKey string, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := f.read()
	rec.SessionKey = sessionKey
	rec.UserData = nil
	if user != nil {
		raw, err := json.Marshal(user)
		if err != nil {
			return err
		}
		rec.UserData = raw
	}
	return f.write(rec)
}

func (f *File) LoadSession() (string, *domain.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := f.read()
	if rec.SessionKey == "" {
		return "", nil, false
	}
	user, ok := decodeUser(rec.UserData)
	if !ok {
		rec.SessionKey = ""
		rec.UserData = nil
		_ = f.write(rec)
		return "", nil, false
	}
	return rec.SessionKey, user, true
}

func (f *File) ClearSession() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := f.read()
	rec.SessionKey = ""
	rec.UserData = nil
	return f.write(rec)
}

func (f *File) SaveCart(lines []domain.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := f.read()
	rec.Cart = nil
	if len(lines) > 0 {
		raw, err := json.Marshal(lines)
		if err != nil {
			return err
		}
		rec.Cart = raw
	}
	return f.write(rec)
}

func (f *File) LoadCart() []domain.CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := f.read()
	lines, ok := decodeLines(rec.Cart)
	if !ok {
		rec.Cart = nil
		_ = f.write(rec)
		return nil
	}
	return lines
}

// read loads the record from disk. A missing or unparsable file yields an
// empty record; corruption at this level is never surfaced.
func (f *File) read() fileRecord {
	var rec fileRecord
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.log.Warn().Err(err).Str("path", f.path).Msg("session file unreadable, treating as absent")
		}
		return rec
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		f.log.Warn().Str("path", f.path).Msg("session file corrupt, discarding")
		_ = os.Remove(f.path)
		return fileRecord{}
	}
	return rec
}

// write persists via a temp file and rename so readers never observe a
// half-written record.
func (f *File) write(rec fileRecord) error {
	if rec.SessionKey == "" && rec.UserData == nil && rec.Cart == nil {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
