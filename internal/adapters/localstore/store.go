// Package localstore persists the session record as two independent string
// slots on the local filesystem: a profile JSON file and a raw bearer token
// file. This mirrors the storage contract the rest of the core assumes: the
// slots are individually readable and a single corrupt or missing slot makes
// the whole record absent, never an error.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	domainid "github.com/shopfront/identity/internal/domain/identity"
)

const (
	profileFile = "profile.json"
	tokenFile   = "token"
)

// Store is a file-backed session store. Safe for a single writer at a time,
// which matches the single-process ownership of the session record.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("localstore: dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Load reads both slots. Absent, partial, or unparsable state yields
// identity.ErrNoSession; only genuine I/O faults surface as other errors.
func (s *Store) Load(_ context.Context) (domainid.SessionRecord, error) {
	profileRaw, profileErr := os.ReadFile(filepath.Join(s.dir, profileFile))
	tokenRaw, tokenErr := os.ReadFile(filepath.Join(s.dir, tokenFile))

	if errors.Is(profileErr, fs.ErrNotExist) && errors.Is(tokenErr, fs.ErrNotExist) {
		return domainid.SessionRecord{}, domainid.ErrNoSession
	}
	// One slot without the other is an invalid pairing; report absent so the
	// caller's rehydrate collapses it to logged-out.
	if profileErr != nil || tokenErr != nil {
		if errors.Is(profileErr, fs.ErrNotExist) || errors.Is(tokenErr, fs.ErrNotExist) {
			return domainid.SessionRecord{}, domainid.ErrNoSession
		}
		err := profileErr
		if err == nil {
			err = tokenErr
		}
		return domainid.SessionRecord{}, fmt.Errorf("read session slots: %w", err)
	}

	var profile domainid.Profile
	if err := json.Unmarshal(profileRaw, &profile); err != nil {
		return domainid.SessionRecord{}, domainid.ErrNoSession
	}

	rec := domainid.SessionRecord{
		Profile:    profile,
		Credential: strings.TrimSpace(string(tokenRaw)),
	}
	if !rec.Complete() {
		return domainid.SessionRecord{}, domainid.ErrNoSession
	}
	return rec, nil
}

// Save writes both slots. Each slot is written to a temp file and renamed so
// a reader never observes a torn write; after Save returns, Load reflects the
// new record.
func (s *Store) Save(_ context.Context, rec domainid.SessionRecord) error {
	if !rec.Complete() {
		return errors.New("localstore: refusing to save incomplete session record")
	}

	profileRaw, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.writeSlot(profileFile, profileRaw); err != nil {
		return err
	}
	return s.writeSlot(tokenFile, []byte(rec.Credential))
}

// Clear removes both slots; missing slots are not an error, so Clear is
// idempotent.
func (s *Store) Clear(_ context.Context) error {
	for _, name := range []string{profileFile, tokenFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("clear session slot %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) writeSlot(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp slot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp slot: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename slot %s: %w", name, err)
	}
	return nil
}
