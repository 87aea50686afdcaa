package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/bartender/pkg/domain"
)

// Store implements ports.Store using the local filesystem.
// Sessions live in <base>/sessions/<id>.json and facts in <base>/facts/<user>.json.
type Store struct {
	BasePath string

	// factsMu serializes UpdateFacts within this process.
	factsMu sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".bartender".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = ".bartender"
	}
	return &Store{BasePath: basePath}
}

func (s *Store) sessionsDir() string { return filepath.Join(s.BasePath, "sessions") }
func (s *Store) factsDir() string { return filepath.Join(s.BasePath, "facts") }

func validID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid id %q", id)
	}
	return nil
}

// writeAtomic writes data to dir/name through a synced temp file and a rename,
// so readers never observe a partial file.
func writeAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}
	destPath := filepath.Join(dir, name)

	// Same directory keeps us on one filesystem, which rename requires.
	tmpFile, err := os.CreateTemp(dir, "tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Save persists the session to a JSON file atomically.
func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	if err := validID(session.ID); err != nil {
		return err
	}
	session.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return writeAtomic(s.sessionsDir(), session.ID+".json", data)
}

// Load retrieves the session from its JSON file.
func (s *Store) Load(ctx context.Context, id string) (*domain.Session, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.sessionsDir(), id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.sessionsDir(), id+".json"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns all stored conversation IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.sessionsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, ".json"))
	}
	return sessions, nil
}

// LoadFacts reads the facts file of a user.
func (s *Store) LoadFacts(ctx context.Context, userID string) (*domain.UserFacts, error) {
	if err := validID(userID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.factsDir(), userID+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrFactsNotFound
		}
		return nil, fmt.Errorf("failed to read facts file: %w", err)
	}

	var facts domain.UserFacts
	if err := json.Unmarshal(data, &facts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal facts: %w", err)
	}
	return &facts, nil
}

// UpdateFacts applies fn to the user's facts and rewrites the file atomically.
// Atomicity holds within one process; share the directory across processes at your own risk.
func (s *Store) UpdateFacts(ctx context.Context, userID string, fn func(*domain.UserFacts) error) error {
	s.factsMu.Lock()
	defer s.factsMu.Unlock()

	facts, err := s.LoadFacts(ctx, userID)
	if errors.Is(err, domain.ErrFactsNotFound) {
		facts, err = &domain.UserFacts{UserID: userID}, nil
	}
	if err != nil {
		return err
	}

	if err := fn(facts); err != nil {
		return err
	}
	facts.UserID = userID
	facts.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal facts: %w", err)
	}
	return writeAtomic(s.factsDir(), userID+".json", data)
}
