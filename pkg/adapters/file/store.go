package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/cartwise/pkg/domain"
)

// Store implements ports.CheckpointStore using the local filesystem.
// It stores sessions as JSON files in a configured directory.
// Version checks are serialized within this process only.
type Store struct {
	BasePath string
	TTL      time.Duration

	mu sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".cartwise/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".cartwise", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(threadID string) (string, error) {
	if threadID == "" {
		return "", fmt.Errorf("threadID cannot be empty")
	}
	if strings.ContainsAny(threadID, `/\`) || threadID == "." || threadID == ".." {
		return "", fmt.Errorf("invalid threadID %q", threadID)
	}
	return filepath.Join(s.BasePath, threadID+".json"), nil
}

// Save persists the checkpoint to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	destPath, err := s.path(cp.ThreadID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Compare versions
	current, err := s.read(destPath)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		if cp.Version != 0 {
			return fmt.Errorf("checkpoint %s does not exist at version %d: %w", cp.ThreadID, cp.Version, domain.ErrConflict)
		}
	case err != nil:
		return err
	case current.Version != cp.Version:
		return fmt.Errorf("checkpoint %s at version %d, got %d: %w", cp.ThreadID, current.Version, cp.Version, domain.ErrConflict)
	}

	// Ensure directory exists
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	next := *cp
	next.Version++
	data, err := json.MarshalIndent(&next, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	// 2. Create Temp File on the same filesystem (required for atomic rename)
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+cp.ThreadID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	// 3. Write and fsync
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// 4. Close File (cannot rename open file on Windows)
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// 5. Atomic Rename
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to valid session: %w", err)
	}

	cp.Version = next.Version
	return nil
}

// Load retrieves the checkpoint from a JSON file.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	filePath, err := s.path(threadID)
	if err != nil {
		return nil, err
	}
	return s.read(filePath)
}

func (s *Store) read(filePath string) (*domain.Checkpoint, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to stat session file: %w", err)
	}
	if s.expired(info.ModTime()) {
		return nil, domain.ErrSessionNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

func (s *Store) expired(modTime time.Time) bool {
	return s.TTL > 0 && time.Since(modTime) >= s.TTL
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	filePath, err := s.path(threadID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns all live session IDs. Expired session files are removed.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		if info, err := entry.Info(); err == nil && s.expired(info.ModTime()) {
			_ = os.Remove(filepath.Join(s.BasePath, name))
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(sessions)
	return sessions, nil
}
