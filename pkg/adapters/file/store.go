package file

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/botflow/pkg/domain"
)

const ext = ".json"

// record is the on-disk document of one conversation.
type record struct {
	ConversationID string    `json:"conversation_id"`
	State          string    `json:"state"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store implements ports.StateStore using the local filesystem.
// Each conversation is a JSON file whose name is the base64url-encoded conversation id,
// so arbitrary platform ids are safe as file names.
type Store struct {
	BasePath string
}

// New creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".botflow/state".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".botflow", "state")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(conversationID string) string {
	return filepath.Join(s.BasePath, base64.RawURLEncoding.EncodeToString([]byte(conversationID))+ext)
}

// GetState reads the conversation's file.
func (s *Store) GetState(ctx context.Context, conversationID string) (string, error) {
	if conversationID == "" {
		return "", fmt.Errorf("conversationID cannot be empty")
	}

	data, err := os.ReadFile(s.path(conversationID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrStateNotFound
		}
		return "", fmt.Errorf("failed to read state file: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("failed to unmarshal state file: %w", err)
	}
	return rec.State, nil
}

// SetState writes the conversation's file atomically: temp file, fsync, rename.
func (s *Store) SetState(ctx context.Context, conversationID, state string) error {
	if conversationID == "" {
		return fmt.Errorf("conversationID cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure state directory: %w", err)
	}

	data, err := json.MarshalIndent(record{
		ConversationID: conversationID,
		State:          state,
		UpdatedAt:      time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Same directory as the destination, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := s.path(conversationID)
	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace state file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// ClearState removes the conversation's file.
func (s *Store) ClearState(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversationID cannot be empty")
	}
	err := os.Remove(s.path(conversationID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// List returns every conversation with a state file, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list state files: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) || strings.HasPrefix(name, "tmp-") {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		ids = append(ids, string(raw))
	}
	sort.Strings(ids)
	return ids, nil
}
