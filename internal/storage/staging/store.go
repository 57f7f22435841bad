// Package staging replays raw block children from JSON files on disk.
// Each parent id maps to <dir>/<id>.json holding an array of block records.
package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/notion"
)

// Store is a directory of staged block children
type Store struct {
	dir    string
	logger arbor.ILogger
}

// NewStore creates a store rooted at dir. The directory is created on first save.
func NewStore(dir string, logger arbor.ILogger) *Store {
	return &Store{
		dir:    dir,
		logger: logger,
	}
}

// Dir returns the root directory
func (s *Store) Dir() string {
	return s.dir
}

// Load returns the staged children of parentID. ok is false when no file exists.
func (s *Store) Load(ctx context.Context, parentID string) ([]notion.BlockObject, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	path, err := s.path(parentID)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read staged children %s: %w", path, err)
	}

	var blocks []notion.BlockObject
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, false, fmt.Errorf("failed to parse staged children %s: %w", path, err)
	}
	if blocks == nil {
		blocks = []notion.BlockObject{}
	}

	s.logger.Debug().
		Str("parent_id", parentID).
		Int("count", len(blocks)).
		Msg("Loaded staged children")

	return blocks, true, nil
}

// Save writes the children of parentID, replacing any previous file
func (s *Store) Save(ctx context.Context, parentID string, blocks []notion.BlockObject) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.path(parentID)
	if err != nil {
		return err
	}

	if blocks == nil {
		blocks = []notion.BlockObject{}
	}
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode children of %s: %w", parentID, err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	// Write then rename so a reader never sees a half-written file
	tmp, err := os.CreateTemp(s.dir, parentID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write staged children: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write staged children: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store staged children: %w", err)
	}

	s.logger.Debug().
		Str("parent_id", parentID).
		Int("count", len(blocks)).
		Msg("Recorded staged children")

	return nil
}

// Close is a no-op; files are written synchronously
func (s *Store) Close() error {
	return nil
}

func (s *Store) path(parentID string) (string, error) {
	if parentID == "" || strings.ContainsAny(parentID, `/\`) || parentID == "." || parentID == ".." {
		return "", fmt.Errorf("invalid parent id %q", parentID)
	}
	return filepath.Join(s.dir, parentID+".json"), nil
}
