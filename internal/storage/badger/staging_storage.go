package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/notion"
	"github.com/timshannon/badgerhold/v4"
)

// stagedChildren is one persisted children list, keyed by ParentID
type stagedChildren struct {
	ParentID   string               `json:"parent_id"`
	Blocks     []notion.BlockObject `json:"blocks"`
	RecordedAt time.Time            `json:"recorded_at"`
}

// StagingStorage keeps raw block children in Badger
type StagingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

var _ interfaces.Staging = (*StagingStorage)(nil)

// NewStagingStorage creates a staging store on an open database
func NewStagingStorage(db *BadgerDB, logger arbor.ILogger) *StagingStorage {
	return &StagingStorage{
		db:     db,
		logger: logger,
	}
}

// Load returns the children recorded for parentID. ok is false when none exist.
func (s *StagingStorage) Load(ctx context.Context, parentID string) ([]notion.BlockObject, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var record stagedChildren
	err := s.db.Store().Get(parentID, &record)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get staged children of %s: %w", parentID, err)
	}

	if record.Blocks == nil {
		record.Blocks = []notion.BlockObject{}
	}
	return record.Blocks, true, nil
}

// Save records the children of parentID, replacing any previous record
func (s *StagingStorage) Save(ctx context.Context, parentID string, blocks []notion.BlockObject) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if parentID == "" {
		return fmt.Errorf("parent id is required")
	}

	record := stagedChildren{
		ParentID:   parentID,
		Blocks:     blocks,
		RecordedAt: time.Now(),
	}
	if err := s.db.Store().Upsert(parentID, &record); err != nil {
		return fmt.Errorf("failed to save staged children of %s: %w", parentID, err)
	}

	s.logger.Debug().
		Str("parent_id", parentID).
		Int("count", len(blocks)).
		Msg("Recorded staged children")
	return nil
}

// Close closes the underlying database
func (s *StagingStorage) Close() error {
	return s.db.Close()
}
