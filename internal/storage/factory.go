package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/storage/badger"
	"github.com/ternarybob/folio/internal/storage/staging"
)

// NewStaging creates the staging store selected by config.Staging.Backend.
// Returns nil for "none" (or empty).
func NewStaging(logger arbor.ILogger, config *common.Config) (interfaces.Staging, error) {
	switch config.Staging.Backend {
	case "", "none":
		return nil, nil
	case "dir":
		if config.Staging.Dir == "" {
			return nil, fmt.Errorf("staging.dir is required for the dir backend")
		}
		logger.Info().Str("dir", config.Staging.Dir).Bool("record", config.Staging.Record).Msg("Using directory staging")
		return staging.NewStore(config.Staging.Dir, logger), nil
	case "badger":
		db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", config.Storage.Badger.Path).Bool("record", config.Staging.Record).Msg("Using badger staging")
		return badger.NewStagingStorage(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported staging backend: %s", config.Staging.Backend)
	}
}
