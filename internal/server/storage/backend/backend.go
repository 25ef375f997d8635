// Package backend opens the storage implementation selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/iudanet/filmapi/internal/config"
	"github.com/iudanet/filmapi/internal/server/storage"
	"github.com/iudanet/filmapi/internal/server/storage/boltdb"
	"github.com/iudanet/filmapi/internal/server/storage/sqlite"
)

// Open returns the Store for cfg.Driver at cfg.Path.
func Open(ctx context.Context, cfg config.Storage) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return s, nil
	case config.DriverBolt:
		s, err := boltdb.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("bolt: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
