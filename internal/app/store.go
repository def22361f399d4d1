package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/osgraph/internal/badgerstore"
	"github.com/specialistvlad/osgraph/internal/config"
	"github.com/specialistvlad/osgraph/internal/memstore"
	"github.com/specialistvlad/osgraph/internal/sqlstore"
	"github.com/specialistvlad/osgraph/internal/store"
)

// openStore opens the configured backend.
func openStore(ctx context.Context, cfg config.Store, logger *slog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memstore.New(), nil

	case config.BackendBadger:
		bcfg := badgerstore.InMemoryConfig()
		if cfg.Path != "" {
			bcfg = badgerstore.DefaultConfig(cfg.Path)
		}
		bcfg.Logger = logger.With("component", "badger")
		return badgerstore.Open(bcfg)

	case config.BackendSQLite:
		return sqlstore.Open(ctx, cfg.Path)

	default:
		return nil, fmt.Errorf("unknown store backend '%s'", cfg.Backend)
	}
}
