package storage

import (
	"fmt"

	"mercator-hq/chatrelay/pkg/audit"
	"mercator-hq/chatrelay/pkg/config"
)

// New creates the storage backend named by cfg.Backend.
func New(cfg config.AuditConfig) (audit.Storage, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStorage(), nil
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLite)
	default:
		return nil, fmt.Errorf("unknown audit backend %q (must be memory or sqlite)", cfg.Backend)
	}
}
