package store

import (
	"fmt"

	"financas/internal/config"
	applog "financas/internal/log"
)

// New creates the store backend selected by configuration.
func New(cfg *config.Config, logger *applog.Logger) (Store, error) {
	switch cfg.DataBackend {
	case "file":
		s, err := NewFileStore(cfg.DataDir, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize file store: %w", err)
		}
		logger.Info("Initialized file store", applog.FieldBackend, cfg.DataBackend, "dir", cfg.DataDir)
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStore(cfg.SQLiteDBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("Initialized sqlite store", applog.FieldBackend, cfg.DataBackend, "db_path", cfg.SQLiteDBPath)
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
