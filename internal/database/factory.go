package database

import (
	"fmt"
	"path/filepath"

	"fitsync/internal/config"
	"fitsync/internal/fit"
)

// NewLocalStoreFromConfig creates a LocalStore implementation based on the store config type.
func NewLocalStoreFromConfig(cfg config.StoreConfig, userID string) (fit.LocalStore, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, userID+".db"), nil)
	case "file":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for file store")
		}
		return NewFileStore(filepath.Join(cfg.DataDir, userID))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
