package remote

import (
	"context"
	"fmt"
	"time"

	"fitsync/internal/config"
	"fitsync/internal/fit"
)

// NewRecordStoreFromConfig creates the RecordStore named by the remote config type.
func NewRecordStoreFromConfig(ctx context.Context, cfg config.RemoteConfig) (RecordStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryRecordStore(), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem remote requires fs_root to be set")
		}
		return NewFileSystemRecordStore(cfg.FSRoot)
	case "s3":
		return NewS3RecordStoreFromConfig(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown record store type: %s", cfg.Type)
	}
}

// NewRemoteFromConfig creates a RemoteService based on the remote config type.
// sealer is used only by record-store backed remotes and may be nil.
func NewRemoteFromConfig(ctx context.Context, cfg config.RemoteConfig, userID string, sealer fit.Sealer) (fit.RemoteService, error) {
	timeout := cfg.Timeout.Or(10 * time.Second)

	if cfg.Type == "http" {
		if cfg.HTTPURL == "" {
			return nil, fmt.Errorf("http remote requires http_url to be set")
		}
		return NewHTTPClient(cfg.HTTPURL, userID, cfg.HTTPToken, timeout)
	}

	if cfg.Encrypt && sealer == nil {
		return nil, fmt.Errorf("remote encryption enabled but no sealer available")
	}
	if !cfg.Encrypt {
		sealer = nil
	}

	store, err := NewRecordStoreFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return WithTimeout(NewService(store, userID, sealer, nil, nil), timeout), nil
}
