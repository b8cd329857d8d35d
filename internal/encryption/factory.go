package encryption

import (
	"fmt"

	"fitsync/internal/config"
	"fitsync/internal/fit"
)

// NewKeyManagerFromConfig creates a KeyManager based on the configuration type.
func NewKeyManagerFromConfig(cfg config.EncryptionConfig) (fit.KeyManager, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeKeys(cfg), nil
	case "test":
		return &PlainKeys{}, nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
