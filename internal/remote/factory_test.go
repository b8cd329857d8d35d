package remote

import (
	"context"
	"testing"

	"fitsync/internal/config"
	"fitsync/internal/encryption"
)

func TestNewRemoteFromConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.RemoteConfig
		sealer  bool
		wantErr bool
	}{
		{name: "memory", cfg: config.RemoteConfig{Type: "memory"}},
		{name: "filesystem", cfg: config.RemoteConfig{Type: "filesystem", FSRoot: t.TempDir()}},
		{name: "filesystem without root", cfg: config.RemoteConfig{Type: "filesystem"}, wantErr: true},
		{name: "s3 without bucket", cfg: config.RemoteConfig{Type: "s3"}, wantErr: true},
		{name: "http", cfg: config.RemoteConfig{Type: "http", HTTPURL: "http://localhost:8080"}},
		{name: "http without url", cfg: config.RemoteConfig{Type: "http"}, wantErr: true},
		{name: "encrypted without sealer", cfg: config.RemoteConfig{Type: "memory", Encrypt: true}, wantErr: true},
		{name: "encrypted with sealer", cfg: config.RemoteConfig{Type: "memory", Encrypt: true}, sealer: true},
		{name: "unknown", cfg: config.RemoteConfig{Type: "ftp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sealer encryption.PlainSealer
			var got any
			var err error
			if tt.sealer {
				got, err = NewRemoteFromConfig(ctx, tt.cfg, "user-1", sealer)
			} else {
				got, err = NewRemoteFromConfig(ctx, tt.cfg, "user-1", nil)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRemoteFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got == nil {
				t.Error("NewRemoteFromConfig() returned nil")
			}
		})
	}
}

func TestWithTimeout(t *testing.T) {
	svc := NewService(NewMemoryRecordStore(), "u", nil, nil, nil)
	if got := WithTimeout(svc, 0); got != svc {
		t.Error("WithTimeout(0) should return the service unchanged")
	}
}
