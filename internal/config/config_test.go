package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	persist := false
	original := &Config{
		UserID:   "test-user",
		BaseDir:  "/home/user/.local/share/fitsync",
		LogDir:   "/home/user/.local/share/fitsync/log",
		LogLevel: "debug",
		Store:    StoreConfig{Type: "sqlite", DataDir: "/home/user/.local/share/fitsync/data"},
		Remote: RemoteConfig{
			Type:     "s3",
			Timeout:  Duration{5 * time.Second},
			Encrypt:  true,
			S3Bucket: "fitness",
			S3Prefix: "records",
			S3Region: "us-east-1",
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  "/home/user/.local/share/fitsync/keys/fitsync.pub",
			PrivateKeyPath: "/home/user/.local/share/fitsync/keys/fitsync.key",
		},
		Connectivity: ConnectivityConfig{Probe: "dial", DialAddress: "example.com:443", Interval: Duration{30 * time.Second}},
		Queue:        QueueConfig{Persist: &persist},
		Profile:      ProfileConfig{DefaultWeight: 105, StartWeight: 105, TargetWeight: 90},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.UserID != original.UserID {
		t.Errorf("UserID = %q, want %q", got.UserID, original.UserID)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", got.LogLevel, "debug")
	}
	if got.Store.Type != "sqlite" {
		t.Errorf("Store.Type = %q, want %q", got.Store.Type, "sqlite")
	}
	if got.Remote.Type != "s3" || got.Remote.S3Bucket != "fitness" || got.Remote.S3Prefix != "records" {
		t.Errorf("Remote = %+v, want s3 bucket fitness prefix records", got.Remote)
	}
	if got.Remote.Timeout.Duration != 5*time.Second {
		t.Errorf("Remote.Timeout = %v, want 5s", got.Remote.Timeout.Duration)
	}
	if !got.Remote.Encrypt {
		t.Error("Remote.Encrypt = false, want true")
	}
	if got.Connectivity.Interval.Duration != 30*time.Second {
		t.Errorf("Connectivity.Interval = %v, want 30s", got.Connectivity.Interval.Duration)
	}
	if got.Connectivity.DialAddress != "example.com:443" {
		t.Errorf("Connectivity.DialAddress = %q", got.Connectivity.DialAddress)
	}
	if got.Queue.Persist == nil || *got.Queue.Persist {
		t.Errorf("Queue.Persist = %v, want false", got.Queue.Persist)
	}
	if got.Profile.TargetWeight != 90 {
		t.Errorf("Profile.TargetWeight = %v, want 90", got.Profile.TargetWeight)
	}
}

func TestManager_Read_DefaultsUserID(t *testing.T) {
	m := &Manager{}
	got, err := m.Read(strings.NewReader("base_dir = \"/tmp/x\"\n"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.UserID != DefaultUserID {
		t.Errorf("UserID = %q, want %q", got.UserID, DefaultUserID)
	}
	if got.Queue.Persist != nil {
		t.Errorf("Queue.Persist = %v, want nil", *got.Queue.Persist)
	}
}

func TestManager_Read_InvalidDuration(t *testing.T) {
	m := &Manager{}
	_, err := m.Read(strings.NewReader("[remote]\ntimeout = \"soon\"\n"))
	if err == nil {
		t.Fatal("Read() expected error for invalid duration")
	}
}

func TestDuration_Or(t *testing.T) {
	tests := []struct {
		name string
		d    Duration
		def  time.Duration
		want time.Duration
	}{
		{"zero uses default", Duration{}, time.Second, time.Second},
		{"negative uses default", Duration{-time.Second}, time.Minute, time.Minute},
		{"positive wins", Duration{3 * time.Second}, time.Minute, 3 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Or(tt.def); got != tt.want {
				t.Errorf("Or() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("user-1", "/data/fitsync")

	if cfg.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", cfg.UserID, "user-1")
	}
	if cfg.LogDir != "/data/fitsync/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/fitsync/log")
	}
	if cfg.Store.Type != "sqlite" || cfg.Store.DataDir != "/data/fitsync/data" {
		t.Errorf("Store = %+v, want sqlite under /data/fitsync/data", cfg.Store)
	}
	if cfg.Remote.Type != "filesystem" || cfg.Remote.FSRoot != "/data/fitsync/remote" {
		t.Errorf("Remote = %+v, want filesystem under /data/fitsync/remote", cfg.Remote)
	}
	if cfg.Encryption.PublicKeyPath != "/data/fitsync/keys/fitsync.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q", cfg.Encryption.PublicKeyPath)
	}
	if cfg.Profile.DefaultWeight != 105.0 || cfg.Profile.TargetWeight != 90.0 {
		t.Errorf("Profile = %+v, want default 105 target 90", cfg.Profile)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fitsync.toml")
		cfg := NewConfig("u1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fitsync.toml")
		cfg := NewConfig("u1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fitsync.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Store = StoreConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.UserID != "read-test" {
			t.Errorf("UserID = %q, want %q", got.UserID, "read-test")
		}
		if got.Store.Type != "memory" {
			t.Errorf("Store.Type = %q, want %q", got.Store.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/fitsync.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
