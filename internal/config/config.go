package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultUserID is the fixed identity of the single user.
const DefaultUserID = "fitsync-user"

// Config represents the main configuration for fitsync.
type Config struct {
	UserID       string             `toml:"user_id"`
	BaseDir      string             `toml:"base_dir"`
	LogDir       string             `toml:"log_dir"`
	LogLevel     string             `toml:"log_level"` // "debug", "info" (default), "warn", "error"
	Store        StoreConfig        `toml:"store"`
	Remote       RemoteConfig       `toml:"remote"`
	Encryption   EncryptionConfig   `toml:"encryption"`
	Connectivity ConnectivityConfig `toml:"connectivity"`
	Queue        QueueConfig        `toml:"queue"`
	Profile      ProfileConfig      `toml:"profile"`
}

// StoreConfig represents configuration for the local store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type    string `toml:"type"`               // "sqlite", "file" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // used for type=sqlite and type=file
}

// RemoteConfig represents configuration for the remote record service.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type RemoteConfig struct {
	Type    string   `toml:"type"`    // "memory", "filesystem", "s3" or "http"
	Timeout Duration `toml:"timeout"` // per-call timeout; defaults to 10s
	Encrypt bool     `toml:"encrypt"` // seal record bodies with age (filesystem and s3 only)

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket       string `toml:"s3_bucket,omitempty"`
	S3Prefix       string `toml:"s3_prefix,omitempty"`
	S3Region       string `toml:"s3_region,omitempty"`
	S3Endpoint     string `toml:"s3_endpoint,omitempty"` // S3-compatible services
	S3UsePathStyle bool   `toml:"s3_use_path_style,omitempty"`
	// Static credentials. When empty the default AWS chain applies
	// (environment, shared config, instance role).
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// HTTP-specific fields (only used when Type == "http")
	HTTPURL   string `toml:"http_url,omitempty"`
	HTTPToken string `toml:"http_token,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used to seal remote records.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// ConnectivityConfig configures how reachability is observed.
type ConnectivityConfig struct {
	Probe       string   `toml:"probe"`                  // "remote" (default), "dial" or "offline"
	DialAddress string   `toml:"dial_address,omitempty"` // host:port, only used for probe=dial
	Interval    Duration `toml:"interval"`               // polling interval; defaults to 15s
}

// QueueConfig configures the pending-change queue.
type QueueConfig struct {
	// Persist mirrors the queue into the local store. Unset means true.
	Persist *bool `toml:"persist,omitempty"`
}

// ProfileConfig holds the weights the progress overview is measured against.
type ProfileConfig struct {
	DefaultWeight float64 `toml:"default_weight"`
	StartWeight   float64 `toml:"start_weight"`
	TargetWeight  float64 `toml:"target_weight"`
}

// Duration is a time.Duration that reads and writes as a TOML string ("15s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Or returns d, or def when d is not positive.
func (d Duration) Or(def time.Duration) time.Duration {
	if d.Duration <= 0 {
		return def
	}
	return d.Duration
}

// NewConfig creates a new Config with the provided values and defaults
// suitable for a first run: a SQLite local store and a filesystem remote
// under baseDir.
func NewConfig(userID, baseDir string) *Config {
	return &Config{
		UserID:   userID,
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Store: StoreConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Remote: RemoteConfig{
			Type:    "filesystem",
			Timeout: Duration{10 * time.Second},
			FSRoot:  filepath.Join(baseDir, "remote"),
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "fitsync.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "fitsync.key"),
		},
		Connectivity: ConnectivityConfig{
			Probe:    "remote",
			Interval: Duration{15 * time.Second},
		},
		Profile: ProfileConfig{
			DefaultWeight: 105.0,
			StartWeight:   105.0,
			TargetWeight:  90.0,
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.UserID == "" {
		cfg.UserID = DefaultUserID
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
