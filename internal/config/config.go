// Package config loads the patternmark configuration file.
//
// The file is TOML and every section is optional:
//
//	[storage]
//	backend = "sqlite"
//	dsn = "/var/lib/patternmark/annotations.db"
//
//	[preferences]
//	show_labels = false
//
//	[colors.CICD]
//	testing = "#0ea5e9"
//
//	[server]
//	addr = "127.0.0.1:8787"
//
// The file is looked up at $PATTERNMARK_CONFIG, then
// $XDG_CONFIG_HOME/patternmark/config.toml, then
// ~/.config/patternmark/config.toml. A missing file means defaults.
package config

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/patternmark/pkg/annotation"
	"github.com/matzehuels/patternmark/pkg/docstore"
	"github.com/matzehuels/patternmark/pkg/errors"
	"github.com/matzehuels/patternmark/pkg/store"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "PATTERNMARK_CONFIG"

// DefaultServerAddr is the listen address of `patternmark serve`.
const DefaultServerAddr = "127.0.0.1:8787"

// =============================================================================
// Config Types
// =============================================================================

// Config is the decoded configuration file.
type Config struct {
	Storage     StorageConfig                `toml:"storage"`
	Preferences PreferencesConfig            `toml:"preferences"`
	Colors      map[string]map[string]string `toml:"colors"`
	Server      ServerConfig                 `toml:"server"`
}

// StorageConfig selects the document backend.
type StorageConfig struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	DSN     string `toml:"dsn"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`

	S3Bucket    string `toml:"s3_bucket"`
	S3Region    string `toml:"s3_region"`
	S3Endpoint  string `toml:"s3_endpoint"`
	S3PathStyle bool   `toml:"s3_path_style"`

	Prefix string `toml:"prefix"`
}

// PreferencesConfig overrides the default display flags. Nil means default.
type PreferencesConfig struct {
	ShowLabels       *bool `toml:"show_labels"`
	AnimationEnabled *bool `toml:"animation_enabled"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend:       docstore.BackendFile,
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "patternmark",
			S3Region:      "us-east-1",
			Prefix:        "patternmark:",
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Path returns the config file location.
func Path() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "patternmark", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "get home dir")
	}
	return filepath.Join(home, ".config", "patternmark", "config.toml"), nil
}

// Load reads the config file at path, or at Path() when path is empty.
// A missing file at the default location yields Default(); an explicitly
// named file must exist. Unknown keys are rejected.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = Path(); err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Wrap(errors.ErrCodeNotFound, err, "config file %s not found", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	return Parse(string(data))
}

// Parse decodes TOML text over Default() and validates the result.
func Parse(text string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func (c Config) Write(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return nil
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks backend names, color overrides and required fields.
func (c Config) Validate() error {
	if !slices.Contains(docstore.Backends(), c.Storage.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "storage.backend %q is not one of %s",
			c.Storage.Backend, strings.Join(docstore.Backends(), ", "))
	}
	if c.Storage.Backend == docstore.BackendS3 && c.Storage.S3Bucket == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "storage.s3_bucket is required for the s3 backend")
	}
	if c.Storage.Backend == docstore.BackendPostgres && c.Storage.DSN == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "storage.dsn is required for the postgres backend")
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr cannot be empty")
	}
	for name, subtypes := range c.Colors {
		if _, err := annotation.ParsePatternType(name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "colors.%s", name)
		}
		for subtype, color := range subtypes {
			if err := errors.ValidateColor(color); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "colors.%s.%s", name, subtype)
			}
		}
	}
	return nil
}

// =============================================================================
// Conversion
// =============================================================================

// DocStore returns the document backend configuration.
func (c Config) DocStore() docstore.Config {
	s := c.Storage
	return docstore.Config{
		Backend:         s.Backend,
		Dir:             s.Dir,
		DSN:             s.DSN,
		RedisAddr:       s.RedisAddr,
		RedisPassword:   s.RedisPassword,
		RedisDB:         s.RedisDB,
		MongoURI:        s.MongoURI,
		MongoDatabase:   s.MongoDatabase,
		MongoCollection: s.MongoCollection,
		S3: docstore.S3Config{
			Bucket:    s.S3Bucket,
			Region:    s.S3Region,
			Endpoint:  s.S3Endpoint,
			PathStyle: s.S3PathStyle,
		},
		Prefix: s.Prefix,
	}
}

// ColorScheme returns the default scheme with the configured overrides
// applied. Call Validate first; unparseable type names are skipped.
func (c Config) ColorScheme() annotation.ColorScheme {
	overrides := make(annotation.ColorScheme, len(c.Colors))
	for name, subtypes := range c.Colors {
		t, err := annotation.ParsePatternType(name)
		if err != nil {
			continue
		}
		if overrides[t] == nil {
			overrides[t] = make(map[string]string, len(subtypes))
		}
		for subtype, color := range subtypes {
			overrides[t][subtype] = color
		}
	}
	return annotation.DefaultColorScheme().Merge(overrides)
}

// StorePreferences returns the preferences a fresh store starts with.
func (c Config) StorePreferences() store.Preferences {
	p := store.DefaultPreferences()
	p.ColorScheme = c.ColorScheme()
	if c.Preferences.ShowLabels != nil {
		p.ShowLabels = *c.Preferences.ShowLabels
	}
	if c.Preferences.AnimationEnabled != nil {
		p.AnimationEnabled = *c.Preferences.AnimationEnabled
	}
	return p
}
