// Package config loads CLI configuration from flags, environment,
// .env files, a YAML config file and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/meta"
)

// EnvPrefix prefixes every environment variable, e.g. EXPRSQL_DSN.
const EnvPrefix = "EXPRSQL"

// FileName is the config file base name searched in the working directory,
// the home directory and ~/.config/exprsql.
const FileName = ".exprsql"

// Keys of the configuration values.
const (
	KeyDialect   = "dialect"
	KeyDSN       = "dsn"
	KeySchemaDir = "schema_dir"
	KeyNaming    = "naming"
)

// flagNames maps keys onto their command-line flags.
var flagNames = map[string]string{
	KeyDialect:   "dialect",
	KeyDSN:       "dsn",
	KeySchemaDir: "schema-dir",
	KeyNaming:    "naming",
}

// Config holds the resolved configuration.
type Config struct {
	Dialect   string
	DSN       string
	SchemaDir string
	Naming    meta.NamingPolicy

	// File is the config file that was read, empty if none.
	File string
}

// Loader reads configuration. The zero value is not usable; use NewLoader.
type Loader struct {
	fs      afero.Fs
	dirs    []string
	file    string
	dotenv  []string
	environ func(string) (string, bool)
	setenv  func(string, string) error
}

// Option configures a Loader.
type Option func(*Loader)

// WithFs reads config and .env files from fs. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(l *Loader) { l.fs = fs }
}

// WithConfigFile reads exactly this file instead of searching.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.file = path }
}

// WithSearchPaths replaces the directories searched for the config file.
func WithSearchPaths(dirs ...string) Option {
	return func(l *Loader) { l.dirs = dirs }
}

// NewLoader creates a loader searching the working directory and the
// user's home.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		fs:      afero.NewOsFs(),
		dirs:    defaultSearchPaths(),
		dotenv:  []string{".env.local", ".env"},
		environ: os.LookupEnv,
		setenv:  os.Setenv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultSearchPaths() []string {
	dirs := []string{"."}
	if home, err := homedir.Dir(); err == nil {
		dirs = append(dirs, home, filepath.Join(home, ".config", "exprsql"))
	}
	return dirs
}

// Load resolves the configuration. flags may be nil; flags that were set
// explicitly take precedence over every other source.
func (l *Loader) Load(flags *pflag.FlagSet) (*Config, error) {
	if err := l.loadDotenv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(l.fs)
	v.SetConfigType("yaml")
	if l.file != "" {
		v.SetConfigFile(l.file)
	} else {
		v.SetConfigName(FileName)
		for _, dir := range l.dirs {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDialect, dialect.SQLite)
	v.SetDefault(KeyDSN, "")
	v.SetDefault(KeySchemaDir, "./schema")
	v.SetDefault(KeyNaming, string(meta.NamingLower))

	if flags != nil {
		for key, name := range flagNames {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Dialect:   v.GetString(KeyDialect),
		DSN:       v.GetString(KeyDSN),
		SchemaDir: v.GetString(KeySchemaDir),
		File:      v.ConfigFileUsed(),
	}

	naming, err := meta.ParseNamingPolicy(v.GetString(KeyNaming))
	if err != nil {
		return nil, err
	}
	cfg.Naming = naming

	if _, err := dialect.Lookup(cfg.Dialect); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotenv exports EXPRSQL_ variables from .env.local and .env without
// overriding variables already present in the environment, so .env.local
// wins over .env.
func (l *Loader) loadDotenv() error {
	for _, name := range l.dotenv {
		data, err := afero.ReadFile(l.fs, name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("read %s: %w", name, err)
		}
		vars, err := godotenv.Unmarshal(string(data))
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for k, val := range vars {
			if !strings.HasPrefix(k, EnvPrefix+"_") {
				continue
			}
			if _, set := l.environ(k); set {
				continue
			}
			if err := l.setenv(k, val); err != nil {
				return err
			}
		}
	}
	return nil
}
