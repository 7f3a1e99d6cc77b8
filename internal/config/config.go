// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON or YAML
// config file, a .env file and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address" yaml:"server_address"`

	// StorageDriver selects the key-value backend: file, memory, sqlite3 or
	// postgres.
	StorageDriver string `json:"storage_driver" yaml:"storage_driver"`

	// StoragePath is the data directory of the file backend and the home of
	// the default SQLite database.
	StoragePath string `json:"storage_path" yaml:"storage_path"`

	// DatabaseDSN holds the database connection string for the sql drivers.
	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`

	// Namespace is the store key the greeting collection lives under.
	Namespace string `json:"namespace" yaml:"namespace"`

	// BaseURL prefixes share links.
	BaseURL string `json:"base_url" yaml:"base_url"`

	LogLevel string `json:"log_level" yaml:"log_level"`

	// IDScheme is uuid or ulid.
	IDScheme string `json:"id_scheme" yaml:"id_scheme"`

	// ExportDir receives exported card images.
	ExportDir string `json:"export_dir" yaml:"export_dir"`

	// Config is the path to the Config file.
	Config string `json:"-" yaml:"-"`

	// EnvFile is loaded before the environment is consulted. A missing
	// file is ignored.
	EnvFile string `json:"-" yaml:"-"`
}

// Default returns the built-in defaults.
func Default() *Options {
	return &Options{
		Port:          "localhost:8080",
		StorageDriver: DriverFile,
		StoragePath:   "./data",
		Namespace:     "valentine_messages",
		BaseURL:       "http://localhost:8080",
		LogLevel:      "info",
		IDScheme:      "uuid",
		ExportDir:     ".",
		Config:        "config.json",
		EnvFile:       ".env",
	}
}

// RegisterFlags binds the options to flags with the current values as
// defaults.
func (o *Options) RegisterFlags(flags *flag.FlagSet) {
	flags.StringVar(&o.Port, "a", o.Port, "run on ip:port server")
	flags.StringVar(&o.StorageDriver, "s", o.StorageDriver, "storage driver: file, memory, sqlite3, postgres")
	flags.StringVar(&o.StoragePath, "p", o.StoragePath, "data directory")
	flags.StringVar(&o.DatabaseDSN, "d", o.DatabaseDSN, "db address")
	flags.StringVar(&o.BaseURL, "b", o.BaseURL, "base URL of share links")
	flags.StringVar(&o.LogLevel, "l", o.LogLevel, "log level")
	flags.StringVar(&o.IDScheme, "id", o.IDScheme, "id scheme: uuid or ulid")
	flags.StringVar(&o.ExportDir, "o", o.ExportDir, "export directory")
	flags.StringVar(&o.Config, "config", o.Config, "path to config file")
	flags.StringVar(&o.Config, "c", o.Config, "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values. Invalid configuration is fatal.
func Parse() *Options {
	options := Default()
	options.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if err := options.Resolve(os.Getenv); err != nil {
		log.Fatalf("error while loading config: %v", err)
	}
	return options
}

// Load is Parse for an explicit argument list and environment.
func Load(args []string, getenv func(string) string) (*Options, error) {
	options := Default()
	flags := flag.NewFlagSet("valentine", flag.ContinueOnError)
	options.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := options.Resolve(getenv); err != nil {
		return nil, err
	}
	return options, nil
}

// Resolve layers the config file and then the environment over the
// current values and validates the result. getenv falls back to the
// EnvFile contents for unset variables.
func (o *Options) Resolve(getenv func(string) string) error {
	env, err := o.environment(getenv)
	if err != nil {
		return err
	}

	if configPath := env("CONFIG"); configPath != "" {
		o.Config = configPath
	}
	if err := o.readFile(); err != nil {
		return err
	}

	overrides := map[string]*string{
		"SERVER_ADDRESS": &o.Port,
		"STORAGE_DRIVER": &o.StorageDriver,
		"STORAGE_PATH":   &o.StoragePath,
		"DATABASE_DSN":   &o.DatabaseDSN,
		"BASE_URL":       &o.BaseURL,
		"LOG_LEVEL":      &o.LogLevel,
		"ID_SCHEME":      &o.IDScheme,
		"EXPORT_DIR":     &o.ExportDir,
	}
	for name, field := range overrides {
		if v := env(name); v != "" {
			*field = v
		}
	}

	return o.Validate()
}

func (o *Options) environment(getenv func(string) string) (func(string) string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if o.EnvFile == "" {
		return getenv, nil
	}
	dotenv, err := godotenv.Read(o.EnvFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return getenv, nil
		}
		return nil, fmt.Errorf("error while reading env file: %w", err)
	}
	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}, nil
}

func (o *Options) readFile() error {
	if o.Config == "" {
		return nil
	}
	if _, err := os.Stat(o.Config); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error while reading config file: %w", err)
	}
	data, err := os.ReadFile(o.Config)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(o.Config)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, o)
	default:
		err = json.Unmarshal(data, o)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

// Validate checks the driver and id scheme and fills in the default SQLite
// database location.
func (o *Options) Validate() error {
	switch o.StorageDriver {
	case DriverFile, DriverMemory:
	case DriverSQLite:
		if o.DatabaseDSN == "" {
			o.DatabaseDSN = filepath.Join(o.StoragePath, "valentine.db")
		}
	case DriverPostgres:
		if o.DatabaseDSN == "" {
			return errors.New("postgres storage needs a database DSN")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", o.StorageDriver)
	}

	switch o.IDScheme {
	case "uuid", "ulid":
	default:
		return fmt.Errorf("unknown id scheme %q", o.IDScheme)
	}

	if o.Namespace == "" {
		return errors.New("namespace must not be empty")
	}
	return nil
}
