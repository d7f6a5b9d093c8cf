package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/truora/miniql/dynamo"
)

// Storage backends a configuration may select.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// ValidBackends defines the allowed storage backends.
var ValidBackends = []string{BackendMemory, BackendSQLite, BackendDynamoDB}

// Config is the YAML configuration shared by every command.
type Config struct {
	// Backend selects where statements run: memory, sqlite or dynamodb.
	Backend string `yaml:"backend"`

	// Listen is the address the serve command binds.
	Listen string `yaml:"listen"`

	// Debug logs every interpreted statement.
	Debug bool `yaml:"debug"`

	SQLite   SQLiteConfig  `yaml:"sqlite"`
	DynamoDB dynamo.Config `yaml:"dynamodb"`

	// Entities maps entity names used in statements to storage names.
	Entities map[string]string `yaml:"entities,omitempty"`

	// Fields maps field names per resolved entity.
	Fields map[string]map[string]string `yaml:"fields,omitempty"`

	// Enums registers the members of each enum type for convert(x, Type).
	Enums map[string][]string `yaml:"enums,omitempty"`
}

// SQLiteConfig configures the sqlite key-value bucket.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendMemory,
		Listen:  ":8080",
		SQLite:  SQLiteConfig{Path: "miniql.db"},
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
// An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := ParseConfig(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ParseConfig decodes YAML data into cfg and validates the result.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func ParseConfig(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return cfg.Validate()
}

// Validate checks the configured backend has what it needs.
func (c *Config) Validate() error {
	if !slices.Contains(ValidBackends, c.Backend) {
		return fmt.Errorf("invalid backend %q: must be one of %v", c.Backend, ValidBackends)
	}

	if c.Backend == BackendSQLite && c.SQLite.Path == "" {
		return fmt.Errorf("sqlite backend requires sqlite.path")
	}

	return nil
}
