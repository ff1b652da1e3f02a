// Package config provides unified configuration for the Gridiron tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gridiron/gridiron/pkg/types"
)

// Config holds the unified configuration for ingestion and querying.
type Config struct {
	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// SchemaPath is the path to the declarative column schema
	SchemaPath string `json:"schema_path" yaml:"schema_path"`

	// PoolRoot is the root directory of the partitioned parquet pool
	PoolRoot string `json:"pool_root" yaml:"pool_root"`

	// Partition holds partition key derivation settings
	Partition types.KeyConfig `json:"partition" yaml:"partition"`

	// Catalog holds partition catalog settings
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// Archive holds object-storage archival settings
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}

// CatalogConfig holds partition catalog settings.
type CatalogConfig struct {
	// Enabled controls whether written partitions are registered in the
	// SQLite catalog. The query engine never requires the catalog.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the catalog database path
	Path string `json:"path" yaml:"path"`
}

// Archive backend types.
const (
	ArchiveNone  = "none"
	ArchiveLocal = "local"
	ArchiveS3    = "s3"
)

// ArchiveConfig holds object-storage archival settings.
type ArchiveConfig struct {
	// Type is the archive backend: none, local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local archive path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 archive configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir:    "./data",
		SchemaPath: "./configs/schema.yaml",
		PoolRoot:   "",
		Partition:  types.DefaultKeyConfig(),
		Catalog: CatalogConfig{
			Enabled: true,
			Path:    "",
		},
		Archive: ArchiveConfig{
			Type: "none",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.PoolRoot == "" {
		c.PoolRoot = filepath.Join(c.DataDir, "raw_pool")
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = filepath.Join(c.DataDir, "catalog.db")
	}
	if c.Archive.Type == ArchiveLocal && c.Archive.Path == "" {
		c.Archive.Path = filepath.Join(c.DataDir, "archive")
	}
	if c.Partition.SeasonPrefixLen == 0 {
		c.Partition.SeasonPrefixLen = types.DefaultKeyConfig().SeasonPrefixLen
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.SchemaPath == "" {
		return fmt.Errorf("schema_path is required")
	}

	switch c.Archive.Type {
	case "", ArchiveNone, ArchiveLocal, ArchiveS3:
		// Valid archive types
	default:
		return fmt.Errorf("invalid archive type: %s (must be none, local, or s3)", c.Archive.Type)
	}

	if c.Archive.Type == ArchiveS3 && c.Archive.S3.Bucket == "" {
		return fmt.Errorf("archive.s3.bucket is required when archive type is s3")
	}

	if c.Partition.SeasonPrefixLen < 1 || c.Partition.SeasonPrefixLen > 8 {
		return fmt.Errorf("partition.season_prefix_len must be between 1 and 8, got %d", c.Partition.SeasonPrefixLen)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadDotEnv loads a .env file into the process environment when present.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the GRIDIRON_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("GRIDIRON_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("GRIDIRON_SCHEMA_PATH"); v != "" {
		cfg.SchemaPath = v
	}
	if v := os.Getenv("GRIDIRON_POOL_ROOT"); v != "" {
		cfg.PoolRoot = v
	}

	// Partition configuration
	if v := os.Getenv("GRIDIRON_SEASON_PREFIX_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Partition.SeasonPrefixLen = n
		}
	}
	if v := os.Getenv("GRIDIRON_PARTITION_NESTED"); v != "" {
		cfg.Partition.Nested = v == "true" || v == "1"
	}

	// Catalog configuration
	if v := os.Getenv("GRIDIRON_CATALOG_ENABLED"); v != "" {
		cfg.Catalog.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("GRIDIRON_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}

	// Archive configuration
	if v := os.Getenv("GRIDIRON_ARCHIVE_TYPE"); v != "" {
		cfg.Archive.Type = v
	}
	if v := os.Getenv("GRIDIRON_ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
	}
	if v := os.Getenv("GRIDIRON_S3_BUCKET"); v != "" {
		cfg.Archive.S3.Bucket = v
	}
	if v := os.Getenv("GRIDIRON_S3_REGION"); v != "" {
		cfg.Archive.S3.Region = v
	}
	if v := os.Getenv("GRIDIRON_S3_ENDPOINT"); v != "" {
		cfg.Archive.S3.Endpoint = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.PoolRoot,
	}
	if c.Archive.Type == ArchiveLocal {
		dirs = append(dirs, c.Archive.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
