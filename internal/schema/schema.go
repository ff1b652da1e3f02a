// Package schema provides the declarative column schema that drives
// ingestion normalization. The schema is loaded once per run and is
// immutable afterwards: changing the config file changes ingestion
// behavior for all future runs without code changes.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	gerrors "github.com/gridiron/gridiron/internal/errors"
	"github.com/gridiron/gridiron/pkg/types"
)

// ColumnDef declares one canonical column: its target name, dtype, the
// source-file aliases that resolve to it, and what to do when no source
// column matches.
type ColumnDef struct {
	// Name is the canonical column name (unique across the schema)
	Name string `json:"name" yaml:"name"`

	// DType is the declared type: int64, float64, string, bool
	DType types.DType `json:"dtype" yaml:"dtype"`

	// Aliases are alternative source column names, tried in declared
	// order after the canonical name itself
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	// Default, when set, fills the column with a constant if no source
	// column resolves
	Default *interface{} `json:"default,omitempty" yaml:"default,omitempty"`

	// AllowNull permits filling the column with nulls if no source
	// column resolves and no default is declared
	AllowNull bool `json:"allow_null,omitempty" yaml:"allow_null,omitempty"`
}

// HasDefault reports whether the column declares a default value.
func (c *ColumnDef) HasDefault() bool {
	return c.Default != nil
}

// DefaultValue returns the declared default cast to the column dtype.
// Returns an error when the declared default cannot represent the dtype.
func (c *ColumnDef) DefaultValue() (interface{}, error) {
	if c.Default == nil {
		return nil, fmt.Errorf("schema: column %q has no default", c.Name)
	}
	v, err := CastValue(*c.Default, c.DType)
	if err != nil {
		return nil, fmt.Errorf("schema: default for column %q: %w", c.Name, err)
	}
	return v, nil
}

// Spec is the loaded, validated schema specification.
type Spec struct {
	// Columns in declared order. Output column order follows this.
	Columns []ColumnDef

	byName  map[string]*ColumnDef
	byAlias map[string]string // alias → canonical name
}

// specFile is the on-disk shape of the schema config.
type specFile struct {
	Columns []ColumnDef `json:"columns" yaml:"columns"`
}

// Load reads and validates a schema specification from a YAML or JSON file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCategoryConfig, gerrors.CodeInvalidSchema,
			fmt.Sprintf("failed to read schema file %s", path), err)
	}

	var file specFile
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, gerrors.Wrap(gerrors.ErrCategoryConfig, gerrors.CodeInvalidSchema,
				"failed to parse YAML schema", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, gerrors.Wrap(gerrors.ErrCategoryConfig, gerrors.CodeInvalidSchema,
				"failed to parse JSON schema", err)
		}
	default:
		return nil, gerrors.NewConfigError(gerrors.CodeInvalidSchema,
			fmt.Sprintf("unsupported schema file format: %s", ext))
	}

	return NewSpec(file.Columns)
}

// NewSpec validates column definitions and builds the derived indices.
func NewSpec(columns []ColumnDef) (*Spec, error) {
	if len(columns) == 0 {
		return nil, gerrors.NewConfigError(gerrors.CodeInvalidSchema, "schema declares no columns")
	}

	spec := &Spec{
		Columns: append([]ColumnDef(nil), columns...),
		byName:  make(map[string]*ColumnDef, len(columns)),
		byAlias: make(map[string]string),
	}

	for i := range spec.Columns {
		col := &spec.Columns[i]

		if col.Name == "" {
			return nil, gerrors.NewConfigError(gerrors.CodeInvalidSchema,
				fmt.Sprintf("column %d lacks a name", i))
		}
		if col.DType == "" {
			return nil, gerrors.NewConfigError(gerrors.CodeInvalidSchema,
				fmt.Sprintf("column %q lacks a dtype", col.Name))
		}
		if _, err := types.ParseDType(string(col.DType)); err != nil {
			return nil, gerrors.NewConfigError(gerrors.CodeInvalidSchema,
				fmt.Sprintf("column %q: unknown dtype %q", col.Name, col.DType))
		}
		if _, dup := spec.byName[col.Name]; dup {
			return nil, gerrors.NewConfigError(gerrors.CodeInvalidSchema,
				fmt.Sprintf("duplicate column name %q", col.Name))
		}
		spec.byName[col.Name] = col

		// Validate the default is representable in the dtype up front so
		// a bad default fails the run, not each file.
		if col.HasDefault() {
			if _, err := col.DefaultValue(); err != nil {
				return nil, gerrors.NewConfigError(gerrors.CodeInvalidSchema, err.Error())
			}
		}
	}

	// Alias collisions are checked after all names are known so an alias
	// shadowing another column's canonical name is caught.
	for i := range spec.Columns {
		col := &spec.Columns[i]
		for _, alias := range col.Aliases {
			if alias == "" {
				return nil, gerrors.NewConfigError(gerrors.CodeInvalidSchema,
					fmt.Sprintf("column %q declares an empty alias", col.Name))
			}
			if other, exists := spec.byName[alias]; exists && other.Name != col.Name {
				return nil, gerrors.NewConfigError(gerrors.CodeAliasCollision,
					fmt.Sprintf("alias %q of column %q collides with column %q", alias, col.Name, other.Name))
			}
			if target, exists := spec.byAlias[alias]; exists && target != col.Name {
				return nil, gerrors.NewConfigError(gerrors.CodeAliasCollision,
					fmt.Sprintf("alias %q claimed by both %q and %q", alias, target, col.Name))
			}
			spec.byAlias[alias] = col.Name
		}
	}

	return spec, nil
}

// Column returns the definition for a canonical column name.
func (s *Spec) Column(name string) (*ColumnDef, bool) {
	col, ok := s.byName[name]
	return col, ok
}

// ResolveAlias returns the canonical name an alias maps to.
func (s *Spec) ResolveAlias(alias string) (string, bool) {
	name, ok := s.byAlias[alias]
	return name, ok
}

// ColumnNames returns the canonical column names in declared order.
func (s *Spec) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}
