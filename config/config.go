// Package config loads listing definitions from YAML files. Every file
// is validated against an embedded CUE schema before decoding, so shape
// errors surface with positions instead of as zero-valued structs deep
// inside a provider.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/facetgrid/facetgrid/fetch"
	"github.com/facetgrid/facetgrid/filter"
)

//go:embed schema.cue
var schemaCUE string

// Definition is one listing's declarative configuration: the backing
// table, the filter groups, and the filter-to-column mapping table.
type Definition struct {
	Name          string         `yaml:"name"`
	Table         string         `yaml:"table"`
	Columns       []string       `yaml:"columns"`
	Namespace     string         `yaml:"namespace"`
	SearchColumns []string       `yaml:"search_columns"`
	DefaultSort   string         `yaml:"default_sort"`
	DefaultLimit  int            `yaml:"default_limit"`
	Strategy      fetch.Strategy `yaml:"strategy"`
	Filters       []filter.Group `yaml:"filters"`
	Mappings      []Mapping      `yaml:"mappings"`
}

// Mapping is the YAML form of a filter-to-column binding.
type Mapping struct {
	Filter   string          `yaml:"filter"`
	Column   string          `yaml:"column"`
	Operator filter.Operator `yaml:"operator"`
}

// ColumnMappings converts the YAML mappings to the compiler's form.
// Value transforms cannot be declared in YAML; attach them in code.
func (d *Definition) ColumnMappings() []filter.ColumnMapping {
	out := make([]filter.ColumnMapping, 0, len(d.Mappings))
	for _, m := range d.Mappings {
		out = append(out, filter.ColumnMapping{
			FilterID: m.Filter,
			Column:   m.Column,
			Operator: m.Operator,
		})
	}
	return out
}

// LoadError is a definition loading failure with enough context to fix
// the file.
type LoadError struct {
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Load reads and validates one definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}

	if err := ValidateBytes(path, data); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("decode: %v", err)}
	}
	return &def, nil
}

// LoadDir loads every .yaml/.yml definition under dir (sorted for
// deterministic order). Fails on the first invalid file.
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Message: err.Error()}
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	defs := make([]*Definition, 0, len(paths))
	for _, p := range paths {
		def, err := Load(p)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// ValidateBytes checks raw YAML against the embedded CUE schema.
func ValidateBytes(path string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile definition schema: %w", err)
	}
	defSchema := schema.LookupPath(cue.ParsePath("#Definition"))
	if err := defSchema.Err(); err != nil {
		return fmt.Errorf("lookup #Definition: %w", err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return &LoadError{Path: path, Message: fmt.Sprintf("parse yaml: %v", err)}
	}
	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return &LoadError{Path: path, Message: formatCUEError(err)}
	}

	unified := defSchema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &LoadError{Path: path, Message: formatCUEError(err)}
	}
	return nil
}

func formatCUEError(err error) string {
	var parts []string
	for _, e := range cueerrors.Errors(err) {
		parts = append(parts, e.Error())
	}
	if len(parts) == 0 {
		return err.Error()
	}
	return strings.Join(parts, "; ")
}
