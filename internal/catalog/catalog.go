// Package catalog loads the declarative filter fields of each list page.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Joseda-hg/obracrm/internal/model"
)

//go:embed default.yaml
var defaultCatalog []byte

type Catalog struct {
	Kinds map[model.Kind]KindSpec `yaml:"kinds"`
}

type KindSpec struct {
	Search  []model.FieldID         `yaml:"search"`
	GroupBy string                  `yaml:"group_by"`
	Fields  []model.FieldDescriptor `yaml:"fields"`
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	cat, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("default catalog: %v", err))
	}
	return cat
}

// Load reads a catalog file. An empty path yields the default catalog.
// Kinds missing from the file keep their default definition.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	for kind, spec := range Default().Kinds {
		if _, ok := cat.Kinds[kind]; !ok {
			cat.Kinds[kind] = spec
		}
	}
	return cat, nil
}

func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, err
	}
	if cat.Kinds == nil {
		cat.Kinds = make(map[model.Kind]KindSpec)
	}
	if err := cat.validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Catalog) validate() error {
	for kind, spec := range c.Kinds {
		if _, ok := model.ParseKind(string(kind)); !ok {
			return fmt.Errorf("unknown kind %q", kind)
		}
		seen := make(map[model.FieldID]struct{}, len(spec.Fields))
		for _, field := range spec.Fields {
			if field.ID == "" {
				return fmt.Errorf("%s: field without id", kind)
			}
			if _, dup := seen[field.ID]; dup {
				return fmt.Errorf("%s: duplicate field %q", kind, field.ID)
			}
			seen[field.ID] = struct{}{}
			switch field.Type {
			case model.FieldTypeText, model.FieldTypeSelect, model.FieldTypeDate, model.FieldTypeNumberRange:
			default:
				return fmt.Errorf("%s.%s: unknown field type %q", kind, field.ID, field.Type)
			}
		}
	}
	return nil
}

func (c *Catalog) Fields(kind model.Kind) []model.FieldDescriptor {
	return append([]model.FieldDescriptor(nil), c.Kinds[kind].Fields...)
}

func (c *Catalog) Field(kind model.Kind, id model.FieldID) (model.FieldDescriptor, bool) {
	for _, field := range c.Kinds[kind].Fields {
		if field.ID == id {
			return field, true
		}
	}
	return model.FieldDescriptor{}, false
}

// SearchTargets lists the fields the search box looks in. Title is always
// searched when the kind declares nothing.
func (c *Catalog) SearchTargets(kind model.Kind) []model.FieldID {
	targets := c.Kinds[kind].Search
	if len(targets) == 0 {
		return []model.FieldID{model.FieldTitle}
	}
	return append([]model.FieldID(nil), targets...)
}

func (c *Catalog) DefaultGroup(kind model.Kind) string {
	return c.Kinds[kind].GroupBy
}
