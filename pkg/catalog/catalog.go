package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtin []byte

// Config points at an optional catalog file replacing the built-in one.
type Config struct {
	Path string `env:"NOTIFY_CATALOG_PATH"`
}

// Type describes one notification type.
type Type struct {
	Key         string   `yaml:"key" json:"key"`
	Label       string   `yaml:"label" json:"label"`
	Description string   `yaml:"description" json:"description"`
	Category    Category `yaml:"category" json:"category"`
	Defaults    Channels `yaml:"channels" json:"channels"`
}

// Catalog is an immutable registry of notification types.
type Catalog struct {
	types map[string]Type
	order []string
}

type document struct {
	Types []Type `yaml:"types"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("built-in notification catalog is invalid: %v", err))
	}
	return c
}

// FromConfig loads cfg.Path, or returns the built-in catalog when unset.
func FromConfig(cfg Config) (*Catalog, error) {
	if cfg.Path == "" {
		return Default(), nil
	}
	return Load(cfg.Path)
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog. Labels default to a title-cased key.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}

	c := &Catalog{types: make(map[string]Type, len(doc.Types))}
	for _, t := range doc.Types {
		t.Key = strings.TrimSpace(t.Key)
		if t.Key == "" {
			return nil, fmt.Errorf("%w: type without key", ErrInvalidCatalog)
		}
		if _, dup := c.types[t.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateType, t.Key)
		}
		if t.Category == "" {
			t.Category = categoryByPrefix(t.Key)
		}
		if !t.Category.Valid() {
			return nil, fmt.Errorf("%w: %s in %s", ErrUnknownCategory, t.Category, t.Key)
		}
		if t.Label == "" {
			t.Label = labelFor(t.Key)
		}
		c.types[t.Key] = t
		c.order = append(c.order, t.Key)
	}

	return c, nil
}

// Lookup returns the registered type for key.
func (c *Catalog) Lookup(key string) (Type, bool) {
	t, ok := c.types[key]
	return t, ok
}

// Resolve returns the registered type for key, or a synthesized one:
// category by key prefix, web-only defaults and a generated label.
func (c *Catalog) Resolve(key string) Type {
	if t, ok := c.types[key]; ok {
		return t
	}
	return Type{
		Key:      key,
		Label:    labelFor(key),
		Category: categoryByPrefix(key),
		Defaults: Channels{Web: true},
	}
}

// CategoryOf is shorthand for Resolve(key).Category.
func (c *Catalog) CategoryOf(key string) Category {
	return c.Resolve(key).Category
}

// Types returns every registered type in catalog order.
func (c *Catalog) Types() []Type {
	out := make([]Type, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.types[k])
	}
	return out
}

var titleCaser = cases.Title(language.English)

func labelFor(key string) string {
	words := strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(key)
	return titleCaser.String(strings.Join(strings.Fields(words), " "))
}
