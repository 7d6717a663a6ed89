package categorize

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/extrato-dev/extrato/internal/config"
	"github.com/extrato-dev/extrato/internal/normalize"
)

//go:embed categories.yaml
var builtinYAML []byte

// Category is one entry of the keyword table.
type Category struct {
	Name                string                `yaml:"name"`
	Subcategories       []string              `yaml:"subcategories,omitempty"`
	Keywords            []string              `yaml:"keywords,omitempty"`
	SubcategoryKeywords []SubcategoryKeywords `yaml:"subcategory_keywords,omitempty"`
}

// SubcategoryKeywords maps keywords to one subcategory.
type SubcategoryKeywords struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Table is an ordered, read-only category table. Order is match order.
type Table struct {
	categories []Category
}

type tableFile struct {
	Categories []Category `yaml:"categories"`
}

// ParseTable reads a table from YAML.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing category table: %w", err)
	}
	seen := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("category with empty name")
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[c.Name] = true
	}
	return &Table{categories: f.Categories}, nil
}

var builtin = sync.OnceValues(func() (*Table, error) {
	return ParseTable(builtinYAML)
})

// Builtin returns the embedded default table.
func Builtin() *Table {
	t, err := builtin()
	if err != nil {
		panic(err)
	}
	return t
}

// WithOverrides returns a copy of t where each override replaces the
// built-in category of the same name in place. An override that leaves
// keywords or subcategories empty inherits them. Unknown names are
// appended after the built-in entries.
func (t *Table) WithOverrides(overrides []Category) *Table {
	cats := slices.Clone(t.categories)
	for _, o := range overrides {
		i := slices.IndexFunc(cats, func(c Category) bool { return c.Name == o.Name })
		if i < 0 {
			cats = append(cats, o)
			continue
		}
		merged := o
		if len(merged.Keywords) == 0 {
			merged.Keywords = cats[i].Keywords
		}
		if len(merged.Subcategories) == 0 {
			merged.Subcategories = cats[i].Subcategories
		}
		if len(merged.SubcategoryKeywords) == 0 {
			merged.SubcategoryKeywords = cats[i].SubcategoryKeywords
		}
		cats[i] = merged
	}
	return &Table{categories: cats}
}

// FromConfig layers the categories of extrato.yaml over the built-in table.
// Keywords are normalized the way descriptions are.
func FromConfig(overrides []config.CategoryOverride) *Table {
	if len(overrides) == 0 {
		return Builtin()
	}
	cats := make([]Category, 0, len(overrides))
	for _, o := range overrides {
		c := Category{Name: o.Name, Subcategories: o.Subcategories, Keywords: patterns(o.Keywords)}
		for _, sub := range slices.Sorted(maps.Keys(o.SubcategoryKeywords)) {
			c.SubcategoryKeywords = append(c.SubcategoryKeywords, SubcategoryKeywords{Name: sub, Keywords: patterns(o.SubcategoryKeywords[sub])})
		}
		cats = append(cats, c)
	}
	return Builtin().WithOverrides(cats)
}

func patterns(keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		if p := normalize.Pattern(kw); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the table entries in match order.
func (t *Table) Categories() []Category {
	return slices.Clone(t.categories)
}

// Lookup returns the category named name.
func (t *Table) Lookup(name string) (Category, bool) {
	for _, c := range t.categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Names returns category names in match order.
func (t *Table) Names() []string {
	names := make([]string, len(t.categories))
	for i, c := range t.categories {
		names[i] = c.Name
	}
	return names
}
