// Package categorize assigns categories to transaction descriptions using
// learned rules and a keyword table.
package categorize

import (
	"cmp"
	"slices"
	"strings"

	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/normalize"
)

// Source says which tier produced a Match.
type Source string

const (
	SourceExactRule     Source = "exact_rule"
	SourceSubstringRule Source = "rule"
	SourceKeyword       Source = "keyword"
	SourceNone          Source = "none"
)

const (
	RuleConfidence    = 1.0
	KeywordConfidence = 0.8
)

// Match is the result of categorizing one description.
type Match struct {
	Category    string
	Subcategory string
	Confidence  float64
	Source      Source
	// Pattern is the rule pattern or keyword that matched.
	Pattern string
}

// Matched reports whether a category was found.
func (m Match) Matched() bool {
	return m.Category != ""
}

// Categorizer looks descriptions up against a fixed snapshot of rules and a
// keyword table. It is safe for concurrent use.
type Categorizer struct {
	table *Table
	exact map[string]model.CategorizationRule
	// bySpecificity holds rules longest pattern first, then by usage.
	bySpecificity []model.CategorizationRule
}

// New creates a Categorizer over table and a snapshot of learned rules.
func New(table *Table, rules []model.CategorizationRule) *Categorizer {
	c := &Categorizer{
		table: table,
		exact: make(map[string]model.CategorizationRule, len(rules)),
	}
	for _, r := range rules {
		if r.Pattern == "" {
			continue
		}
		c.exact[r.Pattern] = r
		c.bySpecificity = append(c.bySpecificity, r)
	}
	slices.SortStableFunc(c.bySpecificity, func(a, b model.CategorizationRule) int {
		if n := cmp.Compare(len(b.Pattern), len(a.Pattern)); n != 0 {
			return n
		}
		return cmp.Compare(b.UsageCount, a.UsageCount)
	})
	return c
}

// Categorize normalizes description and looks it up.
func (c *Categorizer) Categorize(description string) Match {
	return c.categorizeNormalized(normalize.Description(description))
}

func (c *Categorizer) categorizeNormalized(norm string) Match {
	if norm == "" {
		return Match{Source: SourceNone}
	}
	if r, ok := c.exact[norm]; ok {
		return Match{Category: r.Category, Subcategory: r.Subcategory, Confidence: RuleConfidence, Source: SourceExactRule, Pattern: r.Pattern}
	}
	for _, r := range c.bySpecificity {
		if strings.Contains(norm, r.Pattern) {
			return Match{Category: r.Category, Subcategory: r.Subcategory, Confidence: RuleConfidence, Source: SourceSubstringRule, Pattern: r.Pattern}
		}
	}
	for _, cat := range c.table.categories {
		for _, kw := range cat.Keywords {
			if kw != "" && strings.Contains(norm, kw) {
				return Match{
					Category:    cat.Name,
					Subcategory: subcategoryFor(cat, norm),
					Confidence:  KeywordConfidence,
					Source:      SourceKeyword,
					Pattern:     kw,
				}
			}
		}
	}
	return Match{Source: SourceNone}
}

// subcategoryFor picks the first subcategory whose keyword occurs in norm,
// else the category's first subcategory.
func subcategoryFor(cat Category, norm string) string {
	for _, sk := range cat.SubcategoryKeywords {
		for _, kw := range sk.Keywords {
			if kw != "" && strings.Contains(norm, kw) {
				return sk.Name
			}
		}
	}
	if len(cat.Subcategories) > 0 {
		return cat.Subcategories[0]
	}
	return ""
}

// CategorizeBatch categorizes txns in place and returns how many matched.
// Transactions that match nothing are left uncategorized.
func (c *Categorizer) CategorizeBatch(txns []model.Transaction) int {
	matched := 0
	for i := range txns {
		norm := txns[i].NormalizedDescription
		if norm == "" {
			norm = normalize.Description(txns[i].Description)
			txns[i].NormalizedDescription = norm
		}
		m := c.categorizeNormalized(norm)
		if !m.Matched() {
			continue
		}
		txns[i].Category = m.Category
		txns[i].Subcategory = m.Subcategory
		matched++
	}
	return matched
}
