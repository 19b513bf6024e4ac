// Package classify assigns a site to an industry by weighted keyword matching.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/aeolive/competitor-cli/internal/catalog"
	"github.com/aeolive/competitor-cli/internal/model"
)

// Classifier scores text against a snapshot of the catalog's industry table.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	industries      []model.IndustryDefinition
	rules           []catalog.DomainRule
	defaultIndustry string
}

// New creates a Classifier from the given catalog.
func New(cat *catalog.Catalog) *Classifier {
	return &Classifier{
		industries:      cat.Industries(),
		rules:           cat.DomainRules(),
		defaultIndustry: cat.DefaultIndustry(),
	}
}

// Classify returns the best-matching industry name, never empty.
func (c *Classifier) Classify(title, description, bodyText, domain string) string {
	return c.Score(title, description, bodyText, domain).Industry
}

// Score matches every industry's keywords as substrings of the combined,
// lowercased inputs. Each hit adds weight * len(keyword)/5, so longer phrases
// count for more. Only a strictly higher score replaces the leader, which
// makes table order the tie-break.
func (c *Classifier) Score(title, description, bodyText, domain string) model.Classification {
	haystack := strings.ToLower(strings.Join([]string{title, description, bodyText, domain}, " "))

	best := model.Classification{Industry: c.defaultIndustry}
	for _, ind := range c.industries {
		score := 0.0
		var matched []string
		for _, kw := range ind.Keywords {
			if kw == "" || !strings.Contains(haystack, kw) {
				continue
			}
			score += ind.Weight * (float64(utf8.RuneCountInString(kw)) / 5)
			matched = append(matched, kw)
		}
		if score > best.Score {
			best = model.Classification{
				Industry:        ind.Name,
				Score:           score,
				MatchedKeywords: matched,
			}
		}
	}
	return best
}

// FromDomain classifies using only the raw domain string. The first rule
// with a matching substring wins.
func (c *Classifier) FromDomain(domain string) string {
	lower := strings.ToLower(domain)
	for _, r := range c.rules {
		for _, sub := range r.Contains {
			if strings.Contains(lower, sub) {
				return r.Industry
			}
		}
	}
	return c.defaultIndustry
}
