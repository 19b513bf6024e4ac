// Package catalog holds the static industry, competitor, and location tables
// that drive competitor discovery. A Catalog is immutable once built; every
// accessor hands back copies.
package catalog

import (
	_ "embed"
	"regexp"
	"strings"
	"sync"

	"github.com/aeolive/competitor-cli/internal/model"
)

// HVACIndustry is the one industry with location-aware competitor routing.
const HVACIndustry = "HVAC & Home Services"

//go:embed catalog.yaml
var defaultYAML []byte

// DomainRule maps raw-domain substrings to an industry for the degraded path.
type DomainRule struct {
	Industry string   `yaml:"industry" json:"industry" validate:"required"`
	Contains []string `yaml:"contains" json:"contains" validate:"required,min=1,dive,required"`
}

// HVACRouting holds the regional and national HVAC competitor lists.
type HVACRouting struct {
	National           []model.CompetitorRecord `yaml:"national" validate:"required,min=1,dive"`
	Regional           []model.CompetitorRecord `yaml:"regional" validate:"dive"`
	NationalInRegional int                      `yaml:"national_in_regional" validate:"gte=0"`
	RegionalMarkers    []string                 `yaml:"regional_markers" validate:"dive,required"`
}

// Catalog is the compiled, read-only form of the tables.
type Catalog struct {
	defaultIndustry string
	industries      []model.IndustryDefinition
	byName          map[string]int
	domainRules     []DomainRule
	competitors     map[string][]model.CompetitorRecord
	hvac            HVACRouting
	fallback        []model.CompetitorRecord
	locations       []*regexp.Regexp
	stopwords       map[string]struct{}
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic("catalog: embedded table is invalid: " + err.Error())
	}
	return c
})

// Default returns the compiled-in catalog. It is parsed once per process.
func Default() *Catalog {
	return defaultCatalog()
}

// DefaultIndustry is returned when nothing matches.
func (c *Catalog) DefaultIndustry() string {
	return c.defaultIndustry
}

// Industries returns the industry table in declaration order.
func (c *Catalog) Industries() []model.IndustryDefinition {
	out := make([]model.IndustryDefinition, len(c.industries))
	for i, ind := range c.industries {
		out[i] = model.IndustryDefinition{
			Name:     ind.Name,
			Keywords: append([]string(nil), ind.Keywords...),
			Weight:   ind.Weight,
		}
	}
	return out
}

// Industry looks up a single definition by name.
func (c *Catalog) Industry(name string) (model.IndustryDefinition, bool) {
	i, ok := c.byName[name]
	if !ok {
		return model.IndustryDefinition{}, false
	}
	ind := c.industries[i]
	ind.Keywords = append([]string(nil), ind.Keywords...)
	return ind, true
}

// DomainRules returns the ordered degraded-path rules.
func (c *Catalog) DomainRules() []DomainRule {
	out := make([]DomainRule, len(c.domainRules))
	for i, r := range c.domainRules {
		out[i] = DomainRule{Industry: r.Industry, Contains: append([]string(nil), r.Contains...)}
	}
	return out
}

// Competitors returns the curated list for an industry.
func (c *Catalog) Competitors(industry string) ([]model.CompetitorRecord, bool) {
	list, ok := c.competitors[industry]
	if !ok {
		return nil, false
	}
	return model.CloneCompetitors(list), true
}

// CompetitorCount reports how many curated entries an industry has.
func (c *Catalog) CompetitorCount(industry string) int {
	return len(c.competitors[industry])
}

// HVACNational returns the national HVAC list.
func (c *Catalog) HVACNational() []model.CompetitorRecord {
	return model.CloneCompetitors(c.hvac.National)
}

// HVACRegional returns the Charleston/Carolinas HVAC list.
func (c *Catalog) HVACRegional() []model.CompetitorRecord {
	return model.CloneCompetitors(c.hvac.Regional)
}

// NationalInRegional is how many national entries follow the regional list.
func (c *Catalog) NationalInRegional() int {
	return c.hvac.NationalInRegional
}

// IsRegionalHVACHint reports whether a location hint falls in the region the
// regional HVAC list covers.
func (c *Catalog) IsRegionalHVACHint(hint string) bool {
	if hint == "" {
		return false
	}
	hint = squash(hint)
	for _, m := range c.hvac.RegionalMarkers {
		if strings.Contains(hint, squash(m)) {
			return true
		}
	}
	return false
}

// squash lowercases and drops whitespace so "Mount Pleasant" and
// "mountpleasant" compare equal.
func squash(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// Fallback returns the generic low-confidence list.
func (c *Catalog) Fallback() []model.CompetitorRecord {
	return model.CloneCompetitors(c.fallback)
}

// Locations returns the ordered location patterns. Compiled regexps are safe
// for concurrent use.
func (c *Catalog) Locations() []*regexp.Regexp {
	return append([]*regexp.Regexp(nil), c.locations...)
}

// IsStopword reports whether w (lowercase) is ignored during keyword synthesis.
func (c *Catalog) IsStopword(w string) bool {
	_, ok := c.stopwords[w]
	return ok
}
