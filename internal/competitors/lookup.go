// Package competitors maps a classified industry to a curated competitor
// list, with location-aware routing for HVAC and a generic fallback.
package competitors

import (
	"strings"

	"go.uber.org/zap"

	"github.com/aeolive/competitor-cli/internal/catalog"
	"github.com/aeolive/competitor-cli/internal/model"
)

// Result is a competitor list plus how it was chosen.
type Result struct {
	Competitors  []model.CompetitorRecord
	Source       model.CompetitorSource
	LocationHint string
}

// Lookup is a pure function over the catalog tables.
type Lookup struct {
	cat *catalog.Catalog
}

// New creates a Lookup backed by cat.
func New(cat *catalog.Catalog) *Lookup {
	return &Lookup{cat: cat}
}

// Competitors returns only the list for industry.
func (l *Lookup) Competitors(industry, domain, title string) []model.CompetitorRecord {
	return l.Find(industry, domain, title).Competitors
}

// Find picks the competitor list for industry. HVAC is routed by location
// hint; every other industry reads the curated table, falling back to the
// generic review and listing sites.
func (l *Lookup) Find(industry, domain, title string) Result {
	hint := l.LocationHint(domain, title)

	if industry == catalog.HVACIndustry {
		res := l.hvac(hint)
		zap.L().Debug("competitors: hvac routing",
			zap.String("domain", domain),
			zap.String("location_hint", hint),
			zap.String("source", string(res.Source)),
		)
		return res
	}

	if list, ok := l.cat.Competitors(industry); ok {
		return Result{Competitors: list, Source: model.CompetitorSourceCatalog, LocationHint: hint}
	}

	zap.L().Debug("competitors: no curated list, using fallback",
		zap.String("domain", domain),
		zap.String("industry", industry),
	)
	return Result{Competitors: l.cat.Fallback(), Source: model.CompetitorSourceFallback, LocationHint: hint}
}

func (l *Lookup) hvac(hint string) Result {
	national := l.cat.HVACNational()
	if l.cat.IsRegionalHVACHint(hint) {
		n := min(l.cat.NationalInRegional(), len(national))
		list := append(l.cat.HVACRegional(), national[:n]...)
		return Result{Competitors: list, Source: model.CompetitorSourceRegional, LocationHint: hint}
	}
	return Result{Competitors: national, Source: model.CompetitorSourceNational, LocationHint: hint}
}

// LocationHint tests each location pattern in order against the domain and
// then the title; the first match wins. The hint is the matched text,
// lowercased, with regex metacharacters removed and whitespace collapsed.
func (l *Lookup) LocationHint(domain, title string) string {
	for _, re := range l.cat.Locations() {
		for _, s := range []string{domain, title} {
			if s == "" {
				continue
			}
			if m := re.FindString(s); m != "" {
				return cleanHint(m)
			}
		}
	}
	return ""
}

var metaStripper = strings.NewReplacer(
	`\`, "", ".", "", "+", "", "*", "", "?", "", "(", "", ")", "",
	"|", "", "[", "", "]", "", "{", "", "}", "", "^", "", "$", "",
)

func cleanHint(m string) string {
	m = metaStripper.Replace(strings.ToLower(m))
	return strings.Join(strings.Fields(m), " ")
}
