package catalog

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/aeolive/competitor-cli/internal/model"
)

// document is the on-disk YAML shape.
type document struct {
	DefaultIndustry string                              `yaml:"default_industry" validate:"required"`
	Industries      []model.IndustryDefinition          `yaml:"industries" validate:"required,min=1,dive"`
	DomainRules     []DomainRule                        `yaml:"domain_rules" validate:"dive"`
	Competitors     map[string][]model.CompetitorRecord `yaml:"competitors" validate:"dive,keys,required,endkeys,required,min=1,dive"`
	HVAC            HVACRouting                         `yaml:"hvac"`
	Fallback        []model.CompetitorRecord            `yaml:"fallback" validate:"required,min=1,dive"`
	Locations       []string                            `yaml:"locations" validate:"dive,required"`
	Stopwords       []string                            `yaml:"stopwords"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: load %s", path)
	}
	return c, nil
}

// Parse decodes, validates, and compiles a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "catalog: parse yaml")
	}
	if err := validator.New().Struct(&doc); err != nil {
		return nil, eris.Wrap(err, "catalog: validate")
	}
	if err := checkSemantics(&doc); err != nil {
		return nil, err
	}

	c := &Catalog{
		defaultIndustry: doc.DefaultIndustry,
		industries:      make([]model.IndustryDefinition, len(doc.Industries)),
		byName:          make(map[string]int, len(doc.Industries)),
		domainRules:     make([]DomainRule, len(doc.DomainRules)),
		competitors:     make(map[string][]model.CompetitorRecord, len(doc.Competitors)),
		hvac: HVACRouting{
			National:           model.CloneCompetitors(doc.HVAC.National),
			Regional:           model.CloneCompetitors(doc.HVAC.Regional),
			NationalInRegional: doc.HVAC.NationalInRegional,
		},
		fallback:  model.CloneCompetitors(doc.Fallback),
		stopwords: make(map[string]struct{}, len(doc.Stopwords)),
	}

	for i, ind := range doc.Industries {
		kws := make([]string, len(ind.Keywords))
		for j, kw := range ind.Keywords {
			kws[j] = strings.ToLower(strings.TrimSpace(kw))
		}
		c.industries[i] = model.IndustryDefinition{Name: ind.Name, Keywords: kws, Weight: ind.Weight}
		c.byName[ind.Name] = i
	}
	for i, r := range doc.DomainRules {
		subs := make([]string, len(r.Contains))
		for j, s := range r.Contains {
			subs[j] = strings.ToLower(strings.TrimSpace(s))
		}
		c.domainRules[i] = DomainRule{Industry: r.Industry, Contains: subs}
	}
	for name, list := range doc.Competitors {
		c.competitors[name] = model.CloneCompetitors(list)
	}
	for _, m := range doc.HVAC.RegionalMarkers {
		c.hvac.RegionalMarkers = append(c.hvac.RegionalMarkers, strings.ToLower(m))
	}
	for _, p := range doc.Locations {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: compile location pattern %q", p)
		}
		c.locations = append(c.locations, re)
	}
	for _, w := range doc.Stopwords {
		c.stopwords[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}

	return c, nil
}

// checkSemantics covers the cross-field rules struct tags cannot express.
func checkSemantics(doc *document) error {
	var errs []string

	names := make(map[string]bool, len(doc.Industries))
	for _, ind := range doc.Industries {
		if names[ind.Name] {
			errs = append(errs, fmt.Sprintf("duplicate industry %q", ind.Name))
		}
		names[ind.Name] = true
	}
	if names[doc.DefaultIndustry] {
		errs = append(errs, fmt.Sprintf("default industry %q must not be a scored industry", doc.DefaultIndustry))
	}
	if !names[HVACIndustry] {
		errs = append(errs, fmt.Sprintf("industry %q is required", HVACIndustry))
	}

	for _, r := range doc.DomainRules {
		if !names[r.Industry] {
			errs = append(errs, fmt.Sprintf("domain rule references unknown industry %q", r.Industry))
		}
	}
	for name := range doc.Competitors {
		if !names[name] {
			errs = append(errs, fmt.Sprintf("competitors reference unknown industry %q", name))
		}
		if name == HVACIndustry {
			errs = append(errs, "HVAC competitors belong under hvac, not competitors")
		}
	}
	if doc.HVAC.NationalInRegional > len(doc.HVAC.National) {
		errs = append(errs, "hvac.national_in_regional exceeds the national list")
	}

	if len(errs) > 0 {
		return eris.Errorf("catalog: invalid table: %s", strings.Join(errs, "; "))
	}
	return nil
}
