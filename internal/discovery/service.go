// Package discovery runs the profile → classify → lookup pipeline and
// guarantees callers always get a usable answer.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aeolive/competitor-cli/internal/catalog"
	"github.com/aeolive/competitor-cli/internal/classify"
	"github.com/aeolive/competitor-cli/internal/competitors"
	"github.com/aeolive/competitor-cli/internal/model"
	"github.com/aeolive/competitor-cli/internal/profile"
)

// Profiler builds a SiteProfile for a domain and never fails.
type Profiler interface {
	Profile(ctx context.Context, domain string) *model.SiteProfile
}

// Service orchestrates one discovery call. It holds only read-only state and
// may be shared across goroutines.
type Service struct {
	profiler        Profiler
	lookup          *competitors.Lookup
	defaultIndustry string
	now             func() time.Time
}

// New wires a Service from its parts.
func New(profiler Profiler, lookup *competitors.Lookup, cat *catalog.Catalog) *Service {
	return &Service{
		profiler:        profiler,
		lookup:          lookup,
		defaultIndustry: cat.DefaultIndustry(),
		now:             time.Now,
	}
}

// NewFromCatalog builds the production pipeline over cat.
func NewFromCatalog(cat *catalog.Catalog, opts profile.Options) *Service {
	p := profile.New(cat, classify.New(cat), opts)
	return New(p, competitors.New(cat), cat)
}

// DiscoverCompetitors returns suggested competitors for domain. The result
// is never nil; it is empty only when the pipeline itself breaks.
func (s *Service) DiscoverCompetitors(ctx context.Context, domain string) []model.CompetitorRecord {
	return s.Discover(ctx, domain).Competitors
}

// Discover runs the pipeline and tags the outcome so degraded answers are
// distinguishable from content-derived ones.
func (s *Service) Discover(ctx context.Context, domain string) (res *model.DiscoveryResult) {
	start := s.now()
	res = &model.DiscoveryResult{
		Domain:      profile.NormalizeDomain(domain),
		Competitors: []model.CompetitorRecord{},
		CreatedAt:   start.UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("discovery: pipeline panicked",
				zap.String("domain", res.Domain),
				zap.Any("panic", r),
			)
			res.Status = model.DiscoveryFailed
			res.Reason = fmt.Sprintf("internal error: %v", r)
			res.Source = ""
			res.Competitors = []model.CompetitorRecord{}
		}
		res.DurationMS = s.now().Sub(start).Milliseconds()
	}()

	prof := s.profiler.Profile(ctx, domain)
	if prof == nil {
		panic("profiler returned no profile")
	}
	res.Profile = prof
	res.Classification = prof.Classification()

	found := s.lookup.Find(prof.Industry, prof.Domain, prof.Title)
	res.LocationHint = found.LocationHint
	res.Source = found.Source
	if found.Competitors != nil {
		res.Competitors = found.Competitors
	}

	res.Status, res.Reason = s.grade(prof, found)

	fields := []zap.Field{
		zap.String("domain", res.Domain),
		zap.String("status", string(res.Status)),
		zap.String("industry", prof.Industry),
		zap.String("profile_source", string(prof.Source)),
		zap.String("competitor_source", string(found.Source)),
		zap.Int("competitors", len(res.Competitors)),
	}
	if res.Status == model.DiscoveryDegraded {
		zap.L().Info("discovery: degraded result", append(fields, zap.String("reason", res.Reason))...)
	} else {
		zap.L().Debug("discovery: complete", fields...)
	}
	return res
}

// grade decides between complete and degraded and explains why.
func (s *Service) grade(prof *model.SiteProfile, found competitors.Result) (model.DiscoveryStatus, string) {
	var reasons []string
	if prof.Degraded() {
		r := "homepage unavailable"
		if prof.Failure != model.FailureNone {
			r += " (" + string(prof.Failure) + ")"
		}
		reasons = append(reasons, r)
	} else if prof.Industry == s.defaultIndustry {
		reasons = append(reasons, "no industry keywords matched")
	}
	if found.Source == model.CompetitorSourceFallback {
		reasons = append(reasons, "no curated competitors for "+prof.Industry)
	}
	if len(reasons) == 0 {
		return model.DiscoveryComplete, ""
	}
	return model.DiscoveryDegraded, strings.Join(reasons, "; ")
}
