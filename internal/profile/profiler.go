// Package profile fetches a target homepage and turns it into a SiteProfile.
// Every failure degrades to a domain-only profile; Profile never errors.
package profile

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aeolive/competitor-cli/internal/catalog"
	"github.com/aeolive/competitor-cli/internal/classify"
	"github.com/aeolive/competitor-cli/internal/model"
)

// DefaultUserAgent identifies the bot while looking enough like a browser to
// avoid the most naive bot blocking.
const DefaultUserAgent = "Mozilla/5.0 (compatible; AEOBot/1.0; +https://aeo.live)"

// Options tunes fetching and extraction.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	ExcerptChars int
	MaxKeywords  int
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		Timeout:      10 * time.Second,
		UserAgent:    DefaultUserAgent,
		MaxBodyBytes: 2 << 20,
		ExcerptChars: 2000,
		MaxKeywords:  10,
	}
}

// Profiler builds SiteProfiles. It is safe for concurrent use.
type Profiler struct {
	client     *http.Client
	opts       Options
	cat        *catalog.Catalog
	classifier *classify.Classifier
}

// New creates a Profiler. Zero-valued options fall back to DefaultOptions.
func New(cat *catalog.Catalog, classifier *classify.Classifier, opts Options) *Profiler {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = def.MaxBodyBytes
	}
	if opts.ExcerptChars <= 0 {
		opts.ExcerptChars = def.ExcerptChars
	}
	if opts.MaxKeywords <= 0 {
		opts.MaxKeywords = def.MaxKeywords
	}
	return &Profiler{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: opts.Timeout,
				}).DialContext,
				TLSHandshakeTimeout: opts.Timeout,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:       opts,
		cat:        cat,
		classifier: classifier,
	}
}

// WithHTTPClient swaps the HTTP client, mainly for tests.
func (p *Profiler) WithHTTPClient(c *http.Client) *Profiler {
	p.client = c
	return p
}

// Options returns the effective options.
func (p *Profiler) Options() Options {
	return p.opts
}

// Profile fetches the homepage for domain and extracts a profile. Caller
// cancellation is deliberately not propagated; only the fetch timeout bounds
// the call.
func (p *Profiler) Profile(ctx context.Context, domain string) *model.SiteProfile {
	normalized := NormalizeDomain(domain)

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.Timeout)
	defer cancel()

	pg, kind, err := p.fetch(fetchCtx, TargetURL(domain))
	if err != nil {
		zap.L().Debug("profile: fetch failed, using domain heuristic",
			zap.String("domain", normalized),
			zap.String("failure", string(kind)),
			zap.Error(err),
		)
		prof := p.degraded(normalized, kind)
		if pg != nil {
			prof.StatusCode = pg.statusCode
		}
		return prof
	}

	return p.fromPage(normalized, pg)
}

// fromPage builds a content-derived profile from a fetched page.
func (p *Profiler) fromPage(domain string, pg *page) *model.SiteProfile {
	title := ExtractTitle(pg.html)
	description := ExtractMeta(pg.html, "description")
	excerpt := BodyExcerpt(pg.html, p.opts.ExcerptChars)

	cls := p.classifier.Score(title, description, excerpt, domain)

	keywords := p.metaKeywords(ExtractMeta(pg.html, "keywords"))
	if len(keywords) == 0 {
		keywords = p.synthesizeKeywords(title + " " + description)
	}
	if len(keywords) == 0 {
		keywords = stemKeywords(domain)
	}

	prof := &model.SiteProfile{
		Domain:          domain,
		Title:           title,
		Description:     description,
		Industry:        cls.Industry,
		Keywords:        keywords,
		Score:           cls.Score,
		MatchedKeywords: cls.MatchedKeywords,
		Source:          model.ProfileSourceContent,
		StatusCode:      pg.statusCode,
	}
	if blocked, bt := DetectBlock(pg.statusCode, pg.header, []byte(pg.html)); blocked {
		prof.Blocked = true
		prof.BlockType = string(bt)
	}

	zap.L().Debug("profile: extracted",
		zap.String("domain", domain),
		zap.String("industry", cls.Industry),
		zap.Float64("score", cls.Score),
		zap.Int("keywords", len(keywords)),
		zap.Bool("blocked", prof.Blocked),
	)
	return prof
}

// degraded builds the domain-only profile used when the fetch fails.
func (p *Profiler) degraded(domain string, kind model.FailureKind) *model.SiteProfile {
	return &model.SiteProfile{
		Domain:   domain,
		Industry: p.classifier.FromDomain(domain),
		Keywords: stemKeywords(domain),
		Source:   model.ProfileSourceDomain,
		Failure:  kind,
	}
}

// TargetURL turns user input into an absolute URL, defaulting to https.
func TargetURL(domain string) string {
	d := strings.TrimSpace(domain)
	lower := strings.ToLower(d)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return d
	}
	return "https://" + d
}

// NormalizeDomain strips any scheme and trailing slashes.
func NormalizeDomain(domain string) string {
	d := strings.TrimSpace(domain)
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	return strings.TrimRight(d, "/")
}

// stemKeywords is the single-keyword fallback. An empty stem yields an empty,
// non-nil list.
func stemKeywords(domain string) []string {
	if stem := DomainStem(domain); stem != "" {
		return []string{stem}
	}
	return []string{}
}

// DomainStem drops the path, a leading "www." and the final label, so
// "www.acmehvac.com/contact" becomes "acmehvac".
func DomainStem(domain string) string {
	d := strings.ToLower(NormalizeDomain(domain))
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	if i := strings.LastIndex(d, "."); i > 0 {
		d = d[:i]
	}
	return d
}
