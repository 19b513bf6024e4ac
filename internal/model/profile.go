package model

// ProfileSource records how a SiteProfile's industry was determined.
type ProfileSource string

const (
	// ProfileSourceContent means the homepage was fetched and its text classified.
	ProfileSourceContent ProfileSource = "content"
	// ProfileSourceDomain means the fetch failed and only the domain string was used.
	ProfileSourceDomain ProfileSource = "domain_heuristic"
)

// FailureKind classifies why a homepage fetch did not produce content.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureInvalidURL FailureKind = "invalid_url"
	FailureTimeout    FailureKind = "timeout"
	FailureNetwork    FailureKind = "network"
	FailureHTTPStatus FailureKind = "http_status"
	FailureRead       FailureKind = "read"
)

// SiteProfile is the structured view of a target homepage. It is built per
// discovery call and never persisted on its own.
type SiteProfile struct {
	Domain      string   `json:"domain"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Industry    string   `json:"industry"`
	Keywords    []string `json:"keywords"`

	// Score and MatchedKeywords come from content classification and stay
	// empty on the domain-heuristic path.
	Score           float64  `json:"score,omitempty"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`

	// Observability only; never changes what callers receive.
	Source     ProfileSource `json:"source"`
	Failure    FailureKind   `json:"failure,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Blocked    bool          `json:"blocked,omitempty"`
	BlockType  string        `json:"block_type,omitempty"`
}

// Classification returns the industry outcome recorded on the profile.
func (p *SiteProfile) Classification() Classification {
	return Classification{
		Industry:        p.Industry,
		Score:           p.Score,
		MatchedKeywords: append([]string(nil), p.MatchedKeywords...),
	}
}

// Degraded reports whether the profile came from the domain-name fallback.
func (p *SiteProfile) Degraded() bool {
	return p.Source == ProfileSourceDomain
}
