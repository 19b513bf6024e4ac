package model

import "time"

// DiscoveryStatus tags how much of the pipeline produced real signal.
type DiscoveryStatus string

const (
	// DiscoveryComplete means the homepage was fetched and classified.
	DiscoveryComplete DiscoveryStatus = "complete"
	// DiscoveryDegraded means a fallback tier was used somewhere.
	DiscoveryDegraded DiscoveryStatus = "degraded"
	// DiscoveryFailed means the orchestration itself broke; competitors is empty.
	DiscoveryFailed DiscoveryStatus = "failed"
)

// DiscoveryResult is the tagged outcome of one discovery call. Callers that
// only need suggestions read Competitors; the rest is telemetry.
type DiscoveryResult struct {
	Domain         string             `json:"domain"`
	Status         DiscoveryStatus    `json:"status"`
	Reason         string             `json:"reason,omitempty"`
	Profile        *SiteProfile       `json:"profile,omitempty"`
	Classification Classification     `json:"classification"`
	LocationHint   string             `json:"location_hint,omitempty"`
	Source         CompetitorSource   `json:"source,omitempty"`
	Competitors    []CompetitorRecord `json:"competitors"`
	DurationMS     int64              `json:"duration_ms"`
	CreatedAt      time.Time          `json:"created_at"`
}
