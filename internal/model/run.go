package model

import "time"

// Run is a journaled discovery result.
type Run struct {
	ID        string           `json:"id"`
	Domain    string           `json:"domain"`
	Industry  string           `json:"industry"`
	Status    DiscoveryStatus  `json:"status"`
	Source    string           `json:"source"`
	Result    *DiscoveryResult `json:"result,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
