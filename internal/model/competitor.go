package model

// CompetitorRecord is a suggested competitor for a classified site.
// Similarity is an opaque display hint in [0,1].
type CompetitorRecord struct {
	Domain      string   `json:"domain" yaml:"domain" validate:"required"`
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Similarity  *float64 `json:"similarity,omitempty" yaml:"similarity,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// CompetitorSource records which branch of the lookup produced a list.
type CompetitorSource string

const (
	CompetitorSourceRegional CompetitorSource = "regional"
	CompetitorSourceNational CompetitorSource = "national"
	CompetitorSourceCatalog  CompetitorSource = "catalog"
	CompetitorSourceFallback CompetitorSource = "fallback"
)

// CloneCompetitors returns a deep copy so static tables are never shared
// with callers.
func CloneCompetitors(in []CompetitorRecord) []CompetitorRecord {
	out := make([]CompetitorRecord, len(in))
	for i, c := range in {
		out[i] = c
		if c.Similarity != nil {
			s := *c.Similarity
			out[i].Similarity = &s
		}
	}
	return out
}
