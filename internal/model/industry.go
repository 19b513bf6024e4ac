package model

// IndustryDefinition is one row of the weighted keyword table used to
// classify a site. Keywords are lowercase substring triggers.
type IndustryDefinition struct {
	Name     string   `json:"name" yaml:"name" validate:"required"`
	Keywords []string `json:"keywords" yaml:"keywords" validate:"required,min=1,dive,required"`
	Weight   float64  `json:"weight" yaml:"weight" validate:"gt=0"`
}

// Classification is the scored outcome of matching text against the
// industry table.
type Classification struct {
	Industry        string   `json:"industry"`
	Score           float64  `json:"score"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
}

// Matched reports whether any keyword contributed to the score.
func (c Classification) Matched() bool {
	return c.Score > 0
}
