package profile

import (
	"strings"
	"unicode"
)

// metaKeywords splits a meta keywords value into a deduplicated list capped
// at MaxKeywords.
func (p *Profiler) metaKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		kw := strings.TrimSpace(part)
		key := strings.ToLower(kw)
		if kw == "" || seen[key] || p.cat.IsStopword(key) {
			continue
		}
		seen[key] = true
		out = append(out, kw)
		if len(out) == p.opts.MaxKeywords {
			break
		}
	}
	return out
}

// synthesizeKeywords tokenizes text into lowercase words of three or more
// characters, dropping stopwords and keeping first-seen order.
func (p *Profiler) synthesizeKeywords(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokens {
		if len([]rune(tok)) < 3 || seen[tok] || p.cat.IsStopword(tok) {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		if len(out) == p.opts.MaxKeywords {
			break
		}
	}
	return out
}
