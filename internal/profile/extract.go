package profile

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	titleRe      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptRe     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	commentRe    = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// metaPatterns holds both attribute orders for a named meta tag.
type metaPatterns struct {
	nameFirst    *regexp.Regexp
	contentFirst *regexp.Regexp
}

const metaContent = `content\s*=\s*(?:"([^"]*)"|'([^']*)')`

func newMetaPatterns(name string) metaPatterns {
	n := `name\s*=\s*["']` + regexp.QuoteMeta(name) + `["']`
	return metaPatterns{
		nameFirst:    regexp.MustCompile(`(?is)<meta\s[^>]*?` + n + `[^>]*?` + metaContent),
		contentFirst: regexp.MustCompile(`(?is)<meta\s[^>]*?` + metaContent + `[^>]*?` + n),
	}
}

var metaByName = map[string]metaPatterns{
	"description": newMetaPatterns("description"),
	"keywords":    newMetaPatterns("keywords"),
}

// ExtractTitle returns the trimmed, entity-decoded <title> text.
func ExtractTitle(doc string) string {
	m := titleRe.FindStringSubmatch(doc)
	if len(m) < 2 {
		return ""
	}
	return cleanText(m[1])
}

// ExtractMeta returns the content of <meta name="..."> for description or
// keywords, accepting either attribute order.
func ExtractMeta(doc, name string) string {
	pats, ok := metaByName[strings.ToLower(name)]
	if !ok {
		pats = newMetaPatterns(name)
	}
	for _, re := range []*regexp.Regexp{pats.nameFirst, pats.contentFirst} {
		if m := re.FindStringSubmatch(doc); m != nil {
			v := m[1]
			if v == "" {
				v = m[2]
			}
			if v = cleanText(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// BodyExcerpt strips scripts, styles, comments, and tags, collapses
// whitespace, and truncates to maxChars runes.
func BodyExcerpt(doc string, maxChars int) string {
	doc = scriptRe.ReplaceAllString(doc, " ")
	doc = styleRe.ReplaceAllString(doc, " ")
	doc = commentRe.ReplaceAllString(doc, " ")
	doc = tagRe.ReplaceAllString(doc, " ")
	return truncateRunes(cleanText(doc), maxChars)
}

func cleanText(s string) string {
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return strings.TrimSpace(s[:pos])
		}
		i++
	}
	return s
}
