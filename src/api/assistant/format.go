package assistant

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy = bluemonday.StrictPolicy()

	mdLinkRe     = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdHeadingRe  = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s*`)
	mdEmphasisRe = regexp.MustCompile("(\\*\\*|__|\\*|`{1,3})")
	mdBulletRe   = regexp.MustCompile(`(?m)^\s*[-+]\s+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// formatAnswer strips HTML and markdown from model output, collapses whitespace
// and appends follow-up suggestions for the question's topic.
func formatAnswer(question, raw string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(raw))
	text = mdLinkRe.ReplaceAllString(text, "$1")
	text = mdHeadingRe.ReplaceAllString(text, "")
	text = mdBulletRe.ReplaceAllString(text, "")
	text = mdEmphasisRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\nYou might also want to ask:")
	for _, s := range suggestionsFor(question) {
		sb.WriteString("\n- ")
		sb.WriteString(s)
	}
	return sb.String()
}
