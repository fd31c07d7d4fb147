package ingest

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// normalizeSpace collapses runs of whitespace (including NBSP) into one space and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanText strips any markup left in extracted text and normalizes whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<>") {
		s = textPolicy.Sanitize(s)
		s = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`, "&lt;", "<", "&gt;", ">").Replace(s)
	}
	return normalizeSpace(s)
}
