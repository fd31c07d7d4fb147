package ingest

import (
	"regexp"
	"strings"

	"github.com/david/tender-tracker/internal/models"
)

// "07 червня 202313:24" comes out of award cells with the year glued to the time.
var gluedTimeRegex = regexp.MustCompile(`(.*?)(\d{4})(\d{2}:\d{2})`)

// normalizeTender collapses whitespace in date strings and repairs award
// publication dates whose year and time were rendered without a separator.
func normalizeTender(t *models.Tender) {
	if t.Dates != nil {
		t.Dates.PublicationDate = normalizeSpace(t.Dates.PublicationDate)
	}

	for i := range t.Awards {
		t.Awards[i].PublicationDate = fixAwardDate(t.Awards[i].PublicationDate)
	}

	for i := range t.Documents {
		t.Documents[i].Date = normalizeSpace(t.Documents[i].Date)
	}
}

func fixAwardDate(s string) string {
	if !strings.Contains(s, ":") {
		return normalizeSpace(s)
	}
	if m := gluedTimeRegex.FindStringSubmatch(s); len(m) == 4 {
		return normalizeSpace(m[1] + " " + m[2] + " " + m[3])
	}
	return normalizeSpace(s)
}
