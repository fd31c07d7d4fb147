package analysis

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Ukrainian month names: genitive ("01 січня 2023") and nominative forms.
var monthNames = map[string]time.Month{
	"січня": time.January, "січень": time.January,
	"лютого": time.February, "лютий": time.February,
	"березня": time.March, "березень": time.March,
	"квітня": time.April, "квітень": time.April,
	"травня": time.May, "травень": time.May,
	"червня": time.June, "червень": time.June,
	"липня": time.July, "липень": time.July,
	"серпня": time.August, "серпень": time.August,
	"вересня": time.September, "вересень": time.September,
	"жовтня": time.October, "жовтень": time.October,
	"листопада": time.November, "листопад": time.November,
	"грудня": time.December, "грудень": time.December,
}

var monthAbbrevs = map[string]time.Month{
	"січ": time.January,
	"лют": time.February,
	"бер": time.March,
	"кві": time.April, "квіт": time.April,
	"тра": time.May, "трав": time.May,
	"чер": time.June, "черв": time.June,
	"лип": time.July,
	"сер": time.August, "серп": time.August,
	"вер": time.September,
	"жов": time.October, "жовт": time.October,
	"лис": time.November, "лист": time.November,
	"гру": time.December, "груд": time.December,
}

var (
	namedDateRegex   = regexp.MustCompile(`^(\d{1,2}) (\p{L}+)(\.?) (\d{4})$`)
	numericDateRegex = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
)

// ParsePublicationDate parses a tender publication date in one of three
// forms, tried in order: "01 січня 2023", "01 січ 2023", "01.01.2023". The
// whole string must match; anything else reports ok=false.
func ParsePublicationDate(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}

	if m := namedDateRegex.FindStringSubmatch(s); m != nil {
		name := strings.ToLower(m[2])
		if m[3] == "" {
			if month, ok := monthNames[name]; ok {
				return buildDate(m[1], month, m[4])
			}
		}
		if month, ok := monthAbbrevs[name]; ok {
			return buildDate(m[1], month, m[4])
		}
		return time.Time{}, false
	}

	if m := numericDateRegex.FindStringSubmatch(s); m != nil {
		month, err := strconv.Atoi(m[2])
		if err != nil || month < 1 || month > 12 {
			return time.Time{}, false
		}
		return buildDate(m[1], time.Month(month), m[3])
	}

	return time.Time{}, false
}

func buildDate(dayStr string, month time.Month, yearStr string) (time.Time, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31 February); reject it instead.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
