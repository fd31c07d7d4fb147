package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	costRegex     = regexp.MustCompile(`([\d\s\p{Zs},.]+)[\s\p{Zs}]*([A-Z]+)`)
	currencyRegex = regexp.MustCompile(`([A-Z]+)`)
)

// parseAmount converts a locale-formatted number such as "1 234 567,89" to a
// float. Spaces (including NBSP) are thousands separators, a comma is the
// decimal point. Non-numeric content reports ok=false.
func parseAmount(text string) (float64, bool) {
	clean := strings.Join(strings.Fields(text), "")
	clean = strings.ReplaceAll(clean, ",", ".")
	if clean == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// parseCost extracts amount and currency code from a cost label like
// "1 500 000,00 UAH".
func parseCost(text string) (amount float64, currency string, ok bool) {
	m := costRegex.FindStringSubmatch(text)
	if len(m) != 3 {
		return 0, "", false
	}
	amount, ok = parseAmount(m[1])
	if !ok {
		return 0, "", false
	}
	return amount, m[2], true
}

// parseCurrency returns the first upper-case currency code in text.
func parseCurrency(text string) string {
	if m := currencyRegex.FindStringSubmatch(text); len(m) == 2 {
		return m[1]
	}
	return ""
}
