package domain

import (
	"regexp"
	"strings"
)

type Symbol string

var symbolRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^=]{0,19}$`)

// NormalizeSymbol upper-cases and trims s and reports whether the result is a plausible ticker.
func NormalizeSymbol(s string) (Symbol, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !symbolRe.MatchString(s) {
		return "", false
	}
	return Symbol(s), true
}

// AuxKey builds the cache key of an auxiliary row, e.g. "grades-historical:AAPL".
func AuxKey(prefix string, sym Symbol) string {
	return prefix + ":" + string(sym)
}

const GradesHistoryPrefix = "grades-historical"
