package listing

import (
	"regexp"
	"strconv"
	"strings"
)

// WindowNow is the window token for the latest snapshot day only.
const WindowNow = "now"

var windowPattern = regexp.MustCompile(`^(\d+)([dmy])$`)

// ParseWindowDays turns a window token <N><unit> into a day count: d is days,
// m is N*30 days, y is N*365 days. A malformed token yields the caller's
// fallback.
func ParseWindowDays(token string, fallbackDays int) int {
	match := windowPattern.FindStringSubmatch(strings.ToLower(token))
	if match == nil {
		return fallbackDays
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return fallbackDays
	}
	switch match[2] {
	case "d":
		return value
	case "m":
		return value * 30
	case "y":
		return value * 365
	}
	return fallbackDays
}

// ResolveWindow turns a symbolic window token into a concrete inclusive date
// range anchored at the latest snapshot day. "now" is the single-day window
// [anchor, anchor]; an N-day token spans exactly N calendar days ending at
// the anchor.
func ResolveWindow(anchor Day, token string, fallbackDays int) (start, end Day) {
	if token == WindowNow || token == "" {
		return anchor, anchor
	}
	days := ParseWindowDays(token, fallbackDays)
	if days < 1 {
		days = 1
	}
	return anchor.AddDays(-(days - 1)), anchor
}

// DeltaWindows splits the trailing 2*days calendar days before the anchor into
// a "now" window ending at the anchor and a "prev" window of the same length
// immediately preceding it, adjacent with no gap and no overlap.
func DeltaWindows(anchor Day, days int) (nowStart, nowEnd, prevStart, prevEnd Day) {
	if days < 1 {
		days = 1
	}
	nowEnd = anchor
	nowStart = anchor.AddDays(-(days - 1))
	prevEnd = nowStart.AddDays(-1)
	prevStart = prevEnd.AddDays(-(days - 1))
	return nowStart, nowEnd, prevStart, prevEnd
}
