package runtime

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Host attributes are strings written by whoever controls the page. The
// parsers below never fail: malformed input yields the default.

// ParseFloat parses s as a finite float, or returns def.
func ParseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// ParseInt parses s as a base-10 integer, or returns def. A decimal value
// is truncated.
func ParseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && math.Abs(f) < 1<<62 {
		return int(f)
	}
	return def
}

// ParseBool reads boolean host attributes: "", "true", "1", "yes" and
// "on" are true; "false", "0", "no" and "off" are false. Anything else
// returns def.
func ParseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return def
	}
}

// ParseDuration parses a Go duration ("300ms", "1.5s") or a bare number
// of milliseconds. Negative or malformed input returns def.
func ParseDuration(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return def
		}
		return d
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil && ms >= 0 && ms < 1e12 {
		return time.Duration(ms * float64(time.Millisecond))
	}
	return def
}
