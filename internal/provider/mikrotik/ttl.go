package mikrotik

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ttlUnits = []struct {
	suffix string
	d      time.Duration
}{
	{"w", 7 * 24 * time.Hour},
	{"d", 24 * time.Hour},
	{"h", time.Hour},
	{"ms", time.Millisecond},
	{"m", time.Minute},
	{"s", time.Second},
}

// ParseTTL parses a RouterOS duration such as "1d", "1w2d3h", "30m",
// "01:30:00" or "1d 00:00:00". A bare number is seconds.
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var total time.Duration
	rest := strings.ReplaceAll(s, " ", "")
	for rest != "" {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 {
			return 0, fmt.Errorf("invalid ttl %q", s)
		}
		if i < len(rest) && rest[i] == ':' {
			clock, err := parseClock(rest)
			if err != nil {
				return 0, fmt.Errorf("invalid ttl %q: %w", s, err)
			}
			return total + clock, nil
		}
		n, err := strconv.Atoi(rest[:i])
		if err != nil {
			return 0, fmt.Errorf("invalid ttl %q: %w", s, err)
		}
		rest = rest[i:]

		unit := time.Second
		if rest != "" {
			found := false
			for _, u := range ttlUnits {
				if strings.HasPrefix(rest, u.suffix) {
					unit = u.d
					rest = rest[len(u.suffix):]
					found = true
					break
				}
			}
			if !found {
				return 0, fmt.Errorf("invalid ttl %q: unknown unit", s)
			}
		}
		total += time.Duration(n) * unit
	}
	return total, nil
}

func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("malformed clock %q", s)
	}
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	if len(parts) == 2 {
		units = units[1:]
	}
	var total time.Duration
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("malformed clock %q", s)
		}
		total += time.Duration(n) * units[i]
	}
	return total, nil
}

// FormatTTL renders d the way RouterOS prints it, e.g. "1d" or "1h30m".
// Sub-second precision is dropped.
func FormatTTL(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d <= 0 {
		return "0s"
	}
	var b strings.Builder
	for _, u := range ttlUnits {
		if n := d / u.d; n > 0 {
			b.WriteString(strconv.FormatInt(int64(n), 10))
			b.WriteString(u.suffix)
			d -= n * u.d
		}
	}
	return b.String()
}
