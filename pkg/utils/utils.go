package utils

import (
	"fmt"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

// ParseDurationOrDefault parses a human duration ("30m", "1h15m", "2d").
// An empty value falls back to def; a malformed one is an error, not a
// silent default.
func ParseDurationOrDefault(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}

	d, err := str2duration.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("error parsing duration: %w", err)
	}

	return d, nil
}

// ExpiresIn renders the time left until deadline in human form, "expired"
// once it has passed.
func ExpiresIn(deadline time.Time) string {
	left := time.Until(deadline)
	if left <= 0 {
		return "expired"
	}

	return str2duration.String(left.Round(time.Second))
}
