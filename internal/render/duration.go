package render

import (
	"fmt"
	"strings"
)

// NiceDuration formats elapsed seconds as a human sentence, omitting
// zero-valued leading units but always showing seconds.
//
// The "seconds" unit is intentionally never singularized ("1 min 1 seconds"),
// matching the long-standing output format that downstream templates and
// recipients' mail filters already rely on.
func NiceDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}

	days := seconds / 86400
	seconds -= days * 86400
	hours := seconds / 3600
	seconds -= hours * 3600
	minutes := seconds / 60
	seconds -= minutes * 60

	var parts []string
	if days > 0 {
		parts = append(parts, pluralize(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, pluralize(hours, "hr"))
	}
	if minutes > 0 {
		parts = append(parts, pluralize(minutes, "min"))
	}
	parts = append(parts, fmt.Sprintf("%d seconds", seconds))

	return strings.Join(parts, " ")
}

func pluralize(value int64, unit string) string {
	if value == 1 {
		return fmt.Sprintf("%d %s", value, unit)
	}
	return fmt.Sprintf("%d %ss", value, unit)
}
