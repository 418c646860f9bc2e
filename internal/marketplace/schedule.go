package marketplace

import (
	"regexp"
	"strings"
	"time"

	"github.com/sudo-init-do/fixhub/internal/apperr"
)

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ParseSchedule turns a "YYYY-MM-DD" date and a 24h "HH:MM" time into an
// instant in loc that must lie after now.
func ParseSchedule(date, clock string, loc *time.Location, now time.Time) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if !dateRe.MatchString(date) || !clockRe.MatchString(clock) {
		return time.Time{}, apperr.Validation("use date YYYY-MM-DD and time HH:MM (24h)")
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date or time: %s %s", date, clock)
	}
	if !t.After(now) {
		return time.Time{}, apperr.Validation("scheduled time must be in the future")
	}
	return t, nil
}
