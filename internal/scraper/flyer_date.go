package scraper

import (
	"regexp"
	"strconv"
	"time"

	"github.com/akciovadasz/backend/pkg/datetime"
)

// Matches "2025.03.16.", "2025-03-16" and the yearless "03.16." forms.
var flyerDatePattern = regexp.MustCompile(`(?:(\d{4})\s*[.\-/]\s*)?(\d{1,2})\s*[.\-/]\s*(\d{1,2})\b`)

// parseFlyerDate returns the last date printed in s (the end of a range
// such as "03.10-03.16.") as YYYY-MM-DD. Yearless dates are placed in the
// current year, or the next one when that would put them over half a year
// in the past.
func parseFlyerDate(s string, now time.Time, loc *time.Location) (string, bool) {
	matches := flyerDatePattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return "", false
	}
	m := matches[len(matches)-1]

	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}

	today := datetime.DateOf(now, loc)
	year := today.Year()
	if m[1] != "" {
		year, _ = strconv.Atoi(m[1])
	}

	d := datetime.NewDate(year, time.Month(month), day)
	if d.Day() != day {
		// e.g. 02.30 rolled over into March
		return "", false
	}
	if m[1] == "" && d.Before(today.AddDays(-183).Time) {
		d = datetime.NewDate(year+1, time.Month(month), day)
	}
	return d.String(), true
}
