package fields

import (
	"regexp"
	"strconv"
	"strings"
)

// Listings migrated from the old site often carry their details only as
// free-text summaries ("Well established NHS practice, ~3,500 patients,
// leased premises"). Until those rows are backfilled, the resolver parses
// what it can out of the summary.

var patientListRe = regexp.MustCompile(`(?i)~?\s*([0-9][0-9,]*)\s*\+?\s*patients`)

// ParsePatientListSize pulls a patient count out of a legacy summary.
func ParsePatientListSize(summary string) (int, bool) {
	m := patientListRe.FindStringSubmatch(summary)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
