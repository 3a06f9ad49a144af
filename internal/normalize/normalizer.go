// Package normalize standardizes the date and time fields of extracted punch
// records before export.
package normalize

import (
	"time"

	"github.com/joseph-ayodele/punchlog/internal/entity"
)

// Normalizer re-renders dates and validates times against fixed layouts.
type Normalizer struct {
	DateLayout       string   // canonical output, e.g. "02/01/2006"
	DateInputLayouts []string // tried in order when reparsing; DateLayout when empty
	TimeLayout       string   // e.g. "15:04:05"
}

// Default renders DD/MM/YYYY dates, accepts day and month without a leading
// zero, and checks HH:MM:SS times.
func Default() Normalizer {
	return Normalizer{
		DateLayout:       "02/01/2006",
		DateInputLayouts: []string{"2/1/2006"},
		TimeLayout:       "15:04:05",
	}
}

// New builds a Normalizer that parses and renders dates with the same layout.
func New(dateLayout, timeLayout string) Normalizer {
	return Normalizer{DateLayout: dateLayout, TimeLayout: timeLayout}
}

// Normalize returns a copy of records with every date reparsed and re-rendered
// canonically and every time checked. A date that does not parse becomes empty,
// as does a time; the record itself is always kept. Order and count are
// unchanged and no record depends on another.
func (n Normalizer) Normalize(records []entity.PunchRecord) []entity.PunchRecord {
	out := make([]entity.PunchRecord, len(records))
	for i, r := range records {
		r.Date = n.date(r.Date)
		r.PunchTime = n.time(r.PunchTime)
		out[i] = r
	}
	return out
}

func (n Normalizer) date(s string) string {
	layouts := n.DateInputLayouts
	if len(layouts) == 0 {
		layouts = []string{n.DateLayout}
	}
	for _, layout := range layouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format(n.DateLayout)
		}
	}
	return ""
}

func (n Normalizer) time(s string) string {
	if _, err := time.Parse(n.TimeLayout, s); err != nil {
		return ""
	}
	return s
}
