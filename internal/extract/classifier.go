package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/punchlog/constants"
	"github.com/joseph-ayodele/punchlog/internal/common"
	"github.com/joseph-ayodele/punchlog/internal/entity"
)

// Line is one raw line of page text with its position in the document.
type Line struct {
	Page   int // 1-based
	Number int // 1-based within the page
	Text   string
}

// SplitLines breaks page text into Lines on '\n'.
func SplitLines(page int, text string) []Line {
	raw := strings.Split(text, "\n")
	lines := make([]Line, len(raw))
	for i, t := range raw {
		lines[i] = Line{Page: page, Number: i + 1, Text: t}
	}
	return lines
}

// State is the active date carried from line to line and across pages.
// The zero value is "no date seen yet".
type State struct {
	Date string // canonical rendering of the last header, "" when unset
}

// HasDate reports whether a date header has been seen.
func (s State) HasDate() bool { return s.Date != "" }

// Classifier turns lines into punch records. It holds only compiled rules and
// is safe for concurrent use; all per-document state travels in State.
type Classifier struct {
	rules    Rules
	re       *compiled
	observer Observer
}

// NewClassifier compiles rules. A nil observer discards events.
func NewClassifier(rules Rules, observer Observer) (*Classifier, error) {
	re, err := rules.compile()
	if err != nil {
		return nil, common.NewAppError(common.CodeRules, "invalid extraction rules", err)
	}
	if observer == nil {
		observer = NopObserver
	}
	return &Classifier{rules: rules, re: re, observer: observer}, nil
}

// WithObserver returns a classifier sharing c's compiled rules that reports to o.
func (c *Classifier) WithObserver(o Observer) *Classifier {
	if o == nil {
		o = NopObserver
	}
	return &Classifier{rules: c.rules, re: c.re, observer: o}
}

// Rules returns the rules the classifier was built from.
func (c *Classifier) Rules() Rules { return c.rules }

// Step classifies one line. It returns the emitted record (or nil) and the
// state for the next line. The only error is a header-shaped token that is not
// a calendar date; the state is returned unchanged in that case.
func (c *Classifier) Step(line Line, st State) (*entity.PunchRecord, State, error) {
	text := strings.TrimSpace(line.Text)
	if text == "" {
		c.observer.Observe(Event{Kind: EventBlank, Page: line.Page, Line: line.Number})
		return nil, st, nil
	}

	if loc := c.re.header.FindStringIndex(text); loc != nil && loc[0] == 0 {
		token := text[:loc[1]]
		d, err := time.Parse(c.rules.DateLayout, token)
		if err != nil {
			return nil, st, common.NewAppError(
				common.CodeMalformedDateHeader,
				fmt.Sprintf("page %d line %d: %q", line.Page, line.Number, token),
				fmt.Errorf("%w: %v", common.ErrMalformedDateHeader, err),
			)
		}
		st.Date = d.Format(c.rules.DateLayout)
		c.observer.Observe(Event{Kind: EventHeader, Page: line.Page, Line: line.Number, Text: text, Date: st.Date})
		return nil, st, nil
	}

	if !st.HasDate() {
		c.observer.Observe(Event{Kind: EventNoDate, Page: line.Page, Line: line.Number, Text: text})
		return nil, st, nil
	}

	rec, ok := c.parsePunch(text, st.Date)
	if !ok {
		c.observer.Observe(Event{Kind: EventNoise, Page: line.Page, Line: line.Number, Text: text, Date: st.Date})
		return nil, st, nil
	}
	c.observer.Observe(Event{Kind: EventRecord, Page: line.Page, Line: line.Number, Text: text, Date: st.Date, Record: &rec})
	return &rec, st, nil
}

// Process folds Step over lines in order, starting from initial. On error it
// returns the records gathered so far and the state before the failing line.
func (c *Classifier) Process(lines []Line, initial State) ([]entity.PunchRecord, State, error) {
	var records []entity.PunchRecord
	st := initial
	for _, ln := range lines {
		rec, next, err := c.Step(ln, st)
		if err != nil {
			return records, st, err
		}
		if rec != nil {
			records = append(records, *rec)
		}
		st = next
	}
	return records, st, nil
}

// parsePunch extracts the fields of a punch line. Each field is the leftmost
// match of its pattern, found independently of the others; user ids and
// direction tokens must also be whole words. A record needs a
// punch time; a missing user id leaves user id and name empty unless the rules
// require one.
func (c *Classifier) parsePunch(text, date string) (entity.PunchRecord, bool) {
	userID := findWord(c.re.userID, text)
	punchTime := c.re.punchTime.FindString(text)

	direction := constants.DirectionUnknown
	if tok := findWord(c.re.direction, text); tok != "" {
		direction = constants.Direction(c.re.tokens[tok])
	}

	var name string
	if userID != "" {
		name = c.nameBetween(text, userID, punchTime)
	}

	if punchTime == "" {
		return entity.PunchRecord{}, false
	}
	if userID == "" && c.rules.RequireUserID {
		return entity.PunchRecord{}, false
	}
	return entity.PunchRecord{
		Date:      date,
		UserID:    userID,
		Name:      name,
		PunchTime: punchTime,
		Direction: direction,
	}, true
}

// nameBetween returns the text after the first occurrence of userID up to the
// first occurrence of punchTime (or end of line), with direction tokens removed.
func (c *Classifier) nameBetween(text, userID, punchTime string) string {
	start := strings.Index(text, userID) + len(userID)
	end := len(text)
	if punchTime != "" {
		end = strings.Index(text, punchTime)
	}
	if end <= start {
		return ""
	}
	return strings.TrimSpace(removeWords(c.re.direction, text[start:end]))
}
