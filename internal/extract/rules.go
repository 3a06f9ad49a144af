package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Rules is the vocabulary the Classifier matches lines against. The zero value
// is not usable; start from DefaultRules.
type Rules struct {
	// HeaderPattern must match at position 0 of a trimmed line for it to be a date header.
	HeaderPattern string `json:"header_pattern"`
	// UserIDPattern finds the first user identifier on a line.
	UserIDPattern string `json:"user_id_pattern"`
	// TimePattern finds the first punch time on a line.
	TimePattern string `json:"time_pattern"`
	// InTokens and OutTokens are matched as whole words; the leftmost token wins.
	InTokens  []string `json:"in_tokens"`
	OutTokens []string `json:"out_tokens"`
	// DateLayout parses a header token and renders the canonical date (Go layout).
	DateLayout string `json:"date_layout"`
	// TimeLayout validates punch times during normalization (Go layout).
	TimeLayout string `json:"time_layout"`
	// RequireUserID drops lines that carry a time but no user identifier.
	RequireUserID bool `json:"require_user_id"`
}

// DefaultRules returns the stock attendance-log vocabulary:
// DD/MM/YYYY headers, HH:MM:SS times, 4+ alphanumeric ids and IN/OUT tokens.
func DefaultRules() Rules {
	return Rules{
		HeaderPattern: `^\d{2}/\d{2}/\d{4}`,
		UserIDPattern: `\b[A-Za-z0-9]{4,}\b`,
		TimePattern:   `\d{2}:\d{2}:\d{2}`,
		InTokens:      []string{"IN"},
		OutTokens:     []string{"OUT"},
		DateLayout:    "02/01/2006",
		TimeLayout:    "15:04:05",
	}
}

// compiled holds the regexps built from Rules. It is read-only after compile.
type compiled struct {
	header    *regexp.Regexp
	userID    *regexp.Regexp
	punchTime *regexp.Regexp
	direction *regexp.Regexp
	tokens    map[string]string // token -> IN | OUT
}

func (r Rules) compile() (*compiled, error) {
	if strings.TrimSpace(r.DateLayout) == "" {
		return nil, fmt.Errorf("date layout is required")
	}
	if len(r.InTokens) == 0 || len(r.OutTokens) == 0 {
		return nil, fmt.Errorf("in and out tokens are required")
	}
	header, err := compilePattern("header", r.HeaderPattern)
	if err != nil {
		return nil, err
	}
	userID, err := compilePattern("user id", r.UserIDPattern)
	if err != nil {
		return nil, err
	}
	punchTime, err := compilePattern("time", r.TimePattern)
	if err != nil {
		return nil, err
	}

	tokens := make(map[string]string, len(r.InTokens)+len(r.OutTokens))
	var alts []string
	for _, group := range []struct {
		dir  string
		toks []string
	}{{"IN", r.InTokens}, {"OUT", r.OutTokens}} {
		for _, t := range group.toks {
			t = strings.TrimSpace(t)
			if t == "" {
				return nil, fmt.Errorf("empty direction token")
			}
			if prev, dup := tokens[t]; dup && prev != group.dir {
				return nil, fmt.Errorf("direction token %q is both IN and OUT", t)
			}
			tokens[t] = group.dir
			alts = append(alts, `\b`+regexp.QuoteMeta(t)+`\b`)
		}
	}
	direction, err := regexp.Compile(strings.Join(alts, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile direction tokens: %w", err)
	}

	return &compiled{
		header:    header,
		userID:    userID,
		punchTime: punchTime,
		direction: direction,
		tokens:    tokens,
	}, nil
}

func compilePattern(what, pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%s pattern is required", what)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile %s pattern: %w", what, err)
	}
	return re, nil
}
