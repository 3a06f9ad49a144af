package pages

import (
	"regexp"
	"strings"
)

var (
	reDateLike      = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	reTimeLike      = regexp.MustCompile(`\b\d{1,2}:\d{2}(:\d{2})?\b`)
	reDirectionLike = regexp.MustCompile(`(?i)\b(in|out)\b`)
)

func hasDatePattern(s string) bool      { return reDateLike.MatchString(s) }
func hasTimePattern(s string) bool      { return reTimeLike.MatchString(s) }
func hasDirectionPattern(s string) bool { return reDirectionLike.MatchString(s) }

// heuristicConfidence scores how much txt looks like an attendance log:
// dates, clock times and IN/OUT words. Whitespace-only text scores 0.
func heuristicConfidence(txt string) float32 {
	if strings.TrimSpace(txt) == "" {
		return 0
	}
	score := float32(0.2) // base
	if hasDatePattern(txt) {
		score += 0.3
	}
	if hasTimePattern(txt) {
		score += 0.3
	}
	if hasDirectionPattern(txt) {
		score += 0.1
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// documentConfidence is the best page score; later pages often carry no header.
func documentConfidence(pages []Page) float32 {
	var best float32
	for _, p := range pages {
		if c := heuristicConfidence(p.Text); c > best {
			best = c
		}
	}
	return best
}
