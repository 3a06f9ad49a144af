package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RE2's \b only knows ASCII word characters, so "ller" in "Müller" or "IN" in
// "ÉIN" would pass as whole words. Matches are re-checked against their
// neighbouring runes with letters and digits of any script counted as word
// characters.

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// standsAlone reports whether s[loc[0]:loc[1]] is not glued to a word rune.
func standsAlone(s string, loc []int) bool {
	if loc[0] > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:loc[0]]); isWordRune(r) {
			return false
		}
	}
	if loc[1] < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[loc[1]:]); isWordRune(r) {
			return false
		}
	}
	return true
}

// findWord returns the leftmost match of re in s that stands alone, or "".
func findWord(re *regexp.Regexp, s string) string {
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if loc[0] < loc[1] && standsAlone(s, loc) {
			return s[loc[0]:loc[1]]
		}
	}
	return ""
}

// removeWords deletes every standalone match of re from s.
func removeWords(re *regexp.Regexp, s string) string {
	var (
		b    strings.Builder
		last int
	)
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if !standsAlone(s, loc) {
			continue
		}
		b.WriteString(s[last:loc[0]])
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
