package orchestrator

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// matchTier ranks how specifically a mode matched. Lower is better.
type matchTier int

const (
	tierPrefixAndBundle matchTier = iota + 1 // voice prefix and bundle filter both match
	tierPrefix                               // voice prefix matches, mode has no bundle filter
	tierBundle                               // bundle filter matches, mode has no prefixes
	tierFallback                             // mode has neither prefixes nor filter
)

// Match is the result of selecting a mode for a request.
type Match struct {
	Mode *Mode
	// Text is the request text with the matched voice prefix removed.
	Text   string
	Prefix string
	tier   matchTier
}

// MatchMode selects the single best mode for text spoken while bundleID
// was frontmost. Among modes of the same tier the earliest one wins. When
// no mode applies, ok is false and the text should pass through unchanged.
func MatchMode(modes []Mode, text, bundleID string) (Match, bool) {
	var best Match
	for i := range modes {
		m := &modes[i]
		tier, prefix, rest := classify(m, text, bundleID)
		if tier == 0 {
			continue
		}
		if best.tier == 0 || tier < best.tier {
			best = Match{Mode: m, Text: rest, Prefix: prefix, tier: tier}
			if tier == tierPrefixAndBundle {
				break
			}
		}
	}
	if best.Mode == nil {
		return Match{Text: text}, false
	}
	return best, true
}

func classify(m *Mode, text, bundleID string) (matchTier, string, string) {
	hasPrefixes := false
	for _, p := range m.VoicePrefixes {
		if strings.TrimSpace(p) != "" {
			hasPrefixes = true
			break
		}
	}
	hasFilter := len(m.BundleIDs) > 0
	bundleOK := !hasFilter || containsFold(m.BundleIDs, bundleID)

	if !hasPrefixes {
		switch {
		case hasFilter && bundleOK:
			return tierBundle, "", text
		case !hasFilter:
			return tierFallback, "", text
		}
		return 0, "", text
	}

	prefix, rest, ok := stripVoicePrefix(m.VoicePrefixes, text)
	switch {
	case !ok:
		return 0, "", text
	case hasFilter && bundleOK:
		return tierPrefixAndBundle, prefix, rest
	case !hasFilter:
		return tierPrefix, prefix, rest
	}
	return 0, "", text
}

// stripVoicePrefix finds the longest prefix that starts text (ignoring case
// and leading whitespace) and ends on a word boundary, and returns the text
// after it with leading separators removed.
func stripVoicePrefix(prefixes []string, text string) (string, string, bool) {
	body := strings.TrimLeftFunc(text, unicode.IsSpace)
	var (
		bestPrefix string
		bestRest   string
		bestLen    = -1
		found      bool
	)
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		rest, ok := cutPrefixFold(body, p)
		if !ok {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(rest); rest != "" && isWordRune(r) && isWordRune(lastRune(p)) {
			continue
		}
		if n := utf8.RuneCountInString(p); n > bestLen {
			bestLen, bestPrefix, bestRest, found = n, p, rest, true
		}
	}
	if !found {
		return "", text, false
	}
	return bestPrefix, strings.TrimLeftFunc(bestRest, isSeparator), true
}

// cutPrefixFold is strings.CutPrefix with Unicode case folding, compared
// rune by rune so that prefixes whose folded forms differ in byte length
// still line up.
func cutPrefixFold(s, prefix string) (string, bool) {
	for _, pr := range prefix {
		if s == "" {
			return "", false
		}
		sr, size := utf8.DecodeRuneInString(s)
		if !equalFoldRune(sr, pr) {
			return "", false
		}
		s = s[size:]
	}
	return s, true
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	return strings.EqualFold(string(a), string(b))
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case ',', '.', ':', ';', '!', '?', '-', '–', '—':
		return true
	}
	return false
}

func containsFold(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
