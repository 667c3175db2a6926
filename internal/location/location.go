// Package location guesses where a sender is based from message text.
package location

import (
	"regexp"
	"strings"

	"github.com/mikey/rfq-workflow/internal/utils"
)

type pattern struct {
	re    *regexp.Regexp
	label string
	// exact patterns run against the unfolded text
	exact bool
}

// Extractor finds a best-guess location in message text. It holds no mutable
// state and may be shared between goroutines.
type Extractor struct {
	patterns []pattern
}

// NewExtractor creates an extractor over the built-in city and country tables
func NewExtractor() *Extractor {
	e := &Extractor{}
	for _, c := range cities {
		for _, alias := range c.aliases {
			e.patterns = append(e.patterns, newPattern(alias, c.name+", "+c.country))
		}
	}
	for _, c := range countries {
		for _, alias := range c.aliases {
			e.patterns = append(e.patterns, newPattern(alias, c.name))
		}
	}
	return e
}

func newPattern(alias, label string) pattern {
	return pattern{re: wordPattern(alias), label: label, exact: alias == strings.ToUpper(alias)}
}

func wordPattern(alias string) *regexp.Regexp {
	words := strings.Fields(alias)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b` + strings.Join(words, `\s+`) + `\b`)
}

// Extract returns the first confident location found in the signature block,
// then the whole text, then the sender's country code domain.
func (e *Extractor) Extract(text, senderAddress string) (string, bool) {
	if sig := signatureBlock(text); sig != "" {
		if loc, ok := e.scan(sig); ok {
			return loc, true
		}
	}
	if loc, ok := e.scan(text); ok {
		return loc, true
	}
	return fromSenderDomain(senderAddress)
}

// scan returns the match that starts earliest in the text, preferring the
// longer match and then table order on ties
func (e *Extractor) scan(text string) (string, bool) {
	plain := utils.StripDiacritics(text)
	folded := strings.ToLower(plain)
	bestStart, bestLen := -1, 0
	label := ""
	for _, p := range e.patterns {
		subject := folded
		if p.exact {
			subject = plain
		}
		loc := p.re.FindStringIndex(subject)
		if loc == nil {
			continue
		}
		start, length := loc[0], loc[1]-loc[0]
		if bestStart < 0 || start < bestStart || (start == bestStart && length > bestLen) {
			bestStart, bestLen, label = start, length, p.label
		}
	}
	return label, bestStart >= 0
}

// signatureBlock returns the lines after the last signature marker
func signatureBlock(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	last := -1
	for i, line := range lines {
		if isSignatureMarker(utils.Fold(strings.TrimSpace(line))) {
			last = i
		}
	}
	if last < 0 || last == len(lines)-1 {
		return ""
	}
	return strings.Join(lines[last+1:], "\n")
}

func isSignatureMarker(line string) bool {
	if line == "--" {
		return true
	}
	line = strings.TrimRight(line, ",.!: ")
	for _, m := range signatureMarkers {
		if line == m {
			return true
		}
	}
	return false
}

func fromSenderDomain(address string) (string, bool) {
	domain := utils.Domain(utils.ExtractAddress(address))
	if domain == "" {
		return "", false
	}
	tld := domain[strings.LastIndex(domain, ".")+1:]
	for _, c := range countryTLDs {
		if c.tld == tld {
			return c.country, true
		}
	}
	return "", false
}
