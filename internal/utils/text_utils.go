package utils

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TruncationMarker is appended to text cut at the length limit
const TruncationMarker = "... [truncated]"

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	addressRe    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// Lines that open a quoted previous message; everything from here on is dropped
	replyHeaderRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^-{2,}\s*(original message|mensaje original|forwarded message|mensaje reenviado)\s*-{2,}$`),
		regexp.MustCompile(`(?i)^on .+ wrote:$`),
		regexp.MustCompile(`(?i)^el .+ escribi[oó]:$`),
		regexp.MustCompile(`(?i)^(from|de):\s.+@.+$`),
	}
)

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText safely truncates text to the specified maximum number of characters
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || utf8.RuneCountInString(text) <= maxSize {
		return text
	}

	runes := []rune(text)
	truncated := string(runes[:maxSize])

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(runes)),
		zap.Int("max_size", maxSize))

	return truncated + TruncationMarker
}

// SanitizeUTF8 drops invalid UTF-8 sequences
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// NormalizeWhitespace collapses runs of whitespace into single spaces
func (tp *TextProcessor) NormalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// StripQuotedReply removes quoted lines and everything after a reply header
func (tp *TextProcessor) StripQuotedReply(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isReplyHeader(trimmed) {
			break
		}
		if strings.HasPrefix(trimmed, ">") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimRight(strings.Join(kept, "\n"), " \t\n")
}

func isReplyHeader(line string) bool {
	for _, re := range replyHeaderRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// CleanBody strips quoted replies, normalizes whitespace and truncates. It
// also returns the stripped text before normalization.
func (tp *TextProcessor) CleanBody(text string, maxSize int) (cleaned, stripped string) {
	stripped = tp.StripQuotedReply(text)
	return tp.TruncateText(tp.NormalizeWhitespace(stripped), maxSize), stripped
}

// Fold lowercases text and removes diacritics so that "Cotización" matches "cotizacion"
func Fold(text string) string {
	return strings.ToLower(StripDiacritics(text))
}

// StripDiacritics removes combining marks and keeps the letter case
func StripDiacritics(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return stripped
}

// ExtractAddress returns the bare mail address from a header value such as "Name <a@b.com>"
func ExtractAddress(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(value); err == nil {
		return strings.ToLower(addr.Address)
	}
	if m := addressRe.FindString(value); m != "" {
		return strings.ToLower(m)
	}
	return ""
}

// Domain returns the lowercased domain part of an address
func Domain(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(address[at+1:]))
}
