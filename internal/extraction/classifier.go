// Package extraction triages mail items into admitted, excluded and errored records.
package extraction

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/location"
	"github.com/mikey/rfq-workflow/internal/senderlist"
	"github.com/mikey/rfq-workflow/internal/utils"
	"go.uber.org/zap"
)

// ReasonNoSignal is the exclusion reason when nothing looks like a request
const ReasonNoSignal = "no RFQ keywords or indicators found"

// Config holds the classifier settings
type Config struct {
	MaxBodyLength         int
	RFQKeywords           []string
	ExclusionKeywords     []string
	ExcludedSenderDomains []string
}

// Classifier maps a raw item to exactly one outcome. It never fails; faults are
// reported as errored records.
type Classifier struct {
	maxBody    int
	rfq        []keyword
	exclusions []keyword
	senders    *senderlist.Checker
	locator    *location.Extractor
	text       *utils.TextProcessor
	logger     *zap.Logger
}

// NewClassifier creates a new classifier. Empty keyword lists fall back to the defaults.
func NewClassifier(cfg Config, locator *location.Extractor, text *utils.TextProcessor, logger *zap.Logger) *Classifier {
	rfq := cfg.RFQKeywords
	if len(rfq) == 0 {
		rfq = DefaultRFQKeywords
	}
	exclusions := cfg.ExclusionKeywords
	if len(exclusions) == 0 {
		exclusions = DefaultExclusionKeywords
	}
	if locator == nil {
		locator = location.NewExtractor()
	}
	if text == nil {
		text = utils.NewTextProcessor(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		maxBody:    cfg.MaxBodyLength,
		rfq:        compileKeywords(rfq),
		exclusions: compileKeywords(exclusions),
		senders:    senderlist.NewChecker(cfg.ExcludedSenderDomains, logger),
		locator:    locator,
		text:       text,
		logger:     logger,
	}
}

// Classify returns the extraction record for one item. Exclusion signals are
// checked before any field extraction, so a malformed non-request is Excluded.
func (c *Classifier) Classify(item core.RawItem) (rec core.ExtractionRecord) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered from classifier panic",
				zap.String("id", item.ID),
				zap.Any("panic", r))
			rec = errored(item, &core.ClassificationFault{Stage: "classify", Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	if reason, excluded := c.exclusionReason(item); excluded {
		c.logger.Debug("Item excluded",
			zap.String("id", item.ID),
			zap.String("reason", reason))
		return core.ExtractionRecord{RawItem: item, Outcome: core.OutcomeExcluded, ExclusionReason: reason}
	}

	rec = core.ExtractionRecord{RawItem: item}
	if err := c.extract(&rec); err != nil {
		c.logger.Debug("Item errored",
			zap.String("id", item.ID),
			zap.Error(err))
		return errored(item, err)
	}
	rec.Outcome = core.OutcomeAdmitted
	return rec
}

func errored(item core.RawItem, err error) core.ExtractionRecord {
	return core.ExtractionRecord{
		RawItem:     item,
		Outcome:     core.OutcomeErrored,
		ErrorDetail: core.RedactSecrets(err.Error()),
	}
}

// exclusionReason runs the cheap signal tests on the raw item
func (c *Classifier) exclusionReason(item core.RawItem) (string, bool) {
	subject := c.text.SanitizeUTF8(item.Subject)
	body := c.text.SanitizeUTF8(item.Body)
	if strings.TrimSpace(subject) == "" && strings.TrimSpace(body) == "" && item.BodyFault == "" {
		return "empty message", true
	}

	if reason, excluded := c.senders.Excluded(utils.ExtractAddress(item.SenderAddress)); excluded {
		return reason, true
	}

	folded := utils.Fold(subject + "\n" + body)
	if word, found := firstMatch(c.exclusions, folded); found {
		return fmt.Sprintf("auto-reply or notification (keyword: %s)", word), true
	}

	if _, found := firstMatch(c.rfq, folded); found {
		return "", false
	}
	if strings.Contains(subject, "?") || strings.Count(body, "?") >= 2 {
		return "", false
	}
	return ReasonNoSignal, true
}

// extract validates and cleans the fields of an item that passed the signal test
func (c *Classifier) extract(rec *core.ExtractionRecord) error {
	if rec.Timestamp.IsZero() {
		return &core.ClassificationFault{Stage: "timestamp", Err: fmt.Errorf("unparsable timestamp %q", rec.RawDate)}
	}
	if !utf8.ValidString(rec.Subject) {
		return &core.ClassificationFault{Stage: "subject", Err: errors.New("unreadable subject encoding")}
	}
	if rec.BodyFault != "" {
		return &core.ClassificationFault{Stage: "body", Err: errors.New(rec.BodyFault)}
	}
	if !utf8.ValidString(rec.Body) {
		return &core.ClassificationFault{Stage: "body", Err: errors.New("unreadable body encoding")}
	}
	if utils.ExtractAddress(rec.SenderAddress) == "" {
		return &core.ClassificationFault{Stage: "sender", Err: fmt.Errorf("no sender address in %q", rec.SenderAddress)}
	}

	body, stripped := c.text.CleanBody(rec.Body, c.maxBody)
	rec.Subject = c.text.NormalizeWhitespace(rec.Subject)
	rec.Body = body
	if loc, ok := c.locator.Extract(stripped, rec.SenderAddress); ok {
		rec.Location = loc
	}
	return nil
}
