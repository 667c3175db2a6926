package enrichment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
	"github.com/mikey/rfq-workflow/internal/core"
)

// RecordDigest returns the canonical sha256 digest of the fields sent to the
// model, so identical requests share a cache entry
func RecordDigest(rec core.ExtractionRecord, model string) (string, error) {
	raw, err := json.Marshal(struct {
		Model         string   `json:"model"`
		SenderName    string   `json:"sender_name"`
		SenderAddress string   `json:"sender_address"`
		Timestamp     string   `json:"timestamp"`
		Subject       string   `json:"subject"`
		Body          string   `json:"body"`
		Location      string   `json:"location"`
		Attachments   []string `json:"attachments"`
	}{
		Model:         model,
		SenderName:    rec.SenderName,
		SenderAddress: rec.SenderAddress,
		Timestamp:     rec.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		Subject:       rec.Subject,
		Body:          rec.Body,
		Location:      rec.Location,
		Attachments:   rec.Attachments,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize record: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
