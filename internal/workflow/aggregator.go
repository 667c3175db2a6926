package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/ports"
	"go.uber.org/zap"
)

// Outputs maps each written channel to its location
type Outputs map[ports.Channel]string

var (
	recordColumns = []string{
		"index", "id", "timestamp", "sender_name", "sender_address", "to", "cc",
		"subject", "body", "attachments", "location", "outcome", "exclusion_reason", "error_detail",
	}
	errorColumns     = append(append([]string(nil), recordColumns...), "stage", "kind", "attempts")
	processedColumns = append(append([]string(nil), recordColumns...),
		"company_name", "company_website", "company_country", "email_category", "product_category",
		"equipment_requested", "technical_specifications", "subject_body_consistent", "correlation_note",
		"model", "attempts", "from_cache", "enriched_at")
)

// Aggregator writes each record set of a run to its output channel
type Aggregator struct {
	sink        ports.Sink
	mergeErrors bool
	logger      *zap.Logger
}

// NewAggregator creates a new result aggregator. With mergeErrors set, enrichment
// failures are appended to the extraction errors channel.
func NewAggregator(sink ports.Sink, mergeErrors bool, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{sink: sink, mergeErrors: mergeErrors, logger: logger}
}

// Finalize persists the record sets the run has reached. Enrichment channels
// are written only for completed runs.
func (a *Aggregator) Finalize(ctx context.Context, st *core.WorkflowState) (Outputs, error) {
	type output struct {
		channel ports.Channel
		table   ports.Table
	}
	tables := []output{
		{ports.ChannelAdmitted, recordTable(st.Admitted)},
		{ports.ChannelExcluded, recordTable(st.Excluded)},
	}

	errs := errorTable(st.ExtractionErrors, nil)
	if st.Phase == core.PhaseCompleted {
		if a.mergeErrors {
			errs = errorTable(st.ExtractionErrors, st.EnrichmentErrors)
		} else {
			tables = append(tables, output{ports.ChannelEnrichmentErrors, errorTable(nil, st.EnrichmentErrors)})
		}
		tables = append(tables, output{ports.ChannelProcessed, processedTable(st.Enriched)})
	}
	tables = append(tables, output{ports.ChannelErrors, errs})

	out := Outputs{}
	for _, t := range tables {
		loc, err := a.sink.Write(ctx, t.channel, t.table)
		if err != nil {
			return out, fmt.Errorf("failed to write %s records: %w", t.channel, err)
		}
		out[t.channel] = loc
		a.logger.Debug("Wrote record set",
			zap.String("channel", string(t.channel)),
			zap.Int("rows", len(t.table.Rows)),
			zap.String("location", loc))
	}
	return out, nil
}

// EnrichmentErrorsLocation returns where enrichment failures were written
func (o Outputs) EnrichmentErrorsLocation() string {
	if loc, ok := o[ports.ChannelEnrichmentErrors]; ok {
		return loc
	}
	return o[ports.ChannelErrors]
}

func recordTable(recs []core.ExtractionRecord) ports.Table {
	t := ports.Table{Columns: recordColumns, Rows: make([][]string, 0, len(recs))}
	for _, r := range recs {
		t.Rows = append(t.Rows, recordRow(r))
	}
	return t
}

func errorTable(extraction []core.ExtractionRecord, enrichment []core.EnrichmentFailure) ports.Table {
	t := ports.Table{Columns: errorColumns, Rows: make([][]string, 0, len(extraction)+len(enrichment))}
	for _, r := range extraction {
		t.Rows = append(t.Rows, append(recordRow(r), "extraction", "", ""))
	}
	for _, f := range enrichment {
		row := recordRow(f.ExtractionRecord)
		row[len(row)-1] = f.Detail
		t.Rows = append(t.Rows, append(row, "enrichment", string(f.Kind), strconv.Itoa(f.Attempts)))
	}
	return t
}

func processedTable(recs []core.EnrichmentRecord) ports.Table {
	t := ports.Table{Columns: processedColumns, Rows: make([][]string, 0, len(recs))}
	for _, r := range recs {
		t.Rows = append(t.Rows, append(recordRow(r.ExtractionRecord),
			r.CompanyName,
			r.CompanyWebsite,
			r.CompanyCountry,
			string(r.EmailCategory),
			r.ProductCategory,
			r.EquipmentRequested,
			r.TechnicalSpecifications,
			strconv.FormatBool(r.SubjectBodyConsistent),
			r.CorrelationNote,
			r.Model,
			strconv.Itoa(r.Attempts),
			strconv.FormatBool(r.FromCache),
			formatTime(r.EnrichedAt),
		))
	}
	return t
}

func recordRow(r core.ExtractionRecord) []string {
	return []string{
		strconv.Itoa(r.Index),
		r.ID,
		formatTime(r.Timestamp),
		r.SenderName,
		r.SenderAddress,
		strings.Join(r.To, "; "),
		strings.Join(r.Cc, "; "),
		r.Subject,
		r.Body,
		strings.Join(r.Attachments, "; "),
		r.Location,
		string(r.Outcome),
		r.ExclusionReason,
		r.ErrorDetail,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
