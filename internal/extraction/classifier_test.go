package extraction

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mikey/rfq-workflow/internal/core"
	"go.uber.org/zap/zaptest"
)

var testTime = time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)

func newTestClassifier(t *testing.T, cfg Config) *Classifier {
	t.Helper()
	return NewClassifier(cfg, nil, nil, zaptest.NewLogger(t))
}

func item(subject, body string) core.RawItem {
	return core.RawItem{
		ID:            "msg-1",
		SenderName:    "Ana Pérez",
		SenderAddress: "ana@aguas.com.mx",
		Timestamp:     testTime,
		Subject:       subject,
		Body:          body,
		To:            []string{"sales@example.com"},
		Attachments:   []string{"specs.pdf"},
	}
}

func TestClassifyCatalogRequestIsExcluded(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(t, Config{})

	rec := c.Classify(item("Catalog", "please send your catalog"))
	if rec.Outcome != core.OutcomeExcluded {
		t.Fatalf("outcome = %s, want excluded", rec.Outcome)
	}
	if rec.ExclusionReason != ReasonNoSignal {
		t.Fatalf("reason = %q, want %q", rec.ExclusionReason, ReasonNoSignal)
	}
	if rec.ErrorDetail != "" {
		t.Fatalf("excluded record must not carry an error detail: %q", rec.ErrorDetail)
	}
}

func TestClassifyOutcomes(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(t, Config{ExcludedSenderDomains: []string{"mailchimp.com"}})

	tests := []struct {
		name       string
		item       core.RawItem
		want       core.Outcome
		wantReason string
		wantDetail string
	}{
		{
			name: "spanish quotation request",
			item: item("Solicitud de cotización", "Buenos días, necesitamos precio para 2 bombas dosificadoras."),
			want: core.OutcomeAdmitted,
		},
		{
			name: "question heuristic in subject",
			item: item("Do you ship to Chile?", "Thanks"),
			want: core.OutcomeAdmitted,
		},
		{
			name: "question heuristic in body",
			item: item("Hello", "Do you stock blowers? Which models?"),
			want: core.OutcomeAdmitted,
		},
		{
			name:       "single question in body is not enough",
			item:       item("Hello", "Is this the sales desk?"),
			want:       core.OutcomeExcluded,
			wantReason: ReasonNoSignal,
		},
		{
			name:       "auto reply wins over rfq keyword",
			item:       item("Automatic reply: RFQ 2291", "I am out of office until Monday."),
			want:       core.OutcomeExcluded,
			wantReason: "auto-reply or notification (keyword: out of office)",
		},
		{
			name:       "empty message",
			item:       item("  ", "\n\t"),
			want:       core.OutcomeExcluded,
			wantReason: "empty message",
		},
		{
			name: "excluded sender domain",
			item: func() core.RawItem {
				it := item("Price list", "new prices")
				it.SenderAddress = "news@mailchimp.com"
				return it
			}(),
			want:       core.OutcomeExcluded,
			wantReason: "excluded sender domain (mailchimp.com)",
		},
		{
			name: "unparsable timestamp",
			item: func() core.RawItem {
				it := item("RFQ", "need a quote")
				it.Timestamp = time.Time{}
				it.RawDate = "yesterday-ish"
				return it
			}(),
			want:       core.OutcomeErrored,
			wantDetail: `timestamp: unparsable timestamp "yesterday-ish"`,
		},
		{
			name:       "unreadable body encoding",
			item:       item("RFQ", "need a quote \xff\xfe"),
			want:       core.OutcomeErrored,
			wantDetail: "body: unreadable body encoding",
		},
		{
			name: "malformed non-request is excluded not errored",
			item: func() core.RawItem {
				it := item("Newsletter", "our monthly newsletter \xff")
				it.Timestamp = time.Time{}
				return it
			}(),
			want:       core.OutcomeExcluded,
			wantReason: "auto-reply or notification (keyword: newsletter)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.Classify(tt.item)
			if rec.Outcome != tt.want {
				t.Fatalf("outcome = %s, want %s (reason %q, detail %q)", rec.Outcome, tt.want, rec.ExclusionReason, rec.ErrorDetail)
			}
			if rec.ExclusionReason != tt.wantReason {
				t.Errorf("reason = %q, want %q", rec.ExclusionReason, tt.wantReason)
			}
			if rec.ErrorDetail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", rec.ErrorDetail, tt.wantDetail)
			}
		})
	}
}

func TestClassifyAdmittedFields(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(t, Config{MaxBodyLength: 200})

	in := item("  RFQ   for   blowers ", "Hello,\n\nWe need a   quotation for 3 blowers.\n\nSaludos,\nAna\nBogotá\n\nOn Mon, Bob <bob@example.com> wrote:\n> old thread mentioning Madrid")
	rec := c.Classify(in)
	if rec.Outcome != core.OutcomeAdmitted {
		t.Fatalf("outcome = %s (%s)", rec.Outcome, rec.ExclusionReason)
	}

	want := core.ExtractionRecord{
		RawItem: core.RawItem{
			ID:            in.ID,
			SenderName:    in.SenderName,
			SenderAddress: in.SenderAddress,
			Timestamp:     in.Timestamp,
			Subject:       "RFQ for blowers",
			Body:          "Hello, We need a quotation for 3 blowers. Saludos, Ana Bogotá",
			To:            in.To,
			Attachments:   []string{"specs.pdf"},
		},
		Location: "Bogotá, Colombia",
		Outcome:  core.OutcomeAdmitted,
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyTruncatesBody(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(t, Config{MaxBodyLength: 20})

	rec := c.Classify(item("RFQ", "quote "+strings.Repeat("x", 100)))
	if !strings.HasSuffix(rec.Body, "... [truncated]") {
		t.Fatalf("body not truncated: %q", rec.Body)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(t, Config{})
	in := item("Cotización urgente", "Necesito presupuesto.\n--\nPlanta Lima, Perú")

	first := c.Classify(in)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, c.Classify(in)); diff != "" {
			t.Fatalf("run %d differs:\n%s", i, diff)
		}
	}
}
