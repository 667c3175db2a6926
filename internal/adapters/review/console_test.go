package review

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/ports"
	"go.uber.org/zap"
)

var summary = ports.ReviewSummary{
	RunID: "run-1",
	Stats: core.ExtractionStats{Total: 12, FilteredByDate: 2, Admitted: 5, Excluded: 4, Errored: 1},
	Locations: map[ports.Channel]string{
		ports.ChannelAdmitted: "outputs/emails.csv",
		ports.ChannelExcluded: "outputs/emails_excluded.csv",
	},
}

func TestConsoleDeciderReadsAnswer(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"yes\n", "yes"},
		{"  Y  \n", "Y"},
		{"no\n", "no"},
		{"y", "y"},
		{"", ""},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		d := NewConsoleDecider(strings.NewReader(tt.input), &out, zap.NewNop())
		got, err := d.Decide(context.Background(), summary)
		if err != nil {
			t.Fatalf("input %q: unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("input %q: expected %q, got %q", tt.input, tt.want, got)
		}
		for _, s := range []string{"outputs/emails.csv", "Admitted", "[y/N]"} {
			if !strings.Contains(out.String(), s) {
				t.Errorf("prompt is missing %q:\n%s", s, out.String())
			}
		}
	}
}

func TestConsoleDeciderHonoursCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewConsoleDecider(pr, io.Discard, zap.NewNop())
	if _, err := d.Decide(ctx, summary); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestConsoleDeciderAnswersAfterCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	d := NewConsoleDecider(pr, io.Discard, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Decide(ctx, summary); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	go func() {
		_, _ = io.WriteString(pw, "yes\n")
	}()
	got, err := d.Decide(context.Background(), summary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "yes" {
		t.Errorf("expected %q, got %q", "yes", got)
	}
}

func TestConsoleReporter(t *testing.T) {
	var out bytes.Buffer
	NewConsoleReporter(&out).Progress(summary.Stats)
	if !strings.Contains(out.String(), "Processed 12 items: 5 admitted, 4 excluded, 1 errored") {
		t.Errorf("unexpected progress line %q", out.String())
	}
}
