package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/ports"
	"go.uber.org/zap"
)

type answer struct {
	line string
	err  error
}

// ConsoleDecider asks the reviewer on a terminal whether to continue
type ConsoleDecider struct {
	in     *bufio.Reader
	out    io.Writer
	logger *zap.Logger

	// answers is fed by a single reader goroutine started on the first Decide
	start   sync.Once
	answers chan answer
}

// NewConsoleDecider creates a new console decider
func NewConsoleDecider(in io.Reader, out io.Writer, logger *zap.Logger) *ConsoleDecider {
	return &ConsoleDecider{
		in:      bufio.NewReader(in),
		out:     out,
		logger:  logger,
		answers: make(chan answer),
	}
}

func (d *ConsoleDecider) readLines() {
	for {
		line, err := d.in.ReadString('\n')
		d.answers <- answer{line, err}
		if err != nil {
			close(d.answers)
			return
		}
	}
}

// Decide prints the extraction summary and reads one line. End of input
// yields an empty answer.
func (d *ConsoleDecider) Decide(ctx context.Context, summary ports.ReviewSummary) (string, error) {
	fmt.Fprintln(d.out, RenderSummary(summary))
	fmt.Fprintf(d.out, "Continue with enrichment of %s records? [y/N]: ",
		countStyle.Render(fmt.Sprint(summary.Stats.Admitted)))

	d.start.Do(func() { go d.readLines() })

	select {
	case <-ctx.Done():
		fmt.Fprintln(d.out)
		return "", ctx.Err()
	case a, ok := <-d.answers:
		if !ok {
			return "", nil
		}
		if a.err != nil && a.err != io.EOF {
			return "", fmt.Errorf("failed to read review answer: %w", a.err)
		}
		response := strings.TrimSpace(a.line)
		d.logger.Debug("Review answer received", zap.String("answer", response))
		return response, nil
	}
}

// RenderSummary formats the checkpoint summary box
func RenderSummary(summary ports.ReviewSummary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Extraction complete"))
	b.WriteString("\n")
	if summary.RunID != "" {
		b.WriteString(infoStyle.Render("Run " + summary.RunID))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(statsBlock(summary.Stats))

	if len(summary.Locations) > 0 {
		b.WriteString("\n\n")
		b.WriteString(titleStyle.Render("Review files"))
		channels := make([]string, 0, len(summary.Locations))
		for c := range summary.Locations {
			channels = append(channels, string(c))
		}
		sort.Strings(channels)
		for _, c := range channels {
			fmt.Fprintf(&b, "\n  %-10s %s", c, summary.Locations[ports.Channel(c)])
		}
	}
	return boxStyle.Render(b.String())
}

func statsBlock(s core.ExtractionStats) string {
	lines := []string{
		fmt.Sprintf("Items read:        %d", s.Total),
		fmt.Sprintf("Filtered by date:  %d", s.FilteredByDate),
		fmt.Sprintf("Admitted:          %s", countStyle.Render(fmt.Sprint(s.Admitted))),
		fmt.Sprintf("Excluded:          %d", s.Excluded),
	}
	errored := fmt.Sprintf("Errored:           %d", s.Errored)
	if s.Errored > 0 {
		errored = warnStyle.Render(errored)
	}
	return strings.Join(append(lines, errored), "\n")
}

// ConsoleReporter prints extraction progress lines
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new console progress reporter
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// Progress prints the running counts
func (r *ConsoleReporter) Progress(stats core.ExtractionStats) {
	fmt.Fprintln(r.out, infoStyle.Render(fmt.Sprintf(
		"Processed %d items: %d admitted, %d excluded, %d errored",
		stats.Total, stats.Admitted, stats.Excluded, stats.Errored)))
}
