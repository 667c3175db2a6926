package workflow

import (
	"fmt"
	"strings"

	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/ports"
)

// Summary renders the plain text run summary
func Summary(r *Report) string {
	st := r.State
	var b strings.Builder
	fmt.Fprintf(&b, "Run:       %s\n", st.RunID)
	fmt.Fprintf(&b, "Phase:     %s\n", st.Phase)
	fmt.Fprintf(&b, "Read:      %d items (%d outside the date range)\n", st.Stats.Total, st.Stats.FilteredByDate)
	fmt.Fprintf(&b, "Admitted:  %d\n", len(st.Admitted))
	fmt.Fprintf(&b, "Excluded:  %d\n", len(st.Excluded))
	fmt.Fprintf(&b, "Errors:    %d\n", len(st.ExtractionErrors))
	if loc := r.Outputs[ports.ChannelAdmitted]; loc != "" {
		fmt.Fprintf(&b, "Review:    %s\n", loc)
	}
	if st.Phase == core.PhaseCompleted {
		fmt.Fprintf(&b, "Enriched:  %d\n", len(st.Enriched))
		if loc := r.Outputs[ports.ChannelProcessed]; loc != "" {
			fmt.Fprintf(&b, "Processed: %s\n", loc)
		}
		if n := len(st.EnrichmentErrors); n > 0 {
			fmt.Fprintf(&b, "Enrichment errors: %d, see %s\n", n, r.Outputs.EnrichmentErrorsLocation())
		}
	}
	return b.String()
}
