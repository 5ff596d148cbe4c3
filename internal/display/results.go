// Package display renders selection results for the terminal.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/ramonehamilton/commander-companion/internal/deck"
)

// ResultsDisplayer writes categorized recommendations in a readable format.
type ResultsDisplayer struct {
	out io.Writer
}

// NewResultsDisplayer creates a displayer writing to out.
func NewResultsDisplayer(out io.Writer) *ResultsDisplayer {
	return &ResultsDisplayer{out: out}
}

// DisplayResult renders the full recommendation set for a commander.
func (d *ResultsDisplayer) DisplayResult(commanderName, strategy string, result deck.Result) {
	fmt.Fprintf(d.out, "\n")
	fmt.Fprintf(d.out, "Recommendations for %s\n", commanderName)
	fmt.Fprintf(d.out, "Strategy: %s\n", strategy)
	fmt.Fprintf(d.out, "%s\n", strings.Repeat("=", 50))

	if result.IsEmpty() {
		fmt.Fprintf(d.out, "\nNo cards matched this strategy. Try a different commander\n")
		fmt.Fprintf(d.out, "or refresh the catalog with -refresh-catalog.\n")
		return
	}

	d.displayBucket("Already in your collection", result.Owned)
	d.displayBucket("Affordable pickups", result.MissingAffordable)
	d.displayBucket("Premium upgrades", result.MissingPremium)
}

// DisplayNoStrategy explains that selection was skipped entirely. This is
// distinct from an empty result: no strategy command was produced, so the
// engine never ran.
func (d *ResultsDisplayer) DisplayNoStrategy(commanderName string, err error) {
	fmt.Fprintf(d.out, "\n")
	fmt.Fprintf(d.out, "No strategy could be determined for %s; selection skipped.\n", commanderName)
	if err != nil {
		fmt.Fprintf(d.out, "Reason: %v\n", err)
	}
	fmt.Fprintf(d.out, "Check that Ollama is running and the model is pulled.\n")
}

// displayBucket renders one bucket section with rank numbering.
func (d *ResultsDisplayer) displayBucket(title string, names []string) {
	fmt.Fprintf(d.out, "\n%s (%d)\n", title, len(names))
	fmt.Fprintf(d.out, "%s\n", strings.Repeat("-", len(title)+4))

	if len(names) == 0 {
		fmt.Fprintf(d.out, "  (none)\n")
		return
	}

	for i, name := range names {
		fmt.Fprintf(d.out, "  %2d. %s\n", i+1, name)
	}
}
