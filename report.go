package cachesim

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteReport renders the final textual report to w: overall execution
// cycles; per-core {execution, compute, load, store, idle, hits, misses};
// bus {invalidations_or_updates, traffic_bytes}; protocol
// {private_accesses, shared_accesses}.
//
// Plain aligned text, not structured (JSON/YAML) output: a one-shot CLI
// summary, not a machine-consumed document, and nothing in the pack
// offers a richer plain-text table layout than the standard library's
// text/tabwriter already does (see DESIGN.md).
func WriteReport(w io.Writer, rep Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Overall execution cycles:\t%d\n", rep.OverallCycles)
	fmt.Fprintln(tw)

	for i, c := range rep.Cores {
		fmt.Fprintf(tw, "Core %d\t\n", i)
		fmt.Fprintf(tw, "  execution cycles:\t%d\n", c.ExecutionCycles())
		fmt.Fprintf(tw, "  compute cycles:\t%d\n", c.ComputeCycles)
		fmt.Fprintf(tw, "  idle cycles:\t%d\n", c.IdleCycles)
		fmt.Fprintf(tw, "  load instructions:\t%d\n", c.LoadInstrs)
		fmt.Fprintf(tw, "  store instructions:\t%d\n", c.StoreInstrs)
		fmt.Fprintf(tw, "  cache hits:\t%d\n", c.CacheHits)
		fmt.Fprintf(tw, "  cache misses:\t%d\n", c.CacheMisses)
	}

	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Bus\t\n")
	fmt.Fprintf(tw, "  invalidations/updates:\t%d\n", rep.Bus.InvalidationsOrUpdates)
	fmt.Fprintf(tw, "  traffic bytes:\t%d\n", rep.Bus.TrafficBytes)

	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Protocol\t\n")
	fmt.Fprintf(tw, "  private accesses:\t%d\n", rep.Protocol.PrivateAccesses)
	fmt.Fprintf(tw, "  shared accesses:\t%d\n", rep.Protocol.SharedAccesses)

	return tw.Flush()
}
