package console

import (
	"PcapSpectra/internal/engine/summary"
	"PcapSpectra/internal/model"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// NoPacketsMatched is printed instead of tables when nothing was aggregated.
const NoPacketsMatched = "No packets matched."

// PrintSummary writes one table per dimension listing at most top keys
// (all keys when top <= 0).
func PrintSummary(w io.Writer, rep *model.Report, top int) {
	fmt.Fprintf(w, "Frames: %d, accepted: %d, excluded: %d, not decodable: %d\n",
		rep.Stats.Frames, rep.Stats.Accepted, rep.Stats.Excluded, rep.Stats.Rejected)

	if rep.NoData {
		fmt.Fprintln(w, NoPacketsMatched)
		return
	}

	unit := rep.Mode.Unit()
	for _, dim := range rep.Dimensions {
		entries := dim.Summary
		fmt.Fprintf(w, "\n%s (%d keys, %d %s)\n", dim.Title, len(entries), summary.GrandTotal(entries), unit)
		if top > 0 && len(entries) > top {
			entries = entries[:top]
		}

		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Key", "Total " + unit, "Share"})
		table.SetAutoWrapText(false)
		table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
		for _, e := range entries {
			table.Append([]string{e.Key, strconv.FormatUint(e.Total, 10), summary.FormatPercent(e.Percent)})
		}
		table.Render()
	}
}
