package executor

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/factstore/factstore"
)

// displayLimit caps how many rows FormatView renders before
// truncating, matching the Store/View truncated Display behavior.
const displayLimit = 20

// FormatView renders a View as a markdown table over the fixed
// four-column (e, a, v, t) shape, truncated the same way Store and
// View stringification truncates.
func FormatView(view factstore.View) string {
	if len(view.Datums) == 0 {
		return "_Empty view_"
	}

	var b strings.Builder
	table := tablewriter.NewTable(&b,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"e", "a", "v", "t"})

	n := len(view.Datums)
	shown := n
	if shown > displayLimit {
		shown = displayLimit
	}
	for _, d := range view.Datums[:shown] {
		table.Append([]string{
			fmt.Sprintf("%d", d.E),
			string(d.A),
			d.V,
			fmt.Sprintf("%d", d.T),
		})
	}
	table.Render()

	if n > shown {
		b.WriteString(fmt.Sprintf("\n_... %d more rows truncated_\n", n-shown))
	}
	b.WriteString(fmt.Sprintf("\n_%d rows_\n", n))
	return b.String()
}
