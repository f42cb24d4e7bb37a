package export

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/roach88/ventsim/internal/breath"
)

// Plot renders one column of mt as an ASCII line chart.
// Width and height below the minimums are raised to them.
func Plot(mt breath.MultiTrace, c breath.Column, width, height int) string {
	if mt.Len() == 0 {
		return "no samples"
	}

	width = max(width, 20)
	height = max(height, 5)

	return asciigraph.Plot(mt.Column(c),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s (%s) over %d breath(s)", c, c.Unit(), mt.Breaths)),
	)
}
