package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/roach88/ventsim/internal/breath"
)

// panel is one stacked chart of the HTML page.
type panel struct {
	title   string
	columns []breath.Column
	yName   string
}

// panels mirrors the bedside layout: flow, volume, then pressures.
var panels = []panel{
	{title: "Flow", columns: []breath.Column{breath.ColumnFlow}, yName: "L/s"},
	{title: "Volume", columns: []breath.Column{breath.ColumnVolume}, yName: "L"},
	{title: "Pressure", columns: []breath.Column{breath.ColumnAirwayPressure, breath.ColumnLungPressure}, yName: "cm H2O"},
}

// RenderHTML writes a self-contained page with three stacked line charts.
func RenderHTML(w io.Writer, mt breath.MultiTrace, title string) error {
	x := make([]string, mt.Len())
	for i := range x {
		x[i] = strconv.FormatFloat(breath.RoundToGrid(mt.Time(i), mt.Step), 'f', -1, 64)
	}

	page := components.NewPage()
	page.PageTitle = title
	for i, p := range panels {
		page.AddCharts(newLineChart(mt, p, x, title, i == 0))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func newLineChart(mt breath.MultiTrace, p panel, x []string, title string, first bool) *charts.Line {
	line := charts.NewLine()

	t := opts.Title{Title: p.title}
	if first {
		t = opts.Title{Title: title, Subtitle: fmt.Sprintf("%s, %d breath(s)", mt.Timing, mt.Breaths)}
	}

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			BackgroundColor: "#ffffff",
			Width:           "100%",
			Height:          "320px",
			PageTitle:       title,
		}),
		charts.WithTitleOpts(t),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(len(p.columns) > 1),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithToolboxOpts(opts.Toolbox{
			Show: opts.Bool(true),
			Feature: &opts.ToolBoxFeature{
				SaveAsImage: &opts.ToolBoxFeatureSaveAsImage{
					Show:  opts.Bool(true),
					Type:  "png",
					Name:  "breath",
					Title: "Save as image",
				},
			},
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "s",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  p.yName,
			Type:  "value",
			Scale: opts.Bool(true),
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
	)

	line.SetXAxis(x)
	for _, c := range p.columns {
		line.AddSeries(string(c), lineData(mt.Column(c)),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
	}
	return line
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Value: v}
	}
	return data
}
