package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/occlusion.sim/internal/occlusion"
)

// maxScatterPoints bounds the points embedded in the HTML page.
const maxScatterPoints = 20000

// WriteHTML renders a page with per-sensor and per-region bar charts and
// an XY scatter of the output cloud.
func WriteHTML(w io.Writer, before, after occlusion.PointCloud, title string) error {
	cmp := Compare(before, after)

	sensors := make([]string, 0, len(cmp.Sensors))
	in := make([]opts.BarData, 0, len(cmp.Sensors))
	out := make([]opts.BarData, 0, len(cmp.Sensors))
	for _, s := range cmp.Sensors {
		sensors = append(sensors, string(s.Sensor))
		in = append(in, opts.BarData{Value: s.Before})
		out = append(out, opts.BarData{Value: s.After})
	}
	sensorBar := charts.NewBar()
	sensorBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Points per sensor", Subtitle: fmt.Sprintf("%d -> %d (%.1f%% retained)", cmp.Before.Points, cmp.After.Points, 100*cmp.Retained)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	sensorBar.SetXAxis(sensors).
		AddSeries("input", in, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})).
		AddSeries("output", out, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	regions := make([]string, 0, len(occlusion.Regions))
	rin := make([]opts.BarData, 0, len(occlusion.Regions))
	rout := make([]opts.BarData, 0, len(occlusion.Regions))
	for _, r := range occlusion.Regions {
		regions = append(regions, string(r))
		rin = append(rin, opts.BarData{Value: cmp.Before.ByRegion[r]})
		rout = append(rout, opts.BarData{Value: cmp.After.ByRegion[r]})
	}
	regionBar := charts.NewBar()
	regionBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Points per region", Subtitle: "90 degree sectors"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	regionBar.SetXAxis(regions).
		AddSeries("input", rin).
		AddSeries("output", rout)

	stride := 1
	if after.Len() > maxScatterPoints {
		stride = (after.Len() + maxScatterPoints - 1) / maxScatterPoints
	}
	pad := 1.0
	pts := make([]opts.ScatterData, 0, after.Len()/stride+1)
	for i := 0; i < after.Len(); i += stride {
		p := after.Points[i]
		pad = math.Max(pad, math.Max(math.Abs(p.X), math.Abs(p.Y)))
		pts = append(pts, opts.ScatterData{Value: []interface{}{p.X, p.Y, string(p.Sensor)}})
	}
	pad = math.Ceil(pad)
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Output cloud (bird's-eye)", Subtitle: fmt.Sprintf("points=%d stride=%d", len(pts), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("output", pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	page := components.NewPage()
	page.AddCharts(sensorBar, regionBar, scatter)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
