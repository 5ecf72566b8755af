package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/occlusion.sim/internal/occlusion"
)

const birdsEyeSize = 8 * vg.Inch

// birdsEye draws the input cloud in grey under the surviving output points.
func birdsEye(before, after occlusion.PointCloud, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X forward (m)"
	p.Y.Label.Text = "Y left (m)"
	p.Add(plotter.NewGrid())

	layers := []struct {
		name  string
		cloud occlusion.PointCloud
		color color.Color
	}{
		{"input", before, color.RGBA{R: 190, G: 190, B: 190, A: 255}},
		{"output", after, color.RGBA{R: 31, G: 119, B: 180, A: 255}},
	}
	for _, l := range layers {
		if l.cloud.Len() == 0 {
			continue
		}
		pts := make(plotter.XYs, 0, l.cloud.Len())
		for _, pt := range l.cloud.Points {
			pts = append(pts, plotter.XY{X: pt.X, Y: pt.Y})
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("scatter %s: %w", l.name, err)
		}
		s.GlyphStyle.Color = l.color
		s.GlyphStyle.Radius = vg.Points(1)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("%s (%d)", l.name, l.cloud.Len()), s)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// PlotBirdsEye saves a bird's-eye PNG of before and after to path.
func PlotBirdsEye(before, after occlusion.PointCloud, title, path string) error {
	p, err := birdsEye(before, after, title)
	if err != nil {
		return err
	}
	if err := p.Save(birdsEyeSize, birdsEyeSize, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}

// WriteBirdsEye writes the bird's-eye PNG to w.
func WriteBirdsEye(w io.Writer, before, after occlusion.PointCloud, title string) error {
	p, err := birdsEye(before, after, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(birdsEyeSize, birdsEyeSize, "png")
	if err != nil {
		return fmt.Errorf("plot writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}
