package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/doublets/internal/doublet"
	"github.com/banshee-data/doublets/internal/geometry"
)

// MaxPlotSegments caps the number of doublet segments drawn by PlotRZ.
const MaxPlotSegments = 2000

var (
	hitColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	doubletColor = color.RGBA{R: 214, G: 39, B: 40, A: 90}
	layerColor   = color.RGBA{R: 127, G: 127, B: 127, A: 160}
)

// NewRZPlot draws the hits of ev in the r-z plane, the sensitive envelope
// of every layer, and up to MaxPlotSegments doublets as segments.
func NewRZPlot(ev *doublet.Event, ds []doublet.Doublet) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Doublets (%d hits, %d doublets)", len(ev.Hits), len(ds))
	p.X.Label.Text = "z (mm)"
	p.Y.Label.Text = "r (mm)"

	for _, b := range ev.Table.Layers() {
		env, err := plotter.NewLine(plotter.XYs{{X: b.ZMin, Y: b.R}, {X: b.ZMax, Y: b.R}})
		if err != nil {
			return nil, fmt.Errorf("layer %d envelope: %w", b.Layer, err)
		}
		env.Color = layerColor
		env.Width = vg.Points(0.5)
		env.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(env)
	}

	byID := make(map[int64]geometry.Hit, len(ev.Hits))
	pts := make(plotter.XYs, len(ev.Hits))
	for i, h := range ev.Hits {
		byID[h.ID] = h
		pts[i] = plotter.XY{X: h.Z, Y: h.R}
	}

	for i, d := range ds {
		if i == MaxPlotSegments {
			break
		}
		in, out := byID[d.Inner], byID[d.Outer]
		seg, err := plotter.NewLine(plotter.XYs{{X: in.Z, Y: in.R}, {X: out.Z, Y: out.R}})
		if err != nil {
			return nil, fmt.Errorf("doublet (%d, %d): %w", d.Inner, d.Outer, err)
		}
		seg.Color = doubletColor
		seg.Width = vg.Points(0.5)
		p.Add(seg)
	}

	if len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("hits: %w", err)
		}
		sc.GlyphStyle.Color = hitColor
		sc.GlyphStyle.Radius = vg.Points(1.2)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add("hits", sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Add(plotter.NewGrid())
	return p, nil
}

// PlotRZ renders NewRZPlot to a PNG file at path.
func PlotRZ(ev *doublet.Event, ds []doublet.Doublet, path string) error {
	p, err := NewRZPlot(ev, ds)
	if err != nil {
		return err
	}
	if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
