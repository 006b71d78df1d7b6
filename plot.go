/*
Copyright © 2025 the DRP authors.
This file is part of DRP.

DRP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

DRP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with DRP.  If not, see <http://www.gnu.org/licenses/>.
*/

package drp

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sort"

	"github.com/ctessum/plotextra"
	"github.com/rockphysics/drp/rockphysics"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// PlotStyle collects the appearance settings the plot functions take.
// Passing the style explicitly keeps rendering free of package-level
// state, so concurrent plots cannot interfere.
type PlotStyle struct {
	Width, Height vg.Length
	Dark          bool   // dark background with light axes
	Colormap      string // "blackbody" (default), "kindlmann", or "bluered"
	LineWidth     vg.Length
	MarkerSize    vg.Length
	LegendTop     bool
	LegendLeft    bool
}

// DefaultStyle returns the baseline plot appearance.
func DefaultStyle() PlotStyle {
	return PlotStyle{
		Width:      6 * vg.Inch,
		Height:     4 * vg.Inch,
		Colormap:   "blackbody",
		LineWidth:  vg.Points(1),
		MarkerSize: vg.Points(2),
	}
}

func applyStyle(p *plot.Plot, style PlotStyle) {
	p.Legend.Top = style.LegendTop
	p.Legend.Left = style.LegendLeft
	if !style.Dark {
		return
	}
	p.BackgroundColor = color.Black
	white := color.White
	p.Title.TextStyle.Color = white
	p.Legend.TextStyle.Color = white
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.LineStyle.Color = white
		ax.Label.TextStyle.Color = white
		ax.Tick.LineStyle.Color = white
		ax.Tick.Label.Color = white
	}
}

func colorMapFor(style PlotStyle) (palette.ColorMap, error) {
	switch style.Colormap {
	case "", "blackbody":
		return moreland.ExtendedBlackBody(), nil
	case "kindlmann":
		return moreland.ExtendedKindlmann(), nil
	case "bluered":
		return moreland.SmoothBlueRed(), nil
	}
	return nil, fmt.Errorf("drp: unknown colormap %q; use blackbody, kindlmann, or bluered", style.Colormap)
}

// addCurve adds one line-with-markers series to p, cycling through the
// plotutil colors, dashes and glyph shapes.
func addCurve(p *plot.Plot, i int, name string, xys plotter.XYs, style PlotStyle) error {
	l, s, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("drp: plotting %s: %v", name, err)
	}
	l.Color = plotutil.Color(i)
	l.Dashes = plotutil.Dashes(i)
	l.Width = style.LineWidth
	s.Color = plotutil.Color(i)
	s.Shape = plotutil.Shape(i)
	s.Radius = style.MarkerSize
	p.Add(l, s)
	p.Legend.Add(name, l, s)
	return nil
}

func writePNG(p *plot.Plot, style PlotStyle, w io.Writer) error {
	wt, err := p.WriterTo(style.Width, style.Height, "png")
	if err != nil {
		return fmt.Errorf("drp: rendering plot: %v", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("drp: rendering plot: %v", err)
	}
	return nil
}

// boundsCurves maps curve names to their values, in plotting order.
var boundsCurves = []struct {
	name string
	get  func(rockphysics.SweepPoint) float64
}{
	{"KVoigt", func(p rockphysics.SweepPoint) float64 { return p.VRH.KVoigt }},
	{"KReuss", func(p rockphysics.SweepPoint) float64 { return p.VRH.KReuss }},
	{"KHill", func(p rockphysics.SweepPoint) float64 { return p.VRH.KHill }},
	{"KHSLower", func(p rockphysics.SweepPoint) float64 { return p.HS.KLower }},
	{"KHSUpper", func(p rockphysics.SweepPoint) float64 { return p.HS.KUpper }},
	{"GVoigt", func(p rockphysics.SweepPoint) float64 { return p.VRH.GVoigt }},
	{"GReuss", func(p rockphysics.SweepPoint) float64 { return p.VRH.GReuss }},
	{"GHill", func(p rockphysics.SweepPoint) float64 { return p.VRH.GHill }},
	{"GHSLower", func(p rockphysics.SweepPoint) float64 { return p.HS.GLower }},
	{"GHSUpper", func(p rockphysics.SweepPoint) float64 { return p.HS.GUpper }},
}

// PlotBounds draws modulus bounds versus porosity as a PNG. which
// selects curves by name (KVoigt, KReuss, KHill, KHSLower, KHSUpper
// and the G equivalents); nil plots the five bulk-modulus curves.
func PlotBounds(sweep []rockphysics.SweepPoint, which []string, style PlotStyle, w io.Writer) error {
	if len(sweep) == 0 {
		return fmt.Errorf("drp: the bounds sweep is empty")
	}
	if which == nil {
		which = []string{"KVoigt", "KReuss", "KHill", "KHSLower", "KHSUpper"}
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	applyStyle(p, style)
	p.Title.Text = "Elastic bounds"
	p.X.Label.Text = "Porosity (-)"
	p.Y.Label.Text = "Modulus (GPa)"

	for i, name := range which {
		found := false
		for _, curve := range boundsCurves {
			if curve.name != name {
				continue
			}
			found = true
			xys := make(plotter.XYs, len(sweep))
			for j, pt := range sweep {
				xys[j].X = pt.Porosity
				xys[j].Y = curve.get(pt) * 1e-9
			}
			if err := addCurve(p, i, name, xys, style); err != nil {
				return err
			}
			break
		}
		if !found {
			return fmt.Errorf("drp: unknown bounds curve %q", name)
		}
	}
	return writePNG(p, style, w)
}

// PlotVelocityVsAngle draws the three phase velocities against the
// propagation angle as a PNG.
func PlotVelocityVsAngle(sweep rockphysics.AngleSweep, style PlotStyle, w io.Writer) error {
	if len(sweep.Angles) == 0 {
		return fmt.Errorf("drp: the angle sweep is empty")
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	applyStyle(p, style)
	p.Title.Text = "Phase velocity vs. angle"
	p.X.Label.Text = "Angle from symmetry axis (°)"
	p.Y.Label.Text = "Velocity (m/s)"

	for i, curve := range []struct {
		name   string
		values []float64
	}{
		{"Vp", sweep.Vp},
		{"Vsv", sweep.Vsv},
		{"Vsh", sweep.Vsh},
	} {
		xys := make(plotter.XYs, len(sweep.Angles))
		for j, a := range sweep.Angles {
			xys[j].X = a
			xys[j].Y = curve.values[j]
		}
		if err := addCurve(p, i, curve.name, xys, style); err != nil {
			return err
		}
	}
	return writePNG(p, style, w)
}

// PlotHistogram draws the value distribution of a volume as a PNG.
// Segmented volumes get one bar per phase; when a single phase
// dominates, the count axis is broken so the minor phases stay
// readable. Continuous volumes get a 64-bin histogram.
func PlotHistogram(v *Volume, style PlotStyle, w io.Writer) error {
	if err := v.check3d(); err != nil {
		return err
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	applyStyle(p, style)
	p.Title.Text = "Phase distribution"
	p.Y.Label.Text = "Voxels"

	if v.Classify() != "segmented" {
		h, err := plotter.NewHist(plotter.Values(v.Data.Elements), 64)
		if err != nil {
			return fmt.Errorf("drp: plotting histogram: %v", err)
		}
		h.FillColor = plotutil.Color(0)
		p.X.Label.Text = "Value"
		p.Add(h)
		return writePNG(p, style, w)
	}

	counts := v.PhaseCounts()
	phases := v.Phases()
	values := make(plotter.Values, len(phases))
	names := make([]string, len(phases))
	first, second := 0.0, 0.0
	for i, ph := range phases {
		values[i] = float64(counts[ph])
		if name, ok := v.Labels[ph]; ok {
			names[i] = name
		} else {
			names[i] = fmt.Sprintf("%d", ph)
		}
		if values[i] > first {
			first, second = values[i], first
		} else if values[i] > second {
			second = values[i]
		}
	}
	bars, err := plotter.NewBarChart(values, style.Width/vg.Length(3*len(values)))
	if err != nil {
		return fmt.Errorf("drp: plotting histogram: %v", err)
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)

	// Break the count axis above the second-largest bar when one
	// phase dominates, so the minor phases keep visible extent.
	if len(values) > 1 && second > 0 && first > 5*second {
		cut := second * 1.1
		p.Y.Scale = plotextra.BrokenScale{
			HighCut:         cut,
			HighCutFraction: 0.9,
		}
		p.Y.Tick.Marker = plotextra.BrokenTicks{
			HighCut: cut,
		}
	}
	return writePNG(p, style, w)
}

// percentile returns percentile p (range [0,1]) of the given data.
func percentile(data []float64, p float64) float64 {
	tmp := make([]float64, len(data))
	copy(tmp, data)
	sort.Float64s(tmp)
	i := int(p*float64(len(tmp)) + 0.5)
	if i < 1 {
		i = 1
	}
	if i > len(tmp) {
		i = len(tmp)
	}
	return tmp[i-1]
}

// sliceColorMap builds the color map a slice of v renders with. For
// continuous volumes the map is broken at the 99.9th percentile of
// the slice, with an overflow ramp for the heavy tail; the returned
// cut is zero for segmented volumes.
func sliceColorMap(v *Volume, elements []float64, style PlotStyle) (palette.ColorMap, float64, error) {
	base, err := colorMapFor(style)
	if err != nil {
		return nil, 0, err
	}
	stats := v.Statistics()
	min, max := stats.Min, stats.Max
	if min == max {
		max = min + 1
	}
	if v.Classify() == "segmented" {
		base.SetMin(min)
		base.SetMax(max)
		return base, 0, nil
	}
	overflow, err := moreland.NewLuminance([]color.Color{
		color.NRGBA{G: 176, A: 255},
		color.NRGBA{G: 255, A: 255},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("drp: building color map: %v", err)
	}
	cm := &plotextra.BrokenColorMap{
		Base:     base,
		OverFlow: palette.Reverse(overflow),
	}
	cm.SetMin(min)
	cm.SetMax(max)
	cut := percentile(elements, 0.999)
	cm.SetHighCut(cut)
	return cm, cut, nil
}

// legendPlot builds a horizontal color bar for cm. A nonzero cut
// breaks the value axis there so the overflow range stays narrow.
func legendPlot(cm palette.ColorMap, cut float64, style PlotStyle) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, err
	}
	applyStyle(p, style)
	p.Add(&plotter.ColorBar{ColorMap: cm})
	p.HideY()
	p.X.Padding = 0
	if cut != 0 {
		p.X.Scale = plotextra.BrokenScale{
			HighCut:         cut,
			HighCutFraction: 0.9,
		}
		p.X.Tick.Marker = plotextra.BrokenTicks{
			HighCut: cut,
		}
	}
	return p, nil
}

// PlotLegend draws the color scale for v as a standalone PNG strip.
func PlotLegend(v *Volume, style PlotStyle, w io.Writer) error {
	if err := v.check3d(); err != nil {
		return err
	}
	cm, cut, err := sliceColorMap(v, v.Data.Elements, style)
	if err != nil {
		return err
	}
	p, err := legendPlot(cm, cut, style)
	if err != nil {
		return err
	}
	width := style.Width
	height := width * 0.1067
	c := vgimg.New(width, height)
	p.Draw(draw.New(c))
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("drp: rendering legend: %v", err)
	}
	return nil
}

// RenderSlice draws one slice of the volume as a PNG with a color
// legend strip underneath. The volume-wide value range sets the color
// scale, so slices of the same volume are directly comparable.
func RenderSlice(v *Volume, plane string, index int, style PlotStyle, w io.Writer) error {
	slice, err := v.Slice(plane, index)
	if err != nil {
		return err
	}
	n0, n1 := slice.Shape[0], slice.Shape[1]
	cm, cut, err := sliceColorMap(v, slice.Elements, style)
	if err != nil {
		return err
	}

	img := image.NewNRGBA(image.Rect(0, 0, n0, n1))
	for i0 := 0; i0 < n0; i0++ {
		for i1 := 0; i1 < n1; i1++ {
			c, err := cm.At(slice.Elements[i0*n1+i1])
			if err != nil {
				return fmt.Errorf("drp: rendering %s slice %d: %v", plane, index, err)
			}
			img.Set(i0, n1-1-i1, c)
		}
	}

	scale, unit := v.VoxelSize, "μm"
	if scale == 0 {
		scale, unit = 1, "voxels"
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	applyStyle(p, style)
	p.Title.Text = fmt.Sprintf("%s slice %d", plane, index)
	p.X.Label.Text = fmt.Sprintf("%c (%s)", plane[0], unit)
	p.Y.Label.Text = fmt.Sprintf("%c (%s)", plane[1], unit)
	p.Add(plotter.NewImage(img, 0, 0, float64(n0)*scale, float64(n1)*scale))

	legend, err := legendPlot(cm, cut, style)
	if err != nil {
		return err
	}

	c := vgimg.New(style.Width, style.Height)
	dc := draw.New(c)
	legendHeight := style.Height / 6
	p.Draw(draw.Crop(dc, 0, 0, legendHeight, 0))
	legend.Draw(draw.Crop(dc, 0, 0, 0, legendHeight-style.Height))
	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("drp: rendering %s slice %d: %v", plane, index, err)
	}
	return nil
}
