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
	"bytes"
	"strings"
	"testing"

	"github.com/rockphysics/drp/rockphysics"
)

func checkPNG(t *testing.T, b *bytes.Buffer) {
	t.Helper()
	if !bytes.HasPrefix(b.Bytes(), []byte("\x89PNG")) {
		t.Error("the output is not a PNG image")
	}
}

// continuousVolume has enough unique values that Classify does not
// call it segmented.
func continuousVolume() *Volume {
	v := NewVolume(10, 10, 20)
	for i := range v.Data.Elements {
		v.Data.Elements[i] = float64(i) * 0.37
	}
	return v
}

func testSweep(t *testing.T) []rockphysics.SweepPoint {
	t.Helper()
	quartz := rockphysics.Phase{Name: "quartz", K: 36.6e9, G: 45e9, Rho: 2650}
	water := rockphysics.Phase{Name: "water", K: 2.25e9, Rho: 1000}
	sweep, err := rockphysics.BoundsSweep([]float64{0, 0.1, 0.2, 0.3, 0.4}, quartz, water)
	if err != nil {
		t.Fatal(err)
	}
	return sweep
}

func TestPlotBounds(t *testing.T) {
	sweep := testSweep(t)
	var b bytes.Buffer
	if err := PlotBounds(sweep, nil, DefaultStyle(), &b); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, &b)

	b.Reset()
	if err := PlotBounds(sweep, []string{"GVoigt", "GReuss", "GHill"}, DefaultStyle(), &b); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, &b)

	err := PlotBounds(sweep, []string{"Bogus"}, DefaultStyle(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("an unknown curve name should be an error")
	}
	if !strings.Contains(err.Error(), "unknown bounds curve") {
		t.Errorf("unexpected error: %v", err)
	}
	if err := PlotBounds(nil, nil, DefaultStyle(), &bytes.Buffer{}); err == nil {
		t.Error("an empty sweep should be an error")
	}
}

func TestPlotVelocityVsAngle(t *testing.T) {
	c, err := rockphysics.BackusAverage([]rockphysics.Layer{
		{Vp: 3300, Vs: 1700, Rho: 2350, Thickness: 1},
		{Vp: 4200, Vs: 2700, Rho: 2450, Thickness: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	sweep := c.VelocityVsAngle([]float64{0, 15, 30, 45, 60, 75, 90})
	var b bytes.Buffer
	if err := PlotVelocityVsAngle(sweep, DefaultStyle(), &b); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, &b)

	if err := PlotVelocityVsAngle(rockphysics.AngleSweep{}, DefaultStyle(), &bytes.Buffer{}); err == nil {
		t.Error("an empty sweep should be an error")
	}
}

func TestPlotHistogram(t *testing.T) {
	var b bytes.Buffer
	if err := PlotHistogram(porousVolume(), DefaultStyle(), &b); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, &b)

	// One dominant phase breaks the count axis.
	dominant := NewVolume(4, 4, 4)
	for i := range dominant.Data.Elements {
		dominant.Data.Elements[i] = 1
	}
	dominant.Data.Elements[0] = 0
	b.Reset()
	if err := PlotHistogram(dominant, DefaultStyle(), &b); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, &b)

	b.Reset()
	if err := PlotHistogram(continuousVolume(), DefaultStyle(), &b); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, &b)
}

func TestRenderSlice(t *testing.T) {
	v, err := NoiseModel(NoiseConfig{Nx: 12, Ny: 12, Nz: 12, Porosity: 0.3, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	v.VoxelSize = 2.0
	for _, plane := range []string{"xy", "xz", "yz"} {
		var b bytes.Buffer
		if err := RenderSlice(v, plane, 6, DefaultStyle(), &b); err != nil {
			t.Fatal(err)
		}
		checkPNG(t, &b)
	}

	dark := DefaultStyle()
	dark.Dark = true
	dark.Colormap = "kindlmann"
	var b bytes.Buffer
	if err := RenderSlice(v, "xy", 0, dark, &b); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, &b)

	b.Reset()
	if err := RenderSlice(continuousVolume(), "xy", 5, DefaultStyle(), &b); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, &b)

	if err := RenderSlice(v, "qq", 0, DefaultStyle(), &bytes.Buffer{}); err == nil {
		t.Error("an unknown plane should be an error")
	}
	if err := RenderSlice(v, "xy", 99, DefaultStyle(), &bytes.Buffer{}); err == nil {
		t.Error("an out-of-range index should be an error")
	}
	bad := DefaultStyle()
	bad.Colormap = "rainbow"
	if err := RenderSlice(v, "xy", 0, bad, &bytes.Buffer{}); err == nil {
		t.Error("an unknown colormap should be an error")
	}
}

func TestPlotLegend(t *testing.T) {
	var b bytes.Buffer
	if err := PlotLegend(porousVolume(), DefaultStyle(), &b); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, &b)

	b.Reset()
	if err := PlotLegend(continuousVolume(), DefaultStyle(), &b); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, &b)
}

func TestPercentile(t *testing.T) {
	data := []float64{10, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	cases := []struct {
		p, want float64
	}{
		{0, 1},
		{0.5, 5},
		{0.999, 10},
		{1, 10},
	}
	for _, c := range cases {
		if got := percentile(data, c.p); got != c.want {
			t.Errorf("percentile(%g)=%g (it should equal %g)", c.p, got, c.want)
		}
	}
}
