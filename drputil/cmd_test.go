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

package drputil

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rockphysics/drp"
	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.ErrorLevel)
	os.Exit(m.Run())
}

func checkPNGFile(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if len(b) < 8 || string(b[:4]) != "\x89PNG" {
		t.Errorf("%s is not a PNG image", path)
	}
}

func TestVersion(t *testing.T) {
	if drp.Version == "" {
		t.Fatal("the version is empty")
	}
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatalf("running version: %v", err)
	}
}

func TestConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drp.toml")
	if err := os.WriteFile(path, []byte("[Gassmann]\nPorosity = 0.25\n"), 0644); err != nil {
		t.Fatal(err)
	}
	defer func() {
		Cfg.Set("config", "")
		Cfg.Set("Gassmann.Porosity", 0.2)
	}()

	Cfg.Set("config", path)
	if err := setConfig(); err != nil {
		t.Fatal(err)
	}
	if got := Cfg.GetFloat64("Gassmann.Porosity"); got != 0.25 {
		t.Errorf("the configuration file porosity is %g (it should equal 0.25)", got)
	}

	// Explicit settings beat the configuration file.
	Cfg.Set("Gassmann.Porosity", 0.3)
	if got := Cfg.GetFloat64("Gassmann.Porosity"); got != 0.3 {
		t.Errorf("the explicit porosity is %g (it should equal 0.3)", got)
	}

	Cfg.Set("config", filepath.Join(dir, "missing.toml"))
	if err := setConfig(); err == nil ||
		!strings.Contains(err.Error(), "problem reading configuration file") {
		t.Errorf("a missing configuration file gives %v", err)
	}
}

func TestGenerateNoise(t *testing.T) {
	out := filepath.Join(t.TempDir(), "noise.raw")
	Cfg.Set("output", out)
	Cfg.Set("Model.Nx", 16)
	Cfg.Set("Model.Ny", 16)
	Cfg.Set("Model.Nz", 16)
	Cfg.Set("Model.VoxelSize", 2.0)
	Cfg.Set("Model.Seed", 4)
	Cfg.Set("Noise.Porosity", 0.3)
	Root.SetArgs([]string{"generate", "noise"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	v, err := ReadVolume(Cfg, out)
	if err != nil {
		t.Fatal(err)
	}
	if v.Nx() != 16 || v.Ny() != 16 || v.Nz() != 16 {
		t.Errorf("dimensions are (%d, %d, %d) (they should be (16, 16, 16))",
			v.Nx(), v.Ny(), v.Nz())
	}
	if v.VoxelSize != 2.0 {
		t.Errorf("VoxelSize=%g (it should equal 2)", v.VoxelSize)
	}
	if got := v.PhaseFractions()[0]; math.Abs(got-0.3) > 0.01 {
		t.Errorf("the pore fraction is %g (it should be near 0.3)", got)
	}
	if v.Labels[0] != "pore" || v.Labels[1] != "solid" {
		t.Errorf("labels are %v", v.Labels)
	}
	if _, err := os.Stat(drp.SidecarPath(out)); err != nil {
		t.Errorf("the sidecar is missing: %v", err)
	}
}

func TestGenerateLayers(t *testing.T) {
	out := filepath.Join(t.TempDir(), "layers.nc")
	defer func() {
		Cfg.Set("Layers.Thicknesses", "10,10")
		Cfg.Set("Layers.Phases", []int{})
	}()
	Cfg.Set("output", out)
	Cfg.Set("Model.Nx", 4)
	Cfg.Set("Model.Ny", 4)
	Cfg.Set("Model.Nz", 10)
	Cfg.Set("Layers.Thicknesses", "2,3")
	Cfg.Set("Layers.Phases", []int{0, 1})
	Root.SetArgs([]string{"generate", "layers"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	v, err := ReadVolume(Cfg, out)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 0, 1, 1, 1, 0, 0, 1, 1, 1}
	for z, w := range want {
		if got := int(v.Data.Get(0, 0, z)); got != w {
			t.Errorf("z=%d: phase %d (it should be %d)", z, got, w)
		}
	}
}

func TestGenerateEllipsoids(t *testing.T) {
	dir := t.TempDir()
	Cfg.Set("output", filepath.Join(dir, "ell.tif"))
	Cfg.Set("Model.Nx", 16)
	Cfg.Set("Model.Ny", 16)
	Cfg.Set("Model.Nz", 16)
	Cfg.Set("Model.Seed", 5)
	Cfg.Set("Ellipsoids.Num", 2)
	Cfg.Set("Ellipsoids.Radius", 3.0)
	Root.SetArgs([]string{"generate", "ellipsoids"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "ell_0000.tif")); err != nil {
		t.Fatalf("the first slice is missing: %v", err)
	}
	v, err := ReadVolume(Cfg, dir)
	if err != nil {
		t.Fatal(err)
	}
	counts := v.PhaseCounts()
	for p := range counts {
		if p != 0 && p != 1 {
			t.Errorf("unexpected phase %d", p)
		}
	}
	if counts[0] == 0 || counts[1] == 0 {
		t.Errorf("phase counts are %v (both phases should be present)", counts)
	}
	if v.Labels[1] != "background" || v.Labels[0] != "inclusion" {
		t.Errorf("labels are %v", v.Labels)
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	v, err := drp.NoiseModel(drp.NoiseConfig{Nx: 8, Ny: 8, Nz: 8, Porosity: 0.3, Seed: 2})
	if err != nil {
		t.Fatal(err)
	}
	v.VoxelSize = 1.5
	in := filepath.Join(dir, "in.raw")
	if err := WriteVolume(Cfg, v, in, ""); err != nil {
		t.Fatal(err)
	}

	t.Run("netcdf", func(t *testing.T) {
		out := filepath.Join(dir, "out.nc")
		Root.SetArgs([]string{"convert", in, out})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		got, err := ReadVolume(Cfg, out)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got.Data.Elements, v.Data.Elements) {
			t.Error("voxel values changed in the conversion")
		}
		if got.VoxelSize != 1.5 {
			t.Errorf("VoxelSize=%g (it should equal 1.5)", got.VoxelSize)
		}
		if !reflect.DeepEqual(got.Labels, v.Labels) {
			t.Errorf("labels are %v (they should be %v)", got.Labels, v.Labels)
		}
	})

	t.Run("vti", func(t *testing.T) {
		out := filepath.Join(dir, "out.vti")
		Root.SetArgs([]string{"convert", in, out})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(b), `<VTKFile type="ImageData"`) {
			t.Error("the output is not a VTI file")
		}
	})

	t.Run("subvolume", func(t *testing.T) {
		defer Cfg.Set("subvolume", 0)
		Cfg.Set("subvolume", 4)
		out := filepath.Join(dir, "sub.raw")
		Root.SetArgs([]string{"convert", in, out})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		got, err := ReadVolume(Cfg, out)
		if err != nil {
			t.Fatal(err)
		}
		if got.Nx() != 4 || got.Ny() != 4 || got.Nz() != 4 {
			t.Errorf("dimensions are (%d, %d, %d) (they should be (4, 4, 4))",
				got.Nx(), got.Ny(), got.Nz())
		}
	})

	t.Run("normalize", func(t *testing.T) {
		defer Cfg.Set("normalize", false)
		lv, _, err := drp.LayeredModel(drp.LayerConfig{
			Nx: 4, Ny: 4, Nz: 4,
			Thicknesses: []float64{2, 2},
			Phases:      []int{3, 4},
		})
		if err != nil {
			t.Fatal(err)
		}
		lin := filepath.Join(dir, "labels.raw")
		if err := WriteVolume(Cfg, lv, lin, ""); err != nil {
			t.Fatal(err)
		}
		Cfg.Set("normalize", true)
		out := filepath.Join(dir, "norm.raw")
		Root.SetArgs([]string{"convert", lin, out})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		got, err := ReadVolume(Cfg, out)
		if err != nil {
			t.Fatal(err)
		}
		if s := got.Statistics(); s.Min != 0 || s.Max != 1 {
			t.Errorf("the value range is [%g, %g] (it should be [0, 1])", s.Min, s.Max)
		}
	})

	t.Run("unknown output", func(t *testing.T) {
		err := convertCmd.RunE(convertCmd, []string{in, filepath.Join(dir, "out.xyz")})
		if err == nil || !strings.Contains(err.Error(), "cannot infer the output format") {
			t.Errorf("an unknown output extension gives %v", err)
		}
	})
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	v, _, err := drp.LayeredModel(drp.LayerConfig{
		Nx: 2, Ny: 2, Nz: 4,
		Thicknesses: []float64{1, 3},
		Phases:      []int{0, 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	in := filepath.Join(dir, "in.raw")
	if err := WriteVolume(Cfg, v, in, ""); err != nil {
		t.Fatal(err)
	}

	table := filepath.Join(dir, "fractions.txt")
	workbook := filepath.Join(dir, "fractions.xlsx")
	derived := filepath.Join(dir, "derived.txt")
	defer func() {
		Cfg.Set("Stats.Table", "")
		Cfg.Set("Stats.Xlsx", "")
		Cfg.Set("Stats.Output", "")
		Cfg.Set("Stats.Expressions", map[string]string{})
		Cfg.Set("Stats.Pore", -1)
	}()
	Cfg.Set("Stats.Table", table)
	Cfg.Set("Stats.Xlsx", workbook)
	Cfg.Set("Stats.Output", derived)
	Cfg.Set("Stats.Expressions", map[string]string{"Porosity": "Phase0 / Voxels"})
	Cfg.Set("Stats.Pore", 0)
	Root.SetArgs([]string{"stats", in})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(table)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "25.0000") {
		t.Errorf("the fraction table does not contain the pore percentage:\n%s", b)
	}
	if fi, err := os.Stat(workbook); err != nil || fi.Size() == 0 {
		t.Errorf("the fraction workbook is missing: %v", err)
	}
	db, err := os.ReadFile(derived)
	if err != nil {
		t.Fatal(err)
	}
	if string(db) != "Porosity = 0.25\n" {
		t.Errorf("the derived output is %q (it should be %q)", db, "Porosity = 0.25\n")
	}
}

func TestBounds(t *testing.T) {
	dir := t.TempDir()
	plot := filepath.Join(dir, "bounds.png")
	workbook := filepath.Join(dir, "bounds.xlsx")
	defer func() {
		Cfg.Set("Bounds.Plot", "")
		Cfg.Set("Bounds.Xlsx", "")
		Cfg.Set("Bounds.PorosityRange", "0,0.4,41")
		Cfg.Set("Bounds.Curves", []string{})
	}()
	Cfg.Set("Bounds.Plot", plot)
	Cfg.Set("Bounds.Xlsx", workbook)
	Cfg.Set("Bounds.PorosityRange", "0,0.4,5")
	Cfg.Set("Bounds.Curves", []string{"KHSLower", "KHSUpper"})
	Root.SetArgs([]string{"bounds"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	checkPNGFile(t, plot)
	if fi, err := os.Stat(workbook); err != nil || fi.Size() == 0 {
		t.Errorf("the sweep workbook is missing: %v", err)
	}
}

func TestGassmann(t *testing.T) {
	defer func() {
		Cfg.Set("Gassmann.Mineral", "quartz")
		Cfg.Set("Gassmann.KDry", -1.0)
		Cfg.Set("Gassmann.KSat1", -1.0)
		Cfg.Set("Gassmann.Fluid1", "")
	}()
	Cfg.Set("Gassmann.Porosity", 0.2)
	Cfg.Set("Gassmann.KDry", 12.0)
	Cfg.Set("Gassmann.GDry", 9.0)
	Root.SetArgs([]string{"gassmann"})
	if err := Root.Execute(); err != nil {
		t.Fatalf("substituting with a dry-frame modulus: %v", err)
	}

	// Back-solve the dry frame from the saturated modulus.
	Cfg.Set("Gassmann.KDry", -1.0)
	Cfg.Set("Gassmann.KSat1", 17.0)
	Cfg.Set("Gassmann.Fluid1", "brine")
	if err := gassmannCmd.RunE(gassmannCmd, nil); err != nil {
		t.Errorf("back-solving the dry frame: %v", err)
	}

	Cfg.Set("Gassmann.KSat1", -1.0)
	err := gassmannCmd.RunE(gassmannCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "provide Gassmann.KDry or Gassmann.KSat1") {
		t.Errorf("missing moduli give %v", err)
	}

	Cfg.Set("Gassmann.KDry", 12.0)
	Cfg.Set("Gassmann.Mineral", "unobtanium")
	err = gassmannCmd.RunE(gassmannCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "is not in the material catalog") {
		t.Errorf("an unknown mineral gives %v", err)
	}
}

func TestBackus(t *testing.T) {
	dir := t.TempDir()
	layers := filepath.Join(dir, "layers.toml")
	content := `[[layer]]
vp = 3300.0
vs = 1700.0
rho = 2350.0
thickness = 1.0

[[layer]]
vp = 4200.0
vs = 2700.0
rho = 2450.0
thickness = 1.0
`
	if err := os.WriteFile(layers, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	plot := filepath.Join(dir, "velocity.png")
	defer func() {
		Cfg.Set("Backus.Layers", "")
		Cfg.Set("Backus.Plot", "")
		Cfg.Set("Backus.AngleRange", "0,90,91")
	}()
	Cfg.Set("Backus.Layers", layers)
	Cfg.Set("Backus.Plot", plot)
	Cfg.Set("Backus.AngleRange", "0,90,10")
	Root.SetArgs([]string{"backus"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	checkPNGFile(t, plot)

	Cfg.Set("Backus.Layers", "")
	if err := backusCmd.RunE(backusCmd, nil); err == nil ||
		!strings.Contains(err.Error(), "provide a layer file") {
		t.Errorf("a missing layer file gives %v", err)
	}
}

func TestSlice(t *testing.T) {
	dir := t.TempDir()
	v, err := drp.NoiseModel(drp.NoiseConfig{Nx: 8, Ny: 8, Nz: 8, Porosity: 0.3, Seed: 2})
	if err != nil {
		t.Fatal(err)
	}
	in := filepath.Join(dir, "in.raw")
	if err := WriteVolume(Cfg, v, in, ""); err != nil {
		t.Fatal(err)
	}
	defer func() {
		Cfg.Set("Slice.Plane", "xy")
		Cfg.Set("Slice.Index", -1)
	}()

	out := filepath.Join(dir, "slice.png")
	Cfg.Set("Slice.Plane", "xz")
	Cfg.Set("Slice.Index", 3)
	Root.SetArgs([]string{"slice", in, out})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	checkPNGFile(t, out)

	// A negative index selects the middle slice.
	Cfg.Set("Slice.Plane", "yz")
	Cfg.Set("Slice.Index", -1)
	middle := filepath.Join(dir, "middle.png")
	Root.SetArgs([]string{"slice", in, middle})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	checkPNGFile(t, middle)
}
