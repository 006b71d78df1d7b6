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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/rockphysics/drp"
	"github.com/rockphysics/drp/rockphysics"
	"github.com/spf13/cast"
	"gonum.org/v1/gonum/floats"
)

// Mineral is one [[mineral]] entry in a material catalog. The moduli
// are in GPa and the density in kg/m³.
type Mineral struct {
	Name string  `toml:"name"`
	K    float64 `toml:"K"`
	G    float64 `toml:"G"`
	Rho  float64 `toml:"rho"`
}

// Fluid is one [[fluid]] entry in a material catalog.
type Fluid struct {
	Name string  `toml:"name"`
	K    float64 `toml:"K"`
	Rho  float64 `toml:"rho"`
}

// MaterialCatalog holds the mineral and fluid properties available to
// the rock physics commands.
type MaterialCatalog struct {
	Minerals []Mineral `toml:"mineral"`
	Fluids   []Fluid   `toml:"fluid"`
}

// DefaultCatalog returns the built-in material properties, after Mavko,
// Mukerji, and Dvorkin, The Rock Physics Handbook.
func DefaultCatalog() *MaterialCatalog {
	return &MaterialCatalog{
		Minerals: []Mineral{
			{Name: "quartz", K: 36.6, G: 45.0, Rho: 2650},
			{Name: "calcite", K: 76.8, G: 32.0, Rho: 2710},
			{Name: "dolomite", K: 94.9, G: 45.0, Rho: 2870},
			{Name: "clay", K: 20.9, G: 6.85, Rho: 2580},
			{Name: "feldspar", K: 37.5, G: 15.0, Rho: 2620},
		},
		Fluids: []Fluid{
			{Name: "water", K: 2.25, Rho: 1000},
			{Name: "brine", K: 2.8, Rho: 1030},
			{Name: "oil", K: 1.02, Rho: 800},
			{Name: "gas", K: 0.041, Rho: 250},
			{Name: "air", K: 0.000142, Rho: 1.2},
		},
	}
}

// LoadMaterials reads a TOML material catalog from path. The file
// entries extend the built-in catalog, overriding entries with the same
// name. An empty path returns the built-in catalog unchanged.
func LoadMaterials(path string) (*MaterialCatalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}
	var file MaterialCatalog
	if _, err := toml.DecodeFile(os.ExpandEnv(path), &file); err != nil {
		return nil, fmt.Errorf("drp: reading material catalog %s: %v", path, err)
	}
	for _, m := range file.Minerals {
		cat.addMineral(m)
	}
	for _, f := range file.Fluids {
		cat.addFluid(f)
	}
	return cat, nil
}

func (c *MaterialCatalog) addMineral(m Mineral) {
	for i, o := range c.Minerals {
		if strings.EqualFold(o.Name, m.Name) {
			c.Minerals[i] = m
			return
		}
	}
	c.Minerals = append(c.Minerals, m)
}

func (c *MaterialCatalog) addFluid(f Fluid) {
	for i, o := range c.Fluids {
		if strings.EqualFold(o.Name, f.Name) {
			c.Fluids[i] = f
			return
		}
	}
	c.Fluids = append(c.Fluids, f)
}

// MineralPhase looks up a mineral by name, case-insensitively, and
// converts it to SI units.
func (c *MaterialCatalog) MineralPhase(name string) (rockphysics.Phase, error) {
	for _, m := range c.Minerals {
		if strings.EqualFold(m.Name, name) {
			return rockphysics.Phase{
				Name: m.Name,
				K:    rockphysics.GPaToPa(m.K),
				G:    rockphysics.GPaToPa(m.G),
				Rho:  m.Rho,
			}, nil
		}
	}
	return rockphysics.Phase{}, fmt.Errorf("drp: the mineral %q is not in the material catalog", name)
}

// FluidPhase looks up a fluid by name, case-insensitively, and converts
// it to SI units.
func (c *MaterialCatalog) FluidPhase(name string) (rockphysics.Phase, error) {
	for _, f := range c.Fluids {
		if strings.EqualFold(f.Name, name) {
			return rockphysics.Phase{
				Name: f.Name,
				K:    rockphysics.GPaToPa(f.K),
				Rho:  f.Rho,
			}, nil
		}
	}
	return rockphysics.Phase{}, fmt.Errorf("drp: the fluid %q is not in the material catalog", name)
}

type layerEntry struct {
	Vp        float64 `toml:"vp"`
	Vs        float64 `toml:"vs"`
	Rho       float64 `toml:"rho"`
	Thickness float64 `toml:"thickness"`
}

// LoadLayers reads a TOML file of [[layer]] entries with vp and vs
// [m/s], rho [kg/m³], and thickness into a layer stack. A missing
// thickness defaults to 1.
func LoadLayers(path string) ([]rockphysics.Layer, error) {
	var file struct {
		Layers []layerEntry `toml:"layer"`
	}
	if _, err := toml.DecodeFile(os.ExpandEnv(path), &file); err != nil {
		return nil, fmt.Errorf("drp: reading layer file %s: %v", path, err)
	}
	if len(file.Layers) == 0 {
		return nil, fmt.Errorf("drp: the layer file %s has no [[layer]] entries", path)
	}
	layers := make([]rockphysics.Layer, len(file.Layers))
	for i, l := range file.Layers {
		thickness := l.Thickness
		if thickness == 0 {
			thickness = 1
		}
		layers[i] = rockphysics.Layer{Vp: l.Vp, Vs: l.Vs, Rho: l.Rho, Thickness: thickness}
	}
	return layers, nil
}

// parseFloatList parses a comma-separated list of numbers.
func parseFloatList(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", field)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("the list %q is empty", s)
	}
	return out, nil
}

// rangeSpec parses a sweep given as 'min,max,steps' into an evenly
// spaced slice including both endpoints.
func rangeSpec(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("the range %q is not in min,max,steps form", s)
	}
	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("the range minimum %q is not a number", parts[0])
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("the range maximum %q is not a number", parts[1])
	}
	steps, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || steps < 2 {
		return nil, fmt.Errorf("the range %q needs an integer step count of at least 2", s)
	}
	return floats.Span(make([]float64, steps), min, max), nil
}

// layerMode parses the Layers.Mode configuration value.
func layerMode(s string) (drp.LayerMode, error) {
	switch strings.ToLower(s) {
	case "repeat", "repeated":
		return drp.LayerRepeat, nil
	case "scale", "scaled":
		return drp.LayerScaleToNz, nil
	case "cycles", "cycled":
		return drp.LayerCycles, nil
	}
	return 0, fmt.Errorf("drp: unknown layer mode %q; use repeat, scale, or cycles", s)
}

// PlotStyleFromConfig builds a plot style from the Plot.* configuration
// variables.
func PlotStyleFromConfig(cfg *viper.Viper) drp.PlotStyle {
	style := drp.DefaultStyle()
	style.Dark = cfg.GetBool("Plot.Dark")
	if cm := cfg.GetString("Plot.Colormap"); cm != "" {
		style.Colormap = cm
	}
	return style
}

// GetStringMapString returns a map[string]string from the configuration,
// accounting for the fact that it might be a json object if it was set
// from a command-line argument or an environment variable.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch i.(type) {
	case map[string]string:
		return i.(map[string]string)
	case map[string]interface{}:
		return cast.ToStringMapString(i)
	case string:
		b := bytes.NewBuffer(([]byte)(i.(string)))
		d := json.NewDecoder(b)
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			panic(fmt.Errorf("drp: parsing %s: %v", varName, err))
		}
		return o
	default:
		panic(fmt.Errorf("drp: invalid type %T for %s", i, varName))
	}
}

// checkOutputFile makes sure the output file is specified and the
// directory it is in exists, and expands any environment variables in
// its path.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return f, fmt.Errorf("drp: please specify an output file")
	}
	f = os.ExpandEnv(f)
	d := filepath.Dir(f)
	if _, err := os.Stat(d); err != nil {
		return f, fmt.Errorf("drp: the output directory %s doesn't exist", d)
	}
	return f, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
