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
	"html/template"
	"math"
	"net/http"
	"os"

	"github.com/ctessum/gobra"
	"github.com/lnashier/viper"
	"github.com/rockphysics/drp"
	"github.com/rockphysics/drp/rockphysics"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to DRP.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "output",
			usage: `
              output is the path the generated volume is written to. The
              file extension selects the format unless --format overrides
              it. The path can include environment variables.`,
			shorthand:  "o",
			defaultVal: "volume.raw",
			flagsets:   []*pflag.FlagSet{generateCmd.PersistentFlags()},
		},
		{
			name: "format",
			usage: `
              format forces the output format regardless of the output
              file extension. Valid values are 'raw', 'tiff', 'netcdf',
              and 'vti'.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{generateCmd.PersistentFlags()},
		},
		{
			name: "subvolume",
			usage: `
              subvolume crops a centered cube with the given edge length
              [voxels] before writing. 0 disables cropping.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "normalize",
			usage: `
              normalize shifts phase values so the minimum label is zero,
              matching the conventions of common segmentation tools.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "Model.Nx",
			usage: `
              Model.Nx is the volume extent in x [voxels].`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{generateCmd.PersistentFlags()},
		},
		{
			name: "Model.Ny",
			usage: `
              Model.Ny is the volume extent in y [voxels].`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{generateCmd.PersistentFlags()},
		},
		{
			name: "Model.Nz",
			usage: `
              Model.Nz is the volume extent in z [voxels].`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{generateCmd.PersistentFlags()},
		},
		{
			name: "Model.VoxelSize",
			usage: `
              Model.VoxelSize is the voxel edge length [μm]. It is
              recorded in the sidecar and used for plot axes.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{generateCmd.PersistentFlags()},
		},
		{
			name: "Model.Seed",
			usage: `
              Model.Seed seeds the random number generator, making
              generated volumes reproducible.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{generateCmd.PersistentFlags()},
		},
		{
			name: "Ellipsoids.Num",
			usage: `
              Ellipsoids.Num is the number of ellipsoidal inclusions to
              place, at most 100.`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{genEllipsoidsCmd.Flags()},
		},
		{
			name: "Ellipsoids.Radius",
			usage: `
              Ellipsoids.Radius is the inclusion radius [voxels].`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{genEllipsoidsCmd.Flags()},
		},
		{
			name: "Ellipsoids.AspectRatio",
			usage: `
              Ellipsoids.AspectRatio stretches (>1) or flattens (<1) each
              inclusion along its symmetry axis. 1 gives spheres.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{genEllipsoidsCmd.Flags()},
		},
		{
			name: "Ellipsoids.Orientation",
			usage: `
              Ellipsoids.Orientation places the circular section of each
              inclusion in the named plane: 'xy', 'zx', or 'zy'. It is
              ignored when Ellipsoids.Random is set.`,
			defaultVal: "xy",
			flagsets:   []*pflag.FlagSet{genEllipsoidsCmd.Flags()},
		},
		{
			name: "Ellipsoids.Random",
			usage: `
              Ellipsoids.Random rotates every inclusion by uniform random
              Euler angles instead of using a fixed orientation.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{genEllipsoidsCmd.Flags()},
		},
		{
			name: "Ellipsoids.Periodic",
			usage: `
              Ellipsoids.Periodic wraps inclusions that cross a volume
              boundary around to the opposite side, so the volume tiles
              seamlessly.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{genEllipsoidsCmd.Flags()},
		},
		{
			name: "Ellipsoids.Background",
			usage: `
              Ellipsoids.Background is the phase value of the matrix.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{genEllipsoidsCmd.Flags()},
		},
		{
			name: "Ellipsoids.Inclusion",
			usage: `
              Ellipsoids.Inclusion is the phase value of the inclusions.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{genEllipsoidsCmd.Flags()},
		},
		{
			name: "Layers.Thicknesses",
			usage: `
              Layers.Thicknesses is the comma-separated layer thickness
              pattern [voxels]. Fractional thicknesses are allowed; layer
              boundaries round to voxel edges.`,
			defaultVal: "10,10",
			flagsets:   []*pflag.FlagSet{genLayersCmd.Flags()},
		},
		{
			name: "Layers.Phases",
			usage: `
              Layers.Phases assigns a phase value to each pattern layer.
              When empty, phases cycle from Layers.StartPhase over
              Layers.NumPhases values.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{genLayersCmd.Flags()},
		},
		{
			name: "Layers.Mode",
			usage: `
              Layers.Mode maps the thickness pattern onto the volume:
              'repeat' cycles it until nz is filled, 'scale' stretches a
              single stack over nz, and 'cycles' fits exactly
              Layers.Cycles repetitions.`,
			defaultVal: "repeat",
			flagsets:   []*pflag.FlagSet{genLayersCmd.Flags()},
		},
		{
			name: "Layers.Cycles",
			usage: `
              Layers.Cycles is the number of pattern repetitions for
              Layers.Mode='cycles'.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{genLayersCmd.Flags()},
		},
		{
			name: "Layers.NumPhases",
			usage: `
              Layers.NumPhases is the number of distinct phases used for
              automatic phase assignment.`,
			defaultVal: 2,
			flagsets:   []*pflag.FlagSet{genLayersCmd.Flags()},
		},
		{
			name: "Layers.StartPhase",
			usage: `
              Layers.StartPhase is the first phase value used for
              automatic phase assignment.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{genLayersCmd.Flags()},
		},
		{
			name: "Noise.Porosity",
			usage: `
              Noise.Porosity is the target pore fraction of the
              thresholded noise volume.`,
			defaultVal: 0.2,
			flagsets:   []*pflag.FlagSet{genNoiseCmd.Flags()},
		},
		{
			name: "Noise.Frequency",
			usage: `
              Noise.Frequency is the base spatial frequency of the
              simplex noise [1/voxel].`,
			defaultVal: 0.05,
			flagsets:   []*pflag.FlagSet{genNoiseCmd.Flags()},
		},
		{
			name: "Noise.Octaves",
			usage: `
              Noise.Octaves is the number of noise octaves to sum. Each
              octave doubles the frequency.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{genNoiseCmd.Flags()},
		},
		{
			name: "Noise.Persistence",
			usage: `
              Noise.Persistence scales the amplitude of each successive
              octave.`,
			defaultVal: 0.5,
			flagsets:   []*pflag.FlagSet{genNoiseCmd.Flags()},
		},
		{
			name: "Raw.Dtype",
			usage: `
              Raw.Dtype is the voxel data type of a raw binary file:
              'uint8', 'uint16', 'float32', or 'float64'. It overrides
              the sidecar when reading and sets the type when writing.`,
			defaultVal: "",
			flagsets: []*pflag.FlagSet{generateCmd.PersistentFlags(), convertCmd.Flags(),
				statsCmd.Flags(), sliceCmd.Flags(), viewCmd.Flags()},
		},
		{
			name: "Raw.Endian",
			usage: `
              Raw.Endian is the byte order of a raw binary file: 'little'
              or 'big'.`,
			defaultVal: "",
			flagsets: []*pflag.FlagSet{generateCmd.PersistentFlags(), convertCmd.Flags(),
				statsCmd.Flags(), sliceCmd.Flags(), viewCmd.Flags()},
		},
		{
			name: "Raw.AxisOrder",
			usage: `
              Raw.AxisOrder is the axis storage order of a raw binary
              file, a permutation of 'xyz' with the last axis varying
              fastest.`,
			defaultVal: "",
			flagsets: []*pflag.FlagSet{generateCmd.PersistentFlags(), convertCmd.Flags(),
				statsCmd.Flags(), sliceCmd.Flags(), viewCmd.Flags()},
		},
		{
			name: "Raw.Nx",
			usage: `
              Raw.Nx is the x extent of a raw binary file that has no
              sidecar. One missing extent can be inferred from the file
              size.`,
			defaultVal: 0,
			flagsets: []*pflag.FlagSet{convertCmd.Flags(), statsCmd.Flags(),
				sliceCmd.Flags(), viewCmd.Flags()},
		},
		{
			name: "Raw.Ny",
			usage: `
              Raw.Ny is the y extent of a raw binary file that has no
              sidecar.`,
			defaultVal: 0,
			flagsets: []*pflag.FlagSet{convertCmd.Flags(), statsCmd.Flags(),
				sliceCmd.Flags(), viewCmd.Flags()},
		},
		{
			name: "Raw.Nz",
			usage: `
              Raw.Nz is the z extent of a raw binary file that has no
              sidecar.`,
			defaultVal: 0,
			flagsets: []*pflag.FlagSet{convertCmd.Flags(), statsCmd.Flags(),
				sliceCmd.Flags(), viewCmd.Flags()},
		},
		{
			name: "Raw.Header",
			usage: `
              Raw.Header additionally writes a SEPlib-style header file
              next to raw output.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{generateCmd.PersistentFlags(), convertCmd.Flags()},
		},
		{
			name: "Netcdf.Variable",
			usage: `
              Netcdf.Variable is the NetCDF variable holding the volume.
              When empty, writing uses 'phases' and reading requires the
              file to hold exactly one variable.`,
			defaultVal: "",
			flagsets: []*pflag.FlagSet{generateCmd.PersistentFlags(), convertCmd.Flags(),
				statsCmd.Flags(), sliceCmd.Flags(), viewCmd.Flags()},
		},
		{
			name: "Stats.Expressions",
			usage: `
              Stats.Expressions maps derived output names to expressions
              over the phase variables and volume statistics, e.g.
              {"Porosity": "Pore / Voxels"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "Stats.Output",
			usage: `
              Stats.Output saves the derived expression results to a
              .txt or .xlsx file instead of only printing them.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "Stats.Table",
			usage: `
              Stats.Table saves the phase fraction table. A directory
              path saves incrementally numbered fraction_NNN.txt files.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "Stats.Xlsx",
			usage: `
              Stats.Xlsx saves the phase fractions as an xlsx workbook.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "Stats.Pore",
			usage: `
              Stats.Pore labels the 6-connected components of the given
              pore phase and reports their count. Negative disables.`,
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "Materials",
			usage: `
              Materials is the path to a TOML catalog of mineral and
              fluid properties ([[mineral]] name/K/G/rho [GPa, kg/m³] and
              [[fluid]] name/K/rho). Entries extend and override the
              built-in catalog.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{boundsCmd.Flags(), gassmannCmd.Flags()},
		},
		{
			name: "Bounds.Mineral",
			usage: `
              Bounds.Mineral is the catalog name of the solid phase.`,
			defaultVal: "quartz",
			flagsets:   []*pflag.FlagSet{boundsCmd.Flags()},
		},
		{
			name: "Bounds.Fluid",
			usage: `
              Bounds.Fluid is the catalog name of the pore fluid.`,
			defaultVal: "water",
			flagsets:   []*pflag.FlagSet{boundsCmd.Flags()},
		},
		{
			name: "Bounds.PorosityRange",
			usage: `
              Bounds.PorosityRange is the porosity sweep as
              'min,max,steps'.`,
			defaultVal: "0,0.4,41",
			flagsets:   []*pflag.FlagSet{boundsCmd.Flags()},
		},
		{
			name: "Bounds.Curves",
			usage: `
              Bounds.Curves selects the curves to plot (KVoigt, KReuss,
              KHill, KHSLower, KHSUpper and the G equivalents). Empty
              plots the bulk-modulus set.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{boundsCmd.Flags()},
		},
		{
			name: "Bounds.Plot",
			usage: `
              Bounds.Plot saves a bounds-versus-porosity plot to the
              given PNG path.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{boundsCmd.Flags()},
		},
		{
			name: "Bounds.Xlsx",
			usage: `
              Bounds.Xlsx saves the sweep as an xlsx workbook.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{boundsCmd.Flags()},
		},
		{
			name: "Gassmann.Mineral",
			usage: `
              Gassmann.Mineral is the catalog name of the rock matrix
              mineral.`,
			defaultVal: "quartz",
			flagsets:   []*pflag.FlagSet{gassmannCmd.Flags()},
		},
		{
			name: "Gassmann.Porosity",
			usage: `
              Gassmann.Porosity is the rock porosity, in [0, 1].`,
			defaultVal: 0.2,
			flagsets:   []*pflag.FlagSet{gassmannCmd.Flags()},
		},
		{
			name: "Gassmann.KDry",
			usage: `
              Gassmann.KDry is the dry-frame bulk modulus [GPa]. Negative
              means unknown; the dry frame is then back-solved from
              Gassmann.KSat1 and Gassmann.Fluid1.`,
			defaultVal: -1.0,
			flagsets:   []*pflag.FlagSet{gassmannCmd.Flags()},
		},
		{
			name: "Gassmann.KSat1",
			usage: `
              Gassmann.KSat1 is the saturated bulk modulus with the
              original fluid [GPa]. Negative means unknown.`,
			defaultVal: -1.0,
			flagsets:   []*pflag.FlagSet{gassmannCmd.Flags()},
		},
		{
			name: "Gassmann.GDry",
			usage: `
              Gassmann.GDry is the dry-frame shear modulus [GPa], needed
              only for velocity output. Negative means unknown.`,
			defaultVal: -1.0,
			flagsets:   []*pflag.FlagSet{gassmannCmd.Flags()},
		},
		{
			name: "Gassmann.Fluid1",
			usage: `
              Gassmann.Fluid1 is the catalog name of the original pore
              fluid. Empty means the original measurement was dry.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gassmannCmd.Flags()},
		},
		{
			name: "Gassmann.Fluid2",
			usage: `
              Gassmann.Fluid2 is the catalog name of the replacement pore
              fluid.`,
			defaultVal: "water",
			flagsets:   []*pflag.FlagSet{gassmannCmd.Flags()},
		},
		{
			name: "Backus.Layers",
			usage: `
              Backus.Layers is the path to a TOML file of [[layer]]
              entries with vp, vs [m/s], rho [kg/m³], and thickness.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{backusCmd.Flags()},
		},
		{
			name: "Backus.AngleRange",
			usage: `
              Backus.AngleRange is the propagation angle sweep for the
              velocity plot as 'min,max,steps' [degrees from the
              symmetry axis].`,
			defaultVal: "0,90,91",
			flagsets:   []*pflag.FlagSet{backusCmd.Flags()},
		},
		{
			name: "Backus.Plot",
			usage: `
              Backus.Plot saves a velocity-versus-angle plot to the given
              PNG path.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{backusCmd.Flags()},
		},
		{
			name: "Slice.Plane",
			usage: `
              Slice.Plane selects the slice plane: 'xy', 'xz', or 'yz'.`,
			defaultVal: "xy",
			flagsets:   []*pflag.FlagSet{sliceCmd.Flags()},
		},
		{
			name: "Slice.Index",
			usage: `
              Slice.Index is the slice position along the axis normal to
              the plane. Negative means the middle slice.`,
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{sliceCmd.Flags()},
		},
		{
			name: "Plot.Dark",
			usage: `
              Plot.Dark renders plots on a dark background.`,
			defaultVal: false,
			flagsets: []*pflag.FlagSet{boundsCmd.Flags(), backusCmd.Flags(),
				sliceCmd.Flags(), viewCmd.Flags()},
		},
		{
			name: "Plot.Colormap",
			usage: `
              Plot.Colormap selects the slice color map: 'blackbody',
              'kindlmann', or 'bluered'.`,
			defaultVal: "blackbody",
			flagsets: []*pflag.FlagSet{boundsCmd.Flags(), backusCmd.Flags(),
				sliceCmd.Flags(), viewCmd.Flags()},
		},
		{
			name: "addr",
			usage: `
              addr is the address the preview server listens on.`,
			defaultVal: "localhost:8080",
			flagsets:   []*pflag.FlagSet{viewCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("DRP")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(generateCmd)
	generateCmd.AddCommand(genEllipsoidsCmd)
	generateCmd.AddCommand(genLayersCmd)
	generateCmd.AddCommand(genNoiseCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(statsCmd)
	Root.AddCommand(boundsCmd)
	Root.AddCommand(gassmannCmd)
	Root.AddCommand(backusCmd)
	Root.AddCommand(sliceCmd)
	Root.AddCommand(viewCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("drp: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "drp",
	Short: "A digital rock physics toolkit.",
	Long: `DRP generates, converts, and analyzes segmented digital rock volumes and
computes the rock physics of their constituents. Use the subcommands
specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'DRP_var' where 'var' is the name of the variable to be set. Refer to
https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of DRP.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("DRP v%s\n", drp.Version)
	},
	DisableAutoGenTag: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic volume.",
	Long: `generate creates a synthetic digital rock volume. Use the subcommands
specified below to choose a model type.`,
	DisableAutoGenTag: true,
}

var genEllipsoidsCmd = &cobra.Command{
	Use:   "ellipsoids",
	Short: "Generate ellipsoidal inclusions.",
	Long: `ellipsoids generates a volume of ellipsoidal inclusions in a homogeneous
background, the default being pores (0) in a solid matrix (1). Inclusions
that cross a volume boundary wrap around periodically unless disabled, so
the volume tiles seamlessly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := drp.EllipsoidModel(drp.EllipsoidConfig{
			Nx:                Cfg.GetInt("Model.Nx"),
			Ny:                Cfg.GetInt("Model.Ny"),
			Nz:                Cfg.GetInt("Model.Nz"),
			NumInclusions:     Cfg.GetInt("Ellipsoids.Num"),
			Radius:            Cfg.GetFloat64("Ellipsoids.Radius"),
			AspectRatio:       Cfg.GetFloat64("Ellipsoids.AspectRatio"),
			Orientation:       Cfg.GetString("Ellipsoids.Orientation"),
			RandomOrientation: Cfg.GetBool("Ellipsoids.Random"),
			BackgroundLabel:   Cfg.GetInt("Ellipsoids.Background"),
			InclusionLabel:    Cfg.GetInt("Ellipsoids.Inclusion"),
			Seed:              int64(Cfg.GetInt("Model.Seed")),
			Periodic:          Cfg.GetBool("Ellipsoids.Periodic"),
		})
		if err != nil {
			return err
		}
		return writeGenerated(Cfg, v)
	},
	DisableAutoGenTag: true,
}

var genLayersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Generate horizontal layers.",
	Long: `layers generates a volume of horizontal layers perpendicular to z from a
thickness pattern. The pattern can repeat until the volume is filled, be
scaled to span it once, or be fitted an exact number of times.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		thicknesses, err := parseFloatList(Cfg.GetString("Layers.Thicknesses"))
		if err != nil {
			return fmt.Errorf("drp: reading Layers.Thicknesses: %v", err)
		}
		phases, err := cast.ToIntSliceE(Cfg.Get("Layers.Phases"))
		if err != nil {
			return fmt.Errorf("drp: reading Layers.Phases: %v", err)
		}
		if len(phases) == 0 {
			phases = nil
		}
		mode, err := layerMode(Cfg.GetString("Layers.Mode"))
		if err != nil {
			return err
		}
		v, meta, err := drp.LayeredModel(drp.LayerConfig{
			Nx:          Cfg.GetInt("Model.Nx"),
			Ny:          Cfg.GetInt("Model.Ny"),
			Nz:          Cfg.GetInt("Model.Nz"),
			Thicknesses: thicknesses,
			Phases:      phases,
			NumPhases:   Cfg.GetInt("Layers.NumPhases"),
			StartPhase:  Cfg.GetInt("Layers.StartPhase"),
			Mode:        mode,
			Cycles:      Cfg.GetInt("Layers.Cycles"),
		})
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"mode":    meta.Mode,
			"cycles":  meta.CyclesCompleted,
			"partial": meta.PartialCycle,
			"layers":  meta.TotalLayers,
		}).Info("drp: built layer stack")
		return writeGenerated(Cfg, v)
	},
	DisableAutoGenTag: true,
}

var genNoiseCmd = &cobra.Command{
	Use:   "noise",
	Short: "Generate thresholded simplex noise.",
	Long: `noise generates a two-phase volume by thresholding octave simplex noise
at the target porosity, giving a connected, organically shaped pore
network.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := drp.NoiseModel(drp.NoiseConfig{
			Nx:          Cfg.GetInt("Model.Nx"),
			Ny:          Cfg.GetInt("Model.Ny"),
			Nz:          Cfg.GetInt("Model.Nz"),
			Porosity:    Cfg.GetFloat64("Noise.Porosity"),
			Frequency:   Cfg.GetFloat64("Noise.Frequency"),
			Octaves:     Cfg.GetInt("Noise.Octaves"),
			Persistence: Cfg.GetFloat64("Noise.Persistence"),
			Seed:        int64(Cfg.GetInt("Model.Seed")),
		})
		if err != nil {
			return err
		}
		return writeGenerated(Cfg, v)
	},
	DisableAutoGenTag: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert INPUT OUTPUT",
	Short: "Convert a volume between formats.",
	Long: `convert reads a volume (raw binary with its sidecar, a numbered TIFF
sequence, or NetCDF) and writes it in the format implied by the output
file extension: .raw, .tif, .nc, or .vti.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := ReadVolume(Cfg, os.ExpandEnv(args[0]))
		if err != nil {
			return err
		}
		if Cfg.GetBool("normalize") {
			if shift := -int(math.Round(v.Statistics().Min)); shift != 0 {
				v.ShiftLabels(shift)
				logrus.WithField("shift", shift).Info("drp: normalized phase labels")
			}
		}
		if side := Cfg.GetInt("subvolume"); side > 0 {
			if v, err = v.Subvolume(side); err != nil {
				return err
			}
		}
		return WriteVolume(Cfg, v, os.ExpandEnv(args[1]), "")
	},
	DisableAutoGenTag: true,
}

var statsCmd = &cobra.Command{
	Use:   "stats INPUT",
	Short: "Report volume statistics and phase fractions.",
	Long: `stats prints the dimensions, classification, value statistics, and phase
fraction table of a volume, evaluates any derived output expressions, and
optionally saves the fraction table as text or xlsx.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := os.ExpandEnv(args[0])
		v, err := ReadVolume(Cfg, path)
		if err != nil {
			return err
		}
		s := v.Statistics()
		fmt.Printf("file: %s\n", path)
		fmt.Printf("dimensions: %d x %d x %d\n", v.Nx(), v.Ny(), v.Nz())
		if v.VoxelSize > 0 {
			fmt.Printf("voxel size: %g μm\n", v.VoxelSize)
		}
		fmt.Printf("data: %s\n", v.Classify())
		fmt.Printf("mean %.6g  std %.6g  min %g  max %g  unique %d\n\n",
			s.Mean, s.StdDev, s.Min, s.Max, s.Unique)
		fmt.Println(drp.FractionTable(v))

		if table := os.ExpandEnv(Cfg.GetString("Stats.Table")); table != "" {
			if err := drp.WriteFractionTable(v, table); err != nil {
				return err
			}
		}
		if xlsx := os.ExpandEnv(Cfg.GetString("Stats.Xlsx")); xlsx != "" {
			if err := drp.WriteFractionXLSX(v, xlsx); err != nil {
				return err
			}
		}
		if pore := Cfg.GetInt("Stats.Pore"); pore >= 0 {
			_, n, err := v.ConnectedPores(pore)
			if err != nil {
				return err
			}
			fmt.Printf("connected components of phase %d: %d\n", pore, n)
		}
		exprs := GetStringMapString("Stats.Expressions", Cfg)
		if len(exprs) == 0 {
			return nil
		}
		o, err := drp.NewOutputter(os.ExpandEnv(Cfg.GetString("Stats.Output")), exprs, nil)
		if err != nil {
			return err
		}
		if err := o.CheckOutputVars(v); err != nil {
			return err
		}
		results, err := o.Output(v)
		if err != nil {
			return err
		}
		for _, name := range sortedKeys(results) {
			fmt.Printf("%s = %g\n", name, results[name])
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var boundsCmd = &cobra.Command{
	Use:   "bounds",
	Short: "Compute elastic bounds for a mineral-fluid mixture.",
	Long: `bounds evaluates the Voigt-Reuss-Hill and Hashin-Shtrikman bounds of a
two-phase mineral-fluid mixture over a porosity sweep, printing a table
and optionally saving an xlsx workbook and a PNG plot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := LoadMaterials(Cfg.GetString("Materials"))
		if err != nil {
			return err
		}
		mineral, err := cat.MineralPhase(Cfg.GetString("Bounds.Mineral"))
		if err != nil {
			return err
		}
		fluid, err := cat.FluidPhase(Cfg.GetString("Bounds.Fluid"))
		if err != nil {
			return err
		}
		porosities, err := rangeSpec(Cfg.GetString("Bounds.PorosityRange"))
		if err != nil {
			return fmt.Errorf("drp: reading Bounds.PorosityRange: %v", err)
		}
		sweep, err := rockphysics.BoundsSweep(porosities, mineral, fluid)
		if err != nil {
			return err
		}

		fmt.Printf("%s + %s, moduli in GPa\n", mineral.Name, fluid.Name)
		fmt.Printf("%8s %9s %9s %9s %9s %9s %9s\n",
			"porosity", "K_Reuss", "K_Voigt", "K_HS-", "K_HS+", "G_Voigt", "rho")
		for _, pt := range sweep {
			fmt.Printf("%8.4f %9.4f %9.4f %9.4f %9.4f %9.4f %9.1f\n",
				pt.Porosity,
				rockphysics.PaToGPa(pt.VRH.KReuss),
				rockphysics.PaToGPa(pt.VRH.KVoigt),
				rockphysics.PaToGPa(pt.HS.KLower),
				rockphysics.PaToGPa(pt.HS.KUpper),
				rockphysics.PaToGPa(pt.VRH.GVoigt),
				pt.Rho)
		}

		if xlsx := os.ExpandEnv(Cfg.GetString("Bounds.Xlsx")); xlsx != "" {
			if err := drp.WriteSweepXLSX(sweep, xlsx); err != nil {
				return err
			}
		}
		if plotPath := os.ExpandEnv(Cfg.GetString("Bounds.Plot")); plotPath != "" {
			curves := Cfg.GetStringSlice("Bounds.Curves")
			if len(curves) == 0 {
				curves = nil
			}
			f, err := os.Create(plotPath)
			if err != nil {
				return fmt.Errorf("drp: creating %s: %v", plotPath, err)
			}
			defer f.Close()
			if err := drp.PlotBounds(sweep, curves, PlotStyleFromConfig(Cfg), f); err != nil {
				return err
			}
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var gassmannCmd = &cobra.Command{
	Use:   "gassmann",
	Short: "Perform Gassmann fluid substitution.",
	Long: `gassmann substitutes the pore fluid of a rock using Gassmann's relation.
The dry frame is taken from Gassmann.KDry or back-solved from the
saturated modulus Gassmann.KSat1 with the original fluid Gassmann.Fluid1.
When the dry shear modulus is given, the saturated velocities are derived
as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := LoadMaterials(Cfg.GetString("Materials"))
		if err != nil {
			return err
		}
		mineral, err := cat.MineralPhase(Cfg.GetString("Gassmann.Mineral"))
		if err != nil {
			return err
		}
		fluid2, err := cat.FluidPhase(Cfg.GetString("Gassmann.Fluid2"))
		if err != nil {
			return err
		}
		in := rockphysics.FluidSubstitutionInput{
			KMineral:   mineral.K,
			Porosity:   Cfg.GetFloat64("Gassmann.Porosity"),
			KFluid2:    fluid2.K,
			RhoMineral: mineral.Rho,
			RhoFluid2:  fluid2.Rho,
		}
		if kdry := Cfg.GetFloat64("Gassmann.KDry"); kdry >= 0 {
			in.KDry = rockphysics.GPaToPa(kdry)
			in.HaveDry = true
		} else if ksat := Cfg.GetFloat64("Gassmann.KSat1"); ksat >= 0 {
			in.KSat1 = rockphysics.GPaToPa(ksat)
			if name := Cfg.GetString("Gassmann.Fluid1"); name != "" {
				fluid1, err := cat.FluidPhase(name)
				if err != nil {
					return err
				}
				in.KFluid1 = fluid1.K
			}
		} else {
			return fmt.Errorf("drp: provide Gassmann.KDry or Gassmann.KSat1")
		}
		if gdry := Cfg.GetFloat64("Gassmann.GDry"); gdry >= 0 {
			in.GDry = rockphysics.GPaToPa(gdry)
		}
		res, err := rockphysics.FluidSubstitution(in)
		if err != nil {
			return err
		}
		fmt.Printf("K_dry  = %.4f GPa\n", rockphysics.PaToGPa(res.KDry))
		fmt.Printf("K_sat  = %.4f GPa (%s)\n", rockphysics.PaToGPa(res.KSat2), fluid2.Name)
		fmt.Printf("G      = %.4f GPa\n", rockphysics.PaToGPa(res.GSat2))
		if res.Rho2 > 0 {
			fmt.Printf("rho    = %.1f kg/m³\n", res.Rho2)
		}
		if res.Vp2 > 0 {
			fmt.Printf("Vp     = %.1f m/s\n", res.Vp2)
			fmt.Printf("Vs     = %.1f m/s\n", res.Vs2)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var backusCmd = &cobra.Command{
	Use:   "backus",
	Short: "Backus-average a stack of thin layers.",
	Long: `backus computes the long-wavelength equivalent transversely isotropic
medium of a stack of thin isotropic layers, printing the five elastic
constants, the Thomsen anisotropy parameters, and the end-member
velocities, and optionally saving a velocity-versus-angle plot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := Cfg.GetString("Backus.Layers")
		if path == "" {
			return fmt.Errorf("drp: provide a layer file with --Backus.Layers")
		}
		layers, err := LoadLayers(path)
		if err != nil {
			return err
		}
		c, err := rockphysics.BackusAverage(layers)
		if err != nil {
			return err
		}
		fmt.Printf("A=%.4f B=%.4f C=%.4f D=%.4f F=%.4f M=%.4f GPa  rho=%.1f kg/m³\n",
			rockphysics.PaToGPa(c.A), rockphysics.PaToGPa(c.B), rockphysics.PaToGPa(c.C),
			rockphysics.PaToGPa(c.D), rockphysics.PaToGPa(c.F), rockphysics.PaToGPa(c.M),
			c.RhoEq)
		fmt.Printf("Vp0=%.1f Vp90=%.1f Vsv0=%.1f Vsh90=%.1f m/s\n",
			c.Vp0(), c.Vp90(), c.Vsv0(), c.Vsh90())
		t := c.ThomsenParameters()
		fmt.Printf("epsilon=%.6f gamma=%.6f delta=%.6f\n", t.Epsilon, t.Gamma, t.Delta)

		if plotPath := os.ExpandEnv(Cfg.GetString("Backus.Plot")); plotPath != "" {
			angles, err := rangeSpec(Cfg.GetString("Backus.AngleRange"))
			if err != nil {
				return fmt.Errorf("drp: reading Backus.AngleRange: %v", err)
			}
			f, err := os.Create(plotPath)
			if err != nil {
				return fmt.Errorf("drp: creating %s: %v", plotPath, err)
			}
			defer f.Close()
			if err := drp.PlotVelocityVsAngle(c.VelocityVsAngle(angles), PlotStyleFromConfig(Cfg), f); err != nil {
				return err
			}
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var sliceCmd = &cobra.Command{
	Use:   "slice INPUT OUTPUT.png",
	Short: "Render a slice of a volume to PNG.",
	Long: `slice renders one slice of a volume as a PNG image with a color legend,
using the volume-wide value range so slices are comparable.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := ReadVolume(Cfg, os.ExpandEnv(args[0]))
		if err != nil {
			return err
		}
		plane := Cfg.GetString("Slice.Plane")
		index := Cfg.GetInt("Slice.Index")
		if index < 0 {
			if index, err = middleSlice(v, plane); err != nil {
				return err
			}
		}
		f, err := os.Create(os.ExpandEnv(args[1]))
		if err != nil {
			return fmt.Errorf("drp: creating %s: %v", args[1], err)
		}
		defer f.Close()
		return drp.RenderSlice(v, plane, index, PlotStyleFromConfig(Cfg), f)
	},
	DisableAutoGenTag: true,
}

var viewCmd = &cobra.Command{
	Use:   "view INPUT",
	Short: "Preview a volume in the browser.",
	Long: `view starts a local web server with slice images, the phase histogram,
the color legend, and the sidecar parameters of a volume, and opens it in
the default browser.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := os.ExpandEnv(args[0])
		v, err := ReadVolume(Cfg, path)
		if err != nil {
			return err
		}
		params, err := drp.ReadParameters(drp.SidecarPath(path))
		if err != nil {
			params = nil // the preview works without a sidecar
		}
		s, err := drp.NewPreviewServer(v, params)
		if err != nil {
			return err
		}
		s.Style = PlotStyleFromConfig(Cfg)
		addr := Cfg.GetString("addr")
		open.Run("http://" + addr)
		fmt.Printf("If not opened automatically, please visit http://%s\n", addr)
		return s.ListenAndServe(addr)
	},
	DisableAutoGenTag: true,
}

// StartWebServer starts the web server.
func StartWebServer() {
	setConfig() // Ignore any errors for now.

	http.HandleFunc("/setConfig", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		configFile := r.Form["config"][0]
		Root.PersistentFlags().Set("config", configFile)
		err := setConfig()
		if err != nil {
			http.Error(w, err.Error(), 204)
			return
		}
		config := make(map[string]interface{})
		for _, option := range options {
			config[option.name] = Cfg.Get(option.name)
		}
		e := json.NewEncoder(w)
		if err := e.Encode(config); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	})

	logrus.Info("Loading front-end...")

	for _, cmd := range []*cobra.Command{Root, versionCmd, generateCmd,
		genEllipsoidsCmd, genLayersCmd, genNoiseCmd, convertCmd, statsCmd,
		boundsCmd, gassmannCmd, backusCmd, sliceCmd, viewCmd} {
		cmd.SilenceUsage = true // We don't want the usage messages in the GUI.
	}

	const address = "localhost:7171"
	const tmpl = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>DRP</title>
	<style>
		html, body {padding: 0; margin: 2% 0; font-family: sans-serif;}
		.container { max-width: 700px; margin: 0 auto; padding: 10px; }
		div[id^="gobra-"] blockquote { border-left: 3px solid #bbb; margin: .3em; color: #333; padding-left: 5px; font-size: 75%; }
		div[id^="gobra-"] code { font-weight: bold; }
		div[id^="gobra-"] input { font-family: monospace; margin-left: .2em; width: 50%; outline:none; }
		.red-border{ border: 1px solid #c35; }
		.green-border{ border: 1px solid #3c5; }
		.blue-border{ border: 1px solid #35c; }
	</style>
</head>
<body>
<div class="container">
	<h1>DRP</h1>
	<p>Configure the command below.</p>
	<p>
		Color key: black=default;
		<font color="red">red</font>=error;
		<font color="green">green</font>=value from config file;
		<font color="blue">blue</font>=user entered
	</p>
	<div>
		{{.}}
	</div>
	<footer>
		© 2025 DRP Authors
	</footer>
</div>

<script>
// If the configuration file is changed, send the new file path
// to the server and update fields

let allFlags = [...document.querySelectorAll('[data-name]')];
allFlags.forEach(x => {
	let inputField = x.children[0];
	inputField.addEventListener("input", e => {
		inputField.classList.remove("green-border");
		inputField.classList.add("blue-border");
	})
})

let configInput = allFlags.filter(x => x.dataset.name == "config")[0].children[0];
configInput.addEventListener("input", e => {
	fetch("http://` + address + `/setConfig?config="+configInput.value)
		.then( res => {
			if (res.status !== 200) {
				if (res.status == 204) {
					configInput.classList.remove("blue-border");
					configInput.classList.remove("green-border");
					configInput.classList.add("red-border");
				} else {
					console.log("Error fetching /setConfig: ", response.text());
				}
			} else {
				res.json().then( data => {
					configInput.classList.remove("red-border");
					for (let key in data)
						for(let f of allFlags)
							if (f.dataset.name == key) {
								let input = f.children[0];
								var newValue = JSON.stringify(data[key]).replace(/^"+|"+$/g,'');
								if (input.value != newValue) {
									input.value = newValue
									input.classList.remove("blue-border");
									input.classList.add("green-border");
								}
							}
				})
			}
		})
		.catch( err => {
			console.log("Error fetching /setConfig", err)
		})
})
</script>
</body>
</html>`

	output := template.Must(template.New("").Parse(tmpl))
	server := gobra.Server{Root: Root, ServerAddress: address, AllowCORS: false, HTML: output}
	logrus.Info("Server starting... ")
	open.Run("http://" + address)
	fmt.Println("If not opened automatically, please visit http://" + address)
	server.Start()
}
