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
	"math"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/mat"
)

// MaxInclusions caps the inclusion count of the ellipsoid and ellipse
// generators.
const MaxInclusions = 100

// EllipsoidConfig configures EllipsoidModel.
type EllipsoidConfig struct {
	Nx, Ny, Nz int

	// NumInclusions is the number of ellipsoids to place, at most
	// MaxInclusions. Zero gives a homogeneous background volume.
	NumInclusions int

	// Radius is the ellipsoid radius in voxels.
	Radius float64

	// AspectRatio stretches (>1) or flattens (<1) the ellipsoid
	// along its symmetry axis. Zero means 1, a sphere.
	AspectRatio float64

	// Orientation places the circular section of the ellipsoid in
	// the named plane: "xy" (default, symmetry axis along z), "zx"
	// (along y), or "zy" (along x). Ignored when RandomOrientation
	// is set.
	Orientation string

	// RandomOrientation rotates each inclusion by uniform random
	// ZYX Euler angles.
	RandomOrientation bool

	// BackgroundLabel and InclusionLabel are the two phase values.
	// When both are left zero the digital-rock convention applies:
	// solid background 1, pore inclusions 0.
	BackgroundLabel int
	InclusionLabel  int

	// Seed makes placement and orientation reproducible.
	Seed int64

	// Positions fixes the inclusion centers instead of drawing them
	// from the seeded generator. Length must equal NumInclusions and
	// every center must lie inside the volume.
	Positions [][3]int

	// Periodic wraps inclusions that cross a boundary around to the
	// opposite side, so the volume tiles seamlessly. An inclusion
	// can paint up to 27 lattice images.
	Periodic bool
}

// EllipsoidModel generates a volume of ellipsoidal inclusions in a
// homogeneous background. Overlapping inclusions merge. The returned
// volume carries "background" and "inclusion" labels.
func EllipsoidModel(cfg EllipsoidConfig) (*Volume, error) {
	if cfg.Nx <= 0 || cfg.Ny <= 0 || cfg.Nz <= 0 {
		return nil, fmt.Errorf("drp: dimensions (%d, %d, %d) must be positive", cfg.Nx, cfg.Ny, cfg.Nz)
	}
	if cfg.AspectRatio == 0 {
		cfg.AspectRatio = 1
	}
	if cfg.Orientation == "" {
		cfg.Orientation = "xy"
	}
	switch cfg.Orientation {
	case "xy", "zx", "zy":
	default:
		return nil, fmt.Errorf("drp: invalid orientation %q; use \"xy\", \"zx\", or \"zy\"", cfg.Orientation)
	}
	if cfg.NumInclusions < 0 || cfg.NumInclusions > MaxInclusions {
		return nil, fmt.Errorf("drp: %d inclusions outside the allowed range [0, %d]", cfg.NumInclusions, MaxInclusions)
	}
	if cfg.Radius <= 0 {
		return nil, fmt.Errorf("drp: inclusion radius must be positive")
	}
	if cfg.AspectRatio < 0 {
		return nil, fmt.Errorf("drp: aspect ratio must be positive")
	}
	if cfg.Positions != nil {
		if len(cfg.Positions) != cfg.NumInclusions {
			return nil, fmt.Errorf("drp: got %d positions for %d inclusions", len(cfg.Positions), cfg.NumInclusions)
		}
		for i, p := range cfg.Positions {
			if p[0] < 0 || p[0] >= cfg.Nx || p[1] < 0 || p[1] >= cfg.Ny || p[2] < 0 || p[2] >= cfg.Nz {
				return nil, fmt.Errorf("drp: position %d (%d, %d, %d) is outside the volume", i, p[0], p[1], p[2])
			}
		}
	}
	bg, inc, err := phasePair(cfg.BackgroundLabel, cfg.InclusionLabel)
	if err != nil {
		return nil, err
	}

	v := NewVolume(cfg.Nx, cfg.Ny, cfg.Nz)
	v.Labels = map[int]string{bg: "background", inc: "inclusion"}
	for i := range v.Data.Elements {
		v.Data.Elements[i] = float64(bg)
	}
	if cfg.NumInclusions == 0 {
		return v, nil
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	maxExtent := cfg.Radius * math.Max(1, cfg.AspectRatio)
	for i := 0; i < cfg.NumInclusions; i++ {
		var pos [3]int
		if cfg.Positions != nil {
			pos = cfg.Positions[i]
		} else {
			pos = [3]int{rng.Intn(cfg.Nx), rng.Intn(cfg.Ny), rng.Intn(cfg.Nz)}
		}
		// One orientation per inclusion, shared by its lattice
		// images so periodic copies line up across the seam.
		var rot *[9]float64
		if cfg.RandomOrientation {
			alpha := rng.Float64() * 2 * math.Pi
			beta := rng.Float64() * math.Pi
			gamma := rng.Float64() * 2 * math.Pi
			rot = eulerZYX(alpha, beta, gamma)
		}
		for _, sx := range axisShifts(pos[0], cfg.Nx, maxExtent, cfg.Periodic) {
			for _, sy := range axisShifts(pos[1], cfg.Ny, maxExtent, cfg.Periodic) {
				for _, sz := range axisShifts(pos[2], cfg.Nz, maxExtent, cfg.Periodic) {
					paintEllipsoid(v, pos[0]+sx, pos[1]+sy, pos[2]+sz,
						cfg.Radius, cfg.AspectRatio, cfg.Orientation, rot, float64(inc))
				}
			}
		}
	}
	return v, nil
}

// phasePair applies the digital-rock label convention (solid matrix 1,
// pore inclusions 0) when both labels are left at zero.
func phasePair(bg, inc int) (int, int, error) {
	if bg == inc {
		if bg != 0 {
			return 0, 0, fmt.Errorf("drp: background and inclusion labels are both %d", bg)
		}
		return 1, 0, nil
	}
	return bg, inc, nil
}

// axisShifts returns the lattice offsets an inclusion at pos paints
// along one axis: the origin, plus the wrapped copy for each boundary
// its extent crosses.
func axisShifts(pos, n int, extent float64, periodic bool) []int {
	shifts := []int{0}
	if !periodic {
		return shifts
	}
	if float64(pos)-extent < 0 {
		shifts = append(shifts, n)
	}
	if float64(pos)+extent >= float64(n) {
		shifts = append(shifts, -n)
	}
	return shifts
}

// eulerZYX builds the rotation matrix R = Rz(α)·Ry(β)·Rx(γ) in
// row-major order.
func eulerZYX(alpha, beta, gamma float64) *[9]float64 {
	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	sg, cg := math.Sincos(gamma)
	rz := mat.NewDense(3, 3, []float64{ca, -sa, 0, sa, ca, 0, 0, 0, 1})
	ry := mat.NewDense(3, 3, []float64{cb, 0, sb, 0, 1, 0, -sb, 0, cb})
	rx := mat.NewDense(3, 3, []float64{1, 0, 0, 0, cg, -sg, 0, sg, cg})
	var rzy, r mat.Dense
	rzy.Mul(rz, ry)
	r.Mul(&rzy, rx)
	var out [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = r.At(i, j)
		}
	}
	return &out
}

// paintEllipsoid sets the inclusion label on every voxel inside the
// ellipsoid centered at (cx, cy, cz), which may lie outside the
// volume when painting a periodic image.
func paintEllipsoid(v *Volume, cx, cy, cz int, radius, aspect float64, orientation string, rot *[9]float64, label float64) {
	nx, ny, nz := v.Nx(), v.Ny(), v.Nz()
	ext := radius * math.Max(1, aspect)
	x0, x1 := clipRange(cx, ext, nx)
	y0, y1 := clipRange(cy, ext, ny)
	z0, z1 := clipRange(cz, ext, nz)
	r2 := radius * radius
	ar2 := aspect * radius * aspect * radius
	for x := x0; x <= x1; x++ {
		dx := float64(x - cx)
		for y := y0; y <= y1; y++ {
			dy := float64(y - cy)
			for z := z0; z <= z1; z++ {
				dz := float64(z - cz)
				var inside bool
				if rot != nil {
					// Rotate into the ellipsoid frame; the
					// symmetry axis is z there.
					rx := rot[0]*dx + rot[1]*dy + rot[2]*dz
					ry := rot[3]*dx + rot[4]*dy + rot[5]*dz
					rz := rot[6]*dx + rot[7]*dy + rot[8]*dz
					inside = (rx*rx+ry*ry)/r2+rz*rz/ar2 <= 1
				} else {
					switch orientation {
					case "xy":
						inside = (dx*dx+dy*dy)/r2+dz*dz/ar2 <= 1
					case "zx":
						inside = (dz*dz+dx*dx)/r2+dy*dy/ar2 <= 1
					case "zy":
						inside = (dz*dz+dy*dy)/r2+dx*dx/ar2 <= 1
					}
				}
				if inside {
					v.Data.Elements[(x*ny+y)*nz+z] = label
				}
			}
		}
	}
}

// clipRange clips the closed interval [c-ext, c+ext] to [0, n-1].
func clipRange(c int, ext float64, n int) (int, int) {
	lo := int(math.Floor(float64(c) - ext))
	hi := int(math.Ceil(float64(c) + ext))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return lo, hi
}

// EllipseConfig configures EllipseModel, the 2D counterpart of
// EllipsoidConfig. AspectRatio stretches the ellipse along y.
type EllipseConfig struct {
	Nx, Ny            int
	NumInclusions     int
	Radius            float64
	AspectRatio       float64
	RandomOrientation bool
	BackgroundLabel   int
	InclusionLabel    int
	Seed              int64
	Positions         [][2]int
	Periodic          bool
}

// EllipseModel generates a 2D model of elliptical inclusions, stored
// as an (nx, ny, 1) volume for consistency with the 3D generators.
func EllipseModel(cfg EllipseConfig) (*Volume, error) {
	if cfg.Nx <= 0 || cfg.Ny <= 0 {
		return nil, fmt.Errorf("drp: dimensions (%d, %d) must be positive", cfg.Nx, cfg.Ny)
	}
	if cfg.AspectRatio == 0 {
		cfg.AspectRatio = 1
	}
	if cfg.NumInclusions < 0 || cfg.NumInclusions > MaxInclusions {
		return nil, fmt.Errorf("drp: %d inclusions outside the allowed range [0, %d]", cfg.NumInclusions, MaxInclusions)
	}
	if cfg.Radius <= 0 {
		return nil, fmt.Errorf("drp: inclusion radius must be positive")
	}
	if cfg.AspectRatio < 0 {
		return nil, fmt.Errorf("drp: aspect ratio must be positive")
	}
	if cfg.Positions != nil {
		if len(cfg.Positions) != cfg.NumInclusions {
			return nil, fmt.Errorf("drp: got %d positions for %d inclusions", len(cfg.Positions), cfg.NumInclusions)
		}
		for i, p := range cfg.Positions {
			if p[0] < 0 || p[0] >= cfg.Nx || p[1] < 0 || p[1] >= cfg.Ny {
				return nil, fmt.Errorf("drp: position %d (%d, %d) is outside the model", i, p[0], p[1])
			}
		}
	}
	bg, inc, err := phasePair(cfg.BackgroundLabel, cfg.InclusionLabel)
	if err != nil {
		return nil, err
	}

	v := NewVolume(cfg.Nx, cfg.Ny, 1)
	v.Labels = map[int]string{bg: "background", inc: "inclusion"}
	for i := range v.Data.Elements {
		v.Data.Elements[i] = float64(bg)
	}
	if cfg.NumInclusions == 0 {
		return v, nil
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	maxExtent := cfg.Radius * math.Max(1, cfg.AspectRatio)
	for i := 0; i < cfg.NumInclusions; i++ {
		var pos [2]int
		if cfg.Positions != nil {
			pos = cfg.Positions[i]
		} else {
			pos = [2]int{rng.Intn(cfg.Nx), rng.Intn(cfg.Ny)}
		}
		sin, cos := 0.0, 1.0
		if cfg.RandomOrientation {
			sin, cos = math.Sincos(rng.Float64() * 2 * math.Pi)
		}
		for _, sx := range axisShifts(pos[0], cfg.Nx, maxExtent, cfg.Periodic) {
			for _, sy := range axisShifts(pos[1], cfg.Ny, maxExtent, cfg.Periodic) {
				paintEllipse(v, pos[0]+sx, pos[1]+sy, cfg.Radius, cfg.AspectRatio, sin, cos, float64(inc))
			}
		}
	}
	return v, nil
}

func paintEllipse(v *Volume, cx, cy int, radius, aspect, sin, cos float64, label float64) {
	nx, ny := v.Nx(), v.Ny()
	ext := radius * math.Max(1, aspect)
	x0, x1 := clipRange(cx, ext, nx)
	y0, y1 := clipRange(cy, ext, ny)
	r2 := radius * radius
	ar2 := aspect * radius * aspect * radius
	for x := x0; x <= x1; x++ {
		dx := float64(x - cx)
		for y := y0; y <= y1; y++ {
			dy := float64(y - cy)
			xr := dx*cos - dy*sin
			yr := dx*sin + dy*cos
			if xr*xr/r2+yr*yr/ar2 <= 1 {
				v.Data.Elements[x*ny+y] = label
			}
		}
	}
}

// LayerMode selects how the layer thickness pattern maps onto the z
// extent of the volume.
type LayerMode int

const (
	// LayerRepeat cycles the pattern unchanged until nz is filled.
	LayerRepeat LayerMode = iota

	// LayerScaleToNz scales the pattern so a single stack spans nz.
	LayerScaleToNz

	// LayerCycles scales the pattern so exactly Cycles repetitions
	// span nz.
	LayerCycles
)

func (m LayerMode) String() string {
	switch m {
	case LayerRepeat:
		return "repeated"
	case LayerScaleToNz:
		return "scaled"
	case LayerCycles:
		return "cycled"
	}
	return fmt.Sprintf("LayerMode(%d)", int(m))
}

// LayerConfig configures LayeredModel.
type LayerConfig struct {
	Nx, Ny, Nz int

	// Thicknesses is the layer thickness pattern in voxels.
	// Fractional thicknesses are allowed; layer boundaries round to
	// voxel edges while the accumulated position stays exact.
	Thicknesses []float64

	// Phases assigns a phase value to each pattern layer. When nil,
	// NumPhases must be set and phases cycle from StartPhase.
	Phases []int

	// NumPhases and StartPhase drive automatic phase assignment:
	// layer i gets StartPhase + i mod NumPhases.
	NumPhases  int
	StartPhase int

	// Mode selects the pattern mapping; LayerCycles requires Cycles.
	Mode   LayerMode
	Cycles int
}

// LayerMetadata reports how a layered volume was actually built.
type LayerMetadata struct {
	Mode            string
	CyclesCompleted int
	PartialCycle    float64   // fraction of the final incomplete cycle, [0, 1]
	TotalLayers     int       // layers placed
	PatternLength   int       // layers per cycle
	Thicknesses     []float64 // pattern thicknesses after scaling, voxels
	Phases          []int
	Nz              int
}

// LayeredModel generates horizontal layers perpendicular to z from a
// thickness pattern. Layers always occupy at least one voxel; a
// rounding gap left at the top of the volume is filled with the last
// pattern phase.
func LayeredModel(cfg LayerConfig) (*Volume, LayerMetadata, error) {
	var meta LayerMetadata
	if cfg.Nx <= 0 || cfg.Ny <= 0 || cfg.Nz <= 0 {
		return nil, meta, fmt.Errorf("drp: dimensions (%d, %d, %d) must be positive", cfg.Nx, cfg.Ny, cfg.Nz)
	}
	if len(cfg.Thicknesses) == 0 {
		return nil, meta, fmt.Errorf("drp: the layer thickness pattern is empty")
	}
	for _, t := range cfg.Thicknesses {
		if t <= 0 || math.IsNaN(t) {
			return nil, meta, fmt.Errorf("drp: layer thickness %g must be positive", t)
		}
	}
	phases := cfg.Phases
	if phases == nil {
		if cfg.NumPhases < 1 {
			return nil, meta, fmt.Errorf("drp: provide Phases or NumPhases for automatic phase assignment")
		}
		phases = make([]int, len(cfg.Thicknesses))
		for i := range phases {
			phases[i] = cfg.StartPhase + i%cfg.NumPhases
		}
	}
	if len(phases) != len(cfg.Thicknesses) {
		return nil, meta, fmt.Errorf("drp: %d phases for %d pattern layers", len(phases), len(cfg.Thicknesses))
	}
	for _, p := range phases {
		if p < cfg.StartPhase {
			return nil, meta, fmt.Errorf("drp: phase %d is below the start phase %d", p, cfg.StartPhase)
		}
	}

	thicknesses := append([]float64(nil), cfg.Thicknesses...)
	var total float64
	for _, t := range thicknesses {
		total += t
	}
	repeat := true
	switch cfg.Mode {
	case LayerRepeat:
	case LayerScaleToNz:
		repeat = false
		factor := float64(cfg.Nz) / total
		for i := range thicknesses {
			thicknesses[i] *= factor
		}
	case LayerCycles:
		if cfg.Cycles <= 0 {
			return nil, meta, fmt.Errorf("drp: LayerCycles mode needs a positive cycle count, got %d", cfg.Cycles)
		}
		factor := float64(cfg.Nz) / (float64(cfg.Cycles) * total)
		for i := range thicknesses {
			thicknesses[i] *= factor
		}
	default:
		return nil, meta, fmt.Errorf("drp: unknown layer mode %v", cfg.Mode)
	}

	v := NewVolume(cfg.Nx, cfg.Ny, cfg.Nz)
	n := len(thicknesses)
	var patternSum float64
	for _, t := range thicknesses {
		patternSum += t
	}

	var currentZ float64
	idx, lastEnd, placed, cycles := 0, 0, 0, 0
	for currentZ < float64(cfg.Nz) {
		thickness := thicknesses[idx]
		phase := phases[idx]
		zStart := int(math.Round(currentZ))
		zEnd := int(math.Round(currentZ + thickness))
		if zEnd <= zStart {
			zEnd = zStart + 1 // at least one voxel
		}
		if zStart >= cfg.Nz {
			break
		}
		if zEnd > cfg.Nz {
			zEnd = cfg.Nz
		}
		fillLayers(v, zStart, zEnd, float64(phase))
		lastEnd = zEnd
		placed++
		currentZ += thickness

		prev := idx
		if repeat {
			idx = (idx + 1) % n
			if idx < prev {
				cycles++
			}
		} else if idx < n-1 {
			idx++
		}
		if cfg.Mode == LayerCycles && cycles >= cfg.Cycles {
			break
		}
	}

	if lastEnd < cfg.Nz {
		fillLayers(v, lastEnd, cfg.Nz, float64(phases[n-1]))
	}

	var partial float64
	if repeat && cycles > 0 {
		if used := float64(cycles) * patternSum; currentZ > used {
			partial = (currentZ - used) / patternSum
			partial = math.Min(math.Max(partial, 0), 1)
		}
	}
	meta = LayerMetadata{
		Mode:            cfg.Mode.String(),
		CyclesCompleted: cycles,
		PartialCycle:    partial,
		TotalLayers:     placed,
		PatternLength:   n,
		Thicknesses:     thicknesses,
		Phases:          phases,
		Nz:              cfg.Nz,
	}
	return v, meta, nil
}

func fillLayers(v *Volume, zStart, zEnd int, phase float64) {
	nx, ny, nz := v.Nx(), v.Ny(), v.Nz()
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			base := (x*ny + y) * nz
			for z := zStart; z < zEnd; z++ {
				v.Data.Elements[base+z] = phase
			}
		}
	}
}

// NoiseConfig configures NoiseModel.
type NoiseConfig struct {
	Nx, Ny, Nz int

	// Porosity is the target pore fraction, in (0, 1). The noise
	// field is thresholded at this quantile, so the generated pore
	// fraction matches it to within one voxel.
	Porosity float64

	// Frequency is the base noise frequency per voxel (0.05 when
	// zero); lower values give larger, smoother pore structures.
	Frequency float64

	// Octaves and Persistence control the fractal detail: each
	// octave doubles the frequency and scales amplitude by
	// Persistence. Defaults 4 and 0.5.
	Octaves     int
	Persistence float64

	Seed int64

	// PoreLabel and SolidLabel default to the digital-rock
	// convention, pore 0 and solid 1.
	PoreLabel  int
	SolidLabel int
}

// NoiseModel generates a correlated two-phase microstructure by
// thresholding multi-octave simplex noise at the target porosity.
func NoiseModel(cfg NoiseConfig) (*Volume, error) {
	if cfg.Nx <= 0 || cfg.Ny <= 0 || cfg.Nz <= 0 {
		return nil, fmt.Errorf("drp: dimensions (%d, %d, %d) must be positive", cfg.Nx, cfg.Ny, cfg.Nz)
	}
	if cfg.Porosity <= 0 || cfg.Porosity >= 1 {
		return nil, fmt.Errorf("drp: porosity %g must be between 0 and 1", cfg.Porosity)
	}
	if cfg.Frequency == 0 {
		cfg.Frequency = 0.05
	}
	if cfg.Frequency < 0 {
		return nil, fmt.Errorf("drp: frequency must be positive")
	}
	if cfg.Octaves == 0 {
		cfg.Octaves = 4
	}
	if cfg.Octaves < 1 {
		return nil, fmt.Errorf("drp: at least one noise octave is needed")
	}
	if cfg.Persistence == 0 {
		cfg.Persistence = 0.5
	}
	if cfg.Persistence < 0 {
		return nil, fmt.Errorf("drp: persistence must be positive")
	}
	solid, pore, err := phasePair(cfg.SolidLabel, cfg.PoreLabel)
	if err != nil {
		return nil, err
	}

	noise := opensimplex.NewNormalized(cfg.Seed)
	v := NewVolume(cfg.Nx, cfg.Ny, cfg.Nz)
	v.Labels = map[int]string{pore: "pore", solid: "solid"}
	field := v.Data.Elements
	i := 0
	for x := 0; x < cfg.Nx; x++ {
		for y := 0; y < cfg.Ny; y++ {
			for z := 0; z < cfg.Nz; z++ {
				field[i] = octaveNoise3(noise, float64(x), float64(y), float64(z),
					cfg.Octaves, cfg.Frequency, cfg.Persistence)
				i++
			}
		}
	}

	// Threshold at the porosity quantile of the field itself, so the
	// pore fraction hits the target regardless of the noise value
	// distribution.
	sorted := append([]float64(nil), field...)
	sort.Float64s(sorted)
	k := int(cfg.Porosity * float64(len(sorted)))
	if k > len(sorted)-1 {
		k = len(sorted) - 1
	}
	threshold := sorted[k]
	for i, e := range field {
		if e < threshold {
			field[i] = float64(pore)
		} else {
			field[i] = float64(solid)
		}
	}
	return v, nil
}

// octaveNoise3 layers noise octaves, each at double the frequency and
// Persistence times the amplitude of the last.
func octaveNoise3(noise opensimplex.Noise, x, y, z float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval3(x*frequency, y*frequency, z*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}
