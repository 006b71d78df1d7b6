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
	"sort"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/sparse"
)

// Volume holds a segmented or grayscale rock volume. Data always has
// shape (nx, ny, nz); imports reorient on-disk axis orders to this
// layout. 2D images are stored with nz = 1.
type Volume struct {
	Data *sparse.DenseArray

	// VoxelSize is the voxel edge length [μm]. Zero means unknown.
	VoxelSize float64

	// Labels maps phase values to phase names,
	// e.g. {0: "Pore", 1: "Quartz"}. May be nil for unlabeled data.
	Labels map[int]string
}

// NewVolume creates a zero-filled volume with the given dimensions.
func NewVolume(nx, ny, nz int) *Volume {
	return &Volume{Data: sparse.ZerosDense(nx, ny, nz)}
}

// Nx returns the number of voxels along the x axis.
func (v *Volume) Nx() int { return v.Data.Shape[0] }

// Ny returns the number of voxels along the y axis.
func (v *Volume) Ny() int { return v.Data.Shape[1] }

// Nz returns the number of voxels along the z axis.
func (v *Volume) Nz() int { return v.Data.Shape[2] }

func (v *Volume) check3d() error {
	if v.Data == nil {
		return fmt.Errorf("drp: volume has no data")
	}
	if len(v.Data.Shape) != 3 {
		return fmt.Errorf("drp: volume is %d-dimensional; expected 3", len(v.Data.Shape))
	}
	return nil
}

// NormalizeLabels shifts phase values so the minimum label is zero:
// a minimum of −1 is shifted by +1 and a minimum of 1 by −1, matching
// the conventions of common segmentation tools. Any other minimum is
// left alone. The applied shift is returned, and the Labels keys are
// moved along with the data.
func (v *Volume) NormalizeLabels() int {
	if v.Data == nil || len(v.Data.Elements) == 0 {
		return 0
	}
	min := v.Data.Elements[0]
	for _, e := range v.Data.Elements {
		if e < min {
			min = e
		}
	}
	var shift int
	switch min {
	case -1:
		shift = 1
	case 1:
		shift = -1
	default:
		return 0
	}
	v.ShiftLabels(shift)
	return shift
}

// ShiftLabels adds shift to every voxel value and moves the Labels
// keys along with the data.
func (v *Volume) ShiftLabels(shift int) {
	if shift == 0 || v.Data == nil {
		return
	}
	for i := range v.Data.Elements {
		v.Data.Elements[i] += float64(shift)
	}
	if v.Labels != nil {
		shifted := make(map[int]string, len(v.Labels))
		for key, name := range v.Labels {
			shifted[key+shift] = name
		}
		v.Labels = shifted
	}
}

// PhaseCounts returns the number of voxels holding each phase value.
func (v *Volume) PhaseCounts() map[int]int {
	counts := make(map[int]int)
	for _, e := range v.Data.Elements {
		counts[int(math.Round(e))]++
	}
	return counts
}

// PhaseFractions returns the volume fraction of each phase, summing
// to one.
func (v *Volume) PhaseFractions() map[int]float64 {
	counts := v.PhaseCounts()
	total := float64(len(v.Data.Elements))
	fractions := make(map[int]float64, len(counts))
	for phase, n := range counts {
		fractions[phase] = float64(n) / total
	}
	return fractions
}

// Phases returns the phase values present in the volume in increasing
// order.
func (v *Volume) Phases() []int {
	counts := v.PhaseCounts()
	phases := make([]int, 0, len(counts))
	for p := range counts {
		phases = append(phases, p)
	}
	sort.Ints(phases)
	return phases
}

// VolumeStats summarizes the value distribution of a volume.
type VolumeStats struct {
	Mean   float64
	StdDev float64 // sample standard deviation
	Min    float64
	Max    float64
	Unique int // number of distinct values
}

// Statistics calculates summary statistics over all voxels.
func (v *Volume) Statistics() VolumeStats {
	seen := make(map[float64]struct{})
	for _, e := range v.Data.Elements {
		seen[e] = struct{}{}
	}
	return VolumeStats{
		Mean:   stats.StatsMean(v.Data.Elements),
		StdDev: stats.StatsSampleStandardDeviation(v.Data.Elements),
		Min:    stats.StatsMin(v.Data.Elements),
		Max:    stats.StatsMax(v.Data.Elements),
		Unique: len(seen),
	}
}

// Classify reports what kind of data the volume appears to hold based
// on the number of distinct values: "segmented" (≤10), "8-bit
// grayscale" (≤256), "16-bit grayscale" (≤65536), or "continuous".
func (v *Volume) Classify() string {
	switch unique := v.Statistics().Unique; {
	case unique <= 10:
		return "segmented"
	case unique <= 256:
		return "8-bit grayscale"
	case unique <= 65536:
		return "16-bit grayscale"
	default:
		return "continuous"
	}
}

// Subvolume extracts a centered cubic crop with the given edge length.
func (v *Volume) Subvolume(side int) (*Volume, error) {
	if err := v.check3d(); err != nil {
		return nil, err
	}
	nx, ny, nz := v.Nx(), v.Ny(), v.Nz()
	if side <= 0 {
		return nil, fmt.Errorf("drp: subvolume side %d must be positive", side)
	}
	if side > nx || side > ny || side > nz {
		return nil, fmt.Errorf("drp: subvolume side %d exceeds volume dimensions (%d, %d, %d)",
			side, nx, ny, nz)
	}
	x0 := (nx - side) / 2
	y0 := (ny - side) / 2
	z0 := (nz - side) / 2
	sub := NewVolume(side, side, side)
	sub.VoxelSize = v.VoxelSize
	if v.Labels != nil {
		sub.Labels = make(map[int]string, len(v.Labels))
		for key, name := range v.Labels {
			sub.Labels[key] = name
		}
	}
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			for z := 0; z < side; z++ {
				sub.Data.Elements[(x*side+y)*side+z] =
					v.Data.Elements[((x0+x)*ny+y0+y)*nz+z0+z]
			}
		}
	}
	return sub, nil
}

// Slice extracts a 2D section through the volume. Valid planes are
// "xy" (index along z, result shape (nx, ny)), "xz" (index along y,
// result shape (nx, nz)), and "yz" (index along x, result shape
// (ny, nz)).
func (v *Volume) Slice(plane string, index int) (*sparse.DenseArray, error) {
	if err := v.check3d(); err != nil {
		return nil, err
	}
	nx, ny, nz := v.Nx(), v.Ny(), v.Nz()
	var out *sparse.DenseArray
	switch plane {
	case "xy":
		if index < 0 || index >= nz {
			return nil, fmt.Errorf("drp: xy slice index %d out of range [0, %d)", index, nz)
		}
		out = sparse.ZerosDense(nx, ny)
		for x := 0; x < nx; x++ {
			for y := 0; y < ny; y++ {
				out.Elements[x*ny+y] = v.Data.Elements[(x*ny+y)*nz+index]
			}
		}
	case "xz":
		if index < 0 || index >= ny {
			return nil, fmt.Errorf("drp: xz slice index %d out of range [0, %d)", index, ny)
		}
		out = sparse.ZerosDense(nx, nz)
		for x := 0; x < nx; x++ {
			for z := 0; z < nz; z++ {
				out.Elements[x*nz+z] = v.Data.Elements[(x*ny+index)*nz+z]
			}
		}
	case "yz":
		if index < 0 || index >= nx {
			return nil, fmt.Errorf("drp: yz slice index %d out of range [0, %d)", index, nx)
		}
		out = sparse.ZerosDense(ny, nz)
		copy(out.Elements, v.Data.Elements[index*ny*nz:(index+1)*ny*nz])
	default:
		return nil, fmt.Errorf("drp: invalid plane %q; use \"xy\", \"xz\", or \"yz\"", plane)
	}
	return out, nil
}

// SliceWithAllPhases returns the first index along the given plane
// whose slice contains every phase present in the volume. It is used
// to pick a representative slice for previews of segmented data.
func (v *Volume) SliceWithAllPhases(plane string) (int, error) {
	if err := v.check3d(); err != nil {
		return 0, err
	}
	all := v.Phases()
	var n int
	switch plane {
	case "xy":
		n = v.Nz()
	case "xz":
		n = v.Ny()
	case "yz":
		n = v.Nx()
	default:
		return 0, fmt.Errorf("drp: invalid plane %q; use \"xy\", \"xz\", or \"yz\"", plane)
	}
	for i := 0; i < n; i++ {
		s, err := v.Slice(plane, i)
		if err != nil {
			return 0, err
		}
		present := make(map[int]struct{})
		for _, e := range s.Elements {
			present[int(math.Round(e))] = struct{}{}
		}
		found := true
		for _, p := range all {
			if _, ok := present[p]; !ok {
				found = false
				break
			}
		}
		if found {
			return i, nil
		}
	}
	return 0, fmt.Errorf("drp: no %s slice contains all %d phases", plane, len(all))
}

// ConnectedPores labels the connected components of the given pore
// phase using 6-connectivity. The returned volume holds the component
// number (1-based) in each pore voxel and zero elsewhere; the second
// return is the number of components found.
func (v *Volume) ConnectedPores(pore int) (*Volume, int, error) {
	if err := v.check3d(); err != nil {
		return nil, 0, err
	}
	nx, ny, nz := v.Nx(), v.Ny(), v.Nz()
	n := len(v.Data.Elements)

	isPore := make([]bool, n)
	for i, e := range v.Data.Elements {
		isPore[i] = int(math.Round(e)) == pore
	}

	// Union-find with path halving over the flattened voxel indices.
	parent := make([]int32, n)
	for i := range parent {
		parent[i] = int32(i)
	}
	find := func(i int32) int32 {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int32) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				i := (x*ny+y)*nz + z
				if !isPore[i] {
					continue
				}
				if x > 0 && isPore[i-ny*nz] {
					union(int32(i), int32(i-ny*nz))
				}
				if y > 0 && isPore[i-nz] {
					union(int32(i), int32(i-nz))
				}
				if z > 0 && isPore[i-1] {
					union(int32(i), int32(i-1))
				}
			}
		}
	}

	out := NewVolume(nx, ny, nz)
	out.VoxelSize = v.VoxelSize
	components := make(map[int32]int)
	for i := 0; i < n; i++ {
		if !isPore[i] {
			continue
		}
		root := find(int32(i))
		id, ok := components[root]
		if !ok {
			id = len(components) + 1
			components[root] = id
		}
		out.Data.Elements[i] = float64(id)
	}
	return out, len(components), nil
}
