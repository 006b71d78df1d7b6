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

package rockphysics

import (
	"fmt"
	"math"

	"github.com/ctessum/unit"
)

// Wavelength returns λ = v/f [m] for a wave of velocity v [m/s] and
// frequency f [Hz].
func Wavelength(velocity, frequency float64) (float64, error) {
	if err := checkPositive("velocity", velocity); err != nil {
		return 0, err
	}
	if err := checkPositive("frequency", frequency); err != nil {
		return 0, err
	}
	return velocity / frequency, nil
}

// Frequency returns f = v/λ [Hz] for a wave of velocity v [m/s] and
// wavelength λ [m].
func Frequency(velocity, wavelength float64) (float64, error) {
	if err := checkPositive("velocity", velocity); err != nil {
		return 0, err
	}
	if err := checkPositive("wavelength", wavelength); err != nil {
		return 0, err
	}
	return velocity / wavelength, nil
}

// Velocity returns v = fλ [m/s] for a wave of frequency f [Hz] and
// wavelength λ [m].
func Velocity(frequency, wavelength float64) (float64, error) {
	if err := checkPositive("frequency", frequency); err != nil {
		return 0, err
	}
	if err := checkPositive("wavelength", wavelength); err != nil {
		return 0, err
	}
	return frequency * wavelength, nil
}

func checkPositive(name string, v float64) error {
	if v <= 0 || math.IsNaN(v) {
		return fmt.Errorf("rockphysics: %s is %g but must be positive", name, v)
	}
	return nil
}

// CTSetup describes a cone-beam micro-CT acquisition geometry. All
// lengths are in meters.
type CTSetup struct {
	SOD            float64 // source-object distance
	SDD            float64 // source-detector distance
	DetectorPixel  float64 // detector pixel pitch
	DetectorWidth  float64 // active detector width
	FocalSpot      float64 // X-ray focal spot size
	SampleDiameter float64 // widest extent of the sample
}

// CTResult holds the derived imaging properties of a CT setup.
type CTResult struct {
	Magnification     float64
	VoxelSize         *unit.Unit // object-space voxel edge length
	Resolution        *unit.Unit // achievable spatial resolution
	ProjectedDiameter *unit.Unit // sample shadow width on the detector
}

// CTGeometry derives the magnification, voxel size and achievable
// resolution of a cone-beam CT acquisition. The voxel size is the
// detector pixel divided by the geometric magnification SDD/SOD; the
// resolution is limited by whichever is coarser, the voxel size or the
// focal-spot blur. An error is returned when the magnified sample
// does not fit on the detector.
func CTGeometry(in CTSetup) (CTResult, error) {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"source-object distance", in.SOD},
		{"source-detector distance", in.SDD},
		{"detector pixel size", in.DetectorPixel},
		{"detector width", in.DetectorWidth},
		{"focal spot size", in.FocalSpot},
		{"sample diameter", in.SampleDiameter},
	} {
		if err := checkPositive(c.name, c.v); err != nil {
			return CTResult{}, err
		}
	}
	if in.SDD < in.SOD {
		return CTResult{}, fmt.Errorf("rockphysics: source-detector distance %g m is less than the source-object distance %g m", in.SDD, in.SOD)
	}

	mag := unit.Div(unit.New(in.SDD, unit.Meter), unit.New(in.SOD, unit.Meter))
	voxel := unit.Div(unit.New(in.DetectorPixel, unit.Meter), mag)
	blur := unit.Div(unit.New(in.FocalSpot, unit.Meter), mag)
	projected := unit.Mul(unit.New(in.SampleDiameter, unit.Meter), mag)
	if projected.Value() > in.DetectorWidth {
		return CTResult{}, fmt.Errorf("rockphysics: the magnified sample spans %v but the detector is only %g m wide; increase the source-object distance",
			projected, in.DetectorWidth)
	}
	return CTResult{
		Magnification:     mag.Value(),
		VoxelSize:         voxel,
		Resolution:        unit.Max(voxel, blur),
		ProjectedDiameter: projected,
	}, nil
}
