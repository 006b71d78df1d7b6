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

import "github.com/ctessum/unit"

// GPaToPa converts a modulus from gigapascals to pascals.
func GPaToPa(v float64) float64 { return v * 1.e9 }

// PaToGPa converts a modulus from pascals to gigapascals.
func PaToGPa(v float64) float64 { return v * 1.e-9 }

// MToMm converts a length from meters to millimeters.
func MToMm(v float64) float64 { return v * 1.e3 }

// MmToM converts a length from millimeters to meters.
func MmToM(v float64) float64 { return v * 1.e-3 }

// MToUm converts a length from meters to micrometers.
func MToUm(v float64) float64 { return v * 1.e6 }

// UmToM converts a length from micrometers to meters.
func UmToM(v float64) float64 { return v * 1.e-6 }

// GPaToPaSlice converts each member of v from gigapascals to pascals,
// returning a new slice.
func GPaToPaSlice(v []float64) []float64 { return scale(v, 1.e9) }

// PaToGPaSlice converts each member of v from pascals to gigapascals,
// returning a new slice.
func PaToGPaSlice(v []float64) []float64 { return scale(v, 1.e-9) }

func scale(v []float64, factor float64) []float64 {
	o := make([]float64, len(v))
	for i, x := range v {
		o[i] = x * factor
	}
	return o
}

// Pressure returns p [GPa] as a dimensioned pressure in Pa.
func Pressure(p float64) *unit.Unit { return unit.New(p*1.e9, unit.Pascal) }

// Length returns l [m] as a dimensioned length.
func Length(l float64) *unit.Unit { return unit.New(l, unit.Meter) }

// VoxelSize returns a voxel edge length given in micrometers as a
// dimensioned length in meters.
func VoxelSize(um float64) *unit.Unit { return unit.New(um*1.e-6, unit.Meter) }
