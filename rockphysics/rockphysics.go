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

// Package rockphysics implements closed-form effective-medium relations
// for digital rock physics: Voigt-Reuss-Hill and Hashin-Shtrikman
// bounds, fluid mixing laws, Gassmann fluid substitution, Backus
// thin-layer averaging, and the elastic and unit conversions that
// support them. Equations follow Mavko, Mukerji, and Dvorkin (2020),
// The Rock Physics Handbook.
//
// Moduli are in Pa, densities in kg/m³, and velocities in m/s unless a
// function documents otherwise. All functions are pure: they validate
// their inputs and return errors instead of panicking.
package rockphysics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// FractionTolerance is the maximum amount by which volume fractions or
// fluid saturations may deviate from summing to one.
const FractionTolerance = 1.e-6

// checkFractions returns an error if any member of f is negative, not
// a number, or if the members do not sum to one within
// FractionTolerance.
func checkFractions(f []float64) error {
	if len(f) == 0 {
		return fmt.Errorf("rockphysics: got an empty list of volume fractions")
	}
	for i, v := range f {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("rockphysics: volume fraction %d is %g but must be nonnegative", i, v)
		}
	}
	if sum := floats.Sum(f); math.Abs(sum-1) > FractionTolerance {
		return fmt.Errorf("rockphysics: volume fractions sum to %g but must sum to 1", sum)
	}
	return nil
}

// checkNonnegative returns an error if any member of v is negative or
// not a number. name identifies the quantity in the error message.
func checkNonnegative(name string, v []float64) error {
	for i, x := range v {
		if x < 0 || math.IsNaN(x) {
			return fmt.Errorf("rockphysics: %s %d is %g but must be nonnegative", name, i, x)
		}
	}
	return nil
}

// checkPorosity returns an error if φ is outside [0, 1].
func checkPorosity(porosity float64) error {
	if porosity < 0 || porosity > 1 || math.IsNaN(porosity) {
		return fmt.Errorf("rockphysics: porosity is %g but must be within [0, 1]", porosity)
	}
	return nil
}
