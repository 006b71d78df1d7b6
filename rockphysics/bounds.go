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

	"gonum.org/v1/gonum/floats"
)

// VoigtBound returns the Voigt (isostrain, upper) bound on the
// effective modulus of an assemblage: M = Σ f·M. Voigt (1889).
func VoigtBound(fractions, moduli []float64) (float64, error) {
	if len(fractions) != len(moduli) {
		return 0, fmt.Errorf("rockphysics: got %d volume fractions but %d moduli", len(fractions), len(moduli))
	}
	if err := checkFractions(fractions); err != nil {
		return 0, err
	}
	if err := checkNonnegative("modulus", moduli); err != nil {
		return 0, err
	}
	return floats.Dot(fractions, moduli), nil
}

// ReussBound returns the Reuss (isostress, lower) bound on the
// effective modulus of an assemblage: M = 1/Σ(f/M). A constituent with
// zero modulus gives a zero bound, the suspension limit. Reuss (1929).
func ReussBound(fractions, moduli []float64) (float64, error) {
	if len(fractions) != len(moduli) {
		return 0, fmt.Errorf("rockphysics: got %d volume fractions but %d moduli", len(fractions), len(moduli))
	}
	if err := checkFractions(fractions); err != nil {
		return 0, err
	}
	if err := checkNonnegative("modulus", moduli); err != nil {
		return 0, err
	}
	var sum float64
	for i, f := range fractions {
		if f == 0 { // an absent phase cannot carry stress
			continue
		}
		sum += f / moduli[i] // f/0 = +Inf; the bound then collapses to 0.
	}
	return 1 / sum, nil
}

// HillAverage returns the arithmetic mean of the Voigt and Reuss
// bounds, the customary single-value estimate. Hill (1952).
func HillAverage(voigt, reuss float64) float64 {
	return (voigt + reuss) / 2
}

// VRHBounds holds Voigt-Reuss-Hill bounds and averages for the bulk
// and shear moduli of an assemblage [Pa].
type VRHBounds struct {
	KVoigt, KReuss, KHill float64
	GVoigt, GReuss, GHill float64
}

// VoigtReussHill returns the Voigt and Reuss bounds and Hill averages
// for both the bulk and shear moduli of an isotropic assemblage.
func VoigtReussHill(fractions, bulkModuli, shearModuli []float64) (VRHBounds, error) {
	if len(fractions) != len(bulkModuli) || len(fractions) != len(shearModuli) {
		return VRHBounds{}, fmt.Errorf("rockphysics: got %d volume fractions, %d bulk moduli and %d shear moduli; all must match",
			len(fractions), len(bulkModuli), len(shearModuli))
	}
	var b VRHBounds
	var err error
	if b.KVoigt, err = VoigtBound(fractions, bulkModuli); err != nil {
		return VRHBounds{}, err
	}
	if b.KReuss, err = ReussBound(fractions, bulkModuli); err != nil {
		return VRHBounds{}, err
	}
	if b.GVoigt, err = VoigtBound(fractions, shearModuli); err != nil {
		return VRHBounds{}, err
	}
	if b.GReuss, err = ReussBound(fractions, shearModuli); err != nil {
		return VRHBounds{}, err
	}
	b.KHill = HillAverage(b.KVoigt, b.KReuss)
	b.GHill = HillAverage(b.GVoigt, b.GReuss)
	return b, nil
}

// HSBounds holds Hashin-Shtrikman bounds and their midpoints for the
// bulk and shear moduli of an assemblage [Pa].
type HSBounds struct {
	KLower, KUpper, KAvg float64
	GLower, GUpper, GAvg float64
}

// HashinShtrikman returns the Hashin-Shtrikman upper and lower bounds
// on the bulk and shear moduli of an isotropic assemblage, the
// narrowest bounds obtainable without geometric information. Hashin
// and Shtrikman (1963); multiphase form after Walpole (1966):
//
//	K± = [Σ f/(K + 4/3 G_ext)]⁻¹ - 4/3 G_ext,
//	G± = [Σ f/(G + ζ_ext)]⁻¹ - ζ_ext,  ζ = G/6 (9K+8G)/(K+2G),
//
// where the upper bound takes the extremes over the assemblage
// (K_max, G_max) and the lower bound (K_min, G_min). The bounds are
// optimal only when the stiffest constituent in bulk is also the
// stiffest in shear.
func HashinShtrikman(fractions, bulkModuli, shearModuli []float64) (HSBounds, error) {
	if len(fractions) != len(bulkModuli) || len(fractions) != len(shearModuli) {
		return HSBounds{}, fmt.Errorf("rockphysics: got %d volume fractions, %d bulk moduli and %d shear moduli; all must match",
			len(fractions), len(bulkModuli), len(shearModuli))
	}
	if err := checkFractions(fractions); err != nil {
		return HSBounds{}, err
	}
	if err := checkNonnegative("bulk modulus", bulkModuli); err != nil {
		return HSBounds{}, err
	}
	if err := checkNonnegative("shear modulus", shearModuli); err != nil {
		return HSBounds{}, err
	}
	kMax, kMin := floats.Max(bulkModuli), floats.Min(bulkModuli)
	gMax, gMin := floats.Max(shearModuli), floats.Min(shearModuli)

	var b HSBounds
	b.KUpper = hsModulus(fractions, bulkModuli, 4./3.*gMax)
	b.KLower = hsModulus(fractions, bulkModuli, 4./3.*gMin)
	b.GUpper = hsModulus(fractions, shearModuli, hsZeta(kMax, gMax))
	b.GLower = hsModulus(fractions, shearModuli, hsZeta(kMin, gMin))
	b.KAvg = (b.KUpper + b.KLower) / 2
	b.GAvg = (b.GUpper + b.GLower) / 2
	return b, nil
}

// hsModulus evaluates the Hashin-Shtrikman bound functional
// [Σ f/(M + z)]⁻¹ - z. When z is zero and some modulus is zero the
// sum is infinite and the bound collapses to zero.
func hsModulus(fractions, moduli []float64, z float64) float64 {
	var sum float64
	for i, f := range fractions {
		if f == 0 {
			continue
		}
		sum += f / (moduli[i] + z)
	}
	return 1/sum - z
}

// hsZeta is the shear-bound substitute for 4/3 G.
func hsZeta(k, g float64) float64 {
	if k+2*g == 0 {
		return 0
	}
	return g / 6 * (9*k + 8*g) / (k + 2*g)
}

// Phase describes one constituent of an assemblage.
type Phase struct {
	Name string
	K    float64 // bulk modulus [Pa]
	G    float64 // shear modulus [Pa]
	Rho  float64 // density [kg/m³]
}

// SweepPoint holds the bounds of a two-phase mineral-fluid mixture at
// one porosity, for plotting and reporting.
type SweepPoint struct {
	Porosity float64
	VRH      VRHBounds
	HS       HSBounds
	Rho      float64 // mixture density [kg/m³]
}

// BoundsSweep evaluates the Voigt-Reuss-Hill and Hashin-Shtrikman
// bounds of a two-phase mineral-fluid mixture over a range of
// porosities. Porosities must be within [0, 1].
func BoundsSweep(porosities []float64, mineral, fluid Phase) ([]SweepPoint, error) {
	if len(porosities) == 0 {
		return nil, fmt.Errorf("rockphysics: got an empty list of porosities for the bounds sweep")
	}
	o := make([]SweepPoint, len(porosities))
	for i, phi := range porosities {
		if err := checkPorosity(phi); err != nil {
			return nil, err
		}
		f := []float64{1 - phi, phi}
		k := []float64{mineral.K, fluid.K}
		g := []float64{mineral.G, fluid.G}
		vrh, err := VoigtReussHill(f, k, g)
		if err != nil {
			return nil, err
		}
		hs, err := HashinShtrikman(f, k, g)
		if err != nil {
			return nil, err
		}
		rho, err := DensitySolidMix(f, []float64{mineral.Rho, fluid.Rho})
		if err != nil {
			return nil, err
		}
		o[i] = SweepPoint{Porosity: phi, VRH: vrh, HS: hs, Rho: rho}
	}
	return o, nil
}
