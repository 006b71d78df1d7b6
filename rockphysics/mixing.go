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

	"gonum.org/v1/gonum/floats"
)

// brieModulusFloor replaces zero bulk moduli in Brie's relation to
// avoid division by zero; 0.1 nPa is far below any real fluid modulus.
const brieModulusFloor = 1.e-10

// DensitySolidMix returns the volume-weighted average density [kg/m³]
// of a solid mineral assemblage. fractions must sum to one.
func DensitySolidMix(fractions, densities []float64) (float64, error) {
	if len(fractions) != len(densities) {
		return 0, fmt.Errorf("rockphysics: got %d volume fractions but %d densities", len(fractions), len(densities))
	}
	if err := checkFractions(fractions); err != nil {
		return 0, err
	}
	if err := checkNonnegative("density", densities); err != nil {
		return 0, err
	}
	return floats.Dot(fractions, densities), nil
}

// DensityFluidMix returns the saturation-weighted average density
// [kg/m³] of a pore-fluid mixture. saturations must sum to one.
func DensityFluidMix(saturations, densities []float64) (float64, error) {
	if len(saturations) != len(densities) {
		return 0, fmt.Errorf("rockphysics: got %d saturations but %d densities", len(saturations), len(densities))
	}
	if err := checkFractions(saturations); err != nil {
		return 0, err
	}
	if err := checkNonnegative("density", densities); err != nil {
		return 0, err
	}
	return floats.Dot(saturations, densities), nil
}

// NormalizedSolidFractions rescales absolute mineral volume fractions
// (measured against the whole rock volume, pores included) to
// fractions of the solid phase only, dividing by 1-porosity. The
// absolute fractions and the porosity together must account for the
// whole rock.
func NormalizedSolidFractions(porosity float64, absolute []float64) ([]float64, error) {
	if err := checkPorosity(porosity); err != nil {
		return nil, err
	}
	if porosity == 1 {
		return nil, fmt.Errorf("rockphysics: porosity is 1; there is no solid phase to normalize")
	}
	if err := checkNonnegative("volume fraction", absolute); err != nil {
		return nil, err
	}
	if sum := floats.Sum(absolute); math.Abs(sum+porosity-1) > FractionTolerance {
		return nil, fmt.Errorf("rockphysics: solid fractions sum to %g but must sum to 1-porosity = %g", sum, 1-porosity)
	}
	o := make([]float64, len(absolute))
	for i, f := range absolute {
		o[i] = f / (1 - porosity)
	}
	return o, nil
}

// BrieFluidMixing returns the effective bulk modulus [Pa] of a
// water-oil-gas mixture after Brie et al. (1995):
//
//	K = (K_liquid - K_gas)(1 - S_gas)^e + K_gas,
//
// where K_liquid is the isostress average of the liquid phases. The
// exponent e controls the transition between the patchy (e=1) and
// uniform saturation limits; e=3 is the customary default. The three
// saturations must sum to one.
func BrieFluidMixing(sWater, sOil, sGas, kWater, kOil, kGas, exponent float64) (float64, error) {
	if err := checkFractions([]float64{sWater, sOil, sGas}); err != nil {
		return 0, err
	}
	if err := checkNonnegative("bulk modulus", []float64{kWater, kOil, kGas}); err != nil {
		return 0, err
	}
	if exponent <= 0 || math.IsNaN(exponent) {
		return 0, fmt.Errorf("rockphysics: Brie exponent is %g but must be positive", exponent)
	}
	kWater = math.Max(kWater, brieModulusFloor)
	kOil = math.Max(kOil, brieModulusFloor)
	kGas = math.Max(kGas, brieModulusFloor)
	var kLiquid float64
	if sOil == 0 {
		kLiquid = kWater
	} else {
		kLiquid = 1 / (sWater/kWater + sOil/kOil)
	}
	return (kLiquid-kGas)*math.Pow(1-sGas, exponent) + kGas, nil
}

// WoodResult holds the effective properties of a fluid suspension
// computed with Wood's formula.
type WoodResult struct {
	KReuss float64 // Reuss (isostress) average bulk modulus [Pa]
	RhoAvg float64 // arithmetic average density [kg/m³]
	Vp     float64 // P-wave velocity [m/s]
}

// WoodFluidMixing returns the sound velocity in a fluid suspension or
// mixture after Wood (1955): the Reuss average bulk modulus and the
// arithmetic average density give Vp = sqrt(K_Reuss/ρ_avg). It is
// exact when the heterogeneities are small compared with a wavelength.
func WoodFluidMixing(fractions, bulkModuli, densities []float64) (WoodResult, error) {
	if len(fractions) != len(bulkModuli) || len(fractions) != len(densities) {
		return WoodResult{}, fmt.Errorf("rockphysics: got %d volume fractions, %d bulk moduli and %d densities; all must match",
			len(fractions), len(bulkModuli), len(densities))
	}
	if err := checkFractions(fractions); err != nil {
		return WoodResult{}, err
	}
	if err := checkNonnegative("bulk modulus", bulkModuli); err != nil {
		return WoodResult{}, err
	}
	if err := checkNonnegative("density", densities); err != nil {
		return WoodResult{}, err
	}
	k, err := ReussBound(fractions, bulkModuli)
	if err != nil {
		return WoodResult{}, err
	}
	rho := floats.Dot(fractions, densities)
	if rho <= 0 {
		return WoodResult{}, fmt.Errorf("rockphysics: average suspension density is %g but must be positive", rho)
	}
	return WoodResult{KReuss: k, RhoAvg: rho, Vp: math.Sqrt(k / rho)}, nil
}

// Wood is a convenience wrapper around WoodFluidMixing for a
// suspension of known porosity; the porosity is validated but the
// mixture is described entirely by the fraction, modulus, and density
// lists.
func Wood(porosity float64, fractions, bulkModuli, densities []float64) (WoodResult, error) {
	if err := checkPorosity(porosity); err != nil {
		return WoodResult{}, err
	}
	return WoodFluidMixing(fractions, bulkModuli, densities)
}
