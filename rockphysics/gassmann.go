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
)

// GassmannKSat returns the bulk modulus [Pa] of a porous rock
// saturated with a fluid of modulus kFluid, given the dry-frame and
// mineral moduli, using Gassmann's (1951) low-frequency relation:
//
//	K_sat = K_dry + (1 - K_dry/K_m)² / (φ/K_fl + (1-φ)/K_m - K_dry/K_m²).
//
// A zero fluid modulus (dry rock or very compressible gas) returns
// K_dry unchanged.
func GassmannKSat(kMineral, kDry, kFluid, porosity float64) (float64, error) {
	if err := checkGassmann(kMineral, kDry, kFluid, porosity); err != nil {
		return 0, err
	}
	if kFluid == 0 {
		return kDry, nil
	}
	alpha := 1 - kDry/kMineral // Biot coefficient
	denom := porosity/kFluid + (1-porosity)/kMineral - kDry/(kMineral*kMineral)
	return kDry + alpha*alpha/denom, nil
}

// GassmannKDry back-solves the dry-frame bulk modulus [Pa] from a
// saturated modulus measured with a fluid of modulus kFluid, the exact
// algebraic inverse of GassmannKSat:
//
//	K_dry = (K_sat(φK_m/K_fl + 1 - φ) - K_m) / (φK_m/K_fl + K_sat/K_m - 1 - φ).
//
// A zero fluid modulus means the measured modulus already is the dry
// frame. A negative back-solved modulus indicates physically
// inconsistent inputs and is rejected.
func GassmannKDry(kMineral, kSat, kFluid, porosity float64) (float64, error) {
	if err := checkGassmann(kMineral, kSat, kFluid, porosity); err != nil {
		return 0, err
	}
	if kFluid == 0 {
		return kSat, nil
	}
	r := porosity * kMineral / kFluid
	kDry := (kSat*(r+1-porosity) - kMineral) / (r + kSat/kMineral - 1 - porosity)
	if kDry < 0 {
		return 0, fmt.Errorf("rockphysics: back-solved dry-frame modulus is %g Pa; the saturated modulus, fluid and porosity are inconsistent", kDry)
	}
	return kDry, nil
}

func checkGassmann(kMineral, k, kFluid, porosity float64) error {
	if err := checkPorosity(porosity); err != nil {
		return err
	}
	if kMineral <= 0 || math.IsNaN(kMineral) {
		return fmt.Errorf("rockphysics: mineral bulk modulus is %g but must be positive", kMineral)
	}
	if kFluid < 0 || math.IsNaN(kFluid) {
		return fmt.Errorf("rockphysics: fluid bulk modulus is %g but must be nonnegative", kFluid)
	}
	if k < 0 || math.IsNaN(k) {
		return fmt.Errorf("rockphysics: rock bulk modulus is %g but must be nonnegative", k)
	}
	if k > kMineral {
		return fmt.Errorf("rockphysics: rock bulk modulus %g Pa exceeds the mineral modulus %g Pa", k, kMineral)
	}
	return nil
}

// FluidSubstitutionInput describes a fluid substitution problem.
// Either KDry or KSat1 together with KFluid1 must be given; when both
// are present KDry wins. Moduli are in Pa, densities in kg/m³.
type FluidSubstitutionInput struct {
	KMineral float64
	Porosity float64

	KDry    float64 // dry-frame bulk modulus, if known
	KSat1   float64 // saturated modulus with the original fluid
	KFluid1 float64 // original fluid modulus; 0 means dry
	HaveDry bool    // KDry is set (distinguishes a legitimate zero)

	KFluid2 float64 // replacement fluid modulus

	// Optional; needed only for velocities.
	GDry       float64 // dry-frame shear modulus (fluid-invariant)
	RhoMineral float64
	RhoFluid2  float64
}

// FluidSubstitutionResult is the outcome of a Gassmann substitution.
// Vp2 and Vs2 are zero unless the input carried the shear modulus and
// densities needed to derive them.
type FluidSubstitutionResult struct {
	KDry  float64 // dry frame, given or back-solved [Pa]
	KSat2 float64 // saturated with the replacement fluid [Pa]
	GSat2 float64 // equals the dry shear modulus [Pa]
	Rho2  float64 // saturated bulk density [kg/m³]
	Vp2   float64 // [m/s]
	Vs2   float64 // [m/s]
}

// FluidSubstitution performs a full Gassmann fluid substitution:
// back-solves the dry frame from the original saturation when it is
// not given directly, applies the forward relation with the
// replacement fluid, and, when the dry shear modulus and densities are
// available, derives the saturated velocities. The shear modulus is
// unaffected by the pore fluid under Gassmann's assumptions.
func FluidSubstitution(in FluidSubstitutionInput) (FluidSubstitutionResult, error) {
	var out FluidSubstitutionResult
	var err error
	if in.HaveDry {
		out.KDry = in.KDry
		if err = checkGassmann(in.KMineral, in.KDry, in.KFluid2, in.Porosity); err != nil {
			return FluidSubstitutionResult{}, err
		}
	} else {
		if in.KSat1 <= 0 {
			return FluidSubstitutionResult{}, fmt.Errorf("rockphysics: fluid substitution needs either a dry-frame modulus or a positive saturated modulus; got K_sat1=%g", in.KSat1)
		}
		out.KDry, err = GassmannKDry(in.KMineral, in.KSat1, in.KFluid1, in.Porosity)
		if err != nil {
			return FluidSubstitutionResult{}, err
		}
	}
	out.KSat2, err = GassmannKSat(in.KMineral, out.KDry, in.KFluid2, in.Porosity)
	if err != nil {
		return FluidSubstitutionResult{}, err
	}
	out.GSat2 = in.GDry
	if in.GDry > 0 && in.RhoMineral > 0 {
		out.Rho2 = (1-in.Porosity)*in.RhoMineral + in.Porosity*in.RhoFluid2
		out.Vp2 = math.Sqrt((out.KSat2 + 4./3.*out.GSat2) / out.Rho2)
		out.Vs2 = math.Sqrt(out.GSat2 / out.Rho2)
	}
	return out, nil
}
