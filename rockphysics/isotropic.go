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

// This file collects the interconversions between the isotropic
// elastic descriptions: bulk and shear moduli (K, G), the stiffnesses
// c11 and c44, Young's modulus and Poisson's ratio (E, ν), and the
// seismic velocities (Vp, Vs) with density ρ.

// StiffnessFromModuli converts bulk and shear moduli [Pa] to the
// stiffness constants c11 = K + 4/3 G and c44 = G.
func StiffnessFromModuli(k, g float64) (c11, c44 float64, err error) {
	if err := checkModuli(k, g); err != nil {
		return 0, 0, err
	}
	return k + 4./3.*g, g, nil
}

// ModuliFromStiffness converts the stiffness constants c11 and c44
// [Pa] to bulk and shear moduli: K = c11 - 4/3 c44, G = c44.
func ModuliFromStiffness(c11, c44 float64) (k, g float64, err error) {
	if err := checkModuli(c11, c44); err != nil {
		return 0, 0, err
	}
	k = c11 - 4./3.*c44
	if k < 0 {
		return 0, 0, fmt.Errorf("rockphysics: c11=%g and c44=%g imply a negative bulk modulus %g", c11, c44, k)
	}
	return k, c44, nil
}

// StiffnessFromVelocity converts density [kg/m³] and velocities [m/s]
// to the stiffness constants c11 = ρVp² and c44 = ρVs².
func StiffnessFromVelocity(rho, vp, vs float64) (c11, c44 float64, err error) {
	if err := checkDensity(rho); err != nil {
		return 0, 0, err
	}
	if err := checkVelocities(vp, vs); err != nil {
		return 0, 0, err
	}
	return rho * vp * vp, rho * vs * vs, nil
}

// VelocityFromStiffness converts density [kg/m³] and the stiffness
// constants [Pa] to velocities Vp = √(c11/ρ), Vs = √(c44/ρ).
func VelocityFromStiffness(rho, c11, c44 float64) (vp, vs float64, err error) {
	if err := checkDensity(rho); err != nil {
		return 0, 0, err
	}
	if err := checkModuli(c11, c44); err != nil {
		return 0, 0, err
	}
	return math.Sqrt(c11 / rho), math.Sqrt(c44 / rho), nil
}

// StiffnessFromYoungsPoisson converts Young's modulus [Pa] and
// Poisson's ratio to the stiffness constants
// c11 = E(1-ν)/((1+ν)(1-2ν)) and c44 = E/(2(1+ν)).
func StiffnessFromYoungsPoisson(e, nu float64) (c11, c44 float64, err error) {
	if err := checkYoungsPoisson(e, nu); err != nil {
		return 0, 0, err
	}
	return e * (1 - nu) / ((1 + nu) * (1 - 2*nu)), e / (2 * (1 + nu)), nil
}

// VpVs returns the isotropic body-wave velocities [m/s] of a material
// with density ρ [kg/m³]: Vp = √((K + 4/3 G)/ρ), Vs = √(G/ρ).
func VpVs(rho, k, g float64) (vp, vs float64, err error) {
	if err := checkDensity(rho); err != nil {
		return 0, 0, err
	}
	if err := checkModuli(k, g); err != nil {
		return 0, 0, err
	}
	return math.Sqrt((k + 4./3.*g) / rho), math.Sqrt(g / rho), nil
}

// PoissonRatio returns ν = (3K - 2G)/(6K + 2G).
func PoissonRatio(k, g float64) (float64, error) {
	if err := checkModuli(k, g); err != nil {
		return 0, err
	}
	if k == 0 && g == 0 {
		return 0, fmt.Errorf("rockphysics: Poisson's ratio is undefined when both moduli are zero")
	}
	return (3*k - 2*g) / (6*k + 2*g), nil
}

// PoissonFromVelocity returns ν = (Vp² - 2Vs²)/(2(Vp² - Vs²)).
func PoissonFromVelocity(vp, vs float64) (float64, error) {
	if err := checkVelocities(vp, vs); err != nil {
		return 0, err
	}
	return (vp*vp - 2*vs*vs) / (2 * (vp*vp - vs*vs)), nil
}

// YoungsModulus returns E = 9KG/(3K + G).
func YoungsModulus(k, g float64) (float64, error) {
	if err := checkModuli(k, g); err != nil {
		return 0, err
	}
	if 3*k+g == 0 {
		return 0, fmt.Errorf("rockphysics: Young's modulus is undefined when both moduli are zero")
	}
	return 9 * k * g / (3*k + g), nil
}

// LameLambda returns the first Lamé parameter λ = K - 2/3 G.
func LameLambda(k, g float64) (float64, error) {
	if err := checkModuli(k, g); err != nil {
		return 0, err
	}
	return k - 2./3.*g, nil
}

// BulkFromYoungsPoisson returns K = E/(3(1 - 2ν)).
func BulkFromYoungsPoisson(e, nu float64) (float64, error) {
	if err := checkYoungsPoisson(e, nu); err != nil {
		return 0, err
	}
	return e / (3 * (1 - 2*nu)), nil
}

// ShearFromYoungsPoisson returns G = E/(2(1 + ν)).
func ShearFromYoungsPoisson(e, nu float64) (float64, error) {
	if err := checkYoungsPoisson(e, nu); err != nil {
		return 0, err
	}
	return e / (2 * (1 + nu)), nil
}

func checkModuli(k, g float64) error {
	if k < 0 || math.IsNaN(k) {
		return fmt.Errorf("rockphysics: bulk modulus or stiffness is %g but must be nonnegative", k)
	}
	if g < 0 || math.IsNaN(g) {
		return fmt.Errorf("rockphysics: shear modulus or stiffness is %g but must be nonnegative", g)
	}
	return nil
}

func checkDensity(rho float64) error {
	if rho <= 0 || math.IsNaN(rho) {
		return fmt.Errorf("rockphysics: density is %g but must be positive", rho)
	}
	return nil
}

func checkVelocities(vp, vs float64) error {
	if vp <= 0 || math.IsNaN(vp) {
		return fmt.Errorf("rockphysics: P-wave velocity is %g but must be positive", vp)
	}
	if vs < 0 || math.IsNaN(vs) {
		return fmt.Errorf("rockphysics: S-wave velocity is %g but must be nonnegative", vs)
	}
	if vs >= vp {
		return fmt.Errorf("rockphysics: S-wave velocity %g must be less than the P-wave velocity %g", vs, vp)
	}
	return nil
}

func checkYoungsPoisson(e, nu float64) error {
	if e <= 0 || math.IsNaN(e) {
		return fmt.Errorf("rockphysics: Young's modulus is %g but must be positive", e)
	}
	if nu <= -1 || nu >= 0.5 || math.IsNaN(nu) {
		return fmt.Errorf("rockphysics: Poisson's ratio is %g but must be within (-1, 0.5)", nu)
	}
	return nil
}
