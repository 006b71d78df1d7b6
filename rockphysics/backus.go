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

// Layer is one isotropic layer of a finely layered medium.
type Layer struct {
	Vp        float64 // P-wave velocity [m/s]
	Vs        float64 // S-wave velocity [m/s]
	Rho       float64 // density [kg/m³]
	Thickness float64 // any consistent length unit; only ratios matter
}

// VTIConstants are the five independent elastic constants of a
// transversely isotropic medium with a vertical symmetry axis, plus
// the redundant B = A - 2M and the equivalent density. In Voigt
// notation A = c11, B = c12, C = c33, D = c44, F = c13, M = c66.
type VTIConstants struct {
	A, B, C, D, F, M float64 // [Pa]
	RhoEq            float64 // [kg/m³]
}

// BackusAverage returns the long-wavelength equivalent VTI medium of a
// stack of thin isotropic layers after Backus (1962). Layer
// thicknesses are normalized internally, so only their ratios matter.
// Every layer must have positive velocity, density and thickness, and
// Vp > Vs.
func BackusAverage(layers []Layer) (VTIConstants, error) {
	if len(layers) == 0 {
		return VTIConstants{}, fmt.Errorf("rockphysics: Backus averaging needs at least one layer")
	}
	var total float64
	for i, l := range layers {
		if l.Vp <= 0 || l.Vs <= 0 || l.Rho <= 0 || l.Thickness <= 0 ||
			math.IsNaN(l.Vp) || math.IsNaN(l.Vs) || math.IsNaN(l.Rho) || math.IsNaN(l.Thickness) {
			return VTIConstants{}, fmt.Errorf("rockphysics: layer %d has Vp=%g, Vs=%g, ρ=%g, thickness=%g; all must be positive",
				i, l.Vp, l.Vs, l.Rho, l.Thickness)
		}
		if l.Vs >= l.Vp {
			return VTIConstants{}, fmt.Errorf("rockphysics: layer %d has Vs=%g not less than Vp=%g", i, l.Vs, l.Vp)
		}
		total += l.Thickness
	}

	var c VTIConstants
	var a4, x, y, invD float64
	for _, l := range layers {
		f := l.Thickness / total
		mu := l.Rho * l.Vs * l.Vs  // shear modulus
		pm := l.Rho * l.Vp * l.Vp  // P-wave modulus
		r := l.Vs * l.Vs / (l.Vp * l.Vp)

		a4 += 4 * f * mu * (1 - r)
		x += f * (1 - 2*r)
		y += f / pm
		invD += f / mu
		c.M += f * mu
		c.RhoEq += f * l.Rho
	}
	c.C = 1 / y
	c.D = 1 / invD
	c.F = x / y
	c.A = a4 + x*x/y
	c.B = c.A - 2*c.M
	return c, nil
}

// Vp0 is the vertical P-wave velocity √(C/ρ) [m/s].
func (c VTIConstants) Vp0() float64 { return math.Sqrt(c.C / c.RhoEq) }

// Vp90 is the horizontal P-wave velocity √(A/ρ) [m/s].
func (c VTIConstants) Vp90() float64 { return math.Sqrt(c.A / c.RhoEq) }

// Vsv0 is the vertical shear-wave velocity √(D/ρ) [m/s].
func (c VTIConstants) Vsv0() float64 { return math.Sqrt(c.D / c.RhoEq) }

// Vsh90 is the horizontally polarized shear-wave velocity at 90°,
// √(M/ρ) [m/s].
func (c VTIConstants) Vsh90() float64 { return math.Sqrt(c.M / c.RhoEq) }

// PhaseVelocities returns the three phase velocities [m/s] for a plane
// wave propagating at the given angle from the symmetry axis, from the
// closed-form solution of the Christoffel equation:
//
//	m = [(A-D)sin²θ - (C-D)cos²θ]² + (F+D)² sin²(2θ),
//	Vp, Vsv = √((A sin²θ + C cos²θ + D ± √m)/(2ρ)),
//	Vsh = √((M sin²θ + D cos²θ)/ρ).
func (c VTIConstants) PhaseVelocities(angleDeg float64) (vp, vsv, vsh float64) {
	theta := angleDeg * math.Pi / 180
	s2 := math.Sin(theta) * math.Sin(theta)
	c2 := math.Cos(theta) * math.Cos(theta)
	s22 := math.Sin(2 * theta) * math.Sin(2 * theta)

	m := math.Pow((c.A-c.D)*s2-(c.C-c.D)*c2, 2) + (c.F+c.D)*(c.F+c.D)*s22
	root := math.Sqrt(m)
	vp = math.Sqrt((c.A*s2 + c.C*c2 + c.D + root) / (2 * c.RhoEq))
	vsv = math.Sqrt((c.A*s2 + c.C*c2 + c.D - root) / (2 * c.RhoEq))
	vsh = math.Sqrt((c.M*s2 + c.D*c2) / c.RhoEq)
	return vp, vsv, vsh
}

// AngleSweep holds velocity-versus-angle curves as parallel slices.
type AngleSweep struct {
	Angles []float64 // [degrees from the symmetry axis]
	Vp     []float64 // [m/s]
	Vsv    []float64 // [m/s]
	Vsh    []float64 // [m/s]
}

// VelocityVsAngle evaluates the phase velocities at each of the given
// propagation angles [degrees]. A nil slice sweeps 0° through 90° in
// one-degree steps.
func (c VTIConstants) VelocityVsAngle(angles []float64) AngleSweep {
	if angles == nil {
		angles = make([]float64, 91)
		for i := range angles {
			angles[i] = float64(i)
		}
	}
	s := AngleSweep{
		Angles: angles,
		Vp:     make([]float64, len(angles)),
		Vsv:    make([]float64, len(angles)),
		Vsh:    make([]float64, len(angles)),
	}
	for i, a := range angles {
		s.Vp[i], s.Vsv[i], s.Vsh[i] = c.PhaseVelocities(a)
	}
	return s
}

// Thomsen holds Thomsen's (1986) weak-anisotropy parameters.
type Thomsen struct {
	Epsilon float64 // P-wave anisotropy
	Gamma   float64 // shear-wave splitting
	Delta   float64 // near-vertical P-wave behavior
}

// ThomsenParameters converts the VTI constants to Thomsen's
// dimensionless anisotropy parameters:
//
//	ε = (A-C)/(2C), γ = (M-D)/(2D), δ = ((F+D)² - (C-D)²)/(2C(C-D)).
func (c VTIConstants) ThomsenParameters() Thomsen {
	return Thomsen{
		Epsilon: (c.A - c.C) / (2 * c.C),
		Gamma:   (c.M - c.D) / (2 * c.D),
		Delta:   (math.Pow(c.F+c.D, 2) - math.Pow(c.C-c.D, 2)) / (2 * c.C * (c.C - c.D)),
	}
}
