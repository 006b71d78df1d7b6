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

import "testing"

// Quartz: K=37 GPa, G=44 GPa, ρ=2650 kg/m³.
const (
	quartzK   = 37e9
	quartzG   = 44e9
	quartzRho = 2650.
)

func TestStiffnessModuliRoundTrip(t *testing.T) {
	const testTolerance = 1.e-12

	c11, c44, err := StiffnessFromModuli(quartzK, quartzG)
	if err != nil {
		t.Fatal(err)
	}
	if different(c11, quartzK+4./3.*quartzG, testTolerance) {
		t.Errorf("c11=%g (it should equal %g)", c11, quartzK+4./3.*quartzG)
	}
	if c44 != quartzG {
		t.Errorf("c44=%g (it should equal %g)", c44, quartzG)
	}
	k, g, err := ModuliFromStiffness(c11, c44)
	if err != nil {
		t.Fatal(err)
	}
	if different(k, quartzK, testTolerance) || different(g, quartzG, testTolerance) {
		t.Errorf("round trip gave K=%g, G=%g (they should equal %g, %g)", k, g, quartzK, quartzG)
	}
}

func TestVelocityStiffnessRoundTrip(t *testing.T) {
	const testTolerance = 1.e-12

	vp, vs, err := VpVs(quartzRho, quartzK, quartzG)
	if err != nil {
		t.Fatal(err)
	}
	c11, c44, err := StiffnessFromVelocity(quartzRho, vp, vs)
	if err != nil {
		t.Fatal(err)
	}
	vp2, vs2, err := VelocityFromStiffness(quartzRho, c11, c44)
	if err != nil {
		t.Fatal(err)
	}
	if different(vp, vp2, testTolerance) || different(vs, vs2, testTolerance) {
		t.Errorf("round trip gave Vp=%g, Vs=%g (they should equal %g, %g)", vp2, vs2, vp, vs)
	}
	if different(c11, quartzK+4./3.*quartzG, testTolerance) {
		t.Errorf("c11=%g (it should equal K+4/3G=%g)", c11, quartzK+4./3.*quartzG)
	}
}

// E and ν derived from (K, G) must convert back to the same moduli.
func TestYoungsPoissonRoundTrip(t *testing.T) {
	const testTolerance = 1.e-12

	e, err := YoungsModulus(quartzK, quartzG)
	if err != nil {
		t.Fatal(err)
	}
	nu, err := PoissonRatio(quartzK, quartzG)
	if err != nil {
		t.Fatal(err)
	}
	k, err := BulkFromYoungsPoisson(e, nu)
	if err != nil {
		t.Fatal(err)
	}
	g, err := ShearFromYoungsPoisson(e, nu)
	if err != nil {
		t.Fatal(err)
	}
	if different(k, quartzK, testTolerance) {
		t.Errorf("K=%g (it should equal %g)", k, quartzK)
	}
	if different(g, quartzG, testTolerance) {
		t.Errorf("G=%g (it should equal %g)", g, quartzG)
	}

	c11, c44, err := StiffnessFromYoungsPoisson(e, nu)
	if err != nil {
		t.Fatal(err)
	}
	if different(c11, quartzK+4./3.*quartzG, testTolerance) {
		t.Errorf("c11=%g (it should equal %g)", c11, quartzK+4./3.*quartzG)
	}
	if different(c44, quartzG, testTolerance) {
		t.Errorf("c44=%g (it should equal %g)", c44, quartzG)
	}
}

func TestPoissonFromVelocity(t *testing.T) {
	const testTolerance = 1.e-12

	vp, vs, err := VpVs(quartzRho, quartzK, quartzG)
	if err != nil {
		t.Fatal(err)
	}
	nuV, err := PoissonFromVelocity(vp, vs)
	if err != nil {
		t.Fatal(err)
	}
	nuM, err := PoissonRatio(quartzK, quartzG)
	if err != nil {
		t.Fatal(err)
	}
	if different(nuV, nuM, testTolerance) {
		t.Errorf("ν from velocities=%g (it should equal ν from moduli=%g)", nuV, nuM)
	}
}

func TestLameLambda(t *testing.T) {
	const testTolerance = 1.e-12

	l, err := LameLambda(quartzK, quartzG)
	if err != nil {
		t.Fatal(err)
	}
	if different(l, quartzK-2./3.*quartzG, testTolerance) {
		t.Errorf("λ=%g (it should equal %g)", l, quartzK-2./3.*quartzG)
	}
}

func TestIsotropicValidation(t *testing.T) {
	if _, _, err := StiffnessFromVelocity(0, 6000, 4000); err == nil {
		t.Error("StiffnessFromVelocity accepted a zero density")
	}
	if _, _, err := StiffnessFromVelocity(2650, 4000, 4000); err == nil {
		t.Error("StiffnessFromVelocity accepted Vs equal to Vp")
	}
	if _, _, err := StiffnessFromYoungsPoisson(95e9, 0.5); err == nil {
		t.Error("StiffnessFromYoungsPoisson accepted ν=0.5")
	}
	if _, _, err := StiffnessFromYoungsPoisson(-1, 0.08); err == nil {
		t.Error("StiffnessFromYoungsPoisson accepted a negative Young's modulus")
	}
	if _, _, err := ModuliFromStiffness(10e9, 44e9); err == nil {
		t.Error("ModuliFromStiffness accepted stiffnesses implying a negative bulk modulus")
	}
	if _, err := PoissonRatio(0, 0); err == nil {
		t.Error("PoissonRatio accepted two zero moduli")
	}
}
