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
	"math"
	"testing"
)

// Quartz frame saturated with brine.
func TestGassmannKSat(t *testing.T) {
	const testTolerance = 1.e-12

	v, err := GassmannKSat(36e9, 12e9, 2.8e9, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if different(v, 17266457680.250786, testTolerance) {
		t.Errorf("K_sat=%g (it should equal %g)", v, 17266457680.250786)
	}

	// A zero fluid modulus leaves the frame dry.
	v, err = GassmannKSat(36e9, 12e9, 0, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if v != 12e9 {
		t.Errorf("K_sat=%g (it should equal the dry modulus 12e9)", v)
	}
}

// GassmannKDry is the exact algebraic inverse of GassmannKSat.
func TestGassmannInverse(t *testing.T) {
	const testTolerance = 1.e-10

	for _, kDry := range []float64{2e9, 12e9, 20e9, 30e9} {
		for _, kFluid := range []float64{2.8e9, 0.5e9, 0.01e9} {
			kSat, err := GassmannKSat(36e9, kDry, kFluid, 0.2)
			if err != nil {
				t.Fatal(err)
			}
			back, err := GassmannKDry(36e9, kSat, kFluid, 0.2)
			if err != nil {
				t.Fatal(err)
			}
			if different(back, kDry, testTolerance) {
				t.Errorf("K_dry=%g, K_fl=%g: back-solved %g (it should equal the input)", kDry, kFluid, back)
			}
		}
	}

	if v, err := GassmannKDry(36e9, 12e9, 0, 0.2); err != nil || v != 12e9 {
		t.Errorf("K_dry=%g, err=%v (a zero fluid modulus should return the measured modulus unchanged)", v, err)
	}
}

// Substituting fluid 1 → fluid 2 → fluid 1 restores the original
// saturated modulus.
func TestGassmannRoundTrip(t *testing.T) {
	const testTolerance = 1.e-10

	const (
		kMineral = 36e9
		porosity = 0.2
		kFluid1  = 2.8e9 // brine
		kFluid2  = 0.3e9 // gas condensate
		kSat1    = 17266457680.250786
	)
	r1, err := FluidSubstitution(FluidSubstitutionInput{
		KMineral: kMineral, Porosity: porosity,
		KSat1: kSat1, KFluid1: kFluid1, KFluid2: kFluid2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if different(r1.KSat2, 12653950953.678474, testTolerance) {
		t.Errorf("K_sat2=%g (it should equal %g)", r1.KSat2, 12653950953.678474)
	}
	r2, err := FluidSubstitution(FluidSubstitutionInput{
		KMineral: kMineral, Porosity: porosity,
		KSat1: r1.KSat2, KFluid1: kFluid2, KFluid2: kFluid1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if different(r2.KSat2, kSat1, testTolerance) {
		t.Errorf("round-trip K_sat=%g (it should equal the original %g)", r2.KSat2, kSat1)
	}
	if different(r1.KDry, r2.KDry, testTolerance) {
		t.Errorf("round-trip K_dry=%g and %g (they should agree)", r1.KDry, r2.KDry)
	}
}

func TestFluidSubstitutionVelocities(t *testing.T) {
	const testTolerance = 1.e-12

	in := FluidSubstitutionInput{
		KMineral: 36e9, Porosity: 0.2,
		KDry: 12e9, HaveDry: true,
		KFluid2:    2.8e9,
		GDry:       14e9,
		RhoMineral: 2650, RhoFluid2: 1050,
	}
	r, err := FluidSubstitution(in)
	if err != nil {
		t.Fatal(err)
	}
	if r.GSat2 != in.GDry {
		t.Errorf("G_sat2=%g (the shear modulus should be fluid-invariant)", r.GSat2)
	}
	wantRho := 0.8*2650 + 0.2*1050
	if different(r.Rho2, wantRho, testTolerance) {
		t.Errorf("ρ_sat2=%g (it should equal %g)", r.Rho2, wantRho)
	}
	wantVp := math.Sqrt((r.KSat2 + 4./3.*in.GDry) / wantRho)
	if different(r.Vp2, wantVp, testTolerance) {
		t.Errorf("Vp2=%g (it should equal %g)", r.Vp2, wantVp)
	}
	wantVs := math.Sqrt(in.GDry / wantRho)
	if different(r.Vs2, wantVs, testTolerance) {
		t.Errorf("Vs2=%g (it should equal %g)", r.Vs2, wantVs)
	}
}

func TestGassmannValidation(t *testing.T) {
	if _, err := GassmannKSat(36e9, 12e9, 2.8e9, 1.2); err == nil {
		t.Error("GassmannKSat accepted a porosity above 1")
	}
	if _, err := GassmannKSat(0, 12e9, 2.8e9, 0.2); err == nil {
		t.Error("GassmannKSat accepted a zero mineral modulus")
	}
	if _, err := GassmannKSat(36e9, 12e9, -1, 0.2); err == nil {
		t.Error("GassmannKSat accepted a negative fluid modulus")
	}
	if _, err := GassmannKSat(36e9, 40e9, 2.8e9, 0.2); err == nil {
		t.Error("GassmannKSat accepted a frame stiffer than the mineral")
	}
	// A saturated modulus below the fluid-mineral Reuss limit
	// back-solves to an impossible negative frame.
	if _, err := GassmannKDry(36e9, 5e9, 2.8e9, 0.2); err == nil {
		t.Error("GassmannKDry accepted inputs implying a negative dry-frame modulus")
	}
	if _, err := FluidSubstitution(FluidSubstitutionInput{
		KMineral: 36e9, Porosity: 0.2, KFluid2: 2.8e9,
	}); err == nil {
		t.Error("FluidSubstitution accepted input with neither a dry nor a saturated modulus")
	}
}
