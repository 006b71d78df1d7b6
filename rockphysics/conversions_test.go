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
	"testing"

	"github.com/ctessum/unit"
)

func TestUnitConversions(t *testing.T) {
	if v := GPaToPa(37); v != 37e9 {
		t.Errorf("GPaToPa(37)=%g (it should equal 3.7e10)", v)
	}
	if v := PaToGPa(37e9); v != 37 {
		t.Errorf("PaToGPa(37e9)=%g (it should equal 37)", v)
	}
	if v := MToMm(0.5); v != 500 {
		t.Errorf("MToMm(0.5)=%g (it should equal 500)", v)
	}
	if v := MmToM(500); v != 0.5 {
		t.Errorf("MmToM(500)=%g (it should equal 0.5)", v)
	}
	if v := MToUm(2e-6); different(v, 2, 1.e-12) {
		t.Errorf("MToUm(2e-6)=%g (it should equal 2)", v)
	}
	if v := UmToM(2); v != 2e-6 {
		t.Errorf("UmToM(2)=%g (it should equal 2e-6)", v)
	}
}

func TestSliceConversions(t *testing.T) {
	in := []float64{37, 76, 2.2}
	pa := GPaToPaSlice(in)
	for i, v := range pa {
		if v != in[i]*1e9 {
			t.Errorf("GPaToPaSlice[%d]=%g (it should equal %g)", i, v, in[i]*1e9)
		}
	}
	if in[0] != 37 {
		t.Error("GPaToPaSlice modified its input")
	}
	back := PaToGPaSlice(pa)
	for i, v := range back {
		if different(v, in[i], 1.e-12) {
			t.Errorf("round trip [%d]=%g (it should equal %g)", i, v, in[i])
		}
	}
}

func TestDimensionedConstructors(t *testing.T) {
	p := Pressure(37)
	if err := p.Check(unit.Pascal); err != nil {
		t.Error(err)
	}
	if p.Value() != 37e9 {
		t.Errorf("Pressure(37).Value()=%g (it should equal 3.7e10)", p.Value())
	}
	l := Length(0.004)
	if err := l.Check(unit.Meter); err != nil {
		t.Error(err)
	}
	v := VoxelSize(2)
	if err := v.Check(unit.Meter); err != nil {
		t.Error(err)
	}
	if v.Value() != 2e-6 {
		t.Errorf("VoxelSize(2).Value()=%g (it should equal 2e-6)", v.Value())
	}
}
