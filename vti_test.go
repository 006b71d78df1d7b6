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

package drp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
)

func TestVTIUint8(t *testing.T) {
	v := NewVolume(2, 2, 1)
	for i := range v.Data.Elements {
		v.Data.Elements[i] = float64(i)
	}
	var b bytes.Buffer
	if err := WriteVTI(v, &b, VTIOptions{}); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{
		`<VTKFile type="ImageData"`,
		`WholeExtent="0 1 0 1 0 0"`,
		`type="UInt8"`,
		`Scalars="phases"`,
		`Spacing="1 1 1"`,
		"0 2\n1 3\n", // x varies fastest
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q", want)
		}
	}
}

func TestVTIFloat32(t *testing.T) {
	v := NewVolume(2, 1, 1)
	v.Data.Elements[0] = 0.5
	var b bytes.Buffer
	if err := WriteVTI(v, &b, VTIOptions{Name: "density"}); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	if !strings.Contains(out, `type="Float32"`) {
		t.Error("fractional values should be written as Float32")
	}
	if !strings.Contains(out, "0.5 0\n") {
		t.Error("output is missing the data values")
	}
	if !strings.Contains(out, `Name="density"`) {
		t.Error("output is missing the array name")
	}
}

func TestVTIGeometry(t *testing.T) {
	v := NewVolume(2, 2, 2)
	v.VoxelSize = 2.0
	var b bytes.Buffer
	err := WriteVTI(v, &b, VTIOptions{Origin: [3]float64{1, 2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	out := b.String()
	if !strings.Contains(out, `Spacing="2e-06 2e-06 2e-06"`) {
		t.Error("the spacing should come from the voxel size in meters")
	}
	if !strings.Contains(out, `Origin="1 2 3"`) {
		t.Error("output is missing the origin")
	}
}

func TestVTINot3D(t *testing.T) {
	v := &Volume{Data: sparse.ZerosDense(2, 2)}
	if err := WriteVTI(v, &bytes.Buffer{}, VTIOptions{}); err == nil {
		t.Error("a 2-dimensional array should be an error")
	}
}
