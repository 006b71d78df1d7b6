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
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestTIFFSequenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	v := testVolume(3, 2, 4)
	v.VoxelSize = 0.8
	v.Labels = map[int]string{0: "pore", 1: "solid", 2: "clay", 3: "pyrite"}

	if err := WriteTIFFSequence(v, dir, "slice"); err != nil {
		t.Fatal(err)
	}
	for z := 0; z < 4; z++ {
		name := filepath.Join(dir, fmt.Sprintf("slice_%04d.tif", z))
		if _, err := os.Stat(name); err != nil {
			t.Fatalf("slice file %s is missing: %v", name, err)
		}
	}

	got, err := ReadTIFFSequence(dir, TIFFOptions{VoxelSize: 0.8, Labels: v.Labels})
	if err != nil {
		t.Fatal(err)
	}
	if got.Nx() != 3 || got.Ny() != 2 || got.Nz() != 4 {
		t.Fatalf("dimensions=(%d, %d, %d) (they should equal (3, 2, 4))",
			got.Nx(), got.Ny(), got.Nz())
	}
	if !reflect.DeepEqual(got.Data.Elements, v.Data.Elements) {
		t.Error("the TIFF sequence does not round-trip")
	}
	if got.VoxelSize != 0.8 {
		t.Errorf("voxel size=%g (it should equal 0.8)", got.VoxelSize)
	}

	p, err := ReadParameters(filepath.Join(dir, "slice.json"))
	if err != nil {
		t.Fatal(err)
	}
	if p.FileFormat != "tiff" || p.Dtype != "uint8" {
		t.Errorf("sidecar format=%q dtype=%q (they should equal tiff and uint8)", p.FileFormat, p.Dtype)
	}
}

func TestTIFFSequenceWide(t *testing.T) {
	dir := t.TempDir()
	v := NewVolume(2, 2, 2)
	copy(v.Data.Elements, []float64{0, 300, 1000, 65535, 0, 300, 1000, 65535})

	if err := WriteTIFFSequence(v, dir, "wide"); err != nil {
		t.Fatal(err)
	}
	got, err := ReadTIFFSequence(dir, TIFFOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Data.Elements, v.Data.Elements) {
		t.Errorf("values=%v (they should equal %v)", got.Data.Elements, v.Data.Elements)
	}
	p, err := ReadParameters(filepath.Join(dir, "wide.json"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Dtype != "uint16" {
		t.Errorf("sidecar dtype=%q (it should equal \"uint16\" for wide data)", p.Dtype)
	}
}

func TestTIFFSequenceGap(t *testing.T) {
	dir := t.TempDir()
	v := testVolume(2, 2, 3)
	if err := WriteTIFFSequence(v, dir, "gap"); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "gap_0001.tif")); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadTIFFSequence(dir, TIFFOptions{}); err == nil {
		t.Error("a gap in the slice numbering should be an error")
	}
}

func TestTIFFSequenceEmpty(t *testing.T) {
	if _, err := ReadTIFFSequence(t.TempDir(), TIFFOptions{}); err == nil {
		t.Error("a directory with no numbered .tif files should be an error")
	}
}

func TestTIFFSequenceShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := WriteTIFFSequence(testVolume(2, 2, 1), dir, "mix"); err != nil {
		t.Fatal(err)
	}
	scratch := t.TempDir()
	if err := WriteTIFFSequence(testVolume(3, 3, 1), scratch, "mix"); err != nil {
		t.Fatal(err)
	}
	err := os.Rename(filepath.Join(scratch, "mix_0000.tif"), filepath.Join(dir, "mix_0001.tif"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ReadTIFFSequence(dir, TIFFOptions{}); err == nil {
		t.Error("slices with different shapes should be an error")
	}
}
