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
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func testVolume(nx, ny, nz int) *Volume {
	v := NewVolume(nx, ny, nz)
	for i := range v.Data.Elements {
		v.Data.Elements[i] = float64(i % 4)
	}
	return v
}

func TestRawRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.raw")
	v := testVolume(2, 3, 4)
	v.VoxelSize = 2.5
	v.Labels = map[int]string{0: "pore", 1: "solid", 2: "clay", 3: "pyrite"}

	if err := WriteRaw(v, path, RawOptions{}); err != nil {
		t.Fatal(err)
	}

	// The sidecar describes the file, so reading back needs no options.
	got, err := ReadRaw(path, RawOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Data.Elements, v.Data.Elements) {
		t.Error("the read-back volume does not match what was written")
	}
	if got.VoxelSize != 2.5 {
		t.Errorf("voxel size=%g (it should equal 2.5)", got.VoxelSize)
	}
	if !reflect.DeepEqual(got.Labels, v.Labels) {
		t.Errorf("labels=%v (they should equal %v)", got.Labels, v.Labels)
	}

	p, err := ReadParameters(SidecarPath(path))
	if err != nil {
		t.Fatal(err)
	}
	if p.Dtype != "uint8" || p.Endian != "little" || p.FileFormat != "raw" {
		t.Errorf("sidecar dtype=%q endian=%q format=%q (they should equal uint8, little, raw)",
			p.Dtype, p.Endian, p.FileFormat)
	}
	if p.Nx != 2 || p.Ny != 3 || p.Nz != 4 {
		t.Errorf("sidecar dimensions=(%d, %d, %d) (they should equal (2, 3, 4))", p.Nx, p.Ny, p.Nz)
	}
	if p.FileSizeBytes != 24 {
		t.Errorf("sidecar file size=%d (it should equal 24)", p.FileSizeBytes)
	}
}

func TestRawUint16BigEndian(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.raw")
	v := NewVolume(2, 2, 2)
	copy(v.Data.Elements, []float64{0, 1000, 2000, 3000, 0, 1000, 2000, 3000})

	if err := WriteRaw(v, path, RawOptions{Dtype: "uint16", Endian: "big"}); err != nil {
		t.Fatal(err)
	}
	got, err := ReadRaw(path, RawOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Data.Elements, v.Data.Elements) {
		t.Error("the big-endian uint16 volume does not round-trip")
	}
}

func TestRawFloat32(t *testing.T) {
	path := filepath.Join(t.TempDir(), "float.raw")
	v := NewVolume(1, 1, 4)
	copy(v.Data.Elements, []float64{0, 0.5, 0.25, 1.75})

	if err := WriteRaw(v, path, RawOptions{Dtype: "float32"}); err != nil {
		t.Fatal(err)
	}
	got, err := ReadRaw(path, RawOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Data.Elements, v.Data.Elements) {
		t.Errorf("values=%v (they should equal %v)", got.Data.Elements, v.Data.Elements)
	}
}

func TestRawAxisOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.raw")
	v := NewVolume(2, 2, 2)
	for i := range v.Data.Elements {
		v.Data.Elements[i] = float64(i)
	}

	// With "zyx" order, x varies fastest on disk.
	if err := WriteRaw(v, path, RawOptions{AxisOrder: "zyx"}); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 4, 2, 6, 1, 5, 3, 7}
	if !bytes.Equal(b, want) {
		t.Errorf("disk bytes=%v (they should equal %v)", b, want)
	}

	// The axis order is not part of the sidecar, so reading back needs
	// it restated.
	got, err := ReadRaw(path, RawOptions{AxisOrder: "zyx"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Data.Elements, v.Data.Elements) {
		t.Error("the reordered volume does not round-trip")
	}

	if _, err := ReadRaw(path, RawOptions{AxisOrder: "zzz"}); err == nil {
		t.Error("an invalid axis order should be an error")
	}
}

func TestRawNormalizesOnRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ones.raw")
	v := NewVolume(1, 1, 4)
	copy(v.Data.Elements, []float64{1, 2, 1, 2})

	if err := WriteRaw(v, path, RawOptions{}); err != nil {
		t.Fatal(err)
	}
	got, err := ReadRaw(path, RawOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Data.Elements, []float64{0, 1, 0, 1}) {
		t.Errorf("values=%v (they should be normalized to [0 1 0 1])", got.Data.Elements)
	}
}

func TestRawInferMissingDim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "infer.raw")
	v := testVolume(2, 3, 4)
	if err := WriteRaw(v, path, RawOptions{}); err != nil {
		t.Fatal(err)
	}
	// Drop the sidecar so the options stand alone.
	if err := os.Remove(SidecarPath(path)); err != nil {
		t.Fatal(err)
	}

	got, err := ReadRaw(path, RawOptions{Dtype: "uint8", Nx: 2, Ny: 3})
	if err != nil {
		t.Fatal(err)
	}
	if got.Nz() != 4 {
		t.Errorf("inferred nz=%d (it should equal 4)", got.Nz())
	}

	if _, err := ReadRaw(path, RawOptions{Dtype: "uint8", Nx: 2}); err == nil {
		t.Error("two missing dimensions should be an error")
	}
	if _, err := ReadRaw(path, RawOptions{Dtype: "uint8", Nx: 5, Ny: 3}); err == nil {
		t.Error("a voxel count that does not divide evenly should be an error")
	}
}

func TestRawRequiresDtype(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.raw")
	if err := os.WriteFile(path, make([]byte, 8), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadRaw(path, RawOptions{Nx: 2, Ny: 2, Nz: 2})
	if err == nil || !strings.Contains(err.Error(), "dtype is required") {
		t.Errorf("err=%v (it should say the dtype is required)", err)
	}
}

func TestRawSizeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.raw")
	if err := os.WriteFile(path, make([]byte, 10), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadRaw(path, RawOptions{Dtype: "uint8", Nx: 2, Ny: 2, Nz: 2}); err == nil {
		t.Error("a file size that contradicts the dimensions should be an error")
	}
}

func TestInferDimensions(t *testing.T) {
	side, err := InferDimensions(8, "uint8")
	if err != nil {
		t.Fatal(err)
	}
	if side != 2 {
		t.Errorf("side=%d (it should equal 2)", side)
	}
	side, err = InferDimensions(2*2*2*2, "uint16")
	if err != nil {
		t.Fatal(err)
	}
	if side != 2 {
		t.Errorf("side=%d (it should equal 2)", side)
	}
	if _, err := InferDimensions(9, "uint8"); err == nil {
		t.Error("a non-cubic voxel count should be an error")
	}
	if _, err := InferDimensions(9, "uint16"); err == nil {
		t.Error("a size that is not a dtype multiple should be an error")
	}
}

func TestInferDtype(t *testing.T) {
	tests := []struct {
		fileSize, voxels int64
		want             string
	}{
		{8, 8, "uint8"},
		{16, 8, "uint16"},
		{32, 8, "float32"},
		{64, 8, "float64"},
	}
	for _, test := range tests {
		got, err := InferDtype(test.fileSize, test.voxels)
		if err != nil {
			t.Fatal(err)
		}
		if got != test.want {
			t.Errorf("InferDtype(%d, %d)=%q (it should equal %q)",
				test.fileSize, test.voxels, got, test.want)
		}
	}
	if _, err := InferDtype(72, 8); err == nil {
		t.Error("9 bytes per voxel should be an error")
	}
	if _, err := InferDtype(12, 8); err == nil {
		t.Error("a size that is not a voxel multiple should be an error")
	}
	if _, err := InferDtype(8, 0); err == nil {
		t.Error("a zero voxel count should be an error")
	}
}

func TestWriteSEPHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.H")
	v := NewVolume(2, 3, 4)
	if err := WriteSEPHeader(path, v); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "SEPlib Headerfile\nsets next: in=\"./sample.raw\"\n\nn1=000002\nn2=000003\nn3=000004\nn4=1\n"
	if string(b) != want {
		t.Errorf("header=%q (it should equal %q)", string(b), want)
	}
}
