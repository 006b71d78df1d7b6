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
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// RawOptions describes the layout of a raw binary volume file.
// On read, fields left at their zero value are filled from the data
// file's JSON sidecar when one exists, so a volume exported by this
// package can be read back with empty options.
type RawOptions struct {
	// Dtype is the voxel storage type: uint8, uint16, float32, or
	// float64. Required on read unless the sidecar provides it;
	// uint8 on write when empty.
	Dtype string

	// Endian is the byte order, "little" (default) or "big".
	Endian string

	// AxisOrder gives the order of the volume axes on disk from
	// slowest- to fastest-varying, any permutation of "xyz".
	// The default "xyz" means z varies fastest. Volumes in memory
	// are always (nx, ny, nz) regardless of the on-disk order.
	AxisOrder string

	// Nx, Ny, Nz are the axis lengths. On read, exactly one may be
	// left zero to be inferred from the file size.
	Nx, Ny, Nz int

	// VoxelSize is the voxel edge length [μm].
	VoxelSize float64

	// Labels maps phase values to names, recorded in the sidecar.
	Labels map[int]string
}

func dtypeSize(dtype string) (int, error) {
	size, ok := supportedDtypes[dtype]
	if !ok {
		return 0, fmt.Errorf("drp: unsupported dtype %q; use uint8, uint16, float32, or float64", dtype)
	}
	return size, nil
}

func byteOrder(endian string) (binary.ByteOrder, error) {
	switch endian {
	case "little":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("drp: unsupported endian %q; use little or big", endian)
	}
}

// axisPerm maps the positions of an on-disk axis order to axis numbers
// (0 = x, 1 = y, 2 = z), e.g. "zyx" → {2, 1, 0}.
func axisPerm(order string) ([3]int, error) {
	var perm [3]int
	if len(order) != 3 {
		return perm, fmt.Errorf("drp: axis order %q must be a permutation of \"xyz\"", order)
	}
	var seen [3]bool
	for i, c := range order {
		axis := int(c - 'x')
		if axis < 0 || axis > 2 || seen[axis] {
			return perm, fmt.Errorf("drp: axis order %q must be a permutation of \"xyz\"", order)
		}
		seen[axis] = true
		perm[i] = axis
	}
	return perm, nil
}

// fillFromSidecar fills zero-valued options from the data file's
// sidecar, if there is one.
func (opts *RawOptions) fillFromSidecar(path string) error {
	p, err := ReadParameters(SidecarPath(path))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if opts.Dtype == "" {
		opts.Dtype = p.Dtype
	}
	if opts.Endian == "" && p.Endian != "" {
		opts.Endian = p.Endian
	}
	if opts.Nx == 0 && opts.Ny == 0 && opts.Nz == 0 {
		opts.Nx, opts.Ny, opts.Nz = p.Nx, p.Ny, p.Nz
	}
	if opts.VoxelSize == 0 {
		opts.VoxelSize = p.VoxelSize
	}
	if opts.Labels == nil {
		labels, err := labelsFromJSON(p.Labels)
		if err != nil {
			return err
		}
		opts.Labels = labels
	}
	return nil
}

// ReadRaw reads a raw binary volume. The file is read whole rather
// than memory-mapped; volumes of interest fit comfortably in memory
// and a full read keeps the decoding portable. The data is reoriented
// to (nx, ny, nz), labels are normalized so the minimum phase is
// zero, and the JSON sidecar next to the file is created or updated
// to describe the import.
func ReadRaw(path string, opts RawOptions) (*Volume, error) {
	if err := opts.fillFromSidecar(path); err != nil {
		return nil, err
	}
	if opts.Endian == "" {
		opts.Endian = "little"
	}
	if opts.AxisOrder == "" {
		opts.AxisOrder = "xyz"
	}
	if opts.Dtype == "" {
		return nil, fmt.Errorf("drp: reading %s: dtype is required when no sidecar describes the file", path)
	}
	size, err := dtypeSize(opts.Dtype)
	if err != nil {
		return nil, err
	}
	order, err := byteOrder(opts.Endian)
	if err != nil {
		return nil, err
	}
	perm, err := axisPerm(opts.AxisOrder)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("drp: reading %s: %v", path, err)
	}
	if err := inferMissingDim(&opts, int64(len(b)), size); err != nil {
		return nil, fmt.Errorf("drp: reading %s: %v", path, err)
	}
	nx, ny, nz := opts.Nx, opts.Ny, opts.Nz
	if want := nx * ny * nz * size; len(b) != want {
		return nil, fmt.Errorf("drp: %s is %d bytes; (%d, %d, %d) %s needs %d",
			path, len(b), nx, ny, nz, opts.Dtype, want)
	}

	v := NewVolume(nx, ny, nz)
	v.VoxelSize = opts.VoxelSize
	v.Labels = opts.Labels

	var off int
	next := func() float64 {
		var val float64
		switch opts.Dtype {
		case "uint8":
			val = float64(b[off])
		case "uint16":
			val = float64(order.Uint16(b[off:]))
		case "float32":
			val = float64(math.Float32frombits(order.Uint32(b[off:])))
		case "float64":
			val = math.Float64frombits(order.Uint64(b[off:]))
		}
		off += size
		return val
	}

	sizes := [3]int{nx, ny, nz}
	n0, n1, n2 := sizes[perm[0]], sizes[perm[1]], sizes[perm[2]]
	var coord [3]int
	for i0 := 0; i0 < n0; i0++ {
		coord[perm[0]] = i0
		for i1 := 0; i1 < n1; i1++ {
			coord[perm[1]] = i1
			for i2 := 0; i2 < n2; i2++ {
				coord[perm[2]] = i2
				v.Data.Elements[(coord[0]*ny+coord[1])*nz+coord[2]] = next()
			}
		}
	}

	v.NormalizeLabels()

	if err := writeSidecar(v, path, "raw", opts.Dtype, opts.Endian); err != nil {
		return nil, err
	}
	return v, nil
}

// inferMissingDim fills in at most one zero dimension from the file
// size.
func inferMissingDim(opts *RawOptions, fileSize int64, dtypeBytes int) error {
	dims := []*int{&opts.Nx, &opts.Ny, &opts.Nz}
	var missing []*int
	known := int64(1)
	for _, d := range dims {
		if *d < 0 {
			return fmt.Errorf("dimensions (%d, %d, %d) must not be negative", opts.Nx, opts.Ny, opts.Nz)
		}
		if *d == 0 {
			missing = append(missing, d)
		} else {
			known *= int64(*d)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if len(missing) > 1 {
		return fmt.Errorf("at least two of nx, ny, nz must be provided")
	}
	voxels := fileSize / int64(dtypeBytes)
	if known == 0 || voxels%known != 0 {
		return fmt.Errorf("cannot infer the missing dimension: %d voxels do not divide evenly", voxels)
	}
	*missing[0] = int(voxels / known)
	return nil
}

// WriteRaw writes the volume as flat binary in the layout given by
// opts and creates or updates the JSON sidecar next to it.
func WriteRaw(v *Volume, path string, opts RawOptions) error {
	if err := v.check3d(); err != nil {
		return err
	}
	if opts.Dtype == "" {
		opts.Dtype = "uint8"
	}
	if opts.Endian == "" {
		opts.Endian = "little"
	}
	if opts.AxisOrder == "" {
		opts.AxisOrder = "xyz"
	}
	size, err := dtypeSize(opts.Dtype)
	if err != nil {
		return err
	}
	order, err := byteOrder(opts.Endian)
	if err != nil {
		return err
	}
	perm, err := axisPerm(opts.AxisOrder)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("drp: writing %s: %v", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	buf := make([]byte, size)
	put := func(val float64) {
		switch opts.Dtype {
		case "uint8":
			buf[0] = uint8(val)
		case "uint16":
			order.PutUint16(buf, uint16(val))
		case "float32":
			order.PutUint32(buf, math.Float32bits(float32(val)))
		case "float64":
			order.PutUint64(buf, math.Float64bits(val))
		}
	}

	nx, ny, nz := v.Nx(), v.Ny(), v.Nz()
	sizes := [3]int{nx, ny, nz}
	n0, n1, n2 := sizes[perm[0]], sizes[perm[1]], sizes[perm[2]]
	var coord [3]int
	for i0 := 0; i0 < n0; i0++ {
		coord[perm[0]] = i0
		for i1 := 0; i1 < n1; i1++ {
			coord[perm[1]] = i1
			for i2 := 0; i2 < n2; i2++ {
				coord[perm[2]] = i2
				put(v.Data.Elements[(coord[0]*ny+coord[1])*nz+coord[2]])
				if _, err := w.Write(buf); err != nil {
					return fmt.Errorf("drp: writing %s: %v", path, err)
				}
			}
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("drp: writing %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("drp: writing %s: %v", path, err)
	}

	if opts.VoxelSize == 0 {
		opts.VoxelSize = v.VoxelSize
	}
	if opts.Labels == nil {
		opts.Labels = v.Labels
	}
	save := *v
	save.VoxelSize = opts.VoxelSize
	save.Labels = opts.Labels
	return writeSidecar(&save, path, "raw", opts.Dtype, opts.Endian)
}

// writeSidecar creates or updates the sidecar describing the data file
// at path. Provenance fields of an existing sidecar are preserved.
func writeSidecar(v *Volume, path, format, dtype, endian string) error {
	return UpdateParameters(SidecarPath(path), func(p *Parameters) {
		p.setVolume(v)
		p.Dtype = dtype
		p.Endian = endian
		p.setFileInfo(path, format)
	})
}

// InferDimensions guesses the edge length of a cubic volume from its
// file size.
func InferDimensions(fileSize int64, dtype string) (int, error) {
	size, err := dtypeSize(dtype)
	if err != nil {
		return 0, err
	}
	if fileSize <= 0 || fileSize%int64(size) != 0 {
		return 0, fmt.Errorf("drp: file size %d is not a multiple of the %s voxel size", fileSize, dtype)
	}
	voxels := fileSize / int64(size)
	side := int(math.Round(math.Cbrt(float64(voxels))))
	if int64(side)*int64(side)*int64(side) != voxels {
		return 0, fmt.Errorf("drp: %d voxels do not form a cube", voxels)
	}
	return side, nil
}

// InferDtype guesses the voxel storage type from the file size and the
// expected voxel count.
func InferDtype(fileSize, voxels int64) (string, error) {
	if voxels <= 0 {
		return "", fmt.Errorf("drp: voxel count %d must be positive", voxels)
	}
	if fileSize%voxels != 0 {
		return "", fmt.Errorf("drp: file size %d is not a multiple of %d voxels", fileSize, voxels)
	}
	switch bytesPerVoxel := fileSize / voxels; {
	case bytesPerVoxel <= 1:
		return "uint8", nil
	case bytesPerVoxel <= 2:
		return "uint16", nil
	case bytesPerVoxel <= 4:
		return "float32", nil
	case bytesPerVoxel <= 8:
		return "float64", nil
	default:
		return "", fmt.Errorf("drp: %d bytes per voxel does not match a supported dtype", bytesPerVoxel)
	}
}

// WriteSEPHeader writes a SEPlib header describing the volume, for
// interchange with seismic-processing tools. The header names the raw
// data file it describes by replacing its own extension with .raw.
func WriteSEPHeader(path string, v *Volume) error {
	if err := v.check3d(); err != nil {
		return err
	}
	dataName := filepath.Base(trimExt(path)) + ".raw"
	header := fmt.Sprintf(`SEPlib Headerfile
sets next: in="./%s"

n1=%06d
n2=%06d
n3=%06d
n4=1
`, dataName, v.Nx(), v.Ny(), v.Nz())
	if err := os.WriteFile(path, []byte(header), 0644); err != nil {
		return fmt.Errorf("drp: writing SEP header %s: %v", path, err)
	}
	return nil
}
