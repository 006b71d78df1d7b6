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
	"encoding/json"
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// WriteNetCDF writes the volume to f as a self-describing NetCDF
// file: one float32 variable on x, y, z dimensions plus global
// attributes recording the data version, voxel size, and phase
// labels. Files written this way round-trip through ReadNetCDF and
// open directly in standard NetCDF tools.
func WriteNetCDF(v *Volume, f *os.File, name, description, units string) error {
	if err := v.check3d(); err != nil {
		return err
	}
	if name == "" {
		name = "phases"
	}
	nx, ny, nz := v.Nx(), v.Ny(), v.Nz()
	h := cdf.NewHeader([]string{"x", "y", "z"}, []int{nx, ny, nz})
	h.AddAttribute("", "comment", "DRP digital rock volume file")

	h.AddAttribute("", "data_version", DataVersion)
	h.AddAttribute("", "nx", []int32{int32(nx)})
	h.AddAttribute("", "ny", []int32{int32(ny)})
	h.AddAttribute("", "nz", []int32{int32(nz)})
	h.AddAttribute("", "voxel_size", []float64{v.VoxelSize})
	if len(v.Labels) > 0 {
		b, err := json.Marshal(labelsToJSON(v.Labels))
		if err != nil {
			return fmt.Errorf("drp: encoding labels: %v", err)
		}
		h.AddAttribute("", "labels", string(b))
	}

	h.AddVariable(name, []string{"x", "y", "z"}, []float32{0})
	h.AddAttribute(name, "description", description)
	h.AddAttribute(name, "units", units)
	h.Define()

	ff, err := cdf.Create(f, h) // writes the header to f
	if err != nil {
		return err
	}
	if err = writeNCF(ff, name, v.Data); err != nil {
		return fmt.Errorf("drp: writing variable %s to netcdf file: %v", name, err)
	}
	return cdf.UpdateNumRecs(f)
}

func writeNCF(f *cdf.File, Var string, data *sparse.DenseArray) error {
	// Check that data matches dimensions.
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}

	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	_, err := w.Write(data32)
	return err
}

// ReadNetCDF reads the named variable from a NetCDF volume file
// written by WriteNetCDF. An empty name picks the file's only
// variable.
func ReadNetCDF(rw cdf.ReaderWriterAt, name string) (*Volume, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("drp: reading netcdf file: %v", err)
	}

	av := f.Header.GetAttribute("", "data_version")
	if av == nil {
		return nil, fmt.Errorf("drp: netcdf file carries no data_version attribute")
	}
	if dataVersion := av.(string); dataVersion != DataVersion {
		return nil, fmt.Errorf("drp: data version %s is incompatible "+
			"with the required version %s", dataVersion, DataVersion)
	}

	vars := f.Header.Variables()
	if name == "" {
		if len(vars) != 1 {
			return nil, fmt.Errorf("drp: netcdf file has %d variables %v; name one", len(vars), vars)
		}
		name = vars[0]
	} else {
		found := false
		for _, vn := range vars {
			found = found || vn == name
		}
		if !found {
			return nil, fmt.Errorf("drp: netcdf file has no variable %s; it has %v", name, vars)
		}
	}

	dims := f.Header.Lengths(name)
	if len(dims) != 3 {
		return nil, fmt.Errorf("drp: netcdf variable %s has %d dimensions; want 3", name, len(dims))
	}
	data := sparse.ZerosDense(dims...)
	tmp := make([]float32, len(data.Elements))
	r := f.Reader(name, nil, nil)
	if _, err := r.Read(tmp); err != nil {
		return nil, fmt.Errorf("drp: reading netcdf variable %s: %v", name, err)
	}

	// Check that data matches dimensions.
	n := 1
	for _, d := range dims {
		n *= d
	}
	if len(tmp) != n {
		return nil, fmt.Errorf("drp: netcdf variable %s: dims are %d but array length is %d",
			name, n, len(tmp))
	}
	for i, e := range tmp {
		data.Elements[i] = float64(e)
	}

	v := &Volume{Data: data}
	if a := f.Header.GetAttribute("", "voxel_size"); a != nil {
		v.VoxelSize = a.([]float64)[0]
	}
	if a := f.Header.GetAttribute("", "labels"); a != nil {
		var lj map[string]string
		if err := json.Unmarshal([]byte(a.(string)), &lj); err != nil {
			return nil, fmt.Errorf("drp: parsing labels attribute: %v", err)
		}
		if v.Labels, err = labelsFromJSON(lj); err != nil {
			return nil, err
		}
	}
	v.NormalizeLabels()
	return v, nil
}
