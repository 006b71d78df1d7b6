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
	"fmt"
	"io"
	"math"
	"strconv"
)

// VTIOptions controls the VTK ImageData export.
type VTIOptions struct {
	// Name is the point-data array name, "phases" when empty.
	Name string

	// Origin is the position of voxel (0, 0, 0) [m].
	Origin [3]float64

	// Spacing is the voxel edge length [m]. When zero, the volume's
	// voxel size converted from μm is used, or 1 if that is unknown.
	Spacing float64
}

// WriteVTI writes the volume as an XML VTK ImageData (.vti) file with
// an inline ASCII data array, for rendering in ParaView and similar
// tools. Values are written in VTK point order, x varying fastest.
// Integer volumes with values in [0, 255] are written as UInt8,
// everything else as Float32. There is no matching reader; .vti is an
// export format here.
func WriteVTI(v *Volume, w io.Writer, opts VTIOptions) error {
	if err := v.check3d(); err != nil {
		return err
	}
	name := opts.Name
	if name == "" {
		name = "phases"
	}
	spacing := opts.Spacing
	if spacing == 0 {
		spacing = v.VoxelSize * 1e-6
		if spacing == 0 {
			spacing = 1
		}
	}
	nx, ny, nz := v.Nx(), v.Ny(), v.Nz()

	vtkType := "UInt8"
	for _, e := range v.Data.Elements {
		if e != math.Trunc(e) || e < 0 || e > 255 {
			vtkType = "Float32"
			break
		}
	}

	b := bufio.NewWriter(w)
	extent := fmt.Sprintf("0 %d 0 %d 0 %d", nx-1, ny-1, nz-1)
	fmt.Fprintf(b, "<?xml version=\"1.0\"?>\n")
	fmt.Fprintf(b, "<VTKFile type=\"ImageData\" version=\"0.1\" byte_order=\"LittleEndian\">\n")
	fmt.Fprintf(b, "  <ImageData WholeExtent=\"%s\" Origin=\"%g %g %g\" Spacing=\"%g %g %g\">\n",
		extent, opts.Origin[0], opts.Origin[1], opts.Origin[2], spacing, spacing, spacing)
	fmt.Fprintf(b, "    <Piece Extent=\"%s\">\n", extent)
	fmt.Fprintf(b, "      <PointData Scalars=\"%s\">\n", name)
	fmt.Fprintf(b, "        <DataArray type=\"%s\" Name=\"%s\" format=\"ascii\">\n", vtkType, name)

	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				if x > 0 {
					b.WriteByte(' ')
				}
				e := v.Data.Elements[(x*ny+y)*nz+z]
				if vtkType == "UInt8" {
					b.WriteString(strconv.Itoa(int(e)))
				} else {
					b.WriteString(strconv.FormatFloat(e, 'g', -1, 32))
				}
			}
			b.WriteByte('\n')
		}
	}

	fmt.Fprintf(b, "        </DataArray>\n")
	fmt.Fprintf(b, "      </PointData>\n")
	fmt.Fprintf(b, "      <CellData>\n")
	fmt.Fprintf(b, "      </CellData>\n")
	fmt.Fprintf(b, "    </Piece>\n")
	fmt.Fprintf(b, "  </ImageData>\n")
	fmt.Fprintf(b, "</VTKFile>\n")
	if err := b.Flush(); err != nil {
		return fmt.Errorf("drp: writing vti: %v", err)
	}
	return nil
}
