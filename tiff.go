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
	"image"
	"image/color"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"golang.org/x/image/tiff"
)

// TIFFOptions holds metadata to attach to a volume imported from a
// TIFF slice sequence.
type TIFFOptions struct {
	// VoxelSize is the voxel edge length [μm].
	VoxelSize float64

	// Labels maps phase values to names, recorded in the sidecar.
	Labels map[int]string
}

var (
	tiffIndexRE = regexp.MustCompile(`(?i)(\d+)\.tiff?$`)
	tiffStemRE  = regexp.MustCompile(`(?i)[_\-]?\d+\.tiff?$`)
)

type tiffSlice struct {
	name  string
	index int
}

// ReadTIFFSequence reads a stack of numbered single-page TIFF images
// (name_0000.tif, name_0001.tif, …) from dir into a volume, one image
// per z slice. The slice numbering must be sequential with no gaps
// and every image must have the shape of the first. Image columns map
// to x and rows to y. Labels are normalized so the minimum phase is
// zero, and a sidecar named after the stem with the index stripped is
// created or updated in dir.
//
// Multi-page TIFF files are not supported; split them into a sequence
// first.
func ReadTIFFSequence(dir string, opts TIFFOptions) (*Volume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("drp: reading TIFF sequence: %v", err)
	}
	var slices []tiffSlice
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := tiffIndexRE.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("drp: parsing slice index of %s: %v", e.Name(), err)
		}
		slices = append(slices, tiffSlice{name: e.Name(), index: index})
	}
	if len(slices) == 0 {
		return nil, fmt.Errorf("drp: no numbered .tif files in %s", dir)
	}
	sort.Slice(slices, func(i, j int) bool { return slices[i].index < slices[j].index })
	for i, s := range slices {
		if s.index != slices[0].index+i {
			return nil, fmt.Errorf("drp: TIFF sequence in %s is not sequentially numbered at %s",
				dir, s.name)
		}
	}

	var v *Volume
	var totalBytes int64
	nz := len(slices)
	for z, s := range slices {
		path := filepath.Join(dir, s.name)
		img, err := decodeTIFF(path)
		if err != nil {
			return nil, err
		}
		b := img.Bounds()
		nx, ny := b.Dx(), b.Dy()
		if v == nil {
			v = NewVolume(nx, ny, nz)
		} else if nx != v.Nx() || ny != v.Ny() {
			return nil, fmt.Errorf("drp: %s is %d×%d; the first slice is %d×%d",
				s.name, nx, ny, v.Nx(), v.Ny())
		}
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				v.Data.Elements[(x*ny+y)*nz+z] = grayValue(img, b.Min.X+x, b.Min.Y+y)
			}
		}
		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("drp: reading TIFF sequence: %v", err)
		}
		totalBytes += fi.Size()
	}
	v.VoxelSize = opts.VoxelSize
	v.Labels = opts.Labels
	v.NormalizeLabels()

	stem := tiffStemRE.ReplaceAllString(slices[0].name, "")
	if stem == "" {
		stem = "volume"
	}
	err = UpdateParameters(filepath.Join(dir, stem+".json"), func(p *Parameters) {
		p.setVolume(v)
		p.FilePath = dir
		p.FileFormat = "tiff"
		p.FileSizeBytes = totalBytes
		p.FileSizeMB = round2(float64(totalBytes) / (1 << 20))
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeTIFF(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("drp: reading TIFF sequence: %v", err)
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("drp: decoding %s: %v", path, err)
	}
	return img, nil
}

// grayValue reads one pixel as a phase or intensity value, preserving
// the stored integer for the image kinds segmented data arrives in.
func grayValue(img image.Image, x, y int) float64 {
	switch im := img.(type) {
	case *image.Gray:
		return float64(im.GrayAt(x, y).Y)
	case *image.Gray16:
		return float64(im.Gray16At(x, y).Y)
	case *image.Paletted:
		return float64(im.ColorIndexAt(x, y))
	default:
		c := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
		return float64(c.Y)
	}
}

// WriteTIFFSequence writes the volume as one grayscale TIFF per z
// slice, named stem_0000.tif and so on, plus a sidecar named after
// the stem. Volumes whose values fit in a byte are written 8-bit,
// others 16-bit.
func WriteTIFFSequence(v *Volume, dir, stem string) error {
	if err := v.check3d(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("drp: writing TIFF sequence: %v", err)
	}
	nx, ny, nz := v.Nx(), v.Ny(), v.Nz()
	stat := v.Statistics()
	wide := stat.Min < 0 || stat.Max > 255

	var totalBytes int64
	for z := 0; z < nz; z++ {
		var img image.Image
		if wide {
			im := image.NewGray16(image.Rect(0, 0, nx, ny))
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					im.SetGray16(x, y, color.Gray16{Y: uint16(v.Data.Elements[(x*ny+y)*nz+z])})
				}
			}
			img = im
		} else {
			im := image.NewGray(image.Rect(0, 0, nx, ny))
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					im.SetGray(x, y, color.Gray{Y: uint8(v.Data.Elements[(x*ny+y)*nz+z])})
				}
			}
			img = im
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%04d.tif", stem, z))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("drp: writing TIFF sequence: %v", err)
		}
		if err := tiff.Encode(f, img, nil); err != nil {
			f.Close()
			return fmt.Errorf("drp: encoding %s: %v", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("drp: writing TIFF sequence: %v", err)
		}
		fi, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("drp: writing TIFF sequence: %v", err)
		}
		totalBytes += fi.Size()
	}

	dtype := "uint8"
	if wide {
		dtype = "uint16"
	}
	return UpdateParameters(filepath.Join(dir, stem+".json"), func(p *Parameters) {
		p.setVolume(v)
		p.Dtype = dtype
		p.FilePath = dir
		p.FileFormat = "tiff"
		p.FileSizeBytes = totalBytes
		p.FileSizeMB = round2(float64(totalBytes) / (1 << 20))
	})
}
