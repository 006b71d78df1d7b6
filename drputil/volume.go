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

package drputil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/rockphysics/drp"
	"github.com/sirupsen/logrus"
)

// ReadVolume loads a volume from path, choosing the reader by file
// type: a directory or a .tif file reads a numbered TIFF sequence,
// .raw reads raw binary using the sidecar plus any Raw.* overrides,
// and .nc reads NetCDF.
func ReadVolume(cfg *viper.Viper, path string) (*drp.Volume, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("drp: opening %s: %v", path, err)
	}
	if fi.IsDir() {
		return drp.ReadTIFFSequence(path, drp.TIFFOptions{})
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".raw", ".bin", ".dat":
		return drp.ReadRaw(path, drp.RawOptions{
			Dtype:     cfg.GetString("Raw.Dtype"),
			Endian:    cfg.GetString("Raw.Endian"),
			AxisOrder: cfg.GetString("Raw.AxisOrder"),
			Nx:        cfg.GetInt("Raw.Nx"),
			Ny:        cfg.GetInt("Raw.Ny"),
			Nz:        cfg.GetInt("Raw.Nz"),
		})
	case ".tif", ".tiff":
		return drp.ReadTIFFSequence(filepath.Dir(path), drp.TIFFOptions{})
	case ".nc", ".ncf", ".cdf":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("drp: opening %s: %v", path, err)
		}
		defer f.Close()
		return drp.ReadNetCDF(f, cfg.GetString("Netcdf.Variable"))
	}
	return nil, fmt.Errorf("drp: unsupported input %s; use .raw, .tif, .nc, or a TIFF directory", path)
}

// resolveFormat maps an explicit format name or an output path to one
// of raw, tiff, netcdf, or vti. A path without an extension is treated
// as a TIFF sequence directory.
func resolveFormat(format, path string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".raw", ".bin", ".dat":
			return "raw", nil
		case ".tif", ".tiff", "":
			return "tiff", nil
		case ".nc", ".ncf", ".cdf":
			return "netcdf", nil
		case ".vti":
			return "vti", nil
		}
		return "", fmt.Errorf("drp: cannot infer the output format of %s; set --format", path)
	}
	switch strings.ToLower(format) {
	case "raw":
		return "raw", nil
	case "tif", "tiff":
		return "tiff", nil
	case "nc", "netcdf":
		return "netcdf", nil
	case "vti":
		return "vti", nil
	}
	return "", fmt.Errorf("drp: unknown format %q; use raw, tiff, netcdf, or vti", format)
}

// WriteVolume saves v to path in the given format, or in the format
// implied by the path when format is empty.
func WriteVolume(cfg *viper.Viper, v *drp.Volume, path, format string) error {
	format, err := resolveFormat(format, path)
	if err != nil {
		return err
	}
	switch format {
	case "raw":
		opts := drp.RawOptions{
			Dtype:     cfg.GetString("Raw.Dtype"),
			Endian:    cfg.GetString("Raw.Endian"),
			AxisOrder: cfg.GetString("Raw.AxisOrder"),
		}
		if err := drp.WriteRaw(v, path, opts); err != nil {
			return err
		}
		if cfg.GetBool("Raw.Header") {
			header := strings.TrimSuffix(path, filepath.Ext(path)) + ".H"
			return drp.WriteSEPHeader(header, v)
		}
		return nil
	case "tiff":
		dir, stem := path, filepath.Base(path)
		if ext := strings.ToLower(filepath.Ext(path)); ext == ".tif" || ext == ".tiff" {
			dir = filepath.Dir(path)
			stem = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return drp.WriteTIFFSequence(v, dir, stem)
	case "netcdf":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("drp: creating %s: %v", path, err)
		}
		if err := drp.WriteNetCDF(v, f, cfg.GetString("Netcdf.Variable"),
			"digital rock phase volume", ""); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case "vti":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("drp: creating %s: %v", path, err)
		}
		if err := drp.WriteVTI(v, f, drp.VTIOptions{}); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	panic("unreachable")
}

// writeGenerated applies the shared model options to a freshly
// generated volume and writes it to the configured output.
func writeGenerated(cfg *viper.Viper, v *drp.Volume) error {
	v.VoxelSize = cfg.GetFloat64("Model.VoxelSize")
	output, err := checkOutputFile(cfg.GetString("output"))
	if err != nil {
		return err
	}
	if err := WriteVolume(cfg, v, output, cfg.GetString("format")); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"output": output,
		"nx":     v.Nx(),
		"ny":     v.Ny(),
		"nz":     v.Nz(),
	}).Info("drp: wrote volume")
	return nil
}

// middleSlice returns the index of the middle slice of v along the
// axis normal to plane.
func middleSlice(v *drp.Volume, plane string) (int, error) {
	switch plane {
	case "xy":
		return v.Nz() / 2, nil
	case "xz":
		return v.Ny() / 2, nil
	case "yz":
		return v.Nx() / 2, nil
	}
	return 0, fmt.Errorf("drp: invalid plane %q; use \"xy\", \"xz\", or \"yz\"", plane)
}
