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
	"path/filepath"
	"strconv"
	"time"
)

// ParametersSchemaVersion is written to every sidecar. It should be
// incremented on breaking changes to the sidecar layout.
const ParametersSchemaVersion = "1.0"

const timestampLayout = "2006-01-02 15:04:05"

// Parameters is the JSON sidecar that accompanies every volume on
// disk. It records how to read the data file back plus provenance.
type Parameters struct {
	SchemaVersion string `json:"schema_version"`
	Generator     string `json:"generator,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	ModifiedAt    string `json:"modified_at,omitempty"`

	FilePath   string `json:"file_path,omitempty"`
	FileFormat string `json:"file_format,omitempty"`
	Dtype      string `json:"dtype,omitempty"`
	Endian     string `json:"endian,omitempty"`

	Nx  int `json:"nx"`
	Ny  int `json:"ny"`
	Nz  int `json:"nz"`
	Dim int `json:"dim,omitempty"`

	// VoxelSize is the voxel edge length [μm].
	VoxelSize float64 `json:"voxel_size,omitempty"`

	// Labels maps phase values (as decimal strings, a JSON
	// restriction) to phase names.
	Labels map[string]string `json:"labels,omitempty"`

	// Fractions maps phase values to volume fractions.
	Fractions map[string]float64 `json:"fractions,omitempty"`

	FileSizeBytes int64   `json:"file_size_bytes,omitempty"`
	FileSizeMB    float64 `json:"file_size_mb,omitempty"`
}

// ReadParameters loads a sidecar file.
func ReadParameters(path string) (*Parameters, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err // callers check os.IsNotExist
	}
	p := new(Parameters)
	if err := json.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("drp: parsing parameters %s: %v", path, err)
	}
	return p, nil
}

// Write saves p to path, refreshing the provenance fields: the schema
// version, generator, and creation time are set once, and the
// modification time on every write. The write goes through a temp
// file in the target directory followed by a rename, so a crash never
// leaves a truncated sidecar behind.
func (p *Parameters) Write(path string) error {
	if p.SchemaVersion == "" {
		p.SchemaVersion = ParametersSchemaVersion
	}
	if p.Generator == "" {
		p.Generator = "drp v" + Version
	}
	now := time.Now().Format(timestampLayout)
	if p.CreatedAt == "" {
		p.CreatedAt = now
	}
	p.ModifiedAt = now

	b, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return fmt.Errorf("drp: encoding parameters: %v", err)
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("drp: writing parameters: %v", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)
	if _, err := f.Write(b); err != nil {
		f.Close()
		return fmt.Errorf("drp: writing parameters: %v", err)
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		return fmt.Errorf("drp: writing parameters: %v", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("drp: writing parameters: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("drp: writing parameters: %v", err)
	}
	return nil
}

// UpdateParameters applies update to the sidecar at path and writes it
// back. A missing file starts from an empty Parameters, so the first
// update creates the sidecar.
func UpdateParameters(path string, update func(*Parameters)) error {
	p, err := ReadParameters(path)
	if os.IsNotExist(err) {
		p = new(Parameters)
	} else if err != nil {
		return err
	}
	update(p)
	return p.Write(path)
}

var (
	supportedDtypes  = map[string]int{"uint8": 1, "uint16": 2, "float32": 4, "float64": 8}
	supportedEndians = map[string]bool{"little": true, "big": true}
)

// Validate reports whether p describes a readable volume.
func (p *Parameters) Validate() error {
	if p.SchemaVersion != "" && p.SchemaVersion != ParametersSchemaVersion {
		return fmt.Errorf("drp: parameters schema version %s is incompatible with the required version %s",
			p.SchemaVersion, ParametersSchemaVersion)
	}
	if p.Nx <= 0 || p.Ny <= 0 || p.Nz <= 0 {
		return fmt.Errorf("drp: parameters dimensions (%d, %d, %d) must be positive", p.Nx, p.Ny, p.Nz)
	}
	if p.Dtype != "" {
		if _, ok := supportedDtypes[p.Dtype]; !ok {
			return fmt.Errorf("drp: unsupported dtype %q; use uint8, uint16, float32, or float64", p.Dtype)
		}
	}
	if p.Endian != "" && !supportedEndians[p.Endian] {
		return fmt.Errorf("drp: unsupported endian %q; use little or big", p.Endian)
	}
	if p.VoxelSize < 0 {
		return fmt.Errorf("drp: voxel size %g must not be negative", p.VoxelSize)
	}
	return nil
}

// setVolume fills the dimension, label, and fraction fields from v.
func (p *Parameters) setVolume(v *Volume) {
	p.Nx, p.Ny, p.Nz = v.Nx(), v.Ny(), v.Nz()
	p.Dim = 3
	if v.VoxelSize > 0 {
		p.VoxelSize = v.VoxelSize
	}
	if v.Labels != nil {
		p.Labels = labelsToJSON(v.Labels)
	}
	p.Fractions = fractionsToJSON(v.PhaseFractions())
}

// setFileInfo records the location and on-disk size of the data file.
func (p *Parameters) setFileInfo(path, format string) {
	p.FilePath = path
	p.FileFormat = format
	if fi, err := os.Stat(path); err == nil {
		p.FileSizeBytes = fi.Size()
		p.FileSizeMB = round2(float64(fi.Size()) / (1024 * 1024))
	}
}

func round2(x float64) float64 {
	return float64(int64(x*100+0.5)) / 100
}

// SidecarPath derives the sidecar name for a data file:
// sample.raw → sample.json.
func SidecarPath(dataPath string) string {
	return trimExt(dataPath) + ".json"
}

func trimExt(path string) string {
	return path[:len(path)-len(filepath.Ext(path))]
}

// UniqueSidecarPath returns path if it is free, otherwise the first of
// parameters_1.json, parameters_2.json, … that does not exist yet.
func UniqueSidecarPath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func labelsToJSON(labels map[int]string) map[string]string {
	out := make(map[string]string, len(labels))
	for phase, name := range labels {
		out[strconv.Itoa(phase)] = name
	}
	return out
}

func labelsFromJSON(labels map[string]string) (map[int]string, error) {
	if labels == nil {
		return nil, nil
	}
	out := make(map[int]string, len(labels))
	for key, name := range labels {
		phase, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("drp: label key %q is not an integer phase value", key)
		}
		out[phase] = name
	}
	return out, nil
}

func fractionsToJSON(fractions map[int]float64) map[string]float64 {
	out := make(map[string]float64, len(fractions))
	for phase, f := range fractions {
		out[strconv.Itoa(phase)] = f
	}
	return out
}
