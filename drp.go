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

// Package drp manages segmented digital rock volumes: reading and
// writing them in raw binary, TIFF sequence, NetCDF, and VTK ImageData
// form, generating synthetic microstructures, and deriving phase
// statistics, reports, and preview images from them.
//
// A volume is a (nx, ny, nz) array of phase labels with a voxel edge
// length in micrometers. Every import normalizes the data to that
// layout and keeps a JSON parameters sidecar describing it.
package drp

// Version gives the current version of the program.
const Version = "0.1.0" // versioning scheme at: http://semver.org/

// DataVersion is the version of the volume container format. It is
// embedded in NetCDF exports and checked on load; it should be
// incremented whenever the layout of the stored data changes.
const DataVersion = "1.0"
