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
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
)

// PreviewServer serves an interactive browser preview of a volume:
// slice images, the phase histogram, the color legend, and the sidecar
// parameters.
type PreviewServer struct {
	volume *Volume
	params *Parameters
	// Style controls how slices and plots are rendered.
	Style PlotStyle
	mux   *http.ServeMux

	Log logrus.FieldLogger
}

// NewPreviewServer creates a preview server for v. params may be nil,
// in which case the sidecar fields are derived from the volume.
func NewPreviewServer(v *Volume, params *Parameters) (*PreviewServer, error) {
	if err := v.check3d(); err != nil {
		return nil, err
	}
	if params == nil {
		params = &Parameters{SchemaVersion: ParametersSchemaVersion}
		params.setVolume(v)
	}
	s := &PreviewServer{
		volume: v,
		params: params,
		Style:  DefaultStyle(),
		Log:    logrus.StandardLogger(),
	}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/", s.indexHandler)
	s.mux.HandleFunc("/slice", s.sliceHandler)
	s.mux.HandleFunc("/histogram", s.histogramHandler)
	s.mux.HandleFunc("/legend", s.legendHandler)
	s.mux.HandleFunc("/parameters", s.parametersHandler)
	return s, nil
}

func (s *PreviewServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Log.WithFields(logrus.Fields{
		"url":  r.URL.String(),
		"addr": r.RemoteAddr,
	}).Info("drp preview request")
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves the preview at address until the server fails.
func (s *PreviewServer) ListenAndServe(address string) error {
	errChan := make(chan error)
	go func() {
		errChan <- http.ListenAndServe(address, s)
	}()
	return <-errChan
}

// StartPreviewServer serves a browser preview of v at address,
// blocking until the server fails.
func StartPreviewServer(v *Volume, params *Parameters, address string) error {
	s, err := NewPreviewServer(v, params)
	if err != nil {
		return err
	}
	return s.ListenAndServe(address)
}

func s2i(s string) (int, error) {
	i64, err := strconv.ParseInt(s, 10, 64)
	return int(i64), err
}

// planeDepth returns the number of slices the volume has along the
// axis normal to plane.
func (s *PreviewServer) planeDepth(plane string) (int, error) {
	switch plane {
	case "xy":
		return s.volume.Nz(), nil
	case "xz":
		return s.volume.Ny(), nil
	case "yz":
		return s.volume.Nx(), nil
	}
	return 0, fmt.Errorf("drp: invalid plane %q; use \"xy\", \"xz\", or \"yz\"", plane)
}

func (s *PreviewServer) sliceHandler(w http.ResponseWriter, r *http.Request) {
	plane := r.FormValue("plane")
	if plane == "" {
		plane = "xy"
	}
	depth, err := s.planeDepth(plane)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	index := depth / 2
	if v := r.FormValue("i"); v != "" {
		index, err = s2i(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	w.Header().Set("Content-Type", "image/png")
	if err := RenderSlice(s.volume, plane, index, s.Style, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (s *PreviewServer) histogramHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	if err := PlotHistogram(s.volume, s.Style, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (s *PreviewServer) legendHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	if err := PlotLegend(s.volume, s.Style, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (s *PreviewServer) parametersHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.MarshalIndent(s.params, "", "    ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(b)
}

func (s *PreviewServer) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	v := s.volume
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>DRP volume preview</title>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    img { border: 1px solid #ccc; margin: 0.5em; }
    table { border-collapse: collapse; }
    td, th { border: 1px solid #ccc; padding: 0.3em 0.8em; text-align: left; }
  </style>
</head>
<body>
<h1>DRP volume preview</h1>
<table>
<tr><th>Dimensions</th><td>%d &times; %d &times; %d</td></tr>
<tr><th>Voxel size</th><td>%g &mu;m</td></tr>
<tr><th>Data</th><td>%s</td></tr>
</table>
<p><a href="/parameters">parameters.json</a></p>
`, v.Nx(), v.Ny(), v.Nz(), v.VoxelSize, v.Classify())
	for _, plane := range []string{"xy", "xz", "yz"} {
		depth, err := s.planeDepth(plane)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "<img src=\"/slice?plane=%s&i=%d\" alt=\"%s slice\">\n", plane, depth/2, plane)
	}
	fmt.Fprint(w, `<h2>Histogram</h2>
<img src="/histogram" alt="histogram">
<h2>Legend</h2>
<img src="/legend" alt="legend">
</body>
</html>
`)
}
