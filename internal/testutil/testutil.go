// Package testutil provides fixtures shared by the dataset, API and command
// tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// BarrelRadii are the layer radii (mm) of the fixture barrel.
var BarrelRadii = []float64{32, 72, 116, 172, 260, 360, 500, 660, 820, 1020}

// BarrelVolume is the volume id the fixture barrel layers belong to.
const BarrelVolume = 8

// BarrelGeometryCSV returns a geometry table for the fixture barrel. Layer
// i has volume layer 2(i+1) and a half-length of 450+60i mm.
func BarrelGeometryCSV() string {
	var b strings.Builder
	b.WriteString("layer,volume_id,volume_layer,r,z_min,z_max\n")
	for i, r := range BarrelRadii {
		half := 450 + 60*float64(i)
		fmt.Fprintf(&b, "%d,%d,%d,%g,%g,%g\n", i, BarrelVolume, 2*(i+1), r, -half, half)
	}
	return b.String()
}

// StraightTrackHitsCSV returns a hit table with one hit per barrel layer
// on the line z = ctg*r, all in phi slice phi. Hit ids start at 1.
func StraightTrackHitsCSV(ctg float64, phi int) string {
	var b strings.Builder
	b.WriteString("hit_id,layer,phi_slice,r,z\n")
	for i, r := range BarrelRadii {
		fmt.Fprintf(&b, "%d,%d,%d,%g,%g\n", i+1, i, phi, r, ctg*r)
	}
	return b.String()
}

// WriteFile writes content to name inside dir and returns the path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// Serve runs one request against h and returns the recorder.
func Serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}
