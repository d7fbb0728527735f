package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/banshee-data/doublets/internal/geometry"
	"github.com/banshee-data/doublets/internal/monitoring"
)

// Format identifies a hit file layout.
type Format string

const (
	// FormatHitTable is a prepared table: hit_id,layer,phi_slice,r,z.
	FormatHitTable Format = "hit-table"
	// FormatTrackML is a raw table: hit_id,x,y,z,volume_id,layer_id,...
	FormatTrackML Format = "trackml"
)

var (
	hitTableColumns = []string{"hit_id", "layer", "phi_slice", "r", "z"}
	trackMLColumns  = []string{"hit_id", "x", "y", "z", "volume_id", "layer_id"}
)

// ErrUnknownFormat is returned when a header matches neither hit format.
var ErrUnknownFormat = errors.New("unrecognised hit file header")

// detectFormat picks the hit format from the header columns.
func detectFormat(h header) (Format, error) {
	switch {
	case h.has(hitTableColumns...):
		return FormatHitTable, nil
	case h.has(trackMLColumns...):
		return FormatTrackML, nil
	}
	return "", ErrUnknownFormat
}

// LoadHits reads the hits of one event from a CSV file. Raw TrackML hits
// are mapped through tbl and binned into nPhiSlices azimuthal slices; hits
// on volumes the table does not describe are dropped.
func LoadHits(path string, tbl geometry.Table, nPhiSlices int) ([]geometry.Hit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hits: %w", err)
	}
	defer f.Close()

	hits, err := ReadHits(f, tbl, nPhiSlices)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return hits, nil
}

// ReadHits parses hits from r. See LoadHits.
func ReadHits(r io.Reader, tbl geometry.Table, nPhiSlices int) ([]geometry.Hit, error) {
	if nPhiSlices < 2 {
		return nil, fmt.Errorf("n_phi_slices must be at least 2, got %d", nPhiSlices)
	}
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	format, err := detectFormat(h)
	if err != nil {
		return nil, err
	}

	var parse func(row []string) (geometry.Hit, bool, error)
	switch format {
	case FormatHitTable:
		idx, _ := h.require(hitTableColumns...)
		parse = func(row []string) (geometry.Hit, bool, error) {
			hit, err := parseHitTableRow(row, idx)
			return hit, true, err
		}
	case FormatTrackML:
		idx, _ := h.require(trackMLColumns...)
		parse = func(row []string) (geometry.Hit, bool, error) {
			return parseTrackMLRow(row, idx, tbl, nPhiSlices)
		}
	}

	var hits []geometry.Hit
	dropped := 0
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		hit, ok, err := parse(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			dropped++
			continue
		}
		hits = append(hits, hit)
	}

	if dropped > 0 {
		monitoring.Logf("dataset: dropped %d %s hits outside the geometry table", dropped, format)
	}
	monitoring.Debugf("dataset: read %d hits (%s)", len(hits), format)
	return hits, nil
}

func parseHitTableRow(row []string, idx []int) (geometry.Hit, error) {
	var hit geometry.Hit
	var err error
	if hit.ID, err = parseInt(row, idx[0], "hit_id"); err != nil {
		return hit, err
	}
	layer, err := parseInt(row, idx[1], "layer")
	if err != nil {
		return hit, err
	}
	phi, err := parseInt(row, idx[2], "phi_slice")
	if err != nil {
		return hit, err
	}
	hit.Layer, hit.Phi = int(layer), int(phi)
	if hit.R, err = parseFloat(row, idx[3], "r"); err != nil {
		return hit, err
	}
	if hit.Z, err = parseFloat(row, idx[4], "z"); err != nil {
		return hit, err
	}
	return hit, nil
}

// parseTrackMLRow converts one raw hit. The bool result is false when the
// hit's volume layer is not in tbl.
func parseTrackMLRow(row []string, idx []int, tbl geometry.Table, nPhiSlices int) (geometry.Hit, bool, error) {
	var hit geometry.Hit
	var err error
	if hit.ID, err = parseInt(row, idx[0], "hit_id"); err != nil {
		return hit, false, err
	}
	x, err := parseFloat(row, idx[1], "x")
	if err != nil {
		return hit, false, err
	}
	y, err := parseFloat(row, idx[2], "y")
	if err != nil {
		return hit, false, err
	}
	if hit.Z, err = parseFloat(row, idx[3], "z"); err != nil {
		return hit, false, err
	}
	vol, err := parseInt(row, idx[4], "volume_id")
	if err != nil {
		return hit, false, err
	}
	volLayer, err := parseInt(row, idx[5], "layer_id")
	if err != nil {
		return hit, false, err
	}

	layer, ok := tbl.LookupVolume(int(vol), int(volLayer))
	if !ok {
		return hit, false, nil
	}
	hit.Layer = layer
	hit.R = math.Hypot(x, y)
	hit.Phi = geometry.BinPhi(x, y, nPhiSlices)
	return hit, true, nil
}
