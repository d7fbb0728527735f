package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/doublets/internal/geometry"
)

var geometryColumns = []string{"layer", "r", "z_min", "z_max"}

// LoadGeometry reads a geometry table from a CSV file with the columns
// layer,r,z_min,z_max and optionally volume_id,volume_layer.
func LoadGeometry(path string) (geometry.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return geometry.Table{}, fmt.Errorf("open geometry: %w", err)
	}
	defer f.Close()

	tbl, err := ReadGeometry(f)
	if err != nil {
		return geometry.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return tbl, nil
}

// ReadGeometry parses a geometry table from r.
func ReadGeometry(r io.Reader) (geometry.Table, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return geometry.Table{}, err
	}
	idx, err := h.require(geometryColumns...)
	if err != nil {
		return geometry.Table{}, err
	}
	volCol, hasVol := h["volume_id"]
	volLayerCol, hasVolLayer := h["volume_layer"]

	var bounds []geometry.LayerBounds
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return geometry.Table{}, fmt.Errorf("line %d: %w", line, err)
		}

		var b geometry.LayerBounds
		layer, err := parseInt(row, idx[0], "layer")
		if err != nil {
			return geometry.Table{}, fmt.Errorf("line %d: %w", line, err)
		}
		b.Layer = int(layer)
		if b.R, err = parseFloat(row, idx[1], "r"); err != nil {
			return geometry.Table{}, fmt.Errorf("line %d: %w", line, err)
		}
		if b.ZMin, err = parseFloat(row, idx[2], "z_min"); err != nil {
			return geometry.Table{}, fmt.Errorf("line %d: %w", line, err)
		}
		if b.ZMax, err = parseFloat(row, idx[3], "z_max"); err != nil {
			return geometry.Table{}, fmt.Errorf("line %d: %w", line, err)
		}
		if hasVol && hasVolLayer {
			vol, err := parseInt(row, volCol, "volume_id")
			if err != nil {
				return geometry.Table{}, fmt.Errorf("line %d: %w", line, err)
			}
			vl, err := parseInt(row, volLayerCol, "volume_layer")
			if err != nil {
				return geometry.Table{}, fmt.Errorf("line %d: %w", line, err)
			}
			b.VolumeID, b.VolumeLayer = int(vol), int(vl)
		}
		bounds = append(bounds, b)
	}
	return geometry.NewTable(bounds)
}
