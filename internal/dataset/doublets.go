package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/banshee-data/doublets/internal/doublet"
)

// WriteDoublets writes ds as CSV with an inner,outer header.
func WriteDoublets(w io.Writer, ds []doublet.Doublet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"inner", "outer"}); err != nil {
		return err
	}
	row := make([]string, 2)
	for _, d := range ds {
		row[0] = strconv.FormatInt(d.Inner, 10)
		row[1] = strconv.FormatInt(d.Outer, 10)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveDoublets writes ds to a CSV file at path.
func SaveDoublets(path string, ds []doublet.Doublet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create doublets file: %w", err)
	}
	if err := WriteDoublets(f, ds); err != nil {
		f.Close()
		return fmt.Errorf("write doublets: %w", err)
	}
	return f.Close()
}
