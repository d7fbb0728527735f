package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/doublets/internal/doublet"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/doublets.defaults.json"

// maxFileSize bounds the size of a config file.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// DoubletConfig is the JSON configuration of a doublet run. Every field is
// optional; the Get* methods supply defaults for fields left unset.
type DoubletConfig struct {
	// Geometry-independent acceptance params
	NPhiSlices       *int     `json:"n_phi_slices,omitempty"`
	MinDoubletLength *float64 `json:"min_doublet_length,omitempty"` // mm
	MaxDoubletLength *float64 `json:"max_doublet_length,omitempty"` // mm
	MaxCtg           *float64 `json:"max_ctg,omitempty"`

	// Beam-line reference planes for the z projection
	ZMinus *float64 `json:"z_minus,omitempty"` // mm
	ZPlus  *float64 `json:"z_plus,omitempty"`  // mm

	// Per-slot projection ratios; empty means "use layer radii"
	RefRatios []float64 `json:"ref_ratios,omitempty"`

	// Execution
	Backend *string `json:"backend,omitempty"` // "scalar" or "batch"
	Workers *int    `json:"workers,omitempty"` // 0 means GOMAXPROCS

	// Yield model coefficients a0..a3; empty means the built-in model
	YieldCoefficients []float64 `json:"yield_coefficients,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyDoubletConfig returns a DoubletConfig with all fields unset.
func EmptyDoubletConfig() *DoubletConfig {
	return &DoubletConfig{}
}

// DefaultDoubletConfig returns a DoubletConfig with every scalar field set
// to its default value.
func DefaultDoubletConfig() *DoubletConfig {
	var c DoubletConfig
	return &DoubletConfig{
		NPhiSlices:       ptrInt(c.GetNPhiSlices()),
		MinDoubletLength: ptrFloat64(c.GetMinDoubletLength()),
		MaxDoubletLength: ptrFloat64(c.GetMaxDoubletLength()),
		MaxCtg:           ptrFloat64(c.GetMaxCtg()),
		ZMinus:           ptrFloat64(c.GetZMinus()),
		ZPlus:            ptrFloat64(c.GetZPlus()),
		Backend:          ptrString(c.GetBackend()),
		Workers:          ptrInt(c.GetWorkers()),
	}
}

// LoadDoubletConfig loads a DoubletConfig from a JSON file. The file must
// have a .json extension and be at most 1MB. Fields omitted from the file
// keep their defaults.
func LoadDoubletConfig(path string) (*DoubletConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyDoubletConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. It panics if the
// file cannot be loaded and is intended for tests.
func MustLoadDefaultConfig() *DoubletConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadDoubletConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set. Cross-field checks use the
// effective values, so a partial config is validated against the defaults.
func (c *DoubletConfig) Validate() error {
	if c.NPhiSlices != nil && *c.NPhiSlices < 2 {
		return fmt.Errorf("n_phi_slices must be at least 2, got %d", *c.NPhiSlices)
	}
	if c.MinDoubletLength != nil && *c.MinDoubletLength < 0 {
		return fmt.Errorf("min_doublet_length must be non-negative, got %g", *c.MinDoubletLength)
	}
	if c.GetMaxDoubletLength() <= c.GetMinDoubletLength() {
		return fmt.Errorf("max_doublet_length (%g) must exceed min_doublet_length (%g)",
			c.GetMaxDoubletLength(), c.GetMinDoubletLength())
	}
	if c.MaxCtg != nil && *c.MaxCtg <= 0 {
		return fmt.Errorf("max_ctg must be positive, got %g", *c.MaxCtg)
	}
	if c.GetZMinus() >= c.GetZPlus() {
		return fmt.Errorf("z_minus (%g) must be below z_plus (%g)", c.GetZMinus(), c.GetZPlus())
	}
	if n := len(c.RefRatios); n != 0 && n != doublet.NumSlots {
		return fmt.Errorf("ref_ratios must have %d entries, got %d", doublet.NumSlots, n)
	}
	for i, r := range c.RefRatios {
		if r <= 0 {
			return fmt.Errorf("ref_ratios[%d] must be positive, got %g", i, r)
		}
	}
	if c.Backend != nil {
		switch *c.Backend {
		case doublet.BackendScalar, doublet.BackendBatch:
		default:
			return fmt.Errorf("backend must be %q or %q, got %q",
				doublet.BackendScalar, doublet.BackendBatch, *c.Backend)
		}
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if n := len(c.YieldCoefficients); n != 0 && n != 4 {
		return fmt.Errorf("yield_coefficients must have 4 entries (a0..a3), got %d", n)
	}
	return nil
}

// GetNPhiSlices returns n_phi_slices or the default.
func (c *DoubletConfig) GetNPhiSlices() int {
	if c.NPhiSlices == nil {
		return 53
	}
	return *c.NPhiSlices
}

// GetMinDoubletLength returns min_doublet_length or the default.
func (c *DoubletConfig) GetMinDoubletLength() float64 {
	if c.MinDoubletLength == nil {
		return 10
	}
	return *c.MinDoubletLength
}

// GetMaxDoubletLength returns max_doublet_length or the default.
func (c *DoubletConfig) GetMaxDoubletLength() float64 {
	if c.MaxDoubletLength == nil {
		return 300
	}
	return *c.MaxDoubletLength
}

// GetMaxCtg returns max_ctg or the default.
func (c *DoubletConfig) GetMaxCtg() float64 {
	if c.MaxCtg == nil {
		return 7.4
	}
	return *c.MaxCtg
}

// GetZMinus returns z_minus or the default.
func (c *DoubletConfig) GetZMinus() float64 {
	if c.ZMinus == nil {
		return -150
	}
	return *c.ZMinus
}

// GetZPlus returns z_plus or the default.
func (c *DoubletConfig) GetZPlus() float64 {
	if c.ZPlus == nil {
		return 150
	}
	return *c.ZPlus
}

// GetBackend returns backend or the default.
func (c *DoubletConfig) GetBackend() string {
	if c.Backend == nil || *c.Backend == "" {
		return doublet.BackendScalar
	}
	return *c.Backend
}

// GetWorkers returns workers or the default.
func (c *DoubletConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetYieldModel returns the configured yield model or
// doublet.DefaultYieldModel.
func (c *DoubletConfig) GetYieldModel() doublet.Polynomial {
	if len(c.YieldCoefficients) != 4 {
		return doublet.DefaultYieldModel
	}
	k := c.YieldCoefficients
	return doublet.Polynomial{A0: k[0], A1: k[1], A2: k[2], A3: k[3]}
}

// Params builds the pipeline parameters for a geometry with nLayers layers.
func (c *DoubletConfig) Params(nLayers int) doublet.Params {
	var ratios []float64
	if len(c.RefRatios) > 0 {
		ratios = append([]float64(nil), c.RefRatios...)
	}
	return doublet.Params{
		NLayers:          nLayers,
		NPhiSlices:       c.GetNPhiSlices(),
		MinDoubletLength: c.GetMinDoubletLength(),
		MaxDoubletLength: c.GetMaxDoubletLength(),
		MaxCtg:           c.GetMaxCtg(),
		ZMinus:           c.GetZMinus(),
		ZPlus:            c.GetZPlus(),
		RefRatios:        ratios,
	}
}
