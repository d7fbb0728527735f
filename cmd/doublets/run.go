package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/banshee-data/doublets/internal/api"
	"github.com/banshee-data/doublets/internal/config"
	"github.com/banshee-data/doublets/internal/dataset"
	"github.com/banshee-data/doublets/internal/db"
	"github.com/banshee-data/doublets/internal/doublet"
	"github.com/banshee-data/doublets/internal/monitoring"
	"github.com/banshee-data/doublets/internal/report"
)

// options are the resolved command-line settings of one run.
type options struct {
	HitsPath     string
	GeometryPath string
	ConfigPath   string
	Backend      string // overrides the config when non-empty
	Workers      int    // overrides the config when >= 0
	OutPath      string
	DBPath       string
	PlotsDir     string
	Check        bool
}

type result struct {
	Backend   string
	NHits     int
	Estimated int
	Doublets  []doublet.Doublet
	Duration  time.Duration
	RunID     string
}

func loadConfig(path string) (*config.DoubletConfig, error) {
	if path == "" {
		return config.DefaultDoubletConfig(), nil
	}
	return config.LoadDoubletConfig(path)
}

func otherBackend(name string) string {
	if name == doublet.BackendBatch {
		return doublet.BackendScalar
	}
	return doublet.BackendBatch
}

func makeDoublets(name string, workers int, ev *doublet.Event) ([]doublet.Doublet, error) {
	b, err := doublet.NewBackend(name, workers)
	if err != nil {
		return nil, err
	}
	if c, ok := b.(io.Closer); ok {
		defer c.Close()
	}
	return b.MakeDoublets(ev), nil
}

func run(opts options) (*result, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Backend != "" {
		cfg.Backend = &opts.Backend
	}
	if opts.Workers >= 0 {
		cfg.Workers = &opts.Workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tbl, err := dataset.LoadGeometry(opts.GeometryPath)
	if err != nil {
		return nil, err
	}
	params := cfg.Params(tbl.NumLayers())
	hits, err := dataset.LoadHits(opts.HitsPath, tbl, params.NPhiSlices)
	if err != nil {
		return nil, err
	}
	ev, err := doublet.NewEvent(params, tbl, hits)
	if err != nil {
		return nil, err
	}
	monitoring.Debugf("event: %d hits on %d layers", len(hits), tbl.NumLayers())

	res := &result{
		Backend:   cfg.GetBackend(),
		NHits:     len(hits),
		Estimated: cfg.GetYieldModel().Estimate(len(hits)),
	}
	start := time.Now()
	res.Doublets, err = makeDoublets(res.Backend, cfg.GetWorkers(), ev)
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)

	if opts.Check {
		other := otherBackend(res.Backend)
		ds, err := makeDoublets(other, cfg.GetWorkers(), ev)
		if err != nil {
			return nil, err
		}
		if !slices.Equal(ds, res.Doublets) {
			return nil, fmt.Errorf("backends disagree: %s found %d doublets, %s found %d",
				res.Backend, len(res.Doublets), other, len(ds))
		}
		monitoring.Logf("check: %s and %s backends agree", res.Backend, other)
	}

	if opts.OutPath != "" {
		if err := dataset.SaveDoublets(opts.OutPath, res.Doublets); err != nil {
			return nil, err
		}
	}
	if opts.PlotsDir != "" {
		if err := writePlots(opts.PlotsDir, ev, res.Doublets); err != nil {
			return nil, err
		}
	}
	if opts.DBPath != "" {
		id, err := record(opts, ev, res)
		if err != nil {
			return nil, err
		}
		res.RunID = id
	}
	return res, nil
}

func writePlots(dir string, ev *doublet.Event, ds []doublet.Doublet) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create plots directory: %w", err)
	}
	if err := report.PlotRZ(ev, ds, filepath.Join(dir, "rz.png")); err != nil {
		return err
	}

	summary, err := report.Summarize(ev, ds)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, "yield.html"))
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	dr := deltaR(ev, ds)
	if err := report.RenderYieldPage(f, "Doublet yield", summary.LayerPairs, dr); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "summary.json"), data, 0644)
}

// deltaR returns the sorted radial separations of ds.
func deltaR(ev *doublet.Event, ds []doublet.Doublet) []float64 {
	r := make(map[int64]float64, len(ev.Hits))
	for _, h := range ev.Hits {
		r[h.ID] = h.R
	}
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = r[d.Outer] - r[d.Inner]
	}
	slices.Sort(out)
	return out
}

func record(opts options, ev *doublet.Event, res *result) (string, error) {
	database, err := db.NewDB(opts.DBPath)
	if err != nil {
		return "", err
	}
	defer database.Close()

	records, err := db.RecordsFromEvent(ev, res.Doublets)
	if err != nil {
		return "", err
	}
	run := &db.Run{
		Backend:           res.Backend,
		HitsPath:          opts.HitsPath,
		GeometryPath:      opts.GeometryPath,
		NHits:             res.NHits,
		EstimatedDoublets: res.Estimated,
		Duration:          res.Duration,
		Params:            ev.Params,
	}
	if err := database.RecordRun(run, records); err != nil {
		return "", err
	}
	return run.ID, nil
}

// refit fits the yield model to every stored run and prints the
// coefficients in config form.
func refit(w io.Writer, path string) error {
	database, err := db.NewDB(path)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.Runs(10000)
	if err != nil {
		return err
	}
	samples := make([]doublet.YieldSample, len(runs))
	for i, r := range runs {
		samples[i] = doublet.YieldSample{Hits: r.NHits, Doublets: r.NDoublets}
	}
	poly, err := doublet.FitPolynomial(samples)
	if err != nil {
		return err
	}
	out := map[string][]float64{
		"yield_coefficients": {poly.A0, poly.A1, poly.A2, poly.A3},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// serve runs the API and debug routes over the run store until ctx is done.
// A non-empty plotsDir is served under /plots/.
func serve(ctx context.Context, addr, path, plotsDir string) error {
	database, err := db.NewDB(path)
	if err != nil {
		return err
	}
	defer database.Close()

	srv := api.NewServer(database)
	if plotsDir != "" {
		srv = srv.WithPlotsDir(plotsDir)
	}
	mux := srv.ServeMux()
	if err := database.AttachAdminRoutes(mux); err != nil {
		return err
	}
	server := &http.Server{
		Addr:    addr,
		Handler: api.LoggingMiddleware(mux),
	}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("serving run store on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	return nil
}
