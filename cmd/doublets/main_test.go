package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/doublets/internal/db"
	"github.com/banshee-data/doublets/internal/doublet"
	"github.com/banshee-data/doublets/internal/testutil"
)

// straightTrackDoublets are the pairs accepted on testutil's straight
// track: every L+1 pair, and the L+2 pairs shorter than 300 mm.
var straightTrackDoublets = []doublet.Doublet{
	{Inner: 1, Outer: 2}, {Inner: 1, Outer: 3},
	{Inner: 2, Outer: 3}, {Inner: 2, Outer: 4},
	{Inner: 3, Outer: 4}, {Inner: 3, Outer: 5},
	{Inner: 4, Outer: 5}, {Inner: 4, Outer: 6},
	{Inner: 5, Outer: 6}, {Inner: 5, Outer: 7},
	{Inner: 6, Outer: 7},
	{Inner: 7, Outer: 8},
	{Inner: 8, Outer: 9},
	{Inner: 9, Outer: 10},
}

func fixture(t *testing.T) options {
	t.Helper()
	dir := t.TempDir()
	return options{
		GeometryPath: testutil.WriteFile(t, dir, "geometry.csv", testutil.BarrelGeometryCSV()),
		HitsPath:     testutil.WriteFile(t, dir, "hits.csv", testutil.StraightTrackHitsCSV(0.5, 4)),
		Workers:      -1,
	}
}

func TestRun_Backends(t *testing.T) {
	t.Parallel()
	for _, backend := range []string{doublet.BackendScalar, doublet.BackendBatch} {
		t.Run(backend, func(t *testing.T) {
			t.Parallel()
			opts := fixture(t)
			opts.Backend = backend
			opts.Workers = 2
			opts.Check = true

			res, err := run(opts)
			require.NoError(t, err)
			assert.Equal(t, backend, res.Backend)
			assert.Equal(t, 10, res.NHits)
			if diff := cmp.Diff(straightTrackDoublets, res.Doublets); diff != "" {
				t.Errorf("doublets mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun_Outputs(t *testing.T) {
	t.Parallel()
	opts := fixture(t)
	dir := t.TempDir()
	opts.OutPath = filepath.Join(dir, "doublets.csv")
	opts.PlotsDir = filepath.Join(dir, "plots")
	opts.DBPath = filepath.Join(dir, "runs.db")

	res, err := run(opts)
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	data, err := os.ReadFile(opts.OutPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "inner,outer\n1,2\n1,3\n")

	for _, name := range []string{"rz.png", "yield.html", "summary.json"} {
		_, err := os.Stat(filepath.Join(opts.PlotsDir, name))
		assert.NoError(t, err, name)
	}

	database, err := db.NewDB(opts.DBPath)
	require.NoError(t, err)
	defer database.Close()
	stored, err := database.Run(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, len(straightTrackDoublets), stored.NDoublets)
	assert.Equal(t, opts.HitsPath, stored.HitsPath)
	assert.Equal(t, 10, stored.Params.NLayers)
}

func TestRun_ConfigFile(t *testing.T) {
	t.Parallel()
	opts := fixture(t)
	opts.ConfigPath = testutil.WriteFile(t, t.TempDir(), "run.json",
		`{"max_doublet_length": 150, "backend": "batch"}`)

	res, err := run(opts)
	require.NoError(t, err)
	assert.Equal(t, doublet.BackendBatch, res.Backend)
	assert.Equal(t, []doublet.Doublet{
		{Inner: 1, Outer: 2}, {Inner: 1, Outer: 3},
		{Inner: 2, Outer: 3}, {Inner: 2, Outer: 4},
		{Inner: 3, Outer: 4}, {Inner: 3, Outer: 5},
		{Inner: 4, Outer: 5},
		{Inner: 5, Outer: 6},
		{Inner: 6, Outer: 7},
	}, res.Doublets)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	opts := fixture(t)
	opts.Backend = "gpu"
	_, err := run(opts)
	assert.Error(t, err)

	opts = fixture(t)
	opts.HitsPath = filepath.Join(t.TempDir(), "absent.csv")
	_, err = run(opts)
	assert.ErrorIs(t, err, os.ErrNotExist)

	opts = fixture(t)
	opts.HitsPath = testutil.WriteFile(t, t.TempDir(), "bad.csv", "hit_id,layer,phi_slice,r,z\n1,0,0,0,5\n")
	_, err = run(opts)
	assert.ErrorIs(t, err, doublet.ErrNonPositiveRadius)

	opts = fixture(t)
	opts.ConfigPath = testutil.WriteFile(t, t.TempDir(), "run.json", `{"max_ctg": -1}`)
	_, err = run(opts)
	assert.Error(t, err)
}

func TestRefit(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "runs.db")
	database, err := db.NewDB(path)
	require.NoError(t, err)

	truth := doublet.Polynomial{A0: 50, A1: 2, A2: 0.01}
	for _, n := range []int{100, 200, 400, 800, 1600} {
		records := make([]db.DoubletRecord, truth.Estimate(n))
		for i := range records {
			records[i] = db.DoubletRecord{Inner: int64(i), Outer: int64(i + 1)}
		}
		run := &db.Run{Backend: doublet.BackendScalar, NHits: n, Params: doublet.Params{NLayers: 1}}
		require.NoError(t, database.RecordRun(run, records))
	}
	require.NoError(t, database.Close())

	var out bytes.Buffer
	require.NoError(t, refit(&out, path))

	var got map[string][]float64
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	coef := got["yield_coefficients"]
	require.Len(t, coef, 4)
	fitted := doublet.Polynomial{A0: coef[0], A1: coef[1], A2: coef[2], A3: coef[3]}
	for _, n := range []int{100, 800, 1600} {
		assert.InDelta(t, truth.Estimate(n), fitted.Estimate(n), 2)
	}
}

func TestRefit_TooFewRuns(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	assert.Error(t, refit(&out, filepath.Join(t.TempDir(), "empty.db")))
}

func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	dbPath := filepath.Join(t.TempDir(), "serve.db")
	plots := t.TempDir()
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, "127.0.0.1:0", dbPath, plots)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestOtherBackend(t *testing.T) {
	t.Parallel()
	assert.Equal(t, doublet.BackendBatch, otherBackend(doublet.BackendScalar))
	assert.Equal(t, doublet.BackendScalar, otherBackend(doublet.BackendBatch))
}
