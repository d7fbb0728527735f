package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/doublets/internal/doublet"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Run is one stored invocation of the doublet pipeline.
type Run struct {
	ID                string         `json:"run_id"`
	CreatedAt         time.Time      `json:"created_at"`
	Backend           string         `json:"backend"`
	HitsPath          string         `json:"hits_path,omitempty"`
	GeometryPath      string         `json:"geometry_path,omitempty"`
	NHits             int            `json:"n_hits"`
	NDoublets         int            `json:"n_doublets"`
	EstimatedDoublets int            `json:"estimated_doublets"`
	Duration          time.Duration  `json:"duration_ns"`
	Params            doublet.Params `json:"params"`
}

// DoubletRecord is a stored doublet with the layers of its two hits.
type DoubletRecord struct {
	Inner      int64 `json:"inner"`
	Outer      int64 `json:"outer"`
	InnerLayer int   `json:"inner_layer"`
	OuterLayer int   `json:"outer_layer"`
}

// LayerPairCount is the number of doublets between two layers in a run.
type LayerPairCount struct {
	InnerLayer int `json:"inner_layer"`
	OuterLayer int `json:"outer_layer"`
	Count      int `json:"count"`
}

// RecordsFromEvent attaches hit layers from ev to ds.
func RecordsFromEvent(ev *doublet.Event, ds []doublet.Doublet) ([]DoubletRecord, error) {
	layerOf := make(map[int64]int, len(ev.Hits))
	for _, h := range ev.Hits {
		layerOf[h.ID] = h.Layer
	}
	out := make([]DoubletRecord, len(ds))
	for i, d := range ds {
		il, ok := layerOf[d.Inner]
		if !ok {
			return nil, fmt.Errorf("doublet %d: unknown inner hit", i)
		}
		ol, ok := layerOf[d.Outer]
		if !ok {
			return nil, fmt.Errorf("doublet %d: unknown outer hit", i)
		}
		out[i] = DoubletRecord{Inner: d.Inner, Outer: d.Outer, InnerLayer: il, OuterLayer: ol}
	}
	return out, nil
}

// RecordRun stores run and its doublets in one transaction. An empty
// run.ID is replaced by a new UUID and a zero CreatedAt by the current
// time. NDoublets is set from len(records).
func (db *DB) RecordRun(run *Run, records []DoubletRecord) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = db.clock.Now()
	}
	run.NDoublets = len(records)

	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO doublet_runs (
			run_id, created_unix_nanos, backend, hits_path, geometry_path,
			n_hits, n_doublets, estimated_doublets, duration_nanos, params_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.Backend, run.HitsPath, run.GeometryPath,
		run.NHits, run.NDoublets, run.EstimatedDoublets, int64(run.Duration), string(params),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO doublets (
			run_id, inner_hit_id, outer_hit_id, inner_layer, outer_layer
		) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare doublet insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(run.ID, r.Inner, r.Outer, r.InnerLayer, r.OuterLayer); err != nil {
			return fmt.Errorf("insert doublet (%d, %d): %w", r.Inner, r.Outer, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = `run_id, created_unix_nanos, backend, hits_path, geometry_path,
	n_hits, n_doublets, estimated_doublets, duration_nanos, params_json`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (Run, error) {
	var (
		r        Run
		created  int64
		duration int64
		params   string
	)
	if err := s.Scan(&r.ID, &created, &r.Backend, &r.HitsPath, &r.GeometryPath,
		&r.NHits, &r.NDoublets, &r.EstimatedDoublets, &duration, &params); err != nil {
		return Run{}, err
	}
	r.CreatedAt = time.Unix(0, created)
	r.Duration = time.Duration(duration)
	if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
		return Run{}, fmt.Errorf("run %s: decode params: %w", r.ID, err)
	}
	return r, nil
}

// Runs returns up to limit runs, newest first. limit <= 0 means 100.
func (db *DB) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`SELECT `+runColumns+` FROM doublet_runs
		ORDER BY created_unix_nanos DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run returns the run with the given id, or ErrRunNotFound.
func (db *DB) Run(id string) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM doublet_runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", id, err)
	}
	return &r, nil
}

// RunDoublets returns the doublets of a run sorted by (inner, outer).
func (db *DB) RunDoublets(id string) ([]DoubletRecord, error) {
	if _, err := db.Run(id); err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT inner_hit_id, outer_hit_id, inner_layer, outer_layer
		FROM doublets WHERE run_id = ? ORDER BY inner_hit_id, outer_hit_id`, id)
	if err != nil {
		return nil, fmt.Errorf("query doublets: %w", err)
	}
	defer rows.Close()

	out := []DoubletRecord{}
	for rows.Next() {
		var r DoubletRecord
		if err := rows.Scan(&r.Inner, &r.Outer, &r.InnerLayer, &r.OuterLayer); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LayerPairCounts returns the doublet count per (inner, outer) layer pair
// of a run, ordered by layer pair.
func (db *DB) LayerPairCounts(id string) ([]LayerPairCount, error) {
	if _, err := db.Run(id); err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT inner_layer, outer_layer, COUNT(*)
		FROM doublets WHERE run_id = ?
		GROUP BY inner_layer, outer_layer
		ORDER BY inner_layer, outer_layer`, id)
	if err != nil {
		return nil, fmt.Errorf("query layer pairs: %w", err)
	}
	defer rows.Close()

	out := []LayerPairCount{}
	for rows.Next() {
		var c LayerPairCount
		if err := rows.Scan(&c.InnerLayer, &c.OuterLayer, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its doublets.
func (db *DB) DeleteRun(id string) error {
	res, err := db.Exec(`DELETE FROM doublet_runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
