// Package api serves the doublet run store over HTTP.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/banshee-data/doublets/internal/db"
	"github.com/banshee-data/doublets/internal/httputil"
	"github.com/banshee-data/doublets/internal/monitoring"
	"github.com/banshee-data/doublets/internal/report"
	"github.com/banshee-data/doublets/internal/security"
)

// ANSI escape codes used by LoggingMiddleware.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Server exposes stored doublet runs.
type Server struct {
	db       *db.DB
	plotsDir string
}

// NewServer returns a Server reading from database.
func NewServer(database *db.DB) *Server {
	return &Server{db: database}
}

// WithPlotsDir serves the files written by the plot step under /plots/.
func (s *Server) WithPlotsDir(dir string) *Server {
	s.plotsDir = dir
	return s
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status and duration of each request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.showRun)
	mux.HandleFunc("DELETE /api/runs/{id}", s.deleteRun)
	mux.HandleFunc("GET /api/runs/{id}/doublets", s.listDoublets)
	mux.HandleFunc("GET /api/runs/{id}/chart", s.showChart)
	if s.plotsDir != "" {
		mux.HandleFunc("GET /plots/{name}", s.servePlot)
	}
	return mux
}

// runDetail is the body of GET /api/runs/{id}.
type runDetail struct {
	*db.Run
	LayerPairs []report.LayerPair `json:"layer_pairs"`
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	runs, err := s.db.Runs(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, runs)
}

// writeStoreError maps run store errors to HTTP responses.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.InternalServerError(w, err.Error())
}

func (s *Server) layerPairs(id string) ([]report.LayerPair, error) {
	counts, err := s.db.LayerPairCounts(id)
	if err != nil {
		return nil, err
	}
	pairs := make([]report.LayerPair, len(counts))
	for i, c := range counts {
		pairs[i] = report.LayerPair{InnerLayer: c.InnerLayer, OuterLayer: c.OuterLayer, Count: c.Count}
	}
	return pairs, nil
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.db.Run(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	pairs, err := s.layerPairs(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSONOK(w, runDetail{Run: run, LayerPairs: pairs})
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteRun(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listDoublets(w http.ResponseWriter, r *http.Request) {
	ds, err := s.db.RunDoublets(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSONOK(w, ds)
}

func (s *Server) showChart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.db.Run(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	pairs, err := s.layerPairs(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var buf bytes.Buffer
	title := fmt.Sprintf("Run %s (%s)", run.ID, run.Backend)
	if err := report.RenderYieldPage(&buf, title, pairs, nil); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) servePlot(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.plotsDir, r.PathValue("name"))
	if err := security.ValidatePathWithinDirectory(path, s.plotsDir); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	http.ServeFile(w, r, path)
}
