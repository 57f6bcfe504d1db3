package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-impact-analysis/internal/analysis"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReportProvider hands out the most recent finished analysis report, or nil
// when no run has completed yet.
type ReportProvider interface {
	ReadinessChecker
	Report() *analysis.Report
}

// Server exposes health, readiness, metrics, and report query endpoints.
type Server struct {
	httpServer *http.Server
	reports    ReportProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with operational and report API routes.
func NewServer(addr string, reports ReportProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reports: reports,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(reports))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/report", s.handleReport)
	mux.HandleFunc("GET /api/v1/frequency", s.handleFrequency)
	mux.HandleFunc("GET /api/v1/summary/harm", s.handleTable(func(r *analysis.Report) *analysis.Table { return r.Harm }))
	mux.HandleFunc("GET /api/v1/summary/harm/per-record", s.handleTable(func(r *analysis.Report) *analysis.Table { return r.HarmPerRecord }))
	mux.HandleFunc("GET /api/v1/summary/damage", s.handleTable(func(r *analysis.Report) *analysis.Table { return r.Damage }))
	mux.HandleFunc("GET /api/v1/summary/damage/per-record", s.handleTable(func(r *analysis.Report) *analysis.Table { return r.DamagePerRecord }))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	report := s.reports.Report()
	if report == nil {
		writeNotReady(w)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// frequencyResponse wraps the census with the report's provenance fields.
type frequencyResponse struct {
	GeneratedAt   time.Time                 `json:"generated_at"`
	ReferenceYear int                       `json:"reference_year"`
	TotalRecords  int                       `json:"total_records"`
	Entries       []analysis.FrequencyEntry `json:"entries"`
}

func (s *Server) handleFrequency(w http.ResponseWriter, _ *http.Request) {
	report := s.reports.Report()
	if report == nil {
		writeNotReady(w)
		return
	}
	writeJSON(w, http.StatusOK, frequencyResponse{
		GeneratedAt:   report.GeneratedAt,
		ReferenceYear: report.ReferenceYear,
		TotalRecords:  report.Frequency.TotalRecords,
		Entries:       report.Frequency.Entries,
	})
}

// tableResponse carries one summary table's rows in rank order.
type tableResponse struct {
	GeneratedAt   time.Time      `json:"generated_at"`
	ReferenceYear int            `json:"reference_year"`
	Table         string         `json:"table"`
	Metric        string         `json:"metric"`
	Rows          []analysis.Row `json:"rows"`
}

// handleTable serves one summary table sorted by ?metric (the table's primary
// metric when absent), optionally truncated to ?top rows.
func (s *Server) handleTable(pick func(*analysis.Report) *analysis.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := s.reports.Report()
		if report == nil {
			writeNotReady(w)
			return
		}
		table := pick(report)

		metric := r.URL.Query().Get("metric")
		if metric == "" {
			metric = table.Primary
		}

		top := 0
		if raw := r.URL.Query().Get("top"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": "top must be a non-negative integer",
				})
				return
			}
			top = n
		}

		rows, err := table.TopN(metric, top)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, tableResponse{
			GeneratedAt:   report.GeneratedAt,
			ReferenceYear: report.ReferenceYear,
			Table:         table.Name,
			Metric:        metric,
			Rows:          rows,
		})
	}
}

func writeNotReady(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status": "not ready",
		"error":  "no report available yet",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
