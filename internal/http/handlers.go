package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"fintrack/internal/core"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that a ledger snapshot can be loaded in time.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	if snap, err := s.svc.Ledger.Snapshot(ctx); err != nil {
		checks["ledger"] = fmt.Sprintf("failed: %v", err)
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["ledger"] = map[string]any{
			"status":       "ok",
			"transactions": len(snap.Transactions),
			"budgets":      len(snap.Budgets),
			"recurring":    len(snap.Recurring),
		}
	}
	checks["rate_limiter"] = map[string]any{
		"status":         "ok",
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "Requests answered with a 5xx status", "counter", traceMetrics.ServerErrors)
	metric("http_response_time_avg_ms", "Average response time in milliseconds", "gauge", traceMetrics.AverageResponseTime.Milliseconds())
	metric("transactions_created_total", "Transactions created through the API", "counter", atomic.LoadInt64(&s.transactionsIn))
	metric("rate_limit_rejected_total", "Requests rejected by the rate limiter", "counter", limitMetrics.Rejected)
	metric("rate_limit_active_clients", "Clients tracked by the rate limiter", "gauge", limitMetrics.ClientCount)
	metric("suspicious_requests_total", "Requests flagged as probes", "counter", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "Process uptime in seconds", "gauge", int64(time.Since(s.started).Seconds()))
}

type catalogCategory struct {
	core.Category
	Subcategories []core.Subcategory `json:"subcategories"`
}

type catalogResponse struct {
	Accounts   []core.Account    `json:"accounts"`
	Categories []catalogCategory `json:"categories"`
}

// handleCatalog lists accounts and the category tree, both by sort order.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Ledger.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, "catalog", err)
		return
	}
	resp := catalogResponse{Accounts: snap.Accounts, Categories: []catalogCategory{}}
	if resp.Accounts == nil {
		resp.Accounts = []core.Account{}
	}
	for _, c := range snap.Catalog.Categories() {
		resp.Categories = append(resp.Categories, catalogCategory{
			Category:      c,
			Subcategories: snap.Catalog.SubcategoriesOf(c.ID),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
