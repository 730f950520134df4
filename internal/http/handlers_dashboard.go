package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/period"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	month, err := ParseMonth(r.URL.Query(), today)
	if err != nil {
		writeServiceError(w, r, "dashboard", err)
		return
	}
	dash, err := s.svc.Dashboard.Dashboard(r.Context(), month, today)
	if err != nil {
		writeServiceError(w, r, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// handleBudgets evaluates budgets as of today, or as of the last day of a
// past month when year/month point there.
func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	month, err := ParseMonth(r.URL.Query(), today)
	if err != nil {
		writeServiceError(w, r, "budgets", err)
		return
	}
	progress, err := s.svc.Dashboard.Budgets(r.Context(), asOf(month, today), boolParam(r.URL.Query(), "active", false))
	if err != nil {
		writeServiceError(w, r, "budgets", err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func asOf(month period.Month, today core.Date) core.Date {
	if month.Contains(today) {
		return today
	}
	return month.End()
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	end, err := ParseMonth(q, s.today())
	if err != nil {
		writeServiceError(w, r, "trend", err)
		return
	}
	months, err := intParam(q, "months", 0, 1, 36)
	if err != nil {
		writeServiceError(w, r, "trend", err)
		return
	}
	trend, err := s.svc.Dashboard.Trend(r.Context(), end, months)
	if err != nil {
		writeServiceError(w, r, "trend", err)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

func (s *Server) handleYearOverYear(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r.URL.Query(), "year", s.today().Year(), 1900, 9999)
	if err != nil {
		writeServiceError(w, r, "year_over_year", err)
		return
	}
	cmp, err := s.svc.Dashboard.YearOverYear(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, "year_over_year", err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleCategoryRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := ParseRange(q, s.today())
	if err != nil {
		writeServiceError(w, r, "category_ranking", err)
		return
	}
	top, err := ParseTop(q)
	if err != nil {
		writeServiceError(w, r, "category_ranking", err)
		return
	}
	ranking, err := s.svc.Dashboard.CategoryRanking(r.Context(), from, to, top)
	if err != nil {
		writeServiceError(w, r, "category_ranking", err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (s *Server) handleCategoryTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := intParam(q, "year", s.today().Year(), 1900, 9999)
	if err != nil {
		writeServiceError(w, r, "category_trends", err)
		return
	}
	top, err := ParseTop(q)
	if err != nil {
		writeServiceError(w, r, "category_trends", err)
		return
	}
	series, err := s.svc.Dashboard.CategoryTrends(r.Context(), year, top)
	if err != nil {
		writeServiceError(w, r, "category_trends", err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleMerchantRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := ParseRange(q, s.today())
	if err != nil {
		writeServiceError(w, r, "merchant_ranking", err)
		return
	}
	top, err := ParseTop(q)
	if err != nil {
		writeServiceError(w, r, "merchant_ranking", err)
		return
	}
	ranking, err := s.svc.Dashboard.MerchantRanking(r.Context(), from, to, top)
	if err != nil {
		writeServiceError(w, r, "merchant_ranking", err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}
