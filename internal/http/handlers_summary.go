package http

import (
	"net/http"
	"path"

	"footprint/internal/core"
	applog "footprint/internal/log"
	"footprint/internal/report"
)

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	byTotal, err := sortByTotal(r)
	if err != nil {
		writeError(w, r, applog.OpSummarize, err)
		return
	}
	totals, err := s.deps.Summaries.CategorySummary(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, applog.OpSummarize, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Categories(totals, byTotal))
}

func (s *Server) handlePhysicalSummary(w http.ResponseWriter, r *http.Request) {
	byTotal, err := sortByTotal(r)
	if err != nil {
		writeError(w, r, applog.OpSummarize, err)
		return
	}
	totals, err := s.deps.Summaries.PhysicalSummary(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, applog.OpSummarize, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Items(totals, byTotal))
}

func (s *Server) handleEconomicSummary(w http.ResponseWriter, r *http.Request) {
	byTotal, err := sortByTotal(r)
	if err != nil {
		writeError(w, r, applog.OpSummarize, err)
		return
	}
	totals, err := s.deps.Summaries.EconomicSummary(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, applog.OpSummarize, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Sectors(totals, byTotal))
}

func (s *Server) handleBiggestImpactors(w http.ResponseWriter, r *http.Request) {
	imp, err := s.deps.Summaries.BiggestImpactors(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, applog.OpSummarize, err)
		return
	}
	writeJSON(w, http.StatusOK, report.NewImpactors(imp))
}

// handleTimeSummary serves daily, weekly and monthly; the granularity is the
// last path segment.
func (s *Server) handleTimeSummary(w http.ResponseWriter, r *http.Request) {
	g, err := core.ParseGranularity(path.Base(r.URL.Path))
	if err != nil {
		writeError(w, r, applog.OpSummarize, err)
		return
	}
	buckets, err := s.deps.Summaries.TimeSummary(r.Context(), r.PathValue("userID"), g)
	if err != nil {
		writeError(w, r, applog.OpSummarize, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Buckets(buckets))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Summaries.Dashboard(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, applog.OpSummarize, err)
		return
	}
	writeJSON(w, http.StatusOK, report.NewDashboard(d))
}
