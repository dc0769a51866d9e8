package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/darkha03/MyCount/internal/core"
	"github.com/darkha03/MyCount/internal/storage"
)

// sectionNames are the loadable sub-views of a plan page.
var sectionNames = []string{"expenses", "reimbursements", "statistics"}

type planSummaryView struct {
	HashID       string
	Name         string
	CreatedAt    string
	Participants []string
	Total        string
}

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	plans, err := s.store.ListPlans(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List plans failed", "error", err)
		http.Error(w, "failed to load plans", http.StatusInternalServerError)
		return
	}
	totals, err := s.store.PlanTotals(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Plan totals failed", "error", err)
		totals = map[int64]int64{}
	}

	views := make([]planSummaryView, 0, len(plans))
	for _, p := range plans {
		views = append(views, planSummaryView{
			HashID:       p.HashID,
			Name:         p.Name,
			CreatedAt:    p.CreatedAt.Format("2006-01-02"),
			Participants: p.ParticipantNames(),
			Total:        core.Money{Cents: totals[p.ID]}.String(),
		})
	}

	data := struct {
		Plans []planSummaryView
	}{Plans: views}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard template failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handlePlanPage renders the plan shell: header, section tabs and the
// persistent content region carrying the plan identifiers. Section bodies
// are loaded into the region separately.
func (s *Server) handlePlanPage(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	hashID := r.PathValue("hashID")
	plan, err := s.store.GetPlanByHash(r.Context(), hashID)
	if errors.Is(err, storage.ErrPlanNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get plan failed", "error", err, "hash_id", hashID)
		http.Error(w, "failed to load plan", http.StatusInternalServerError)
		return
	}

	data := struct {
		PlanID       int64
		HashID       string
		Name         string
		Participants []string
		Sections     []string
	}{
		PlanID:       plan.ID,
		HashID:       plan.HashID,
		Name:         plan.Name,
		Participants: plan.ParticipantNames(),
		Sections:     sectionNames,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "view_plan.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Plan template failed", "error", err, "hash_id", hashID)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
