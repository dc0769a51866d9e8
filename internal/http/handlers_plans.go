package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/darkha03/MyCount/internal/core"
	"github.com/darkha03/MyCount/internal/storage"
)

type participantJSON struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Claimed bool   `json:"claimed"`
}

type planJSON struct {
	HashID       string            `json:"hash_id"`
	Name         string            `json:"name"`
	CreatedAt    string            `json:"created_at"`
	Participants []participantJSON `json:"participants"`
	Total        string            `json:"total,omitempty"`
}

func planToJSON(p *core.Plan) planJSON {
	participants := make([]participantJSON, 0, len(p.Participants))
	for _, pp := range p.Participants {
		participants = append(participants, participantJSON{
			ID:      pp.ID,
			Name:    pp.Name,
			Role:    string(pp.Role),
			Claimed: pp.UserID != nil,
		})
	}
	return planJSON{
		HashID:       p.HashID,
		Name:         p.Name,
		CreatedAt:    p.CreatedAt.Format("2006-01-02"),
		Participants: participants,
	}
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.store.ListPlans(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List plans failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}
	totals, err := s.store.PlanTotals(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Plan totals failed", "error", err)
		totals = map[int64]int64{}
	}

	out := make([]planJSON, 0, len(plans))
	for i := range plans {
		pj := planToJSON(&plans[i])
		pj.Total = core.Money{Cents: totals[plans[i].ID]}.String()
		out = append(out, pj)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreatePlan creates a plan with a fresh hash id. The first listed
// participant becomes the owner.
func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	payload, err := parsePlanPayload(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := core.ValidateParticipantNames(payload.Participants); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	plan := &core.Plan{
		HashID: core.NewHashID(),
		Name:   payload.Name,
	}
	for i, name := range payload.Participants {
		role := core.RoleMember
		if i == 0 {
			role = core.RoleOwner
		}
		plan.Participants = append(plan.Participants, core.Participant{Name: name, Role: role})
	}
	if err := plan.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.CreatePlan(r.Context(), plan); err != nil {
		slog.ErrorContext(r.Context(), "Create plan failed", "error", err, "name", plan.Name)
		writeJSONError(w, http.StatusInternalServerError, "failed to create plan")
		return
	}

	slog.InfoContext(r.Context(), "Plan created",
		"plan_id", plan.ID, "hash_id", plan.HashID, "name", plan.Name,
		"participants", len(plan.Participants))

	writeJSON(w, http.StatusCreated, planToJSON(plan))
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	hashID := r.PathValue("hashID")
	plan, err := s.store.GetPlanByHash(r.Context(), hashID)
	if errors.Is(err, storage.ErrPlanNotFound) {
		writeJSONError(w, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get plan failed", "error", err, "hash_id", hashID)
		writeJSONError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}
	writeJSON(w, http.StatusOK, planToJSON(plan))
}

// handleUpdatePlan renames the plan and upserts its participant list.
// Existing participants are matched by name so their expense shares survive.
func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	hashID := r.PathValue("hashID")
	plan, err := s.store.GetPlanByHash(r.Context(), hashID)
	if errors.Is(err, storage.ErrPlanNotFound) {
		writeJSONError(w, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get plan failed", "error", err, "hash_id", hashID)
		writeJSONError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}

	payload, err := parsePlanPayload(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := core.ValidateParticipantNames(payload.Participants); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	existing := make(map[string]core.Participant, len(plan.Participants))
	for _, pp := range plan.Participants {
		existing[pp.Name] = pp
	}

	updated := &core.Plan{
		ID:     plan.ID,
		HashID: plan.HashID,
		Name:   payload.Name,
	}
	for _, name := range payload.Participants {
		if pp, ok := existing[name]; ok {
			updated.Participants = append(updated.Participants, pp)
		} else {
			updated.Participants = append(updated.Participants, core.Participant{
				Name: name,
				Role: core.RoleMember,
			})
		}
	}
	if err := updated.Validate(); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdatePlan(r.Context(), updated); err != nil {
		slog.ErrorContext(r.Context(), "Update plan failed", "error", err, "hash_id", hashID)
		writeJSONError(w, http.StatusInternalServerError, "failed to update plan")
		return
	}

	s.invalidatePlanFragments(hashID)

	slog.InfoContext(r.Context(), "Plan updated",
		"plan_id", plan.ID, "hash_id", hashID, "name", updated.Name)

	reloaded, err := s.store.GetPlanByHash(r.Context(), hashID)
	if err != nil {
		writeJSON(w, http.StatusOK, planToJSON(updated))
		return
	}
	writeJSON(w, http.StatusOK, planToJSON(reloaded))
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	hashID := r.PathValue("hashID")
	if err := s.store.DeletePlan(r.Context(), hashID); err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			writeJSONError(w, http.StatusNotFound, "plan not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete plan failed", "error", err, "hash_id", hashID)
		writeJSONError(w, http.StatusInternalServerError, "failed to delete plan")
		return
	}

	s.invalidatePlanFragments(hashID)
	slog.InfoContext(r.Context(), "Plan deleted", "hash_id", hashID)
	writeJSON(w, http.StatusOK, map[string]string{})
}

// handleJoinInfo describes the plan to a prospective member: name and which
// participant slots are still unclaimed.
func (s *Server) handleJoinInfo(w http.ResponseWriter, r *http.Request) {
	hashID := r.PathValue("hashID")
	plan, err := s.store.GetPlanByHash(r.Context(), hashID)
	if errors.Is(err, storage.ErrPlanNotFound) {
		writeJSONError(w, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get plan failed", "error", err, "hash_id", hashID)
		writeJSONError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}

	var open []string
	for _, pp := range plan.Participants {
		if pp.UserID == nil {
			open = append(open, pp.Name)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hash_id":            plan.HashID,
		"name":               plan.Name,
		"open_participants":  open,
		"total_participants": len(plan.Participants),
	})
}

func (s *Server) handleJoinPlan(w http.ResponseWriter, r *http.Request) {
	hashID := r.PathValue("hashID")
	payload, err := parseJoinPayload(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.store.JoinPlan(r.Context(), hashID, payload.ParticipantName, payload.UserID)
	switch {
	case errors.Is(err, storage.ErrPlanNotFound):
		writeJSONError(w, http.StatusNotFound, "plan not found")
		return
	case errors.Is(err, storage.ErrParticipantNotFound):
		writeJSONError(w, http.StatusNotFound, "participant not found")
		return
	case errors.Is(err, storage.ErrParticipantClaimed):
		writeJSONError(w, http.StatusConflict, "participant already claimed")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Join plan failed",
			"error", err, "hash_id", hashID, "participant", payload.ParticipantName)
		writeJSONError(w, http.StatusInternalServerError, "failed to join plan")
		return
	}

	slog.InfoContext(r.Context(), "Participant joined plan",
		"hash_id", hashID, "participant", payload.ParticipantName, "user_id", payload.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"joined": payload.ParticipantName})
}
