package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListSavingsGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deps.Savings.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]savingsGoalJSON, 0, len(goals))
	for _, g := range goals {
		out = append(out, toSavingsGoalJSON(g, s.loc))
	}
	NewResponse().JSON(out).Write(w)
}

func (s *Server) handleCreateSavingsGoal(w http.ResponseWriter, r *http.Request) {
	g, ok := s.parseSavingsGoal(w, r)
	if !ok {
		return
	}
	created, err := s.deps.Savings.Create(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toSavingsGoalJSON(created, s.loc)).Write(w)
}

func (s *Server) handleUpdateSavingsGoal(w http.ResponseWriter, r *http.Request) {
	g, ok := s.parseSavingsGoal(w, r)
	if !ok {
		return
	}
	g.ID = r.PathValue("id")
	updated, err := s.deps.Savings.Update(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toSavingsGoalJSON(updated, s.loc)).Write(w)
}

func (s *Server) handleDeleteSavingsGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Savings.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// handleSavingsTips answers 202 when the request was queued for the worker
// and 200 with the updated goal when the tips were generated inline.
func (s *Server) handleSavingsTips(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Savings.RequestTips(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.Queued {
		NewResponse().Status(http.StatusAccepted).JSON(tipsJSON{Queued: true}).Write(w)
		return
	}
	goal := toSavingsGoalJSON(res.Goal, s.loc)
	NewResponse().JSON(tipsJSON{Goal: &goal}).Write(w)
}

func (s *Server) parseSavingsGoal(w http.ResponseWriter, r *http.Request) (core.SavingsGoal, bool) {
	var req savingsGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return core.SavingsGoal{}, false
	}
	g, err := req.toGoal(userID(r), s.loc)
	if err != nil {
		writeError(w, r, err)
		return core.SavingsGoal{}, false
	}
	return g, true
}
