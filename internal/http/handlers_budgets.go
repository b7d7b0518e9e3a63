package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	groups, err := s.deps.Budgets.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(budgetGroupsJSON{
		Overall:  toBudgetsJSON(groups.Overall, s.loc),
		Category: toBudgetsJSON(groups.Category, s.loc),
	}).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	b, ok := s.parseBudget(w, r)
	if !ok {
		return
	}
	view, err := s.deps.Budgets.Create(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toBudgetJSON(view, s.loc)).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	b, ok := s.parseBudget(w, r)
	if !ok {
		return
	}
	b.ID = r.PathValue("id")
	view, err := s.deps.Budgets.Update(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toBudgetJSON(view, s.loc)).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Budgets.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) parseBudget(w http.ResponseWriter, r *http.Request) (core.Budget, bool) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return core.Budget{}, false
	}
	b, err := req.toBudget(userID(r), s.loc)
	if err != nil {
		writeError(w, r, err)
		return core.Budget{}, false
	}
	return b, true
}
