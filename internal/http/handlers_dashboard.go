package http

import "net/http"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Dashboard.Dashboard(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toDashboardJSON(d, s.loc)).Write(w)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	png, err := s.deps.Dashboard.CategoryChart(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Bytes("image/png", png).Write(w)
}
