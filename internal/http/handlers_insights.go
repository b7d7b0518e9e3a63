package http

import "net/http"

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	var req insightsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	text, err := s.deps.Insights.Insights(r.Context(), userID(r), req.Rules)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(textJSON{Text: text}).Write(w)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	text, err := s.deps.Insights.Query(r.Context(), userID(r), req.Question)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(textJSON{Text: text}).Write(w)
}
