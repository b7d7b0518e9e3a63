package http

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/importer"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.deps.Transactions.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toTransactionsJSON(txs, s.loc)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	t, ok := s.parseTransaction(w, r)
	if !ok {
		return
	}
	created, err := s.deps.Transactions.Create(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(toTransactionJSON(created, s.loc)).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	t, ok := s.parseTransaction(w, r)
	if !ok {
		return
	}
	t.ID = r.PathValue("id")
	updated, err := s.deps.Transactions.Update(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(toTransactionJSON(updated, s.loc)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Transactions.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) parseTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, bool) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return core.Transaction{}, false
	}
	t, err := req.toTransaction(userID(r), s.loc)
	if err != nil {
		writeError(w, r, err)
		return core.Transaction{}, false
	}
	return t, true
}

// handleImportTransactions accepts a raw CSV body. Query parameters named
// after a field (date, description, amount, category, type) override the
// header each field is read from.
func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || (mediaType != "text/csv" && mediaType != "text/plain") {
			ErrorResponse(w, http.StatusUnsupportedMediaType, "expected a text/csv body")
			return
		}
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBody)
	res, err := s.deps.Transactions.Import(r.Context(), userID(r), body, importMapping(r))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		status := statusForError(err)
		if status != http.StatusUnprocessableEntity {
			writeError(w, r, err)
			return
		}
		NewResponse().
			Status(status).
			JSON(errorBody{Error: err.Error(), Rows: rowMessages(res.Rejected)}).
			Write(w)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		JSON(importJSON{Imported: len(res.Imported), Rejected: rowMessages(res.Rejected)}).
		Write(w)
}

func importMapping(r *http.Request) importer.Mapping {
	m := importer.DefaultMapping()
	q := r.URL.Query()
	for field := range m {
		if v := strings.TrimSpace(q.Get(string(field))); v != "" {
			m[field] = v
		}
	}
	return m
}

func rowMessages(rows []importer.RowError) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Error())
	}
	return out
}

func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.deps.Transactions.Export(r.Context(), userID(r), &buf); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Header("Content-Disposition", `attachment; filename="transactions.csv"`).
		Bytes("text/csv; charset=utf-8", buf.Bytes()).
		Write(w)
}
