package http

import (
	"context"
	"net/http"
	"strings"

	applog "fintrack/internal/log"
)

// UserIDHeader carries the caller's identity. Authentication happens in
// front of this service.
const UserIDHeader = "X-User-ID"

const maxUserIDLength = 128

type userKey struct{}

// requireUser rejects requests without a usable X-User-ID and stores the id
// in the request context, also on the request logger.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			ErrorResponse(w, http.StatusBadRequest, "missing "+UserIDHeader+" header")
			return
		}
		if len(userID) > maxUserIDLength || strings.ContainsAny(userID, "\r\n\t") {
			ErrorResponse(w, http.StatusBadRequest, "invalid "+UserIDHeader+" header")
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, userID)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userKey{}).(string)
	return id
}
