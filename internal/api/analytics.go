package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-api/internal/analytics"
)

// handleDashboard aggregates outreach outcomes for a user.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireQuery(w, r, "user_id")
	if !ok {
		return
	}

	attempts, err := s.store.ListOutreachByUser(r.Context(), userID)
	if err != nil {
		zap.L().Error("api: dashboard attempts", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.respondJSON(w, http.StatusOK, analytics.Summarize(attempts))
}
