package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-api/internal/model"
)

type profileRequest struct {
	UserID           string `json:"user_id"`
	MissionStatement string `json:"mission_statement"`
	IntentType       string `json:"intent_type"`
}

// handleUpsertProfile creates or updates the sender profile that seeds every
// draft prompt. Uploads are rejected until a profile exists.
func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.httpError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.MissionStatement = strings.TrimSpace(req.MissionStatement)
	if req.UserID == "" || req.MissionStatement == "" {
		s.httpError(w, "user_id and mission_statement are required", http.StatusBadRequest)
		return
	}

	err := s.store.UpsertProfile(r.Context(), model.Profile{
		ID:               req.UserID,
		MissionStatement: req.MissionStatement,
		IntentType:       req.IntentType,
	})
	if err != nil {
		zap.L().Error("api: upsert profile", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireQuery(w, r, "user_id")
	if !ok {
		return
	}

	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		zap.L().Error("api: get profile", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		s.httpError(w, "profile not found", http.StatusNotFound)
		return
	}

	s.respondJSON(w, http.StatusOK, profile)
}
