package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-api/internal/model"
)

// feedbackPreviewChars caps the message excerpt in the feedback queue.
const feedbackPreviewChars = 80

type sendRequest struct {
	ContactID   string `json:"contact_id"`
	MessageBody string `json:"message_body"`
	StrategyTag string `json:"strategy_tag"`
}

type swipeRequest struct {
	OutreachID string `json:"outreach_id"`
	Outcome    string `json:"outcome"`
}

type feedbackItem struct {
	OutreachID     string    `json:"outreach_id"`
	ContactID      string    `json:"contact_id"`
	FullName       string    `json:"full_name"`
	CompanyName    string    `json:"company_name"`
	StrategyTag    string    `json:"strategy_tag"`
	MessagePreview string    `json:"message_preview"`
	SentAt         time.Time `json:"sent_at"`
	FeedbackDueAt  time.Time `json:"feedback_due_at"`
}

// handleSend marks a contact SENT and opens its feedback window.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.httpError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ContactID == "" {
		s.httpError(w, "contact_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	contact, err := s.store.GetContact(ctx, req.ContactID)
	if err != nil {
		zap.L().Error("api: send load contact", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if contact == nil {
		s.httpError(w, "contact not found", http.StatusNotFound)
		return
	}

	// The edited body from the client wins; an empty body falls back to
	// the stored draft.
	message := strings.TrimSpace(req.MessageBody)
	if message == "" {
		message = contact.DraftMessage
	}
	if message == "" {
		s.httpError(w, "no message to send for this contact", http.StatusBadRequest)
		return
	}
	if len(message) > model.MaxDraftMessageChars {
		message = message[:model.MaxDraftMessageChars]
	}

	tag := contact.StrategyTag
	if req.StrategyTag != "" {
		tag = model.NormalizeStrategyTag(req.StrategyTag)
	}
	if tag == "" {
		tag = model.DefaultStrategyTag
	}

	now := time.Now().UTC()
	attempt, err := s.store.CreateOutreach(ctx, model.OutreachAttempt{
		ContactID:     contact.ID,
		StrategyTag:   tag,
		MessageBody:   message,
		SentAt:        now,
		FeedbackDueAt: now.Add(s.cfg.Outreach.FeedbackDue()),
	})
	if err != nil {
		zap.L().Error("api: create outreach", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := s.store.UpdateContactStatus(ctx, contact.ID, model.ContactStatusSent); err != nil {
		zap.L().Error("api: mark contact sent", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"outreach_id":     attempt.ID,
		"feedback_due_at": attempt.FeedbackDueAt,
	})
}

// handleFeedbackQueue lists attempts whose feedback window has lapsed.
func (s *Server) handleFeedbackQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireQuery(w, r, "user_id")
	if !ok {
		return
	}

	ctx := r.Context()
	attempts, err := s.store.ListDueOutreach(ctx, userID, time.Now().UTC())
	if err != nil {
		zap.L().Error("api: feedback queue", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	items := make([]feedbackItem, 0, len(attempts))
	for _, a := range attempts {
		item := feedbackItem{
			OutreachID:     a.ID,
			ContactID:      a.ContactID,
			StrategyTag:    string(a.StrategyTag),
			MessagePreview: preview(a.MessageBody),
			SentAt:         a.SentAt,
			FeedbackDueAt:  a.FeedbackDueAt,
		}
		if c, err := s.store.GetContact(ctx, a.ContactID); err == nil && c != nil {
			item.FullName = c.FullName
			item.CompanyName = c.CompanyName
		}
		items = append(items, item)
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"queue": items,
		"total": len(items),
	})
}

// handleSwipe records the outcome for one outreach attempt.
func (s *Server) handleSwipe(w http.ResponseWriter, r *http.Request) {
	var req swipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.httpError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.OutreachID == "" {
		s.httpError(w, "outreach_id is required", http.StatusBadRequest)
		return
	}
	if !model.ValidOutcome(req.Outcome) {
		s.httpError(w, "invalid outcome: "+req.Outcome, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	attempt, err := s.store.GetOutreach(ctx, req.OutreachID)
	if err != nil {
		zap.L().Error("api: swipe load attempt", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if attempt == nil {
		s.httpError(w, "outreach attempt not found", http.StatusNotFound)
		return
	}
	if attempt.FeedbackStatus == model.FeedbackStatusCompleted {
		s.httpError(w, "feedback already recorded", http.StatusConflict)
		return
	}

	if err := s.store.CompleteOutreach(ctx, req.OutreachID, model.OutcomeType(req.Outcome)); err != nil {
		zap.L().Error("api: complete outreach", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func preview(message string) string {
	if len(message) <= feedbackPreviewChars {
		return message
	}
	return message[:feedbackPreviewChars]
}
