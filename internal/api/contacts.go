package api

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-api/internal/model"
	"github.com/sells-group/outreach-api/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type contactView struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	RawRole     string    `json:"raw_role"`
	CompanyName string    `json:"company_name"`
	LinkedInURL string    `json:"linkedin_url"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type draftView struct {
	ContactID    string       `json:"contact_id"`
	FullName     string       `json:"full_name"`
	RawRole      string       `json:"raw_role"`
	CompanyName  string       `json:"company_name"`
	LinkedInURL  string       `json:"linkedin_url"`
	DraftMessage string       `json:"draft_message"`
	StrategyTag  string       `json:"strategy_tag"`
	Research     researchView `json:"research"`
}

type researchView struct {
	NewsSummary string `json:"news_summary"`
	PainPoints  string `json:"pain_points"`
	SourceURL   string `json:"source_url"`
}

// handleListContacts returns a user's contacts, newest first.
func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireQuery(w, r, "user_id")
	if !ok {
		return
	}
	limit, offset := pagination(r)

	filter := store.ContactFilter{UserID: userID, Limit: limit, Offset: offset}
	ctx := r.Context()

	total, err := s.store.CountContacts(ctx, filter)
	if err != nil {
		zap.L().Error("api: count contacts", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	contacts, err := s.store.ListContacts(ctx, filter)
	if err != nil {
		zap.L().Error("api: list contacts", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	views := make([]contactView, 0, len(contacts))
	for _, c := range contacts {
		views = append(views, contactView{
			ID:          c.ID,
			FullName:    c.FullName,
			RawRole:     c.RawRole,
			CompanyName: c.CompanyName,
			LinkedInURL: c.LinkedInURL,
			Status:      string(c.Status),
			CreatedAt:   c.CreatedAt,
		})
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"contacts": views,
		"total":    total,
		"has_more": offset+limit < total,
	})
}

// handleDraftsFeed returns DRAFT_READY contacts joined with their research.
func (s *Server) handleDraftsFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireQuery(w, r, "user_id")
	if !ok {
		return
	}
	limit, offset := pagination(r)

	filter := store.ContactFilter{
		UserID: userID,
		Status: model.ContactStatusDraftReady,
		Limit:  limit,
		Offset: offset,
	}
	ctx := r.Context()

	total, err := s.store.CountContacts(ctx, filter)
	if err != nil {
		zap.L().Error("api: count drafts", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	contacts, err := s.store.ListContacts(ctx, filter)
	if err != nil {
		zap.L().Error("api: list drafts", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	contactIDs := make([]string, len(contacts))
	for i, c := range contacts {
		contactIDs[i] = c.ID
	}
	research, err := s.store.GetResearchByContacts(ctx, contactIDs)
	if err != nil {
		zap.L().Error("api: load research for drafts", zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}

	drafts := make([]draftView, 0, len(contacts))
	for _, c := range contacts {
		rv := researchView{}
		if rec, ok := research[c.ID]; ok {
			rv = researchView{
				NewsSummary: rec.NewsSummary,
				PainPoints:  rec.PainPoints,
				SourceURL:   rec.SourceURL,
			}
		}
		drafts = append(drafts, draftView{
			ContactID:    c.ID,
			FullName:     c.FullName,
			RawRole:      c.RawRole,
			CompanyName:  c.CompanyName,
			LinkedInURL:  c.LinkedInURL,
			DraftMessage: c.DraftMessage,
			StrategyTag:  string(c.StrategyTag),
			Research:     rv,
		})
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"drafts":   drafts,
		"total":    total,
		"has_more": offset+limit < total,
	})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
