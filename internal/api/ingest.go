package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-api/internal/ingest"
)

// maxUploadBytes bounds the in-memory portion of a multipart upload.
const maxUploadBytes = 10 << 20

type jobStatusResponse struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	TotalContacts  int    `json:"total_contacts"`
	ProcessedCount int    `json:"processed_count"`
	FailedCount    int    `json:"failed_count"`
}

// handleUpload accepts a multipart CSV and kicks off enrichment.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.httpError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	userID := strings.TrimSpace(r.FormValue("user_id"))
	if userID == "" {
		s.httpError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.httpError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		s.httpError(w, "only .csv uploads are accepted", http.StatusBadRequest)
		return
	}

	result, err := s.gateway.Upload(r.Context(), userID, file)
	if err != nil {
		if errors.Is(err, ingest.ErrNoProfile) {
			s.httpError(w, "profile not found, complete setup first", http.StatusNotFound)
			return
		}
		zap.L().Error("api: upload failed", zap.String("user_id", userID), zap.Error(err))
		s.httpError(w, "upload failed", http.StatusBadRequest)
		return
	}

	s.respondJSON(w, http.StatusAccepted, result)
}

// handleJobStatus reports enrichment progress for polling clients.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	userID, ok := s.requireQuery(w, r, "user_id")
	if !ok {
		return
	}

	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		zap.L().Error("api: job status", zap.String("job_id", jobID), zap.Error(err))
		s.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if job == nil || job.UserID != userID {
		s.httpError(w, "job not found", http.StatusNotFound)
		return
	}

	s.respondJSON(w, http.StatusOK, jobStatusResponse{
		JobID:          job.ID,
		Status:         string(job.Status),
		TotalContacts:  job.TotalContacts,
		ProcessedCount: job.ProcessedCount,
		FailedCount:    job.FailedCount,
	})
}
