package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/luminedu/assess-engine/internal/middleware"
	"github.com/luminedu/assess-engine/internal/model"
	"github.com/luminedu/assess-engine/internal/repository"
	"github.com/luminedu/assess-engine/internal/response"
	"github.com/luminedu/assess-engine/internal/validator"
)

// GraderHandler handles the grading side of written-upload submissions.
type GraderHandler struct {
	submissionRepo *repository.SubmissionRepository
}

// NewGraderHandler creates a new GraderHandler.
func NewGraderHandler(submissionRepo *repository.SubmissionRepository) *GraderHandler {
	return &GraderHandler{submissionRepo: submissionRepo}
}

// ListPending godoc
// GET /api/v1/grading/exams/:examId/pending
// Returns submissions awaiting review for an exam, oldest first.
func (h *GraderHandler) ListPending(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	subs, err := h.submissionRepo.ListPending(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submissions": subs})
}

// GetSubmission godoc
// GET /api/v1/grading/submissions/:sessionId
// Returns one submission with its full evidence lists.
func (h *GraderHandler) GetSubmission(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sub, err := h.submissionRepo.GetBySession(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": sub})
}

// GradeSubmission godoc
// POST /api/v1/grading/submissions/:sessionId
// Records marks and per-question feedback and flips the submission to GRADED.
func (h *GraderHandler) GradeSubmission(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GradeSubmissionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	err = h.submissionRepo.ApplyGrade(c.Request.Context(), sessionID, claims.UserID, req.ObtainedMarks, req.Feedback)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyGraded):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyGraded)
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	sub, err := h.submissionRepo.GetBySession(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": sub})
}
