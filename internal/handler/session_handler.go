package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminedu/assess-engine/internal/engine"
	"github.com/luminedu/assess-engine/internal/middleware"
	"github.com/luminedu/assess-engine/internal/model"
	"github.com/luminedu/assess-engine/internal/repository"
	"github.com/luminedu/assess-engine/internal/response"
	"github.com/luminedu/assess-engine/internal/service"
	"github.com/luminedu/assess-engine/internal/validator"
)

// SessionHandler handles the participant-facing attempt lifecycle.
type SessionHandler struct {
	sessionService  *service.SessionService
	mediaService    *service.MediaService
	participantRepo *repository.ParticipantRepository
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	sessionService *service.SessionService,
	mediaService *service.MediaService,
	participantRepo *repository.ParticipantRepository,
) *SessionHandler {
	return &SessionHandler{
		sessionService:  sessionService,
		mediaService:    mediaService,
		participantRepo: participantRepo,
	}
}

// SelectOptionRequest is the body for recording a MULTIPLE_CHOICE answer.
type SelectOptionRequest struct {
	Option *int `json:"option" binding:"required"`
}

// ListExams godoc
// GET /api/v1/exams
// Returns the exam catalog.
func (h *SessionHandler) ListExams(c *gin.Context) {
	exams, err := h.sessionService.ListExams(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetPaper godoc
// GET /api/v1/exams/:examId/paper
// Returns the participant-facing paper with answer keys stripped.
func (h *SessionHandler) GetPaper(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	paper, err := h.sessionService.GetPaper(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// StartSession godoc
// POST /api/v1/exams/:examId/sessions
// Starts a bounded-duration attempt for the authenticated participant.
func (h *SessionHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	account, err := h.participantRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	participant := model.Participant{ID: account.ID, DisplayName: account.DisplayName}
	sess, err := h.sessionService.StartSession(c.Request.Context(), examID, participant)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptInFlight):
			// Resume the running attempt rather than refusing outright. A
			// concurrent start that has claimed the slot but not yet
			// registered its session leaves nothing to resume.
			if sess == nil {
				response.Fail(c, http.StatusConflict, response.ErrSessionActive)
				return
			}
			response.Success(c, http.StatusOK, sessionSnapshot(sess))
		case isDefinitionError(err):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrExamMalformed)
		default:
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		}
		return
	}

	response.Success(c, http.StatusCreated, sessionSnapshot(sess))
}

// GetState godoc
// GET /api/v1/sessions/:sessionId
// Returns the attempt's live state snapshot.
func (h *SessionHandler) GetState(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, sessionSnapshot(sess))
}

// SelectOption godoc
// PUT /api/v1/sessions/:sessionId/answers/:questionId
// Records or replaces a MULTIPLE_CHOICE selection.
func (h *SessionHandler) SelectOption(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(c.Param("questionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req SelectOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := sess.SelectOption(questionID, *req.Option); err != nil {
		failEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempted_count": sess.AttemptedCount()})
}

// ClearSelection godoc
// DELETE /api/v1/sessions/:sessionId/answers/:questionId
// Returns a question to skipped.
func (h *SessionHandler) ClearSelection(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(c.Param("questionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := sess.ClearSelection(questionID); err != nil {
		failEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempted_count": sess.AttemptedCount()})
}

// UploadEvidence godoc
// POST /api/v1/sessions/:sessionId/evidence/:questionId
// Saves an evidence image and attaches it to a WRITTEN_UPLOAD question.
func (h *SessionHandler) UploadEvidence(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(c.Param("questionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	ref, err := h.mediaService.SaveEvidence(file, fileHeader)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.Fail(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	if err := sess.AttachEvidence(questionID, ref); err != nil {
		failEngine(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"evidence":        ref,
		"attempted_count": sess.AttemptedCount(),
	})
}

// RemoveEvidence godoc
// DELETE /api/v1/sessions/:sessionId/evidence/:questionId/:index
// Removes one uploaded evidence item by position.
func (h *SessionHandler) RemoveEvidence(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(c.Param("questionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := sess.RemoveEvidence(questionID, index); err != nil {
		failEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempted_count": sess.AttemptedCount()})
}

// GetConfirmation godoc
// GET /api/v1/sessions/:sessionId/confirmation
// Returns the pre-submit prompt snapshot.
func (h *SessionHandler) GetConfirmation(c *gin.Context) {
	sess, ok := h.ownedSession(c)
	if !ok {
		return
	}

	conf, err := sess.Confirmation()
	if err != nil {
		failEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"confirmation": conf})
}

// Submit godoc
// POST /api/v1/sessions/:sessionId/submit
// Finalizes the attempt. Safe against the deadline race: if expiry won, the
// expiry outcome is returned.
func (h *SessionHandler) Submit(c *gin.Context) {
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

	out, err := h.sessionService.Submit(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		if out != nil {
			// Finalized, but queueing the outcome failed. The attempt is
			// safe in memory and the push will be retried.
			response.Success(c, http.StatusAccepted, gin.H{"outcome": out, "persisted": false})
			return
		}
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"outcome": out})
}

// Abandon godoc
// POST /api/v1/sessions/:sessionId/abandon
// Discards the attempt without emitting a score or submission.
func (h *SessionHandler) Abandon(c *gin.Context) {
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

	if err := h.sessionService.Abandon(c.Request.Context(), sessionID, claims.UserID); err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// GetResult godoc
// GET /api/v1/sessions/:sessionId/result
// Returns the finalized outcome, from memory or the persisted stores.
func (h *SessionHandler) GetResult(c *gin.Context) {
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

	out, err := h.sessionService.GetResult(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"outcome": out})
}

// ListMyResults godoc
// GET /api/v1/results
// Returns the authenticated participant's persisted results, newest first.
func (h *SessionHandler) ListMyResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.sessionService.ListResults(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// ownedSession resolves the :sessionId path param to a live session owned by
// the authenticated participant, writing the error response itself on failure.
func (h *SessionHandler) ownedSession(c *gin.Context) (*engine.Session, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	sess, err := h.sessionService.GetOwned(sessionID, claims.UserID)
	if err != nil {
		failService(c, err)
		return nil, false
	}
	return sess, true
}

func sessionSnapshot(sess *engine.Session) gin.H {
	return gin.H{
		"session": gin.H{
			"id":                sess.ID,
			"exam_id":           sess.ExamID(),
			"format":            sess.Format(),
			"state":             sess.State(),
			"started_at":        sess.StartedAt(),
			"remaining_seconds": sess.RemainingSeconds(),
			"attempted_count":   sess.AttemptedCount(),
		},
	}
}

func isDefinitionError(err error) bool {
	return errors.Is(err, engine.ErrNoQuestions) ||
		errors.Is(err, engine.ErrInvalidDuration) ||
		errors.Is(err, engine.ErrInvalidTotalMarks) ||
		errors.Is(err, engine.ErrNegativeMarkConfig) ||
		errors.Is(err, engine.ErrBadQuestion)
}

// failEngine maps answer-validation and lifecycle errors to API codes.
func failEngine(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionInactive):
		response.Fail(c, http.StatusConflict, response.ErrSessionInactive)
	case errors.Is(err, engine.ErrUnknownQuestion):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownQuestion)
	case errors.Is(err, engine.ErrOptionOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrOptionOutOfRange)
	case errors.Is(err, engine.ErrFormatMismatch):
		response.Fail(c, http.StatusBadRequest, response.ErrFormatMismatch)
	case errors.Is(err, engine.ErrEvidenceLimit):
		response.Fail(c, http.StatusConflict, response.ErrEvidenceLimit)
	case errors.Is(err, engine.ErrEvidenceTooLarge):
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
	case errors.Is(err, engine.ErrEvidenceIndex):
		response.Fail(c, http.StatusNotFound, response.ErrEvidenceIndex)
	case errors.Is(err, engine.ErrNotFinalized):
		response.Fail(c, http.StatusConflict, response.ErrResultNotReady)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// failService maps registry and outcome-store errors to API codes.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, service.ErrNotSessionOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrResultNotReady):
		response.Fail(c, http.StatusConflict, response.ErrResultNotReady)
	case errors.Is(err, engine.ErrSessionInactive):
		response.Fail(c, http.StatusConflict, response.ErrSessionInactive)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
