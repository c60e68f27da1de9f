package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luminedu/assess-engine/internal/middleware"
	"github.com/luminedu/assess-engine/internal/model"
	"github.com/luminedu/assess-engine/internal/repository"
	"github.com/luminedu/assess-engine/internal/response"
	"github.com/luminedu/assess-engine/internal/service"
	"github.com/luminedu/assess-engine/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService     *service.AuthService
	participantRepo *repository.ParticipantRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, participantRepo *repository.ParticipantRepository) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		participantRepo: participantRepo,
	}
}

// ParticipantLogin godoc
// POST /api/v1/auth/participant/login
// Validates participant number + access code, rejects if a login is already
// active, returns JWT.
func (h *AuthHandler) ParticipantLogin(c *gin.Context) {
	var req model.ParticipantLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	account, err := h.participantRepo.GetByNo(c.Request.Context(), req.ParticipantNo)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckAccessCode(account.AccessCodeHash, req.AccessCode); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateParticipantToken(c.Request.Context(), account.ID)
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"participant": gin.H{
			"id":             account.ID,
			"participant_no": account.ParticipantNo,
			"display_name":   account.DisplayName,
		},
	})
}

// GraderLogin godoc
// POST /api/v1/auth/grader/login
// Validates email + access code, returns JWT.
func (h *AuthHandler) GraderLogin(c *gin.Context) {
	var req model.GraderLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	account, err := h.participantRepo.GetGraderByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckAccessCode(account.AccessCodeHash, req.AccessCode); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateGraderToken(account.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"grader": gin.H{
			"id":    account.ID,
			"email": account.Email,
			"name":  account.Name,
		},
	})
}

// GetParticipantProfile godoc
// GET /api/v1/auth/participant/me
// Returns the profile of the currently authenticated participant.
func (h *AuthHandler) GetParticipantProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	account, err := h.participantRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"participant": gin.H{
			"id":             account.ID,
			"participant_no": account.ParticipantNo,
			"display_name":   account.DisplayName,
		},
	})
}

// ParticipantLogout godoc
// POST /api/v1/auth/participant/logout
// Releases the participant's active login so a new device can log in.
func (h *AuthHandler) ParticipantLogout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.ResetParticipantLogin(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
