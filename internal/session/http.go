package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mapstreak/geoquiz/internal/auth"
	"github.com/mapstreak/geoquiz/internal/auth/jwt"
	httperrors "github.com/mapstreak/geoquiz/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for solo play sessions.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for session endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "session_http").Logger(),
	}
}

// Start handles POST /v1/sessions
func (h *HTTPHandlers) Start(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireClaims(w, r)
	if !ok {
		return
	}

	view, err := h.svc.Start(r.Context(), identityFromClaims(claims))
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("failed to start session")
		httperrors.RespondInternalError(w, "Failed to start session")
		return
	}
	h.respondJSON(w, http.StatusCreated, view)
}

// Current handles GET /v1/sessions/current
func (h *HTTPHandlers) Current(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireClaims(w, r)
	if !ok {
		return
	}

	view, err := h.svc.Resume(r.Context(), identityFromClaims(claims))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Get handles GET /v1/sessions/{id}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	claims, sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	view, err := h.svc.ViewByID(r.Context(), claims.UserID, sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Next handles POST /v1/sessions/{id}/next
func (h *HTTPHandlers) Next(w http.ResponseWriter, r *http.Request) {
	claims, sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	q, err := h.svc.Next(r.Context(), claims.UserID, sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, q)
}

// Submit handles POST /v1/sessions/{id}/answer
func (h *HTTPHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	claims, sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.QuestionID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Question id required", "question_id")
		return
	}

	result, err := h.svc.Submit(r.Context(), claims.UserID, sessionID, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// Restart handles POST /v1/sessions/{id}/restart
func (h *HTTPHandlers) Restart(w http.ResponseWriter, r *http.Request) {
	claims, sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	view, err := h.svc.Restart(r.Context(), claims.UserID, sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Reset handles POST /v1/sessions/{id}/reset
func (h *HTTPHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	claims, sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	view, err := h.svc.Reset(r.Context(), claims.UserID, sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// Summary handles GET /v1/sessions/{id}/summary
func (h *HTTPHandlers) Summary(w http.ResponseWriter, r *http.Request) {
	claims, sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.Summary(r.Context(), claims.UserID, sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, summary)
}

func (h *HTTPHandlers) requireClaims(w http.ResponseWriter, r *http.Request) (*jwt.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return nil, false
	}
	return claims, true
}

func (h *HTTPHandlers) requireSession(w http.ResponseWriter, r *http.Request) (*jwt.Claims, uuid.UUID, bool) {
	claims, ok := h.requireClaims(w, r)
	if !ok {
		return nil, uuid.Nil, false
	}

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidSessionID, "Invalid session id")
		return nil, uuid.Nil, false
	}
	return claims, sessionID, true
}

func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
	case errors.Is(err, ErrForbidden):
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Session belongs to another player")
	case errors.Is(err, ErrSessionOver):
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionOver, "Session is over; restart to continue")
	case errors.Is(err, ErrNotOver):
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionOver, "Session is still running")
	case errors.Is(err, ErrQuestionExpired):
		httperrors.RespondConflict(w, httperrors.ErrCodeQuestionExpired, "Question is no longer current")
	case errors.Is(err, ErrAlreadyAnswered):
		httperrors.RespondConflict(w, httperrors.ErrCodeAlreadyAnswered, "Question already answered")
	case errors.Is(err, ErrBadToken):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidToken, "Question token mismatch")
	default:
		h.logger.Error().Err(err).Msg("session operation failed")
		httperrors.RespondInternalError(w, "Session operation failed")
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func identityFromClaims(claims *jwt.Claims) Identity {
	return Identity{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		Guest:       claims.IsGuest,
	}
}
