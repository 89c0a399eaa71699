package api

import (
	"encoding/json"
	"net/http"

	"github.com/drcloud/assistant/internal/agent/runner"
	apierrors "github.com/drcloud/assistant/internal/api/errors"
	"github.com/drcloud/assistant/internal/api/response"
	"github.com/drcloud/assistant/internal/logging"
)

// SessionHandler manages encounter sessions.
type SessionHandler struct {
	svc    ChatService
	logger *logging.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(svc ChatService, logger *logging.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, logger: logger}
}

type newSessionRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// HandleNew creates or reuses a session. Missing identifiers are
// generated server side.
func (h *SessionHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	var req newSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAPIError(w, apierrors.NewInvalidRequestError("invalid JSON body: %v", err))
			return
		}
	}

	userID, sessionID := runner.NewSessionIDs(req.UserID, req.SessionID)
	created := h.svc.CreateSession(userID, sessionID)

	message := "Session resumed"
	if created {
		message = "Session created"
	}
	h.logger.InfoWithFields("session requested",
		logging.Field("user_id", userID),
		logging.Field("session_id", sessionID),
		logging.Field("created", created))

	_ = response.WriteSuccess(w, map[string]string{
		"user_id":    userID,
		"session_id": sessionID,
		"message":    message,
	})
}

// HandleState returns the encounter state for a session.
func (h *SessionHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	sessionID := r.URL.Query().Get("session_id")
	if userID == "" || sessionID == "" {
		writeAPIError(w, apierrors.NewInvalidRequestError("user_id and session_id are required"))
		return
	}

	snap, ok := h.svc.SessionState(userID, sessionID)
	if !ok {
		writeAPIError(w, apierrors.NewNotFoundError("session %s not found", sessionID))
		return
	}

	_ = response.WriteSuccess(w, map[string]interface{}{
		"user_id":    userID,
		"session_id": sessionID,
		"state":      snap,
	})
}

// HandleDelete removes a session. Deleting an unknown session still
// succeeds.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	sessionID := r.URL.Query().Get("session_id")
	if userID == "" || sessionID == "" {
		writeAPIError(w, apierrors.NewInvalidRequestError("user_id and session_id are required"))
		return
	}

	h.svc.DeleteSession(userID, sessionID)

	_ = response.WriteSuccess(w, map[string]string{
		"message":    "Session deleted",
		"user_id":    userID,
		"session_id": sessionID,
	})
}

// writeAPIError writes a structured error body.
func writeAPIError(w http.ResponseWriter, err *apierrors.APIError) {
	response.WriteError(w, err.GetHTTPStatusCode(), string(err.Code), err.Message)
}
