package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/drcloud/assistant/internal/agent/runner"
	apierrors "github.com/drcloud/assistant/internal/api/errors"
	"github.com/drcloud/assistant/internal/api/response"
	"github.com/drcloud/assistant/internal/logging"
	"github.com/drcloud/assistant/internal/metrics"
)

// ChatHandler processes chat turns.
type ChatHandler struct {
	svc    ChatService
	logger *logging.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(svc ChatService, logger *logging.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

type chatRequest struct {
	UserID      string            `json:"user_id"`
	SessionID   string            `json:"session_id"`
	Message     string            `json:"message"`
	SymptomText string            `json:"symptom_text,omitempty"`
	LabReport   string            `json:"lab_report,omitempty"`
	Medications []string          `json:"medications,omitempty"`
	Lifestyle   map[string]string `json:"lifestyle,omitempty"`
}

func (h *ChatHandler) parseRequest(r *http.Request) (*chatRequest, *apierrors.APIError) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apierrors.NewInvalidRequestError("invalid JSON body: %v", err)
	}
	if req.UserID == "" || req.SessionID == "" {
		return nil, apierrors.NewValidationError("user_id and session_id are required")
	}
	if req.Message == "" {
		return nil, apierrors.NewValidationError("message is required")
	}
	return &req, nil
}

func (req *chatRequest) turnRequest() runner.TurnRequest {
	return runner.TurnRequest{
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		Message:     req.Message,
		SymptomText: req.SymptomText,
		LabReport:   req.LabReport,
		Medications: req.Medications,
		Lifestyle:   req.Lifestyle,
	}
}

// Handle processes one chat turn and returns the full response.
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	req, apiErr := h.parseRequest(r)
	if apiErr != nil {
		metrics.ChatRequests.WithLabelValues("chat", "invalid").Inc()
		writeAPIError(w, apiErr)
		return
	}

	start := time.Now()
	reply, err := h.svc.ProcessTurn(r.Context(), req.turnRequest(), nil)
	if err != nil {
		metrics.ChatRequests.WithLabelValues("chat", "error").Inc()
		h.logger.ErrorWithErr("chat turn failed", err)
		writeAPIError(w, apierrors.WrapError(err))
		return
	}
	metrics.ChatRequests.WithLabelValues("chat", "ok").Inc()

	h.logger.InfoWithFields("chat turn processed",
		logging.Field("session_id", req.SessionID),
		logging.Field("duration", time.Since(start).String()))

	_ = response.WriteSuccess(w, map[string]interface{}{
		"user_id":    req.UserID,
		"session_id": req.SessionID,
		"response":   reply.Response,
		"metadata":   reply.Metadata,
	})
}

// HandleStream processes one chat turn as a server-sent-event stream.
// Every stream ends with a complete frame, errors included.
func (h *ChatHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	req, apiErr := h.parseRequest(r)
	if apiErr != nil {
		metrics.ChatRequests.WithLabelValues("chat_stream", "invalid").Inc()
		writeAPIError(w, apiErr)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		metrics.ChatRequests.WithLabelValues("chat_stream", "error").Inc()
		writeAPIError(w, apierrors.NewInternalServerError("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events := make(chan runner.Event, 64)
	go func() {
		defer close(events)
		// Errors surface on the channel as error frames.
		if _, err := h.svc.ProcessTurn(r.Context(), req.turnRequest(), events); err != nil {
			metrics.ChatRequests.WithLabelValues("chat_stream", "error").Inc()
			h.logger.ErrorWithErr("streamed chat turn failed", err)
			return
		}
		metrics.ChatRequests.WithLabelValues("chat_stream", "ok").Inc()
	}()

	for ev := range events {
		h.writeFrame(w, flusher, ev)
	}
	h.writeFrame(w, flusher, runner.Event{Type: runner.EventTypeComplete})
}

func (h *ChatHandler) writeFrame(w http.ResponseWriter, flusher http.Flusher, ev runner.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.ErrorWithErr("failed to marshal stream frame", err)
		return
	}
	if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		h.logger.Debug("stream write failed: %v", err)
		return
	}
	flusher.Flush()
}
