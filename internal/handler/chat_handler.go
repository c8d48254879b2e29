package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "willtank/internal/errors"
	"willtank/internal/llm"
	"willtank/internal/logger"
	"willtank/internal/service"
)

// StreamDone terminates every chat event stream.
const StreamDone = "[DONE]"

// ChatHandler exposes the Skyler assistant.
type ChatHandler struct {
	svc service.ChatService
}

// NewChatHandler creates a chat handler.
func NewChatHandler(svc service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// ChatRequest is the transcript so far.
type ChatRequest struct {
	Messages   []llm.Message `json:"messages" validate:"required,min=1,dive"`
	TemplateID string        `json:"templateId" validate:"omitempty,max=64"`
}

// ChatChunk is one server-sent event payload.
type ChatChunk struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ChatReply is a complete assistant turn.
type ChatReply struct {
	Message string `json:"message"`
}

func (r ChatRequest) toService() service.ChatRequest {
	return service.ChatRequest{Messages: r.Messages, TemplateID: r.TemplateID}
}

type sseWriter struct {
	res     *echo.Response
	started bool
}

func (w *sseWriter) start() {
	if w.started {
		return
	}
	h := w.res.Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.res.WriteHeader(http.StatusOK)
	w.started = true
}

func (w *sseWriter) data(payload string) error {
	w.start()
	if _, err := fmt.Fprintf(w.res, "data: %s\n\n", payload); err != nil {
		return err
	}
	w.res.Flush()
	return nil
}

func (w *sseWriter) event(chunk ChatChunk) error {
	raw, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	return w.data(string(raw))
}

// Stream godoc
// @Summary Stream an assistant reply
// @Description Server-sent events of {"content":"..."} fragments, terminated by [DONE].
// @Description An upstream failure after the first fragment is sent as {"error":"..."} before [DONE].
// @Tags skyler
// @Accept json
// @Produce text/event-stream
// @Security BearerAuth
// @Param request body ChatRequest true "Transcript"
// @Success 200 {string} string "event stream"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /skyler/chat-stream [post]
func (h *ChatHandler) Stream(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req ChatRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	w := &sseWriter{res: c.Response()}
	err = h.svc.Stream(ctx, userID, req.toService(), func(delta string) error {
		return w.event(ChatChunk{Content: delta})
	})

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		logger.FromContext(ctx).Debug("chat stream closed by client")
		return nil
	case !w.started:
		return fail(c, err)
	case errors.Is(err, apperrors.ErrAssistantUnavailable):
		if werr := w.event(ChatChunk{Error: apperrors.ErrAssistantUnavailable.Error()}); werr != nil {
			return nil
		}
	default:
		// the client went away mid-write
		logger.FromContext(ctx).Debug("chat stream write failed", "error", err)
		return nil
	}

	if err := w.data(StreamDone); err != nil {
		logger.FromContext(ctx).Debug("chat stream write failed", "error", err)
	}
	return nil
}

// Chat godoc
// @Summary Get a complete assistant reply
// @Tags skyler
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChatRequest true "Transcript"
// @Success 200 {object} ChatReply
// @Failure 400 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /skyler/chat [post]
func (h *ChatHandler) Chat(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req ChatRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	reply, err := h.svc.Complete(c.Request().Context(), userID, req.toService())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ChatReply{Message: reply})
}
