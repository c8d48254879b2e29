package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	apperrors "willtank/internal/errors"
	"willtank/internal/llm"
	"willtank/internal/logger"
)

const skylerPrompt = `You are Skyler, the WillTank estate planning assistant. Help the user draft a clear, ` +
	`well organised will by asking one question at a time about their family, executors, ` +
	`beneficiaries, assets and final wishes. Be warm and concise. You are not a lawyer; ` +
	`suggest professional legal review for complex situations.`

// ChatRequest is a transcript sent by the client.
type ChatRequest struct {
	Messages   []llm.Message
	TemplateID string
}

// ChatService proxies the Skyler assistant to the upstream model.
type ChatService interface {
	Stream(ctx context.Context, userID uuid.UUID, req ChatRequest, onDelta func(string) error) error
	Complete(ctx context.Context, userID uuid.UUID, req ChatRequest) (string, error)
}

type chatService struct {
	client llm.Client
}

// NewChatService creates a ChatService.
func NewChatService(client llm.Client) ChatService {
	return &chatService{client: client}
}

type sinkError struct{ err error }

func (e *sinkError) Error() string { return e.err.Error() }
func (e *sinkError) Unwrap() error { return e.err }

// Stream forwards content fragments to onDelta. Failures writing to the
// client are returned as is; upstream failures map to ErrAssistantUnavailable.
func (s *chatService) Stream(ctx context.Context, userID uuid.UUID, req ChatRequest, onDelta func(string) error) error {
	msgs := withSystemPrompt(req)
	err := s.client.Stream(ctx, msgs, func(delta string) error {
		if err := onDelta(delta); err != nil {
			return &sinkError{err}
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var sink *sinkError
	if errors.As(err, &sink) {
		return sink.err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logger.FromContext(ctx).Error("assistant stream failed", "user_id", userID, "error", err)
	return fmt.Errorf("%w: %v", apperrors.ErrAssistantUnavailable, err)
}

func (s *chatService) Complete(ctx context.Context, userID uuid.UUID, req ChatRequest) (string, error) {
	out, err := s.client.Complete(ctx, withSystemPrompt(req))
	if err != nil {
		logger.FromContext(ctx).Error("assistant completion failed", "user_id", userID, "error", err)
		return "", fmt.Errorf("%w: %v", apperrors.ErrAssistantUnavailable, err)
	}
	return out, nil
}

// withSystemPrompt prepends the Skyler prompt unless the transcript already
// starts with its own system message.
func withSystemPrompt(req ChatRequest) []llm.Message {
	for _, m := range req.Messages {
		if m.Role == llm.RoleSystem {
			return req.Messages
		}
	}

	prompt := skylerPrompt
	if tpl, ok := FindTemplate(strings.TrimSpace(req.TemplateID)); ok {
		prompt += "\n\n" + tpl.Prompt
	}

	out := make([]llm.Message, 0, len(req.Messages)+1)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: prompt})
	return append(out, req.Messages...)
}
