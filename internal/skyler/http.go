package skyler

import (
	"context"
	"io"
	"net/http"

	"willtank/internal/apiclient"
)

// StreamPath is the server endpoint producing chat completions as SSE.
const StreamPath = "/api/skyler/chat-stream"

// HTTPStreamer streams completions from the WillTank API.
type HTTPStreamer struct {
	client     *apiclient.Client
	templateID string
}

// NewHTTPStreamer creates a streamer; templateID is optional.
func NewHTTPStreamer(client *apiclient.Client, templateID string) *HTTPStreamer {
	return &HTTPStreamer{client: client, templateID: templateID}
}

type streamRequest struct {
	Messages   []Message `json:"messages"`
	TemplateID string    `json:"templateId,omitempty"`
}

func (s *HTTPStreamer) OpenStream(ctx context.Context, messages []Message) (io.ReadCloser, error) {
	resp, err := s.client.Open(ctx, http.MethodPost, StreamPath,
		streamRequest{Messages: messages, TemplateID: s.templateID}, "text/event-stream")
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return resp.Body, nil
}
