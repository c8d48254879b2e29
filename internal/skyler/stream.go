package skyler

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

const doneSentinel = "[DONE]"

// Chunk is one decoded server-sent event.
type Chunk struct {
	Content string `json:"content"`
	Error   string `json:"error"`
}

// ChunkHandler receives stream items. raw is the undecoded payload and err is
// set when the payload could not be decoded.
type ChunkHandler func(chunk Chunk, raw string, err error) error

// ReadStream reads "data: <json>" lines from r until [DONE] or EOF. It
// reports whether the sentinel was seen.
func ReadStream(r io.Reader, handle ChunkHandler) (bool, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == doneSentinel {
			return true, nil
		}

		var chunk Chunk
		decodeErr := json.Unmarshal([]byte(payload), &chunk)
		if err := handle(chunk, payload, decodeErr); err != nil {
			return false, err
		}
	}
	return false, sc.Err()
}
