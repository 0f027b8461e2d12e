package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/abacus/pkg/domain"
)

// JSONRequest is one NDJSON input line. Command takes precedence over Keys.
// Plain JSON strings and raw text lines are accepted as Keys too.
type JSONRequest struct {
	Keys    string `json:"keys,omitempty"`
	Command string `json:"command,omitempty"`
}

// JSONMessage is a meta-message written in JSON mode.
type JSONMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder

	mu sync.Mutex
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: enc,
	}
}

// Output emits the state as a single JSON line.
func (h *JSONHandler) Output(ctx context.Context, state *domain.State) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(state)
}

// Input reads the next request line. Blank lines are skipped.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := h.Reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if text == "" {
			if err != nil {
				return "", err
			}
			continue
		}

		line, decodeErr := decodeRequest(text)
		if decodeErr == nil {
			line, decodeErr = SanitizeInput(line)
		}
		if decodeErr != nil {
			if werr := h.SystemOutput(ctx, decodeErr.Error()); werr != nil {
				return "", werr
			}
			if err != nil {
				return "", err
			}
			continue
		}
		return line, nil
	}
}

func decodeRequest(text string) (string, error) {
	switch {
	case strings.HasPrefix(text, "{"):
		var req JSONRequest
		if err := json.Unmarshal([]byte(text), &req); err != nil {
			return "", err
		}
		if req.Command != "" {
			if !strings.HasPrefix(req.Command, ":") {
				return ":" + req.Command, nil
			}
			return req.Command, nil
		}
		return req.Keys, nil

	case strings.HasPrefix(text, `"`):
		var val string
		if err := json.Unmarshal([]byte(text), &val); err != nil {
			return "", err
		}
		return val, nil

	default:
		return text, nil
	}
}

// SystemOutput emits {"type":"system","message":...}.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(JSONMessage{Type: "system", Message: msg})
}
