package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/guidechat/internal/chat"
)

// JSONLExporter exports sessions in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a session to JSONL format
func (e *JSONLExporter) Export(session chat.Session, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range session.Messages {
		obj := map[string]interface{}{
			"session_id": session.ID,
			"role":       msg.Role,
			"content":    msg.Content,
		}
		if msg.Pending {
			obj["pending"] = true
		}
		if !msg.CreatedAt.IsZero() {
			obj["timestamp"] = msg.CreatedAt.UTC().Format(time.RFC3339)
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
