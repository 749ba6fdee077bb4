package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/guidechat/internal"
	"github.com/iksnae/guidechat/internal/chat"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(session chat.Session, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// DefaultFilename names the transcript file of a session
func DefaultFilename(e Exporter, session chat.Session) string {
	id := session.ID
	if id == "" {
		id = "conversation"
	}
	return fmt.Sprintf("%s.%s", id, e.Extension())
}

// WriteFile exports session to path, creating parent directories as needed
func WriteFile(e Exporter, session chat.Session, path string) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = &internal.ExportError{Format: e.Extension(), Path: path, Err: closeErr}
		}
	}()

	if err := e.Export(session, f); err != nil {
		return &internal.ExportError{Format: e.Extension(), Path: path, Err: err}
	}
	internal.LogDebug("Exported %d messages to %s", len(session.Messages), path)
	return nil
}
