package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/guidechat/internal/chat"
)

// MarkdownExporter exports sessions in Markdown format
type MarkdownExporter struct{}

var roleTitles = map[chat.Role]string{
	chat.RoleUser:      "You",
	chat.RoleAssistant: "Guide",
	chat.RoleSystem:    "System",
}

// Export exports a session to Markdown format
func (e *MarkdownExporter) Export(session chat.Session, w io.Writer) error {
	id := session.ID
	if id == "" {
		id = "(none)"
	}
	_, _ = fmt.Fprintf(w, "# Conversation %s\n\n", id)
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(session.Messages))
	if session.Error != "" {
		_, _ = fmt.Fprintf(w, "**Error:** %s\n\n", session.Error)
	}

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range session.Messages {
		title, ok := roleTitles[msg.Role]
		if !ok {
			title = string(msg.Role)
		}

		timestamp := ""
		if !msg.CreatedAt.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.CreatedAt.UTC().Format(time.RFC3339))
		}

		content := escapeMarkdown(msg.Content)
		if msg.Pending {
			content = "_waiting for a response_"
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", title, timestamp, content)

		if i < len(session.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
