package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/guidechat/internal/chat"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		session chat.Session
		want    []string
		notWant []string
	}{
		{
			name:    "basic session",
			session: testSession("test1"),
			want: []string{
				"# Conversation test1",
				"**Messages:** 2",
				"**You:** (2023-01-01T00:00:00Z)",
				"Hello, how are you?",
				"**Guide:**",
				"I'm doing well, thank you!",
			},
			notWant: []string{"**Error:**"},
		},
		{
			name: "pending placeholder",
			session: testSessionWithMessages("test2", []chat.Message{
				{ID: "u", Role: chat.RoleUser, Content: "Hello"},
				{ID: "p", Role: chat.RoleAssistant, Pending: true},
			}),
			want: []string{"**Guide:**\n\n_waiting for a response_"},
		},
		{
			name: "system message and error",
			session: chat.Session{
				ID:    "test3",
				Error: "broker down",
				Messages: []chat.Message{
					{ID: "s", Role: chat.RoleSystem, Content: "An error occurred while sending the message."},
				},
			},
			want: []string{"**Error:** broker down", "**System:**"},
		},
		{
			name:    "no session",
			session: chat.Session{},
			want:    []string{"# Conversation (none)", "**Messages:** 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}

			if err := exporter.Export(tt.session, &buf); err != nil {
				t.Fatalf("MarkdownExporter.Export() error = %v", err)
			}

			output := buf.String()
			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got:\n%s", wantStr, output)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(output, notWantStr) {
					t.Errorf("Output should not contain %q, got:\n%s", notWantStr, output)
				}
			}
		})
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	exporter := &MarkdownExporter{}
	if got := exporter.Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want md", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:  "basic text",
			input: "Hello world",
			want:  []string{"Hello world"},
		},
		{
			name:    "markdown bold",
			input:   "This is **bold** text",
			want:    []string{"\\*\\*bold\\*\\*"},
			notWant: []string{"**bold**"},
		},
		{
			name:    "markdown underline",
			input:   "This is __underlined__ text",
			want:    []string{"\\_\\_underlined\\_\\_"},
			notWant: []string{"__underlined__"},
		},
		{
			name:  "code block preserved",
			input: "```go\npackage main\n```",
			want:  []string{"```go", "package main", "```"},
		},
		{
			name:    "mixed content",
			input:   "Regular text **bold** and ```code```",
			want:    []string{"\\*\\*bold\\*\\*", "```code```"},
			notWant: []string{"**bold**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := escapeMarkdown(tt.input)
			for _, wantStr := range tt.want {
				if !strings.Contains(got, wantStr) {
					t.Errorf("escapeMarkdown() should contain %q, got: %s", wantStr, got)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(got, notWantStr) {
					t.Errorf("escapeMarkdown() should not contain %q, got: %s", notWantStr, got)
				}
			}
		})
	}
}


