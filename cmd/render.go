package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/iksnae/guidechat/internal"
	"github.com/iksnae/guidechat/internal/chat"
)

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	systemMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

const defaultWrap = 80

// printer writes conversation messages. Assistant answers are Markdown and go
// through glamour.
type printer struct {
	w        io.Writer
	renderer *glamour.TermRenderer
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w}

	var err error
	if internal.IsTerminal(w) {
		p.renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(terminalWidth(w)-4),
		)
	} else {
		p.renderer, err = glamour.NewTermRenderer(
			glamour.WithStylePath("notty"),
			glamour.WithWordWrap(defaultWrap),
		)
	}
	if err != nil {
		internal.LogDebug("Markdown rendering unavailable: %v", err)
		p.renderer = nil
	}
	return p
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 20 {
			return width
		}
	}
	return defaultWrap
}

// markdown renders content, falling back to plain wrapped text
func (p *printer) markdown(content string) string {
	if p.renderer != nil {
		if out, err := p.renderer.Render(content); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return messageContentStyle.Render(wrapText(content, defaultWrap))
}

func (p *printer) header(session chat.Session) {
	id := session.ID
	if id == "" {
		id = "no active conversation"
	}
	fmt.Fprintln(p.w, sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", id)))
	fmt.Fprintln(p.w, sessionMetaStyle.Render(fmt.Sprintf("Messages: %d", len(session.Messages))))
	fmt.Fprintln(p.w)
}

func (p *printer) message(index, total int, msg chat.Message) {
	var label string
	switch msg.Role {
	case chat.RoleUser:
		label = userMessageStyle.Render("👤 You")
	case chat.RoleAssistant:
		label = assistantMessageStyle.Render("🤖 Guide")
	default:
		label = systemMessageStyle.Render("⚠ System")
	}

	header := label
	if total > 0 {
		header += " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	}
	if !msg.CreatedAt.IsZero() {
		header += " " + timestampStyle.Render(msg.CreatedAt.Local().Format("15:04:05"))
	}
	fmt.Fprintln(p.w, header)

	content := strings.TrimSpace(msg.Content)
	switch {
	case msg.Pending:
		fmt.Fprintln(p.w, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(waiting for a response)"))
	case content == "":
		fmt.Fprintln(p.w, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	case msg.Role == chat.RoleAssistant:
		fmt.Fprintln(p.w, p.markdown(content))
	default:
		fmt.Fprintln(p.w, messageContentStyle.Render(wrapText(content, defaultWrap)))
	}
	fmt.Fprintln(p.w)
}

// answer prints a single assistant reply without the log position
func (p *printer) answer(msg chat.Message) {
	p.message(0, 0, msg)
}

// conversation prints the last limit messages of session, all when limit <= 0
func (p *printer) conversation(session chat.Session, limit int) {
	p.header(session)

	messages := session.Messages
	offset := 0
	if limit > 0 && len(messages) > limit {
		offset = len(messages) - limit
		messages = messages[offset:]
	}
	for i, msg := range messages {
		p.message(offset+i+1, len(session.Messages), msg)
	}
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}
