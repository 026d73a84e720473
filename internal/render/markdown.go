// Package render draws conversation transcripts for the terminal. Assistant
// replies are rendered as markdown via Glamour; user turns are printed with
// a styled prefix.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"mmchat/pkg/chattypes"
)

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	unknownStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("240"))
)

// Renderer formats messages for terminal display.
type Renderer struct {
	markdown *glamour.TermRenderer
}

// NewRenderer creates a terminal renderer with auto-detected styling.
func NewRenderer() (*Renderer, error) {
	markdown, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &Renderer{markdown: markdown}, nil
}

// Message renders one conversation turn. Assistant content goes through the
// markdown renderer; all other roles are printed verbatim.
func (r *Renderer) Message(msg chattypes.Message) string {
	label := roleLabel(msg.Role)

	if msg.Role == chattypes.RoleAssistant {
		rendered, err := r.markdown.Render(msg.Content)
		if err == nil {
			return label + "\n" + rendered
		}
		// Fall back to plain text when rendering fails.
	}
	return label + " " + msg.Content + "\n"
}

// Transcript renders an ordered message history.
func (r *Renderer) Transcript(messages []chattypes.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(r.Message(msg))
	}
	return b.String()
}

func roleLabel(role string) string {
	switch role {
	case chattypes.RoleUser:
		return userStyle.Render("you>")
	case chattypes.RoleAssistant:
		return assistantStyle.Render("assistant>")
	default:
		// Roles are an open set; render server-emitted kinds as-is.
		return unknownStyle.Render(role + ">")
	}
}
