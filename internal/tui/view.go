package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"classmate/internal/domain"
	"classmate/internal/wizard"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	subtleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	activeTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// View renders the current wizard step.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("ClassMateAI") + "  " + subtleStyle.Render(m.stepIndicator())
	var body string
	switch m.machine.Step() {
	case wizard.StepEntry:
		body = m.viewEntry()
	case wizard.StepCredential:
		body = m.viewCredential()
	case wizard.StepUpload:
		body = m.viewUpload()
	case wizard.StepLevel:
		body = m.viewLevel()
	case wizard.StepProcessing:
		body = m.viewProcessing()
	case wizard.StepChat:
		body = m.viewChat()
	case wizard.StepSettings:
		body = m.viewSettings()
	}
	status := m.status
	if status == "" {
		status = " "
	}
	style := statusStyle
	if strings.Contains(status, "rror") || strings.Contains(status, "ailed") || strings.Contains(status, "not found") {
		style = errorStyle
	}
	return header + "\n\n" + body + "\n" + style.Render(status)
}

func (m Model) stepIndicator() string {
	if m.machine.Step() == wizard.StepSettings {
		return "Settings"
	}
	return fmt.Sprintf("Step %d of 6", int(m.machine.Step())+1)
}

func (m Model) viewEntry() string {
	return "Your Personal AI Learning Assistant\n\n" +
		"Transform any textbook into an interactive learning experience\n" +
		"with personalized explanations and quizzes.\n\n" +
		subtleStyle.Render("Press Enter to get started. Ctrl+C quits.") + "\n"
}

func (m Model) viewCredential() string {
	return "Enter your OpenAI API key so the assistant can call the model.\n\n" +
		boxStyle.Render(m.keyInput.View()) + "\n\n" +
		subtleStyle.Render("Enter to continue, Esc to go back.") + "\n"
}

func (m Model) viewUpload() string {
	return "Upload your textbook (PDF or plain text).\n\n" +
		boxStyle.Render(m.pathInput.View()) + "\n\n" +
		subtleStyle.Render("Enter to continue, Esc to go back.") + "\n"
}

func (m Model) viewLevel() string {
	var b strings.Builder
	b.WriteString("Choose your learning level.\n\n")
	b.WriteString(m.renderLevelList())
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("Enter to process your textbook, s for settings, Esc to go back."))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewProcessing() string {
	return "Processing your textbook...\n\n" +
		"Extracting, embedding and indexing your content. This can take a\n" +
		"minute for a large book.\n"
}

func (m Model) viewChat() string {
	var b strings.Builder
	b.WriteString(m.renderThreadBar())
	b.WriteString("\n")
	if m.summary != "" {
		b.WriteString(subtleStyle.Render(truncateLine(m.summary, max(20, m.width-2))))
		b.WriteString("\n")
	}
	b.WriteString(boxStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.chatInput.View()))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("Ctrl+N new thread · Tab switch · Ctrl+X delete · /quiz <topic> · Ctrl+S settings · Esc back"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewSettings() string {
	var b strings.Builder
	b.WriteString("Settings\n\nLearning level:\n\n")
	b.WriteString(m.renderLevelList())
	b.WriteString("\nAPI key: ")
	if m.apiKey != "" {
		b.WriteString(subtleStyle.Render("set (" + maskKey(m.apiKey) + ")"))
	} else {
		b.WriteString(errorStyle.Render("not set"))
	}
	b.WriteString("\n\n")
	b.WriteString(subtleStyle.Render("Enter or Esc to go back."))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderLevelList() string {
	var b strings.Builder
	for i, lvl := range domain.Levels() {
		line := "  " + string(lvl)
		if lvl == m.level {
			line += " (current)"
		}
		if i == m.levelCursor {
			line = cursorStyle.Render("> " + strings.TrimPrefix(line, "  "))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderThreadBar() string {
	list := m.threads.Threads()
	if len(list) == 0 {
		return subtleStyle.Render("No threads yet.")
	}
	active := m.threads.ActiveID()
	parts := make([]string, 0, len(list))
	for _, t := range list {
		label := truncateLine(t.Title, 24)
		if t.ID == active {
			parts = append(parts, activeTabStyle.Render("["+label+"]"))
		} else {
			parts = append(parts, subtleStyle.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderTranscript() string {
	active := m.threads.Active()
	if len(active.Messages) == 0 {
		return "Ask anything about your textbook; the assistant answers using\nonly the material you uploaded."
	}
	var b strings.Builder
	for i, msg := range active.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case domain.RoleUser:
			b.WriteString(userStyle.Render("You: "))
		default:
			b.WriteString(assistantStyle.Render("Tutor: "))
		}
		b.WriteString(msg.Content)
	}
	return b.String()
}

func (m *Model) resizeViewport(width, height int) {
	_, frame := boxStyle.GetFrameSize()
	// header, thread bar, summary, input box, hints, status
	reserved := 7 + frame*2
	vh := height - reserved
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = max(20, width-4)
	m.viewport.Height = vh
}

func truncateLine(s string, limit int) string {
	runes := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
