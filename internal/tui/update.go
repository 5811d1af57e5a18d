package tui

import (
	"errors"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"classmate/internal/domain"
	"classmate/internal/wizard"
)

// Update handles key and window events and drives the wizard machine.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.resizeViewport(msg.Width, msg.Height)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case ingestDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.log.Error("ingest failed", zap.Error(msg.err))
			m.routeIngestError(msg.err)
			m.focusStep()
			return m, nil
		}
		m.kb = msg.kb
		m.kbBuilt = true
		m.summary = msg.summary
		m.docPath = ""
		m.rebuildEngines()
		m.saveSession()
		m.status = "Textbook processed. Ask away!"
		m.machine.Fire(wizard.EventNext, m.env())
		m.focusStep()
		return m, nil

	case reloadDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.log.Error("reload failed", zap.Error(msg.err))
			m.machine = wizard.NewAt(wizard.StepUpload)
			m.status = "Saved knowledge base could not be reloaded; please upload your textbook again."
			m.focusStep()
			return m, nil
		}
		m.rebuildEngines()
		m.status = "Knowledge base reloaded."
		m.machine.Fire(wizard.EventNext, m.env())
		m.focusStep()
		return m, nil

	case answerDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.log.Error("answer failed", zap.Error(msg.err))
			m.status = actionableError(msg.err)
			return m, nil
		}
		if err := m.threads.Append(msg.threadID, domain.RoleAssistant, msg.text); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.saveSession()
		m.status = ""
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case quizDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.log.Error("quiz failed", zap.Error(msg.err))
			m.status = actionableError(msg.err)
			return m, nil
		}
		if err := m.threads.Append(msg.threadID, domain.RoleAssistant, msg.text); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.saveSession()
		m.status = ""
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m.updateFocusedInput(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.machine.Step() {
	case wizard.StepEntry:
		if msg.Type == tea.KeyEnter {
			m.machine.Fire(wizard.EventNext, m.env())
			m.focusStep()
		}
		return m, nil

	case wizard.StepCredential:
		switch msg.Type {
		case tea.KeyEnter:
			key := strings.TrimSpace(m.keyInput.Value())
			if key == "" {
				m.status = "An API key is required to continue."
				return m, nil
			}
			m.setCredential(key)
			m.machine.Fire(wizard.EventNext, m.env())
			m.focusStep()
			return m, nil
		case tea.KeyEsc:
			m.machine.Fire(wizard.EventBack, m.env())
			m.focusStep()
			return m, nil
		}

	case wizard.StepUpload:
		switch msg.Type {
		case tea.KeyEnter:
			path := strings.TrimSpace(m.pathInput.Value())
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				m.status = "File not found: " + path
				return m, nil
			}
			m.docPath = path
			m.status = ""
			m.machine.Fire(wizard.EventNext, m.env())
			m.focusStep()
			return m, nil
		case tea.KeyEsc:
			m.machine.Fire(wizard.EventBack, m.env())
			m.focusStep()
			return m, nil
		}

	case wizard.StepLevel:
		switch msg.String() {
		case "up", "k":
			if m.levelCursor > 0 {
				m.levelCursor--
			}
			return m, nil
		case "down", "j":
			if m.levelCursor < len(domain.Levels())-1 {
				m.levelCursor++
			}
			return m, nil
		case "s":
			m.machine.Fire(wizard.EventSettings, m.env())
			return m, nil
		case "esc":
			m.machine.Fire(wizard.EventBack, m.env())
			m.focusStep()
			return m, nil
		case "enter":
			m.level = domain.Levels()[m.levelCursor]
			m.saveSession()
			next := m.machine.Fire(wizard.EventNext, m.env())
			m.focusStep()
			if next == wizard.StepProcessing {
				m.busy = true
				m.status = "Extracting, embedding and indexing your content..."
				return m, m.startProcessing()
			}
			return m, nil
		}
		return m, nil

	case wizard.StepChat:
		switch msg.Type {
		case tea.KeyEnter:
			text := strings.TrimSpace(m.chatInput.Value())
			if text == "" {
				return m, nil
			}
			m.chatInput.Reset()
			var cmd tea.Cmd
			if topic, ok := strings.CutPrefix(text, "/quiz "); ok {
				cmd = m.askQuiz(strings.TrimSpace(topic))
			} else {
				cmd = m.askQuestion(text)
			}
			if cmd == nil {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, cmd
		case tea.KeyCtrlN:
			m.threads.Create()
			m.saveSession()
			m.viewport.SetContent(m.renderTranscript())
			return m, nil
		case tea.KeyCtrlX:
			m.threads.Delete(m.threads.ActiveID())
			m.saveSession()
			m.viewport.SetContent(m.renderTranscript())
			return m, nil
		case tea.KeyTab:
			m.switchToNextThread()
			m.saveSession()
			m.viewport.SetContent(m.renderTranscript())
			return m, nil
		case tea.KeyCtrlS:
			m.machine.Fire(wizard.EventSettings, m.env())
			return m, nil
		case tea.KeyEsc:
			m.machine.Fire(wizard.EventBack, m.env())
			m.focusStep()
			return m, nil
		case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case wizard.StepSettings:
		switch msg.String() {
		case "up", "k":
			if m.levelCursor > 0 {
				m.levelCursor--
			}
			return m, nil
		case "down", "j":
			if m.levelCursor < len(domain.Levels())-1 {
				m.levelCursor++
			}
			return m, nil
		case "enter", "esc":
			m.level = domain.Levels()[m.levelCursor]
			m.saveSession()
			m.machine.Fire(wizard.EventBack, m.env())
			m.focusStep()
			return m, nil
		}
		return m, nil
	}
	return m.updateFocusedInput(msg)
}

func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.machine.Step() {
	case wizard.StepCredential:
		m.keyInput, cmd = m.keyInput.Update(msg)
	case wizard.StepUpload:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case wizard.StepChat:
		m.chatInput, cmd = m.chatInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) switchToNextThread() {
	list := m.threads.Threads()
	if len(list) < 2 {
		return
	}
	active := m.threads.ActiveID()
	for i, t := range list {
		if t.ID == active {
			_ = m.threads.Switch(list[(i+1)%len(list)].ID)
			return
		}
	}
	_ = m.threads.Switch(list[0].ID)
}

// routeIngestError sends the user to the step where the failure is fixable.
func (m *Model) routeIngestError(err error) {
	switch {
	case errors.Is(err, domain.ErrParse):
		m.machine = wizard.NewAt(wizard.StepUpload)
		m.docPath = ""
		m.status = "Could not read that document: " + err.Error() + " - please choose another file."
	case errors.Is(err, domain.ErrMissingCredential):
		m.machine = wizard.NewAt(wizard.StepCredential)
		m.status = "Please enter your API key first."
	default:
		m.machine = wizard.NewAt(wizard.StepLevel)
		m.status = "Processing failed: " + err.Error() + " - check your connection and retry."
	}
}

func actionableError(err error) string {
	switch {
	case errors.Is(err, domain.ErrKnowledgeBaseNotReady):
		return "No knowledge base loaded - go back and process your textbook first."
	case errors.Is(err, domain.ErrMissingCredential):
		return "No API key set - go back and enter your credential."
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "The model backend is unreachable - check your connection or key and retry."
	default:
		return "Error: " + err.Error()
	}
}
