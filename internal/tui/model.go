package tui

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"classmate/internal/answer"
	"classmate/internal/chunker"
	"classmate/internal/config"
	"classmate/internal/domain"
	"classmate/internal/embedding"
	"classmate/internal/knowledge"
	"classmate/internal/quiz"
	"classmate/internal/session"
	"classmate/internal/summarizer"
	"classmate/internal/thread"
	"classmate/internal/wizard"
)

// Backends constructs the credential-dependent clients. The key is only
// known once the user has passed the credential step, so construction is
// deferred behind these factories; tests substitute stubs.
type Backends struct {
	NewEmbedder func(apiKey string) (embedding.Embedder, error)
	NewChat     func(apiKey string) answer.ChatClient
}

// Model is the Bubble Tea model driving the wizard. One user action triggers
// one synchronous chain of work; while an ingest or generation command is in
// flight all further mutating input is ignored.
type Model struct {
	cfg      *config.AppConfig
	log      *zap.Logger
	sess     *session.Store
	backends Backends

	machine *wizard.Machine
	threads *thread.Store
	level   domain.Level
	apiKey  string
	docPath string
	kbBuilt bool

	embedder embedding.Embedder
	chat     answer.ChatClient
	kb       *knowledge.Base
	engine   *answer.Engine
	quizzer  *quiz.Generator
	summary  string

	keyInput    textinput.Model
	pathInput   textinput.Model
	chatInput   textinput.Model
	viewport    viewport.Model
	levelCursor int
	status      string
	busy        bool
	ready       bool
	width       int
}

type ingestDoneMsg struct {
	kb      *knowledge.Base
	summary string
	err     error
}

type reloadDoneMsg struct{ err error }

type answerDoneMsg struct {
	threadID string
	text     string
	err      error
}

type quizDoneMsg struct {
	threadID string
	text     string
	err      error
}

// New builds the wizard model, rehydrating from a restored snapshot when one
// was recovered at startup.
func New(cfg *config.AppConfig, log *zap.Logger, sess *session.Store, snap *session.Snapshot, backends Backends) Model {
	ki := textinput.New()
	ki.Prompt = "> "
	ki.Placeholder = "sk-..."
	ki.EchoMode = textinput.EchoPassword

	pi := textinput.New()
	pi.Prompt = "> "
	pi.Placeholder = "Path to your textbook (.pdf or .txt)"

	ci := textinput.New()
	ci.Prompt = "> "
	ci.Placeholder = "Ask about your textbook, or /quiz <topic>"

	m := Model{
		cfg:       cfg,
		log:       log,
		sess:      sess,
		backends:  backends,
		machine:   wizard.New(),
		threads:   thread.NewStore(cfg.Threads.Limit, cfg.Threads.TitleLimit),
		level:     domain.LevelBeginner,
		keyInput:  ki,
		pathInput: pi,
		chatInput: ci,
		viewport:  viewport.New(0, 0),
		status:    "Welcome.",
	}
	if snap != nil {
		m.apiKey = snap.APIKey
		m.level = domain.ParseLevel(snap.Level)
		m.kbBuilt = snap.KnowledgeBuilt
		m.threads.Restore(snap.Threads)
		if m.apiKey != "" {
			m.connectBackends()
		}
		m.machine = wizard.NewAt(wizard.Resume(m.apiKey != "", m.kbBuilt))
		m.machine.Normalize(m.env())
	}
	m.focusStep()
	return m
}

// Init starts the cursor blink for whichever input has focus.
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m *Model) env() wizard.Env {
	return wizard.Env{
		HasCredential:  m.apiKey != "",
		HasDocument:    m.docPath != "",
		KnowledgeReady: m.kb != nil && m.kb.Ready(),
	}
}

// connectBackends builds the embedder and chat client from the current key
// and re-probes the knowledge directory.
func (m *Model) connectBackends() {
	emb, err := m.backends.NewEmbedder(m.apiKey)
	if err != nil {
		m.status = "Credential error: " + err.Error()
		return
	}
	m.embedder = emb
	m.chat = m.backends.NewChat(m.apiKey)
	m.kb = knowledge.Open(m.cfg.Storage.KnowledgeDir, m.embedder)
	if m.kb.EverBuilt() {
		m.kbBuilt = true
	}
	m.rebuildEngines()
}

func (m *Model) rebuildEngines() {
	if m.kb == nil || m.chat == nil {
		return
	}
	m.engine = answer.NewEngine(m.kb, m.chat, m.cfg.OpenAI.ChatModel, m.cfg.OpenAI.Temperature, m.cfg.Retrieval.TopK, m.log)
	m.quizzer = quiz.NewGenerator(m.kb, m.chat, m.cfg.OpenAI.ChatModel, m.cfg.OpenAI.Temperature, m.cfg.Retrieval.TopK)
}

// saveSession snapshots after every mutating action. Failures are logged by
// the store and never interrupt the flow.
func (m *Model) saveSession() {
	_ = m.sess.Save(session.Snapshot{
		APIKey:         m.apiKey,
		Level:          string(m.level),
		Threads:        m.threads.Export(),
		KnowledgeBuilt: m.kbBuilt,
	})
}

func (m *Model) focusStep() {
	m.keyInput.Blur()
	m.pathInput.Blur()
	m.chatInput.Blur()
	switch m.machine.Step() {
	case wizard.StepCredential:
		m.keyInput.Focus()
	case wizard.StepUpload:
		m.pathInput.Focus()
	case wizard.StepChat:
		m.chatInput.Focus()
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
	}
}

// startProcessing returns the command for the processing step: a reload when
// a durable index exists and no new document was chosen, a full ingest
// otherwise.
func (m *Model) startProcessing() tea.Cmd {
	kb := m.kb
	if m.docPath == "" && kb != nil && kb.Status() == knowledge.StatusUnloaded {
		return func() tea.Msg { return reloadDoneMsg{err: kb.Reload()} }
	}
	ingestor := knowledge.NewIngestor(
		chunker.NewCharChunker(m.cfg.Chunker.Size, m.cfg.Chunker.Overlap),
		m.embedder,
		summarizer.NewFrequencySummarizer(),
		m.cfg.Summary.MaxSentences,
		m.log,
	)
	path, dir := m.docPath, m.cfg.Storage.KnowledgeDir
	return func() tea.Msg {
		base, sum, err := ingestor.Ingest(context.Background(), path, dir)
		return ingestDoneMsg{kb: base, summary: sum, err: err}
	}
}

func (m *Model) askQuestion(question string) tea.Cmd {
	active := m.threads.Active()
	if err := m.threads.Append(active.ID, domain.RoleUser, question); err != nil {
		m.status = err.Error()
		return nil
	}
	m.saveSession()
	engine, level, id := m.engine, m.level, active.ID
	return func() tea.Msg {
		text, err := engine.Answer(context.Background(), question, level)
		return answerDoneMsg{threadID: id, text: text, err: err}
	}
}

func (m *Model) askQuiz(topic string) tea.Cmd {
	active := m.threads.Active()
	if err := m.threads.Append(active.ID, domain.RoleUser, "/quiz "+topic); err != nil {
		m.status = err.Error()
		return nil
	}
	m.saveSession()
	quizzer, level, id, n := m.quizzer, m.level, active.ID, m.cfg.Quiz.Questions
	return func() tea.Msg {
		items, err := quizzer.Generate(context.Background(), topic, level, n)
		if err != nil {
			return quizDoneMsg{threadID: id, err: err}
		}
		var b strings.Builder
		for i, it := range items {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString("Q")
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString(": ")
			b.WriteString(it.Question)
			b.WriteString("\nA: ")
			b.WriteString(it.Answer)
		}
		return quizDoneMsg{threadID: id, text: b.String()}
	}
}

// setCredential records a freshly entered key and makes it available to
// downstream components through the environment before anything else uses it.
func (m *Model) setCredential(key string) {
	m.apiKey = key
	_ = os.Setenv(m.cfg.OpenAI.APIKeyEnv, key)
	m.connectBackends()
	m.saveSession()
}
