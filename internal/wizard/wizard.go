// Package wizard drives the step sequence of the learning assistant:
// Entry → Credential → Upload → Level → Processing → Chat, with a Settings
// step reachable from Level and Chat. Transitions are a table keyed by
// (step, event) with guard predicates, so illegal moves (such as Chat without
// a live knowledge base) cannot be reached by incrementing a counter.
package wizard

// Step is one wizard state.
type Step int

const (
	StepEntry Step = iota
	StepCredential
	StepUpload
	StepLevel
	StepProcessing
	StepChat
	StepSettings
)

func (s Step) String() string {
	switch s {
	case StepEntry:
		return "entry"
	case StepCredential:
		return "credential"
	case StepUpload:
		return "upload"
	case StepLevel:
		return "level"
	case StepProcessing:
		return "processing"
	case StepChat:
		return "chat"
	case StepSettings:
		return "settings"
	default:
		return "invalid"
	}
}

// Event is a user-driven trigger for a transition.
type Event int

const (
	EventNext Event = iota
	EventBack
	EventSettings
)

// Env carries the guard inputs a transition may consult.
type Env struct {
	HasCredential  bool
	HasDocument    bool
	KnowledgeReady bool
}

type rule struct {
	from  Step
	event Event
	guard func(Env) bool
	to    Step
}

// Rules are tried in order; the first whose guard passes wins.
var transitions = []rule{
	{StepEntry, EventNext, nil, StepCredential},
	{StepCredential, EventNext, func(e Env) bool { return e.HasCredential }, StepUpload},
	{StepCredential, EventBack, nil, StepEntry},
	{StepUpload, EventNext, func(e Env) bool { return e.HasDocument }, StepLevel},
	{StepUpload, EventBack, nil, StepCredential},
	{StepLevel, EventNext, func(e Env) bool { return e.KnowledgeReady }, StepChat},
	{StepLevel, EventNext, nil, StepProcessing},
	{StepLevel, EventBack, nil, StepUpload},
	{StepLevel, EventSettings, nil, StepSettings},
	// Processing is terminal-per-visit: it never loops back to itself.
	{StepProcessing, EventNext, nil, StepChat},
	{StepChat, EventBack, nil, StepLevel},
	{StepChat, EventSettings, nil, StepSettings},
}

// Machine holds the current step. The zero value is not usable; construct
// with New or NewAt.
type Machine struct {
	step           Step
	settingsReturn Step
}

func New() *Machine { return &Machine{step: StepEntry, settingsReturn: StepLevel} }

// NewAt starts the machine at a resumed step. An out-of-range value resets
// to Entry.
func NewAt(step Step) *Machine {
	m := New()
	if step >= StepEntry && step <= StepSettings {
		m.step = step
	}
	return m
}

// Step returns the current step.
func (m *Machine) Step() Step { return m.step }

// Fire applies an event under the given environment and returns the new
// step. Events with no matching rule leave the step unchanged.
func (m *Machine) Fire(event Event, env Env) Step {
	if m.step == StepSettings {
		// Settings returns to wherever it was opened from.
		if event == EventBack || event == EventNext {
			m.step = m.settingsReturn
		}
		return m.normalize(env)
	}
	for _, r := range transitions {
		if r.from != m.step || r.event != event {
			continue
		}
		if r.guard != nil && !r.guard(env) {
			continue
		}
		if r.to == StepSettings {
			m.settingsReturn = m.step
		}
		m.step = r.to
		break
	}
	return m.normalize(env)
}

// Normalize enforces entry preconditions on the current step; used after
// resume and after every transition. Chat without a live knowledge base
// redirects to Upload.
func (m *Machine) Normalize(env Env) Step { return m.normalize(env) }

func (m *Machine) normalize(env Env) Step {
	if m.step < StepEntry || m.step > StepSettings {
		m.step = StepEntry
	}
	if m.step == StepChat && !env.KnowledgeReady {
		m.step = StepUpload
	}
	return m.step
}

// Resume computes the startup step from what the session snapshot recovered.
// A recovered knowledge-built flag resumes at Level without assuming a live
// index exists; the user re-triggers processing to get one.
func Resume(hasCredential, knowledgeBuilt bool) Step {
	switch {
	case hasCredential && knowledgeBuilt:
		return StepLevel
	case hasCredential:
		return StepUpload
	default:
		return StepEntry
	}
}
