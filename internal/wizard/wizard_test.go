package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResumeRouting(t *testing.T) {
	tests := []struct {
		name           string
		hasCredential  bool
		knowledgeBuilt bool
		want           Step
	}{
		{"credential and knowledge resume at level", true, true, StepLevel},
		{"credential only resumes at upload", true, false, StepUpload},
		{"nothing recovered resumes at entry", false, false, StepEntry},
		{"knowledge flag without credential resumes at entry", false, true, StepEntry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resume(tt.hasCredential, tt.knowledgeBuilt))
		})
	}
}

func TestResumeNeverLandsInChatWithoutLiveIndex(t *testing.T) {
	// The knowledge-built flag survives a restart but the in-memory index
	// does not; resume must route to Level, and even a forged Chat step is
	// normalized away.
	m := NewAt(Resume(true, true))
	assert.Equal(t, StepLevel, m.Step())

	forged := NewAt(StepChat)
	assert.Equal(t, StepUpload, forged.Normalize(Env{HasCredential: true}))
}

func TestLinearFlow(t *testing.T) {
	m := New()
	env := Env{}

	assert.Equal(t, StepCredential, m.Fire(EventNext, env))

	// No credential: stuck.
	assert.Equal(t, StepCredential, m.Fire(EventNext, env))
	env.HasCredential = true
	assert.Equal(t, StepUpload, m.Fire(EventNext, env))

	// No document: stuck.
	assert.Equal(t, StepUpload, m.Fire(EventNext, env))
	env.HasDocument = true
	assert.Equal(t, StepLevel, m.Fire(EventNext, env))

	// No live knowledge base: level leads to processing.
	assert.Equal(t, StepProcessing, m.Fire(EventNext, env))

	// Processing advances unconditionally and never loops.
	env.KnowledgeReady = true
	assert.Equal(t, StepChat, m.Fire(EventNext, env))
}

func TestLevelSkipsProcessingWhenKnowledgeReady(t *testing.T) {
	m := NewAt(StepLevel)
	got := m.Fire(EventNext, Env{HasCredential: true, HasDocument: true, KnowledgeReady: true})
	assert.Equal(t, StepChat, got)
}

func TestChatEntryRequiresKnowledge(t *testing.T) {
	m := NewAt(StepProcessing)
	// Even the unconditional processing advance cannot land in chat when the
	// index is missing; the user is redirected to upload.
	assert.Equal(t, StepUpload, m.Fire(EventNext, Env{HasCredential: true}))
}

func TestBackTransitions(t *testing.T) {
	env := Env{HasCredential: true, HasDocument: true, KnowledgeReady: true}

	m := NewAt(StepChat)
	assert.Equal(t, StepLevel, m.Fire(EventBack, env))
	assert.Equal(t, StepUpload, m.Fire(EventBack, env))
	assert.Equal(t, StepCredential, m.Fire(EventBack, env))
	assert.Equal(t, StepEntry, m.Fire(EventBack, env))
	// Entry has no back.
	assert.Equal(t, StepEntry, m.Fire(EventBack, env))
}

func TestSettingsReturnsToOrigin(t *testing.T) {
	env := Env{HasCredential: true, HasDocument: true, KnowledgeReady: true}

	m := NewAt(StepLevel)
	assert.Equal(t, StepSettings, m.Fire(EventSettings, env))
	assert.Equal(t, StepLevel, m.Fire(EventBack, env))

	m = NewAt(StepChat)
	assert.Equal(t, StepSettings, m.Fire(EventSettings, env))
	assert.Equal(t, StepChat, m.Fire(EventBack, env))
}

func TestOutOfRangeResetsToEntry(t *testing.T) {
	assert.Equal(t, StepEntry, NewAt(Step(42)).Step())
	assert.Equal(t, StepEntry, NewAt(Step(-3)).Step())
}

func TestUnknownEventKeepsStep(t *testing.T) {
	m := NewAt(StepUpload)
	assert.Equal(t, StepUpload, m.Fire(EventSettings, Env{HasCredential: true}))
}
