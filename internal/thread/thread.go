package thread

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"classmate/internal/domain"
)

// DefaultTitle is the sentinel title of a thread before its first message.
const DefaultTitle = "Untitled Chat"

// ellipsis marks a truncated thread title.
const ellipsis = "…"

// Message is one chat message. Messages are append-only within a thread and
// never mutated after creation.
type Message struct {
	Role    domain.Role `json:"role"`
	Content string      `json:"content"`
}

// Thread is one independent conversation with its own title and timestamp.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

func (t *Thread) clone() Thread {
	c := *t
	c.Messages = append([]Message(nil), t.Messages...)
	return c
}

// State is the serializable form of a Store, embedded in session snapshots.
type State struct {
	Threads  []Thread `json:"threads"`
	ActiveID string   `json:"active_id"`
}

// Store holds conversation threads, most-recent-first, bounded to the limit
// most recently created. All returned threads are copies; mutation goes
// through Store methods only.
type Store struct {
	mu         sync.Mutex
	threads    []*Thread
	activeID   string
	limit      int
	titleLimit int
	now        func() time.Time
}

func NewStore(limit, titleLimit int) *Store {
	if limit <= 0 {
		limit = 10
	}
	if titleLimit <= 0 {
		titleLimit = 40
	}
	return &Store{limit: limit, titleLimit: titleLimit, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a fresh thread at the front, enforces the bound by dropping
// the oldest entries, and makes the new thread active.
func (s *Store) Create() Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked()
}

func (s *Store) createLocked() Thread {
	now := s.now()
	t := &Thread{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.threads = append([]*Thread{t}, s.threads...)
	if len(s.threads) > s.limit {
		s.threads = s.threads[:s.limit]
	}
	s.activeID = t.ID
	return t.clone()
}

// Active returns the active thread. If the active id is unset or stale it
// transparently creates a new thread; this operation never fails.
func (s *Store) Active() Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.findLocked(s.activeID); t != nil {
		return t.clone()
	}
	return s.createLocked()
}

// ActiveID returns the current active thread id, which may be empty.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Switch makes the thread with the given id active. Switching to an unknown
// id is a caller error.
func (s *Store) Switch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(id) == nil {
		return fmt.Errorf("%w: %s", domain.ErrUnknownThread, id)
	}
	s.activeID = id
	return nil
}

// Delete removes the thread with the given id. Deleting an unknown id is a
// no-op. If the active thread is deleted, the front-of-list thread is
// promoted, or a fresh thread is created when the store is empty, so the
// store is never left with a dangling active reference.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, t := range s.threads {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.threads = append(s.threads[:idx], s.threads[idx+1:]...)
	if s.activeID != id {
		return
	}
	if len(s.threads) > 0 {
		s.activeID = s.threads[0].ID
		return
	}
	s.createLocked()
}

// Append adds a message to the named thread. The first message ever appended
// renames the thread from its sentinel title, exactly once; every append
// updates the thread's timestamp.
func (s *Store) Append(id string, role domain.Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.findLocked(id)
	if t == nil {
		return fmt.Errorf("%w: %s", domain.ErrUnknownThread, id)
	}
	if len(t.Messages) == 0 {
		t.Title = truncateTitle(content, s.titleLimit)
	}
	t.Messages = append(t.Messages, Message{Role: role, Content: content})
	t.UpdatedAt = s.now()
	return nil
}

// Threads returns copies of all threads, most-recent-first.
func (s *Store) Threads() []Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Thread, len(s.threads))
	for i, t := range s.threads {
		out[i] = t.clone()
	}
	return out
}

// Len reports the number of threads in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// Export captures the store's state for session persistence.
func (s *Store) Export() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{ActiveID: s.activeID, Threads: make([]Thread, len(s.threads))}
	for i, t := range s.threads {
		st.Threads[i] = t.clone()
	}
	return st
}

// Restore replaces the store's contents with a previously exported state,
// re-applying the bound in case the limit shrank between runs.
func (s *Store) Restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = s.threads[:0]
	for i := range st.Threads {
		if i == s.limit {
			break
		}
		t := st.Threads[i].clone()
		s.threads = append(s.threads, &t)
	}
	s.activeID = st.ActiveID
}

func (s *Store) findLocked(id string) *Thread {
	if id == "" {
		return nil
	}
	for _, t := range s.threads {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func truncateTitle(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + ellipsis
}
