// Package session holds per-chat conversation state: the current step of a
// guided flow, the scratch bag for in-progress input and the bounded history
// of emitted message ids.
package session

import "sync"

// State names the current step of a multi-message flow for one chat.
type State string

const (
	StateIdle                   State = "idle"
	StateEnteringClientPhone    State = "entering_client_phone"
	StateEnteringNewClientName  State = "entering_new_client_name"
	StateEnteringNewClientCity  State = "entering_new_client_city"
	StateEnteringNewClientNeeds State = "entering_new_client_demand"
	StateSelectingDeal          State = "selecting_deal"
	StateAwaitingPDF            State = "awaiting_pdf"
	StateChoosingInteraction    State = "choosing_interaction"
	StateEnteringReminderTime   State = "entering_reminder_time"
	StateSettingsAuth           State = "settings_auth"
	StateSettingsMenu           State = "settings_menu"
)

// Scratch keys used by the multi-step flows.
const (
	KeyNewClientPhone  = "new_client_phone"
	KeyNewClientName   = "new_client_name"
	KeyNewClientCity   = "new_client_city"
	KeyInteractionType = "interaction_type"
	KeyAuthContext     = "auth_context"
	KeySettingsAction  = "settings_action"
)

// HistoryLimit caps the number of remembered outgoing message ids.
const HistoryLimit = 20

// Session is the conversation state for a single chat. Callers must hold
// Lock for the duration of one inbound message so updates for the same chat
// are processed sequentially.
type Session struct {
	mu sync.Mutex

	ChatID       int64
	State        State
	ActiveDealID uint
	Scratch      map[string]string

	history []int
}

func newSession(chatID int64) *Session {
	return &Session{
		ChatID:  chatID,
		State:   StateIdle,
		Scratch: make(map[string]string),
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Remember appends an outgoing message id, evicting the oldest entries
// beyond HistoryLimit. Eviction is silent.
func (s *Session) Remember(messageID int) {
	s.history = append(s.history, messageID)
	if len(s.history) > HistoryLimit {
		s.history = s.history[len(s.history)-HistoryLimit:]
	}
}

// History returns a copy of the remembered message ids, oldest first.
func (s *Session) History() []int {
	out := make([]int, len(s.history))
	copy(out, s.history)
	return out
}

// DrainHistory clears the buffer and returns what it held. The buffer is
// empty afterwards regardless of what the caller does with the ids.
func (s *Session) DrainHistory() []int {
	out := s.history
	s.history = nil
	return out
}

// ClearScratch drops all staged multi-step input.
func (s *Session) ClearScratch() {
	s.Scratch = make(map[string]string)
}

// Reset returns the session to the initial idle state with cleared scratch,
// history and active deal.
func (s *Session) Reset() {
	s.State = StateIdle
	s.ActiveDealID = 0
	s.history = nil
	s.ClearScratch()
}

// Store keeps sessions keyed by chat id. Sessions are created implicitly on
// first access and live for the life of the process.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the session for the chat, creating it when absent. The second
// return value reports whether the session was just created.
func (st *Store) Get(chatID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[chatID]; ok {
		return s, false
	}
	s := newSession(chatID)
	st.sessions[chatID] = s
	return s, true
}
