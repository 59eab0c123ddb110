package dialogue

import (
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/jwebster45206/npc-dialogue/pkg/script"
)

// Manager owns the active sessions of a game loop. Sessions register
// themselves through their OnStart hook and leave through OnEnd, so the
// list never holds a finished conversation. Like Session, it is meant to
// be used from the game loop's goroutine only.
type Manager struct {
	logger *slog.Logger
	active []*Session
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{logger: logger}
}

// Open creates and starts a session. Hooks already set in opts run before
// the manager's own bookkeeping on start and after it on end.
func (m *Manager) Open(s *script.Script, npc Speaker, player Player, opts Options) (*Session, error) {
	user := opts.Hooks
	opts.Hooks = Hooks{
		OnStart: func(sess *Session) {
			if user.OnStart != nil {
				user.OnStart(sess)
			}
			m.register(sess)
		},
		OnEnd: func(sess *Session) {
			m.deregister(sess)
			if user.OnEnd != nil {
				user.OnEnd(sess)
			}
		},
	}
	if opts.Logger == nil {
		opts.Logger = m.logger
	}

	sess, err := NewSession(s, npc, player, opts)
	if err != nil {
		return nil, err
	}
	sess.Start()
	return sess, nil
}

// Update ticks every active session with the same frame of input.
func (m *Manager) Update(kb Keyboard) {
	for _, sess := range slices.Clone(m.active) {
		sess.Update(kb)
	}
}

// Active returns the sessions still running.
func (m *Manager) Active() []*Session {
	return slices.Clone(m.active)
}

// Get finds an active session by id.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	for _, sess := range m.active {
		if sess.ID() == id {
			return sess, true
		}
	}
	return nil, false
}

// Len returns the number of active sessions.
func (m *Manager) Len() int {
	return len(m.active)
}

// CloseAll exits every active session.
func (m *Manager) CloseAll() {
	for _, sess := range slices.Clone(m.active) {
		sess.Exit()
	}
}

func (m *Manager) register(sess *Session) {
	m.active = append(m.active, sess)
	m.logger.Debug("Session registered", "session_id", sess.ID().String(), "active", len(m.active))
}

func (m *Manager) deregister(sess *Session) {
	m.active = slices.DeleteFunc(m.active, func(s *Session) bool { return s == sess })
	m.logger.Debug("Session deregistered", "session_id", sess.ID().String(), "active", len(m.active))
}
