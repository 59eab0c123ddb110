package dialogue

import (
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/npc-dialogue/pkg/script"
)

const (
	// MaxChainedDispatch bounds how many lines one advance may dispatch
	// without yielding. Scripts like "!goto 1" on line 1 hit it.
	MaxChainedDispatch = 1000

	// FailureText is shown in place of a command that failed.
	FailureText = "..."

	AdvanceHelper = "[Press Enter or Space]"
	InputHelper   = "[Type a reply and press Enter]"
)

// State is the session's position in its state machine.
type State int

const (
	StateAdvancing State = iota
	StateAwaitingAdvance
	StateAwaitingInput
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAdvancing:
		return "advancing"
	case StateAwaitingAdvance:
		return "awaiting_advance"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Speaker is a conversation participant with a name to show.
type Speaker interface {
	DisplayName() string
}

// Player is the human participant. ShowMessage surfaces short notices
// outside the dialogue box.
type Player interface {
	Speaker
	ShowMessage(msg string)
}

// Hooks let the owner of a session track its lifetime. Both run at most
// once per session.
type Hooks struct {
	OnStart func(*Session)
	OnEnd   func(*Session)
}

// Options carries the collaborators of a session. All fields are optional.
type Options struct {
	Inventory Inventory
	Items     ItemRegistry
	RNG       RNG
	Logger    *slog.Logger
	Hooks     Hooks
	// Executor overrides the executor built from Inventory, Items and RNG.
	Executor *Executor
}

// View is what the rendering layer draws for the current frame.
type View struct {
	Speaker      string
	Content      string
	Helper       string
	Notice       string
	InputVisible bool
	InputText    string
}

// Session plays one script between an NPC and the player. It is driven by
// a single goroutine through Update; none of its methods block.
type Session struct {
	id       uuid.UUID
	script   *script.Script
	npc      Speaker
	player   Player
	executor *Executor
	logger   *slog.Logger
	hooks    Hooks

	position int
	state    State
	input    InputCapture
	started  bool
	exited   bool

	speaker string
	content string
	notice  string
}

// NewSession creates a session positioned before the first line. Call
// Start to dispatch it.
func NewSession(s *script.Script, npc Speaker, player Player, opts Options) (*Session, error) {
	if s == nil {
		return nil, ErrNoScript
	}
	if npc == nil || player == nil {
		return nil, errors.New("dialogue session requires an npc and a player")
	}

	id := uuid.New()
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	exec := opts.Executor
	if exec == nil {
		exec = NewExecutor(opts.Inventory, opts.Items, opts.RNG)
	}

	return &Session{
		id:       id,
		script:   s,
		npc:      npc,
		player:   player,
		executor: exec,
		logger:   logger.With("session_id", id.String(), "npc", npc.DisplayName()),
		hooks:    opts.Hooks,
		position: -1,
		state:    StateAdvancing,
	}, nil
}

func (s *Session) ID() uuid.UUID        { return s.id }
func (s *Session) State() State         { return s.state }
func (s *Session) Position() int        { return s.position }
func (s *Session) Script() []string     { return s.script.Lines() }
func (s *Session) NPC() Speaker         { return s.npc }
func (s *Session) Input() *InputCapture { return &s.input }

// Terminated reports whether the session has ended.
func (s *Session) Terminated() bool {
	return s.state == StateTerminated
}

// Exited reports whether the player closed the session before the script
// finished.
func (s *Session) Exited() bool {
	return s.exited
}

// Start runs the OnStart hook and dispatches the first line. Calling it
// again has no effect.
func (s *Session) Start() {
	if s.started {
		return
	}
	s.started = true
	s.logger.Info("Dialogue started", "lines", s.script.Len())
	if s.hooks.OnStart != nil {
		s.hooks.OnStart(s)
	}
	s.Advance()
}

// Update consumes one frame of input.
func (s *Session) Update(kb Keyboard) {
	if s.state == StateTerminated {
		return
	}
	if kb.JustPressed(KeyEscape) {
		s.Exit()
		return
	}

	switch s.state {
	case StateAwaitingAdvance:
		if kb.JustPressed(KeyEnter) || kb.JustPressed(KeySpace) {
			s.Next()
		}
	case StateAwaitingInput:
		if text, ok := s.input.Poll(kb); ok {
			s.Submit(text)
		}
	}
}

// Next is the manual advance trigger. It only acts while awaiting advance.
func (s *Session) Next() bool {
	if s.state != StateAwaitingAdvance {
		return false
	}
	s.Advance()
	return true
}

// Submit inserts the player's reply after the current line and advances
// onto it. It only acts while awaiting input.
func (s *Session) Submit(text string) bool {
	if s.state != StateAwaitingInput || text == "" {
		return false
	}
	s.script.InsertAfter(s.position, script.PlayerPrefix+text)
	s.input.Reset()
	s.logger.Debug("Player reply inserted", "position", s.position+1)
	s.Advance()
	return true
}

// Exit ends the session from any non-terminal state.
func (s *Session) Exit() {
	if s.state == StateTerminated {
		return
	}
	s.logger.Info("Dialogue exited by player", "position", s.position)
	s.exited = true
	s.terminate()
}

// Advance moves to the next displayable line, running commands and
// skipping blank lines on the way. On a terminated session it does nothing.
func (s *Session) Advance() {
	if s.state == StateTerminated {
		return
	}

	startState, startNotice := s.state, s.notice
	s.notice = ""
	s.state = StateAdvancing

	for steps := 0; ; steps++ {
		if steps >= MaxChainedDispatch {
			s.logger.Error("Dialogue dispatched too many lines without a pause", "limit", MaxChainedDispatch, "position", s.position)
			s.terminate()
			return
		}

		s.position++
		raw, ok := s.script.At(s.position)
		if !ok {
			s.terminate()
			return
		}

		line := script.Classify(raw)
		switch line.Kind {
		case script.KindEmpty:
			continue

		case script.KindNarration:
			s.display("", line.Text, StateAwaitingAdvance)
			return

		case script.KindPlayerSpeak:
			s.display(s.player.DisplayName(), line.Text, StateAwaitingAdvance)
			return

		case script.KindNpcSpeak:
			s.input.Reset()
			s.display(s.npc.DisplayName(), line.Text, StateAwaitingInput)
			return

		case script.KindCommand:
			s.logger.Debug("Dispatching command", "position", s.position, "command", line.Command.String())
			res, err := s.executor.Execute(line.Command)
			if err != nil {
				s.logger.Warn("Command failed", "position", s.position, "error", err)
				s.display(s.npc.DisplayName(), FailureText, StateAwaitingAdvance)
				return
			}

			if res.Notice != "" {
				s.notice = res.Notice
				s.player.ShowMessage(res.Notice)
			}

			switch res.Effect {
			case EffectContinue:
				continue
			case EffectJump:
				s.position = res.Position
				continue
			case EffectEnd:
				s.terminate()
				return
			case EffectStall:
				s.logger.Warn("Unrecognized command, dialogue stalled", "position", s.position, "verb", line.Command.Verb)
				// Park on the line before the unknown command so commands
				// already run in this advance are not replayed.
				s.position--
				s.state = startState
				if s.notice == "" {
					s.notice = startNotice
				}
				return
			}
		}
	}
}

// View returns what should be drawn this frame. A terminated session
// draws nothing.
func (s *Session) View() View {
	v := View{
		Speaker: s.speaker,
		Content: s.content,
		Notice:  s.notice,
	}
	switch s.state {
	case StateAwaitingAdvance:
		v.Helper = AdvanceHelper
	case StateAwaitingInput:
		v.Helper = InputHelper
		v.InputVisible = true
		v.InputText = s.input.Text()
	}
	return v
}

func (s *Session) display(speaker, content string, next State) {
	s.speaker = speaker
	s.content = content
	s.state = next
}

func (s *Session) terminate() {
	if s.state == StateTerminated {
		return
	}
	s.state = StateTerminated
	s.speaker, s.content, s.notice = "", "", ""
	s.input.Reset()
	s.logger.Info("Dialogue ended", "position", s.position)
	if s.hooks.OnEnd != nil {
		s.hooks.OnEnd(s)
	}
}
