package dialogue

import (
	"errors"
	"testing"

	"github.com/jwebster45206/npc-dialogue/pkg/inventory"
	"github.com/jwebster45206/npc-dialogue/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNPC string

func (n testNPC) DisplayName() string { return string(n) }

type testPlayer struct {
	messages []string
}

func (p *testPlayer) DisplayName() string    { return "Player" }
func (p *testPlayer) ShowMessage(msg string) { p.messages = append(p.messages, msg) }

// sequenceRNG returns its values in order, wrapping around.
type sequenceRNG struct {
	values []int
	calls  int
}

func (r *sequenceRNG) IntN(n int) int {
	v := r.values[r.calls%len(r.values)] % n
	r.calls++
	return v
}

func newTestSession(t *testing.T, lines []string, opts Options) (*Session, *testPlayer) {
	t.Helper()
	player := &testPlayer{}
	sess, err := NewSession(script.New(lines), testNPC("Nancy"), player, opts)
	require.NoError(t, err)
	return sess, player
}

func typeText(sess *Session, text string) {
	for _, r := range text {
		k, shift, ok := KeyForRune(r)
		if !ok {
			continue
		}
		keys := Press(k)
		if shift {
			keys = keys.WithShift()
		}
		sess.Update(keys)
	}
}

func TestNewSession_RequiresScript(t *testing.T) {
	_, err := NewSession(nil, testNPC("Nancy"), &testPlayer{}, Options{})
	assert.True(t, errors.Is(err, ErrNoScript))
}

func TestSession_PlainScriptVisitsEveryLine(t *testing.T) {
	lines := []string{"Hello", "- Hi", "$ The wind howls.", "", "Bye"}
	sess, _ := newTestSession(t, lines, Options{})
	assert.Equal(t, StateAdvancing, sess.State())

	var states []State
	var contents []string
	for range lines {
		sess.Advance()
		states = append(states, sess.State())
		contents = append(contents, sess.View().Content)
	}

	assert.Equal(t, []State{
		StateAwaitingInput,
		StateAwaitingAdvance,
		StateAwaitingAdvance,
		StateAwaitingInput,
		StateTerminated,
	}, states)
	assert.Equal(t, []string{"Hello", "Hi", "The wind howls.", "Bye", ""}, contents)
}

func TestSession_SpeakerLabels(t *testing.T) {
	sess, _ := newTestSession(t, []string{"Hello", "- Hi", "$ Silence."}, Options{})

	sess.Start()
	v := sess.View()
	assert.Equal(t, "Nancy", v.Speaker)
	assert.Equal(t, InputHelper, v.Helper)
	assert.True(t, v.InputVisible)

	sess.Advance()
	v = sess.View()
	assert.Equal(t, "Player", v.Speaker)
	assert.Equal(t, AdvanceHelper, v.Helper)
	assert.False(t, v.InputVisible)

	sess.Advance()
	v = sess.View()
	assert.Equal(t, "", v.Speaker)
	assert.Equal(t, "Silence.", v.Content)
}

func TestSession_Goto(t *testing.T) {
	// goto 4 stores position 2; the following increment lands on index 3.
	sess, _ := newTestSession(t, []string{"$ a", "!goto 4", "b", "c", "d"}, Options{})
	sess.Start()
	require.Equal(t, 0, sess.Position())

	sess.Next()
	assert.Equal(t, 3, sess.Position())
	assert.Equal(t, "c", sess.View().Content)
	assert.Equal(t, StateAwaitingInput, sess.State())
}

func TestSession_GotoOutOfRangeTerminates(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{name: "past the end", lines: []string{"!goto 10", "a"}},
		{name: "target zero", lines: []string{"!goto 0", "a"}},
		{name: "negative target", lines: []string{"!goto -5", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, _ := newTestSession(t, tt.lines, Options{})
			sess.Start()
			assert.True(t, sess.Terminated())
		})
	}
}

func TestSession_GotoLoopIsBounded(t *testing.T) {
	sess, _ := newTestSession(t, []string{"!goto 1"}, Options{})
	sess.Start()
	assert.True(t, sess.Terminated())
}

func TestSession_RandomWithSequence(t *testing.T) {
	lines := []string{"!random 2 4", "b", "c", "d"}

	sess, _ := newTestSession(t, lines, Options{RNG: &sequenceRNG{values: []int{0}}})
	sess.Start()
	assert.Equal(t, 1, sess.Position())
	assert.Equal(t, "b", sess.View().Content)

	sess, _ = newTestSession(t, lines, Options{RNG: &sequenceRNG{values: []int{1}}})
	sess.Start()
	assert.Equal(t, 3, sess.Position())
	assert.Equal(t, "d", sess.View().Content)
}

func TestSession_RandomCoversAllTargets(t *testing.T) {
	seen := map[int]int{}
	for range 200 {
		sess, _ := newTestSession(t, []string{"!random 2 4", "b", "c", "d"}, Options{})
		sess.Start()
		seen[sess.Position()]++
	}

	assert.Len(t, seen, 2)
	assert.Positive(t, seen[1])
	assert.Positive(t, seen[3])
}

func TestSession_SubmitInsertsPlayerLine(t *testing.T) {
	sess, _ := newTestSession(t, []string{"Hello", "Bye"}, Options{})
	sess.Start()
	require.Equal(t, StateAwaitingInput, sess.State())

	typeText(sess, "Hi Nancy!")
	assert.Equal(t, "Hi Nancy!", sess.View().InputText)

	sess.Update(Press(KeyEnter))

	assert.Equal(t, []string{"Hello", "- Hi Nancy!", "Bye"}, sess.Script())
	assert.Equal(t, 1, sess.Position())
	assert.Equal(t, StateAwaitingAdvance, sess.State())
	assert.Equal(t, "Player", sess.View().Speaker)
	assert.Equal(t, "Hi Nancy!", sess.View().Content)
	assert.Equal(t, 0, sess.Input().Len())

	sess.Update(Press(KeySpace))
	assert.Equal(t, "Bye", sess.View().Content)
}

func TestSession_SubmitOnlyWhileAwaitingInput(t *testing.T) {
	sess, _ := newTestSession(t, []string{"$ Narration", "Hello"}, Options{})
	sess.Start()

	assert.False(t, sess.Submit("hello"))
	assert.Equal(t, 2, len(sess.Script()))

	sess.Update(Press(KeyEnter))
	require.Equal(t, StateAwaitingInput, sess.State())
	assert.False(t, sess.Submit(""), "empty submissions are ignored")
}

func TestSession_EnterWithEmptyBufferDoesNothing(t *testing.T) {
	sess, _ := newTestSession(t, []string{"Hello", "Bye"}, Options{})
	sess.Start()

	sess.Update(Press(KeyEnter))
	assert.Equal(t, StateAwaitingInput, sess.State())
	assert.Equal(t, 0, sess.Position())
	assert.Equal(t, 2, len(sess.Script()))
}

func TestSession_NextOnlyWhileAwaitingAdvance(t *testing.T) {
	sess, _ := newTestSession(t, []string{"Hello", "Bye"}, Options{})
	sess.Start()

	assert.False(t, sess.Next())
	assert.Equal(t, 0, sess.Position())

	// Space while typing is text, not an advance.
	sess.Update(Press(KeySpace))
	assert.Equal(t, 0, sess.Position())
	assert.Equal(t, " ", sess.View().InputText)
}

func TestSession_Give(t *testing.T) {
	items := inventory.NewRegistry(
		inventory.ItemType{Name: "Diamond", MaxStack: 3},
		inventory.ItemType{Name: "Axe", MaxStack: 1},
	)
	diamond, _ := items.Lookup(0)
	axe, _ := items.Lookup(1)

	t.Run("partial grant reports amount added", func(t *testing.T) {
		inv := inventory.New(1)
		sess, player := newTestSession(t, []string{"!give 0 5", "Thanks!"}, Options{Inventory: inv, Items: items})
		sess.Start()

		assert.Equal(t, 3, inv.Count(diamond))
		assert.Equal(t, []string{"Received 3 Diamond"}, player.messages)
		assert.Equal(t, "Received 3 Diamond", sess.View().Notice)
		assert.Equal(t, "Thanks!", sess.View().Content)
	})

	t.Run("full inventory", func(t *testing.T) {
		inv := inventory.New(1)
		inv.Add(axe, 1)
		sess, player := newTestSession(t, []string{"!give 0 5", "Thanks!"}, Options{Inventory: inv, Items: items})
		sess.Start()

		assert.Equal(t, 0, inv.Count(diamond))
		assert.Equal(t, 1, inv.Count(axe))
		assert.Equal(t, []string{InventoryFullNotice}, player.messages)
		assert.Equal(t, "Thanks!", sess.View().Content)
	})

	t.Run("notice clears on next advance", func(t *testing.T) {
		sess, _ := newTestSession(t, []string{"!give 1 1", "$ Here.", "$ Bye."}, Options{Inventory: inventory.New(2), Items: items})
		sess.Start()
		assert.Equal(t, "Received 1 Axe", sess.View().Notice)
		sess.Next()
		assert.Empty(t, sess.View().Notice)
	})
}

func TestSession_CommandErrorsShowFailureLine(t *testing.T) {
	items := inventory.NewRegistry(inventory.ItemType{Name: "Diamond"})

	tests := []struct {
		name  string
		line  string
		opts  Options
		isErr error
	}{
		{name: "give bad index", line: "!give x 1", opts: Options{Inventory: inventory.New(1), Items: items}},
		{name: "give missing amount", line: "!give 0", opts: Options{Inventory: inventory.New(1), Items: items}},
		{name: "give unknown item", line: "!give 7 1", opts: Options{Inventory: inventory.New(1), Items: items}},
		{name: "give without inventory", line: "!give 0 1"},
		{name: "goto not a number", line: "!goto four"},
		{name: "random empty", line: "!random"},
		{name: "random bad target", line: "!random 1 x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, _ := newTestSession(t, []string{tt.line, "$ after"}, tt.opts)
			sess.Start()

			assert.Equal(t, StateAwaitingAdvance, sess.State())
			assert.Equal(t, FailureText, sess.View().Content)
			assert.Equal(t, 0, sess.Position())

			sess.Next()
			assert.Equal(t, "after", sess.View().Content)
		})
	}
}

func TestSession_UnknownVerbStalls(t *testing.T) {
	sess, _ := newTestSession(t, []string{"$ a", "!dance", "b"}, Options{})
	sess.Start()
	require.Equal(t, StateAwaitingAdvance, sess.State())
	before := sess.View()

	assert.True(t, sess.Next())
	assert.Equal(t, 0, sess.Position())
	assert.Equal(t, StateAwaitingAdvance, sess.State())
	assert.Equal(t, before, sess.View())

	// Still stuck on the same command.
	sess.Next()
	assert.Equal(t, 0, sess.Position())
}

func TestSession_UnknownVerbDoesNotReplayGive(t *testing.T) {
	items := inventory.NewRegistry(inventory.ItemType{Name: "Diamond"})
	diamond, _ := items.Lookup(0)
	inv := inventory.New(2)

	sess, player := newTestSession(t, []string{"$ a", "!give 0 1", "!dance", "$ b"}, Options{Inventory: inv, Items: items})
	sess.Start()
	require.Equal(t, "a", sess.View().Content)

	for i := 0; i < 3; i++ {
		assert.True(t, sess.Next())
	}

	assert.Equal(t, 1, inv.Count(diamond))
	assert.Equal(t, []string{"Received 1 Diamond"}, player.messages)
	assert.Equal(t, 1, sess.Position())
	assert.Equal(t, StateAwaitingAdvance, sess.State())
	assert.Equal(t, "a", sess.View().Content)
	assert.Equal(t, "Received 1 Diamond", sess.View().Notice)
}

func TestSession_End(t *testing.T) {
	ended := 0
	sess, _ := newTestSession(t, []string{"$ a", "!end", "never"}, Options{
		Hooks: Hooks{OnEnd: func(*Session) { ended++ }},
	})
	sess.Start()
	sess.Next()

	assert.True(t, sess.Terminated())
	assert.Equal(t, View{}, sess.View())
	assert.Equal(t, 1, ended)
}

func TestSession_TerminatedIsIdempotent(t *testing.T) {
	ended := 0
	sess, _ := newTestSession(t, []string{"$ only"}, Options{
		Hooks: Hooks{OnEnd: func(*Session) { ended++ }},
	})
	sess.Start()
	sess.Advance()
	require.True(t, sess.Terminated())
	pos := sess.Position()

	sess.Advance()
	sess.Exit()
	sess.Update(Press(KeyEnter))
	assert.False(t, sess.Next())

	assert.True(t, sess.Terminated())
	assert.Equal(t, pos, sess.Position())
	assert.Equal(t, 1, ended)
}

func TestSession_EscapeExits(t *testing.T) {
	for _, lines := range [][]string{{"Hello"}, {"$ Hello"}} {
		sess, _ := newTestSession(t, lines, Options{})
		sess.Start()
		sess.Update(Press(KeyEscape))
		assert.True(t, sess.Terminated())
		assert.True(t, sess.Exited())
	}
}

func TestSession_RunningOutIsNotAnExit(t *testing.T) {
	sess, _ := newTestSession(t, []string{"$ Hello"}, Options{})
	sess.Start()
	sess.Next()
	assert.True(t, sess.Terminated())
	assert.False(t, sess.Exited())
}

func TestSession_EmptyScriptEndsOnStart(t *testing.T) {
	started := false
	sess, _ := newTestSession(t, []string{"", "  "}, Options{
		Hooks: Hooks{OnStart: func(*Session) { started = true }},
	})
	sess.Start()
	assert.True(t, started)
	assert.True(t, sess.Terminated())
}

func TestSession_CustomVerb(t *testing.T) {
	exec := NewExecutor(nil, nil, nil)
	var got []string
	exec.Register("emote", func(args []string) (Result, error) {
		got = args
		return Result{Effect: EffectContinue}, nil
	})

	sess, _ := newTestSession(t, []string{"!emote smile", "$ done"}, Options{Executor: exec})
	sess.Start()
	assert.Equal(t, []string{"smile"}, got)
	assert.Equal(t, "done", sess.View().Content)
}

func TestExecutor_ErrorKinds(t *testing.T) {
	items := inventory.NewRegistry(inventory.ItemType{Name: "Diamond"})
	exec := NewExecutor(inventory.New(1), items, nil)

	_, err := exec.Execute(script.Command{Verb: "give", Args: []string{"a", "1"}})
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "give", cmdErr.Verb)
	assert.True(t, errors.Is(err, ErrParse))

	_, err = exec.Execute(script.Command{Verb: "give", Args: []string{"3", "1"}})
	assert.True(t, errors.Is(err, ErrLookup))
	assert.True(t, errors.Is(err, inventory.ErrUnknownItem))

	_, err = exec.Execute(script.Command{Verb: "random"})
	assert.True(t, errors.Is(err, ErrParse))

	res, err := exec.Execute(script.Command{Verb: "whistle"})
	require.NoError(t, err)
	assert.Equal(t, EffectStall, res.Effect)
}
