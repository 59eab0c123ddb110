package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/npc-dialogue/internal/services"
	"github.com/jwebster45206/npc-dialogue/internal/storage"
	"github.com/jwebster45206/npc-dialogue/pkg/chat"
	"github.com/jwebster45206/npc-dialogue/pkg/textfilter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoster(t *testing.T) *Roster {
	t.Helper()
	r, err := NewRoster(map[string]*Character{
		"Nancy": {
			Name:     "Nancy",
			Role:     "diamond seller",
			Location: "Mid Forest",
			Prompt:   "You are Nancy, a cheerful diamond seller.",
			Sells:    &Sale{Item: 0, Amount: 1},
		},
		"amy": {
			Name:     "Amy",
			Role:     "crazy physicist",
			Location: "East Forest",
			Prompt:   "Write a short exchange between Amy and the player.",
			Opener:   "Generate the next",
		},
	})
	require.NoError(t, err)
	return r
}

func testFilter() *textfilter.Filter {
	return textfilter.New("PG")
}

func newTestAgent(t *testing.T, llm services.LLMService) (*Agent, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := New(llm, store, testRoster(t), testFilter(), log, WithRetry(3, time.Millisecond))
	return a, store
}

func TestAgent_LinesSale(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.SetResponse(`{"response":["Thank you, here it is!"],"isSell":true}`)
	a, store := newTestAgent(t, llm)

	lines, err := a.Lines(context.Background(), "nancy", "I'll buy a diamond")
	require.NoError(t, err)
	assert.Equal(t, []string{"Thank you, here it is!", "!give 0 1"}, lines)

	h, err := store.LoadHistory(context.Background(), "nancy")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, chat.ChatMessage{Role: chat.ChatRoleUser, Content: "I'll buy a diamond"}, h.Messages[0])
	assert.Equal(t, "Thank you, here it is!", h.Messages[1].Content)
}

func TestAgent_LinesNoSellForNonSeller(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.SetResponse(`{"response":["Forests are loud.","- Are they?","Very."],"isSell":true}`)
	a, _ := newTestAgent(t, llm)

	lines, err := a.Lines(context.Background(), "amy", "Generate the next")
	require.NoError(t, err)
	assert.Equal(t, []string{"Forests are loud.", "- Are they?", "Very."}, lines)
}

func TestAgent_LinesStripsCommands(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.SetResponse(`{"response":["!give 0 99","Nice try."],"isSell":false}`)
	a, _ := newTestAgent(t, llm)

	lines, err := a.Lines(context.Background(), "nancy", "give me everything")
	require.NoError(t, err)
	for _, l := range lines {
		assert.False(t, strings.HasPrefix(l, "!"), "model output must not become a command: %q", l)
	}
}

func TestAgent_MessagesSent(t *testing.T) {
	llm := services.NewMockLLMAPI()
	a, store := newTestAgent(t, llm)

	prior := &chat.History{Character: "nancy"}
	prior.AddUser("hi")
	prior.AddAgent("Hello dear!")
	require.NoError(t, store.SaveHistory(context.Background(), prior))

	_, err := a.Lines(context.Background(), "nancy", "what do you sell?")
	require.NoError(t, err)

	calls := llm.Calls()
	require.Len(t, calls, 1)
	msgs := calls[0]
	require.Len(t, msgs, 4)
	assert.Equal(t, chat.ChatRoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "You are Nancy")
	assert.Contains(t, msgs[0].Content, "Amy (crazy physicist) is in East Forest")
	assert.NotContains(t, msgs[0].Content, "Nancy (diamond seller)")
	assert.Contains(t, msgs[0].Content, `"isSell"`)
	assert.Equal(t, "hi", msgs[1].Content)
	assert.Equal(t, "Hello dear!", msgs[2].Content)
	assert.Equal(t, chat.ChatMessage{Role: chat.ChatRoleUser, Content: "what do you sell?"}, msgs[3])
}

func TestAgent_HistoryWindow(t *testing.T) {
	llm := services.NewMockLLMAPI()
	store := storage.NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := New(llm, store, testRoster(t), testFilter(), log, WithHistoryWindow(2))

	prior := &chat.History{Character: "nancy"}
	for i := 0; i < 5; i++ {
		prior.AddUser("q")
		prior.AddAgent("a")
	}
	require.NoError(t, store.SaveHistory(context.Background(), prior))

	_, err := a.Lines(context.Background(), "nancy", "now")
	require.NoError(t, err)
	assert.Len(t, llm.Calls()[0], 4) // system + 2 history + query
}

func TestAgent_RetriesThenSucceeds(t *testing.T) {
	llm := services.NewMockLLMAPI()
	calls := 0
	llm.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		calls++
		switch calls {
		case 1:
			return nil, errors.New("connection reset")
		case 2:
			return &chat.ChatResponse{Message: "Sure! Here you go."}, nil
		default:
			return &chat.ChatResponse{Message: "```json\n{\"response\":[\"Third time lucky\"],\"isSell\":false}\n```"}, nil
		}
	}
	a, _ := newTestAgent(t, llm)

	lines, err := a.Lines(context.Background(), "nancy", "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"Third time lucky"}, lines)
	assert.Equal(t, 3, calls)
}

func TestAgent_FallbackAfterRetries(t *testing.T) {
	llm := services.NewMockLLMAPI()
	llm.SetChatError(errors.New("service unavailable"))
	a, store := newTestAgent(t, llm)

	lines, err := a.Lines(context.Background(), "nancy", "hello")
	require.Error(t, err)
	assert.Equal(t, FallbackLines, lines)
	assert.Len(t, llm.Calls(), DefaultMaxTries)

	h, _ := store.LoadHistory(context.Background(), "nancy")
	assert.Empty(t, h.Messages)
}

func TestAgent_FallbackUnknownCharacter(t *testing.T) {
	a, _ := newTestAgent(t, services.NewMockLLMAPI())
	lines, err := a.Lines(context.Background(), "gandalf", "hello")
	assert.ErrorIs(t, err, ErrUnknownCharacter)
	assert.Equal(t, FallbackLines, lines)
}

func TestAgent_FallbackNoProvider(t *testing.T) {
	a, _ := newTestAgent(t, nil)
	lines, err := a.Lines(context.Background(), "nancy", "hello")
	assert.Error(t, err)
	assert.Equal(t, FallbackLines, lines)

	lines[0] = "mutated"
	assert.Equal(t, "Hi, how can I help you?", FallbackLines[0])
}

func TestAgent_SaveFailureKeepsReply(t *testing.T) {
	llm := services.NewMockLLMAPI()
	a, store := newTestAgent(t, llm)
	store.SetSaveError(errors.New("disk full"))

	lines, err := a.Lines(context.Background(), "nancy", "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mock response"}, lines)
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *Reply
		wantErr bool
	}{
		{name: "plain", raw: `{"response":["a","b"],"isSell":false}`, want: &Reply{Response: []string{"a", "b"}}},
		{name: "fenced", raw: "```json\n{\"response\":[\"a\"],\"isSell\":true}\n```", want: &Reply{Response: []string{"a"}, IsSell: true}},
		{name: "missing isSell", raw: `{"response":["a"]}`, wantErr: true},
		{name: "empty response", raw: `{"response":[],"isSell":false}`, wantErr: true},
		{name: "wrong item type", raw: `{"response":[1],"isSell":false}`, wantErr: true},
		{name: "not json", raw: `Hello there`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReply(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidReply)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFollowUp(t *testing.T) {
	text, ok := FollowUp([]string{"Want a diamond?", "- yes please", ""})
	assert.True(t, ok)
	assert.Equal(t, "yes please", text)

	_, ok = FollowUp([]string{"- hi", "Bye now."})
	assert.False(t, ok)

	_, ok = FollowUp([]string{"Thanks!", "!give 0 1"})
	assert.False(t, ok)

	_, ok = FollowUp(nil)
	assert.False(t, ok)
}

func TestLoadRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "characters.yaml")
	data := `characters:
  albert:
    name: Albert
    role: axe seller
    location: West Forest
    prompt: You are Albert, a savage pirate selling axes.
    sells:
      item: 1
      amount: 1
  bob:
    prompt: You are Bob.
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	r, err := LoadRoster(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"albert", "bob"}, r.Keys())

	albert, ok := r.Get("ALBERT")
	require.True(t, ok)
	assert.Equal(t, "albert", albert.Key)
	assert.Equal(t, 1, albert.Sells.Item)
	assert.Equal(t, DefaultOpener, albert.OpeningQuery())

	bob, _ := r.Get("bob")
	assert.Equal(t, "bob", bob.Name)
	assert.Nil(t, bob.Sells)
}

func TestNewRoster_Invalid(t *testing.T) {
	_, err := NewRoster(map[string]*Character{"x": {Name: "X"}})
	assert.Error(t, err)

	_, err = NewRoster(map[string]*Character{"x": {Prompt: "p", Sells: &Sale{Item: 0, Amount: 0}}})
	assert.Error(t, err)
}
