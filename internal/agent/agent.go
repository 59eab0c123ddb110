package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jwebster45206/npc-dialogue/internal/logger"
	"github.com/jwebster45206/npc-dialogue/internal/services"
	"github.com/jwebster45206/npc-dialogue/internal/storage"
	"github.com/jwebster45206/npc-dialogue/pkg/chat"
	"github.com/jwebster45206/npc-dialogue/pkg/script"
	"github.com/jwebster45206/npc-dialogue/pkg/textfilter"
)

const (
	DefaultMaxTries        = 3
	DefaultInitialInterval = time.Second
	DefaultHistoryWindow   = 20
)

// FallbackLines is what a dynamic NPC says when the agent cannot answer.
var FallbackLines = []string{"Hi, how can I help you?"}

// ErrUnknownCharacter is returned for a character missing from the roster.
var ErrUnknownCharacter = errors.New("unknown character")

// Agent turns a player query into dialogue lines for a character, keeping
// the conversation history in a HistoryStore.
type Agent struct {
	llm    services.LLMService
	store  storage.HistoryStore
	roster *Roster
	filter *textfilter.Filter
	logger *slog.Logger

	maxTries        uint
	initialInterval time.Duration
	historyWindow   int
}

type Option func(*Agent)

// WithRetry overrides the retry policy.
func WithRetry(maxTries uint, initial time.Duration) Option {
	return func(a *Agent) {
		a.maxTries = maxTries
		a.initialInterval = initial
	}
}

// WithHistoryWindow caps how many past messages are sent to the model.
func WithHistoryWindow(n int) Option {
	return func(a *Agent) { a.historyWindow = n }
}

func New(llm services.LLMService, store storage.HistoryStore, roster *Roster, filter *textfilter.Filter, logger *slog.Logger, opts ...Option) *Agent {
	a := &Agent{
		llm:             llm,
		store:           store,
		roster:          roster,
		filter:          filter,
		logger:          logger,
		maxTries:        DefaultMaxTries,
		initialInterval: DefaultInitialInterval,
		historyWindow:   DefaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Lines asks the character for dialogue and returns script lines. It
// always returns something playable: on any failure it returns
// FallbackLines together with the error.
func (a *Agent) Lines(ctx context.Context, character, query string) ([]string, error) {
	c, ok := a.roster.Get(character)
	if !ok {
		return fallback(), fmt.Errorf("%w: %s", ErrUnknownCharacter, character)
	}
	log := a.logger.With("character", c.Key)

	reply, err := a.Ask(ctx, c, query)
	if err != nil {
		logger.WithError(log, err).Error("Agent failed, using fallback lines")
		return fallback(), err
	}

	lines := a.filter.Lines(reply.Response)
	if len(lines) == 0 {
		log.Warn("Agent reply was empty after filtering")
		return fallback(), fmt.Errorf("%w: no usable lines", ErrInvalidReply)
	}
	if reply.IsSell && c.Sells != nil {
		lines = append(lines, fmt.Sprintf("%c%s %d %d", script.SigilCommand, script.VerbGive, c.Sells.Item, c.Sells.Amount))
		log.Info("Sale made", "item", c.Sells.Item, "amount", c.Sells.Amount)
	}
	return lines, nil
}

// Ask sends system prompt, recent history and query to the model, retrying
// transport failures and malformed replies with exponential backoff. The
// exchange is appended to the character's history on success.
func (a *Agent) Ask(ctx context.Context, c *Character, query string) (*Reply, error) {
	if a.llm == nil {
		return nil, fmt.Errorf("no LLM provider configured")
	}
	log := a.logger.With("character", c.Key)

	history, err := a.store.LoadHistory(ctx, c.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	messages := a.buildMessages(c, history, query)

	attempt := 0
	op := func() (*Reply, error) {
		attempt++
		resp, err := a.llm.Chat(ctx, messages)
		if err != nil {
			logger.WithError(log, err).Warn("LLM request failed", "attempt", attempt)
			return nil, err
		}
		reply, err := ParseReply(resp.Message)
		if err != nil {
			logger.WithError(log, err).Warn("LLM reply rejected", "attempt", attempt)
			return nil, err
		}
		return reply, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = a.initialInterval
	expo.Multiplier = 2
	expo.RandomizationFactor = 0

	reply, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(a.maxTries),
	)
	if err != nil {
		return nil, fmt.Errorf("agent gave no answer after %d attempts: %w", attempt, err)
	}

	history.AddUser(query)
	history.AddAgent(strings.Join(reply.Response, "\n"))
	if err := a.store.SaveHistory(ctx, history); err != nil {
		logger.WithError(log, err).Error("Failed to save chat history")
	}
	return reply, nil
}

func (a *Agent) buildMessages(c *Character, history *chat.History, query string) []chat.ChatMessage {
	var system strings.Builder
	system.WriteString(strings.TrimSpace(c.Prompt))
	if neighbors := a.roster.Neighbors(c.Key); neighbors != "" {
		system.WriteString("\n\nOther people around:\n")
		system.WriteString(neighbors)
	}
	system.WriteString("\n\n")
	system.WriteString(formatInstructions)

	messages := make([]chat.ChatMessage, 0, len(history.Messages)+2)
	messages = append(messages, chat.ChatMessage{Role: chat.ChatRoleSystem, Content: system.String()})
	messages = append(messages, history.Tail(a.historyWindow)...)
	messages = append(messages, chat.ChatMessage{Role: chat.ChatRoleUser, Content: query})
	return messages
}

// FollowUp returns the player's reply when it is the last line of a
// finished dynamic conversation, which is the next query for the agent.
func FollowUp(lines []string) (string, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		line := script.Classify(lines[i])
		switch line.Kind {
		case script.KindEmpty:
			continue
		case script.KindPlayerSpeak:
			return line.Text, line.Text != ""
		default:
			return "", false
		}
	}
	return "", false
}

func fallback() []string {
	return append([]string(nil), FallbackLines...)
}
