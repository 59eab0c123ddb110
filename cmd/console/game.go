package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/npc-dialogue/internal/agent"
	"github.com/jwebster45206/npc-dialogue/internal/logger"
	"github.com/jwebster45206/npc-dialogue/pkg/actor"
	"github.com/jwebster45206/npc-dialogue/pkg/dialogue"
	"github.com/jwebster45206/npc-dialogue/pkg/inventory"
	"github.com/jwebster45206/npc-dialogue/pkg/script"
)

const (
	TooFarMessage = "I need to get closer"
	StepSize      = 25.0
	AgentTimeout  = 60 * time.Second
)

// Entry is one line of the conversation transcript.
type Entry struct {
	Speaker string
	Content string
	Notice  bool
}

// followUp is a query waiting to be sent to the agent once the session
// that produced it has ended.
type followUp struct {
	npc   *actor.NPC
	query string
}

// Game wires the world, the scripts and the agent to a dialogue manager.
// Everything here runs on the UI goroutine except DynamicLines.
type Game struct {
	world   *actor.World
	player  *actor.Player
	items   *inventory.Registry
	library *script.Library
	agent   *agent.Agent
	roster  *agent.Roster
	manager *dialogue.Manager
	logger  *slog.Logger

	current    *dialogue.Session
	currentNPC *actor.NPC
	transcript []Entry
	lastView   dialogue.View
	pending    *followUp
}

func NewGame(world *actor.World, player *actor.Player, items *inventory.Registry, library *script.Library, ag *agent.Agent, roster *agent.Roster, logger *slog.Logger) *Game {
	return &Game{
		world:   world,
		player:  player,
		items:   items,
		library: library,
		agent:   ag,
		roster:  roster,
		manager: dialogue.NewManager(logger),
		logger:  logger,
	}
}

// Busy reports whether a conversation is running.
func (g *Game) Busy() bool {
	return g.manager.Len() > 0
}

// Move shifts the player by whole steps.
func (g *Game) Move(dx, dy int) {
	g.player.X += float64(dx) * StepSize
	g.player.Y += float64(dy) * StepSize
}

// NPCAt returns the i-th NPC of the roster (0-based).
func (g *Game) NPCAt(i int) (*actor.NPC, bool) {
	if i < 0 || i >= len(g.world.NPCs) {
		return nil, false
	}
	return g.world.NPCs[i], true
}

// Approach checks whether the player may start talking to n. It leaves a
// toast when they are too far away.
func (g *Game) Approach(n *actor.NPC) bool {
	if g.Busy() {
		return false
	}
	if !n.InReach(g.player.DistanceTo(n)) {
		g.player.ShowMessage(TooFarMessage)
		return false
	}
	g.player.ClearMessage()
	return true
}

// TalkScripted opens a session on the NPC's authored script.
func (g *Game) TalkScripted(n *actor.NPC) error {
	s, err := g.library.Get(n.Script)
	if err != nil {
		return err
	}
	return g.open(n, s)
}

// OpeningQuery is the first agent query for a dynamic NPC.
func (g *Game) OpeningQuery(n *actor.NPC) string {
	if c, ok := g.roster.Get(n.Character); ok {
		return c.OpeningQuery()
	}
	return agent.DefaultOpener
}

// DynamicLines asks the agent for lines. It blocks and is meant to run in
// a tea.Cmd.
func (g *Game) DynamicLines(ctx context.Context, n *actor.NPC, query string) []string {
	ctx, cancel := context.WithTimeout(ctx, AgentTimeout)
	defer cancel()

	lines, err := g.agent.Lines(ctx, n.Character, query)
	if err != nil && n.Greeting != "" {
		return []string{n.Greeting}
	}
	return lines
}

// TalkDynamic opens a session on lines produced by the agent.
func (g *Game) TalkDynamic(n *actor.NPC, lines []string) error {
	return g.open(n, script.New(lines))
}

func (g *Game) open(n *actor.NPC, s *script.Script) error {
	g.transcript = append(g.transcript, Entry{Content: fmt.Sprintf("~ %s ~", n.DisplayName()), Notice: true})
	g.currentNPC = n
	g.lastView = dialogue.View{}

	sess, err := g.manager.Open(s, n, g.player, dialogue.Options{
		Inventory: g.player.Inventory,
		Items:     g.items,
		Logger:    g.logger,
		Hooks: dialogue.Hooks{
			OnStart: func(sess *dialogue.Session) { g.current = sess },
			OnEnd:   func(sess *dialogue.Session) { g.ended(n, sess) },
		},
	})
	if err != nil {
		g.currentNPC = nil
		return fmt.Errorf("failed to open dialogue with %s: %w", n.Name, err)
	}
	g.record(sess.View())
	return nil
}

func (g *Game) ended(n *actor.NPC, sess *dialogue.Session) {
	logger.WithSession(g.logger, sess.ID()).Info("Conversation ended", "npc", n.Name, "exited", sess.Exited())
	g.current = nil
	g.currentNPC = nil
	if !n.Dynamic() || sess.Exited() {
		return
	}
	if query, ok := agent.FollowUp(sess.Script()); ok {
		g.pending = &followUp{npc: n, query: query}
	}
}

// TakeFollowUp returns and clears a pending agent query.
func (g *Game) TakeFollowUp() (*followUp, bool) {
	f := g.pending
	g.pending = nil
	return f, f != nil
}

// Tick feeds one frame of keys to the running sessions.
func (g *Game) Tick(kb dialogue.Keyboard) {
	g.manager.Update(kb)
	if g.current != nil {
		g.record(g.current.View())
	}
}

// Exit closes the running conversation.
func (g *Game) Exit() {
	if g.current != nil {
		g.current.Exit()
	}
}

// View is what the dialogue box should draw.
func (g *Game) View() dialogue.View {
	if g.current == nil {
		return dialogue.View{}
	}
	return g.current.View()
}

// record appends newly displayed lines and notices to the transcript.
func (g *Game) record(v dialogue.View) {
	if v.Notice != "" && v.Notice != g.lastView.Notice {
		g.transcript = append(g.transcript, Entry{Content: v.Notice, Notice: true})
	}
	if v.Content != "" && (v.Content != g.lastView.Content || v.Speaker != g.lastView.Speaker) {
		g.transcript = append(g.transcript, Entry{Speaker: v.Speaker, Content: v.Content})
	}
	g.lastView = v
}

func (g *Game) Transcript() []Entry    { return g.transcript }
func (g *Game) Player() *actor.Player  { return g.player }
func (g *Game) World() *actor.World    { return g.world }
func (g *Game) CurrentNPC() *actor.NPC { return g.currentNPC }
