package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/npc-dialogue/pkg/actor"
	"github.com/jwebster45206/npc-dialogue/pkg/dialogue"
	"github.com/muesli/reflow/wordwrap"
)

const Title = "NPC DIALOGUE"

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	game          *Game
	frameInterval time.Duration

	transcript viewport.Model
	ready      bool
	width      int
	height     int
	err        error

	// Queued key frames, drained one per tick.
	frames  []dialogue.Keys
	ticking bool

	// Waiting on the agent
	loading      bool
	loadingNPC   string
	progressTick int

	// Quit confirmation state
	showQuitModal bool
}

type frameMsg struct{}

type agentLinesMsg struct {
	npc   *actor.NPC
	lines []string
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	dialogueBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Italic(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(game *Game, frameInterval time.Duration) ConsoleUI {
	vp := viewport.New(50, 20)
	vp.MouseWheelEnabled = true

	return ConsoleUI{
		game:          game,
		frameInterval: frameInterval,
		transcript:    vp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeTranscript()
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.showQuitModal = true
			return m, nil
		}
		if m.game.Busy() {
			return m.queueKeys(msg)
		}
		if m.loading {
			return m, nil
		}
		return m.updateWorld(msg)

	case frameMsg:
		m.ticking = false
		frame := dialogue.Keys{}
		if len(m.frames) > 0 {
			frame = m.frames[0]
			m.frames = m.frames[1:]
		}
		m.game.Tick(frame)
		m.writeTranscript()

		if f, ok := m.game.TakeFollowUp(); ok {
			m.frames = nil
			cmd := m.askAgent(f.npc, f.query)
			return m, cmd
		}
		if !m.game.Busy() {
			m.frames = nil
			return m, nil
		}
		cmd := m.scheduleFrame()
		return m, cmd

	case agentLinesMsg:
		m.loading = false
		m.loadingNPC = ""
		if err := m.game.TalkDynamic(msg.npc, msg.lines); err != nil {
			m.err = err
		}
		m.writeTranscript()
		cmd := m.scheduleFrame()
		return m, cmd

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeTranscript()
			return m, progressTick()
		}
	}

	return m, nil
}

// queueKeys buffers key presses for the running conversation.
func (m ConsoleUI) queueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Paste) {
		text, err := clipboard.ReadAll()
		if err != nil {
			m.err = fmt.Errorf("paste failed: %w", err)
			return m, nil
		}
		m.frames = append(m.frames, framesFromText(text)...)
	} else {
		m.frames = append(m.frames, framesFromKey(msg)...)
	}
	cmd := m.scheduleFrame()
	return m, cmd
}

// updateWorld handles keys while no conversation is running.
func (m ConsoleUI) updateWorld(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch {
	case msg.Type == tea.KeyEsc:
		m.showQuitModal = true
		return m, nil
	case key.Matches(msg, keys.Up):
		m.game.Move(0, -1)
	case key.Matches(msg, keys.Down):
		m.game.Move(0, 1)
	case key.Matches(msg, keys.Left):
		m.game.Move(-1, 0)
	case key.Matches(msg, keys.Right):
		m.game.Move(1, 0)
	case key.Matches(msg, keys.Talk):
		idx, _ := strconv.Atoi(msg.String())
		return m.talk(idx - 1)
	}
	return m, nil
}

func (m ConsoleUI) talk(idx int) (tea.Model, tea.Cmd) {
	n, ok := m.game.NPCAt(idx)
	if !ok || !m.game.Approach(n) {
		return m, nil
	}

	if n.Dynamic() {
		cmd := m.askAgent(n, m.game.OpeningQuery(n))
		return m, cmd
	}

	if err := m.game.TalkScripted(n); err != nil {
		m.err = err
		return m, nil
	}
	m.writeTranscript()
	cmd := m.scheduleFrame()
	return m, cmd
}

func (m *ConsoleUI) askAgent(n *actor.NPC, query string) tea.Cmd {
	m.loading = true
	m.loadingNPC = n.DisplayName()
	m.progressTick = 0
	game := m.game
	fetch := func() tea.Msg {
		return agentLinesMsg{npc: n, lines: game.DynamicLines(context.Background(), n, query)}
	}
	return tea.Batch(fetch, progressTick())
}

// scheduleFrame starts the frame clock unless it is already running.
func (m *ConsoleUI) scheduleFrame() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return tea.Tick(m.frameInterval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

func (m *ConsoleUI) resize() {
	chatWidth := m.chatWidth()
	m.transcript.Width = chatWidth - 2
	m.transcript.Height = max(m.height-12, 3)
}

func (m ConsoleUI) chatWidth() int {
	return int(float64(m.width)*0.7) - 4
}

// writeTranscript re-renders the conversation log for the current width.
func (m *ConsoleUI) writeTranscript() {
	width := m.transcript.Width - 4
	content := renderTranscript(m.game.Transcript(), width)
	if m.loading {
		content += "\n" + loadingStyle.Render(m.loadingNPC+" is thinking") + "\n" + m.renderProgressBar()
	}
	m.transcript.SetContent(content)
	m.transcript.GotoBottom()
}

func renderTranscript(entries []Entry, width int) string {
	if width < 10 {
		width = 10
	}
	var content strings.Builder
	content.WriteString(titleStyle.Render(Title) + "\n\n")
	for _, e := range entries {
		switch {
		case e.Notice:
			content.WriteString(separatorStyle.Render(wordwrap.String(e.Content, width)) + "\n\n")
		case e.Speaker == "":
			content.WriteString(narratorStyle.Render(wordwrap.String(e.Content, width)) + "\n\n")
		default:
			prefix := e.Speaker + ": "
			content.WriteString(speakerStyle.Render(prefix) + wordwrap.String(e.Content, width-len(prefix)) + "\n\n")
		}
	}
	return content.String()
}

// renderDialogueBox draws the current line, the reply field and the helper.
func renderDialogueBox(v dialogue.View, width int) string {
	if width < 10 {
		width = 10
	}
	var b strings.Builder
	if v.Speaker != "" {
		b.WriteString(speakerStyle.Render(v.Speaker) + "\n")
		b.WriteString(wordwrap.String(v.Content, width))
	} else {
		b.WriteString(narratorStyle.Render(wordwrap.String(v.Content, width)))
	}
	if v.InputVisible {
		b.WriteString("\n" + userStyle.Render("> "+v.InputText+"▏"))
	}
	if v.Notice != "" {
		b.WriteString("\n" + loadingStyle.Render(v.Notice))
	}
	if v.Helper != "" {
		b.WriteString("\n" + promptStyle.Render(v.Helper))
	}
	return dialogueBoxStyle.Width(width + 4).Render(b.String())
}

func (m ConsoleUI) renderSidebar() string {
	p := m.game.Player()
	var content strings.Builder

	content.WriteString(titleStyle.Render("NEARBY") + "\n\n")
	for i, n := range m.game.World().NPCs {
		d := p.DistanceTo(n)
		marker := "  "
		if n.InReach(d) {
			marker = "● "
		}
		fmt.Fprintf(&content, "%s%d - %s (%.0f)\n", marker, i+1, n.DisplayName(), d)
	}

	content.WriteString("\n" + titleStyle.Render(strings.ToUpper(p.DisplayName())) + "\n\n")
	fmt.Fprintf(&content, "Position: %.0f, %.0f\n", p.X, p.Y)
	if p.Actor != nil {
		fmt.Fprintf(&content, "HP: %d/%d  AC: %d\n", p.Actor.HP(), p.Actor.MaxHP(), p.Actor.AC())
	}
	content.WriteString("\nInventory:\n")
	content.WriteString(p.Inventory.Describe() + "\n")

	if msg := p.Message(); msg != "" {
		content.WriteString("\n" + loadingStyle.Render(msg) + "\n")
	}

	content.WriteString("\n" + promptStyle.Render(helpLine()))
	return content.String()
}

func helpLine() string {
	var parts []string
	for _, b := range []key.Binding{keys.Talk, keys.Up, keys.Down, keys.Left, keys.Right, keys.Paste, keys.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, "\n")
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		case tea.KeyEsc:
			m.showQuitModal = false
			return m, nil
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Leave the forest?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to stay, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := m.chatWidth()
	metaWidth := m.width - chatWidth - 6

	parts := []string{m.transcript.View(), separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1)))}
	if m.game.Busy() {
		parts = append(parts, renderDialogueBox(m.game.View(), chatWidth-10))
	}
	if m.err != nil {
		parts = append(parts, errorStyle.Render("Error: "+m.err.Error()))
	}

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(m.renderSidebar())

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

func (m ConsoleUI) renderProgressBar() string {
	usable := m.transcript.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 60 {
		usable = 60
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
