package main

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/npc-dialogue/pkg/dialogue"
)

type keyMap struct {
	Quit  key.Binding
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Talk  key.Binding
	Paste key.Binding
}

var keys = keyMap{
	Quit:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Up:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "walk north")),
	Down:  key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "walk south")),
	Left:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "walk west")),
	Right: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "walk east")),
	Talk:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "talk")),
	Paste: key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "paste")),
}

// framesFromKey converts one terminal key event into keyboard frames for
// the dialogue layer. Each frame carries a single key press so typed
// characters keep their order.
func framesFromKey(msg tea.KeyMsg) []dialogue.Keys {
	switch msg.Type {
	case tea.KeyEnter:
		return []dialogue.Keys{dialogue.Press(dialogue.KeyEnter)}
	case tea.KeyBackspace:
		return []dialogue.Keys{dialogue.Press(dialogue.KeyBackspace)}
	case tea.KeyEsc:
		return []dialogue.Keys{dialogue.Press(dialogue.KeyEscape)}
	case tea.KeySpace:
		return []dialogue.Keys{dialogue.Press(dialogue.KeySpace)}
	case tea.KeyRunes:
		return framesFromText(string(msg.Runes))
	}
	return nil
}

// framesFromText types s one character per frame. Characters with no key
// on the keyboard table are skipped.
func framesFromText(s string) []dialogue.Keys {
	var frames []dialogue.Keys
	for _, r := range s {
		k, shift, ok := dialogue.KeyForRune(r)
		if !ok {
			continue
		}
		kb := dialogue.Press(k)
		if shift {
			kb = kb.WithShift()
		}
		frames = append(frames, kb)
	}
	return frames
}
