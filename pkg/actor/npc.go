package actor

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTalkDistance is how close the player must stand to start talking.
const DefaultTalkDistance = 150

// NPC is a non-player character the player can talk to. An NPC either
// plays an authored script or, when Character is set, asks the agent for
// its lines.
type NPC struct {
	Name         string  `yaml:"name"`
	Script       string  `yaml:"script,omitempty"`    // file name in the scripts directory
	Character    string  `yaml:"character,omitempty"` // agent character key for dynamic dialogue
	Greeting     string  `yaml:"greeting,omitempty"`  // seed line when the agent is unavailable
	Description  string  `yaml:"description,omitempty"`
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	TalkDistance float64 `yaml:"talk_distance,omitempty"`
}

// DisplayName is the speaker label shown in the dialogue box.
func (n *NPC) DisplayName() string {
	return cases.Title(language.English).String(strings.TrimSpace(n.Name))
}

// Dynamic reports whether the NPC's lines come from the agent.
func (n *NPC) Dynamic() bool {
	return n.Character != ""
}

// InReach reports whether a point at distance d can start a conversation.
func (n *NPC) InReach(d float64) bool {
	limit := n.TalkDistance
	if limit <= 0 {
		limit = DefaultTalkDistance
	}
	return d < limit
}
