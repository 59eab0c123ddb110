package actor

import (
	"fmt"
	"maps"
	"math"

	"github.com/jwebster45206/d20"
	"github.com/jwebster45206/npc-dialogue/pkg/inventory"
)

// Stats holds the six core ability scores.
type Stats struct {
	Strength     int `yaml:"strength"`
	Dexterity    int `yaml:"dexterity"`
	Constitution int `yaml:"constitution"`
	Intelligence int `yaml:"intelligence"`
	Wisdom       int `yaml:"wisdom"`
	Charisma     int `yaml:"charisma"`
}

// ToAttributes converts Stats to a map for d20.Actor compatibility
func (s *Stats) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     s.Strength,
		"dexterity":    s.Dexterity,
		"constitution": s.Constitution,
		"intelligence": s.Intelligence,
		"wisdom":       s.Wisdom,
		"charisma":     s.Charisma,
	}
}

// PlayerSpec is the serializable description of the player character.
type PlayerSpec struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	Pronouns   string         `yaml:"pronouns,omitempty"`
	MaxHP      int            `yaml:"max_hp"`
	AC         int            `yaml:"ac"`
	Stats      Stats          `yaml:"stats"`
	Attributes map[string]int `yaml:"attributes,omitempty"`
	X          float64        `yaml:"x"`
	Y          float64        `yaml:"y"`
}

// Player is the runtime player character: a d20 actor, an inventory and
// the toast message shown outside the dialogue box.
type Player struct {
	Spec      *PlayerSpec
	Actor     *d20.Actor
	Inventory *inventory.Inventory
	X, Y      float64

	message string
}

// NewPlayer builds a Player from its spec.
func NewPlayer(spec *PlayerSpec, inv *inventory.Inventory) (*Player, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}
	if inv == nil {
		inv = inventory.New(0)
	}

	attrs := spec.Stats.ToAttributes()
	maps.Copy(attrs, spec.Attributes)

	id := spec.ID
	if id == "" {
		id = spec.Name
	}
	a, err := d20.NewActor(id).
		WithHP(spec.MaxHP).
		WithAC(spec.AC).
		WithAttributes(attrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	return &Player{
		Spec:      spec,
		Actor:     a,
		Inventory: inv,
		X:         spec.X,
		Y:         spec.Y,
	}, nil
}

// DisplayName is the speaker label used for the player's lines.
func (p *Player) DisplayName() string {
	if p.Spec.Name == "" {
		return "You"
	}
	return p.Spec.Name
}

// ShowMessage replaces the player's toast message.
func (p *Player) ShowMessage(msg string) {
	p.message = msg
}

// Message returns the current toast message.
func (p *Player) Message() string {
	return p.message
}

// ClearMessage dismisses the toast.
func (p *Player) ClearMessage() {
	p.message = ""
}

// DistanceTo returns the straight-line distance to an NPC.
func (p *Player) DistanceTo(n *NPC) float64 {
	return math.Hypot(n.X-p.X, n.Y-p.Y)
}
