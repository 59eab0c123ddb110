package agent

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultOpener is sent as the first query when a character has none.
const DefaultOpener = "Hello"

// Sale is what a shopkeeper hands over when the reply says the player is
// buying.
type Sale struct {
	Item   int `yaml:"item"` // index into the item table
	Amount int `yaml:"amount"`
}

// Character is one agent persona.
type Character struct {
	Key      string `yaml:"-"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Location string `yaml:"location"`
	Prompt   string `yaml:"prompt"`
	Opener   string `yaml:"opener,omitempty"`
	Sells    *Sale  `yaml:"sells,omitempty"`
}

// OpeningQuery is the query sent when the player first walks up.
func (c *Character) OpeningQuery() string {
	if strings.TrimSpace(c.Opener) == "" {
		return DefaultOpener
	}
	return c.Opener
}

// Roster holds every character the agent can play.
type Roster struct {
	characters map[string]*Character
	keys       []string
}

type rosterFile struct {
	Characters map[string]*Character `yaml:"characters"`
}

// NewRoster builds a roster from characters keyed by name.
func NewRoster(chars map[string]*Character) (*Roster, error) {
	r := &Roster{characters: make(map[string]*Character, len(chars))}
	for key, c := range chars {
		if c == nil {
			return nil, fmt.Errorf("character %q is empty", key)
		}
		k := strings.ToLower(strings.TrimSpace(key))
		if strings.TrimSpace(c.Prompt) == "" {
			return nil, fmt.Errorf("character %q has no prompt", key)
		}
		if c.Sells != nil && c.Sells.Amount < 1 {
			return nil, fmt.Errorf("character %q sells a non-positive amount", key)
		}
		c.Key = k
		if c.Name == "" {
			c.Name = key
		}
		r.characters[k] = c
		r.keys = append(r.keys, k)
	}
	sort.Strings(r.keys)
	return r, nil
}

// LoadRoster reads the characters file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read characters: %w", err)
	}
	var f rosterFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse characters: %w", err)
	}
	return NewRoster(f.Characters)
}

// Get looks a character up by key, case-insensitively.
func (r *Roster) Get(key string) (*Character, bool) {
	c, ok := r.characters[strings.ToLower(strings.TrimSpace(key))]
	return c, ok
}

// Keys returns the character keys in sorted order.
func (r *Roster) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Neighbors describes every other character, so personas can point the
// player at each other.
func (r *Roster) Neighbors(except string) string {
	var b strings.Builder
	for _, k := range r.keys {
		if k == except {
			continue
		}
		c := r.characters[k]
		fmt.Fprintf(&b, "- %s", c.Name)
		if c.Role != "" {
			fmt.Fprintf(&b, " (%s)", c.Role)
		}
		if c.Location != "" {
			fmt.Fprintf(&b, " is in %s", c.Location)
		}
		b.WriteString(".\n")
	}
	return b.String()
}
