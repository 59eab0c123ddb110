package actor

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// World is the cast of a play area: the player spec and the NPCs around it.
type World struct {
	Player PlayerSpec `yaml:"player"`
	NPCs   []*NPC     `yaml:"npcs"`
}

// LoadWorld reads a world file.
func LoadWorld(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}

	var w World
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse world file %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid world file %s: %w", path, err)
	}
	return &w, nil
}

// Validate checks that every NPC has a name and a source of lines.
func (w *World) Validate() error {
	seen := make(map[string]bool, len(w.NPCs))
	for i, n := range w.NPCs {
		if n == nil || strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("npc %d has no name", i)
		}
		key := strings.ToLower(n.Name)
		if seen[key] {
			return fmt.Errorf("duplicate npc %q", n.Name)
		}
		seen[key] = true
		if n.Script == "" && n.Character == "" {
			return fmt.Errorf("npc %q needs a script or a character", n.Name)
		}
	}
	return nil
}

// FindNPC looks an NPC up by name, ignoring case.
func (w *World) FindNPC(name string) (*NPC, bool) {
	for _, n := range w.NPCs {
		if strings.EqualFold(n.Name, name) {
			return n, true
		}
	}
	return nil, false
}
