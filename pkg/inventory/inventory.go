package inventory

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultMaxStack is used for item types that do not set max_stack.
const DefaultMaxStack = 99

var ErrUnknownItem = errors.New("unknown item type")

// ItemType describes a kind of item that can be held in an inventory.
type ItemType struct {
	Index    int    `yaml:"-"`
	Name     string `yaml:"name"`
	MaxStack int    `yaml:"max_stack,omitempty"`
	Icon     string `yaml:"icon,omitempty"`
}

// Registry is the process-wide item type table, indexed by position.
type Registry struct {
	items []ItemType
}

// NewRegistry builds a registry from item types in index order.
func NewRegistry(items ...ItemType) *Registry {
	r := &Registry{items: make([]ItemType, 0, len(items))}
	for i, it := range items {
		it.Index = i
		if it.MaxStack <= 0 {
			it.MaxStack = DefaultMaxStack
		}
		r.items = append(r.items, it)
	}
	return r
}

// LoadRegistry reads an item table from a YAML file of the form
//
//	items:
//	  - name: Diamond
//	    max_stack: 10
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read item table: %w", err)
	}

	var file struct {
		Items []ItemType `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse item table %s: %w", path, err)
	}
	return NewRegistry(file.Items...), nil
}

// Lookup returns the item type at index.
func (r *Registry) Lookup(index int) (ItemType, error) {
	if index < 0 || index >= len(r.items) {
		return ItemType{}, fmt.Errorf("%w: index %d", ErrUnknownItem, index)
	}
	return r.items[index], nil
}

// Len returns the number of item types.
func (r *Registry) Len() int {
	return len(r.items)
}

// Slot is one inventory cell holding a stack of a single item type.
type Slot struct {
	Item  ItemType
	Count int
}

// Empty reports whether the slot holds nothing.
func (s Slot) Empty() bool {
	return s.Count == 0
}

// Inventory is a fixed number of slots. Items stack up to their type's
// MaxStack before spilling into a new slot.
type Inventory struct {
	slots []Slot
}

// New creates an inventory with the given number of slots.
func New(slots int) *Inventory {
	if slots < 0 {
		slots = 0
	}
	return &Inventory{slots: make([]Slot, slots)}
}

// Add stores up to amount items and returns how many did not fit.
// Existing stacks of the same type are topped up before empty slots are used.
func (inv *Inventory) Add(item ItemType, amount int) int {
	if amount <= 0 {
		return 0
	}
	maxStack := item.MaxStack
	if maxStack <= 0 {
		maxStack = DefaultMaxStack
	}

	remaining := amount
	for i := range inv.slots {
		if remaining == 0 {
			break
		}
		s := &inv.slots[i]
		if s.Empty() || s.Item.Index != item.Index {
			continue
		}
		n := min(maxStack-s.Count, remaining)
		if n > 0 {
			s.Count += n
			remaining -= n
		}
	}

	for i := range inv.slots {
		if remaining == 0 {
			break
		}
		s := &inv.slots[i]
		if !s.Empty() {
			continue
		}
		n := min(maxStack, remaining)
		*s = Slot{Item: item, Count: n}
		remaining -= n
	}

	return remaining
}

// Count returns how many items of the given type are held.
func (inv *Inventory) Count(item ItemType) int {
	total := 0
	for _, s := range inv.slots {
		if !s.Empty() && s.Item.Index == item.Index {
			total += s.Count
		}
	}
	return total
}

// Slots returns a copy of the slots.
func (inv *Inventory) Slots() []Slot {
	out := make([]Slot, len(inv.slots))
	copy(out, inv.slots)
	return out
}

// Describe lists the held items, one per line.
func (inv *Inventory) Describe() string {
	var out string
	for _, s := range inv.slots {
		if s.Empty() {
			continue
		}
		out += fmt.Sprintf("- %s x%d\n", s.Item.Name, s.Count)
	}
	if out == "" {
		return "Your inventory is empty."
	}
	return out
}
