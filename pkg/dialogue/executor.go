package dialogue

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/jwebster45206/npc-dialogue/pkg/inventory"
	"github.com/jwebster45206/npc-dialogue/pkg/script"
)

// Notices shown to the player by give.
const (
	InventoryFullNotice = "Your inventory is full"
	grantNoticeFormat   = "Received %d %s"
)

// Inventory is the player's item store.
type Inventory interface {
	// Add stores up to amount items and returns the excess that did not fit.
	Add(item inventory.ItemType, amount int) int
}

// ItemRegistry resolves item indexes used in give commands.
type ItemRegistry interface {
	Lookup(index int) (inventory.ItemType, error)
}

// RNG picks branch targets for random.
type RNG interface {
	IntN(n int) int
}

type defaultRNG struct{}

func (defaultRNG) IntN(n int) int { return rand.IntN(n) }

// Effect tells the session what to do after a command ran.
type Effect int

const (
	// EffectContinue advances to the next line.
	EffectContinue Effect = iota
	// EffectJump stores Result.Position and advances from there.
	EffectJump
	// EffectEnd terminates the session.
	EffectEnd
	// EffectStall leaves the session exactly as it was before the advance.
	EffectStall
)

// Result is the outcome of a command.
type Result struct {
	Effect   Effect
	Position int
	Notice   string
}

// CommandFunc implements a command verb.
type CommandFunc func(args []string) (Result, error)

// Executor runs command lines against the inventory, the item table and
// the RNG. Verbs beyond the built-ins can be added with Register.
type Executor struct {
	inventory Inventory
	items     ItemRegistry
	rng       RNG
	commands  map[string]CommandFunc
}

// NewExecutor creates an executor with the built-in verbs. A nil rng uses
// the process RNG.
func NewExecutor(inv Inventory, items ItemRegistry, rng RNG) *Executor {
	if rng == nil {
		rng = defaultRNG{}
	}
	e := &Executor{
		inventory: inv,
		items:     items,
		rng:       rng,
	}
	e.commands = map[string]CommandFunc{
		script.VerbGive:   e.give,
		script.VerbGoto:   e.jump,
		script.VerbRandom: e.random,
		script.VerbEnd:    e.end,
	}
	return e
}

// Register adds or replaces a verb.
func (e *Executor) Register(verb string, fn CommandFunc) {
	e.commands[verb] = fn
}

// Execute runs cmd. Unknown verbs are not an error: they produce
// EffectStall. Failures are returned as *CommandError.
func (e *Executor) Execute(cmd script.Command) (Result, error) {
	fn, ok := e.commands[cmd.Verb]
	if !ok {
		return Result{Effect: EffectStall}, nil
	}
	res, err := fn(cmd.Args)
	if err != nil {
		return Result{}, &CommandError{Verb: cmd.Verb, Args: cmd.Args, Err: err}
	}
	return res, nil
}

func (e *Executor) give(args []string) (Result, error) {
	if len(args) != 2 {
		return Result{}, fmt.Errorf("%w: want item index and amount, got %d args", ErrParse, len(args))
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return Result{}, fmt.Errorf("%w: item index %q", ErrParse, args[0])
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil || amount < 1 {
		return Result{}, fmt.Errorf("%w: amount %q", ErrParse, args[1])
	}
	if e.items == nil || e.inventory == nil {
		return Result{}, fmt.Errorf("%w: no inventory attached", ErrLookup)
	}

	item, err := e.items.Lookup(index)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrLookup, err)
	}

	added := amount - e.inventory.Add(item, amount)
	if added <= 0 {
		return Result{Effect: EffectContinue, Notice: InventoryFullNotice}, nil
	}
	return Result{Effect: EffectContinue, Notice: fmt.Sprintf(grantNoticeFormat, added, item.Name)}, nil
}

func (e *Executor) jump(args []string) (Result, error) {
	if len(args) != 1 {
		return Result{}, fmt.Errorf("%w: want one target, got %d args", ErrParse, len(args))
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return Result{}, err
	}
	return Result{Effect: EffectJump, Position: script.JumpPosition(target)}, nil
}

func (e *Executor) random(args []string) (Result, error) {
	if len(args) == 0 {
		return Result{}, fmt.Errorf("%w: random needs at least one target", ErrParse)
	}
	targets := make([]int, 0, len(args))
	for _, arg := range args {
		target, err := parseTarget(arg)
		if err != nil {
			return Result{}, err
		}
		targets = append(targets, target)
	}
	target := targets[e.rng.IntN(len(targets))]
	return Result{Effect: EffectJump, Position: script.JumpPosition(target)}, nil
}

func (e *Executor) end([]string) (Result, error) {
	return Result{Effect: EffectEnd}, nil
}

func parseTarget(arg string) (int, error) {
	target, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: target %q is not a line number", ErrParse, arg)
	}
	return target, nil
}
