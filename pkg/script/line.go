package script

import (
	"strings"
)

// Sigils recognised at the start of a raw script line.
const (
	SigilPlayer    = '-'
	SigilCommand   = '!'
	SigilNarration = '$'
)

// PlayerPrefix is prepended to text submitted by the player before it is
// inserted back into a script.
const PlayerPrefix = "- "

// Kind identifies what a script line does when it is dispatched.
type Kind int

const (
	KindEmpty Kind = iota
	KindNpcSpeak
	KindPlayerSpeak
	KindNarration
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNpcSpeak:
		return "npc"
	case KindPlayerSpeak:
		return "player"
	case KindNarration:
		return "narration"
	case KindCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Command is a verb and its ordered arguments. Argument counts and types
// are not checked here.
type Command struct {
	Verb string
	Args []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Verb
	}
	return c.Verb + " " + strings.Join(c.Args, " ")
}

// Line is a classified script line. Text holds the displayable content for
// speech and narration; Command is only set for KindCommand.
type Line struct {
	Kind    Kind
	Text    string
	Command Command
	Raw     string
}

// Classify maps a raw line to its Line kind by looking at the first
// character only. It is total: every string, including "", classifies.
// Whitespace-only lines are KindEmpty.
func Classify(raw string) Line {
	trimmed := strings.TrimRight(raw, "\r")
	if strings.TrimSpace(trimmed) == "" {
		return Line{Kind: KindEmpty, Raw: raw}
	}

	switch trimmed[0] {
	case SigilPlayer:
		return Line{Kind: KindPlayerSpeak, Text: strings.TrimSpace(trimmed[1:]), Raw: raw}
	case SigilNarration:
		return Line{Kind: KindNarration, Text: strings.TrimSpace(trimmed[1:]), Raw: raw}
	case SigilCommand:
		return Line{Kind: KindCommand, Command: parseCommand(trimmed[1:]), Raw: raw}
	default:
		return Line{Kind: KindNpcSpeak, Text: strings.TrimSpace(trimmed), Raw: raw}
	}
}

// parseCommand splits the body of a command line into verb and args.
// The verb is lower-cased; a bare "!" yields an empty verb.
func parseCommand(body string) Command {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return Command{}
	}
	return Command{
		Verb: strings.ToLower(fields[0]),
		Args: fields[1:],
	}
}
