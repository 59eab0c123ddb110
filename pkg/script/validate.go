package script

import (
	"fmt"
	"strconv"
)

// Built-in command verbs.
const (
	VerbGive   = "give"
	VerbGoto   = "goto"
	VerbRandom = "random"
	VerbEnd    = "end"
)

// Issue is a problem found in an authored script. Line is one-based, to
// match how authors number goto targets.
type Issue struct {
	Line    int
	Raw     string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s (%q)", i.Line, i.Message, i.Raw)
}

// Validate lints a script statically. itemCount is the size of the item
// table; give commands must name an index below it. A negative itemCount
// skips the item check.
func Validate(s *Script, itemCount int) []Issue {
	var issues []Issue
	report := func(i int, raw, format string, args ...any) {
		issues = append(issues, Issue{Line: i + 1, Raw: raw, Message: fmt.Sprintf(format, args...)})
	}

	for i, raw := range s.lines {
		line := Classify(raw)
		if line.Kind != KindCommand {
			continue
		}
		cmd := line.Command

		switch cmd.Verb {
		case VerbGive:
			if len(cmd.Args) != 2 {
				report(i, raw, "give takes an item index and an amount, got %d args", len(cmd.Args))
				continue
			}
			idx, err := strconv.Atoi(cmd.Args[0])
			if err != nil {
				report(i, raw, "item index %q is not a number", cmd.Args[0])
			} else if idx < 0 || (itemCount >= 0 && idx >= itemCount) {
				report(i, raw, "item index %d outside item table of %d", idx, itemCount)
			}
			amount, err := strconv.Atoi(cmd.Args[1])
			if err != nil {
				report(i, raw, "amount %q is not a number", cmd.Args[1])
			} else if amount <= 0 {
				report(i, raw, "amount %d must be positive", amount)
			}
		case VerbGoto:
			if len(cmd.Args) != 1 {
				report(i, raw, "goto takes one target, got %d args", len(cmd.Args))
				continue
			}
			validateTarget(s, i, raw, cmd.Args[0], report)
		case VerbRandom:
			if len(cmd.Args) == 0 {
				report(i, raw, "random needs at least one target")
				continue
			}
			for _, arg := range cmd.Args {
				validateTarget(s, i, raw, arg, report)
			}
		case VerbEnd:
			if len(cmd.Args) != 0 {
				report(i, raw, "end takes no arguments")
			}
		case "":
			report(i, raw, "command line has no verb")
		default:
			report(i, raw, "unknown command %q", cmd.Verb)
		}
	}

	return issues
}

func validateTarget(s *Script, i int, raw, arg string, report func(int, string, string, ...any)) {
	target, err := strconv.Atoi(arg)
	if err != nil {
		report(i, raw, "target %q is not a line number", arg)
		return
	}
	if target < 1 || target > len(s.lines) {
		report(i, raw, "target %d outside script of %d lines", target, len(s.lines))
	}
}
