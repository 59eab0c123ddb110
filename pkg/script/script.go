package script

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// TargetBias is subtracted from a one-based jump target to get the new
// position. The following advance increments the position, so a jump to
// line N lands on zero-based index N-1. Existing authored scripts depend on
// this exact offset.
const TargetBias = 2

// JumpPosition returns the position to store for a one-based jump target.
func JumpPosition(target int) int {
	return target - TargetBias
}

// Script is an ordered, mutable list of raw lines. A Script belongs to a
// single dialogue session; use Clone to hand the same content to another.
type Script struct {
	lines []string
}

// New copies lines into a new Script.
func New(lines []string) *Script {
	return &Script{lines: slices.Clone(lines)}
}

// Parse reads a script, one line per line of input. Trailing carriage
// returns are dropped so CRLF files behave like LF files.
func Parse(r io.Reader) (*Script, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return &Script{lines: lines}, nil
}

// ReadFile loads a script from disk.
func ReadFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Len returns the number of lines.
func (s *Script) Len() int {
	return len(s.lines)
}

// At returns the raw line at index i, or false when i is out of range.
func (s *Script) At(i int) (string, bool) {
	if i < 0 || i >= len(s.lines) {
		return "", false
	}
	return s.lines[i], true
}

// InsertAfter places line immediately after index i. An index of -1
// inserts at the front; indexes past the end append.
func (s *Script) InsertAfter(i int, line string) {
	at := i + 1
	if at < 0 {
		at = 0
	}
	if at > len(s.lines) {
		at = len(s.lines)
	}
	s.lines = slices.Insert(s.lines, at, line)
}

// Lines returns a copy of the raw lines.
func (s *Script) Lines() []string {
	return slices.Clone(s.lines)
}

// Clone returns an independent copy of the script.
func (s *Script) Clone() *Script {
	return New(s.lines)
}

func (s *Script) String() string {
	return strings.Join(s.lines, "\n")
}
