package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/jwebster45206/npc-dialogue/pkg/actor"
	"github.com/jwebster45206/npc-dialogue/pkg/inventory"
	"github.com/jwebster45206/npc-dialogue/pkg/script"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run lints script files and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("validate", flag.ContinueOnError)
	fset.SetOutput(stderr)
	itemsPath := fset.String("items", "", "item table (items.yaml); item indexes are not checked when empty")
	worldPath := fset.String("world", "", "world file; checks that every scripted NPC has a script")
	fset.Usage = func() {
		fmt.Fprintf(stderr, "Usage: validate [-items items.yaml] [-world world.yaml] <script.txt|dir>...\n")
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		return 2
	}
	if fset.NArg() == 0 {
		fset.Usage()
		return 2
	}

	itemCount := -1
	if *itemsPath != "" {
		reg, err := inventory.LoadRegistry(*itemsPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load items: %v\n", err)
			return 1
		}
		itemCount = reg.Len()
	}

	files, err := collectScripts(fset.Args())
	if err != nil {
		fmt.Fprintf(stderr, "Failed to list scripts: %v\n", err)
		return 1
	}

	failed := false
	for _, path := range files {
		s, err := script.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}
		issues := script.Validate(s, itemCount)
		for _, is := range issues {
			fmt.Fprintf(stdout, "%s:%d: %s (%q)\n", path, is.Line, is.Message, is.Raw)
		}
		if len(issues) > 0 {
			failed = true
		}
	}

	if *worldPath != "" {
		if !checkWorld(*worldPath, files, stdout, stderr) {
			failed = true
		}
	}

	if failed {
		fmt.Fprintln(stderr, "Validation failed")
		return 1
	}
	fmt.Fprintf(stdout, "%d script file(s) are valid!\n", len(files))
	return 0
}

// collectScripts expands directories into the script files they contain.
func collectScripts(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == script.Ext {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func checkWorld(path string, files []string, stdout, stderr io.Writer) bool {
	world, err := actor.LoadWorld(path)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return false
	}
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[filepath.Base(f)] = true
	}
	ok := true
	for _, n := range world.NPCs {
		if n.Script != "" && !known[n.Script] {
			fmt.Fprintf(stdout, "%s: npc %q uses missing script %q\n", path, n.Name, n.Script)
			ok = false
		}
	}
	return ok
}
