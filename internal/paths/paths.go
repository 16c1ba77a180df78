// Package paths locates the mici home directory and the command files and
// scripts stored under it.
package paths

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// HomeEnv overrides the home directory
const HomeEnv = "MICI_HOME"

// DirName is the home directory name under the user's home
const DirName = ".mici"

// Extensions are the command file extensions, in lookup order
var Extensions = []string{".yml", ".yaml"}

// Layout is the on-disk structure of a mici home
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at root
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// DefaultLayout resolves the home from MICI_HOME, else ~/.mici
func DefaultLayout() (Layout, error) {
	if root := os.Getenv(HomeEnv); root != "" {
		return NewLayout(root), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, fmt.Errorf("failed to determine home directory: %w", err)
	}
	return NewLayout(filepath.Join(home, DirName)), nil
}

// ConfigFile is the global configuration file
func (l Layout) ConfigFile() string {
	return filepath.Join(l.Root, "config.yml")
}

// JobsDir holds commands and scripts
func (l Layout) JobsDir() string {
	return filepath.Join(l.Root, "jobs")
}

// CommandsDir holds command files
func (l Layout) CommandsDir() string {
	return filepath.Join(l.JobsDir(), "commands")
}

// ScriptsDir is the root script steps are resolved against
func (l Layout) ScriptsDir() string {
	return filepath.Join(l.JobsDir(), "scripts")
}

// Exists reports whether the home directory exists
func (l Layout) Exists() bool {
	info, err := os.Stat(l.Root)
	return err == nil && info.IsDir()
}

// CommandFile maps a command path such as ["deploy", "web"] to its file.
// When no file exists, the .yml candidate is returned with exists false.
func (l Layout) CommandFile(parts []string) (string, bool) {
	base := filepath.Join(append([]string{l.CommandsDir()}, parts...)...)

	for _, ext := range Extensions {
		candidate := base + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	return base + Extensions[0], false
}

// Command is a command file found under the commands directory
type Command struct {
	// Parts is the command path, e.g. ["deploy", "web"]
	Parts []string
	Path  string
}

// Name joins the command path with spaces, as typed on the command line
func (c Command) Name() string {
	return strings.Join(c.Parts, " ")
}

// ListCommands walks the commands directory, or a sub-directory of it, and
// returns every command file sorted by path. Hidden directories are
// skipped. A missing directory yields no commands.
func (l Layout) ListCommands(prefix []string) ([]Command, error) {
	for _, part := range prefix {
		if !validSegment(part) {
			return nil, fmt.Errorf("invalid command path segment '%s'", part)
		}
	}

	root := l.CommandsDir()
	start := filepath.Join(append([]string{root}, prefix...)...)

	if _, err := os.Stat(start); os.IsNotExist(err) {
		return nil, nil
	}

	var commands []Command
	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != start && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if !isCommandExt(ext) {
			return nil
		}

		rel, err := filepath.Rel(root, strings.TrimSuffix(path, ext))
		if err != nil {
			return err
		}

		commands = append(commands, Command{
			Parts: strings.Split(filepath.ToSlash(rel), "/"),
			Path:  path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}

	sort.Slice(commands, func(i, j int) bool {
		return commands[i].Path < commands[j].Path
	})
	return commands, nil
}

func isCommandExt(ext string) bool {
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// validSegment rejects segments that would leave the commands directory
func validSegment(part string) bool {
	return part != "" && part != "." && part != ".." && !strings.ContainsAny(part, `/\`)
}
