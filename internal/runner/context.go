package runner

import (
	"fmt"
	"os"

	"github.com/phillarmonic/mici/internal/model"
	"github.com/phillarmonic/mici/internal/resolver"
	"github.com/phillarmonic/mici/internal/shell"
	"github.com/phillarmonic/mici/internal/spec"
)

// Context is the read-only snapshot a command runs against
type Context struct {
	Document         *spec.Document
	Matches          resolver.Matches
	Environment      map[string]string // process environment at startup
	CurrentDirectory string
}

// ContextOption overrides part of the snapshot
type ContextOption func(*Context)

// WithEnvironment replaces the process environment snapshot
func WithEnvironment(env map[string]string) ContextOption {
	return func(c *Context) {
		c.Environment = env
	}
}

// WithCurrentDirectory replaces the working directory snapshot
func WithCurrentDirectory(dir string) ContextOption {
	return func(c *Context) {
		c.CurrentDirectory = dir
	}
}

// NewContext snapshots the process environment and working directory for
// a loaded document and its matched flags. It fails when the working
// directory cannot be read and no WithCurrentDirectory override is given.
func NewContext(doc *spec.Document, matches resolver.Matches, opts ...ContextOption) (*Context, error) {
	c := &Context{
		Document:    doc,
		Matches:     matches,
		Environment: shell.EnvironmentMap(os.Environ()),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Environment == nil {
		c.Environment = map[string]string{}
	}

	if c.CurrentDirectory == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to read the current directory: %w", err)
		}
		c.CurrentDirectory = cwd
	}

	return c, nil
}

// Schema returns the parsed command
func (c *Context) Schema() *model.CommandSchema {
	return c.Document.Schema
}

// Inputs returns the declared inputs, never nil
func (c *Context) Inputs() map[string]model.Input {
	return c.Document.Schema.InputsOrEmpty()
}

// Lookup reads from the environment snapshot
func (c *Context) Lookup() resolver.LookupFunc {
	return resolver.MapLookup(c.Environment)
}

// CommandFile returns the path of the source command file
func (c *Context) CommandFile() string {
	return c.Document.Path
}
