// Package flags binds the inputs declared by a command file to CLI flags.
package flags

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/phillarmonic/mici/internal/errors"
	"github.com/phillarmonic/mici/internal/model"
	"github.com/phillarmonic/mici/internal/resolver"
)

// Set holds the flags registered for one command and the values matched
// after parsing. It satisfies resolver.Matches.
type Set struct {
	fs     *pflag.FlagSet
	inputs map[string]model.Input
	// flag long name per input key
	names map[string]string
}

var _ resolver.Matches = (*Set)(nil)

// New registers one flag per declared input, in sorted key order. Bool
// inputs become value-less flags; every other type takes a string.
func New(name string, inputs map[string]model.Input) (*Set, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = true

	s := &Set{
		fs:     fs,
		inputs: inputs,
		names:  make(map[string]string, len(inputs)),
	}

	schema := model.CommandSchema{Inputs: inputs}
	for _, key := range schema.InputNames() {
		if err := s.register(key, inputs[key]); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Parse registers the inputs and parses args against them
func Parse(inputs map[string]model.Input, args []string) (*Set, error) {
	s, err := New("mici", inputs)
	if err != nil {
		return nil, err
	}
	if err := s.Parse(args); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Set) register(key string, input model.Input) error {
	long := stripDashes(input.Long)
	if long == "" {
		long = key
	}
	short := stripDashes(input.Short)

	if len(short) > 1 {
		return fmt.Errorf("input '%s': short flag '%s' must be a single character", key, input.Short)
	}
	if s.fs.Lookup(long) != nil {
		return fmt.Errorf("input '%s': flag --%s is already defined", key, long)
	}
	if short != "" && s.fs.ShorthandLookup(short) != nil {
		return fmt.Errorf("input '%s': flag -%s is already defined", key, short)
	}

	usage := input.Description
	if input.Type == model.InputTypeChoice && len(input.Options) > 0 {
		usage = fmt.Sprintf("%s (%s)", usage, strings.Join(input.Options, "|"))
	}
	if input.Required {
		usage += " (required)"
	}

	if input.IsBool() {
		s.fs.BoolP(long, short, false, usage)
	} else {
		def, _ := input.DefaultValue()
		s.fs.StringP(long, short, def, usage)
	}

	s.names[key] = long
	return nil
}

// Parse matches args against the registered flags. Bool flags take no
// value; --force=false is rejected rather than read as present.
func (s *Set) Parse(args []string) error {
	if err := s.fs.Parse(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	schema := model.CommandSchema{Inputs: s.inputs}
	for _, key := range schema.InputNames() {
		if !s.inputs[key].IsBool() {
			continue
		}
		if f := s.flag(key); f != nil && f.Changed && f.Value.String() != "true" {
			return fmt.Errorf("invalid arguments: flag --%s does not take a value", f.Name)
		}
	}
	return nil
}

// Present reports whether the flag bound to input name was given. A bool
// flag only counts when it is set to true.
func (s *Set) Present(name string) bool {
	f := s.flag(name)
	if f == nil || !f.Changed {
		return false
	}
	if input, ok := s.inputs[name]; ok && input.IsBool() {
		return f.Value.String() == "true"
	}
	return true
}

// Value returns the value given for input name on the command line.
// Declared defaults are not reported here.
func (s *Set) Value(name string) (string, bool) {
	f := s.flag(name)
	if f == nil || !f.Changed {
		return "", false
	}
	return f.Value.String(), true
}

// Args returns the positional arguments left after parsing
func (s *Set) Args() []string {
	return s.fs.Args()
}

// Usage renders the registered flags
func (s *Set) Usage() string {
	return s.fs.FlagUsages()
}

// FlagName returns the long flag bound to input name
func (s *Set) FlagName(name string) (string, bool) {
	long, ok := s.names[name]
	return long, ok
}

func (s *Set) flag(name string) *pflag.Flag {
	long, ok := s.names[name]
	if !ok {
		return nil
	}
	return s.fs.Lookup(long)
}

// ValidateInputs checks the matched values against their declarations:
// required inputs need a CLI value or a default, and choice values must
// be one of the declared options. Bool inputs always pass.
func ValidateInputs(inputs map[string]model.Input, m resolver.Matches) error {
	schema := model.CommandSchema{Inputs: inputs}

	for _, name := range schema.InputNames() {
		input := inputs[name]
		if input.IsBool() {
			continue
		}

		value, ok := "", false
		if m != nil {
			value, ok = m.Value(name)
		}
		if !ok {
			value, ok = input.DefaultValue()
		}

		if input.Required && !ok {
			return &errors.InputError{Input: name}
		}

		if ok && input.Type == model.InputTypeChoice && len(input.Options) > 0 && !contains(input.Options, value) {
			return &errors.InputError{
				Input:    name,
				Provided: value,
				Expected: strings.Join(input.Options, ", "),
			}
		}
	}

	return nil
}

func stripDashes(s string) string {
	return strings.TrimLeft(s, "-")
}

func contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
