package model

import (
	"sort"
)

// Input types accepted by the schema
const (
	InputTypeString  = "string"
	InputTypeChoice  = "choice"
	InputTypeBool    = "bool"
	InputTypeBoolean = "boolean"
)

// CommandSchema represents one parsed command file
type CommandSchema struct {
	Version       string           `yaml:"version"`
	Name          string           `yaml:"name"`
	Description   string           `yaml:"description,omitempty"`
	Usage         string           `yaml:"usage,omitempty"`
	Inputs        map[string]Input `yaml:"inputs,omitempty"`
	Configuration Configuration    `yaml:"configuration"`
	Steps         []Step           `yaml:"steps"`
}

// Input is a typed parameter bound to a CLI flag
type Input struct {
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	Options     []string `yaml:"options,omitempty"`
	Required    bool     `yaml:"required,omitempty"`
	Secret      bool     `yaml:"secret,omitempty"`
	Short       string   `yaml:"short,omitempty"`
	Long        string   `yaml:"long,omitempty"`
	Default     *string  `yaml:"default,omitempty"`
}

// Configuration is the command-wide execution policy
type Configuration struct {
	Confirm          bool               `yaml:"confirm,omitempty"`
	Environment      map[string]*string `yaml:"environment,omitempty"`
	WorkingDirectory *string            `yaml:"working_directory,omitempty"`
}

// Step is one unit of sequential execution
type Step struct {
	ID   string  `yaml:"id"`
	Name string  `yaml:"name,omitempty"`
	When string  `yaml:"when,omitempty"` // carried, never evaluated
	Run  StepRun `yaml:"run"`
}

// StepRun describes how a step is executed. Execution is nil when the
// step declares neither a command nor a script.
type StepRun struct {
	Shell            string
	Environment      map[string]*string
	WorkingDirectory *string
	Execution        Execution
	Args             *Args
}

// Args holds step arguments in either list or map form
type Args struct {
	List []string
	Map  map[string]string
}

// InputsOrEmpty returns the declared inputs, never nil
func (c *CommandSchema) InputsOrEmpty() map[string]Input {
	if c.Inputs == nil {
		return map[string]Input{}
	}
	return c.Inputs
}

// InputNames returns the input keys in sorted order
func (c *CommandSchema) InputNames() []string {
	names := make([]string, 0, len(c.Inputs))
	for name := range c.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBool reports whether the input is a flag without a value
func (i Input) IsBool() bool {
	return i.Type == InputTypeBool || i.Type == InputTypeBoolean
}

// DefaultValue returns the declared default and whether one was set
func (i Input) DefaultValue() (string, bool) {
	if i.Default == nil {
		return "", false
	}
	return *i.Default, true
}
