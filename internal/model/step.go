package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Execution is either a CommandExecution or a ScriptExecution
type Execution interface {
	// Text returns the unresolved command line or script name
	Text() string
	isExecution()
}

// CommandExecution runs inline shell text
type CommandExecution struct {
	Command string
}

// ScriptExecution runs a file from the scripts directory
type ScriptExecution struct {
	Script string
}

func (c CommandExecution) Text() string { return c.Command }
func (CommandExecution) isExecution()   {}

func (s ScriptExecution) Text() string { return s.Script }
func (ScriptExecution) isExecution()   {}

type stepRunFields struct {
	Shell            string             `yaml:"shell,omitempty"`
	Environment      map[string]*string `yaml:"environment,omitempty"`
	WorkingDirectory *string            `yaml:"working_directory,omitempty"`
	Command          *string            `yaml:"command,omitempty"`
	Script           *string            `yaml:"script,omitempty"`
	Args             *Args              `yaml:"args,omitempty"`
}

// UnmarshalYAML implements custom YAML unmarshaling for StepRun.
// When both command and script are present the command wins; the
// validator reports the conflict.
func (r *StepRun) UnmarshalYAML(node *yaml.Node) error {
	var fields stepRunFields
	if err := node.Decode(&fields); err != nil {
		return err
	}

	r.Shell = fields.Shell
	r.Environment = fields.Environment
	r.WorkingDirectory = fields.WorkingDirectory
	r.Args = fields.Args

	switch {
	case fields.Command != nil:
		r.Execution = CommandExecution{Command: *fields.Command}
	case fields.Script != nil:
		r.Execution = ScriptExecution{Script: *fields.Script}
	default:
		r.Execution = nil
	}
	return nil
}

// UnmarshalYAML implements custom YAML unmarshaling for Args
// Handles both []string and map[string]string formats
func (a *Args) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("failed to decode args as string array: %w", err)
		}
		a.List = list
		return nil
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("failed to decode args as string map: %w", err)
		}
		a.Map = m
		return nil
	default:
		return fmt.Errorf("line %d: args must be either an array or a map of strings", node.Line)
	}
}

// IsList reports whether the args were given as an array
func (a Args) IsList() bool {
	return a.Map == nil
}
