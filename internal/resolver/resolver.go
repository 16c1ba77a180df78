// Package resolver substitutes @{inputs.NAME} and ${ENV_VAR} references in
// command text and environment blocks.
package resolver

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/phillarmonic/mici/internal/model"
)

// MaxIterations bounds the passes ResolveEnvironment makes over pending entries
const MaxIterations = 10

// InputEnvPrefix prefixes the variables injected for every declared input
const InputEnvPrefix = "MICI_INPUT_"

var (
	inputsPattern = regexp.MustCompile(`@\{inputs\.([a-zA-Z_][a-zA-Z0-9_]*)\}`)
	envPattern    = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
)

// Matches exposes the CLI flags matched for the declared inputs, keyed by
// input name
type Matches interface {
	// Present reports whether the flag was given on the command line
	Present(name string) bool
	// Value returns the value given on the command line, if any
	Value(name string) (string, bool)
}

// LookupFunc reads a variable from the process environment
type LookupFunc func(name string) (string, bool)

// OSLookup reads from the live process environment
func OSLookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapLookup reads from an environment snapshot
func MapLookup(env map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

// InputValue returns the effective value of a declared input. Bool inputs
// are "true" when the flag is present, else their default or "false";
// other inputs take the CLI value, else the default, else "".
func InputValue(name string, input model.Input, m Matches) string {
	if input.IsBool() {
		if m != nil && m.Present(name) {
			return "true"
		}
		if def, ok := input.DefaultValue(); ok {
			return def
		}
		return "false"
	}

	if m != nil {
		if v, ok := m.Value(name); ok {
			return v
		}
	}
	if def, ok := input.DefaultValue(); ok {
		return def
	}
	return ""
}

// ResolveText replaces every @{inputs.NAME} in text. Unknown inputs
// resolve to the empty string.
func ResolveText(text string, inputs map[string]model.Input, m Matches) string {
	if !strings.Contains(text, "@{") {
		return text
	}

	return inputsPattern.ReplaceAllStringFunc(text, func(ref string) string {
		name := inputsPattern.FindStringSubmatch(ref)[1]
		input, ok := inputs[name]
		if !ok {
			return ""
		}
		return InputValue(name, input, m)
	})
}

// ResolveEnvironment resolves an environment block. Values may reference
// inputs and ${NAME}; NAME is looked up among the other entries of the
// block first, then in the process environment. Null entries are dropped.
//
// Entries are resolved in at most MaxIterations passes. When a pass makes
// no progress (a cycle, or a self reference) the remaining entries are
// resolved against the process environment only.
func ResolveEnvironment(env map[string]*string, inputs map[string]model.Input, m Matches, lookup LookupFunc) map[string]string {
	if lookup == nil {
		lookup = OSLookup
	}

	resolved := make(map[string]string, len(env))
	pending := make(map[string]string)

	for key, value := range env {
		if value == nil {
			continue
		}
		if strings.Contains(*value, "${") || strings.Contains(*value, "@{") {
			pending[key] = *value
		} else {
			resolved[key] = *value
		}
	}

	for iteration := 0; len(pending) > 0 && iteration < MaxIterations; iteration++ {
		progress := false

		for _, key := range sortedKeys(pending) {
			result := pending[key]

			// Inputs never depend on other entries, one pass is enough
			if iteration == 0 {
				result = ResolveText(result, inputs, m)
			}

			blocked := false
			result = envPattern.ReplaceAllStringFunc(result, func(ref string) string {
				name := envPattern.FindStringSubmatch(ref)[1]
				if v, ok := resolved[name]; ok {
					return v
				}
				if _, ok := pending[name]; ok {
					blocked = true
					return ref
				}
				v, _ := lookup(name)
				return v
			})

			if blocked {
				pending[key] = result
				continue
			}

			resolved[key] = result
			delete(pending, key)
			progress = true
		}

		if !progress {
			break
		}
	}

	// Whatever is left is circular or too deep; fall back to the process
	// environment only
	for key, value := range pending {
		resolved[key] = envPattern.ReplaceAllStringFunc(value, func(ref string) string {
			v, _ := lookup(envPattern.FindStringSubmatch(ref)[1])
			return v
		})
	}

	return resolved
}

// InputEnvironment returns one MICI_INPUT_<NAME> variable per declared input
func InputEnvironment(inputs map[string]model.Input, m Matches) map[string]string {
	env := make(map[string]string, len(inputs))
	for name, input := range inputs {
		env[InputEnvPrefix+strings.ToUpper(name)] = InputValue(name, input, m)
	}
	return env
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic pass order; a key promoted earlier in a pass is visible
	// to later keys in the same pass
	sort.Strings(keys)
	return keys
}
