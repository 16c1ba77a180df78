package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Result represents the result of a step process
type Result struct {
	Shell    string        // The shell that was spawned
	Args     []string      // Arguments passed to the shell
	ExitCode int           // Exit code of the process
	Stdout   []byte        // Captured standard output, verbatim
	Stderr   []byte        // Captured standard error, verbatim
	Duration time.Duration // How long the process ran
	Success  bool          // Whether the process exited 0
}

// Options configures process execution
type Options struct {
	Shell       string    // Shell to spawn (default: DefaultShell)
	WorkingDir  string    // Working directory for the process
	Environment []string  // Complete KEY=VALUE environment (nil = inherit)
	Stdout      io.Writer // Where captured stdout is forwarded (nil = discard)
	Stderr      io.Writer // Where captured stderr is forwarded (nil = discard)
}

// DefaultShell returns the platform shell used when a step names none
func DefaultShell() string {
	if runtime.GOOS == "windows" {
		return "powershell"
	}
	return "bash"
}

// InvocationFlag returns the flag that makes shell run its next argument
// as a command string
func InvocationFlag(shell string) string {
	name := strings.TrimSuffix(strings.ToLower(filepath.Base(shell)), ".exe")

	switch name {
	case "bash", "sh", "zsh", "fish":
		return "-c"
	case "powershell", "pwsh":
		return "-Command"
	case "cmd":
		return "/c"
	default:
		return "-c"
	}
}

// DefaultOptions returns options for the platform shell, inheriting the
// process environment and forwarding output to the standard streams
func DefaultOptions() *Options {
	return &Options{
		Shell:  DefaultShell(),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Execute runs command through the shell's invocation flag
func Execute(ctx context.Context, command string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	shell := opts.Shell
	if shell == "" {
		shell = DefaultShell()
	}
	return run(ctx, shell, []string{InvocationFlag(shell), command}, opts)
}

// ExecuteScript runs the script file at path with the shell. No
// invocation flag is passed.
func ExecuteScript(ctx context.Context, path string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	shell := opts.Shell
	if shell == "" {
		shell = DefaultShell()
	}
	return run(ctx, shell, []string{path}, opts)
}

func run(ctx context.Context, shell string, args []string, opts *Options) (*Result, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, shell, args...)

	// Steps are not interactive
	cmd.Stdin = nil

	if opts.WorkingDir != "" {
		cmd.Dir = opts.WorkingDir
	}
	if opts.Environment != nil {
		cmd.Env = opts.Environment
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	result := &Result{
		Shell: shell,
		Args:  args,
	}

	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdoutBuf.Bytes()
	result.Stderr = stderrBuf.Bytes()

	if err != nil {
		var exitError *exec.ExitError
		if !errors.As(err, &exitError) {
			return nil, fmt.Errorf("failed to start %s: %w", shell, err)
		}
		result.ExitCode = exitError.ExitCode()
		// Killed by a signal
		if result.ExitCode < 0 {
			result.ExitCode = 1
		}
	}
	result.Success = result.ExitCode == 0

	if err := forward(opts.Stdout, result.Stdout); err != nil {
		return result, fmt.Errorf("failed to forward stdout: %w", err)
	}
	if err := forward(opts.Stderr, result.Stderr); err != nil {
		return result, fmt.Errorf("failed to forward stderr: %w", err)
	}

	return result, nil
}

func forward(w io.Writer, data []byte) error {
	if w == nil || len(data) == 0 {
		return nil
	}
	_, err := w.Write(data)
	return err
}

// MergeEnvironment renders layers of variables as a KEY=VALUE list. Later
// layers override earlier ones; keys keep the order of first appearance.
func MergeEnvironment(layers ...map[string]string) []string {
	index := make(map[string]int)
	var env []string

	for _, layer := range layers {
		for _, key := range sortedKeys(layer) {
			entry := key + "=" + layer[key]
			if i, ok := index[key]; ok {
				env[i] = entry
				continue
			}
			index[key] = len(env)
			env = append(env, entry)
		}
	}

	return env
}

// EnvironmentMap parses a KEY=VALUE list such as os.Environ()
func EnvironmentMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
