package runner

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Confirmer asks whether a command may proceed
type Confirmer func(ctx context.Context) (bool, error)

// ParseConfirmation interprets a piped confirmation value. valid is false
// for anything outside y|yes|true|1 and n|no|false|0.
func ParseConfirmation(value string) (confirmed, valid bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes", "true", "1":
		return true, true
	case "n", "no", "false", "0":
		return false, true
	default:
		return false, false
	}
}

// PipedConfirmer reads a single line from r
func PipedConfirmer(r io.Reader, logger *slog.Logger) Confirmer {
	return func(ctx context.Context) (bool, error) {
		logger.Info("command confirmation is piped into the command")

		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && !stderrors.Is(err, io.EOF) {
			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}

		value := strings.ToLower(strings.TrimSpace(line))
		confirmed, valid := ParseConfirmation(value)
		if !valid {
			logger.Warn("piped confirmation value is invalid",
				"value", value,
				"accepted", "y|yes|true|1 or n|no|false|0")
			return false, nil
		}

		logger.Debug("piped confirmation", "value", value, "confirmed", confirmed)
		return confirmed, nil
	}
}

// PromptConfirmer asks with an interactive yes/no prompt
func PromptConfirmer(out io.Writer) Confirmer {
	return func(ctx context.Context) (bool, error) {
		fmt.Fprintln(out, "> This command requires your confirmation!")

		var confirmed bool
		confirm := huh.NewConfirm().
			Title("Do you want to continue with the execution?").
			Affirmative("Yes").
			Negative("No").
			Value(&confirmed)

		form := huh.NewForm(huh.NewGroup(confirm))
		if err := form.RunWithContext(ctx); err != nil {
			if stderrors.Is(err, huh.ErrUserAborted) {
				return false, nil
			}
			return false, fmt.Errorf("prompt failed: %w", err)
		}

		return confirmed, nil
	}
}

// StdinConfirmer prompts when in is a terminal and reads a piped line
// otherwise
func StdinConfirmer(in *os.File, out io.Writer, logger *slog.Logger) Confirmer {
	return func(ctx context.Context) (bool, error) {
		if term.IsTerminal(int(in.Fd())) {
			return PromptConfirmer(out)(ctx)
		}
		return PipedConfirmer(in, logger)(ctx)
	}
}
