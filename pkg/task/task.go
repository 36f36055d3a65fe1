package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/alessio/shellescape"
)

// Runner transports raw commands to one target host.
type Runner interface {
	// Run executes cmd and returns its combined output. A non-zero exit
	// status is reported as *ExitError.
	Run(ctx context.Context, cmd string) (string, error)
	Close() error
}

// Host is everything a provisioning task needs from the target host.
type Host interface {
	// Run executes cmd as the connecting user.
	Run(ctx context.Context, cmd string) (string, error)
	// Sudo executes cmd with elevated privileges.
	Sudo(ctx context.Context, cmd string) (string, error)
	// Exists reports whether path exists (a dangling symlink counts).
	Exists(ctx context.Context, path string) (bool, error)
	// IsLink reports whether path is a symbolic link.
	IsLink(ctx context.Context, path string) (bool, error)
	// Append adds line to the file at path unless the file already holds it.
	Append(ctx context.Context, path, line string) error
}

// ExitError is returned when a remote command exits with a non-zero status.
type ExitError struct {
	Command string
	Status  int
	Output  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", e.Command, e.Status)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// InDir prefixes cmd with a change into dir.
func InDir(dir, cmd string) string {
	return "cd " + shellescape.Quote(dir) + " && " + cmd
}

// Quote quotes s for the remote shell.
func Quote(s string) string {
	return shellescape.Quote(s)
}

// QuoteAll quotes every word of words and joins them with spaces.
func QuoteAll(words []string) string {
	return shellescape.QuoteCommand(words)
}
