package task

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// probePrefix starts every read-only existence check issued by Shell.
const probePrefix = "test "

// DryRunRunner is a mock runner for --dry-run mode. Mutating commands are only
// printed. Existence checks go to Probe when set, otherwise every checked path
// is reported absent so the full command sequence is shown.
type DryRunRunner struct {
	Host  string
	Probe Runner
	Out   io.Writer
}

func (r *DryRunRunner) Run(ctx context.Context, cmd string) (string, error) {
	if strings.HasPrefix(cmd, probePrefix) {
		if r.Probe != nil {
			return r.Probe.Run(ctx, cmd)
		}
		return "", &ExitError{Command: cmd, Status: 1}
	}
	fmt.Fprintf(r.out(), "[DRY-RUN] Would run command on %s: %s\n", r.Host, cmd)
	return "", nil
}

func (r *DryRunRunner) Close() error {
	if r.Probe != nil {
		return r.Probe.Close()
	}
	return nil
}

func (r *DryRunRunner) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}
