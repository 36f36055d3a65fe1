package workflow

import (
	"context"
	"fmt"

	"devbox_provision/pkg/config"
	"devbox_provision/pkg/task"
)

// ProfileLines returns the lines CreateBashProfileFile writes, in order.
func ProfileLines(p ProfileParams) []string {
	return []string{
		"source " + p.RCFile,
		"export PATH=" + p.BinDirectory + ":$PATH",
		"export PYTHONPATH=" + config.JoinPythonPath(p.Repositories) + ":$PYTHONPATH",
	}
}

// CreateBashProfileFile writes the profile file when it does not exist.
func (w *Workflow) CreateBashProfileFile(ctx context.Context, p ProfileParams) error {
	return guarded(ctx, w.exists(p.File), p.File, func() error {
		for _, line := range ProfileLines(p) {
			if err := w.host.Append(ctx, p.File, line); err != nil {
				return fmt.Errorf("writing %s: %w", p.File, err)
			}
		}
		return nil
	})
}

// SourceBashProfileFile sources the profile file when it exists.
func (w *Workflow) SourceBashProfileFile(ctx context.Context, p ProfileParams) error {
	present, err := w.host.Exists(ctx, p.File)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}
	if err := w.run(ctx, "source "+task.Quote(p.File)); err != nil {
		return fmt.Errorf("sourcing %s: %w", p.File, err)
	}
	return nil
}
