package workflow

import (
	"context"
	"fmt"

	"devbox_provision/pkg/task"
)

// SystemUpdate refreshes the package index and applies unattended upgrades
// once; the marker file records completion.
func (w *Workflow) SystemUpdate(ctx context.Context, p SystemUpdateParams) error {
	return guarded(ctx, w.exists(p.Marker), p.Marker, func() error {
		steps := []string{
			"apt-get update --yes",
			"apt-get install --yes unattended-upgrades",
			"unattended-upgrade",
		}
		for _, cmd := range steps {
			if err := w.sudo(ctx, cmd); err != nil {
				return fmt.Errorf("system update: %w", err)
			}
		}
		if err := w.run(ctx, "touch "+task.Quote(p.Marker)); err != nil {
			return fmt.Errorf("writing update marker: %w", err)
		}
		return nil
	})
}

// InstallRequiredPackages installs every package through apt-get, one command
// per package, in list order.
func (w *Workflow) InstallRequiredPackages(ctx context.Context, p PackagesParams) error {
	for _, pkg := range p.Packages {
		if err := w.sudo(ctx, "apt-get install --yes "+task.Quote(pkg)); err != nil {
			return fmt.Errorf("installing package %s: %w", pkg, err)
		}
	}
	return nil
}
