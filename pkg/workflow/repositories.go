package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"devbox_provision/pkg/task"
)

// CloneRepositories clones every repository whose checkout is missing and
// renames its origin remote to upstream.
func (w *Workflow) CloneRepositories(ctx context.Context, p CloneParams) error {
	names := lo.Keys(p.Repositories)
	sort.Strings(names)

	for _, name := range names {
		repository := p.Repositories[name]
		err := guarded(ctx, w.exists(repository.Directory), repository.Directory, func() error {
			clone := "git clone " + task.Quote(repository.URL) + " " + task.Quote(repository.Directory)
			if err := w.run(ctx, task.InDir(p.Workspace, clone)); err != nil {
				return err
			}
			return w.run(ctx, task.InDir(repository.Directory, "git remote rename origin upstream"))
		})
		if err != nil {
			return fmt.Errorf("cloning %s: %w", name, err)
		}
	}
	return nil
}
