package workflow

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/samber/lo"

	"devbox_provision/pkg/task"
)

// InstallAnaconda downloads the Anaconda installer when it is not cached and
// runs it in batch mode into the install directory.
func (w *Workflow) InstallAnaconda(ctx context.Context, p AnacondaParams) error {
	if p.URL == "" {
		return errors.New("no anaconda installer url configured")
	}
	return guarded(ctx, w.exists(p.InstallDirectory), p.InstallDirectory, func() error {
		installer, err := w.download(ctx, p.URL, p.StorageDirectory)
		if err != nil {
			return err
		}
		cmd := fmt.Sprintf("bash %s -b -p %s", task.Quote(installer), task.Quote(p.InstallDirectory))
		if err := w.run(ctx, cmd); err != nil {
			return fmt.Errorf("running anaconda installer: %w", err)
		}
		return nil
	})
}

// CreateEnvironments creates one conda environment per interpreter, then
// installs the conda packages and the pip packages into it.
func (w *Workflow) CreateEnvironments(ctx context.Context, p EnvironmentsParams) error {
	conda := path.Join(p.AnacondaDirectory, "bin", "conda")
	activate := path.Join(p.AnacondaDirectory, "bin", "activate")

	names := lo.Keys(p.Interpreters)
	sort.Strings(names)

	for _, name := range names {
		version := p.Interpreters[name]
		directory := path.Join(p.AnacondaDirectory, "envs", name)

		err := guarded(ctx, w.exists(directory), directory, func() error {
			create := fmt.Sprintf("%s create --yes -n %s python=%s", task.Quote(conda), task.Quote(name), task.Quote(version))
			if err := w.run(ctx, create); err != nil {
				return err
			}

			inEnv := "source " + task.Quote(activate) + " " + task.Quote(name) + " && "
			if len(p.CondaPackages) > 0 {
				if err := w.run(ctx, inEnv+"conda install --yes "+task.QuoteAll(p.CondaPackages)); err != nil {
					return err
				}
			}
			if len(p.PipPackages) > 0 {
				if err := w.run(ctx, inEnv+"pip install "+task.QuoteAll(p.PipPackages)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("creating environment %s: %w", name, err)
		}
	}
	return nil
}
