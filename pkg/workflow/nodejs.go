package workflow

import (
	"context"
	"errors"
	"fmt"
	"path"

	"devbox_provision/pkg/task"
)

// NodejsDirectory returns the directory the source archive unpacks to.
func NodejsDirectory(p NodejsParams) string {
	return path.Join(p.StorageDirectory, trimArchiveExt(path.Base(p.URL)))
}

// InstallNodejsToolchain builds and installs Node.js from source, then the
// global npm packages.
func (w *Workflow) InstallNodejsToolchain(ctx context.Context, p NodejsParams) error {
	if p.URL == "" {
		return errors.New("no nodejs source url configured")
	}
	directory := NodejsDirectory(p)

	return guarded(ctx, w.exists(directory), directory, func() error {
		archive, err := w.download(ctx, p.URL, p.StorageDirectory)
		if err != nil {
			return err
		}
		if err := w.run(ctx, task.InDir(p.StorageDirectory, extractCommand(archive))); err != nil {
			return fmt.Errorf("unpacking %s: %w", archive, err)
		}
		for _, cmd := range []string{"./configure", "make"} {
			if err := w.run(ctx, task.InDir(directory, cmd)); err != nil {
				return fmt.Errorf("building nodejs: %w", err)
			}
		}
		if err := w.sudo(ctx, task.InDir(directory, "make install")); err != nil {
			return fmt.Errorf("installing nodejs: %w", err)
		}
		if len(p.GlobalPackages) > 0 {
			if err := w.sudo(ctx, "npm install -g "+task.QuoteAll(p.GlobalPackages)); err != nil {
				return fmt.Errorf("installing npm packages: %w", err)
			}
		}
		return nil
	})
}
