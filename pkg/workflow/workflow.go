// Package workflow implements the provisioning tasks of the development box.
//
// Every task is a sequence of remote commands behind existence guards: a step
// whose effect is already present on the host is skipped, so any task can be
// re-run after a failure. The first failing command aborts the task.
package workflow

import (
	"context"
	"fmt"
	"path"
	"strings"

	"devbox_provision/pkg/config"
	"devbox_provision/pkg/log"
	"devbox_provision/pkg/task"
)

// Workflow runs tasks against one host.
type Workflow struct {
	config *config.Config
	host   task.Host
}

func NewWorkflow(cfg *config.Config, host task.Host) *Workflow {
	return &Workflow{config: cfg, host: host}
}

// Config returns the configuration the default task parameters are built from.
func (w *Workflow) Config() *config.Config {
	return w.config
}

// guarded runs action unless check reports the effect present.
func guarded(ctx context.Context, check func(context.Context) (bool, error), what string, action func() error) error {
	present, err := check(ctx)
	if err != nil {
		return err
	}
	if present {
		log.L().Info("already present, skipping", "what", what)
		return nil
	}
	return action()
}

func (w *Workflow) exists(p string) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) { return w.host.Exists(ctx, p) }
}

func (w *Workflow) isLink(p string) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) { return w.host.IsLink(ctx, p) }
}

func (w *Workflow) run(ctx context.Context, cmd string) error {
	_, err := w.host.Run(ctx, cmd)
	return err
}

func (w *Workflow) sudo(ctx context.Context, cmd string) error {
	_, err := w.host.Sudo(ctx, cmd)
	return err
}

// download fetches url into directory unless the file is already cached there,
// and returns the local path.
func (w *Workflow) download(ctx context.Context, url, directory string) (string, error) {
	target := path.Join(directory, path.Base(url))
	err := guarded(ctx, w.exists(target), target, func() error {
		if err := w.run(ctx, "wget -P "+task.Quote(directory)+" "+task.Quote(url)); err != nil {
			return fmt.Errorf("downloading %s: %w", url, err)
		}
		return nil
	})
	return target, err
}

var archiveExtensions = []string{".tar.gz", ".tgz", ".tar.bz2", ".tar.xz", ".tar", ".zip"}

// trimArchiveExt strips a known archive extension from name.
func trimArchiveExt(name string) string {
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// extractCommand returns the command unpacking archive in the current directory.
func extractCommand(archive string) string {
	if strings.HasSuffix(archive, ".zip") {
		return "unzip " + task.Quote(archive)
	}
	return "tar -xvf " + task.Quote(archive)
}
