package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"devbox_provision/pkg/log"
)

// Task is a named, independently invocable provisioning operation running with
// the parameters derived from the workflow configuration.
type Task struct {
	Name        string
	Description string
	Run         func(ctx context.Context, w *Workflow) error
}

// Tasks returns every task in the order a fresh box is provisioned. The order
// is advisory; nothing checks that a task's prerequisites ran.
func Tasks() []Task {
	return []Task{
		{
			Name:        "system-update",
			Description: "Refresh the package index and apply unattended upgrades once.",
			Run: func(ctx context.Context, w *Workflow) error {
				return w.SystemUpdate(ctx, NewSystemUpdateParams(w.config))
			},
		},
		{
			Name:        "install-required-packages",
			Description: "Install the required system packages.",
			Run: func(ctx context.Context, w *Workflow) error {
				return w.InstallRequiredPackages(ctx, NewPackagesParams(w.config))
			},
		},
		{
			Name:        "install-anaconda",
			Description: "Download and install the Anaconda distribution.",
			Run: func(ctx context.Context, w *Workflow) error {
				return w.InstallAnaconda(ctx, NewAnacondaParams(w.config))
			},
		},
		{
			Name:        "clone-repositories",
			Description: "Clone the project repositories into the workspace.",
			Run: func(ctx context.Context, w *Workflow) error {
				return w.CloneRepositories(ctx, NewCloneParams(w.config))
			},
		},
		{
			Name:        "create-bash-profile-file",
			Description: "Write the .bash_profile exporting PATH and PYTHONPATH.",
			Run: func(ctx context.Context, w *Workflow) error {
				return w.CreateBashProfileFile(ctx, NewProfileParams(w.config))
			},
		},
		{
			Name:        "source-bash-profile-file",
			Description: "Source the .bash_profile in the remote shell.",
			Run: func(ctx context.Context, w *Workflow) error {
				return w.SourceBashProfileFile(ctx, NewProfileParams(w.config))
			},
		},
		{
			Name:        "create-environments",
			Description: "Create the conda environments and install their packages.",
			Run: func(ctx context.Context, w *Workflow) error {
				return w.CreateEnvironments(ctx, NewEnvironmentsParams(w.config))
			},
		},
		{
			Name:        "configure-website",
			Description: "Serve the locally built website with apache.",
			Run: func(ctx context.Context, w *Workflow) error {
				return w.ConfigureWebsite(ctx, NewWebsiteParams(w.config))
			},
		},
		{
			Name:        "install-openimageio",
			Description: "Build OpenImageIO from source.",
			Run: func(ctx context.Context, w *Workflow) error {
				return w.InstallOpenImageIO(ctx, NewOpenImageIOParams(w.config))
			},
		},
		{
			Name:        "install-nodejs-toolchain",
			Description: "Build Node.js from source and install the global npm packages.",
			Run: func(ctx context.Context, w *Workflow) error {
				return w.InstallNodejsToolchain(ctx, NewNodejsParams(w.config))
			},
		},
	}
}

// Lookup returns the task registered under name.
func Lookup(name string) (Task, bool) {
	return lo.Find(Tasks(), func(t Task) bool { return t.Name == name })
}

// Execute runs fn as the named task, logging its start, outcome and duration.
func (w *Workflow) Execute(ctx context.Context, name string, fn func(context.Context) error) error {
	l := log.L().With("task", name)
	l.Info(fmt.Sprintf("--- Starting %s ---", name))
	start := time.Now()

	if err := fn(ctx); err != nil {
		l.Error("task failed", "duration", time.Since(start).Round(time.Millisecond), "error", err)
		return fmt.Errorf("task %s failed: %w", name, err)
	}

	l.Info(fmt.Sprintf("--- %s complete ---", name), "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// RunTasks runs the named tasks in order and stops at the first failure.
func (w *Workflow) RunTasks(ctx context.Context, names ...string) error {
	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		t, ok := Lookup(name)
		if !ok {
			return fmt.Errorf("unknown task %q", name)
		}
		tasks = append(tasks, t)
	}
	for i, t := range tasks {
		log.L().Info(fmt.Sprintf("[%d/%d] %s", i+1, len(tasks), t.Name))
		if err := w.Execute(ctx, t.Name, func(ctx context.Context) error { return t.Run(ctx, w) }); err != nil {
			return err
		}
	}
	return nil
}

// TaskNames returns the names of every task in provisioning order.
func TaskNames() []string {
	return lo.Map(Tasks(), func(t Task, _ int) string { return t.Name })
}
