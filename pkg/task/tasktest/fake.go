// Package tasktest provides an in-memory task.Host for exercising provisioning
// tasks without a remote connection.
package tasktest

import (
	"context"
	"slices"
	"strings"

	"devbox_provision/pkg/task"
)

// Op names one Host operation.
type Op string

const (
	OpRun    Op = "run"
	OpSudo   Op = "sudo"
	OpExists Op = "exists"
	OpIsLink Op = "is_link"
	OpAppend Op = "append"
)

// Call is one recorded Host operation.
type Call struct {
	Op      Op
	Command string
	Path    string
	Line    string
}

type effect struct {
	match   string
	creates []string
	links   []string
}

type failure struct {
	match  string
	status int
}

// Fake is a task.Host backed by a set of existing paths. Commands do nothing
// unless an effect is registered for them with OnCommand or OnCommandLink.
type Fake struct {
	paths    map[string]bool
	links    map[string]bool
	files    map[string][]string
	effects  []effect
	failures []failure

	Calls []Call
}

var _ task.Host = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		paths: map[string]bool{},
		links: map[string]bool{},
		files: map[string][]string{},
	}
}

// AddPath marks paths as existing on the host.
func (f *Fake) AddPath(paths ...string) {
	for _, p := range paths {
		f.paths[p] = true
	}
}

// AddLink marks paths as existing symbolic links.
func (f *Fake) AddLink(paths ...string) {
	for _, p := range paths {
		f.paths[p] = true
		f.links[p] = true
	}
}

// OnCommand makes every successful command containing match create paths.
func (f *Fake) OnCommand(match string, creates ...string) {
	f.effects = append(f.effects, effect{match: match, creates: creates})
}

// OnCommandLink makes every successful command containing match create the
// symbolic links.
func (f *Fake) OnCommandLink(match string, links ...string) {
	f.effects = append(f.effects, effect{match: match, links: links})
}

// FailOn makes every command containing match exit with status.
func (f *Fake) FailOn(match string, status int) {
	f.failures = append(f.failures, failure{match: match, status: status})
}

// Lines returns the lines appended to the file at path.
func (f *Fake) Lines(path string) []string {
	return slices.Clone(f.files[path])
}

// Commands returns every command issued through Run or Sudo, in order.
func (f *Fake) Commands() []string {
	var cmds []string
	for _, c := range f.Calls {
		if c.Op == OpRun || c.Op == OpSudo {
			cmds = append(cmds, c.Command)
		}
	}
	return cmds
}

// Ops returns the recorded calls of the given kind.
func (f *Fake) Ops(op Op) []Call {
	var calls []Call
	for _, c := range f.Calls {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}

// Mutations returns every call changing the host: commands and appends.
func (f *Fake) Mutations() []Call {
	var calls []Call
	for _, c := range f.Calls {
		if c.Op != OpExists && c.Op != OpIsLink {
			calls = append(calls, c)
		}
	}
	return calls
}

// Reset forgets the recorded calls but keeps the host state.
func (f *Fake) Reset() {
	f.Calls = nil
}

func (f *Fake) Run(_ context.Context, cmd string) (string, error) {
	return f.exec(OpRun, cmd)
}

func (f *Fake) Sudo(_ context.Context, cmd string) (string, error) {
	return f.exec(OpSudo, cmd)
}

func (f *Fake) Exists(_ context.Context, path string) (bool, error) {
	f.Calls = append(f.Calls, Call{Op: OpExists, Path: path})
	return f.paths[path], nil
}

func (f *Fake) IsLink(_ context.Context, path string) (bool, error) {
	f.Calls = append(f.Calls, Call{Op: OpIsLink, Path: path})
	return f.links[path], nil
}

func (f *Fake) Append(_ context.Context, path, line string) error {
	f.Calls = append(f.Calls, Call{Op: OpAppend, Path: path, Line: line})
	for _, fl := range f.failures {
		if strings.Contains(line, fl.match) {
			return &task.ExitError{Command: "append " + path, Status: fl.status}
		}
	}
	f.paths[path] = true
	if !slices.Contains(f.files[path], line) {
		f.files[path] = append(f.files[path], line)
	}
	return nil
}

func (f *Fake) exec(op Op, cmd string) (string, error) {
	f.Calls = append(f.Calls, Call{Op: op, Command: cmd})
	for _, fl := range f.failures {
		if strings.Contains(cmd, fl.match) {
			return "", &task.ExitError{Command: cmd, Status: fl.status}
		}
	}
	for _, e := range f.effects {
		if !strings.Contains(cmd, e.match) {
			continue
		}
		f.AddPath(e.creates...)
		f.AddLink(e.links...)
	}
	return "", nil
}
