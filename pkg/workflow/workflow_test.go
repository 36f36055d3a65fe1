package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devbox_provision/pkg/config"
	"devbox_provision/pkg/task"
	"devbox_provision/pkg/task/tasktest"
)

func newTestWorkflow(t *testing.T) (*Workflow, *tasktest.Fake) {
	t.Helper()
	fake := tasktest.New()
	return NewWorkflow(config.Default(), fake), fake
}

func TestTrimArchiveExt(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Release-1.5.21.zip", "Release-1.5.21"},
		{"node-v0.12.9.tar.gz", "node-v0.12.9"},
		{"boost.tar.bz2", "boost"},
		{"source.tgz", "source"},
		{"Anaconda3-2.4.0-Linux-x86_64.sh", "Anaconda3-2.4.0-Linux-x86_64.sh"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, trimArchiveExt(tt.input))
		})
	}
}

func TestExtractCommand(t *testing.T) {
	assert.Equal(t, "unzip /vagrant/tmp/Release-1.5.21.zip", extractCommand("/vagrant/tmp/Release-1.5.21.zip"))
	assert.Equal(t, "tar -xvf /vagrant/tmp/node-v0.12.9.tar.gz", extractCommand("/vagrant/tmp/node-v0.12.9.tar.gz"))
}

// guardPaths marks the effect of every guarded task as present.
func guardPaths(cfg *config.Config, fake *tasktest.Fake) {
	fake.AddPath(cfg.UpdateMarker, cfg.Directories.Anaconda, cfg.Profile.File)
	for _, name := range cfg.InterpreterNames() {
		fake.AddPath(cfg.EnvironmentDirectory(name))
	}
	for _, name := range cfg.RepositoryNames() {
		fake.AddPath(cfg.Repositories[name].Directory)
	}
	fake.AddLink(cfg.Website.DocumentRoot)
	fake.AddPath(OpenImageIODirectory(NewOpenImageIOParams(cfg)))
	fake.AddPath(NodejsDirectory(NewNodejsParams(cfg)))
}

func TestGuardsSkipActions(t *testing.T) {
	for _, tk := range Tasks() {
		if tk.Name == "install-required-packages" || tk.Name == "source-bash-profile-file" {
			continue
		}
		t.Run(tk.Name, func(t *testing.T) {
			w, fake := newTestWorkflow(t)
			guardPaths(w.Config(), fake)

			require.NoError(t, tk.Run(context.Background(), w))
			assert.Empty(t, fake.Mutations())
			assert.NotEmpty(t, fake.Calls, "the guard must be checked")
		})
	}
}

// simulate registers the effects the real commands have on the host, so a
// second run observes the state the first one produced.
func simulate(cfg *config.Config, fake *tasktest.Fake) {
	fake.OnCommand("touch "+cfg.UpdateMarker, cfg.UpdateMarker)

	anaconda := NewAnacondaParams(cfg)
	fake.OnCommand("wget -P /vagrant/tmp "+anaconda.URL, "/vagrant/tmp/Anaconda3-2.4.0-Linux-x86_64.sh")
	fake.OnCommand("-b -p "+anaconda.InstallDirectory, anaconda.InstallDirectory)

	for _, name := range cfg.InterpreterNames() {
		fake.OnCommand("create --yes -n "+name+" ", cfg.EnvironmentDirectory(name))
	}
	for _, name := range cfg.RepositoryNames() {
		repository := cfg.Repositories[name]
		fake.OnCommand("git clone "+repository.URL+" ", repository.Directory)
	}
	fake.OnCommandLink("ln -fs "+cfg.Website.LocalDirectory+" "+cfg.Website.DocumentRoot, cfg.Website.DocumentRoot)

	oiio := NewOpenImageIOParams(cfg)
	fake.OnCommand("wget -P /vagrant/tmp "+oiio.URL, "/vagrant/tmp/Release-1.5.21.zip")
	fake.OnCommand("unzip /vagrant/tmp/Release-1.5.21.zip", OpenImageIODirectory(oiio))

	nodejs := NewNodejsParams(cfg)
	fake.OnCommand("wget -P /vagrant/tmp "+nodejs.URL, "/vagrant/tmp/node-v0.12.9.tar.gz")
	fake.OnCommand("tar -xvf /vagrant/tmp/node-v0.12.9.tar.gz", NodejsDirectory(nodejs))
}

func TestRunTasksIdempotent(t *testing.T) {
	w, fake := newTestWorkflow(t)
	cfg := w.Config()
	simulate(cfg, fake)
	ctx := context.Background()

	require.NoError(t, w.RunTasks(ctx, TaskNames()...))
	first := fake.Commands()
	assert.Contains(t, first, "wget -P /vagrant/tmp "+cfg.Softwares[config.SoftwareAnaconda])
	assert.Len(t, fake.Ops(tasktest.OpAppend), 3)

	fake.Reset()
	require.NoError(t, w.RunTasks(ctx, TaskNames()...))

	// Only the unguarded steps repeat.
	var expected []string
	for _, pkg := range cfg.Packages {
		expected = append(expected, "apt-get install --yes "+task.Quote(pkg))
	}
	expected = append(expected, "source /home/vagrant/.bash_profile")
	assert.Equal(t, expected, fake.Commands())
	assert.Empty(t, fake.Ops(tasktest.OpAppend))
	assert.Len(t, fake.Lines(cfg.Profile.File), 3)
}

func TestRunTasksStopsAtFirstFailure(t *testing.T) {
	w, fake := newTestWorkflow(t)
	fake.FailOn("apt-get update", 100)

	err := w.RunTasks(context.Background(), "system-update", "install-required-packages")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task system-update failed")

	var exitErr *task.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 100, exitErr.Status)
	assert.Equal(t, []string{"apt-get update --yes"}, fake.Commands())
}

func TestRunTasksUnknown(t *testing.T) {
	w, fake := newTestWorkflow(t)

	err := w.RunTasks(context.Background(), "system-update", "install-blender")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown task "install-blender"`)
	assert.Empty(t, fake.Calls)
}

func TestRegistry(t *testing.T) {
	names := TaskNames()
	assert.Len(t, names, 10)
	assert.Equal(t, "system-update", names[0])

	seen := map[string]bool{}
	for _, tk := range Tasks() {
		assert.False(t, seen[tk.Name], "duplicate task %s", tk.Name)
		seen[tk.Name] = true
		assert.NotEmpty(t, tk.Description)
		assert.NotNil(t, tk.Run)
	}

	_, ok := Lookup("configure-website")
	assert.True(t, ok)
	_, ok = Lookup("configure_website")
	assert.False(t, ok)
}
