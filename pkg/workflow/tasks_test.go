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

func TestSystemUpdate(t *testing.T) {
	w, fake := newTestWorkflow(t)
	p := NewSystemUpdateParams(w.Config())
	fake.OnCommand("touch", p.Marker)

	require.NoError(t, w.SystemUpdate(context.Background(), p))
	assert.Equal(t, []string{
		"apt-get update --yes",
		"apt-get install --yes unattended-upgrades",
		"unattended-upgrade",
		"touch /home/vagrant/.system_updated",
	}, fake.Commands())
	assert.Len(t, fake.Ops(tasktest.OpSudo), 3)

	fake.Reset()
	require.NoError(t, w.SystemUpdate(context.Background(), p))
	assert.Empty(t, fake.Commands())
}

func TestInstallRequiredPackages(t *testing.T) {
	w, fake := newTestWorkflow(t)
	p := PackagesParams{Packages: []string{"git", "make", "wget"}}

	require.NoError(t, w.InstallRequiredPackages(context.Background(), p))
	assert.Equal(t, []string{
		"apt-get install --yes git",
		"apt-get install --yes make",
		"apt-get install --yes wget",
	}, fake.Commands())
	assert.Len(t, fake.Ops(tasktest.OpSudo), 3)
}

func TestInstallRequiredPackagesFailure(t *testing.T) {
	w, fake := newTestWorkflow(t)
	fake.FailOn("--yes make", 100)
	p := PackagesParams{Packages: []string{"git", "make", "wget"}}

	err := w.InstallRequiredPackages(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "installing package make")

	var exitErr *task.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 100, exitErr.Status)
	assert.Equal(t, []string{"apt-get install --yes git", "apt-get install --yes make"}, fake.Commands())
}

func TestInstallAnaconda(t *testing.T) {
	t.Run("downloads missing installer", func(t *testing.T) {
		w, fake := newTestWorkflow(t)
		require.NoError(t, w.InstallAnaconda(context.Background(), NewAnacondaParams(w.Config())))
		assert.Equal(t, []string{
			"wget -P /vagrant/tmp https://repo.continuum.io/archive/Anaconda3-2.4.0-Linux-x86_64.sh",
			"bash /vagrant/tmp/Anaconda3-2.4.0-Linux-x86_64.sh -b -p /home/vagrant/anaconda3",
		}, fake.Commands())
	})

	t.Run("reuses cached installer", func(t *testing.T) {
		w, fake := newTestWorkflow(t)
		fake.AddPath("/vagrant/tmp/Anaconda3-2.4.0-Linux-x86_64.sh")
		require.NoError(t, w.InstallAnaconda(context.Background(), NewAnacondaParams(w.Config())))
		assert.Equal(t, []string{
			"bash /vagrant/tmp/Anaconda3-2.4.0-Linux-x86_64.sh -b -p /home/vagrant/anaconda3",
		}, fake.Commands())
	})

	t.Run("download failure stops before install", func(t *testing.T) {
		w, fake := newTestWorkflow(t)
		fake.FailOn("wget", 4)
		err := w.InstallAnaconda(context.Background(), NewAnacondaParams(w.Config()))
		require.Error(t, err)
		assert.Len(t, fake.Commands(), 1)
	})

	t.Run("missing url", func(t *testing.T) {
		w, fake := newTestWorkflow(t)
		err := w.InstallAnaconda(context.Background(), AnacondaParams{StorageDirectory: "/vagrant/tmp", InstallDirectory: "/opt/anaconda"})
		require.Error(t, err)
		assert.Empty(t, fake.Calls)
	})
}

func TestCreateBashProfileFile(t *testing.T) {
	w, fake := newTestWorkflow(t)
	p := NewProfileParams(w.Config())
	ctx := context.Background()

	require.NoError(t, w.CreateBashProfileFile(ctx, p))

	appends := fake.Ops(tasktest.OpAppend)
	require.Len(t, appends, 3)
	expected := []string{
		"source /home/vagrant/.bashrc",
		"export PATH=/home/vagrant/anaconda3/envs/python2.7/bin:$PATH",
		"export PYTHONPATH=/colour-science/colour:$PYTHONPATH",
	}
	for i, call := range appends {
		assert.Equal(t, "/home/vagrant/.bash_profile", call.Path)
		assert.Equal(t, expected[i], call.Line)
	}

	fake.Reset()
	require.NoError(t, w.CreateBashProfileFile(ctx, p))
	assert.Empty(t, fake.Ops(tasktest.OpAppend))
	assert.Equal(t, expected, fake.Lines(p.File))
}

func TestProfileLinesPythonPath(t *testing.T) {
	p := ProfileParams{
		RCFile:       "/home/dev/.bashrc",
		BinDirectory: "/opt/env/bin",
		Repositories: map[string]config.Repository{
			"lib-b": {Directory: "/ws/lib-b", AddToPythonPath: true},
			"site":  {Directory: "/ws/site"},
			"lib-a": {Directory: "/ws/lib-a", AddToPythonPath: true},
		},
	}
	lines := ProfileLines(p)
	require.Len(t, lines, 3)
	assert.Equal(t, "export PYTHONPATH=/ws/lib-a:/ws/lib-b:$PYTHONPATH", lines[2])
	assert.NotContains(t, lines[2], "/ws/site")
}

func TestSourceBashProfileFile(t *testing.T) {
	w, fake := newTestWorkflow(t)
	p := NewProfileParams(w.Config())

	require.NoError(t, w.SourceBashProfileFile(context.Background(), p))
	assert.Empty(t, fake.Commands())

	fake.AddPath(p.File)
	require.NoError(t, w.SourceBashProfileFile(context.Background(), p))
	assert.Equal(t, []string{"source /home/vagrant/.bash_profile"}, fake.Commands())
}

func TestCreateEnvironments(t *testing.T) {
	w, fake := newTestWorkflow(t)
	cfg := w.Config()
	fake.AddPath(cfg.EnvironmentDirectory("python3.5"))

	require.NoError(t, w.CreateEnvironments(context.Background(), NewEnvironmentsParams(cfg)))
	assert.Equal(t, []string{
		"/home/vagrant/anaconda3/bin/conda create --yes -n python2.7 python=2.7",
		"source /home/vagrant/anaconda3/bin/activate python2.7 && conda install --yes matplotlib numpy scipy ipython-notebook",
		"source /home/vagrant/anaconda3/bin/activate python2.7 && pip install coverage flake8 mock nose nikola 'nikola[extras]'",
	}, fake.Commands())
}

func TestCreateEnvironmentsSkipsEmptyPasses(t *testing.T) {
	w, fake := newTestWorkflow(t)
	p := EnvironmentsParams{
		AnacondaDirectory: "/opt/anaconda",
		Interpreters:      map[string]string{"py3": "3.5", "py2": "2.7"},
		PipPackages:       []string{"nose"},
	}

	require.NoError(t, w.CreateEnvironments(context.Background(), p))
	assert.Equal(t, []string{
		"/opt/anaconda/bin/conda create --yes -n py2 python=2.7",
		"source /opt/anaconda/bin/activate py2 && pip install nose",
		"/opt/anaconda/bin/conda create --yes -n py3 python=3.5",
		"source /opt/anaconda/bin/activate py3 && pip install nose",
	}, fake.Commands())
}

func TestCreateEnvironmentsFailure(t *testing.T) {
	w, fake := newTestWorkflow(t)
	fake.FailOn("-n python2.7", 1)

	err := w.CreateEnvironments(context.Background(), NewEnvironmentsParams(w.Config()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating environment python2.7")
	assert.Len(t, fake.Commands(), 1)
}

func TestCloneRepositories(t *testing.T) {
	w, fake := newTestWorkflow(t)
	p := CloneParams{
		Workspace: "/ws",
		Repositories: map[string]config.Repository{
			"demo": {Directory: "/ws/demo", URL: "https://example.com/demo.git"},
		},
	}
	fake.OnCommand("git clone", "/ws/demo")

	require.NoError(t, w.CloneRepositories(context.Background(), p))
	assert.Equal(t, []string{
		"cd /ws && git clone https://example.com/demo.git /ws/demo",
		"cd /ws/demo && git remote rename origin upstream",
	}, fake.Commands())

	fake.Reset()
	require.NoError(t, w.CloneRepositories(context.Background(), p))
	assert.Empty(t, fake.Commands())
}

func TestCloneRepositoriesFailure(t *testing.T) {
	w, fake := newTestWorkflow(t)
	fake.FailOn("colour-ipython.git", 128)

	err := w.CloneRepositories(context.Background(), NewCloneParams(w.Config()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cloning colour-ipython")
	// colour succeeded, colour-ipython failed, colour-science.org never started.
	assert.Len(t, fake.Commands(), 3)
}

func TestConfigureWebsite(t *testing.T) {
	w, fake := newTestWorkflow(t)
	p := NewWebsiteParams(w.Config())

	require.NoError(t, w.ConfigureWebsite(context.Background(), p))
	assert.Equal(t, []string{
		"sed -i 's/AllowOverride None/AllowOverride All/g' /etc/apache2/apache2.conf",
		"sed -i 's|/usr/lib/cgi-bin|/var/www/cgi-bin|g' /etc/apache2/sites-enabled/000-default.conf",
		"rm -rf /var/www",
		"ln -fs /colour-science/colour-science.org/output /var/www",
		"a2enmod rewrite",
		"service apache2 restart",
	}, fake.Commands())
	assert.Len(t, fake.Ops(tasktest.OpSudo), 6)
	assert.Len(t, fake.Ops(tasktest.OpIsLink), 1)
}

func TestConfigureWebsiteExistingDirectory(t *testing.T) {
	w, fake := newTestWorkflow(t)
	// a plain directory is not a symlink, so the site still gets configured
	fake.AddPath("/var/www")

	require.NoError(t, w.ConfigureWebsite(context.Background(), NewWebsiteParams(w.Config())))
	assert.Len(t, fake.Commands(), 6)
}

func TestABILibraryName(t *testing.T) {
	tests := []struct {
		name, suffix, expected string
	}{
		{"libboost_python.so", "-py27", "libboost_python-py27.so"},
		{"libboost_python.a", "-py27", "libboost_python-py27.a"},
		{"libboost_python.so.1.54.0", "-py27", "libboost_python-py27.so.1.54.0"},
		{"libboost_python", "-py27", "libboost_python-py27"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ABILibraryName(tt.name, tt.suffix))
		})
	}
}

func TestInstallOpenImageIO(t *testing.T) {
	w, fake := newTestWorkflow(t)
	p := NewOpenImageIOParams(w.Config())

	require.NoError(t, w.InstallOpenImageIO(context.Background(), p))
	assert.Equal(t, []string{
		"ln -fs /usr/lib/x86_64-linux-gnu/libboost_python-py27.so /usr/lib/x86_64-linux-gnu/libboost_python.so",
		"ln -fs /usr/lib/x86_64-linux-gnu/libboost_python-py27.a /usr/lib/x86_64-linux-gnu/libboost_python.a",
		"wget -P /vagrant/tmp https://github.com/OpenImageIO/oiio/archive/Release-1.5.21.zip",
		"cd /vagrant/tmp && unzip /vagrant/tmp/Release-1.5.21.zip",
		"cd /vagrant/tmp/oiio-Release-1.5.21 && make PYTHON_VERSION=2.7",
		"cd /vagrant/tmp/oiio-Release-1.5.21/dist/linux64 && cp bin/* /usr/local/bin/",
		"cd /vagrant/tmp/oiio-Release-1.5.21/dist/linux64 && cp lib/* /usr/local/lib/",
		"cp /vagrant/tmp/oiio-Release-1.5.21/dist/linux64/python/OpenImageIO.so /home/vagrant/anaconda3/envs/python2.7/lib/python2.7/site-packages",
	}, fake.Commands())

	var sudo []string
	for _, c := range fake.Ops(tasktest.OpSudo) {
		sudo = append(sudo, c.Command)
	}
	assert.Len(t, sudo, 4)
}

func TestInstallOpenImageIOBuildFailure(t *testing.T) {
	w, fake := newTestWorkflow(t)
	fake.AddPath("/vagrant/tmp/Release-1.5.21.zip")
	fake.FailOn("make PYTHON_VERSION", 2)

	err := w.InstallOpenImageIO(context.Background(), NewOpenImageIOParams(w.Config()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "building OpenImageIO")

	cmds := fake.Commands()
	assert.Equal(t, "cd /vagrant/tmp/oiio-Release-1.5.21 && make PYTHON_VERSION=2.7", cmds[len(cmds)-1])
	assert.NotContains(t, cmds, "wget -P /vagrant/tmp https://github.com/OpenImageIO/oiio/archive/Release-1.5.21.zip")
}

func TestInstallNodejsToolchain(t *testing.T) {
	w, fake := newTestWorkflow(t)
	p := NewNodejsParams(w.Config())

	require.NoError(t, w.InstallNodejsToolchain(context.Background(), p))
	assert.Equal(t, []string{
		"wget -P /vagrant/tmp https://nodejs.org/dist/v0.12.9/node-v0.12.9.tar.gz",
		"cd /vagrant/tmp && tar -xvf /vagrant/tmp/node-v0.12.9.tar.gz",
		"cd /vagrant/tmp/node-v0.12.9 && ./configure",
		"cd /vagrant/tmp/node-v0.12.9 && make",
		"cd /vagrant/tmp/node-v0.12.9 && make install",
		"npm install -g grunt-cli",
	}, fake.Commands())
	assert.Len(t, fake.Ops(tasktest.OpSudo), 2)
}
