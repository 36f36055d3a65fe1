package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Software names looked up in Config.Softwares.
const (
	SoftwareAnaconda    = "anaconda"
	SoftwareOpenImageIO = "OpenImageIO"
	SoftwareNodejs      = "nodejs"
)

// Config holds all configuration for provisioning the development box.
// Paths are paths on the target host.
type Config struct {
	// SSH holds the SSH connection details.
	SSH SSHConfig `yaml:"ssh"`
	// Directories holds the root directories every other path is joined from.
	Directories Directories `yaml:"directories"`
	// UpdateMarker is written once the system update completed.
	UpdateMarker string `yaml:"update_marker"`
	// Packages are the OS packages installed by apt-get, in order.
	Packages []string `yaml:"packages"`
	// Softwares maps a logical software name to its download url.
	Softwares map[string]string `yaml:"softwares"`
	// Interpreters maps an environment name to a Python version.
	Interpreters map[string]string `yaml:"interpreters"`
	// CondaPackages are installed in every environment with conda.
	CondaPackages []string `yaml:"conda_packages"`
	// PipPackages are installed in every environment with pip.
	PipPackages []string `yaml:"pip_packages"`
	// Repositories maps a logical repository name to its checkout.
	Repositories map[string]Repository `yaml:"repositories"`

	Profile     ProfileConfig     `yaml:"profile"`
	Website     WebsiteConfig     `yaml:"website"`
	OpenImageIO OpenImageIOConfig `yaml:"openimageio"`
	Nodejs      NodejsConfig      `yaml:"nodejs"`
}

// SSH clients selectable with SSHConfig.Client.
const (
	ClientNative  = "native"
	ClientOpenSSH = "openssh"
)

// SSHConfig defines SSH connection parameters.
type SSHConfig struct {
	// Client is ClientNative (built in) or ClientOpenSSH (the ssh binary).
	Client string `yaml:"client"`
	// ConfigFile is passed to the openssh client with -F.
	ConfigFile string `yaml:"config_file"`

	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// User is the SSH user for connecting to the box.
	User string `yaml:"user"`
	// KeyPath is the path to the SSH private key. A leading ~ is expanded locally.
	KeyPath string `yaml:"key_path"`
	// KnownHostsFile enables host key verification when set.
	KnownHostsFile string `yaml:"known_hosts_file"`
	// UseAgent adds the keys of the agent listening on SSH_AUTH_SOCK.
	UseAgent bool          `yaml:"use_agent"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Directories are the roots on the target host.
type Directories struct {
	Vagrant   string `yaml:"vagrant"`
	Home      string `yaml:"home"`
	Workspace string `yaml:"workspace"`
	// Storage caches downloads and unpacked sources. Defaults to <vagrant>/tmp.
	Storage string `yaml:"storage"`
	// Anaconda is the distribution install directory. Defaults to <home>/anaconda3.
	Anaconda string `yaml:"anaconda"`
}

// Repository describes one source checkout.
type Repository struct {
	// Directory defaults to <workspace>/<name>.
	Directory       string `yaml:"directory"`
	URL             string `yaml:"url"`
	AddToPythonPath bool   `yaml:"add_to_python_path"`
}

type ProfileConfig struct {
	// File defaults to <home>/.bash_profile.
	File string `yaml:"file"`
	// RCFile defaults to <home>/.bashrc.
	RCFile string `yaml:"rc_file"`
	// Environment is the environment whose bin directory is put on PATH.
	Environment string `yaml:"environment"`
}

type WebsiteConfig struct {
	// LocalDirectory is the locally built site. Defaults to
	// <workspace>/colour-science.org/output.
	LocalDirectory string `yaml:"local_directory"`
	DocumentRoot   string `yaml:"document_root"`
	ApacheConfig   string `yaml:"apache_config"`
	SiteConfig     string `yaml:"site_config"`
	CGIDirectory   string `yaml:"cgi_directory"`
	CGITarget      string `yaml:"cgi_target"`
}

type OpenImageIOConfig struct {
	// Environment receives the python extension module.
	Environment   string `yaml:"environment"`
	PythonVersion string `yaml:"python_version"`
	// Libraries in LibraryDirectory are relinked to their ABISuffix variant
	// before building.
	LibraryDirectory string   `yaml:"library_directory"`
	Libraries        []string `yaml:"libraries"`
	ABISuffix        string   `yaml:"abi_suffix"`
	BinDirectory     string   `yaml:"bin_directory"`
	LibDirectory     string   `yaml:"lib_directory"`
}

type NodejsConfig struct {
	GlobalPackages []string `yaml:"global_packages"`
}

// Default returns the configuration of the colour-science development box.
func Default() *Config {
	cfg := defaults()
	cfg.resolve()
	return cfg
}

func defaults() *Config {
	return &Config{
		SSH: SSHConfig{
			Client:  ClientNative,
			Host:    "127.0.0.1",
			Port:    2222,
			User:    "vagrant",
			KeyPath: "~/.vagrant.d/insecure_private_key",
			Timeout: 10 * time.Second,
		},
		Directories: Directories{
			Vagrant:   "/vagrant",
			Home:      "/home/vagrant",
			Workspace: "/colour-science",
		},
		Packages: []string{
			"apache2",
			"build-essential",
			"cmake",
			"fontconfig",
			"g++",
			"gfortran",
			"git",
			"pandoc",
			"php5",
			"python-dev",
			"libboost-all-dev",
			"libjpeg-dev",
			"liblapack-dev",
			"libopenblas-dev",
			"libopenexr-dev",
			"libpng-dev",
			"libsm6",
			"libtiff5-dev",
			"libxrender-dev",
			"make",
			"unzip",
			"wget",
		},
		Softwares: map[string]string{
			SoftwareAnaconda:    "https://repo.continuum.io/archive/Anaconda3-2.4.0-Linux-x86_64.sh",
			SoftwareOpenImageIO: "https://github.com/OpenImageIO/oiio/archive/Release-1.5.21.zip",
			SoftwareNodejs:      "https://nodejs.org/dist/v0.12.9/node-v0.12.9.tar.gz",
		},
		Interpreters: map[string]string{
			"python2.7": "2.7",
			"python3.5": "3.5",
		},
		CondaPackages: []string{
			"matplotlib",
			"numpy",
			"scipy",
			"ipython-notebook",
		},
		PipPackages: []string{
			"coverage",
			"flake8",
			"mock",
			"nose",
			"nikola",
			"nikola[extras]",
		},
		Repositories: map[string]Repository{
			"colour": {
				URL:             "https://github.com/colour-science/colour.git",
				AddToPythonPath: true,
			},
			"colour-ipython": {
				URL: "https://github.com/colour-science/colour-ipython.git",
			},
			"colour-science.org": {
				URL: "https://github.com/colour-science/colour-science.org.git",
			},
		},
		Profile: ProfileConfig{
			Environment: "python2.7",
		},
		Website: WebsiteConfig{
			DocumentRoot: "/var/www",
			ApacheConfig: "/etc/apache2/apache2.conf",
			SiteConfig:   "/etc/apache2/sites-enabled/000-default.conf",
			CGIDirectory: "/usr/lib/cgi-bin",
			CGITarget:    "/var/www/cgi-bin",
		},
		OpenImageIO: OpenImageIOConfig{
			Environment:      "python2.7",
			PythonVersion:    "2.7",
			LibraryDirectory: "/usr/lib/x86_64-linux-gnu",
			Libraries:        []string{"libboost_python.so", "libboost_python.a"},
			ABISuffix:        "-py27",
			BinDirectory:     "/usr/local/bin",
			LibDirectory:     "/usr/local/lib",
		},
		Nodejs: NodejsConfig{
			GlobalPackages: []string{"grunt-cli"},
		},
	}
}

// resolve fills every derived path left empty from the root directories.
func (c *Config) resolve() {
	d := &c.Directories
	if d.Storage == "" {
		d.Storage = path.Join(d.Vagrant, "tmp")
	}
	if d.Anaconda == "" {
		d.Anaconda = path.Join(d.Home, "anaconda3")
	}
	if c.UpdateMarker == "" {
		c.UpdateMarker = path.Join(d.Home, ".system_updated")
	}
	if c.Profile.File == "" {
		c.Profile.File = path.Join(d.Home, ".bash_profile")
	}
	if c.Profile.RCFile == "" {
		c.Profile.RCFile = path.Join(d.Home, ".bashrc")
	}
	if c.Website.LocalDirectory == "" {
		c.Website.LocalDirectory = path.Join(d.Workspace, "colour-science.org", "output")
	}

	repositories := make(map[string]Repository, len(c.Repositories))
	for name, repository := range c.Repositories {
		if repository.Directory == "" {
			repository.Directory = path.Join(d.Workspace, name)
		}
		repositories[name] = repository
	}
	c.Repositories = repositories
}

// LoadConfig reads configuration from a YAML file on top of Default().
// A missing file is only an error when required is set.
func LoadConfig(filePath string, required bool) (*Config, error) {
	cfg := defaults()

	file, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		overlay := &Config{}
		if err := yaml.Unmarshal(file, overlay); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
		}
		merge(cfg, overlay)
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	if err := applyEnv(&cfg.SSH); err != nil {
		return nil, err
	}
	cfg.resolve()
	return cfg, nil
}

// Validate checks the configuration for values no task can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.SSH.Host == "" {
		errs = append(errs, errors.New("ssh.host is required"))
	}
	if c.SSH.User == "" {
		errs = append(errs, errors.New("ssh.user is required"))
	}
	if c.SSH.Client != ClientNative && c.SSH.Client != ClientOpenSSH {
		errs = append(errs, fmt.Errorf("ssh.client must be %q or %q, got %q", ClientNative, ClientOpenSSH, c.SSH.Client))
	}
	if c.SSH.Port <= 0 || c.SSH.Port > 65535 {
		errs = append(errs, fmt.Errorf("ssh.port %d is out of range", c.SSH.Port))
	}

	dirs := map[string]string{
		"directories.vagrant":     c.Directories.Vagrant,
		"directories.home":        c.Directories.Home,
		"directories.workspace":   c.Directories.Workspace,
		"directories.storage":     c.Directories.Storage,
		"directories.anaconda":    c.Directories.Anaconda,
		"website.local_directory": c.Website.LocalDirectory,
		"website.document_root":   c.Website.DocumentRoot,
	}
	for _, key := range lo.Keys(dirs) {
		if !path.IsAbs(dirs[key]) {
			errs = append(errs, fmt.Errorf("%s must be an absolute path, got %q", key, dirs[key]))
		}
	}

	for name, url := range c.Softwares {
		if url == "" {
			errs = append(errs, fmt.Errorf("softwares.%s has no url", name))
		}
	}
	for name, version := range c.Interpreters {
		if version == "" {
			errs = append(errs, fmt.Errorf("interpreters.%s has no version", name))
		}
	}
	for name, repository := range c.Repositories {
		if repository.URL == "" {
			errs = append(errs, fmt.Errorf("repositories.%s has no url", name))
		}
		if !path.IsAbs(repository.Directory) {
			errs = append(errs, fmt.Errorf("repositories.%s directory must be absolute, got %q", name, repository.Directory))
		}
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return errors.Join(errs...)
}

// Software returns the download url registered under name.
func (c *Config) Software(name string) (string, error) {
	url, ok := c.Softwares[name]
	if !ok || url == "" {
		return "", fmt.Errorf("no url configured for software %q", name)
	}
	return url, nil
}

// EnvironmentDirectory returns the directory of the named conda environment.
func (c *Config) EnvironmentDirectory(name string) string {
	return path.Join(c.Directories.Anaconda, "envs", name)
}

// SitePackagesDirectory returns the site-packages directory of an environment
// running the given Python version.
func (c *Config) SitePackagesDirectory(name, version string) string {
	return path.Join(c.EnvironmentDirectory(name), "lib", "python"+version, "site-packages")
}

// InterpreterNames returns the environment names in a stable order.
func (c *Config) InterpreterNames() []string {
	names := lo.Keys(c.Interpreters)
	sort.Strings(names)
	return names
}

// RepositoryNames returns the repository names in a stable order.
func (c *Config) RepositoryNames() []string {
	names := lo.Keys(c.Repositories)
	sort.Strings(names)
	return names
}

// PythonPath joins, with ':', the directories of the repositories flagged for
// inclusion, ordered by repository name.
func (c *Config) PythonPath() string {
	return JoinPythonPath(c.Repositories)
}

// JoinPythonPath is PythonPath for an arbitrary repository table.
func JoinPythonPath(repositories map[string]Repository) string {
	names := lo.Keys(repositories)
	sort.Strings(names)
	dirs := lo.FilterMap(names, func(name string, _ int) (string, bool) {
		repository := repositories[name]
		return repository.Directory, repository.AddToPythonPath
	})
	return strings.Join(dirs, ":")
}
