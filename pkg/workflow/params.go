package workflow

import (
	"path"

	"devbox_provision/pkg/config"
)

// SystemUpdateParams configures SystemUpdate.
type SystemUpdateParams struct {
	Marker string
}

// PackagesParams configures InstallRequiredPackages.
type PackagesParams struct {
	Packages []string
}

// AnacondaParams configures InstallAnaconda.
type AnacondaParams struct {
	URL              string
	StorageDirectory string
	InstallDirectory string
}

// ProfileParams configures CreateBashProfileFile and SourceBashProfileFile.
type ProfileParams struct {
	File   string
	RCFile string
	// BinDirectory is prepended to PATH.
	BinDirectory string
	// Repositories flagged for inclusion end up on PYTHONPATH.
	Repositories map[string]config.Repository
}

// EnvironmentsParams configures CreateEnvironments.
type EnvironmentsParams struct {
	AnacondaDirectory string
	Interpreters      map[string]string
	CondaPackages     []string
	PipPackages       []string
}

// CloneParams configures CloneRepositories.
type CloneParams struct {
	Repositories map[string]config.Repository
	Workspace    string
}

// WebsiteParams configures ConfigureWebsite.
type WebsiteParams struct {
	config.WebsiteConfig
}

// OpenImageIOParams configures InstallOpenImageIO.
type OpenImageIOParams struct {
	config.OpenImageIOConfig
	URL              string
	StorageDirectory string
	// SitePackagesDirectory receives the python extension module.
	SitePackagesDirectory string
}

// NodejsParams configures InstallNodejsToolchain.
type NodejsParams struct {
	URL              string
	StorageDirectory string
	GlobalPackages   []string
}

func NewSystemUpdateParams(cfg *config.Config) SystemUpdateParams {
	return SystemUpdateParams{Marker: cfg.UpdateMarker}
}

func NewPackagesParams(cfg *config.Config) PackagesParams {
	return PackagesParams{Packages: cfg.Packages}
}

func NewAnacondaParams(cfg *config.Config) AnacondaParams {
	return AnacondaParams{
		URL:              cfg.Softwares[config.SoftwareAnaconda],
		StorageDirectory: cfg.Directories.Storage,
		InstallDirectory: cfg.Directories.Anaconda,
	}
}

func NewProfileParams(cfg *config.Config) ProfileParams {
	return ProfileParams{
		File:         cfg.Profile.File,
		RCFile:       cfg.Profile.RCFile,
		BinDirectory: path.Join(cfg.EnvironmentDirectory(cfg.Profile.Environment), "bin"),
		Repositories: cfg.Repositories,
	}
}

func NewEnvironmentsParams(cfg *config.Config) EnvironmentsParams {
	return EnvironmentsParams{
		AnacondaDirectory: cfg.Directories.Anaconda,
		Interpreters:      cfg.Interpreters,
		CondaPackages:     cfg.CondaPackages,
		PipPackages:       cfg.PipPackages,
	}
}

func NewCloneParams(cfg *config.Config) CloneParams {
	return CloneParams{
		Repositories: cfg.Repositories,
		Workspace:    cfg.Directories.Workspace,
	}
}

func NewWebsiteParams(cfg *config.Config) WebsiteParams {
	return WebsiteParams{WebsiteConfig: cfg.Website}
}

func NewOpenImageIOParams(cfg *config.Config) OpenImageIOParams {
	oiio := cfg.OpenImageIO
	return OpenImageIOParams{
		OpenImageIOConfig:     oiio,
		URL:                   cfg.Softwares[config.SoftwareOpenImageIO],
		StorageDirectory:      cfg.Directories.Storage,
		SitePackagesDirectory: cfg.SitePackagesDirectory(oiio.Environment, oiio.PythonVersion),
	}
}

func NewNodejsParams(cfg *config.Config) NodejsParams {
	return NodejsParams{
		URL:              cfg.Softwares[config.SoftwareNodejs],
		StorageDirectory: cfg.Directories.Storage,
		GlobalPackages:   cfg.Nodejs.GlobalPackages,
	}
}
