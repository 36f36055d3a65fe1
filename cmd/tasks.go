package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"devbox_provision/pkg/workflow"
)

const (
	websiteTask   = "configure-website"
	websitePrompt = "configure-website removes the web server document root and replaces it with a link to the local website"
)

// newTaskCmd builds the subcommand of a registered task. run receives the
// workflow and builds the task parameters, applying any flag overrides.
func newTaskCmd(name string, run func(ctx context.Context, cmd *cobra.Command, w *workflow.Workflow) error) *cobra.Command {
	t, ok := workflow.Lookup(name)
	if !ok {
		panic("unregistered task " + name)
	}
	return &cobra.Command{
		Use:   t.Name,
		Short: t.Description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == websiteTask {
				if err := confirmAction(websitePrompt); err != nil {
					return err
				}
			}
			return withWorkflow(cmd, func(ctx context.Context, w *workflow.Workflow) error {
				return w.Execute(ctx, name, func(ctx context.Context) error {
					return run(ctx, cmd, w)
				})
			})
		},
	}
}

func systemUpdateCmd() *cobra.Command {
	c := newTaskCmd("system-update", func(ctx context.Context, cmd *cobra.Command, w *workflow.Workflow) error {
		p := workflow.NewSystemUpdateParams(w.Config())
		if err := override(cmd.Flags(), "marker", &p.Marker, cmd.Flags().GetString); err != nil {
			return err
		}
		return w.SystemUpdate(ctx, p)
	})
	c.Flags().String("marker", "", "marker file recording a completed update")
	return c
}

func installRequiredPackagesCmd() *cobra.Command {
	c := newTaskCmd("install-required-packages", func(ctx context.Context, cmd *cobra.Command, w *workflow.Workflow) error {
		p := workflow.NewPackagesParams(w.Config())
		if err := override(cmd.Flags(), "packages", &p.Packages, cmd.Flags().GetStringSlice); err != nil {
			return err
		}
		return w.InstallRequiredPackages(ctx, p)
	})
	c.Flags().StringSlice("packages", nil, "system packages to install")
	return c
}

func installAnacondaCmd() *cobra.Command {
	c := newTaskCmd("install-anaconda", func(ctx context.Context, cmd *cobra.Command, w *workflow.Workflow) error {
		p := workflow.NewAnacondaParams(w.Config())
		for name, target := range map[string]*string{
			"url":               &p.URL,
			"directory":         &p.StorageDirectory,
			"install-directory": &p.InstallDirectory,
		} {
			if err := override(cmd.Flags(), name, target, cmd.Flags().GetString); err != nil {
				return err
			}
		}
		return w.InstallAnaconda(ctx, p)
	})
	c.Flags().String("url", "", "installer url")
	c.Flags().String("directory", "", "directory to write the download to")
	c.Flags().String("install-directory", "", "anaconda install directory")
	return c
}

func profileOverrides(cmd *cobra.Command, p *workflow.ProfileParams) error {
	for name, target := range map[string]*string{
		"file":          &p.File,
		"rc-file":       &p.RCFile,
		"bin-directory": &p.BinDirectory,
	} {
		if cmd.Flags().Lookup(name) == nil {
			continue
		}
		if err := override(cmd.Flags(), name, target, cmd.Flags().GetString); err != nil {
			return err
		}
	}
	return nil
}

func createBashProfileFileCmd() *cobra.Command {
	c := newTaskCmd("create-bash-profile-file", func(ctx context.Context, cmd *cobra.Command, w *workflow.Workflow) error {
		p := workflow.NewProfileParams(w.Config())
		if err := profileOverrides(cmd, &p); err != nil {
			return err
		}
		return w.CreateBashProfileFile(ctx, p)
	})
	c.Flags().String("file", "", ".bash_profile file path")
	c.Flags().String("rc-file", "", ".bashrc file path sourced by the profile")
	c.Flags().String("bin-directory", "", "directory prepended to PATH")
	return c
}

func sourceBashProfileFileCmd() *cobra.Command {
	c := newTaskCmd("source-bash-profile-file", func(ctx context.Context, cmd *cobra.Command, w *workflow.Workflow) error {
		p := workflow.NewProfileParams(w.Config())
		if err := profileOverrides(cmd, &p); err != nil {
			return err
		}
		return w.SourceBashProfileFile(ctx, p)
	})
	c.Flags().String("file", "", ".bash_profile file path")
	return c
}

func createEnvironmentsCmd() *cobra.Command {
	c := newTaskCmd("create-environments", func(ctx context.Context, cmd *cobra.Command, w *workflow.Workflow) error {
		p := workflow.NewEnvironmentsParams(w.Config())
		if err := override(cmd.Flags(), "interpreter", &p.Interpreters, cmd.Flags().GetStringToString); err != nil {
			return err
		}
		if err := override(cmd.Flags(), "conda-packages", &p.CondaPackages, cmd.Flags().GetStringSlice); err != nil {
			return err
		}
		if err := override(cmd.Flags(), "pip-packages", &p.PipPackages, cmd.Flags().GetStringSlice); err != nil {
			return err
		}
		return w.CreateEnvironments(ctx, p)
	})
	c.Flags().StringToString("interpreter", nil, "environments to create as name=version")
	c.Flags().StringSlice("conda-packages", nil, "packages installed with conda")
	c.Flags().StringSlice("pip-packages", nil, "packages installed with pip")
	return c
}

func cloneRepositoriesCmd() *cobra.Command {
	c := newTaskCmd("clone-repositories", func(ctx context.Context, cmd *cobra.Command, w *workflow.Workflow) error {
		p := workflow.NewCloneParams(w.Config())
		if err := override(cmd.Flags(), "workspace", &p.Workspace, cmd.Flags().GetString); err != nil {
			return err
		}
		var only []string
		if err := override(cmd.Flags(), "only", &only, cmd.Flags().GetStringSlice); err != nil {
			return err
		}
		if len(only) > 0 {
			selected, err := selectRepositories(p.Repositories, only)
			if err != nil {
				return err
			}
			p.Repositories = selected
		}
		return w.CloneRepositories(ctx, p)
	})
	c.Flags().String("workspace", "", "workspace directory to clone the repositories into")
	c.Flags().StringSlice("only", nil, "clone only these repositories")
	return c
}

func configureWebsiteCmd() *cobra.Command {
	c := newTaskCmd(websiteTask, func(ctx context.Context, cmd *cobra.Command, w *workflow.Workflow) error {
		p := workflow.NewWebsiteParams(w.Config())
		if err := override(cmd.Flags(), "website-directory", &p.LocalDirectory, cmd.Flags().GetString); err != nil {
			return err
		}
		if err := override(cmd.Flags(), "document-root", &p.DocumentRoot, cmd.Flags().GetString); err != nil {
			return err
		}
		return w.ConfigureWebsite(ctx, p)
	})
	c.Flags().String("website-directory", "", "locally built website directory")
	c.Flags().String("document-root", "", "web server document root")
	return c
}

func installOpenImageIOCmd() *cobra.Command {
	c := newTaskCmd("install-openimageio", func(ctx context.Context, cmd *cobra.Command, w *workflow.Workflow) error {
		p := workflow.NewOpenImageIOParams(w.Config())
		for name, target := range map[string]*string{
			"url":            &p.URL,
			"directory":      &p.StorageDirectory,
			"python-version": &p.PythonVersion,
			"site-packages":  &p.SitePackagesDirectory,
		} {
			if err := override(cmd.Flags(), name, target, cmd.Flags().GetString); err != nil {
				return err
			}
		}
		return w.InstallOpenImageIO(ctx, p)
	})
	c.Flags().String("url", "", "source archive url")
	c.Flags().String("directory", "", "directory to write the download to")
	c.Flags().String("python-version", "", "python version the bindings are built for")
	c.Flags().String("site-packages", "", "directory receiving the python module")
	return c
}

func installNodejsToolchainCmd() *cobra.Command {
	c := newTaskCmd("install-nodejs-toolchain", func(ctx context.Context, cmd *cobra.Command, w *workflow.Workflow) error {
		p := workflow.NewNodejsParams(w.Config())
		if err := override(cmd.Flags(), "url", &p.URL, cmd.Flags().GetString); err != nil {
			return err
		}
		if err := override(cmd.Flags(), "directory", &p.StorageDirectory, cmd.Flags().GetString); err != nil {
			return err
		}
		if err := override(cmd.Flags(), "global-packages", &p.GlobalPackages, cmd.Flags().GetStringSlice); err != nil {
			return err
		}
		return w.InstallNodejsToolchain(ctx, p)
	})
	c.Flags().String("url", "", "source archive url")
	c.Flags().String("directory", "", "directory to write the download to")
	c.Flags().StringSlice("global-packages", nil, "npm packages installed globally")
	return c
}

func init() {
	rootCmd.AddCommand(
		systemUpdateCmd(),
		installRequiredPackagesCmd(),
		installAnacondaCmd(),
		createBashProfileFileCmd(),
		sourceBashProfileFileCmd(),
		createEnvironmentsCmd(),
		cloneRepositoriesCmd(),
		configureWebsiteCmd(),
		installOpenImageIOCmd(),
		installNodejsToolchainCmd(),
	)
}
