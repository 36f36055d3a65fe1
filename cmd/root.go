package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"devbox_provision/pkg/log"
)

var (
	cfgFile   string
	logLevel  string
	logFile   string
	assumeYes bool
	dryRun    bool

	sshHost   string
	sshPort   int
	sshUser   string
	sshKey    string
	sshClient string
)

var rootCmd = &cobra.Command{
	Use:   "devbox-provision",
	Short: "Provision the colour-science development virtual machine.",
	Long: `devbox-provision runs idempotent provisioning tasks against a development
virtual machine over SSH: system packages, the Anaconda distribution and its
environments, the project repositories, the local website and source builds of
OpenImageIO and Node.js. Every step is skipped when its effect is already present,
so any task can be re-run after fixing a failure.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(log.Options{
			Level: log.LevelFromString(logLevel),
			File:  logFile,
			Attrs: []any{"run_id", uuid.New().String()},
		})
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.L().Error("command failed", "error", err)
		log.Close()
		os.Exit(1)
	}
	log.Close()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "config.yaml", "config file")
	flags.StringVar(&logLevel, "log-level", "info", "log level")
	flags.StringVar(&logFile, "log-file", "", "also write logs to this file, rotated by size")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "auto-confirm all prompts")
	flags.BoolVar(&dryRun, "dry-run", false, "print the commands instead of running them")
	flags.StringVar(&sshHost, "host", "", "target host (overrides ssh.host)")
	flags.IntVar(&sshPort, "port", 0, "target ssh port (overrides ssh.port)")
	flags.StringVar(&sshUser, "user", "", "ssh user (overrides ssh.user)")
	flags.StringVar(&sshKey, "key", "", "ssh private key (overrides ssh.key_path)")
	flags.StringVar(&sshClient, "ssh-client", "", "native or openssh (overrides ssh.client)")
}
