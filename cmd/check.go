package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"devbox_provision/pkg/log"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Perform pre-flight checks to verify configuration and connectivity.",
	Long: `This command loads the configuration and connects to the target host over SSH.
It's a safe, read-only operation that should be run before any task.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.L().Info("--- Running Pre-flight Checks ---")

		log.L().Info("[1/2] Loading configuration", "path", cfgFile)
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log.L().Info("✓ Configuration loaded successfully.")

		log.L().Info("[2/2] Testing SSH connectivity...", "host", cfg.SSH.Host, "port", cfg.SSH.Port)
		runner, err := connect(cmd.Context(), cfg.SSH)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", cfg.SSH.Host, err)
		}
		defer runner.Close()

		hostname, err := runner.Run(cmd.Context(), "hostname")
		if err != nil {
			return fmt.Errorf("failed to run command on %s: %w", cfg.SSH.Host, err)
		}
		log.L().Info("✓ SSH connectivity successful.", "hostname", strings.TrimSpace(hostname))

		log.L().Info("--- Pre-flight Checks Passed ---")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
