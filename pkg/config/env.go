package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables overriding the SSH settings of the config file.
const (
	EnvHost       = "PROVISION_SSH_HOST"
	EnvPort       = "PROVISION_SSH_PORT"
	EnvUser       = "PROVISION_SSH_USER"
	EnvKeyPath    = "PROVISION_SSH_KEY"
	EnvKnownHosts = "PROVISION_SSH_KNOWN_HOSTS"
	EnvTimeout    = "PROVISION_SSH_TIMEOUT"
)

// applyEnv loads .env if present (fail silently if not) and applies the
// PROVISION_SSH_* variables. Variables already set in the process win over .env.
func applyEnv(ssh *SSHConfig) error {
	_ = godotenv.Load()

	ssh.Host = getEnv(EnvHost, ssh.Host)
	ssh.User = getEnv(EnvUser, ssh.User)
	ssh.KeyPath = getEnv(EnvKeyPath, ssh.KeyPath)
	ssh.KnownHostsFile = getEnv(EnvKnownHosts, ssh.KnownHostsFile)

	if value := os.Getenv(EnvPort); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, value, err)
		}
		ssh.Port = port
	}
	if value := os.Getenv(EnvTimeout); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, value, err)
		}
		ssh.Timeout = timeout
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
