package task

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"devbox_provision/pkg/config"
)

// SSHRunner implements the Runner interface using SSH.
type SSHRunner struct {
	client *ssh.Client
	agent  net.Conn
}

// NewSSHRunner connects to the host described by cfg.
func NewSSHRunner(ctx context.Context, cfg config.SSHConfig) (*SSHRunner, error) {
	var (
		auth      []ssh.AuthMethod
		agentConn net.Conn
	)

	if cfg.KeyPath != "" {
		keyPath, err := expandHome(cfg.KeyPath)
		if err != nil {
			return nil, err
		}
		key, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("unable to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); cfg.UseAgent && sock != "" {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			return nil, fmt.Errorf("unable to reach ssh agent: %w", err)
		}
		agentConn = conn
		auth = append(auth, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
	}

	if len(auth) == 0 {
		return nil, errors.New("no ssh authentication method configured")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		knownHostsPath, err := expandHome(cfg.KnownHostsFile)
		if err != nil {
			closeConn(agentConn)
			return nil, err
		}
		hostKeyCallback, err = knownhosts.New(knownHostsPath)
		if err != nil {
			closeConn(agentConn)
			return nil, fmt.Errorf("unable to load known hosts: %w", err)
		}
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.Timeout,
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		closeConn(agentConn)
		return nil, fmt.Errorf("unable to connect: %w", err)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		closeConn(agentConn)
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}

	return &SSHRunner{client: ssh.NewClient(c, chans, reqs), agent: agentConn}, nil
}

// Run executes a command on the remote host.
func (r *SSHRunner) Run(ctx context.Context, cmd string) (string, error) {
	session, err := r.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var b syncBuffer
	session.Stdout = &b
	session.Stderr = &b

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGINT)
		_ = session.Close()
		<-done
		return b.String(), ctx.Err()
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return b.String(), &ExitError{Command: cmd, Status: exitErr.ExitStatus(), Output: b.String()}
		}
		return b.String(), fmt.Errorf("failed to run command: %w", err)
	}
	return b.String(), nil
}

// Close closes the connection and the agent socket.
func (r *SSHRunner) Close() error {
	closeConn(r.agent)
	return r.client.Close()
}

// syncBuffer collects stdout and stderr, which the session copies from
// separate goroutines.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (w *syncBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.Write(p)
}

func (w *syncBuffer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.String()
}

func closeConn(conn net.Conn) {
	if conn != nil {
		_ = conn.Close()
	}
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to expand %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
