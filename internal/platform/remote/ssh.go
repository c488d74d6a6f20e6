package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	dialRetries        = 10
	dialRetryDelay     = 5 * time.Second
)

// SSH implements Executor over the SSH protocol. It parses the private
// key once during construction and opens a connection per call.
type SSH struct {
	host   string
	config *ssh.ClientConfig
}

// NewSSH creates an SSH executor for the given hypervisor host.
func NewSSH(host, user string, privateKey []byte) (*SSH, error) {
	if host == "" {
		return nil, fmt.Errorf("host cannot be empty")
	}
	signer, err := ssh.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &SSH{
		host: host,
		config: &ssh.ClientConfig{
			User:            user,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // ephemeral lab hypervisors
			Timeout:         defaultDialTimeout,
		},
	}, nil
}

func (s *SSH) dial(ctx context.Context) (*ssh.Client, error) {
	addr := net.JoinHostPort(s.host, strconv.Itoa(defaultPort))

	var lastErr error
	for attempt := 0; attempt < dialRetries; attempt++ {
		client, err := ssh.Dial("tcp", addr, s.config)
		if err == nil {
			return client, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialRetryDelay):
		}
	}
	return nil, fmt.Errorf("failed to dial %s: %w", addr, lastErr)
}

// Run executes argv on the hypervisor host.
func (s *SSH) Run(ctx context.Context, argv ...string) error {
	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var output bytes.Buffer
	session.Stdout = &output
	session.Stderr = &output

	if err := session.Run(Join(argv)); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Argv: argv, Code: exitErr.ExitStatus(), Output: output.String()}
		}
		return fmt.Errorf("remote command %q: %w", Join(argv), err)
	}
	return nil
}

// Output executes argv and captures its standard output.
func (s *SSH) Output(ctx context.Context, argv ...string) (string, error) {
	client, err := s.dial(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Run(Join(argv)); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), &ExitError{Argv: argv, Code: exitErr.ExitStatus(), Output: stderr.String()}
		}
		return stdout.String(), fmt.Errorf("remote command %q: %w", Join(argv), err)
	}
	return stdout.String(), nil
}

// Copy streams content to remotePath. The transfer rides the same SSH
// transport as Run, no scp binary is involved.
func (s *SSH) Copy(ctx context.Context, content []byte, remotePath string) error {
	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	session.Stdin = bytes.NewReader(content)
	if err := session.Run("cat > " + quote(remotePath)); err != nil {
		return fmt.Errorf("failed to copy to %s: %w", remotePath, err)
	}
	return nil
}
