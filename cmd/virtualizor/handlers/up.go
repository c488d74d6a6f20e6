// Package handlers implements the business logic for CLI commands.
//
// Handlers are framework-agnostic and can be tested independently of
// the CLI framework: the commands package parses flags and delegates
// here.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/enovance/infra-virt/internal/platform/libvirt"
	"github.com/enovance/infra-virt/internal/platform/remote"
	"github.com/enovance/infra-virt/internal/provision"
	"github.com/enovance/infra-virt/internal/topology"
	"github.com/enovance/infra-virt/internal/util/naming"
)

// UpOptions carries everything the up command collected.
type UpOptions struct {
	InputFile  string
	TargetHost string

	Prefix        string
	PublicNetwork string
	PubKeyFiles   []string
	Cleanup       bool
	LeaseTimeout  time.Duration
	SSHUser       string
	SSHKey        string
}

// UsageError marks a failure caused by the invocation itself, bad
// arguments or unreadable input files. The CLI exits with status 2 for
// these, anything else is a deployment failure.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// IsUsage reports whether err is a usage error.
func IsUsage(err error) bool {
	var usageErr *UsageError
	return errors.As(err, &usageErr)
}

func usagef(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// controlPlane is the client the handler wires into the deployment,
// plus the connection teardown the phases never see.
type controlPlane interface {
	libvirt.Client
	Close() error
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// connectControlPlane dials the hypervisor's libvirt socket.
	connectControlPlane = func(host, user string, privateKey []byte) (controlPlane, error) {
		return libvirt.Connect(host, user, privateKey)
	}

	// newExecutor builds the remote command executor.
	newExecutor = func(host, user string, privateKey []byte) (remote.Executor, error) {
		return remote.NewSSH(host, user, privateKey)
	}

	// readFile reads local input files (for testing injection).
	readFile = os.ReadFile
)

// Up deploys a virtual network description on the target hypervisor.
//
// The workflow mirrors the phase pipeline: validate the invocation,
// load and default the description, connect the control plane and the
// remote executor, then run the phases. Nothing is rolled back on
// failure; re-running with Cleanup set is the recovery path.
func Up(ctx context.Context, opts UpOptions) error {
	if err := naming.ValidatePrefix(opts.Prefix); err != nil {
		return &UsageError{Err: err}
	}

	topo, err := topology.Load(opts.InputFile)
	if err != nil {
		return usagef("loading %s: %w", opts.InputFile, err)
	}

	publicKeys, err := readPublicKeys(opts.PubKeyFiles)
	if err != nil {
		return err
	}

	privateKey, err := readPrivateKey(opts.SSHKey)
	if err != nil {
		return err
	}

	log := newLogger()
	log.Info("deploying description", "file", opts.InputFile,
		"hypervisor", opts.TargetHost, "prefix", opts.Prefix, "hosts", len(topo.Hosts))

	client, err := connectControlPlane(opts.TargetHost, opts.SSHUser, privateKey)
	if err != nil {
		return fmt.Errorf("connecting to the hypervisor control plane: %w", err)
	}
	defer client.Close()

	executor, err := newExecutor(opts.TargetHost, opts.SSHUser, privateKey)
	if err != nil {
		return fmt.Errorf("preparing the remote executor: %w", err)
	}

	deployment := provision.NewContext(ctx, topo, provision.Options{
		Prefix:        opts.Prefix,
		PublicNetwork: opts.PublicNetwork,
		Cleanup:       opts.Cleanup,
		PublicKeys:    publicKeys,
		LeaseTimeout:  opts.LeaseTimeout,
	}, client, executor, log)

	return provision.RunPhases(deployment, provision.Phases(opts.Cleanup))
}

// readPublicKeys collects the authorized-key lines of every given
// file, one entry per non-empty line.
func readPublicKeys(paths []string) ([]string, error) {
	var keys []string
	for _, path := range paths {
		content, err := readFile(path)
		if err != nil {
			return nil, usagef("reading public key file: %w", err)
		}
		for _, line := range strings.Split(string(content), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				keys = append(keys, line)
			}
		}
	}
	return keys, nil
}

// readPrivateKey loads the SSH key for the hypervisor connection,
// defaulting to the invoking user's id_rsa.
func readPrivateKey(path string) ([]byte, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, usagef("locating the default SSH key: %w", err)
		}
		path = filepath.Join(home, ".ssh", "id_rsa")
	}
	content, err := readFile(path)
	if err != nil {
		return nil, usagef("reading SSH key: %w", err)
	}
	return content, nil
}

// newLogger builds the console logger handed to the phases.
func newLogger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{})
}
