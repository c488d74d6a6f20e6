// Package provision turns a loaded topology into running domains on
// the hypervisor.
//
// A deployment is a fixed, forward-only sequence of phases: preflight,
// optional cleanup of same-prefix resources, network reconciliation,
// base-image download, host reconciliation in stable order, and DHCP
// lease resolution. Ordering constraints (networks before domains,
// disks before the seed image, the seed image before the domain
// document) are encoded by the phase sequence and the per-host
// reconcile steps, not by convention. Nothing is rolled back on
// failure; re-running with the cleanup flag is the recovery path.
package provision

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/enovance/infra-virt/internal/platform/libvirt"
	"github.com/enovance/infra-virt/internal/platform/remote"
	"github.com/enovance/infra-virt/internal/topology"
)

// Options carries the run-scoped settings collected from the CLI.
type Options struct {
	// Prefix namespaces every resource this run creates.
	Prefix string

	// PublicNetwork is the name of the shared NATed network. It is
	// never destroyed, other deployments may be attached to it.
	PublicNetwork string

	// Cleanup requests the destroy-and-recreate policy for resources
	// already present under the same prefix.
	Cleanup bool

	// PublicKeys is the authorized-key material injected into the
	// deployed accounts, one entry per supplied key file line.
	PublicKeys []string

	// LeaseTimeout bounds each DHCP lease wait. Zero waits forever.
	LeaseTimeout time.Duration
}

// State holds the results the phases produce for each other and for
// the caller.
type State struct {
	// Emulator is the qemu binary found on the hypervisor (preflight).
	Emulator string

	// Addresses maps hostname to the public address resolved from its
	// DHCP lease (leases phase); the run's observable result.
	Addresses map[string]string
}

// Context bundles everything a phase needs.
type Context struct {
	context.Context

	Topology *topology.Topology
	Opts     Options
	Client   libvirt.Client
	Remote   remote.Executor
	Log      logr.Logger
	State    *State
}

// NewContext assembles a deployment context.
func NewContext(ctx context.Context, topo *topology.Topology, opts Options,
	client libvirt.Client, executor remote.Executor, log logr.Logger) *Context {
	return &Context{
		Context:  ctx,
		Topology: topo,
		Opts:     opts,
		Client:   client,
		Remote:   executor,
		Log:      log,
		State:    &State{Addresses: map[string]string{}},
	}
}
