// Package libvirt wraps the libvirt RPC API behind the narrow client
// surface the provisioner consumes.
//
// The Client interface abstracts the control plane; Real speaks the
// libvirt RPC protocol through an SSH tunnel to the hypervisor host,
// Mock is the func-field test double. Consumers never see libvirt RPC
// types, only names, states and lease records.
package libvirt

import (
	"context"
	"errors"
)

// DomainState is the subset of libvirt run states the provisioner
// distinguishes.
type DomainState int

const (
	DomainStateUnknown DomainState = iota
	DomainStateRunning
	DomainStatePaused
	DomainStateShutoff
)

// Lease is one DHCP lease record of a network.
type Lease struct {
	MAC      string
	IPAddr   string
	Hostname string
}

// ErrLeasesUnsupported reports a hypervisor that cannot enumerate DHCP
// leases through the control plane. Callers fall back to reading the
// dnsmasq leases file over the remote executor.
var ErrLeasesUnsupported = errors.New("libvirt: dhcp lease enumeration not supported")

// Client is the control-plane surface used by the provisioner.
type Client interface {
	// ListNetworks returns the names of all defined networks.
	ListNetworks(ctx context.Context) ([]string, error)

	// CreateNetwork submits a network document and starts the network.
	CreateNetwork(ctx context.Context, xml string) error

	// NetworkIsActive reports whether the named network is running.
	NetworkIsActive(ctx context.Context, name string) (bool, error)

	// ActivateNetwork starts an already defined, inactive network.
	ActivateNetwork(ctx context.Context, name string) error

	// DestroyNetwork stops and removes the named network.
	DestroyNetwork(ctx context.Context, name string) error

	// DHCPLeases returns the lease table of the named network, or
	// ErrLeasesUnsupported when the hypervisor cannot report it.
	DHCPLeases(ctx context.Context, network string) ([]Lease, error)

	// ListDomains returns the names of all domains, active or not.
	ListDomains(ctx context.Context) ([]string, error)

	// DomainExists reports whether a domain with this exact name is defined.
	DomainExists(ctx context.Context, name string) (bool, error)

	// DefineDomain submits a domain document without starting it.
	DefineDomain(ctx context.Context, xml string) error

	// StartDomain boots the named domain.
	StartDomain(ctx context.Context, name string) error

	// StopDomain forcefully powers off the named domain.
	StopDomain(ctx context.Context, name string) error

	// UndefineDomain removes the definition of a shut-off domain.
	UndefineDomain(ctx context.Context, name string) error

	// DomainState returns the current run state of the named domain.
	DomainState(ctx context.Context, name string) (DomainState, error)

	// DomainMetadata reads the deployment metadata element of a domain.
	// A domain without the element yields found == false, not an error.
	DomainMetadata(ctx context.Context, name string) (value string, found bool, err error)
}
