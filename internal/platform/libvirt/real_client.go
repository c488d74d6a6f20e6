package libvirt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	golibvirt "github.com/digitalocean/go-libvirt"
	"golang.org/x/crypto/ssh"

	"github.com/enovance/infra-virt/internal/descriptor"
)

const (
	sshPort     = 22
	dialTimeout = 10 * time.Second

	// socketPath is the libvirt daemon socket on the hypervisor host.
	socketPath = "/var/run/libvirt/libvirt-sock"
)

// Real implements Client over the libvirt RPC protocol, tunneled
// through SSH to the hypervisor host.
type Real struct {
	tunnel *ssh.Client
	conn   net.Conn
	rpc    *golibvirt.Libvirt
}

// Connect opens the SSH tunnel to host's libvirt socket and starts a
// libvirt RPC session over it.
func Connect(host, user string, privateKey []byte) (*Real, error) {
	signer, err := ssh.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // ephemeral lab hypervisors
		Timeout:         dialTimeout,
	}

	tunnel, err := ssh.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(sshPort)), config)
	if err != nil {
		return nil, fmt.Errorf("failed to reach hypervisor %s: %w", host, err)
	}

	conn, err := tunnel.Dial("unix", socketPath)
	if err != nil {
		tunnel.Close()
		return nil, fmt.Errorf("failed to reach libvirt socket on %s: %w", host, err)
	}

	rpc := golibvirt.New(conn)
	if err := rpc.Connect(); err != nil {
		conn.Close()
		tunnel.Close()
		return nil, fmt.Errorf("failed to open libvirt session on %s: %w", host, err)
	}

	return &Real{tunnel: tunnel, conn: conn, rpc: rpc}, nil
}

// Close ends the libvirt session and tears the tunnel down.
func (r *Real) Close() error {
	if err := r.rpc.Disconnect(); err != nil {
		r.tunnel.Close()
		return err
	}
	return r.tunnel.Close()
}

func (r *Real) ListNetworks(_ context.Context) ([]string, error) {
	nets, _, err := r.rpc.ConnectListAllNetworks(1, 0)
	if err != nil {
		return nil, fmt.Errorf("listing networks: %w", err)
	}
	names := make([]string, len(nets))
	for i, n := range nets {
		names[i] = n.Name
	}
	return names, nil
}

func (r *Real) CreateNetwork(_ context.Context, xml string) error {
	if _, err := r.rpc.NetworkCreateXML(xml); err != nil {
		return fmt.Errorf("creating network: %w", err)
	}
	return nil
}

func (r *Real) NetworkIsActive(_ context.Context, name string) (bool, error) {
	network, err := r.rpc.NetworkLookupByName(name)
	if err != nil {
		return false, fmt.Errorf("looking up network %s: %w", name, err)
	}
	active, err := r.rpc.NetworkIsActive(network)
	if err != nil {
		return false, fmt.Errorf("querying network %s: %w", name, err)
	}
	return active == 1, nil
}

func (r *Real) ActivateNetwork(_ context.Context, name string) error {
	network, err := r.rpc.NetworkLookupByName(name)
	if err != nil {
		return fmt.Errorf("looking up network %s: %w", name, err)
	}
	if err := r.rpc.NetworkCreate(network); err != nil {
		return fmt.Errorf("activating network %s: %w", name, err)
	}
	return nil
}

func (r *Real) DestroyNetwork(_ context.Context, name string) error {
	network, err := r.rpc.NetworkLookupByName(name)
	if err != nil {
		return fmt.Errorf("looking up network %s: %w", name, err)
	}
	if err := r.rpc.NetworkDestroy(network); err != nil {
		return fmt.Errorf("destroying network %s: %w", name, err)
	}
	return nil
}

func (r *Real) DHCPLeases(_ context.Context, name string) ([]Lease, error) {
	network, err := r.rpc.NetworkLookupByName(name)
	if err != nil {
		return nil, fmt.Errorf("looking up network %s: %w", name, err)
	}
	raw, _, err := r.rpc.NetworkGetDhcpLeases(network, nil, 1, 0)
	if err != nil {
		if isErrCode(err, golibvirt.ErrNoSupport) {
			return nil, ErrLeasesUnsupported
		}
		return nil, fmt.Errorf("reading leases of %s: %w", name, err)
	}

	leases := make([]Lease, 0, len(raw))
	for _, l := range raw {
		lease := Lease{IPAddr: l.Ipaddr}
		if len(l.Mac) > 0 {
			lease.MAC = l.Mac[0]
		}
		if len(l.Hostname) > 0 {
			lease.Hostname = l.Hostname[0]
		}
		leases = append(leases, lease)
	}
	return leases, nil
}

func (r *Real) ListDomains(_ context.Context) ([]string, error) {
	domains, _, err := r.rpc.ConnectListAllDomains(1, 0)
	if err != nil {
		return nil, fmt.Errorf("listing domains: %w", err)
	}
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = d.Name
	}
	return names, nil
}

func (r *Real) DomainExists(_ context.Context, name string) (bool, error) {
	_, err := r.rpc.DomainLookupByName(name)
	if err != nil {
		if isErrCode(err, golibvirt.ErrNoDomain) {
			return false, nil
		}
		return false, fmt.Errorf("looking up domain %s: %w", name, err)
	}
	return true, nil
}

func (r *Real) DefineDomain(_ context.Context, xml string) error {
	if _, err := r.rpc.DomainDefineXML(xml); err != nil {
		return fmt.Errorf("defining domain: %w", err)
	}
	return nil
}

func (r *Real) StartDomain(_ context.Context, name string) error {
	domain, err := r.rpc.DomainLookupByName(name)
	if err != nil {
		return fmt.Errorf("looking up domain %s: %w", name, err)
	}
	if err := r.rpc.DomainCreate(domain); err != nil {
		return fmt.Errorf("starting domain %s: %w", name, err)
	}
	return nil
}

func (r *Real) StopDomain(_ context.Context, name string) error {
	domain, err := r.rpc.DomainLookupByName(name)
	if err != nil {
		return fmt.Errorf("looking up domain %s: %w", name, err)
	}
	if err := r.rpc.DomainDestroy(domain); err != nil {
		return fmt.Errorf("stopping domain %s: %w", name, err)
	}
	return nil
}

func (r *Real) UndefineDomain(_ context.Context, name string) error {
	domain, err := r.rpc.DomainLookupByName(name)
	if err != nil {
		return fmt.Errorf("looking up domain %s: %w", name, err)
	}
	if err := r.rpc.DomainUndefine(domain); err != nil {
		return fmt.Errorf("undefining domain %s: %w", name, err)
	}
	return nil
}

func (r *Real) DomainState(_ context.Context, name string) (DomainState, error) {
	domain, err := r.rpc.DomainLookupByName(name)
	if err != nil {
		return DomainStateUnknown, fmt.Errorf("looking up domain %s: %w", name, err)
	}
	state, _, err := r.rpc.DomainGetState(domain, 0)
	if err != nil {
		return DomainStateUnknown, fmt.Errorf("querying domain %s: %w", name, err)
	}
	switch state {
	case int32(golibvirt.DomainRunning):
		return DomainStateRunning, nil
	case int32(golibvirt.DomainPaused):
		return DomainStatePaused, nil
	case int32(golibvirt.DomainShutoff):
		return DomainStateShutoff, nil
	default:
		return DomainStateUnknown, nil
	}
}

func (r *Real) DomainMetadata(_ context.Context, name string) (string, bool, error) {
	domain, err := r.rpc.DomainLookupByName(name)
	if err != nil {
		return "", false, fmt.Errorf("looking up domain %s: %w", name, err)
	}
	value, err := r.rpc.DomainGetMetadata(domain,
		int32(golibvirt.DomainMetadataElement),
		golibvirt.OptString{descriptor.InstanceMetadataNS},
		golibvirt.DomainAffectConfig)
	if err != nil {
		if isErrCode(err, golibvirt.ErrNoDomainMetadata) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading metadata of domain %s: %w", name, err)
	}
	return value, true, nil
}

func isErrCode(err error, code golibvirt.ErrorNumber) bool {
	var lverr golibvirt.Error
	if errors.As(err, &lverr) {
		return lverr.Code == uint32(code)
	}
	return false
}
