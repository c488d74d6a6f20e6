package provision

import (
	"context"
	"sort"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
	"libvirt.org/go/libvirtxml"

	"github.com/enovance/infra-virt/internal/platform/libvirt"
	"github.com/enovance/infra-virt/internal/platform/remote"
	"github.com/enovance/infra-virt/internal/topology"
)

// fakeHypervisor backs the libvirt and remote mocks with shared state,
// so a pipeline run behaves like a real hypervisor: created networks
// appear in listings, defined domains can be looked up and purged,
// remote probes reflect which files exist.
type fakeHypervisor struct {
	networks map[string]bool // name -> active
	domains  map[string]libvirt.DomainState
	metadata map[string]string

	leases            []libvirt.Lease
	leasesUnsupported bool
	leasesFile        string

	// absent lists remote paths the "test" probe reports missing.
	absent map[string]bool

	commands   [][]string
	copies     []string
	defineXMLs []string

	netCreates, netActivates, netDestroys int
	defines, starts, stops, undefines     int
}

func newFakeHypervisor() *fakeHypervisor {
	return &fakeHypervisor{
		networks: map[string]bool{},
		domains:  map[string]libvirt.DomainState{},
		metadata: map[string]string{},
		absent:   map[string]bool{},
	}
}

func (f *fakeHypervisor) client(t *testing.T) *libvirt.Mock {
	t.Helper()
	return &libvirt.Mock{
		ListNetworksFunc: func(context.Context) ([]string, error) {
			return sortedKeys(f.networks), nil
		},
		CreateNetworkFunc: func(_ context.Context, xml string) error {
			var net libvirtxml.Network
			require.NoError(t, net.Unmarshal(xml))
			f.networks[net.Name] = true
			f.netCreates++
			return nil
		},
		NetworkIsActiveFunc: func(_ context.Context, name string) (bool, error) {
			return f.networks[name], nil
		},
		ActivateNetworkFunc: func(_ context.Context, name string) error {
			f.networks[name] = true
			f.netActivates++
			return nil
		},
		DestroyNetworkFunc: func(_ context.Context, name string) error {
			delete(f.networks, name)
			f.netDestroys++
			return nil
		},
		DHCPLeasesFunc: func(context.Context, string) ([]libvirt.Lease, error) {
			if f.leasesUnsupported {
				return nil, libvirt.ErrLeasesUnsupported
			}
			return f.leases, nil
		},
		ListDomainsFunc: func(context.Context) ([]string, error) {
			names := make([]string, 0, len(f.domains))
			for name := range f.domains {
				names = append(names, name)
			}
			sort.Strings(names)
			return names, nil
		},
		DomainExistsFunc: func(_ context.Context, name string) (bool, error) {
			_, ok := f.domains[name]
			return ok, nil
		},
		DefineDomainFunc: func(_ context.Context, xml string) error {
			var dom libvirtxml.Domain
			require.NoError(t, dom.Unmarshal(xml))
			f.domains[dom.Name] = libvirt.DomainStateShutoff
			if dom.Metadata != nil {
				f.metadata[dom.Name] = dom.Metadata.XML
			}
			f.defineXMLs = append(f.defineXMLs, xml)
			f.defines++
			return nil
		},
		StartDomainFunc: func(_ context.Context, name string) error {
			f.domains[name] = libvirt.DomainStateRunning
			f.starts++
			return nil
		},
		StopDomainFunc: func(_ context.Context, name string) error {
			f.domains[name] = libvirt.DomainStateShutoff
			f.stops++
			return nil
		},
		UndefineDomainFunc: func(_ context.Context, name string) error {
			delete(f.domains, name)
			f.undefines++
			return nil
		},
		DomainStateFunc: func(_ context.Context, name string) (libvirt.DomainState, error) {
			return f.domains[name], nil
		},
		DomainMetadataFunc: func(_ context.Context, name string) (string, bool, error) {
			value, ok := f.metadata[name]
			return value, ok, nil
		},
	}
}

func (f *fakeHypervisor) executor() *remote.Mock {
	return &remote.Mock{
		RunFunc: func(_ context.Context, argv ...string) error {
			f.commands = append(f.commands, argv)
			switch argv[0] {
			case "test":
				path := argv[len(argv)-1]
				if f.absent[path] {
					return &remote.ExitError{Argv: argv, Code: 1}
				}
			case "wget":
				for i, arg := range argv {
					if arg == "-O" && i+1 < len(argv) {
						delete(f.absent, argv[i+1])
					}
				}
			}
			return nil
		},
		OutputFunc: func(_ context.Context, argv ...string) (string, error) {
			f.commands = append(f.commands, argv)
			return f.leasesFile, nil
		},
		CopyFunc: func(_ context.Context, _ []byte, remotePath string) error {
			f.copies = append(f.copies, remotePath)
			return nil
		},
	}
}

// count tallies recorded commands beginning with the given words.
func (f *fakeHypervisor) count(prefix ...string) int {
	n := 0
	for _, argv := range f.commands {
		if hasPrefix(argv, prefix) {
			n++
		}
	}
	return n
}

func hasPrefix(argv, prefix []string) bool {
	if len(argv) < len(prefix) {
		return false
	}
	for i, word := range prefix {
		if argv[i] != word {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newTestContext(t *testing.T, topo *topology.Topology, opts Options, fake *fakeHypervisor) *Context {
	t.Helper()
	if opts.PublicNetwork == "" {
		opts.PublicNetwork = "nat"
	}
	if opts.Prefix == "" {
		opts.Prefix = "default"
	}
	ctx := NewContext(context.Background(), topo, opts, fake.client(t), fake.executor(), logr.Discard())
	ctx.State.Emulator = "/usr/bin/qemu-system-x86_64"
	return ctx
}

// scenarioTopology mirrors a representative deployment: a gateway with
// no base image and four hosts backed by a shared base image, each
// host with one extra blank disk beyond the boot disk.
func scenarioTopology(t *testing.T) *topology.Topology {
	t.Helper()
	doc := `
images-url: http://images.example.com/pub
hosts:
  router:
    profile: gateway
    disks:
      - size: 10Gi
      - size: 50Gi
    nics:
      - mac: "52:54:00:00:01:01"
        network_name: __public_network__
        nat: true
      - mac: "52:54:00:00:01:02"
        ip: 192.168.100.1
        network: 192.168.100.0
        netmask: 255.255.255.0
        gateway: 192.168.100.1
  os-ci-test10:
    profile: install-server
    disks:
      - size: 30Gi
        image: install-server.img.qcow2
      - size: 100Gi
    nics:
      - mac: "52:54:00:00:02:01"
        network_name: __public_network__
  node-1:
    disks:
      - size: 20Gi
        image: node.img.qcow2
      - size: 40Gi
    nics:
      - mac: "52:54:00:00:03:01"
  node-2:
    disks:
      - size: 20Gi
        image: node.img.qcow2
      - size: 40Gi
    nics:
      - mac: "52:54:00:00:04:01"
  node-3:
    disks:
      - size: 20Gi
        image: node.img.qcow2
      - size: 40Gi
    nics:
      - mac: "52:54:00:00:05:01"
`
	topo, err := topology.Parse([]byte(doc))
	require.NoError(t, err)
	return topo
}

func singleHostTopology(t *testing.T, image string) *topology.Topology {
	t.Helper()
	doc := `
hosts:
  os-ci-test11:
    disks:
      - size: 10Gi
`
	topo, err := topology.Parse([]byte(doc))
	require.NoError(t, err)
	host := topo.Hosts["os-ci-test11"]
	host.Disks[0].Image = image
	host.NICs = []*topology.NIC{{
		MAC:         "52:54:00:0a:0b:0c",
		Name:        "eth0",
		NetworkName: topology.PublicNetworkToken,
		Bootproto:   "dhcp",
	}}
	return topo
}
