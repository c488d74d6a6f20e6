package topology

import (
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// macSentinel is emitted by the hardware collector when a NIC has no
// MAC; it is replaced with a generated one like a missing value.
const macSentinel = "none"

// Load reads and parses the infrastructure description from a YAML file.
func Load(path string) (*Topology, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read infrastructure description: %w", err)
	}
	return Parse(data)
}

// Parse decodes the description and enriches it in place with generated
// defaults. This runs exactly once, before any provisioning begins.
func Parse(data []byte) (*Topology, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var topo Topology
	if err := mapstructure.Decode(raw, &topo); err != nil {
		return nil, fmt.Errorf("failed to decode infrastructure description: %w", err)
	}

	if len(topo.Hosts) == 0 {
		return nil, fmt.Errorf("infrastructure description has no hosts")
	}

	for hostname, host := range topo.Hosts {
		host.Hostname = hostname
		if err := defaultHost(host); err != nil {
			return nil, err
		}
	}

	if err := validateMACs(&topo); err != nil {
		return nil, err
	}

	return &topo, nil
}

func defaultHost(host *Host) error {
	if len(host.Disks) == 0 {
		return fmt.Errorf("host %q has no disks; the first disk is the boot disk", host.Hostname)
	}
	if host.MemoryKiB == 0 {
		host.MemoryKiB = DefaultMemoryKiB
	}
	if host.NCPUs == 0 {
		host.NCPUs = DefaultNCPUs
	}

	for i, nic := range host.NICs {
		if nic.MAC == "" || nic.MAC == macSentinel {
			nic.MAC = RandomMAC()
		}
		if nic.Name == "" {
			nic.Name = fmt.Sprintf("eth%d", i)
		}
		if nic.Bootproto == "" {
			if nic.IP != "" {
				nic.Bootproto = "static"
			} else {
				nic.Bootproto = "dhcp"
			}
		}
	}
	return nil
}

// validateMACs rejects duplicate MAC addresses across the whole
// description. A collision would otherwise only surface much later, as
// a DHCP lease resolved against the wrong host.
func validateMACs(topo *Topology) error {
	hostnames := make([]string, 0, len(topo.Hosts))
	for hostname := range topo.Hosts {
		hostnames = append(hostnames, hostname)
	}
	sort.Strings(hostnames)

	seen := map[string]string{}
	for _, hostname := range hostnames {
		for _, nic := range topo.Hosts[hostname].NICs {
			if owner, ok := seen[nic.MAC]; ok {
				return fmt.Errorf("MAC address %s of host %q is already used by host %q", nic.MAC, hostname, owner)
			}
			seen[nic.MAC] = hostname
		}
	}
	return nil
}

// RandomMAC generates a MAC in the QEMU/KVM locally administered range.
func RandomMAC() string {
	return fmt.Sprintf("52:54:00:%02x:%02x:%02x",
		rand.Intn(256), rand.Intn(256), rand.Intn(256))
}
