package descriptor

import (
	"fmt"

	"libvirt.org/go/libvirtxml"

	"github.com/enovance/infra-virt/internal/topology"
)

// NetworkRecord is the resolved input of the network builder. UUID,
// MAC and BridgeName are always set by the caller (generated unless
// the description fixes them).
type NetworkRecord struct {
	Name       string
	UUID       string
	BridgeName string
	MAC        string
	NAT        bool
	DHCP       *topology.DHCP
}

// Network renders the libvirt network document for rec.
func Network(rec NetworkRecord) (string, error) {
	switch {
	case rec.Name == "":
		return "", fmt.Errorf("network descriptor: missing name")
	case rec.UUID == "":
		return "", fmt.Errorf("network descriptor for %q: missing uuid", rec.Name)
	case rec.BridgeName == "":
		return "", fmt.Errorf("network descriptor for %q: missing bridge name", rec.Name)
	case rec.MAC == "":
		return "", fmt.Errorf("network descriptor for %q: missing mac", rec.Name)
	}

	net := &libvirtxml.Network{
		Name: rec.Name,
		UUID: rec.UUID,
		Bridge: &libvirtxml.NetworkBridge{
			Name:  rec.BridgeName,
			STP:   "on",
			Delay: "0",
		},
		MAC: &libvirtxml.NetworkMAC{Address: rec.MAC},
	}
	if rec.NAT {
		net.Forward = &libvirtxml.NetworkForward{Mode: "nat"}
	}
	if rec.DHCP != nil {
		ip := libvirtxml.NetworkIP{
			Address: rec.DHCP.Address,
			Netmask: rec.DHCP.Netmask,
		}
		if rec.DHCP.Range != nil {
			ip.DHCP = &libvirtxml.NetworkDHCP{
				Ranges: []libvirtxml.NetworkDHCPRange{{
					Start: rec.DHCP.Range.IPStart,
					End:   rec.DHCP.Range.IPEnd,
				}},
			}
		}
		net.IPs = []libvirtxml.NetworkIP{ip}
	}

	return net.Marshal()
}
