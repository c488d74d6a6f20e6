// Package topology models the virtual infrastructure description: the
// hosts to deploy with their disks and NICs, the optional network
// definitions, and the optional base-image download location.
//
// The description is loaded once, enriched in place with generated
// defaults (MAC addresses, interface names, bootproto), and then
// consumed read-only by the provisioner. Disk records additionally
// receive their resolved path and device name while the host is being
// reconciled; each host is reconciled exactly once, never concurrently.
package topology

// PublicNetworkToken is the reserved network reference denoting the
// shared public network, whose concrete name is only known at run time.
const PublicNetworkToken = "__public_network__"

const (
	// DefaultMemoryKiB is the domain memory when the description has
	// no override (8 GiB, expressed in KiB as libvirt expects).
	DefaultMemoryKiB = 8 * 1024 * 1024

	// DefaultNCPUs is the vCPU count when the description has no override.
	DefaultNCPUs = 2
)

// Topology is the root of the infrastructure description.
type Topology struct {
	Hosts     map[string]*Host    `mapstructure:"hosts"`
	Networks  map[string]*Network `mapstructure:"networks"`
	ImagesURL string              `mapstructure:"images-url"`
}

// Host describes one virtual machine to deploy.
type Host struct {
	// Hostname is the logical name, set from the map key during load.
	Hostname string `mapstructure:"-"`

	Profile     string `mapstructure:"profile"`
	UUID        string `mapstructure:"uuid"`
	Serial      string `mapstructure:"serial"`
	ProductName string `mapstructure:"product_name"`
	MemoryKiB   int    `mapstructure:"memory"`
	NCPUs       int    `mapstructure:"ncpus"`

	// Disks is ordered; the first entry is always the boot disk.
	Disks []*Disk `mapstructure:"disks"`
	NICs  []*NIC  `mapstructure:"nics"`

	// Files are extra file-injection entries for the seed image.
	Files []ExtraFile `mapstructure:"files"`
}

// Disk describes one disk volume of a host.
type Disk struct {
	// Size keeps its unit suffix; conversion happens at provisioning
	// time and only for the Gi suffix.
	Size string `mapstructure:"size"`

	// Image, when set, names the base image the volume is backed by.
	// A backed volume is created copy-on-write and resized afterwards.
	Image string `mapstructure:"image"`

	// Filled in during provisioning.
	Path      string `mapstructure:"-"`
	Device    string `mapstructure:"-"`
	BootOrder int    `mapstructure:"-"`
}

// NIC describes one network interface of a host.
type NIC struct {
	MAC  string `mapstructure:"mac"`
	Name string `mapstructure:"name"`

	// NetworkName references a logical network. Empty means the
	// per-deployment private network; PublicNetworkToken means the
	// shared public network. The provisioner resolves it in place to
	// the concrete libvirt network name.
	NetworkName string `mapstructure:"network_name"`

	IP        string `mapstructure:"ip"`
	Network   string `mapstructure:"network"`
	Netmask   string `mapstructure:"netmask"`
	Gateway   string `mapstructure:"gateway"`
	Bootproto string `mapstructure:"bootproto"`

	NAT  bool `mapstructure:"nat"`
	VLAN bool `mapstructure:"vlan"`

	BootOrder int `mapstructure:"-"`
}

// ExtraFile is a caller-supplied file injected through the seed image.
type ExtraFile struct {
	Path        string `mapstructure:"path" yaml:"path"`
	Content     string `mapstructure:"content" yaml:"content"`
	Permissions string `mapstructure:"permissions" yaml:"permissions,omitempty"`
	Owner       string `mapstructure:"owner" yaml:"owner,omitempty"`
}

// Network describes a network to instantiate. The bridge name is
// generated per instantiation, never persisted here.
type Network struct {
	UUID string `mapstructure:"uuid"`
	MAC  string `mapstructure:"mac"`
	DHCP *DHCP  `mapstructure:"dhcp"`
}

// DHCP is the optional address block served by a network.
type DHCP struct {
	Address string     `mapstructure:"address"`
	Netmask string     `mapstructure:"netmask"`
	Range   *DHCPRange `mapstructure:"range"`
}

// DHCPRange bounds the dynamically assigned addresses.
type DHCPRange struct {
	IPStart string `mapstructure:"ipstart"`
	IPEnd   string `mapstructure:"ipend"`
}
