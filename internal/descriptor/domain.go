// Package descriptor builds the XML documents submitted to libvirt.
//
// Builders validate their input: a record missing a required field is
// an error, never an empty substitution in the produced document. A
// defaulting bug upstream must surface here, not as a malformed domain
// on the hypervisor.
package descriptor

import (
	"fmt"

	"libvirt.org/go/libvirtxml"

	"github.com/enovance/infra-virt/internal/topology"
)

// InstanceMetadataNS is the private XML namespace under which each
// domain records the deployment prefix that created it.
const InstanceMetadataNS = "http://virtualizor/instance"

// DomainRecord is the resolved per-host input of the domain builder.
// Disks carry their provisioned path, device name and boot order; NICs
// carry their concrete network name.
type DomainRecord struct {
	Name        string
	UUID        string
	Prefix      string
	Emulator    string
	MemoryKiB   int
	NCPUs       int
	Serial      string
	ProductName string
	Disks       []*topology.Disk
	NICs        []*topology.NIC
}

// Domain renders the libvirt domain document for rec.
func Domain(rec DomainRecord) (string, error) {
	if err := validateDomain(rec); err != nil {
		return "", err
	}

	dom := &libvirtxml.Domain{
		Type: "kvm",
		Name: rec.Name,
		UUID: rec.UUID,
		Metadata: &libvirtxml.DomainMetadata{
			XML: fmt.Sprintf(`<instance xmlns="%s"><prefix>%s</prefix></instance>`,
				InstanceMetadataNS, rec.Prefix),
		},
		Memory: &libvirtxml.DomainMemory{Value: uint(rec.MemoryKiB), Unit: "KiB"},
		VCPU:   &libvirtxml.DomainVCPU{Value: uint(rec.NCPUs)},
		OS: &libvirtxml.DomainOS{
			Type: &libvirtxml.DomainOSType{Arch: "x86_64", Type: "hvm"},
		},
		Features: &libvirtxml.DomainFeatureList{
			ACPI: &libvirtxml.DomainFeature{},
			APIC: &libvirtxml.DomainFeatureAPIC{},
		},
		Clock:      &libvirtxml.DomainClock{Offset: "utc"},
		OnPoweroff: "destroy",
		OnReboot:   "restart",
		OnCrash:    "restart",
		Devices: &libvirtxml.DomainDeviceList{
			Emulator: rec.Emulator,
		},
	}

	if rec.Serial != "" || rec.ProductName != "" {
		dom.OS.SMBios = &libvirtxml.DomainSMBios{Mode: "sysinfo"}
		dom.SysInfo = []libvirtxml.DomainSysInfo{{
			SMBIOS: &libvirtxml.DomainSysInfoSMBIOS{
				System: &libvirtxml.DomainSysInfoSystem{
					Entry: sysinfoEntries(rec),
				},
			},
		}}
	}

	for _, disk := range rec.Disks {
		dom.Devices.Disks = append(dom.Devices.Disks, domainDisk(disk))
	}
	for _, nic := range rec.NICs {
		dom.Devices.Interfaces = append(dom.Devices.Interfaces, domainInterface(nic))
	}

	dom.Devices.Serials = []libvirtxml.DomainSerial{{}}
	dom.Devices.Consoles = []libvirtxml.DomainConsole{{
		Target: &libvirtxml.DomainConsoleTarget{Type: "serial"},
	}}
	dom.Devices.Graphics = []libvirtxml.DomainGraphic{{
		VNC: &libvirtxml.DomainGraphicVNC{AutoPort: "yes"},
	}}

	return dom.Marshal()
}

func validateDomain(rec DomainRecord) error {
	missing := func(field string) error {
		return fmt.Errorf("domain descriptor for %q: missing %s", rec.Name, field)
	}
	switch {
	case rec.Name == "":
		return fmt.Errorf("domain descriptor: missing name")
	case rec.UUID == "":
		return missing("uuid")
	case rec.Emulator == "":
		return missing("emulator")
	case rec.MemoryKiB <= 0:
		return missing("memory")
	case rec.NCPUs <= 0:
		return missing("ncpus")
	case len(rec.Disks) == 0:
		return missing("disks")
	}
	for i, disk := range rec.Disks {
		if disk.Path == "" {
			return fmt.Errorf("domain descriptor for %q: disk %d has no resolved path", rec.Name, i)
		}
		if disk.Device == "" {
			return fmt.Errorf("domain descriptor for %q: disk %d has no device name", rec.Name, i)
		}
	}
	for i, nic := range rec.NICs {
		if nic.MAC == "" {
			return fmt.Errorf("domain descriptor for %q: nic %d has no MAC", rec.Name, i)
		}
		if nic.NetworkName == "" || nic.NetworkName == topology.PublicNetworkToken {
			return fmt.Errorf("domain descriptor for %q: nic %d has no resolved network", rec.Name, i)
		}
	}
	return nil
}

func sysinfoEntries(rec DomainRecord) []libvirtxml.DomainSysInfoEntry {
	var entries []libvirtxml.DomainSysInfoEntry
	if rec.Serial != "" {
		entries = append(entries, libvirtxml.DomainSysInfoEntry{Name: "serial", Value: rec.Serial})
	}
	if rec.ProductName != "" {
		entries = append(entries, libvirtxml.DomainSysInfoEntry{Name: "product", Value: rec.ProductName})
	}
	return entries
}

func domainDisk(disk *topology.Disk) libvirtxml.DomainDisk {
	d := libvirtxml.DomainDisk{
		Device: "disk",
		Driver: &libvirtxml.DomainDiskDriver{Name: "qemu", Type: "qcow2"},
		Source: &libvirtxml.DomainDiskSource{
			File: &libvirtxml.DomainDiskSourceFile{File: disk.Path},
		},
		Target: &libvirtxml.DomainDiskTarget{Dev: disk.Device, Bus: "virtio"},
	}
	if disk.BootOrder > 0 {
		d.Boot = &libvirtxml.DomainDeviceBoot{Order: uint(disk.BootOrder)}
	}
	return d
}

func domainInterface(nic *topology.NIC) libvirtxml.DomainInterface {
	iface := libvirtxml.DomainInterface{
		MAC: &libvirtxml.DomainInterfaceMAC{Address: nic.MAC},
		Source: &libvirtxml.DomainInterfaceSource{
			Network: &libvirtxml.DomainInterfaceSourceNetwork{Network: nic.NetworkName},
		},
		Model: &libvirtxml.DomainInterfaceModel{Type: "virtio"},
	}
	if nic.BootOrder > 0 {
		iface.Boot = &libvirtxml.DomainDeviceBoot{Order: uint(nic.BootOrder)}
	}
	return iface
}
