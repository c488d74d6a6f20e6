package provision

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/enovance/infra-virt/internal/descriptor"
	"github.com/enovance/infra-virt/internal/topology"
	"github.com/enovance/infra-virt/internal/util/naming"
)

type hostsPhase struct{}

func (hostsPhase) Name() string { return "hosts" }

func (hostsPhase) Run(ctx *Context) error {
	for _, hostname := range sortedHostnames(ctx.Topology) {
		if err := reconcileHost(ctx, ctx.Topology.Hosts[hostname]); err != nil {
			return fmt.Errorf("host %s: %w", hostname, err)
		}
	}
	return nil
}

// reconcileHost materializes one domain: disks, seed image, domain
// definition, start. A domain that already exists is left untouched
// unless the cleanup policy is in force, in which case it is stopped
// and undefined first, then rebuilt from scratch.
func reconcileHost(ctx *Context, host *topology.Host) error {
	domain := naming.Namespaced(ctx.Opts.Prefix, host.Hostname)

	for _, nic := range host.NICs {
		resolveNIC(ctx, nic)
	}

	exists, err := ctx.Client.DomainExists(ctx, domain)
	if err != nil {
		return err
	}
	if exists {
		if !ctx.Opts.Cleanup {
			ctx.Log.Info("domain already defined, leaving it untouched", "domain", domain)
			return nil
		}
		ctx.Log.Info("replacing domain", "domain", domain)
		if err := purgeDomain(ctx, domain); err != nil {
			return err
		}
	}

	for i, disk := range host.Disks {
		if err := provisionDisk(ctx, domain, i, disk); err != nil {
			return err
		}
		disk.Device = diskDevice(i)
	}

	// The seed image is attached last so it never shifts the device
	// names of the regular disks.
	disks := make([]*topology.Disk, len(host.Disks))
	copy(disks, host.Disks)
	if host.Disks[0].Image != "" {
		seed, err := buildSeedImage(ctx, domain, host)
		if err != nil {
			return err
		}
		seed.Device = diskDevice(len(disks))
		disks = append(disks, seed)
	}

	// Boot precedence: local disk first, then network. Some profiles
	// rely on trying the network before the installed disk is
	// populated, keep this assignment exactly.
	disks[0].BootOrder = 1
	if len(host.NICs) > 0 {
		host.NICs[0].BootOrder = 2
	}

	rec := descriptor.DomainRecord{
		Name:        domain,
		UUID:        host.UUID,
		Prefix:      ctx.Opts.Prefix,
		Emulator:    ctx.State.Emulator,
		MemoryKiB:   host.MemoryKiB,
		NCPUs:       host.NCPUs,
		Serial:      host.Serial,
		ProductName: host.ProductName,
		Disks:       disks,
		NICs:        host.NICs,
	}
	if rec.UUID == "" {
		rec.UUID = uuid.NewString()
	}

	doc, err := descriptor.Domain(rec)
	if err != nil {
		return err
	}
	if err := ctx.Client.DefineDomain(ctx, doc); err != nil {
		return fmt.Errorf("defining domain %s: %w", domain, err)
	}
	if err := ctx.Client.StartDomain(ctx, domain); err != nil {
		return fmt.Errorf("starting domain %s: %w", domain, err)
	}
	ctx.Log.Info("domain started", "domain", domain)
	return nil
}

// resolveNIC replaces logical network references with concrete libvirt
// network names.
func resolveNIC(ctx *Context, nic *topology.NIC) {
	switch nic.NetworkName {
	case "":
		nic.NetworkName = naming.PrivateNetwork(ctx.Opts.Prefix)
	case topology.PublicNetworkToken:
		nic.NetworkName = ctx.Opts.PublicNetwork
	}
}
