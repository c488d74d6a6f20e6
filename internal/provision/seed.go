package provision

import (
	"fmt"

	"github.com/enovance/infra-virt/internal/cloudinit"
	"github.com/enovance/infra-virt/internal/topology"
	"github.com/enovance/infra-virt/internal/util/naming"
)

// buildSeedImage packs the host's first-boot configuration into a
// small FAT volume the guest's cloud-init agent discovers by label.
// It must run after the regular disks are provisioned and before the
// domain document is rendered, so the returned disk takes part in
// device naming.
func buildSeedImage(ctx *Context, domain string, host *topology.Host) (*topology.Disk, error) {
	userData, err := cloudinit.UserData(cloudinit.Params{
		Hostname:   host.Hostname,
		NICs:       host.NICs,
		ExtraFiles: host.Files,
		PublicKeys: ctx.Opts.PublicKeys,
	})
	if err != nil {
		return nil, err
	}
	metaData := cloudinit.MetaData(host.Hostname)

	dataDir := naming.SeedDataDir(domain)
	if err := ctx.Remote.Run(ctx, "mkdir", "-p", dataDir); err != nil {
		return nil, fmt.Errorf("preparing seed data dir for %s: %w", host.Hostname, err)
	}
	if err := ctx.Remote.Copy(ctx, []byte(metaData), dataDir+"/meta-data"); err != nil {
		return nil, fmt.Errorf("copying meta-data for %s: %w", host.Hostname, err)
	}
	if err := ctx.Remote.Copy(ctx, []byte(userData), dataDir+"/user-data"); err != nil {
		return nil, fmt.Errorf("copying user-data for %s: %w", host.Hostname, err)
	}

	image := naming.SeedImagePath(domain)
	tmp := image + ".tmp"
	steps := [][]string{
		{"truncate", "--size", "2M", tmp},
		{"mkfs.vfat", "-n", "cidata", tmp},
		{"mcopy", "-oi", tmp, dataDir + "/user-data", dataDir + "/meta-data", "::"},
		{"qemu-img", "convert", "-O", "qcow2", tmp, image},
		{"rm", tmp},
	}
	for _, argv := range steps {
		if err := ctx.Remote.Run(ctx, argv...); err != nil {
			return nil, fmt.Errorf("building seed image for %s: %w", host.Hostname, err)
		}
	}

	return &topology.Disk{Path: image}, nil
}
