package provision

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/enovance/infra-virt/internal/topology"
	"github.com/enovance/infra-virt/internal/util/naming"
)

var giSuffix = regexp.MustCompile(`^(\d+)Gi`)

// CanonicalSize converts a Gi-suffixed size into a plain byte count
// for qemu-img. Any other form passes through untouched; qemu-img owns
// the parsing of its own unit suffixes. The multiplier is decimal
// 1000³, kept as-is for compatibility with volumes created by earlier
// deployments.
func CanonicalSize(size string) string {
	m := giSuffix.FindStringSubmatch(size)
	if m == nil {
		return size
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return size
	}
	return strconv.FormatInt(n*1000*1000*1000, 10)
}

// provisionDisk creates the volume backing one disk of a domain and
// records its resolved path. Backed volumes are created copy-on-write
// against their base image and then resized: creation alone keeps the
// base image's virtual size.
func provisionDisk(ctx *Context, domain string, index int, disk *topology.Disk) error {
	path := naming.DiskPath(domain, index)
	size := CanonicalSize(disk.Size)

	if disk.Image != "" {
		if err := ctx.Remote.Run(ctx, "qemu-img", "create", "-q", "-f", "qcow2",
			"-b", disk.Image, "-F", "qcow2", path, size); err != nil {
			return fmt.Errorf("creating volume %s: %w", path, err)
		}
		if err := ctx.Remote.Run(ctx, "qemu-img", "resize", "-q", path, size); err != nil {
			return fmt.Errorf("resizing volume %s: %w", path, err)
		}
	} else {
		if err := ctx.Remote.Run(ctx, "qemu-img", "create", "-q", "-f", "qcow2", path, size); err != nil {
			return fmt.Errorf("creating volume %s: %w", path, err)
		}
	}

	disk.Path = path
	return nil
}

// diskDevice assigns device names in creation order: vda, vdb, ...
func diskDevice(index int) string {
	return "vd" + string(rune('a'+index))
}
