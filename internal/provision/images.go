package provision

import (
	"fmt"

	"github.com/enovance/infra-virt/internal/platform/remote"
	"github.com/enovance/infra-virt/internal/util/naming"
)

type imagesPhase struct{}

func (imagesPhase) Name() string { return "images" }

// Run downloads the base images referenced by the description onto the
// hypervisor. Images already present are kept; a failed download is
// logged and skipped, the host reconciler will fail loudly if the
// image is actually needed.
func (imagesPhase) Run(ctx *Context) error {
	if ctx.Topology.ImagesURL == "" {
		ctx.Log.Info("no images-url in the description, no image will be downloaded")
		return nil
	}

	for _, hostname := range sortedHostnames(ctx.Topology) {
		for _, disk := range ctx.Topology.Hosts[hostname].Disks {
			if disk.Image == "" {
				continue
			}
			target := naming.ImagePath(disk.Image)

			err := ctx.Remote.Run(ctx, "test", "-s", target)
			if err == nil {
				continue
			}
			if remote.ExitCode(err) < 0 {
				return fmt.Errorf("checking for image %s: %w", disk.Image, err)
			}

			source := fmt.Sprintf("%s/%s", ctx.Topology.ImagesURL, disk.Image)
			if err := ctx.Remote.Run(ctx, "wget", "--continue", "--no-verbose", "-O", target, source); err != nil {
				ctx.Log.Error(err, "failed to download image", "image", disk.Image, "url", source)
				continue
			}
			ctx.Log.Info("downloaded image", "image", target)
		}
	}
	return nil
}
