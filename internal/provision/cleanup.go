package provision

import (
	"encoding/xml"
	"fmt"

	"github.com/enovance/infra-virt/internal/platform/libvirt"
)

type cleanupPhase struct{}

func (cleanupPhase) Name() string { return "cleanup" }

// Run destroys every domain carrying this run's prefix in its
// deployment metadata. Domains without the metadata element belong to
// someone else and are left alone.
func (cleanupPhase) Run(ctx *Context) error {
	ctx.Log.Info("cleaning up the prefix on the hypervisor", "prefix", ctx.Opts.Prefix)

	names, err := ctx.Client.ListDomains(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		metadata, found, err := ctx.Client.DomainMetadata(ctx, name)
		if err != nil {
			return fmt.Errorf("inspecting domain %s: %w", name, err)
		}
		if !found {
			continue
		}
		prefix, ok := prefixFromMetadata(metadata)
		if !ok || prefix != ctx.Opts.Prefix {
			continue
		}

		ctx.Log.Info("purging domain", "domain", name)
		if err := purgeDomain(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// purgeDomain stops a domain when it is running or paused and removes
// its definition once it is shut off.
func purgeDomain(ctx *Context, name string) error {
	state, err := ctx.Client.DomainState(ctx, name)
	if err != nil {
		return err
	}
	if state == libvirt.DomainStateRunning || state == libvirt.DomainStatePaused {
		if err := ctx.Client.StopDomain(ctx, name); err != nil {
			return err
		}
		if state, err = ctx.Client.DomainState(ctx, name); err != nil {
			return err
		}
	}
	if state == libvirt.DomainStateShutoff {
		if err := ctx.Client.UndefineDomain(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// prefixFromMetadata extracts the deployment prefix from a domain's
// metadata element. Unparsable or incomplete metadata means the domain
// is not ours, never an error.
func prefixFromMetadata(metadata string) (string, bool) {
	var doc struct {
		Prefix string `xml:"prefix"`
	}
	if err := xml.Unmarshal([]byte(metadata), &doc); err != nil {
		return "", false
	}
	if doc.Prefix == "" {
		return "", false
	}
	return doc.Prefix, true
}
