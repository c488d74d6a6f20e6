package provision

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/google/uuid"

	"github.com/enovance/infra-virt/internal/descriptor"
	"github.com/enovance/infra-virt/internal/topology"
	"github.com/enovance/infra-virt/internal/util/naming"
)

// publicNetworkDefault is the address block served when the shared
// public network has to be created from scratch.
var publicNetworkDefault = topology.Network{
	DHCP: &topology.DHCP{
		Address: "192.168.140.1",
		Netmask: "255.255.255.0",
		Range: &topology.DHCPRange{
			IPStart: "192.168.140.2",
			IPEnd:   "192.168.140.254",
		},
	},
}

type networksPhase struct{}

func (networksPhase) Name() string { return "networks" }

func (networksPhase) Run(ctx *Context) error {
	existing, err := ctx.Client.ListNetworks(ctx)
	if err != nil {
		return err
	}
	if err := ensurePublicNetwork(ctx, existing); err != nil {
		return err
	}
	return reconcilePrivateNetwork(ctx, existing)
}

// ensurePublicNetwork creates the shared public network when missing
// and activates it when inactive. It is never destroyed or recreated,
// other deployments may be attached to it.
func ensurePublicNetwork(ctx *Context, existing []string) error {
	name := ctx.Opts.PublicNetwork
	if !slices.Contains(existing, name) {
		ctx.Log.Info("creating public network", "network", name)
		doc, err := networkDocument(name, &publicNetworkDefault, true)
		if err != nil {
			return err
		}
		if err := ctx.Client.CreateNetwork(ctx, doc); err != nil {
			return fmt.Errorf("creating public network %s: %w", name, err)
		}
		return nil
	}

	active, err := ctx.Client.NetworkIsActive(ctx, name)
	if err != nil {
		return err
	}
	if !active {
		ctx.Log.Info("activating public network", "network", name)
		return ctx.Client.ActivateNetwork(ctx, name)
	}
	return nil
}

// reconcilePrivateNetwork creates the per-deployment private network,
// destroying a previous instance first under the cleanup policy.
func reconcilePrivateNetwork(ctx *Context, existing []string) error {
	name := naming.PrivateNetwork(ctx.Opts.Prefix)
	exists := slices.Contains(existing, name)

	if exists && ctx.Opts.Cleanup {
		ctx.Log.Info("cleaning network", "network", name)
		if err := ctx.Client.DestroyNetwork(ctx, name); err != nil {
			return err
		}
		exists = false
	}
	if exists {
		return nil
	}

	ctx.Log.Info("creating network", "network", name)
	doc, err := networkDocument(name, ctx.Topology.Networks["sps"], false)
	if err != nil {
		return err
	}
	if err := ctx.Client.CreateNetwork(ctx, doc); err != nil {
		return fmt.Errorf("creating network %s: %w", name, err)
	}
	return nil
}

// networkDocument renders a network descriptor, generating uuid, mac
// and bridge name unless the definition fixes them.
func networkDocument(name string, def *topology.Network, nat bool) (string, error) {
	rec := descriptor.NetworkRecord{
		Name:       name,
		UUID:       uuid.NewString(),
		MAC:        topology.RandomMAC(),
		BridgeName: fmt.Sprintf("virbr%d", rand.Uint32()),
		NAT:        nat,
	}
	if def != nil {
		if def.UUID != "" {
			rec.UUID = def.UUID
		}
		if def.MAC != "" {
			rec.MAC = def.MAC
		}
		rec.DHCP = def.DHCP
	}
	return descriptor.Network(rec)
}
