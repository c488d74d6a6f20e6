package provision

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/enovance/infra-virt/internal/platform/libvirt"
	"github.com/enovance/infra-virt/internal/util/retry"
)

// leasePollInterval is how often the lease table is re-read while
// waiting for a host's DHCP query. Overridable in tests.
var leasePollInterval = time.Second

type leasesPhase struct{}

func (leasesPhase) Name() string { return "leases" }

// Run resolves the public address of every host that carries a
// dynamically addressed NIC on the shared public network. Hosts are
// processed in the same stable order as the reconcile pass.
func (leasesPhase) Run(ctx *Context) error {
	for _, hostname := range sortedHostnames(ctx.Topology) {
		for _, nic := range ctx.Topology.Hosts[hostname].NICs {
			if nic.NetworkName != ctx.Opts.PublicNetwork || nic.Bootproto != "dhcp" {
				continue
			}

			ctx.Log.Info("waiting for DHCP query", "host", hostname, "mac", nic.MAC)
			address, err := waitForLease(ctx, nic.MAC)
			if err != nil {
				return fmt.Errorf("waiting for the lease of %s (MAC %s): %w", hostname, nic.MAC, err)
			}

			ctx.State.Addresses[hostname] = address
			ctx.Log.Info("host has public IP", "host", hostname, "address", address)
		}
	}
	return nil
}

// waitForLease polls the control plane's lease table until an entry
// matches mac, falling back to the dnsmasq leases file when the
// control plane cannot report leases. The wait is bounded by
// Options.LeaseTimeout; zero preserves the historical wait-forever
// behavior.
func waitForLease(ctx *Context, mac string) (string, error) {
	waitCtx := ctx.Context
	if ctx.Opts.LeaseTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx.Context, ctx.Opts.LeaseTimeout)
		defer cancel()
	}

	var address string
	err := retry.Poll(waitCtx, leasePollInterval, func(c context.Context) (bool, error) {
		leases, err := ctx.Client.DHCPLeases(c, ctx.Opts.PublicNetwork)
		if errors.Is(err, libvirt.ErrLeasesUnsupported) {
			return leaseFromFile(c, ctx, mac, &address)
		}
		if err != nil {
			return false, err
		}
		for _, lease := range leases {
			if lease.MAC == mac {
				address = lease.IPAddr
				return true, nil
			}
		}
		return false, nil
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("no lease appeared within %s: %w", ctx.Opts.LeaseTimeout, err)
	}
	return address, err
}

// leaseFromFile pattern-matches the dnsmasq leases file of the public
// network against mac.
func leaseFromFile(c context.Context, ctx *Context, mac string, address *string) (bool, error) {
	path := fmt.Sprintf("/var/lib/libvirt/dnsmasq/%s.leases", ctx.Opts.PublicNetwork)
	out, err := ctx.Remote.Output(c, "cat", path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	re := regexp.MustCompile(`^\S+\s+` + regexp.QuoteMeta(mac) + `\s+(\S+)\s`)
	for _, line := range strings.Split(out, "\n") {
		if m := re.FindStringSubmatch(line); m != nil {
			*address = m[1]
			return true, nil
		}
	}
	return false, nil
}
