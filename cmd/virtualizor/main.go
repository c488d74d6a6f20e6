// Package main is the entry point for the virtualizor CLI.
//
// virtualizor deploys a virtual network description on a remote
// libvirt hypervisor: it creates the backing networks, provisions the
// qcow2 volumes and cloud-init seed images, defines and starts one
// domain per described host, and reports the public address each host
// obtained over DHCP.
//
// For detailed usage information, run:
//
//	virtualizor --help
package main

import (
	"fmt"
	"os"

	"github.com/enovance/infra-virt/cmd/virtualizor/commands"
	"github.com/enovance/infra-virt/cmd/virtualizor/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if handlers.IsUsage(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
