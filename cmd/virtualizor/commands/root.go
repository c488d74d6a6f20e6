// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing and flag binding. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the virtualizor CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "virtualizor",
		Short:         "Deploy a virtual network description on a libvirt hypervisor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Up())
	cmd.AddCommand(Version())

	return cmd
}
