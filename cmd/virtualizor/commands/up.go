package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/enovance/infra-virt/cmd/virtualizor/handlers"
)

// Up returns the command that deploys a virtual network description.
//
// Positional arguments:
//
//	input_file:  the YAML host description produced by the collector
//	target_host: the hypervisor to deploy on, reachable over SSH
//
// Optional flags:
//
//	--prefix:         namespace for every created resource (default "default")
//	--public-network: name of the shared NATed libvirt network (default "nat")
//	--pub-key-file:   authorized public key file, repeatable
//	--cleanup:        destroy and recreate resources already present under the prefix
//	--lease-timeout:  upper bound on each DHCP lease wait, 0 waits forever
//	--ssh-user:       account used to reach the hypervisor (default "root")
//	--ssh-key:        private key for the hypervisor connection
func Up() *cobra.Command {
	var opts handlers.UpOptions

	cmd := &cobra.Command{
		Use:   "up <input_file> <target_host>",
		Short: "Deploy the described hosts on the hypervisor",
		Long: `Deploy a virtual network description on a libvirt hypervisor.

The description file lists the hosts to create, their disks, NICs and
profiles. Deploying is idempotent: hosts already defined under the same
prefix are left untouched unless --cleanup is given, in which case they
are destroyed and rebuilt.

Examples:
  # Deploy virt_platform.yml on hypervisor.example.com
  virtualizor up virt_platform.yml hypervisor.example.com

  # Redeploy from scratch under a CI prefix
  virtualizor up --cleanup --prefix ci-1234 virt_platform.yml hypervisor.example.com`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.InputFile = args[0]
			opts.TargetHost = args[1]
			return handlers.Up(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "default", "Prefix used to namespace the deployment")
	cmd.Flags().StringVar(&opts.PublicNetwork, "public-network", "nat", "Name of the shared public network")
	cmd.Flags().StringArrayVar(&opts.PubKeyFiles, "pub-key-file", nil, "Public key file to inject in the hosts (repeatable)")
	cmd.Flags().BoolVar(&opts.Cleanup, "cleanup", false, "Destroy and recreate resources already deployed under the prefix")
	cmd.Flags().DurationVar(&opts.LeaseTimeout, "lease-timeout", 15*time.Minute, "Upper bound on each DHCP lease wait (0 waits forever)")
	cmd.Flags().StringVar(&opts.SSHUser, "ssh-user", "root", "Account used to reach the hypervisor")
	cmd.Flags().StringVar(&opts.SSHKey, "ssh-key", "", "Private key for the hypervisor connection (default ~/.ssh/id_rsa)")

	return cmd
}
