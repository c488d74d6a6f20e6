package provision

import (
	"fmt"

	"github.com/enovance/infra-virt/internal/platform/remote"
)

// emulatorPaths are the qemu locations probed on the hypervisor, in
// preference order.
var emulatorPaths = []string{
	"/usr/bin/qemu-system-x86_64",
	"/usr/libexec/qemu-kvm",
}

// PreconditionError reports a hypervisor that cannot host the
// deployment at all. Nothing has been touched when it is returned.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

type preflightPhase struct{}

func (preflightPhase) Name() string { return "preflight" }

func (preflightPhase) Run(ctx *Context) error {
	for _, candidate := range emulatorPaths {
		err := ctx.Remote.Run(ctx, "test", "-f", candidate)
		if err == nil {
			ctx.Log.Info("emulator found", "emulator", candidate)
			ctx.State.Emulator = candidate
			return nil
		}
		if remote.ExitCode(err) < 0 {
			// Transport failure, not a probe miss.
			return fmt.Errorf("probing for an emulator: %w", err)
		}
	}
	return &PreconditionError{Reason: "no emulator found on the hypervisor"}
}
