package provision

import (
	"fmt"
	"sort"
	"time"

	"github.com/enovance/infra-virt/internal/topology"
)

// Phase is one step of a deployment run.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Run executes the phase.
	Run(ctx *Context) error
}

// Phases returns the standard phase sequence for one run. The order is
// load-bearing: networks must exist before any domain is defined, and
// the cleanup pass must fully complete before networks are touched.
func Phases(cleanup bool) []Phase {
	phases := []Phase{preflightPhase{}}
	if cleanup {
		phases = append(phases, cleanupPhase{})
	}
	return append(phases,
		networksPhase{},
		imagesPhase{},
		hostsPhase{},
		leasesPhase{},
	)
}

// RunPhases executes phases sequentially. A failure aborts the
// remainder; phases never run twice within one call.
func RunPhases(ctx *Context, phases []Phase) error {
	start := time.Now()
	for i, phase := range phases {
		ctx.Log.Info("starting phase", "phase", phase.Name(), "step", fmt.Sprintf("%d/%d", i+1, len(phases)))
		phaseStart := time.Now()

		if err := phase.Run(ctx); err != nil {
			return fmt.Errorf("%s phase: %w", phase.Name(), err)
		}

		ctx.Log.Info("phase completed", "phase", phase.Name(),
			"elapsed", time.Since(phaseStart).Round(time.Millisecond).String())
	}
	ctx.Log.Info("deployment completed", "elapsed", time.Since(start).Round(time.Millisecond).String())
	return nil
}

// sortedHostnames fixes the processing order, so repeated runs are
// reproducible.
func sortedHostnames(topo *topology.Topology) []string {
	names := make([]string, 0, len(topo.Hosts))
	for name := range topo.Hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
