package provision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImagesPhaseDownloadsMissingImages(t *testing.T) {
	fake := newFakeHypervisor()
	fake.absent["/var/lib/libvirt/images/install-server.img.qcow2"] = true
	fake.absent["/var/lib/libvirt/images/node.img.qcow2"] = true
	ctx := newTestContext(t, scenarioTopology(t), Options{}, fake)

	require.NoError(t, imagesPhase{}.Run(ctx))

	// The node image is referenced by three hosts but fetched once.
	assert.Equal(t, 2, fake.count("wget"))
	for _, argv := range fake.commands {
		if argv[0] != "wget" {
			continue
		}
		assert.True(t, strings.HasPrefix(argv[len(argv)-1], "http://images.example.com/pub/"),
			"unexpected source %q", argv[len(argv)-1])
	}
}

func TestImagesPhaseKeepsPresentImages(t *testing.T) {
	fake := newFakeHypervisor()
	ctx := newTestContext(t, scenarioTopology(t), Options{}, fake)

	require.NoError(t, imagesPhase{}.Run(ctx))
	assert.Equal(t, 0, fake.count("wget"))
}

func TestImagesPhaseSkipsWithoutURL(t *testing.T) {
	fake := newFakeHypervisor()
	topo := scenarioTopology(t)
	topo.ImagesURL = ""
	ctx := newTestContext(t, topo, Options{}, fake)

	require.NoError(t, imagesPhase{}.Run(ctx))
	assert.Empty(t, fake.commands)
}

func TestImagesPhaseDownloadFailureIsNotFatal(t *testing.T) {
	fake := newFakeHypervisor()
	fake.absent["/var/lib/libvirt/images/node.img.qcow2"] = true
	executor := fake.executor()
	inner := executor.RunFunc
	executor.RunFunc = func(ctx context.Context, argv ...string) error {
		if argv[0] == "wget" {
			return errors.New("404 Not Found")
		}
		return inner(ctx, argv...)
	}
	ctx := newTestContext(t, scenarioTopology(t), Options{}, fake)
	ctx.Remote = executor

	require.NoError(t, imagesPhase{}.Run(ctx))
}
