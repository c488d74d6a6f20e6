package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enovance/infra-virt/internal/platform/libvirt"
)

func TestPrefixFromMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata string
		prefix   string
		ok       bool
	}{
		{
			name:     "namespaced instance element",
			metadata: `<instance xmlns="http://virtualizor/instance"><prefix>default</prefix></instance>`,
			prefix:   "default",
			ok:       true,
		},
		{
			name:     "plain element",
			metadata: `<instance><prefix>ci-42</prefix></instance>`,
			prefix:   "ci-42",
			ok:       true,
		},
		{
			name:     "no prefix element",
			metadata: `<instance xmlns="http://virtualizor/instance"/>`,
			ok:       false,
		},
		{
			name:     "empty prefix",
			metadata: `<instance><prefix></prefix></instance>`,
			ok:       false,
		},
		{
			name:     "not xml",
			metadata: "{}",
			ok:       false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, ok := prefixFromMetadata(tt.metadata)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

func TestCleanupPhaseSelectsByPrefix(t *testing.T) {
	fake := newFakeHypervisor()
	fake.domains["default_router"] = libvirt.DomainStateRunning
	fake.metadata["default_router"] = `<instance xmlns="http://virtualizor/instance"><prefix>default</prefix></instance>`
	fake.domains["other_router"] = libvirt.DomainStateRunning
	fake.metadata["other_router"] = `<instance xmlns="http://virtualizor/instance"><prefix>other</prefix></instance>`
	fake.domains["stray"] = libvirt.DomainStateRunning

	ctx := newTestContext(t, singleHostTopology(t, ""), Options{Prefix: "default"}, fake)
	require.NoError(t, cleanupPhase{}.Run(ctx))

	assert.Equal(t, 1, fake.stops)
	assert.Equal(t, 1, fake.undefines)
	assert.NotContains(t, fake.domains, "default_router")
	assert.Contains(t, fake.domains, "other_router")
	assert.Contains(t, fake.domains, "stray")
}

func TestPurgeDomainAlreadyShutOff(t *testing.T) {
	fake := newFakeHypervisor()
	fake.domains["default_router"] = libvirt.DomainStateShutoff

	ctx := newTestContext(t, singleHostTopology(t, ""), Options{}, fake)
	require.NoError(t, purgeDomain(ctx, "default_router"))

	assert.Equal(t, 0, fake.stops)
	assert.Equal(t, 1, fake.undefines)
}

func TestPurgeDomainPaused(t *testing.T) {
	fake := newFakeHypervisor()
	fake.domains["default_router"] = libvirt.DomainStatePaused

	ctx := newTestContext(t, singleHostTopology(t, ""), Options{}, fake)
	require.NoError(t, purgeDomain(ctx, "default_router"))

	assert.Equal(t, 1, fake.stops)
	assert.Equal(t, 1, fake.undefines)
}
