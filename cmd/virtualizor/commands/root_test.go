package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "virtualizor", cmd.Use)

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}
	assert.True(t, subcommands["up"])
	assert.True(t, subcommands["version"])
}

func TestUpArgsAndFlagDefaults(t *testing.T) {
	cmd := Up()

	require.NotNil(t, cmd.Args)
	assert.Error(t, cmd.Args(cmd, []string{"virt_platform.yml"}))
	assert.NoError(t, cmd.Args(cmd, []string{"virt_platform.yml", "hypervisor"}))

	tests := []struct {
		flag string
		want string
	}{
		{"prefix", "default"},
		{"public-network", "nat"},
		{"cleanup", "false"},
		{"ssh-user", "root"},
		{"ssh-key", ""},
		{"lease-timeout", (15 * time.Minute).String()},
	}
	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.flag)
		require.NotNil(t, flag, "missing flag --%s", tt.flag)
		assert.Equal(t, tt.want, flag.DefValue, "--%s", tt.flag)
	}
}

func TestSetVersionInfo(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, date
	defer func() {
		version, commit, date = origVersion, origCommit, origDate
	}()

	SetVersionInfo("1.2.3", "abc123", "2026-08-29")
	assert.Equal(t, "1.2.3", version)
	assert.Equal(t, "abc123", commit)
	assert.Equal(t, "2026-08-29", date)
}
