package topology

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDescription = `
images-url: http://images.example.com/pub
hosts:
  router:
    profile: gateway
    disks:
      - size: 10Gi
    nics:
      - mac: "52:54:00:aa:bb:cc"
        network_name: __public_network__
        nat: true
      - ip: 192.168.100.1
        network: 192.168.100.0
        netmask: 255.255.255.0
        gateway: 192.168.100.1
  os-ci-test11:
    profile: install-server
    memory: 4194304
    ncpus: 4
    disks:
      - size: 30Gi
        image: install-server.img.qcow2
      - size: 100Gi
    nics:
      - mac: none
networks:
  sps:
    dhcp:
      address: 192.168.100.1
      netmask: 255.255.255.0
`

func TestParse(t *testing.T) {
	topo, err := Parse([]byte(sampleDescription))
	require.NoError(t, err)

	assert.Equal(t, "http://images.example.com/pub", topo.ImagesURL)
	require.Len(t, topo.Hosts, 2)

	router := topo.Hosts["router"]
	require.NotNil(t, router)
	assert.Equal(t, "router", router.Hostname)
	assert.Equal(t, "gateway", router.Profile)
	assert.Equal(t, DefaultMemoryKiB, router.MemoryKiB)
	assert.Equal(t, DefaultNCPUs, router.NCPUs)

	install := topo.Hosts["os-ci-test11"]
	require.NotNil(t, install)
	assert.Equal(t, 4194304, install.MemoryKiB)
	assert.Equal(t, 4, install.NCPUs)
	assert.Equal(t, "install-server.img.qcow2", install.Disks[0].Image)
	assert.Equal(t, "100Gi", install.Disks[1].Size)

	require.NotNil(t, topo.Networks["sps"])
	require.NotNil(t, topo.Networks["sps"].DHCP)
	assert.Equal(t, "192.168.100.1", topo.Networks["sps"].DHCP.Address)
}

func TestParseNICDefaults(t *testing.T) {
	topo, err := Parse([]byte(sampleDescription))
	require.NoError(t, err)

	router := topo.Hosts["router"]
	require.Len(t, router.NICs, 2)

	// First NIC: explicit MAC, dhcp, generated name.
	assert.Equal(t, "52:54:00:aa:bb:cc", router.NICs[0].MAC)
	assert.Equal(t, "eth0", router.NICs[0].Name)
	assert.Equal(t, "dhcp", router.NICs[0].Bootproto)
	assert.True(t, router.NICs[0].NAT)

	// Second NIC: static addressing inferred from the presence of an IP.
	assert.Equal(t, "eth1", router.NICs[1].Name)
	assert.Equal(t, "static", router.NICs[1].Bootproto)

	// The collector's "none" sentinel is replaced with a generated MAC.
	install := topo.Hosts["os-ci-test11"]
	macRe := regexp.MustCompile(`^52:54:00(:[0-9a-f]{2}){3}$`)
	assert.Regexp(t, macRe, install.NICs[0].MAC)
}

func TestParseRejectsDuplicateMACs(t *testing.T) {
	doc := `
hosts:
  a:
    disks: [{size: 1Gi}]
    nics:
      - mac: "52:54:00:00:00:01"
  b:
    disks: [{size: 1Gi}]
    nics:
      - mac: "52:54:00:00:00:01"
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "52:54:00:00:00:01")
}

func TestParseRejectsDisklessHost(t *testing.T) {
	doc := `
hosts:
  a:
    nics:
      - mac: "52:54:00:00:00:01"
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no disks")
}

func TestParseRejectsEmptyDescription(t *testing.T) {
	_, err := Parse([]byte("{}"))
	require.Error(t, err)
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("hosts: ["))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "yaml"))
}

func TestRandomMAC(t *testing.T) {
	macRe := regexp.MustCompile(`^52:54:00(:[0-9a-f]{2}){3}$`)
	for i := 0; i < 16; i++ {
		assert.Regexp(t, macRe, RandomMAC())
	}
}
