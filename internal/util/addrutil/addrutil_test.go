package addrutil

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVirtualInterface(t *testing.T) {
	for _, name := range []string{"docker0", "utun3", "vEthernet (WSL)", "br-1234", "veth12ab"} {
		assert.True(t, IsVirtualInterface(name), name)
	}
	for _, name := range []string{"eth0", "en0", "wlan0", "Wi-Fi"} {
		assert.False(t, IsVirtualInterface(name), name)
	}
}

func TestClassify(t *testing.T) {
	assert.True(t, IsRFC1918(net.ParseIP("192.168.1.10")))
	assert.True(t, IsRFC1918(net.ParseIP("172.20.0.1")))
	assert.False(t, IsRFC1918(net.ParseIP("172.32.0.1")))
	assert.False(t, IsRFC1918(net.ParseIP("8.8.8.8")))

	assert.True(t, IsBlocked(net.ParseIP("127.0.0.1")))
	assert.True(t, IsBlocked(net.ParseIP("169.254.3.4")))
	assert.True(t, IsBlocked(net.ParseIP("100.64.1.1")))
	assert.False(t, IsBlocked(net.ParseIP("10.0.0.2")))
}

func cand(cidr string) Candidate {
	ip, n, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	return Candidate{IP: ip, Net: n}
}

func TestRank(t *testing.T) {
	cands := []Candidate{
		cand("203.0.113.5/24"),
		cand("10.8.0.2/24"),
		cand("192.168.1.20/24"),
		{IP: net.ParseIP("172.16.5.5")},
	}

	got := Rank(cands, net.ParseIP("192.168.1.1"))
	require.Len(t, got, 4)
	assert.Equal(t, "192.168.1.20", got[0].String())
	assert.Equal(t, "10.8.0.2", got[1].String())
	assert.Equal(t, "172.16.5.5", got[2].String())
	assert.Equal(t, "203.0.113.5", got[3].String())

	got = Rank(cands, nil)
	assert.Equal(t, "10.8.0.2", got[0].String())
	assert.Empty(t, Rank(nil, nil))
}

func TestLANAddress_Loopback(t *testing.T) {
	ip, err := LANAddress("127.0.0.1", 1900)
	require.NoError(t, err)
	assert.True(t, ip.IsLoopback())
}
