package command

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dep2p/go-igd/internal/scpd"
)

func TestRegistry_Merge(t *testing.T) {
	const l3f = "urn:schemas-upnp-org:service:Layer3Forwarding:1"

	r := NewRegistry()
	b1, u1 := Bind(Target{ServiceType: l3f}, []scpd.ActionSpec{
		{Name: "GetDefaultConnectionService", Inputs: []string{}, Outputs: []string{"NewDefaultConnectionService"}},
		{Name: "X_Foo", Inputs: []string{}, Outputs: []string{}},
	}, DefaultTable(), &fakeInvoker{})
	r.Merge(b1, u1)

	b2, u2 := Bind(target, wanIPSpecs(), DefaultTable(), &fakeInvoker{})
	r.Merge(b2, u2)

	assert.Equal(t, 4, r.Len())
	assert.Equal(t, []string{
		"DeletePortMapping", "GetDefaultConnectionService",
		"GetExternalIPAddress", "GetGenericPortMappingEntry",
	}, r.Names())

	assert.Equal(t, l3f, r.Available()["GetDefaultConnectionService"])
	assert.Equal(t, wanIP, r.Available()["GetExternalIPAddress"])

	assert.Equal(t, map[string][]string{l3f: {"X_Foo"}, wanIP: {"X_VendorMagic"}}, r.Failed())
	assert.Equal(t, map[string][]string{"X_Foo": {l3f}, "X_VendorMagic": {wanIP}}, r.Unsupported())

	_, ok := r.Get("X_Foo")
	assert.False(t, ok)
}

func TestRegistry_LaterServiceWins(t *testing.T) {
	const ppp = "urn:schemas-upnp-org:service:WANPPPConnection:1"
	specs := []scpd.ActionSpec{{Name: "GetExternalIPAddress", Inputs: []string{}, Outputs: []string{"NewExternalIPAddress"}}}

	r := NewRegistry()
	b1, u1 := Bind(target, specs, DefaultTable(), &fakeInvoker{})
	r.Merge(b1, u1)
	b2, u2 := Bind(Target{ServiceType: ppp}, specs, DefaultTable(), &fakeInvoker{})
	r.Merge(b2, u2)

	b, ok := r.Get("GetExternalIPAddress")
	assert.True(t, ok)
	assert.Equal(t, ppp, b.Target.ServiceType)
}

func TestDefaultTable_IsCopy(t *testing.T) {
	a := DefaultTable()
	delete(a, "AddPortMapping")
	_, ok := DefaultTable().Lookup("AddPortMapping")
	assert.True(t, ok)
	assert.Contains(t, DefaultTable().Names(), "GetExternalIPAddress")
}

func TestRegistry_Missing(t *testing.T) {
	table := NewTable(
		Signature{Name: "GetExternalIPAddress", Returns: []Kind{String}},
		Signature{Name: "ForceTermination"},
	)
	r := NewRegistry()
	r.Merge(Bind(target, wanIPSpecs(), table, &fakeInvoker{}))

	assert.Equal(t, []string{"ForceTermination"}, r.Missing(table))
}
