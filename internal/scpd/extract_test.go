package scpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-igd/internal/xmltree"
)

const wanIPConnSCPD = `<?xml version="1.0"?>
<scpd xmlns="urn:schemas-upnp-org:service-1-0">
  <specVersion><major>1</major><minor>0</minor></specVersion>
  <actionList>
    <action>
      <name>GetExternalIPAddress</name>
      <argumentList>
        <argument>
          <name>NewExternalIPAddress</name>
          <direction>out</direction>
          <relatedStateVariable>ExternalIPAddress</relatedStateVariable>
        </argument>
      </argumentList>
    </action>
    <action>
      <name>DeletePortMapping</name>
      <argumentList>
        <argument><name>NewRemoteHost</name><direction>in</direction></argument>
        <argument><name>NewExternalPort</name><direction>in</direction></argument>
        <argument><name>NewProtocol</name><direction>in</direction></argument>
      </argumentList>
    </action>
    <action>
      <name>GetStatusInfo</name>
      <argumentList>
        <argument><name>NewConnectionStatus</name><direction>out</direction></argument>
        <argument><name>NewLastConnectionError</name><direction>OUT</direction></argument>
        <argument><name>NewUptime</name><direction> out </direction></argument>
      </argumentList>
    </action>
    <action>
      <name>ForceTermination</name>
    </action>
  </actionList>
</scpd>`

func parse(t *testing.T, doc string) *xmltree.Element {
	t.Helper()
	root, err := xmltree.ParseBytes([]byte(doc))
	require.NoError(t, err)
	return root
}

func TestExtractActions(t *testing.T) {
	actions := ExtractActions(parse(t, wanIPConnSCPD))

	assert.Equal(t, []ActionSpec{
		{Name: "GetExternalIPAddress", Inputs: []string{}, Outputs: []string{"NewExternalIPAddress"}},
		{Name: "DeletePortMapping", Inputs: []string{"NewRemoteHost", "NewExternalPort", "NewProtocol"}, Outputs: []string{}},
		{Name: "GetStatusInfo", Inputs: []string{}, Outputs: []string{"NewConnectionStatus", "NewLastConnectionError", "NewUptime"}},
		{Name: "ForceTermination", Inputs: []string{}, Outputs: []string{}},
	}, actions)
}

func TestExtractActions_Idempotent(t *testing.T) {
	doc := parse(t, wanIPConnSCPD)
	assert.Equal(t, ExtractActions(doc), ExtractActions(doc))
}

func TestExtractActions_VendorQuirks(t *testing.T) {
	t.Run("空字符串 actionList", func(t *testing.T) {
		actions := ExtractActions(parse(t, `<scpd><actionList></actionList></scpd>`))
		assert.NotNil(t, actions)
		assert.Empty(t, actions)
	})

	t.Run("空白 actionList", func(t *testing.T) {
		assert.Empty(t, ExtractActions(parse(t, "<scpd><actionList>\r\n  </actionList></scpd>")))
	})

	t.Run("没有 actionList", func(t *testing.T) {
		assert.Empty(t, ExtractActions(parse(t, `<scpd><serviceStateTable/></scpd>`)))
	})

	t.Run("nil 文档", func(t *testing.T) {
		assert.Empty(t, ExtractActions(nil))
	})

	t.Run("单个动作与一元素列表等价", func(t *testing.T) {
		single := `<scpd><actionList><action><name>GetExternalIPAddress</name>
			<argumentList><argument><name>NewExternalIPAddress</name><direction>out</direction></argument></argumentList>
			</action></actionList></scpd>`
		fromFull := ExtractActions(parse(t, wanIPConnSCPD))[:1]
		assert.Equal(t, fromFull, ExtractActions(parse(t, single)))
	})

	t.Run("命名空间前缀", func(t *testing.T) {
		doc := `<s:scpd xmlns:s="urn:schemas-upnp-org:service-1-0"><s:actionList><s:action>
			<s:name>GetNATRSIPStatus</s:name>
			<s:argumentList>
			<s:argument><s:name>NewRSIPAvailable</s:name><s:direction>out</s:direction></s:argument>
			<s:argument><s:name>NewNATEnabled</s:name><s:direction>out</s:direction></s:argument>
			</s:argumentList></s:action></s:actionList></s:scpd>`
		assert.Equal(t, []ActionSpec{{
			Name:    "GetNATRSIPStatus",
			Inputs:  []string{},
			Outputs: []string{"NewRSIPAvailable", "NewNATEnabled"},
		}}, ExtractActions(parse(t, doc)))
	})

	t.Run("大小写不一致的元素名", func(t *testing.T) {
		doc := `<scpd><ActionList><Action><Name>X</Name><ArgumentList>
			<Argument><Name>A</Name><Direction>in</Direction></Argument>
			</ArgumentList></Action></ActionList></scpd>`
		assert.Equal(t, []ActionSpec{{Name: "X", Inputs: []string{"A"}, Outputs: []string{}}},
			ExtractActions(parse(t, doc)))
	})

	t.Run("空 argumentList", func(t *testing.T) {
		doc := `<scpd><actionList><action><name>RequestConnection</name><argumentList/></action></actionList></scpd>`
		assert.Equal(t, []ActionSpec{{Name: "RequestConnection", Inputs: []string{}, Outputs: []string{}}},
			ExtractActions(parse(t, doc)))
	})

	t.Run("无名称动作被跳过", func(t *testing.T) {
		doc := `<scpd><actionList><action><name> </name></action><action><name>Y</name></action></actionList></scpd>`
		actions := ExtractActions(parse(t, doc))
		require.Len(t, actions, 1)
		assert.Equal(t, "Y", actions[0].Name)
	})
}
