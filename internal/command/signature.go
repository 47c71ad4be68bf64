package command

import "sort"

// Param 签名中的一个参数
type Param struct {
	Name string
	Kind Kind
}

// Signature 静态已知的命令签名
type Signature struct {
	Name string

	// Params 输入参数，按位置对应 SCPD 中的输入参数
	Params []Param

	// Returns 返回值类型，按位置对应 SCPD 中的输出参数
	Returns []Kind

	Doc string
}

// Table 命令名 → 签名
type Table map[string]Signature

// Lookup 查找签名
func (t Table) Lookup(name string) (Signature, bool) {
	sig, ok := t[name]
	return sig, ok
}

// Names 排序后的命令名
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewTable 由签名列表构建表，同名时后者覆盖前者
func NewTable(sigs ...Signature) Table {
	t := make(Table, len(sigs))
	for _, s := range sigs {
		t[s.Name] = s
	}
	return t
}

func p(name string, kind Kind) Param { return Param{Name: name, Kind: kind} }

var defaultTable = NewTable(
	// WANIPConnection / WANPPPConnection
	Signature{
		Name: "AddPortMapping",
		Params: []Param{
			p("NewRemoteHost", String),
			p("NewExternalPort", Uint16),
			p("NewProtocol", String),
			p("NewInternalPort", Uint16),
			p("NewInternalClient", String),
			p("NewEnabled", Bool),
			p("NewPortMappingDescription", String),
			p("NewLeaseDuration", Uint32),
		},
		Doc: "Creates or replaces a port mapping.",
	},
	Signature{
		Name: "DeletePortMapping",
		Params: []Param{
			p("NewRemoteHost", String),
			p("NewExternalPort", Uint16),
			p("NewProtocol", String),
		},
		Doc: "Removes a port mapping.",
	},
	Signature{
		Name:    "GetExternalIPAddress",
		Returns: []Kind{String},
		Doc:     "Returns the WAN address of the gateway.",
	},
	Signature{
		Name:   "GetGenericPortMappingEntry",
		Params: []Param{p("NewPortMappingIndex", Uint16)},
		Returns: []Kind{
			NullableString, // NewRemoteHost
			Uint16,         // NewExternalPort
			String,         // NewProtocol
			Uint16,         // NewInternalPort
			String,         // NewInternalClient
			Bool,           // NewEnabled
			String,         // NewPortMappingDescription
			Uint32,         // NewLeaseDuration
		},
		Doc: "Returns the port mapping at the given index.",
	},
	Signature{
		Name: "GetSpecificPortMappingEntry",
		Params: []Param{
			p("NewRemoteHost", String),
			p("NewExternalPort", Uint16),
			p("NewProtocol", String),
		},
		Returns: []Kind{Uint16, String, Bool, String, Uint32},
		Doc:     "Returns the port mapping for an external port and protocol.",
	},
	Signature{
		Name:    "GetNATRSIPStatus",
		Returns: []Kind{Bool, Bool},
		Doc:     "Returns whether RSIP and NAT are enabled.",
	},
	Signature{
		Name:   "SetConnectionType",
		Params: []Param{p("NewConnectionType", String)},
		Doc:    "Sets the connection type.",
	},
	Signature{
		Name:    "GetConnectionTypeInfo",
		Returns: []Kind{String, String},
		Doc:     "Returns the connection type and the possible connection types.",
	},
	Signature{
		Name:    "GetStatusInfo",
		Returns: []Kind{String, String, Uint32},
		Doc:     "Returns connection status, last connection error and uptime.",
	},
	Signature{Name: "ForceTermination", Doc: "Terminates the WAN connection."},
	Signature{Name: "RequestConnection", Doc: "Requests a WAN connection."},
	Signature{
		Name:    "GetAutoDisconnectTime",
		Returns: []Kind{Uint32},
	},
	Signature{
		Name:    "GetIdleDisconnectTime",
		Returns: []Kind{Uint32},
	},
	Signature{
		Name:    "GetWarnDisconnectDelay",
		Returns: []Kind{Uint32},
	},

	// WANCommonInterfaceConfig
	Signature{
		Name:    "GetCommonLinkProperties",
		Returns: []Kind{String, Uint32, Uint32, String},
		Doc:     "Returns access type, upstream and downstream bit rates and link status.",
	},
	Signature{Name: "GetTotalBytesSent", Returns: []Kind{Uint32}},
	Signature{Name: "GetTotalBytesReceived", Returns: []Kind{Uint32}},
	Signature{Name: "GetTotalPacketsSent", Returns: []Kind{Uint32}},
	Signature{Name: "GetTotalPacketsReceived", Returns: []Kind{Uint32}},
	Signature{
		Name:    "X_GetICSStatistics",
		Returns: []Kind{Uint32, Uint32, Uint32, Uint32, String, String},
		Doc:     "Vendor extension returning ICS traffic counters and link info.",
	},
	Signature{
		Name:    "GetEnabledForInternet",
		Returns: []Kind{Bool},
	},
	Signature{
		Name:   "SetEnabledForInternet",
		Params: []Param{p("NewEnabledForInternet", Bool)},
	},
	Signature{
		Name:    "GetMaximumActiveConnections",
		Returns: []Kind{Uint16},
	},
	Signature{
		Name:    "GetActiveConnection",
		Params:  []Param{p("NewActiveConnectionIndex", Uint16)},
		Returns: []Kind{String, String},
	},

	// Layer3Forwarding
	Signature{
		Name:    "GetDefaultConnectionService",
		Returns: []Kind{String},
	},
	Signature{
		Name:   "SetDefaultConnectionService",
		Params: []Param{p("NewDefaultConnectionService", String)},
	},
)

// DefaultTable IGD 命令签名表
//
// 返回副本，调用方可以增删。
func DefaultTable() Table {
	t := make(Table, len(defaultTable))
	for k, v := range defaultTable {
		t[k] = v
	}
	return t
}
