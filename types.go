package igd

import (
	"github.com/dep2p/go-igd/internal/command"
	"github.com/dep2p/go-igd/internal/device"
	"github.com/dep2p/go-igd/internal/ssdp"
)

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

type (
	// Record SSDP 发现记录
	Record = ssdp.Record

	// Service 设备描述中的服务
	Service = device.Service

	// Device 设备描述中的设备节点
	Device = device.Device

	// Command 已绑定的命令
	Command = command.Bound

	// Result 命令返回的字段列表
	Result = command.Result

	// Field 单个返回字段
	Field = command.Field

	// Kind 参数/返回值类型
	Kind = command.Kind

	// Signature 命令签名
	Signature = command.Signature

	// Param 签名参数
	Param = command.Param

	// Table 命令签名表
	Table = command.Table
)

// 值类型
const (
	KindString         = command.String
	KindNullableString = command.NullableString
	KindInt            = command.Int
	KindUint16         = command.Uint16
	KindUint32         = command.Uint32
	KindBool           = command.Bool
)

// 常用搜索目标
const (
	SearchTargetIGD1 = ssdp.TargetIGD1
	SearchTargetIGD2 = ssdp.TargetIGD2
	SearchTargetAll  = ssdp.TargetAll

	SearchTargetWANIPConnection1 = ssdp.TargetWANIPConnection1
)

// NewRecord 从发现字段构建记录，键不区分大小写
func NewRecord(fields map[string]string) (*Record, error) {
	return ssdp.NewRecord(fields)
}

// DefaultCommandTable 返回内置命令签名表的副本
func DefaultCommandTable() Table {
	return command.DefaultTable()
}

// Descriptor 网关概要
type Descriptor struct {
	Server      string `json:"server"`
	URLBase     string `json:"urlBase"`
	Location    string `json:"location"`
	SpecVersion string `json:"specVersion"`
	USN         string `json:"usn"`
	URN         string `json:"urn"`
}

// DebugInfo 命令绑定情况
type DebugInfo struct {
	// Available 命令名 → 服务类型
	Available map[string]string `json:"available"`

	// Failed 服务类型 → 没有对应实现的动作名
	Failed map[string][]string `json:"failed"`
}
