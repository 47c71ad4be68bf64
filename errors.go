package igd

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-igd/internal/command"
	"github.com/dep2p/go-igd/internal/neterr"
	"github.com/dep2p/go-igd/internal/scpd"
	"github.com/dep2p/go-igd/internal/soap"
	"github.com/dep2p/go-igd/internal/ssdp"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 发现阶段错误（中止网关构建）
	// ────────────────────────────────────────────────────────────────────────

	// ErrDiscoveryTimeout 截止时间内没有 SSDP 响应
	ErrDiscoveryTimeout = ssdp.ErrDiscoveryTimeout

	// ErrMalformedLocation location 不是 http://host:port/path 形式
	ErrMalformedLocation = ssdp.ErrMalformedLocation

	// ────────────────────────────────────────────────────────────────────────
	// 绑定阶段错误（只影响单个服务）
	// ────────────────────────────────────────────────────────────────────────

	// ErrDescriptorFetch 获取设备或服务描述时传输失败
	ErrDescriptorFetch = scpd.ErrDescriptorFetch

	// ErrMissingSCPDURL 服务没有声明 SCPDURL
	ErrMissingSCPDURL = errors.New("igd: service has no SCPD URL")

	// ────────────────────────────────────────────────────────────────────────
	// 调用阶段错误（返回给调用方）
	// ────────────────────────────────────────────────────────────────────────

	// ErrUnsupportedAction 网关没有提供该命令
	ErrUnsupportedAction = errors.New("igd: unsupported action")

	// ErrSOAPFault 网关返回 SOAP Fault 或非 200 状态，具体信息见 *Fault
	ErrSOAPFault = soap.ErrSOAPFault

	// ErrMalformedResponse 响应缺少预期的响应元素
	ErrMalformedResponse = soap.ErrMalformedResponse

	// ErrMissingArgument 调用缺少输入参数
	ErrMissingArgument = command.ErrMissingArgument

	// ErrBadValue 参数或返回值与声明的类型不符
	ErrBadValue = command.ErrBadValue

	// ────────────────────────────────────────────────────────────────────────
	// 通用错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrTimeout 网络操作超时
	ErrTimeout = neterr.ErrTimeout

	// ErrNotReady 网关尚未完成发现
	ErrNotReady = errors.New("igd: gateway not ready")

	// ErrNoFreePort 找不到可用的外部端口
	ErrNoFreePort = errors.New("igd: no free external port")
)

// Fault 网关返回的 SOAP 错误
type Fault = soap.Fault

// ServiceError 单个服务的绑定错误
type ServiceError struct {
	ServiceType string
	SCPDURL     string
	Err         error
}

func (e *ServiceError) Error() string {
	if e.SCPDURL == "" {
		return fmt.Sprintf("service %s: %v", e.ServiceType, e.Err)
	}
	return fmt.Sprintf("service %s (%s): %v", e.ServiceType, e.SCPDURL, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
