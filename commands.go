package igd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"

	"go.uber.org/multierr"
)

// PortMapping 一条端口映射
type PortMapping struct {
	RemoteHost     string `json:"remoteHost"`
	ExternalPort   uint16 `json:"externalPort"`
	Protocol       string `json:"protocol"`
	InternalPort   uint16 `json:"internalPort"`
	InternalClient string `json:"internalClient"`
	Enabled        bool   `json:"enabled"`
	Description    string `json:"description"`
	LeaseDuration  uint32 `json:"leaseDuration"`
}

// StatusInfo GetStatusInfo 的结果
type StatusInfo struct {
	ConnectionStatus    string `json:"connectionStatus"`
	LastConnectionError string `json:"lastConnectionError"`
	Uptime              uint32 `json:"uptime"`
}

// GetExternalIPAddress 网关的 WAN 地址
//
// 启用 WithNATPMPFallback 且网关没有该命令时，改向网关地址发 NAT-PMP 请求。
func (g *Gateway) GetExternalIPAddress(ctx context.Context) (string, error) {
	res, err := g.callPositional(ctx, "GetExternalIPAddress")
	if err == nil {
		return stringAt(res, 0), nil
	}
	if !g.opts.natpmpFallback || !errors.Is(err, ErrUnsupportedAction) {
		return "", err
	}

	rec := g.Record()
	if rec == nil {
		return "", err
	}
	client, perr := g.natpmp(net.ParseIP(rec.Host()))
	if perr != nil {
		return "", multierr.Append(err, perr)
	}
	ip, perr := client.ExternalAddress(ctx)
	if perr != nil {
		return "", multierr.Append(err, perr)
	}
	log.Debug("通过 NAT-PMP 获取外部地址", "gateway", rec.Host(), "ip", ip.String())
	return ip.String(), nil
}

// AddPortMapping 添加或替换端口映射
func (g *Gateway) AddPortMapping(ctx context.Context, m PortMapping) error {
	_, err := g.callPositional(ctx, "AddPortMapping",
		m.RemoteHost,
		m.ExternalPort,
		normalizeProtocol(m.Protocol),
		m.InternalPort,
		m.InternalClient,
		m.Enabled,
		m.Description,
		m.LeaseDuration,
	)
	return err
}

// DeletePortMapping 删除端口映射
func (g *Gateway) DeletePortMapping(ctx context.Context, externalPort uint16, protocol string) error {
	_, err := g.callPositional(ctx, "DeletePortMapping", "", externalPort, normalizeProtocol(protocol))
	return err
}

// GetGenericPortMappingEntry 第 index 条端口映射
//
// 索引越界时网关返回 UPnP 错误 713。
func (g *Gateway) GetGenericPortMappingEntry(ctx context.Context, index uint16) (*PortMapping, error) {
	res, err := g.callPositional(ctx, "GetGenericPortMappingEntry", index)
	if err != nil {
		return nil, err
	}
	return &PortMapping{
		RemoteHost:     stringAt(res, 0),
		ExternalPort:   uint16At(res, 1),
		Protocol:       stringAt(res, 2),
		InternalPort:   uint16At(res, 3),
		InternalClient: stringAt(res, 4),
		Enabled:        boolAt(res, 5),
		Description:    stringAt(res, 6),
		LeaseDuration:  uint32At(res, 7),
	}, nil
}

// GetSpecificPortMappingEntry 查询指定外部端口和协议的映射
func (g *Gateway) GetSpecificPortMappingEntry(ctx context.Context, externalPort uint16, protocol string) (*PortMapping, error) {
	protocol = normalizeProtocol(protocol)
	res, err := g.callPositional(ctx, "GetSpecificPortMappingEntry", "", externalPort, protocol)
	if err != nil {
		return nil, err
	}
	return &PortMapping{
		ExternalPort:   externalPort,
		Protocol:       protocol,
		InternalPort:   uint16At(res, 0),
		InternalClient: stringAt(res, 1),
		Enabled:        boolAt(res, 2),
		Description:    stringAt(res, 3),
		LeaseDuration:  uint32At(res, 4),
	}, nil
}

// GetRedirects 列出网关上的全部端口映射
//
// 从索引 0 开始逐条读取，直到网关返回 SOAP Fault（通常是 713）。
func (g *Gateway) GetRedirects(ctx context.Context) ([]PortMapping, error) {
	var redirects []PortMapping
	for i := 0; i <= math.MaxUint16; i++ {
		m, err := g.GetGenericPortMappingEntry(ctx, uint16(i))
		if err != nil {
			if errors.Is(err, ErrSOAPFault) {
				break
			}
			return redirects, err
		}
		redirects = append(redirects, *m)
	}
	return redirects, nil
}

// GetNextMapping 为 internalClient:internalPort 建立映射并返回外部端口
//
// 已有相同内部地址、协议和描述的映射时直接复用；否则从 port 开始
// 找第一个未被占用的外部端口。
func (g *Gateway) GetNextMapping(ctx context.Context, port uint16, protocol, internalClient, description string, lease uint32) (uint16, error) {
	protocol = normalizeProtocol(protocol)
	if internalClient == "" {
		return 0, errors.New("igd: internal client address is required")
	}

	redirects, err := g.GetRedirects(ctx)
	if err != nil {
		return 0, err
	}

	used := make(map[uint16]bool, len(redirects))
	for _, r := range redirects {
		if !strings.EqualFold(r.Protocol, protocol) {
			continue
		}
		if r.InternalClient == internalClient && r.InternalPort == port && r.Description == description {
			log.Debug("复用已有映射", "externalPort", r.ExternalPort, "protocol", protocol)
			return r.ExternalPort, nil
		}
		used[r.ExternalPort] = true
	}

	external := int(port)
	for used[uint16(external)] {
		external++
		if external > math.MaxUint16 {
			return 0, fmt.Errorf("%w: from %d/%s", ErrNoFreePort, port, protocol)
		}
	}

	err = g.AddPortMapping(ctx, PortMapping{
		ExternalPort:   uint16(external),
		Protocol:       protocol,
		InternalPort:   port,
		InternalClient: internalClient,
		Enabled:        true,
		Description:    description,
		LeaseDuration:  lease,
	})
	if err != nil {
		return 0, err
	}
	log.Info("添加端口映射", "externalPort", external, "internal", fmt.Sprintf("%s:%d", internalClient, port), "protocol", protocol)
	return uint16(external), nil
}

// GetStatusInfo 连接状态
func (g *Gateway) GetStatusInfo(ctx context.Context) (*StatusInfo, error) {
	res, err := g.callPositional(ctx, "GetStatusInfo")
	if err != nil {
		return nil, err
	}
	return &StatusInfo{
		ConnectionStatus:    stringAt(res, 0),
		LastConnectionError: stringAt(res, 1),
		Uptime:              uint32At(res, 2),
	}, nil
}

// GetConnectionTypeInfo 当前连接类型和可选的连接类型
func (g *Gateway) GetConnectionTypeInfo(ctx context.Context) (connectionType, possible string, err error) {
	res, err := g.callPositional(ctx, "GetConnectionTypeInfo")
	if err != nil {
		return "", "", err
	}
	return stringAt(res, 0), stringAt(res, 1), nil
}

func normalizeProtocol(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}

func valueAt(res Result, i int) any {
	if i < len(res) {
		return res[i].Value
	}
	return nil
}

func stringAt(res Result, i int) string {
	s, _ := valueAt(res, i).(string)
	return s
}

func uint16At(res Result, i int) uint16 {
	v, _ := valueAt(res, i).(uint16)
	return v
}

func uint32At(res Result, i int) uint32 {
	v, _ := valueAt(res, i).(uint32)
	return v
}

func boolAt(res Result, i int) bool {
	v, _ := valueAt(res, i).(bool)
	return v
}
