package igd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-igd/internal/command"
	"github.com/dep2p/go-igd/internal/device"
	"github.com/dep2p/go-igd/internal/natpmp"
	"github.com/dep2p/go-igd/internal/neterr"
	"github.com/dep2p/go-igd/internal/scpd"
	"github.com/dep2p/go-igd/internal/soap"
	"github.com/dep2p/go-igd/internal/ssdp"
	"github.com/dep2p/go-igd/internal/util/logger"
)

var log = logger.Logger("igd")

// ============================================================================
//                              状态
// ============================================================================

// State 发现流程的状态
type State int

const (
	// StateUninitialized 尚未开始发现
	StateUninitialized State = iota
	// StateDiscovering 正在进行 SSDP 搜索
	StateDiscovering
	// StateFetchingDescriptor 正在获取根设备描述
	StateFetchingDescriptor
	// StateBinding 正在获取 SCPD 并绑定命令
	StateBinding
	// StateReady 命令已可用
	StateReady
	// StateFailed 本轮发现失败
	StateFailed
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateDiscovering:
		return "discovering"
	case StateFetchingDescriptor:
		return "descriptor-fetch"
	case StateBinding:
		return "binding"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ============================================================================
//                              Gateway
// ============================================================================

// Gateway 一个 IGD 网关
//
// 并发安全。重新发现会整体替换设备树、命令表和未支持台账。
type Gateway struct {
	opts    *options
	soap    *soap.Client
	fetcher *scpd.Fetcher
	natpmp  func(gw net.IP) (*natpmp.Client, error)

	// discoverMu 串行化发现流程
	discoverMu sync.Mutex

	mu       sync.RWMutex
	state    State
	lastErr  error
	record   *ssdp.Record
	desc     *device.Description
	registry *command.Registry
	bindErr  error
}

// New 创建尚未发现的网关，随后调用 Discover
func New(opts ...Option) (*Gateway, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return newGateway(nil, o), nil
}

// NewGateway 用已有的发现记录创建网关，随后调用 DiscoverCommands
func NewGateway(record *Record, opts ...Option) (*Gateway, error) {
	if record == nil {
		return nil, errors.New("igd: nil record")
	}
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return newGateway(record, o), nil
}

// DiscoverGateway 搜索网关并完成命令绑定
func DiscoverGateway(ctx context.Context, opts ...Option) (*Gateway, error) {
	gw, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := gw.Discover(ctx); err != nil {
		return nil, err
	}
	return gw, nil
}

func newGateway(record *ssdp.Record, o *options) *Gateway {
	cfg := o.config
	return &Gateway{
		opts: o,
		soap: &soap.Client{
			Dialer:    o.dialer,
			Timeout:   cfg.Timeout,
			UserAgent: cfg.UserAgent,
			Metrics:   o.metrics,
		},
		fetcher: &scpd.Fetcher{
			Client:    o.httpClient,
			Timeout:   cfg.Timeout,
			UserAgent: cfg.UserAgent,
		},
		natpmp: func(gw net.IP) (*natpmp.Client, error) {
			return natpmp.New(gw, cfg.Timeout)
		},
		record:   record,
		desc:     &device.Description{},
		registry: command.NewRegistry(),
	}
}

// Discover 执行完整的发现流程：SSDP 搜索、描述获取、命令绑定
func (g *Gateway) Discover(ctx context.Context) error {
	g.discoverMu.Lock()
	defer g.discoverMu.Unlock()

	g.setState(StateDiscovering)

	cfg := g.opts.config
	record, err := ssdp.Search(ctx, ssdp.Options{
		SearchTarget:   cfg.SearchTarget,
		LANAddress:     cfg.LANAddress,
		GatewayAddress: cfg.GatewayAddress,
		Sends:          cfg.SearchRetries,
		Timeout:        cfg.Timeout,
		Client:         g.opts.ssdpClient,
	})
	if err != nil {
		return g.fail(err)
	}

	g.mu.Lock()
	g.record = record
	g.mu.Unlock()

	return g.discoverCommands(ctx, record)
}

// DiscoverCommands 用当前的发现记录获取描述并绑定命令
func (g *Gateway) DiscoverCommands(ctx context.Context) error {
	g.discoverMu.Lock()
	defer g.discoverMu.Unlock()

	g.mu.RLock()
	record := g.record
	g.mu.RUnlock()
	if record == nil {
		return fmt.Errorf("%w: no discovery record", ErrNotReady)
	}
	return g.discoverCommands(ctx, record)
}

func (g *Gateway) discoverCommands(ctx context.Context, record *ssdp.Record) error {
	g.setState(StateFetchingDescriptor)

	var bindErr error
	root, err := g.fetcher.Get(ctx, record.Host(), record.Port(), record.Path())
	if err != nil {
		if ctx.Err() != nil {
			return g.fail(neterr.Wrap(ctx.Err()))
		}
		// 根描述获取失败不中止发现，按空设备树继续
		log.Warn("获取设备描述失败", "location", record.Location, "err", err)
		bindErr = multierr.Append(bindErr, err)
	}
	desc := device.ParseDescription(root)

	g.setState(StateBinding)

	registry, errs := g.bindServices(ctx, record, desc.UniqueServices())
	bindErr = multierr.Append(bindErr, errs)
	if ctx.Err() != nil {
		return g.fail(neterr.Wrap(ctx.Err()))
	}

	g.mu.Lock()
	g.desc = desc
	g.registry = registry
	g.bindErr = bindErr
	g.state = StateReady
	g.lastErr = nil
	g.mu.Unlock()

	log.Info("网关就绪",
		"location", record.Location,
		"services", len(desc.Services()),
		"commands", registry.Len(),
		"bindingErrors", len(multierr.Errors(bindErr)))
	return nil
}

type bindOutcome struct {
	bound       map[string]*command.Bound
	unsupported map[string][]string
	err         error
}

// bindServices 并发获取各服务的 SCPD，在同一处按文档顺序合并
func (g *Gateway) bindServices(ctx context.Context, record *ssdp.Record, services []*device.Service) (*command.Registry, error) {
	outcomes := make([]bindOutcome, len(services))

	var eg errgroup.Group
	eg.SetLimit(g.opts.config.Concurrency)
	for i, svc := range services {
		eg.Go(func() error {
			outcomes[i] = g.bindService(ctx, record, svc)
			return nil
		})
	}
	_ = eg.Wait()

	registry := command.NewRegistry()
	var errs error
	for _, out := range outcomes {
		if out.err != nil {
			log.Warn("服务绑定失败", "err", out.err)
			errs = multierr.Append(errs, out.err)
			continue
		}
		registry.Merge(out.bound, out.unsupported)
	}
	return registry, errs
}

func (g *Gateway) bindService(ctx context.Context, record *ssdp.Record, svc *device.Service) bindOutcome {
	if strings.TrimSpace(svc.SCPDURL) == "" {
		return bindOutcome{err: &ServiceError{ServiceType: svc.ServiceType, Err: ErrMissingSCPDURL}}
	}

	doc, err := g.fetcher.Get(ctx, record.Host(), record.Port(), svc.SCPDURL)
	if err != nil {
		return bindOutcome{err: &ServiceError{ServiceType: svc.ServiceType, SCPDURL: svc.SCPDURL, Err: err}}
	}
	if doc == nil {
		log.Debug("服务没有 SCPD 文档", "serviceType", svc.ServiceType, "scpd", svc.SCPDURL)
		return bindOutcome{}
	}

	target := command.Target{
		Host:        record.Host(),
		Port:        record.Port(),
		ControlPath: scpd.NormalizePath(svc.ControlURL),
		ServiceType: svc.ServiceType,
	}
	bound, unsupported := command.Bind(target, scpd.ExtractActions(doc), g.opts.table, g.soap)
	return bindOutcome{bound: bound, unsupported: unsupported}
}

func (g *Gateway) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
	log.Debug("状态变化", "state", s.String())
}

func (g *Gateway) fail(err error) error {
	g.mu.Lock()
	g.state = StateFailed
	g.lastErr = err
	g.desc = &device.Description{}
	g.registry = command.NewRegistry()
	g.bindErr = nil
	g.mu.Unlock()
	log.Warn("网关发现失败", "err", err)
	return err
}

// ============================================================================
//                              查询
// ============================================================================

// State 当前状态
func (g *Gateway) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Err 最近一次失败的原因，未失败时为 nil
func (g *Gateway) Err() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastErr
}

// Record 发现记录，尚未发现时为 nil
func (g *Gateway) Record() *Record {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.record
}

// Services 服务类型 → 服务
func (g *Gateway) Services() map[string]*Service {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.desc.ServiceIndex()
}

// Devices UDN → 设备
func (g *Gateway) Devices() map[string]*Device {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.desc.DeviceIndex()
}

// Service 按服务类型查找服务，不区分大小写
func (g *Gateway) Service(serviceType string) (*Service, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return device.LookupService(g.desc.Services(), serviceType)
}

// GatewayDescriptor 网关概要
func (g *Gateway) GatewayDescriptor() Descriptor {
	g.mu.RLock()
	defer g.mu.RUnlock()

	d := Descriptor{
		SpecVersion: g.desc.SpecVersion,
		URLBase:     g.desc.URLBase,
	}
	if g.record != nil {
		d.Server = g.record.Server
		d.Location = g.record.Location
		d.USN = g.record.USN
		d.URN = g.record.ST
		if d.URLBase == "" {
			d.URLBase = g.record.BaseAddress()
		}
	}
	return d
}

// DebugCommands 已绑定的命令与未支持的动作
func (g *Gateway) DebugCommands() DebugInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return DebugInfo{
		Available: g.registry.Available(),
		Failed:    g.registry.Failed(),
	}
}

// Unsupported 动作名 → 出现该动作但没有对应实现的服务类型
func (g *Gateway) Unsupported() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.registry.Unsupported()
}

// MissingCommands 签名表中本网关没有提供的命令
func (g *Gateway) MissingCommands() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.registry.Missing(g.opts.table)
}

// BindingErrors 最近一轮发现中各服务的绑定错误，没有时为 nil
//
// 可用 multierr.Errors 拆分。
func (g *Gateway) BindingErrors() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bindErr
}

// Command 按名称取已绑定的命令
func (g *Gateway) Command(name string) (*Command, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.registry.Get(name)
}

// Commands 已绑定的命令名（排序）
func (g *Gateway) Commands() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.registry.Names()
}

// ============================================================================
//                              调用
// ============================================================================

// Call 按名称调用命令，args 以网关的输入参数名为键
func (g *Gateway) Call(ctx context.Context, name string, args map[string]any) (Result, error) {
	cmd, err := g.command(name)
	if err != nil {
		return nil, err
	}
	return cmd.Call(ctx, args)
}

// callPositional 按位置给出参数调用命令
func (g *Gateway) callPositional(ctx context.Context, name string, values ...any) (Result, error) {
	cmd, err := g.command(name)
	if err != nil {
		return nil, err
	}
	args, err := cmd.Args(values...)
	if err != nil {
		return nil, err
	}
	return cmd.Call(ctx, args)
}

func (g *Gateway) command(name string) (*command.Bound, error) {
	g.mu.RLock()
	state := g.state
	cmd, ok := g.registry.Get(name)
	g.mu.RUnlock()

	if ok {
		return cmd, nil
	}
	if state != StateReady {
		return nil, fmt.Errorf("%w: %s (state %s)", ErrNotReady, name, state)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, name)
}
