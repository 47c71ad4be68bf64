package igd

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/huin/goupnp/httpu"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-igd/internal/command"
	"github.com/dep2p/go-igd/internal/soap"
)

// Option 配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config Config

	// 调用方提供的协作者，均由调用方负责关闭
	ssdpClient httpu.ClientInterfaceCtx
	dialer     soap.Dialer
	httpClient *http.Client

	metrics *soap.Metrics
	table   command.Table

	natpmpFallback bool
}

func newOptions(opts []Option) (*options, error) {
	o := &options{
		config: DefaultConfig(),
		table:  command.DefaultTable(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return o, nil
}

// WithConfig 整体替换配置
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		o.config = cfg
		return nil
	}
}

// WithTimeout 设置单次网络操作超时
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.config.Timeout = d
		return nil
	}
}

// WithSearchTarget 设置 M-SEARCH 的 ST
func WithSearchTarget(st string) Option {
	return func(o *options) error {
		o.config.SearchTarget = st
		return nil
	}
}

// WithLANAddress 设置发送 M-SEARCH 的本地地址
func WithLANAddress(addr string) Option {
	return func(o *options) error {
		o.config.LANAddress = addr
		return nil
	}
}

// WithGatewayAddress 只接受指定网关的响应
func WithGatewayAddress(addr string) Option {
	return func(o *options) error {
		o.config.GatewayAddress = addr
		return nil
	}
}

// WithSearchRetries 设置 M-SEARCH 发送次数
func WithSearchRetries(n int) Option {
	return func(o *options) error {
		o.config.SearchRetries = n
		return nil
	}
}

// WithUserAgent 设置请求的 User-Agent
func WithUserAgent(ua string) Option {
	return func(o *options) error {
		o.config.UserAgent = ua
		return nil
	}
}

// WithConcurrency 设置并发获取 SCPD 的上限
func WithConcurrency(n int) Option {
	return func(o *options) error {
		o.config.Concurrency = n
		return nil
	}
}

// WithSSDPClient 使用调用方的 HTTPU 客户端发送 M-SEARCH
//
// 客户端不会被关闭。
func WithSSDPClient(c httpu.ClientInterfaceCtx) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("nil SSDP client")
		}
		o.ssdpClient = c
		return nil
	}
}

// WithDialer 使用调用方的拨号器发送 SOAP 请求
func WithDialer(d soap.Dialer) Option {
	return func(o *options) error {
		if d == nil {
			return errors.New("nil dialer")
		}
		o.dialer = d
		return nil
	}
}

// WithHTTPClient 使用调用方的 HTTP 客户端获取描述文档
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("nil HTTP client")
		}
		o.httpClient = c
		return nil
	}
}

// WithMetrics 把 SOAP 调用指标注册到 reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) error {
		m, err := soap.NewMetrics(reg)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		o.metrics = m
		return nil
	}
}

// WithCommandTable 替换内置的命令签名表
func WithCommandTable(t Table) Option {
	return func(o *options) error {
		if len(t) == 0 {
			return errors.New("empty command table")
		}
		o.table = t
		return nil
	}
}

// WithNATPMPFallback 网关没有 GetExternalIPAddress 时改用 NAT-PMP 查询
func WithNATPMPFallback() Option {
	return func(o *options) error {
		o.natpmpFallback = true
		return nil
	}
}
