package ssdp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/huin/goupnp/httpu"
	goupnpssdp "github.com/huin/goupnp/ssdp"
	"go.uber.org/multierr"

	"github.com/dep2p/go-igd/internal/util/logger"
)

var log = logger.Logger("igd.ssdp")

// 搜索目标
const (
	// TargetIGD1 IGDv1 根设备
	TargetIGD1 = "urn:schemas-upnp-org:device:InternetGatewayDevice:1"
	// TargetIGD2 IGDv2 根设备
	TargetIGD2 = "urn:schemas-upnp-org:device:InternetGatewayDevice:2"
	// TargetWANIPConnection1 WANIPConnection:1 服务
	TargetWANIPConnection1 = "urn:schemas-upnp-org:service:WANIPConnection:1"
	// TargetAll 所有设备
	TargetAll = goupnpssdp.SSDPAll
)

// DefaultSearchSends M-SEARCH 默认发送次数
const DefaultSearchSends = 3

const mxSlack = 100 * time.Millisecond

// Options 搜索参数
type Options struct {
	// SearchTarget ST 头，空时使用 TargetIGD1
	SearchTarget string

	// LANAddress 发送 M-SEARCH 的本地地址，空时由系统选择
	LANAddress string

	// GatewayAddress 非空时只接受该地址的响应
	GatewayAddress string

	// Sends M-SEARCH 发送次数，<=0 时使用 DefaultSearchSends
	Sends int

	// Timeout 搜索时限，<=0 时必须由 ctx 提供截止时间
	Timeout time.Duration

	// Client 调用方提供的 HTTPU 客户端；由调用方负责关闭
	Client httpu.ClientInterfaceCtx
}

// Search 发送 M-SEARCH 并返回第一个可用的网关记录
func Search(ctx context.Context, opts Options) (*Record, error) {
	target := opts.SearchTarget
	if target == "" {
		target = TargetIGD1
	}
	sends := opts.Sends
	if sends <= 0 {
		sends = DefaultSearchSends
	}
	if opts.Timeout > 0 {
		// MX 按整秒向下取整，留出余量使其等于 Timeout 的整秒数
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout+mxSlack)
		defer cancel()
	}

	client := opts.Client
	if client == nil {
		owned, err := newClient(opts.LANAddress)
		if err != nil {
			return nil, err
		}
		defer func() { _ = owned.Close() }()
		client = owned
	}

	log.Debug("发送 M-SEARCH", "st", target, "lan", opts.LANAddress, "gateway", opts.GatewayAddress)

	responses, err := goupnpssdp.RawSearch(ctx, client, target, sends)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrDiscoveryTimeout, err)
		}
		return nil, fmt.Errorf("ssdp: search %s: %w", target, err)
	}

	rec, locErr := selectRecord(responses, target, opts.GatewayAddress)
	if rec != nil {
		log.Info("发现网关", "location", rec.Location, "server", rec.Server, "st", rec.ST)
		return rec, nil
	}
	// 只收到 location 非法的响应时一并报告
	return nil, multierr.Append(fmt.Errorf("%w: no response for %s", ErrDiscoveryTimeout, target), locErr)
}

func newClient(lanAddress string) (*httpu.HTTPUClient, error) {
	if lanAddress == "" {
		c, err := httpu.NewHTTPUClient()
		if err != nil {
			return nil, fmt.Errorf("ssdp: create client: %w", err)
		}
		return c, nil
	}
	c, err := httpu.NewHTTPUClientAddr(lanAddress)
	if err != nil {
		return nil, fmt.Errorf("ssdp: bind %s: %w", lanAddress, err)
	}
	return c, nil
}

// selectRecord 选出第一个 ST 匹配、来自指定网关且字段完整的响应
//
// 没有可用记录时返回遇到的第一个 ErrMalformedLocation。
func selectRecord(responses []*http.Response, target, gateway string) (*Record, error) {
	var locErr error
	for _, resp := range responses {
		st := resp.Header.Get("ST")
		if target != TargetAll && !strings.EqualFold(st, target) {
			log.Debug("忽略 ST 不匹配的响应", "st", st)
			continue
		}

		rec, err := FromResponse(resp)
		if err != nil {
			if locErr == nil && errors.Is(err, ErrMalformedLocation) {
				locErr = err
			}
			log.Debug("忽略无效的 SSDP 响应", "err", err)
			continue
		}
		if gateway != "" && !sameHost(rec.Host(), gateway) {
			log.Debug("忽略其他设备的响应", "host", rec.Host(), "gateway", gateway)
			continue
		}
		return rec, nil
	}
	return nil, locErr
}

func sameHost(a, b string) bool {
	ipA, ipB := net.ParseIP(a), net.ParseIP(b)
	if ipA != nil && ipB != nil {
		return ipA.Equal(ipB)
	}
	return strings.EqualFold(a, b)
}
