// Package natpmp 通过 NAT-PMP 查询网关的外部地址
//
// 网关没有提供 UPnP GetExternalIPAddress 时作为后备。
// NAT-PMP 基于 UDP 5351，协议本身没有取消机制，这里用 ctx 控制等待。
package natpmp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	natpmp "github.com/jackpal/go-nat-pmp"

	"github.com/dep2p/go-igd/internal/neterr"
	"github.com/dep2p/go-igd/internal/util/logger"
)

var log = logger.Logger("igd.natpmp")

// DefaultTimeout 默认超时
const DefaultTimeout = 3 * time.Second

// ErrNoGateway 没有可用的网关地址
var ErrNoGateway = errors.New("natpmp: no gateway address")

// Error NAT-PMP 操作失败
type Error struct {
	Op    string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("natpmp: %s: %v", e.Op, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// API go-nat-pmp 客户端中用到的部分
type API interface {
	GetExternalAddress() (*natpmp.GetExternalAddressResult, error)
}

// Client NAT-PMP 客户端
type Client struct {
	gateway net.IP
	api     API
}

// New 创建访问 gw 的客户端
func New(gw net.IP, timeout time.Duration) (*Client, error) {
	if gw == nil || gw.To4() == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGateway, gw)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewWithAPI(gw, natpmp.NewClientWithTimeout(gw, timeout)), nil
}

// NewWithAPI 使用给定的协议实现创建客户端
func NewWithAPI(gw net.IP, api API) *Client {
	return &Client{gateway: gw, api: api}
}

// Gateway 网关地址
func (c *Client) Gateway() net.IP { return c.gateway }

// ExternalAddress 查询外部 IPv4 地址
func (c *Client) ExternalAddress(ctx context.Context) (net.IP, error) {
	type result struct {
		res *natpmp.GetExternalAddressResult
		err error
	}
	ch := make(chan result, 1)
	go func() {
		res, err := c.api.GetExternalAddress()
		ch <- result{res, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, &Error{Op: "get external address", Cause: neterr.Wrap(r.err)}
		}
		ip := net.IPv4(r.res.ExternalIPAddress[0], r.res.ExternalIPAddress[1], r.res.ExternalIPAddress[2], r.res.ExternalIPAddress[3])
		log.Debug("NAT-PMP 外部地址", "gateway", c.gateway.String(), "ip", ip.String())
		return ip, nil
	case <-ctx.Done():
		return nil, &Error{Op: "get external address", Cause: neterr.Wrap(ctx.Err())}
	}
}
