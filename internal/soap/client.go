package soap

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dep2p/go-igd/internal/neterr"
	"github.com/dep2p/go-igd/internal/util/logger"
)

var log = logger.Logger("igd.soap")

// DefaultTimeout 单次调用默认超时
const DefaultTimeout = 3 * time.Second

// Dialer 建立到网关的 TCP 连接
//
// *net.Dialer 满足该接口；调用方可注入自己的实现以复用或测试。
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Request 一次动作调用
type Request struct {
	Method      string
	ParamNames  []string
	Values      map[string]string
	ServiceType string
	Host        string
	Port        int
	ControlPath string
}

// Client SOAP 客户端
//
// 每次 Invoke 是一次独立的请求/响应，不做重试。
type Client struct {
	// Dialer nil 时使用 net.Dialer
	Dialer Dialer

	// Timeout 单次调用的超时，<=0 时使用 DefaultTimeout
	Timeout time.Duration

	// UserAgent 空时使用 UserAgent 常量
	UserAgent string

	// Metrics 可选
	Metrics *Metrics
}

// Invoke 序列化请求、发送并解析响应
func (c *Client) Invoke(ctx context.Context, req Request) (map[string]string, error) {
	start := time.Now()

	ua := c.UserAgent
	if ua == "" {
		ua = UserAgent
	}
	payload := serialize(req.Method, req.ParamNames, req.ServiceType, req.Host, req.ControlPath, req.Values, ua)

	log.Debug("SOAP 请求",
		"method", req.Method,
		"serviceType", req.ServiceType,
		"host", req.Host,
		"port", req.Port,
		"path", req.ControlPath)

	raw, err := c.RoundTrip(ctx, req.Host, req.Port, payload)
	if err != nil {
		c.Metrics.observe(req.Method, resultOf(err), time.Since(start))
		return nil, fmt.Errorf("%s: %w", req.Method, err)
	}

	out, err := DeserializeResponse(raw, req.Method, req.ServiceType)
	c.Metrics.observe(req.Method, resultOf(err), time.Since(start))
	if err != nil {
		log.Debug("SOAP 调用失败", "method", req.Method, "err", err)
		return nil, err
	}
	return out, nil
}

// RoundTrip 发送原始请求并读取完整的原始响应
func (c *Client) RoundTrip(ctx context.Context, host string, port int, payload []byte) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := c.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, transportError(ctx, addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		// 取消时让阻塞的读写立即返回
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := conn.Write(payload); err != nil {
		return nil, transportError(ctx, addr, err)
	}

	var raw bytes.Buffer
	br := bufio.NewReader(io.TeeReader(conn, &raw))
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		if raw.Len() > 0 && !neterr.IsTimeout(err) {
			// 交给 DeserializeResponse 报告格式错误
			return raw.Bytes(), nil
		}
		return nil, transportError(ctx, addr, err)
	}
	_, err = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if err != nil && neterr.IsTimeout(err) {
		return nil, transportError(ctx, addr, err)
	}
	return raw.Bytes(), nil
}

func transportError(ctx context.Context, addr string, err error) error {
	if ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		err = fmt.Errorf("%w (%v)", ctx.Err(), err)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, addr, neterr.Wrap(err))
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSOAPFault):
		return "fault"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case neterr.IsTimeout(err):
		return "timeout"
	default:
		return "transport"
	}
}
