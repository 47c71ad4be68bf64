package scpd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dep2p/go-igd/internal/neterr"
	"github.com/dep2p/go-igd/internal/util/logger"
	"github.com/dep2p/go-igd/internal/xmltree"
)

var log = logger.Logger("igd.scpd")

// ErrDescriptorFetch 获取描述文档时传输失败
var ErrDescriptorFetch = errors.New("scpd: descriptor fetch failed")

// maxDocumentSize 描述文档大小上限
const maxDocumentSize = 1 << 20

// DefaultTimeout 默认获取超时
const DefaultTimeout = 3 * time.Second

// FetchError 描述文档获取错误
type FetchError struct {
	URL   string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("scpd: fetch %s: %v", e.URL, e.Cause)
}

// Unwrap 同时暴露 ErrDescriptorFetch 与底层原因
func (e *FetchError) Unwrap() []error {
	return []error{ErrDescriptorFetch, e.Cause}
}

// Fetcher 通过 HTTP GET 获取描述文档
type Fetcher struct {
	// Client HTTP 客户端，nil 时使用 http.DefaultClient
	Client *http.Client

	// Timeout 单次获取的超时，<=0 时使用 DefaultTimeout
	Timeout time.Duration

	// UserAgent 请求头 User-Agent，空时不设置
	UserAgent string
}

// Get 获取 http://host:port/path 上的文档
//
// 返回 (nil, nil) 表示网关没有提供文档（空响应或无法解析），这不是错误。
func (f *Fetcher) Get(ctx context.Context, host string, port int, path string) (*xmltree.Element, error) {
	target := "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + NormalizePath(path)

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Cause: err}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Cause: neterr.Wrap(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: target, Cause: fmt.Errorf("unexpected status %q", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, &FetchError{URL: target, Cause: neterr.Wrap(err)}
	}

	doc, err := xmltree.ParseBytes(body)
	if err != nil {
		log.Debug("描述文档为空或无法解析", "url", target, "err", err)
		return nil, nil
	}
	return doc, nil
}

// NormalizePath 把描述中的 URL 规范为以 / 开头的请求路径
//
// 绝对 URL 只保留 path 和 query。
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		if u, err := url.Parse(p); err == nil {
			p = u.RequestURI()
		}
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
