// Package ssdp 发现局域网中的 IGD 网关并生成发现记录
package ssdp

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrMalformedLocation location 不是 http://host:port/path 形式
	ErrMalformedLocation = errors.New("ssdp: malformed location")

	// ErrMissingField 发现响应缺少必需字段
	ErrMissingField = errors.New("ssdp: missing required field")

	// ErrDiscoveryTimeout 截止时间内没有可用的 SSDP 响应
	ErrDiscoveryTimeout = errors.New("ssdp: discovery timeout")
)

// Record 一次 SSDP 发现得到的网关记录，创建后不再修改
type Record struct {
	USN          string
	Server       string
	Location     string
	ST           string
	CacheControl string
	Date         string
	Ext          string

	host string
	port int
	path string
}

// NewRecord 从发现字段构建记录
//
// 键不区分大小写；cache-control 也接受 cache_control 写法。
func NewRecord(fields map[string]string) (*Record, error) {
	lower := make(map[string]string, len(fields))
	for k, v := range fields {
		lower[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	for _, key := range []string{"usn", "server", "location", "st"} {
		if _, ok := lower[key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
	}

	r := &Record{
		USN:          lower["usn"],
		Server:       lower["server"],
		Location:     lower["location"],
		ST:           lower["st"],
		CacheControl: lower["cache-control"],
		Date:         lower["date"],
		Ext:          lower["ext"],
	}
	if r.CacheControl == "" {
		r.CacheControl = lower["cache_control"]
	}

	host, port, path, err := ParseLocation(r.Location)
	if err != nil {
		return nil, err
	}
	r.host, r.port, r.path = host, port, path
	return r, nil
}

// FromResponse 从 M-SEARCH 响应构建记录
func FromResponse(resp *http.Response) (*Record, error) {
	fields := make(map[string]string, len(resp.Header))
	for k, vs := range resp.Header {
		if len(vs) > 0 {
			fields[k] = vs[0]
		} else {
			fields[k] = ""
		}
	}
	return NewRecord(fields)
}

// ParseLocation 拆出 location 的 host、port 和 path
//
// 要求显式端口；path 至少为 "/"。
func ParseLocation(location string) (host string, port int, path string, err error) {
	u, perr := url.Parse(location)
	if perr != nil {
		return "", 0, "", fmt.Errorf("%w: %q: %v", ErrMalformedLocation, location, perr)
	}
	if !strings.EqualFold(u.Scheme, "http") || u.Hostname() == "" || u.Port() == "" {
		return "", 0, "", fmt.Errorf("%w: %q", ErrMalformedLocation, location)
	}
	port, perr = strconv.Atoi(u.Port())
	if perr != nil || port <= 0 || port > 65535 {
		return "", 0, "", fmt.Errorf("%w: %q: bad port", ErrMalformedLocation, location)
	}
	if u.Path == "" {
		return "", 0, "", fmt.Errorf("%w: %q: missing path", ErrMalformedLocation, location)
	}
	return u.Hostname(), port, u.RequestURI(), nil
}

// Host 网关地址
func (r *Record) Host() string { return r.host }

// Port 描述服务端口
func (r *Record) Port() int { return r.port }

// Path 根设备描述路径，以 / 开头
func (r *Record) Path() string { return r.path }

// BaseAddress 形如 http://host:port
func (r *Record) BaseAddress() string {
	return "http://" + hostPort(r.host, r.port)
}

// AsMap 返回发现字段
func (r *Record) AsMap() map[string]string {
	m := map[string]string{
		"usn":      r.USN,
		"server":   r.Server,
		"location": r.Location,
		"st":       r.ST,
	}
	if r.CacheControl != "" {
		m["cache-control"] = r.CacheControl
	}
	if r.Date != "" {
		m["date"] = r.Date
	}
	if r.Ext != "" {
		m["ext"] = r.Ext
	}
	return m
}

func hostPort(host string, port int) string {
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return host + ":" + strconv.Itoa(port)
}
