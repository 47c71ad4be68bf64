package igd

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/dep2p/go-igd/internal/ssdp"
)

// Config 网关客户端配置
type Config struct {
	// Timeout 单次网络操作（搜索、描述获取、SOAP 调用）的超时
	// SSDP 的 MX 以秒为单位，因此不能小于 1 秒
	Timeout time.Duration `json:"timeout"`

	// SearchTarget M-SEARCH 的 ST
	SearchTarget string `json:"searchTarget"`

	// LANAddress 发送 M-SEARCH 的本地地址，空时由系统选择
	LANAddress string `json:"lanAddress,omitempty"`

	// GatewayAddress 只接受该地址的响应，空时接受任意网关
	GatewayAddress string `json:"gatewayAddress,omitempty"`

	// SearchRetries M-SEARCH 发送次数
	SearchRetries int `json:"searchRetries"`

	// UserAgent SOAP 与描述请求的 User-Agent，空时使用内置值
	UserAgent string `json:"userAgent,omitempty"`

	// Concurrency 并发获取 SCPD 的上限，1 表示顺序获取
	Concurrency int `json:"concurrency"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Timeout:       3 * time.Second,
		SearchTarget:  ssdp.TargetIGD1,
		SearchRetries: ssdp.DefaultSearchSends,
		Concurrency:   4,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1s, got %s", c.Timeout)
	}
	if c.SearchTarget == "" {
		return errors.New("search target is required")
	}
	if c.SearchRetries < 1 {
		return fmt.Errorf("search retries must be positive, got %d", c.SearchRetries)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.LANAddress != "" && net.ParseIP(c.LANAddress) == nil {
		return fmt.Errorf("invalid LAN address %q", c.LANAddress)
	}
	if c.GatewayAddress != "" && net.ParseIP(c.GatewayAddress) == nil {
		return fmt.Errorf("invalid gateway address %q", c.GatewayAddress)
	}
	return nil
}
