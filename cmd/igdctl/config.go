package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dep2p/go-igd"
)

// ============================================================================
//                              配置加载（CLI 专用）
// ============================================================================

// 环境变量（均使用 IGD_ 前缀）
const (
	EnvPrefix         = "IGD_"
	EnvTimeout        = "TIMEOUT"
	EnvSearchTarget   = "SEARCH_TARGET"
	EnvLANAddress     = "LAN_ADDRESS"
	EnvGatewayAddress = "GATEWAY_ADDRESS"
	EnvSearchRetries  = "SEARCH_RETRIES"
	EnvConcurrency    = "CONCURRENCY"
	EnvUserAgent      = "USER_AGENT"
)

// fileConfig 配置文件格式
//
// timeout 使用 time.ParseDuration 的写法，例如 "3s"。
type fileConfig struct {
	Timeout        string `json:"timeout,omitempty"`
	SearchTarget   string `json:"searchTarget,omitempty"`
	LANAddress     string `json:"lanAddress,omitempty"`
	GatewayAddress string `json:"gatewayAddress,omitempty"`
	SearchRetries  int    `json:"searchRetries,omitempty"`
	Concurrency    int    `json:"concurrency,omitempty"`
	UserAgent      string `json:"userAgent,omitempty"`
}

// loadConfigFile 从 JSON 文件加载配置
func loadConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

// applyEnvOverrides 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
func applyEnvOverrides(fc *fileConfig, getenv func(string) string) {
	env := func(name string) string {
		return strings.TrimSpace(getenv(EnvPrefix + name))
	}

	if v := env(EnvTimeout); v != "" {
		fc.Timeout = v
	}
	if v := env(EnvSearchTarget); v != "" {
		fc.SearchTarget = v
	}
	if v := env(EnvLANAddress); v != "" {
		fc.LANAddress = v
	}
	if v := env(EnvGatewayAddress); v != "" {
		fc.GatewayAddress = v
	}
	if v := env(EnvSearchRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			fc.SearchRetries = n
		}
	}
	if v := env(EnvConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			fc.Concurrency = n
		}
	}
	if v := env(EnvUserAgent); v != "" {
		fc.UserAgent = v
	}
}

// toConfig 在默认配置上应用文件与环境变量的值
func (fc *fileConfig) toConfig() (igd.Config, error) {
	cfg := igd.DefaultConfig()
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid timeout %q: %w", fc.Timeout, err)
		}
		cfg.Timeout = d
	}
	if fc.SearchTarget != "" {
		cfg.SearchTarget = resolveSearchTarget(fc.SearchTarget)
	}
	if fc.LANAddress != "" {
		cfg.LANAddress = fc.LANAddress
	}
	if fc.GatewayAddress != "" {
		cfg.GatewayAddress = fc.GatewayAddress
	}
	if fc.SearchRetries > 0 {
		cfg.SearchRetries = fc.SearchRetries
	}
	if fc.Concurrency > 0 {
		cfg.Concurrency = fc.Concurrency
	}
	if fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}
	return cfg, nil
}

// ============================================================================
//                              辅助函数
// ============================================================================

// searchTargets ST 简写
var searchTargets = map[string]string{
	"igd1":  igd.SearchTargetIGD1,
	"igd2":  igd.SearchTargetIGD2,
	"wanip": igd.SearchTargetWANIPConnection1,
	"all":   igd.SearchTargetAll,
}

// resolveSearchTarget 展开 ST 简写，其他值原样返回
func resolveSearchTarget(st string) string {
	if full, ok := searchTargets[strings.ToLower(st)]; ok {
		return full
	}
	return st
}

// parseKeyValues 解析 key=value 形式的参数
func parseKeyValues(args []string) (map[string]string, error) {
	kv := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q is not key=value", a)
		}
		kv[k] = v
	}
	return kv, nil
}
