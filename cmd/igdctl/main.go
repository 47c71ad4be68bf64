// Package main 提供 igdctl 命令行入口
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-igd"
	"github.com/dep2p/go-igd/internal/util/addrutil"
	"github.com/dep2p/go-igd/internal/util/logger"
)

var log = logger.Logger("igdctl")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
// 优先级：命令行参数 > 环境变量（IGD_*）> 配置文件 > 默认值
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile  = flag.String("config", "", "配置文件路径（JSON）")
	timeout     = flag.Duration("timeout", 0, "单次网络操作超时（默认 3s，最小 1s）")
	lanAddress  = flag.String("lan", "", "发送 M-SEARCH 的本地地址")
	gatewayAddr = flag.String("gateway", "", "只接受该网关的响应")
	searchST    = flag.String("st", "", "M-SEARCH 的 ST（可用简写 igd1、igd2、wanip、all）")
	jsonOutput  = flag.Bool("json", false, "以 JSON 输出")
	logLevel    = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
	natpmpIP    = flag.Bool("natpmp", false, "网关不支持 GetExternalIPAddress 时改用 NAT-PMP")
)

const usage = `用法: igdctl [flags] <command> [key=value ...]

命令:
  discover                       搜索网关并显示概要
  debug                          显示已绑定命令与未支持的动作
  commands                       列出可调用的命令
  external-ip                    查询 WAN 地址
  redirects                      列出端口映射
  add-mapping port=P [proto=TCP] [client=IP] [external=P] [desc=D] [lease=S]
                                 添加端口映射；未给出 external 时自动选择
  delete-mapping external=P [proto=TCP]
                                 删除端口映射
  call <Method> [Name=value ...] 按网关的参数名调用任意命令

flags:
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(flag.Args()); err != nil {
		log.Error("igdctl 失败", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return errors.New("missing command")
	}

	if *logLevel != "" {
		level, ok := logger.ParseLevel(*logLevel)
		if !ok {
			return fmt.Errorf("invalid log level %q", *logLevel)
		}
		logger.SetGlobalLevel(level)
	}

	cfg, err := buildConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 发现、描述获取与各服务的 SCPD 获取各自受 Timeout 约束
	startCtx, cancel := context.WithTimeout(ctx, 4*cfg.Timeout+time.Second)
	defer cancel()

	var gw *igd.Gateway
	opts := []igd.Option{igd.WithConfig(cfg)}
	if *natpmpIP {
		opts = append(opts, igd.WithNATPMPFallback())
	}
	app := igd.NewApp(opts, fx.Populate(&gw))
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() { _ = app.Stop(context.Background()) }()

	return runCommand(ctx, gw, cfg, args[0], args[1:], os.Stdout, *jsonOutput)
}

// buildConfig 合并配置文件、环境变量和命令行参数
func buildConfig() (igd.Config, error) {
	fc := &fileConfig{}
	if *configFile != "" {
		loaded, err := loadConfigFile(*configFile)
		if err != nil {
			return igd.Config{}, fmt.Errorf("加载配置文件失败: %w", err)
		}
		fc = loaded
	}
	applyEnvOverrides(fc, os.Getenv)

	cfg, err := fc.toConfig()
	if err != nil {
		return cfg, err
	}

	if isFlagSet("timeout") {
		cfg.Timeout = *timeout
	}
	if isFlagSet("lan") {
		cfg.LANAddress = *lanAddress
	}
	if isFlagSet("gateway") {
		cfg.GatewayAddress = *gatewayAddr
	}
	if isFlagSet("st") {
		cfg.SearchTarget = resolveSearchTarget(*searchST)
	}
	return cfg, cfg.Validate()
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// ═══════════════════════════════════════════════════════════════════════════
// 命令
// ═══════════════════════════════════════════════════════════════════════════

func runCommand(ctx context.Context, gw *igd.Gateway, cfg igd.Config, name string, args []string, out io.Writer, asJSON bool) error {
	switch name {
	case "discover":
		return printJSON(out, struct {
			Record  map[string]string `json:"record"`
			Gateway igd.Descriptor    `json:"gateway"`
		}{gw.Record().AsMap(), gw.GatewayDescriptor()})

	case "debug":
		return printJSON(out, gw.DebugCommands())

	case "commands":
		names := gw.Commands()
		if asJSON {
			return printJSON(out, names)
		}
		for _, n := range names {
			cmd, _ := gw.Command(n)
			fmt.Fprintf(out, "%s(%s) -> %s\n", n, strings.Join(cmd.Inputs, ", "), strings.Join(cmd.Outputs, ", "))
		}
		return nil

	case "external-ip":
		ip, err := gw.GetExternalIPAddress(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, map[string]string{"externalIPAddress": ip})
		}
		fmt.Fprintln(out, ip)
		return nil

	case "redirects":
		redirects, err := gw.GetRedirects(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, redirects)
		}
		for _, r := range redirects {
			fmt.Fprintf(out, "%s %d -> %s:%d %q lease=%d enabled=%t\n",
				r.Protocol, r.ExternalPort, r.InternalClient, r.InternalPort, r.Description, r.LeaseDuration, r.Enabled)
		}
		return nil

	case "add-mapping":
		return addMapping(ctx, gw, cfg, args, out, asJSON)

	case "delete-mapping":
		kv, err := parseKeyValues(args)
		if err != nil {
			return err
		}
		external, err := parsePort(kv, "external")
		if err != nil {
			return err
		}
		return gw.DeletePortMapping(ctx, external, protocolOf(kv))

	case "call":
		if len(args) == 0 {
			return errors.New("call: missing method name")
		}
		kv, err := parseKeyValues(args[1:])
		if err != nil {
			return err
		}
		callArgs := make(map[string]any, len(kv))
		for k, v := range kv {
			callArgs[k] = v
		}
		res, err := gw.Call(ctx, args[0], callArgs)
		if err != nil {
			return err
		}
		return printJSON(out, res.Map())

	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

func addMapping(ctx context.Context, gw *igd.Gateway, cfg igd.Config, args []string, out io.Writer, asJSON bool) error {
	kv, err := parseKeyValues(args)
	if err != nil {
		return err
	}
	port, err := parsePort(kv, "port")
	if err != nil {
		return err
	}

	client := kv["client"]
	if client == "" {
		client = cfg.LANAddress
	}
	if client == "" {
		if client, err = localAddressFor(gw.Record()); err != nil {
			return err
		}
	}

	var lease uint32
	if v, ok := kv["lease"]; ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid lease %q", v)
		}
		lease = uint32(n)
	}
	desc := kv["desc"]
	if desc == "" {
		desc = "igdctl"
	}
	proto := protocolOf(kv)

	var external uint16
	if _, ok := kv["external"]; ok {
		if external, err = parsePort(kv, "external"); err != nil {
			return err
		}
		err = gw.AddPortMapping(ctx, igd.PortMapping{
			ExternalPort:   external,
			Protocol:       proto,
			InternalPort:   port,
			InternalClient: client,
			Enabled:        true,
			Description:    desc,
			LeaseDuration:  lease,
		})
	} else {
		external, err = gw.GetNextMapping(ctx, port, proto, client, desc, lease)
	}
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(out, map[string]any{"externalPort": external, "protocol": proto, "internalClient": client})
	}
	fmt.Fprintf(out, "%s %d -> %s:%d\n", proto, external, client, port)
	return nil
}

// localAddressFor 选择到网关的出口地址作为内部客户端地址
func localAddressFor(rec *igd.Record) (string, error) {
	ip, err := addrutil.LANAddress(rec.Host(), rec.Port())
	if err != nil {
		return "", fmt.Errorf("determine LAN address: %w", err)
	}
	return ip.String(), nil
}

func parsePort(kv map[string]string, key string) (uint16, error) {
	v, ok := kv[key]
	if !ok {
		return 0, fmt.Errorf("missing %s=", key)
	}
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return uint16(n), nil
}

func protocolOf(kv map[string]string) string {
	if p := kv["proto"]; p != "" {
		return strings.ToUpper(p)
	}
	return "TCP"
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
