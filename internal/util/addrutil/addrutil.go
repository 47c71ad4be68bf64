// Package addrutil 选择与网关通信的本地地址
package addrutil

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/jackpal/gateway"

	"github.com/dep2p/go-igd/internal/util/logger"
)

var log = logger.Logger("igd.addr")

// ============================================================================
//                              地址分类
// ============================================================================

// virtualIfacePrefixes 虚拟网卡名前缀，不用于局域网通信
var virtualIfacePrefixes = []string{
	"utun",
	"bridge",
	"tun",
	"tap",
	"wintun",
	"vethernet",
	"hyper-v",
	"docker",
	"vboxnet",
	"virtualbox",
	"vmnet",
	"vmware",
	"veth",
	"virbr",
	"br-",
	"cni",
	"flannel",
	"calico",
	"npf",
}

// blockedCIDRs 不会出现在 IGD 局域网侧的地址段
var blockedCIDRs = []*net.IPNet{
	mustParseCIDR("127.0.0.0/8"),
	mustParseCIDR("169.254.0.0/16"),
	mustParseCIDR("198.18.0.0/15"),
	mustParseCIDR("100.64.0.0/10"),
	mustParseCIDR("224.0.0.0/4"),
	mustParseCIDR("240.0.0.0/4"),
}

var rfc1918CIDRs = []*net.IPNet{
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.168.0.0/16"),
}

func mustParseCIDR(s string) *net.IPNet {
	_, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		panic(fmt.Sprintf("invalid CIDR: %s", s))
	}
	return ipnet
}

func containedIn(ip net.IP, nets []*net.IPNet) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// IsVirtualInterface 判断是否为虚拟网卡
func IsVirtualInterface(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range virtualIfacePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// IsRFC1918 判断是否为 RFC1918 私有地址
func IsRFC1918(ip net.IP) bool { return containedIn(ip, rfc1918CIDRs) }

// IsBlocked 判断地址是否不可能是局域网地址
func IsBlocked(ip net.IP) bool { return containedIn(ip, blockedCIDRs) }

// ============================================================================
//                              候选地址
// ============================================================================

// Candidate 一个本地 IPv4 地址
type Candidate struct {
	Interface string
	IP        net.IP

	// Net 所在网段，可能为 nil
	Net *net.IPNet
}

// Candidates 枚举适合与 IGD 通信的本地地址
//
// 接口必须 UP 且支持组播；排除回环、虚拟网卡、IPv6 和不可用地址段。
func Candidates() []Candidate {
	ifaces, err := net.Interfaces()
	if err != nil {
		log.Debug("获取网络接口失败", "err", err)
		return nil
	}

	var out []Candidate
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if IsVirtualInterface(iface.Name) {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			log.Debug("获取接口地址失败", "iface", iface.Name, "err", err)
			continue
		}
		for _, addr := range addrs {
			var c Candidate
			switch v := addr.(type) {
			case *net.IPNet:
				c = Candidate{Interface: iface.Name, IP: v.IP, Net: v}
			case *net.IPAddr:
				c = Candidate{Interface: iface.Name, IP: v.IP}
			default:
				continue
			}
			if c.IP.To4() == nil || IsBlocked(c.IP) {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

// Rank 排序候选地址：与 gw 同网段的在前，其次 RFC1918，其余最后
//
// gw 为 nil 时只按 RFC1918 排序。原有顺序在各组内保持不变。
func Rank(cands []Candidate, gw net.IP) []net.IP {
	var same, private, other []net.IP
	for _, c := range cands {
		switch {
		case gw != nil && c.Net != nil && c.Net.Contains(gw):
			same = append(same, c.IP)
		case IsRFC1918(c.IP):
			private = append(private, c.IP)
		default:
			other = append(other, c.IP)
		}
	}
	out := make([]net.IP, 0, len(cands))
	out = append(out, same...)
	out = append(out, private...)
	return append(out, other...)
}

// DefaultGateway 系统默认网关地址
func DefaultGateway() (net.IP, error) {
	return gateway.DiscoverGateway()
}

// LANAddress 选择与 gwHost 通信时使用的本地地址
//
// 优先使用到 gwHost 的出口地址，失败时从候选地址中选择。
func LANAddress(gwHost string, gwPort int) (net.IP, error) {
	if ip, err := outboundIP(gwHost, gwPort); err == nil {
		return ip, nil
	}

	gw := net.ParseIP(gwHost)
	if gw == nil {
		if ip, err := DefaultGateway(); err == nil {
			gw = ip
		}
	}
	ranked := Rank(Candidates(), gw)
	if len(ranked) == 0 {
		return nil, fmt.Errorf("no usable LAN address for %s", gwHost)
	}
	return ranked[0], nil
}

// outboundIP 通过 UDP "连接" 得到内核选择的出口地址，不发送数据
func outboundIP(host string, port int) (net.IP, error) {
	conn, err := net.Dial("udp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.IsUnspecified() {
		return nil, fmt.Errorf("no outbound address for %s", host)
	}
	return addr.IP, nil
}
