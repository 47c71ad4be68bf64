// Package igd 是 UPnP Internet Gateway Device 客户端
//
// 通过 SSDP 发现局域网网关，获取设备描述和各服务的 SCPD 文档，
// 把网关实际提供的动作与内置的命令签名表对账，得到可直接调用的命令。
//
// 基本用法：
//
//	gw, err := igd.DiscoverGateway(ctx, igd.WithTimeout(3*time.Second))
//	if err != nil {
//	    return err
//	}
//	ip, err := gw.GetExternalIPAddress(ctx)
//
// 发现流程是一个状态机：
//
//	uninitialized → discovering → descriptor-fetch → binding → ready
//
// 任一步骤都可能进入 failed。单个服务的 SCPD 获取失败只记入 BindingErrors，
// 不影响其他服务。命令调用是一次性的请求/响应，不做重试。
package igd
