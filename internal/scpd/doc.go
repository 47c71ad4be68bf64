// Package scpd 获取并解析 UPnP 服务描述（SCPD）文档
//
// ExtractActions 把一个服务的 SCPD 文档展开为扁平的动作列表：
//
//	doc, err := fetcher.Get(ctx, host, port, service.SCPDURL)
//	for _, a := range scpd.ExtractActions(doc) {
//	    fmt.Println(a.Name, a.Inputs, a.Outputs)
//	}
//
// 厂商差异：
//   - actionList 可能缺失，也可能是空字符串
//   - 只有一个 action / argument 时与多个时结构相同，统一按列表处理
//   - 动作可以没有 argumentList
package scpd
