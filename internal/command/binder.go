package command

import (
	"github.com/dep2p/go-igd/internal/scpd"
	"github.com/dep2p/go-igd/internal/util/logger"
)

var log = logger.Logger("igd.command")

// Bind 把一个服务的动作与签名表对账
//
// 表中有同名签名的动作生成 Bound；没有的记入未支持台账
// （动作名 → 服务类型列表），这是正常情况而不是错误。
func Bind(target Target, specs []scpd.ActionSpec, table Table, invoker Invoker) (map[string]*Bound, map[string][]string) {
	bound := make(map[string]*Bound)
	unsupported := make(map[string][]string)

	for _, spec := range specs {
		sig, ok := table.Lookup(spec.Name)
		if !ok {
			unsupported[spec.Name] = append(unsupported[spec.Name], target.ServiceType)
			log.Debug("动作没有对应的命令实现",
				"serviceType", target.ServiceType,
				"action", spec.Name,
				"inputs", spec.Inputs,
				"outputs", spec.Outputs)
			continue
		}

		bound[spec.Name] = newBound(sig, spec.Inputs, spec.Outputs, target, invoker)
		log.Debug("注册命令", "serviceType", target.ServiceType, "method", spec.Name)
	}
	return bound, unsupported
}
