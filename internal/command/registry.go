package command

import "sort"

// Unsupported 未支持台账中的一条记录
type Unsupported struct {
	ServiceType string
	Action      string
}

// Registry 一次发现得到的命令表和未支持台账
//
// 每次发现重建，不跨轮合并；不是并发安全的，由持有者加锁。
type Registry struct {
	commands map[string]*Bound
	ledger   []Unsupported
}

// NewRegistry 创建空表
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Bound)}
}

// Merge 合并一个服务的绑定结果
//
// 同名命令后合并的覆盖先合并的。
func (r *Registry) Merge(bound map[string]*Bound, unsupported map[string][]string) {
	for name, b := range bound {
		r.commands[name] = b
	}

	names := make([]string, 0, len(unsupported))
	for name := range unsupported {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, st := range unsupported[name] {
			r.ledger = append(r.ledger, Unsupported{ServiceType: st, Action: name})
		}
	}
}

// Get 按名称取命令
func (r *Registry) Get(name string) (*Bound, bool) {
	b, ok := r.commands[name]
	return b, ok
}

// Names 已绑定的命令名（排序）
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len 已绑定命令数
func (r *Registry) Len() int { return len(r.commands) }

// Available 命令名 → 服务类型
func (r *Registry) Available() map[string]string {
	m := make(map[string]string, len(r.commands))
	for name, b := range r.commands {
		m[name] = b.Target.ServiceType
	}
	return m
}

// Failed 服务类型 → 未支持的动作名
func (r *Registry) Failed() map[string][]string {
	m := make(map[string][]string)
	for _, u := range r.ledger {
		m[u.ServiceType] = append(m[u.ServiceType], u.Action)
	}
	return m
}

// Unsupported 动作名 → 出现该动作但未实现的服务类型
func (r *Registry) Unsupported() map[string][]string {
	m := make(map[string][]string)
	for _, u := range r.ledger {
		m[u.Action] = append(m[u.Action], u.ServiceType)
	}
	return m
}

// Missing 表中有签名但本轮没有绑定的命令名（排序）
func (r *Registry) Missing(table Table) []string {
	var names []string
	for _, name := range table.Names() {
		if _, ok := r.commands[name]; !ok {
			names = append(names, name)
		}
	}
	return names
}
