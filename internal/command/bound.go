package command

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dep2p/go-igd/internal/soap"
)

var (
	// ErrMissingArgument 调用缺少输入参数
	ErrMissingArgument = errors.New("command: missing argument")

	// ErrUnknownArgument 调用给出了动作不接受的参数
	ErrUnknownArgument = errors.New("command: unknown argument")
)

// Target 绑定命令的调用目标
type Target struct {
	Host        string
	Port        int
	ControlPath string
	ServiceType string
}

// Invoker 执行一次 SOAP 调用，*soap.Client 满足该接口
type Invoker interface {
	Invoke(ctx context.Context, req soap.Request) (map[string]string, error)
}

// Bound 签名与网关动作融合后的可调用命令
type Bound struct {
	Signature Signature
	Target    Target

	// Inputs 网关 SCPD 中的输入参数名
	Inputs []string

	// Outputs 网关 SCPD 中的输出参数名
	Outputs []string

	inputKinds  []Kind
	returnNames []string
	returnKinds []Kind
	invoker     Invoker
}

func newBound(sig Signature, inputs, outputs []string, target Target, invoker Invoker) *Bound {
	b := &Bound{
		Signature: sig,
		Target:    target,
		Inputs:    inputs,
		Outputs:   outputs,
		invoker:   invoker,
	}

	b.inputKinds = make([]Kind, len(inputs))
	for i := range inputs {
		if i < len(sig.Params) {
			b.inputKinds[i] = sig.Params[i].Kind
		}
	}

	// 输出名与返回类型按位置配对，多出的一方被截断
	n := min(len(outputs), len(sig.Returns))
	b.returnNames = outputs[:n]
	b.returnKinds = sig.Returns[:n]
	return b
}

// Name 命令名
func (b *Bound) Name() string { return b.Signature.Name }

// Returns 实际返回的字段名及类型
func (b *Bound) Returns() ([]string, []Kind) {
	return b.returnNames, b.returnKinds
}

// Call 调用命令
//
// args 以网关的输入参数名为键，必须完整给出且不能多给。
// 返回值按签名类型转换后按位置排列。
func (b *Bound) Call(ctx context.Context, args map[string]any) (Result, error) {
	values, err := b.formatArgs(args)
	if err != nil {
		return nil, err
	}

	out, err := b.invoker.Invoke(ctx, soap.Request{
		Method:      b.Signature.Name,
		ParamNames:  b.Inputs,
		Values:      values,
		ServiceType: b.Target.ServiceType,
		Host:        b.Target.Host,
		Port:        b.Target.Port,
		ControlPath: b.Target.ControlPath,
	})
	if err != nil {
		return nil, err
	}
	return b.decode(out)
}

// Args 把按位置给出的值映射到网关的输入参数名
func (b *Bound) Args(values ...any) (map[string]any, error) {
	if len(values) > len(b.Inputs) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrUnknownArgument, b.Name(), len(b.Inputs), len(values))
	}
	if len(values) < len(b.Inputs) {
		return nil, fmt.Errorf("%w: %s.%s", ErrMissingArgument, b.Name(), b.Inputs[len(values)])
	}
	args := make(map[string]any, len(values))
	for i, name := range b.Inputs {
		args[name] = values[i]
	}
	return args, nil
}

func (b *Bound) formatArgs(args map[string]any) (map[string]string, error) {
	values := make(map[string]string, len(b.Inputs))
	for i, name := range b.Inputs {
		v, ok := args[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrMissingArgument, b.Name(), name)
		}
		s, err := Format(b.inputKinds[i], v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", b.Name(), name, err)
		}
		values[name] = s
	}

	if len(args) > len(b.Inputs) {
		var unknown []string
		for name := range args {
			if _, ok := values[name]; !ok {
				unknown = append(unknown, name)
			}
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s %v", ErrUnknownArgument, b.Name(), unknown)
	}
	return values, nil
}

func (b *Bound) decode(out map[string]string) (Result, error) {
	result := make(Result, 0, len(b.returnNames))
	for i, name := range b.returnNames {
		kind := b.returnKinds[i]
		raw, ok := out[name]
		if !ok {
			result = append(result, Field{Name: name, Kind: kind})
			continue
		}
		v, err := Coerce(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", b.Name(), name, err)
		}
		result = append(result, Field{Name: name, Kind: kind, Value: v})
	}
	return result, nil
}

// Field 一个返回字段
type Field struct {
	Name  string
	Kind  Kind
	Value any
}

// Result 按输出顺序排列的返回字段
type Result []Field

// Get 按名称取值；字段不存在或值缺失时 ok 为 false
func (r Result) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, f.Value != nil
		}
	}
	return nil, false
}

// String 按名称取字符串值，非字符串值按 fmt 格式化，缺失时为空串
func (r Result) String(name string) string {
	v, ok := r.Get(name)
	if !ok {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return s
	}
	return fmt.Sprint(v)
}

// Map 转为名称到值的映射
func (r Result) Map() map[string]any {
	m := make(map[string]any, len(r))
	for _, f := range r {
		m[f.Name] = f.Value
	}
	return m
}
