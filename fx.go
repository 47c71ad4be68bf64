package igd

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
//
// 提供 *Gateway，并在 OnStart 中完成发现。
func Module(opts ...Option) fx.Option {
	return fx.Module("igd",
		fx.Provide(func() (*Gateway, error) { return New(opts...) }),
		fx.Invoke(registerLifecycle),
	)
}

// NewApp 构建包含网关模块的 Fx 应用
//
// 与 Module 的区别在于屏蔽了 fx 自身的事件日志。
func NewApp(opts []Option, extra ...fx.Option) *fx.App {
	modules := []fx.Option{
		Module(opts...),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	}
	modules = append(modules, extra...)
	return fx.New(modules...)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC      fx.Lifecycle
	Gateway *Gateway
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Gateway.Discover(ctx)
		},
		OnStop: func(_ context.Context) error {
			log.Debug("网关模块停止", "state", input.Gateway.State().String())
			return nil
		},
	})
}
