// Package neterr 统一网络超时错误
package neterr

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrTimeout 网络操作超过时限
var ErrTimeout = errors.New("igd: operation timed out")

// IsTimeout 判断 err 是否为超时（ctx 截止、net.Error 超时或已包装的 ErrTimeout）
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Wrap 为超时错误附加 ErrTimeout，其他错误原样返回
func Wrap(err error) error {
	if err == nil || errors.Is(err, ErrTimeout) || !IsTimeout(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTimeout, err)
}
