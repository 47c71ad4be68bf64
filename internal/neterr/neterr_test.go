package neterr

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("context 截止", func(t *testing.T) {
		err := Wrap(context.DeadlineExceeded)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("net 超时", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Skip("无法监听本地端口")
		}
		defer ln.Close()

		conn, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			t.Skip("无法连接本地端口")
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Millisecond))
		_, readErr := conn.Read(make([]byte, 1))

		assert.True(t, IsTimeout(readErr))
		assert.ErrorIs(t, Wrap(readErr), ErrTimeout)
	})

	t.Run("普通错误不变", func(t *testing.T) {
		plain := errors.New("boom")
		assert.Same(t, plain, Wrap(plain))
		assert.False(t, IsTimeout(plain))
		assert.NoError(t, Wrap(nil))
	})

	t.Run("不重复包装", func(t *testing.T) {
		wrapped := Wrap(context.DeadlineExceeded)
		assert.Equal(t, wrapped, Wrap(wrapped))
	})
}
