package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// InfiniteTimeout 不限时
const InfiniteTimeout time.Duration = 0

// DefaultTimeout 单次读写默认超时
const DefaultTimeout = 500 * time.Millisecond

var (
	// ErrTimeout 内部超时触发（调用方 ctx 仍然有效）
	ErrTimeout = errors.New("transport: operation timed out")
	// ErrNotConnected 未建立连接
	ErrNotConnected = errors.New("transport: not connected")
	// ErrInvalidTimeout 超时配置非法
	ErrInvalidTimeout = errors.New("transport: invalid timeout")
)

// Transport 读卡器字节流通道
// 同一时刻只允许一个读写操作，调用方负责串行化。
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
	// Write 写入前丢弃输入缓冲区中的残留字节
	Write(ctx context.Context, data []byte, timeout time.Duration) error
	// ReadFull 读满 buf；流结束返回 io.EOF / io.ErrUnexpectedEOF
	ReadFull(ctx context.Context, buf []byte, timeout time.Duration) error
	// Endpoint 用于日志的连接描述
	Endpoint() string
}

// ValidateTimeout 负数超时非法
func ValidateTimeout(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, d)
	}
	return nil
}

// Option 传输层选项
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// opContext 为单次操作派生带超时的 ctx
func opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == InfiniteTimeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// classify 区分调用方取消与内部超时
func classify(parent context.Context, op string) error {
	if err := parent.Err(); err != nil {
		return fmt.Errorf("transport: %s: %w", op, err)
	}
	return ErrTimeout
}
