package reader

import (
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
	"github.com/taoyao-code/aks-gateway/internal/transport"
)

// Exchange 单次命令交互的观测数据
type Exchange struct {
	Reader   byte
	Command  aks.Command
	Duration time.Duration
	Absent   bool
	Err      error
}

// Observer 每次交互结束后回调，用于指标统计
type Observer func(Exchange)

// Option Session 选项
type Option func(*Session)

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout 设置读写超时；负值被忽略，需要报错时使用 SetTimeout
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if transport.ValidateTimeout(d) == nil {
			s.timeout.Store(int64(d))
		}
	}
}

// WithVerifyChecksum 解码应答时校验 BCC
func WithVerifyChecksum(v bool) Option {
	return func(s *Session) {
		s.codec.VerifyChecksum = v
	}
}

// WithLocation 设备时钟所在时区
func WithLocation(loc *time.Location) Option {
	return func(s *Session) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithObserver 注册交互观测回调
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observer = o
	}
}
