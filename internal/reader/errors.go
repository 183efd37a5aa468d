package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
	"github.com/taoyao-code/aks-gateway/internal/transport"
)

var (
	// ErrBadResponse 读应答时连接提前结束
	ErrBadResponse = errors.New("device responded incorrectly")
	// ErrUnexpectedResponse 应答内容与命令不匹配
	ErrUnexpectedResponse = errors.New("unexpected device response")
)

// Kind 错误分类
type Kind int

const (
	KindNone Kind = iota
	KindMalformed
	KindTimeout
	KindCanceled
	KindBadResponse
	KindNotConnected
	KindConfig
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMalformed:
		return "malformed"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindBadResponse:
		return "bad_response"
	case KindNotConnected:
		return "not_connected"
	case KindConfig:
		return "config"
	}
	return "io"
}

// KindOf 对错误归类，供调用方决定是否重连、重试或忽略
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, transport.ErrTimeout):
		return KindTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrBadResponse):
		return KindBadResponse
	case errors.Is(err, aks.ErrMalformedFrame), errors.Is(err, ErrUnexpectedResponse):
		return KindMalformed
	case errors.Is(err, transport.ErrNotConnected):
		return KindNotConnected
	case errors.Is(err, transport.ErrInvalidTimeout):
		return KindConfig
	}
	return KindIO
}

// CommandError 命令执行失败的上下文
type CommandError struct {
	Op      string
	Reader  byte
	Command aks.Command
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("reader %d: %s %s: %v", e.Reader, e.Op, e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
