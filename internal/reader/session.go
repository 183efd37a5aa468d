// Package reader 实现 AKS 读卡器的半双工命令会话
package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
	"github.com/taoyao-code/aks-gateway/internal/transport"
)

// Response 设备应答；OK=false 表示设备未给出有效应答
type Response struct {
	Data string
	OK   bool
}

// Success 应答为 "o"
func (r Response) Success() bool { return r.OK && r.Data == aks.RespOK }

// Result 异步调用结果
type Result[T any] struct {
	Value T
	Err   error
}

// Session 单个传输通道上的命令会话
// 同一时刻只允许一个交互，调用方负责串行化。
type Session struct {
	t        transport.Transport
	codec    aks.Codec
	timeout  atomic.Int64
	loc      *time.Location
	logger   *zap.Logger
	observer Observer
}

// New 基于已有传输创建会话
func New(t transport.Transport, opts ...Option) *Session {
	s := &Session{
		t:      t,
		loc:    time.Local,
		logger: zap.NewNop(),
	}
	s.timeout.Store(int64(transport.DefaultTimeout))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSerial 串口会话
func NewSerial(port string, baud int, opts ...Option) *Session {
	s := New(nil, opts...)
	s.t = transport.NewSerial(port, baud, transport.WithLogger(s.logger))
	return s
}

// NewTCP 网络会话
func NewTCP(host string, port int, opts ...Option) *Session {
	s := New(nil, opts...)
	s.t = transport.NewTCP(host, port, transport.WithLogger(s.logger))
	return s
}

// Endpoint 连接描述
func (s *Session) Endpoint() string { return s.t.Endpoint() }

// Location 设备时钟时区
func (s *Session) Location() *time.Location { return s.loc }

// Timeout 当前读写超时，0 表示不限时
func (s *Session) Timeout() time.Duration {
	return time.Duration(s.timeout.Load())
}

// SetTimeout 修改读写超时，负值返回 transport.ErrInvalidTimeout
func (s *Session) SetTimeout(d time.Duration) error {
	if err := transport.ValidateTimeout(d); err != nil {
		return err
	}
	s.timeout.Store(int64(d))
	return nil
}

func (s *Session) Connect(ctx context.Context) error {
	if err := s.t.Connect(ctx); err != nil {
		s.logger.Warn("reader connect failed", zap.String("endpoint", s.t.Endpoint()), zap.Error(err))
		return err
	}
	return nil
}

// ConnectAsync 异步连接，结果通过 channel 返回
func (s *Session) ConnectAsync(ctx context.Context) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- s.Connect(ctx) }()
	return ch
}

func (s *Session) Disconnect() error { return s.t.Disconnect() }

func (s *Session) IsConnected() bool { return s.t.IsConnected() }

// SendCommand 发送枚举命令
func (s *Session) SendCommand(ctx context.Context, addr byte, cmd aks.Command, param string) (Response, error) {
	return s.SendRawCommand(ctx, addr, byte(cmd), param)
}

// SendCommandAsync 异步发送枚举命令
func (s *Session) SendCommandAsync(ctx context.Context, addr byte, cmd aks.Command, param string) <-chan Result[Response] {
	return s.SendRawCommandAsync(ctx, addr, byte(cmd), param)
}

// SendRawCommandAsync 异步发送原始命令
func (s *Session) SendRawCommandAsync(ctx context.Context, addr, cmd byte, param string) <-chan Result[Response] {
	return async(func() (Response, error) {
		return s.SendRawCommand(ctx, addr, cmd, param)
	})
}

// SendRawCommand 完成一次请求/应答交互
// 设备无有效应答时返回 OK=false 且 err 为 nil。
func (s *Session) SendRawCommand(ctx context.Context, addr, cmd byte, param string) (Response, error) {
	start := time.Now()
	resp, err := s.exchange(ctx, addr, cmd, param)

	c := aks.Command(cmd)
	if s.observer != nil {
		s.observer(Exchange{Reader: addr, Command: c, Duration: time.Since(start), Absent: err == nil && !resp.OK, Err: err})
	}
	if err != nil {
		s.logger.Debug("reader command failed",
			zap.Uint8("reader", addr),
			zap.Stringer("cmd", c),
			zap.String("kind", KindOf(err).String()),
			zap.Error(err))
		return Response{}, &CommandError{Op: "send", Reader: addr, Command: c, Err: err}
	}
	s.logger.Debug("reader command",
		zap.Uint8("reader", addr),
		zap.Stringer("cmd", c),
		zap.Bool("ok", resp.OK),
		zap.String("data", resp.Data),
		zap.Duration("took", time.Since(start)))
	return resp, nil
}

func (s *Session) exchange(ctx context.Context, addr, cmd byte, param string) (Response, error) {
	timeout := s.Timeout()

	payload := make([]byte, 0, 1+len(param))
	payload = append(payload, cmd)
	payload = append(payload, param...)
	if err := s.t.Write(ctx, s.codec.Encode(addr, payload), timeout); err != nil {
		return Response{}, err
	}

	// 设备对该命令不回应答
	if aks.Command(cmd) == aks.CmdDeviceLogHandled {
		return Response{Data: aks.RespOK, OK: true}, nil
	}

	header := make([]byte, aks.HeaderSize)
	if err := s.t.ReadFull(ctx, header, timeout); err != nil {
		return Response{}, readErr(err)
	}
	n := int(header[aks.HeaderSize-1])
	if n < aks.MinResponseLen {
		return Response{}, nil
	}

	frame := make([]byte, aks.HeaderSize+n)
	copy(frame, header)
	if err := s.t.ReadFull(ctx, frame[aks.HeaderSize:], timeout); err != nil {
		return Response{}, readErr(err)
	}

	data, err := s.codec.Decode(frame)
	switch {
	case errors.Is(err, aks.ErrChecksumMismatch):
		return Response{}, err
	case err != nil:
		s.logger.Debug("undecodable response", zap.Uint8("reader", addr), zap.Binary("frame", frame), zap.Error(err))
		return Response{}, nil
	}
	return Response{Data: string(data), OK: true}, nil
}

// readErr 流提前结束统一为 ErrBadResponse
func readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrBadResponse
	}
	return err
}

func async[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		v, err := fn()
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}

// expectOK 应答为 "o" 时返回 true
func (s *Session) expectOK(ctx context.Context, addr byte, cmd aks.Command, param string) (bool, error) {
	resp, err := s.SendCommand(ctx, addr, cmd, param)
	if err != nil {
		return false, err
	}
	return resp.Success(), nil
}

func unexpected(cmd aks.Command, resp Response) error {
	return fmt.Errorf("%w: %s: %q", ErrUnexpectedResponse, cmd, resp.Data)
}
