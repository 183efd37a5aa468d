package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// DefaultBaudRate 读卡器串口默认波特率
const DefaultBaudRate = 9600

// 单次 Read 的最长阻塞，用于及时响应 ctx
const pollSlice = 20 * time.Millisecond

// serialPort go.bug.st/serial.Port 中用到的子集
type serialPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	ResetInputBuffer() error
	ResetOutputBuffer() error
	SetDTR(dtr bool) error
	SetRTS(rts bool) error
	SetReadTimeout(t time.Duration) error
}

type portOpener func(name string, mode *serial.Mode) (serialPort, error)

func openSerial(name string, mode *serial.Mode) (serialPort, error) {
	return serial.Open(name, mode)
}

// Serial RS232/RS485 读卡器连接（8N1）
type Serial struct {
	name   string
	mode   serial.Mode
	open   portOpener
	logger *zap.Logger

	mu   sync.Mutex
	port serialPort

	// writing 同一时刻只允许一个 writeAll 在端口上执行，超时返回后仍占用至其结束
	writing chan struct{}
}

// NewSerial 创建串口传输，baud<=0 时使用 9600
func NewSerial(name string, baud int, opts ...Option) *Serial {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	o := buildOptions(opts)
	return &Serial{
		name: name,
		mode: serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		open:    openSerial,
		logger:  o.logger,
		writing: make(chan struct{}, 1),
	}
}

func (s *Serial) Endpoint() string { return fmt.Sprintf("serial://%s@%d", s.name, s.mode.BaudRate) }

// Connect 打开串口，拉高 DTR/RTS 并清空输入缓冲区
func (s *Serial) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transport: connect: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		return nil
	}
	mode := s.mode
	p, err := s.open(s.name, &mode)
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", s.name, err)
	}
	if err := prepare(p); err != nil {
		_ = p.Close()
		return fmt.Errorf("transport: prepare %s: %w", s.name, err)
	}
	s.port = p
	s.logger.Info("serial port opened", zap.String("port", s.name), zap.Int("baud", s.mode.BaudRate))
	return nil
}

func prepare(p serialPort) error {
	if err := p.SetDTR(true); err != nil {
		return err
	}
	if err := p.SetRTS(true); err != nil {
		return err
	}
	return p.ResetInputBuffer()
}

// Disconnect 关闭串口，可重复调用
func (s *Serial) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.logger.Info("serial port closed", zap.String("port", s.name))
	return err
}

func (s *Serial) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil
}

func (s *Serial) current() (serialPort, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil, ErrNotConnected
	}
	return s.port, nil
}

func (s *Serial) Write(ctx context.Context, data []byte, timeout time.Duration) error {
	if err := ValidateTimeout(timeout); err != nil {
		return err
	}
	p, err := s.current()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	opCtx, cancel := opContext(ctx, timeout)
	defer cancel()

	// 等待上一次超时遗留的写入结束，避免两帧字节交错
	select {
	case s.writing <- struct{}{}:
	case <-opCtx.Done():
		return classify(ctx, "write")
	}
	if err := p.ResetInputBuffer(); err != nil {
		s.logger.Debug("reset input buffer failed", zap.String("port", s.name), zap.Error(err))
	}

	done := make(chan error, 1)
	go func() {
		err := writeAll(p, data)
		<-s.writing
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("transport: write %s: %w", s.name, err)
		}
		return nil
	case <-opCtx.Done():
		_ = p.ResetOutputBuffer()
		return classify(ctx, "write")
	}
}

func writeAll(p serialPort, data []byte) error {
	for len(data) > 0 {
		n, err := p.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}
	return nil
}

func (s *Serial) ReadFull(ctx context.Context, buf []byte, timeout time.Duration) error {
	if err := ValidateTimeout(timeout); err != nil {
		return err
	}
	p, err := s.current()
	if err != nil {
		return err
	}

	opCtx, cancel := opContext(ctx, timeout)
	defer cancel()

	read := 0
	for read < len(buf) {
		if opCtx.Err() != nil {
			if ctx.Err() == nil {
				_ = p.ResetInputBuffer()
			}
			return classify(ctx, "read")
		}
		wait := pollSlice
		if dl, ok := opCtx.Deadline(); ok {
			if left := time.Until(dl); left < wait {
				wait = max(left, time.Millisecond)
			}
		}
		if err := p.SetReadTimeout(wait); err != nil {
			return fmt.Errorf("transport: set read timeout: %w", err)
		}
		// 超时返回 (0, nil)
		n, err := p.Read(buf[read:])
		read += n
		if err != nil {
			return readError(err, read)
		}
	}
	return nil
}

// readError 串口被关闭视为流结束
func readError(err error, read int) error {
	var pe *serial.PortError
	closed := errors.Is(err, io.EOF) || (errors.As(err, &pe) && pe.Code() == serial.PortClosed)
	if !closed {
		return fmt.Errorf("transport: read: %w", err)
	}
	if read == 0 {
		return io.EOF
	}
	return io.ErrUnexpectedEOF
}
