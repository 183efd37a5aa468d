package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
)

const (
	drainWindow = time.Millisecond
	maxDrain    = 64 * 1024
)

var aLongTimeAgo = time.Unix(1, 0)

// TCP 网络型读卡器连接
type TCP struct {
	addr   string
	dialer net.Dialer
	logger *zap.Logger

	mu   sync.Mutex
	conn net.Conn
}

// NewTCP 创建 TCP 传输，port 为 0 时使用 1001
func NewTCP(host string, port int, opts ...Option) *TCP {
	if port == 0 {
		port = aks.DefaultTCPPort
	}
	o := buildOptions(opts)
	return &TCP{
		addr:   net.JoinHostPort(host, strconv.Itoa(port)),
		logger: o.logger,
	}
}

func (t *TCP) Endpoint() string { return "tcp://" + t.addr }

// Connect 建立连接，已连接时直接返回
func (t *TCP) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return nil
	}
	conn, err := t.dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", t.addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	t.conn = conn
	t.logger.Info("tcp connected", zap.String("addr", t.addr))
	return nil
}

// Disconnect 关闭连接，可重复调用
func (t *TCP) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.logger.Info("tcp disconnected", zap.String("addr", t.addr))
	return err
}

func (t *TCP) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

func (t *TCP) current() (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, ErrNotConnected
	}
	return t.conn, nil
}

func (t *TCP) Write(ctx context.Context, data []byte, timeout time.Duration) error {
	if err := ValidateTimeout(timeout); err != nil {
		return err
	}
	conn, err := t.current()
	if err != nil {
		return err
	}
	if n := drain(conn); n > 0 {
		t.logger.Debug("discarded stale input", zap.String("addr", t.addr), zap.Int("bytes", n))
	}
	return t.do(ctx, conn, timeout, "write", func() error {
		_, err := conn.Write(data)
		return err
	})
}

func (t *TCP) ReadFull(ctx context.Context, buf []byte, timeout time.Duration) error {
	if err := ValidateTimeout(timeout); err != nil {
		return err
	}
	conn, err := t.current()
	if err != nil {
		return err
	}
	if len(buf) == 0 {
		return nil
	}
	err = t.do(ctx, conn, timeout, "read", func() error {
		_, err := io.ReadFull(conn, buf)
		return err
	})
	if errors.Is(err, ErrTimeout) {
		drain(conn)
	}
	return err
}

// do 在截止时间内执行一次读写；调用方 ctx 结束时把截止时间拨回过去以打断阻塞
func (t *TCP) do(ctx context.Context, conn net.Conn, timeout time.Duration, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transport: %s: %w", op, err)
	}
	var deadline time.Time
	if timeout != InfiniteTimeout {
		deadline = time.Now().Add(timeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("transport: set deadline: %w", err)
	}

	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(aLongTimeAgo)
		close(fired)
	})
	err := fn()
	if !stop() {
		<-fired
	}

	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("transport: %s: %w", op, ctx.Err())
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return ErrTimeout
	}
	return err
}

// drain 丢弃内核缓冲区中已到达的字节
func drain(conn net.Conn) int {
	buf := make([]byte, 256)
	total := 0
	for total < maxDrain {
		_ = conn.SetReadDeadline(time.Now().Add(drainWindow))
		n, err := conn.Read(buf)
		total += n
		if err != nil || n == 0 {
			break
		}
	}
	_ = conn.SetReadDeadline(time.Time{})
	return total
}
