// Package transporttest 提供内存中的 Transport 实现，供上层测试使用
package transporttest

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
	"github.com/taoyao-code/aks-gateway/internal/transport"
)

// Responder 根据写入的帧生成设备应答；返回 nil 表示设备不应答
type Responder func(frame []byte) []byte

// Fake 模拟读卡器连接
// 行为与真实传输一致：写入前丢弃残留输入；输入不足时返回 EOF。
type Fake struct {
	mu        sync.Mutex
	connected bool
	inbound   []byte
	written   [][]byte
	readErrs  []error
	writeErrs []error

	// Respond 为 nil 时不产生应答
	Respond Responder
	// ConnectErr 非 nil 时 Connect 失败
	ConnectErr error

	Connects    int
	Disconnects int
	Reads       int
	Timeouts    []time.Duration
}

// New 创建已连接的 Fake
func New(r Responder) *Fake {
	return &Fake{connected: true, Respond: r}
}

func (f *Fake) Endpoint() string { return "fake://reader" }

func (f *Fake) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connects++
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	f.connected = true
	return nil
}

func (f *Fake) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connected {
		f.Disconnects++
	}
	f.connected = false
	return nil
}

func (f *Fake) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *Fake) Write(ctx context.Context, data []byte, timeout time.Duration) error {
	if err := transport.ValidateTimeout(timeout); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return transport.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Timeouts = append(f.Timeouts, timeout)
	if len(f.writeErrs) > 0 {
		err := f.writeErrs[0]
		f.writeErrs = f.writeErrs[1:]
		if err != nil {
			return err
		}
	}
	f.inbound = nil
	frame := append([]byte(nil), data...)
	f.written = append(f.written, frame)
	if f.Respond != nil {
		f.inbound = append(f.inbound, f.Respond(frame)...)
	}
	return nil
}

func (f *Fake) ReadFull(ctx context.Context, buf []byte, timeout time.Duration) error {
	if err := transport.ValidateTimeout(timeout); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return transport.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Reads++
	if len(f.readErrs) > 0 {
		err := f.readErrs[0]
		f.readErrs = f.readErrs[1:]
		if err != nil {
			return err
		}
	}
	if len(f.inbound) == 0 {
		return io.EOF
	}
	if len(f.inbound) < len(buf) {
		copy(buf, f.inbound)
		f.inbound = nil
		return io.ErrUnexpectedEOF
	}
	copy(buf, f.inbound)
	f.inbound = f.inbound[len(buf):]
	return nil
}

// Push 注入迟到的字节
func (f *Fake) Push(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbound = append(f.inbound, b...)
}

// FailNextReads 依次为后续 ReadFull 返回 errs（nil 表示正常读取）
func (f *Fake) FailNextReads(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErrs = append(f.readErrs, errs...)
}

// FailNextWrites 依次为后续 Write 返回 errs
func (f *Fake) FailNextWrites(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErrs = append(f.writeErrs, errs...)
}

// Written 返回已写入帧的副本
func (f *Fake) Written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.written))
	copy(out, f.written)
	return out
}

// Frame 构造上行应答帧（读卡器 -> 主机）
func Frame(readerAddr byte, payload string) []byte {
	frame := aks.Encode(aks.MasterAddress, []byte(payload))
	frame[1], frame[2] = readerAddr, aks.MasterAddress
	return frame
}

// Command 从下行帧中取出命令码与参数
func Command(frame []byte) (aks.Command, string) {
	p, err := aks.Decode(frame)
	if err != nil || len(p) == 0 {
		return 0, ""
	}
	return aks.Command(p[0]), string(p[1:])
}

// Script 按命令返回固定应答
func Script(readerAddr byte, replies map[aks.Command]string) Responder {
	return func(frame []byte) []byte {
		cmd, _ := Command(frame)
		reply, ok := replies[cmd]
		if !ok {
			return nil
		}
		return Frame(readerAddr, reply)
	}
}
