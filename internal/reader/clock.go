package reader

import (
	"context"
	"time"

	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
)

// ClockReading 读时钟结果；OK=false 表示应答缺失或无法解析
type ClockReading struct {
	Time time.Time
	OK   bool
}

// SetDeviceClock 设置设备时钟，应答为 "o" 时返回 true
func (s *Session) SetDeviceClock(ctx context.Context, addr byte, t time.Time) (bool, error) {
	return s.expectOK(ctx, addr, aks.CmdSetDeviceDateTime, aks.ClockParam(t.In(s.loc)))
}

// SetDeviceClockAsync 异步设置设备时钟
func (s *Session) SetDeviceClockAsync(ctx context.Context, addr byte, t time.Time) <-chan Result[bool] {
	return async(func() (bool, error) { return s.SetDeviceClock(ctx, addr, t) })
}

// GetDeviceClock 读取设备时钟
func (s *Session) GetDeviceClock(ctx context.Context, addr byte) (time.Time, bool, error) {
	resp, err := s.SendCommand(ctx, addr, aks.CmdGetDeviceDateTime, "")
	if err != nil {
		return time.Time{}, false, err
	}
	if !resp.OK {
		return time.Time{}, false, nil
	}
	t, ok := aks.ParseClock(resp.Data, s.loc)
	return t, ok, nil
}

// GetDeviceClockAsync 异步读取设备时钟
func (s *Session) GetDeviceClockAsync(ctx context.Context, addr byte) <-chan Result[ClockReading] {
	return async(func() (ClockReading, error) {
		t, ok, err := s.GetDeviceClock(ctx, addr)
		return ClockReading{Time: t, OK: ok}, err
	})
}
