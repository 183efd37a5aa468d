package reader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
	"github.com/taoyao-code/aks-gateway/internal/transport/transporttest"
)

func TestSetDeviceClock(t *testing.T) {
	at := time.Date(2025, 8, 15, 9, 32, 5, 0, time.UTC)

	tests := []struct {
		name  string
		reply string
		want  bool
	}{
		{"设备确认", "o", true},
		{"设备拒绝", "h", false},
		{"其他应答", "oo", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := transporttest.New(transporttest.Script(addr, map[aks.Command]string{
				aks.CmdSetDeviceDateTime: tt.reply,
			}))
			s := New(f, WithLocation(time.UTC))

			ok, err := s.SetDeviceClock(context.Background(), addr, at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			cmd, param := transporttest.Command(f.Written()[0])
			assert.Equal(t, aks.CmdSetDeviceDateTime, cmd)
			assert.Equal(t, "093205"+"05"+"150825", param)
		})
	}
}

func TestSetDeviceClock_ConvertsToDeviceZone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	f := transporttest.New(transporttest.Script(addr, map[aks.Command]string{aks.CmdSetDeviceDateTime: "o"}))
	s := New(f, WithLocation(loc))

	res := <-s.SetDeviceClockAsync(context.Background(), addr, time.Date(2025, 8, 15, 22, 0, 0, 0, time.UTC))
	require.NoError(t, res.Err)
	assert.True(t, res.Value)

	_, param := transporttest.Command(f.Written()[0])
	assert.Equal(t, "010000"+"06"+"160825", param)
}

func TestGetDeviceClock(t *testing.T) {
	t.Run("正常", func(t *testing.T) {
		f := transporttest.New(transporttest.Script(addr, map[aks.Command]string{
			aks.CmdGetDeviceDateTime: "c09320505150825",
		}))
		s := New(f, WithLocation(time.UTC))

		got, ok, err := s.GetDeviceClock(context.Background(), addr)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 8, 15, 9, 32, 5, 0, time.UTC), got)
	})

	t.Run("应答过短", func(t *testing.T) {
		f := transporttest.New(transporttest.Script(addr, map[aks.Command]string{
			aks.CmdGetDeviceDateTime: "o",
		}))
		_, ok, err := New(f).GetDeviceClock(context.Background(), addr)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("无有效应答", func(t *testing.T) {
		f := transporttest.New(func([]byte) []byte { return []byte{2, 150, 255, 3, 0, 0, 0} })
		_, ok, err := New(f).GetDeviceClock(context.Background(), addr)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("异步", func(t *testing.T) {
		f := transporttest.New(transporttest.Script(addr, map[aks.Command]string{
			aks.CmdGetDeviceDateTime: "c23595907170825",
		}))
		res := <-New(f, WithLocation(time.UTC)).GetDeviceClockAsync(context.Background(), addr)
		require.NoError(t, res.Err)
		require.True(t, res.Value.OK)
		assert.Equal(t, time.Date(2025, 8, 17, 23, 59, 59, 0, time.UTC), res.Value.Time)
	})

	t.Run("读失败", func(t *testing.T) {
		_, ok, err := New(transporttest.New(nil)).GetDeviceClock(context.Background(), addr)
		assert.ErrorIs(t, err, ErrBadResponse)
		assert.False(t, ok)
	})
}
