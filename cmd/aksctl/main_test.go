package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
	"github.com/taoyao-code/aks-gateway/internal/transport"
	"github.com/taoyao-code/aks-gateway/internal/transport/transporttest"
)

// execute 以脚本化的假读卡器运行命令
func execute(t *testing.T, replies map[aks.Command]string, args ...string) (string, *transporttest.Fake, error) {
	t.Helper()
	fake := &transporttest.Fake{Respond: transporttest.Script(aks.DefaultReaderAddress, replies)}
	opts := &connOptions{newTransport: func(*connOptions, *zap.Logger) (transport.Transport, error) {
		return fake, nil
	}}
	cmd := newRootCmd(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--tz", "UTC", "--timeout", "50ms"))
	err := cmd.Execute()
	return out.String(), fake, err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name    string
		replies map[aks.Command]string
		args    []string
		want    string
	}{
		{"status", map[aks.Command]string{aks.CmdCheckDeviceStatus: "o"}, []string{"status"}, "reader 150 at fake://reader: ok\n"},
		{"无卡", map[aks.Command]string{aks.CmdReadCard: "a"}, []string{"read-card"}, "no card\n"},
		{"在线刷卡", map[aks.Command]string{aks.CmdReadCard: "b01005DA58C"}, []string{"read-card"}, "card 005DA58C port 01\n"},
		{"读时钟", map[aks.Command]string{aks.CmdGetDeviceDateTime: "c09320505150825"}, []string{"clock", "get"}, "2025-08-15T09:32:05Z\n"},
		{"设置时钟", map[aks.Command]string{aks.CmdSetDeviceDateTime: "o"}, []string{"clock", "set", "2025-08-15T09:32:05Z"}, "clock set to 2025-08-15T09:32:05Z\n"},
		{"原始命令", map[aks.Command]string{aks.CmdLogCount: "7"}, []string{"raw", "log_count"}, "log_count: 7\n"},
		{"按命令码", map[aks.Command]string{aks.CmdCardCount: "12"}, []string{"raw", "248"}, "card_count: 12\n"},
		{"卡片数量", map[aks.Command]string{aks.CmdCardCount: "12"}, []string{"count", "cards"}, "12\n"},
		{"记录数量", map[aks.Command]string{aks.CmdLogCount: "l3"}, []string{"count", "logs"}, "3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, fake, err := execute(t, tt.replies, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, 1, fake.Connects)
			assert.False(t, fake.IsConnected())
		})
	}
}

func TestCommands_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"设备无应答", []string{"status"}, "device responded incorrectly"},
		{"未知命令", []string{"raw", "open_sesame"}, "unknown command"},
		{"计数类型非法", []string{"count", "doors"}, "invalid argument"},
		{"时间格式非法", []string{"clock", "set", "yesterday"}, "invalid time"},
		{"地址越界", []string{"status", "--addr", "300"}, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, nil, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultTransport(t *testing.T) {
	log := zap.NewNop()

	t.Run("缺少连接参数", func(t *testing.T) {
		_, err := defaultTransport(&connOptions{}, log)
		assert.ErrorContains(t, err, "required")
	})

	t.Run("参数互斥", func(t *testing.T) {
		_, err := defaultTransport(&connOptions{tcp: "10.0.0.5:1001", serial: "/dev/ttyUSB0"}, log)
		assert.ErrorContains(t, err, "mutually exclusive")
	})

	t.Run("TCP", func(t *testing.T) {
		tr, err := defaultTransport(&connOptions{tcp: "10.0.0.5:1001"}, log)
		require.NoError(t, err)
		assert.Contains(t, tr.Endpoint(), "10.0.0.5:1001")
	})

	t.Run("端口非法", func(t *testing.T) {
		_, err := defaultTransport(&connOptions{tcp: "10.0.0.5:http"}, log)
		assert.Error(t, err)
	})

	t.Run("串口", func(t *testing.T) {
		tr, err := defaultTransport(&connOptions{serial: "/dev/ttyUSB0", baud: 9600}, log)
		require.NoError(t, err)
		assert.Contains(t, tr.Endpoint(), "/dev/ttyUSB0")
	})
}
