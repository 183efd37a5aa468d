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

func scripted(replies map[aks.Command]string) (*Session, *transporttest.Fake) {
	f := transporttest.New(transporttest.Script(addr, replies))
	return New(f, WithLocation(time.UTC)), f
}

func lastCommand(t *testing.T, f *transporttest.Fake) (aks.Command, string) {
	t.Helper()
	w := f.Written()
	require.NotEmpty(t, w)
	return transporttest.Command(w[len(w)-1])
}

func TestReadCard(t *testing.T) {
	t.Run("无卡", func(t *testing.T) {
		s, _ := scripted(map[aks.Command]string{aks.CmdReadCard: "a00"})
		ev, ok, err := s.ReadCard(context.Background(), addr)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, aks.EventNoCard, ev.Kind)
	})

	t.Run("刷卡", func(t *testing.T) {
		s, _ := scripted(map[aks.Command]string{aks.CmdReadCard: "b00ECAB2979"})
		ev, ok, err := s.ReadCard(context.Background(), addr)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, aks.EventCardPresent, ev.Kind)
		assert.Equal(t, "ECAB2979", ev.CardID)
	})

	t.Run("离线记录", func(t *testing.T) {
		s, _ := scripted(map[aks.Command]string{aks.CmdReadCard: "d0009320505150825005DA58C0101000001"})
		ev, ok, err := s.ReadCard(context.Background(), addr)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, aks.EventOfflineLog, ev.Kind)
		assert.Equal(t, time.Date(2025, 8, 15, 9, 32, 5, 0, time.UTC), ev.At)
	})

	t.Run("未知应答", func(t *testing.T) {
		s, _ := scripted(map[aks.Command]string{aks.CmdReadCard: "zzz"})
		_, ok, err := s.ReadCard(context.Background(), addr)
		assert.ErrorIs(t, err, aks.ErrUnknownResponse)
		assert.False(t, ok)
	})

	t.Run("设备无应答", func(t *testing.T) {
		f := transporttest.New(func([]byte) []byte { return []byte{2, 150, 255, 0} })
		_, ok, err := New(f).ReadCard(context.Background(), addr)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestAccessOperations(t *testing.T) {
	at := time.Date(2025, 8, 19, 12, 30, 0, 0, time.UTC)
	s, f := scripted(map[aks.Command]string{aks.CmdAccessOperation: "o"})

	ok, err := s.GrantAccess(context.Background(), addr, at, "Pass")
	require.NoError(t, err)
	assert.True(t, ok)
	cmd, param := lastCommand(t, f)
	assert.Equal(t, aks.CmdAccessOperation, cmd)
	assert.Equal(t, "+12300019082025Pass", param)

	ok, err = s.DenyAccess(context.Background(), addr, at, "UNKNOWN CARD")
	require.NoError(t, err)
	assert.True(t, ok)
	_, param = lastCommand(t, f)
	assert.Equal(t, "-12300019082025UNKNOWN CARD", param)
}

func TestAckLog(t *testing.T) {
	s, f := scripted(nil)
	require.NoError(t, s.AckLog(context.Background(), addr))
	cmd, _ := lastCommand(t, f)
	assert.Equal(t, aks.CmdDeviceLogHandled, cmd)
	assert.Zero(t, f.Reads)
}

func TestConfigurationCommands(t *testing.T) {
	s, f := scripted(map[aks.Command]string{
		aks.CmdSetDeviceWorkType:    "o",
		aks.CmdWriteDeviceProtocol:  "o",
		aks.CmdSetDeviceOrientation: "h",
		aks.CmdCheckDeviceStatus:    "o",
	})
	ctx := context.Background()

	ok, err := s.SetWorkType(ctx, addr, aks.WorkOnline)
	require.NoError(t, err)
	assert.True(t, ok)
	cmd, param := lastCommand(t, f)
	assert.Equal(t, aks.CmdSetDeviceWorkType, cmd)
	assert.Equal(t, "1", param)

	ok, err = s.SetDeviceProtocol(ctx, addr, aks.ProtocolClient)
	require.NoError(t, err)
	assert.True(t, ok)
	_, param = lastCommand(t, f)
	assert.Equal(t, "0", param)

	ok, err = s.SetOrientation(ctx, addr, aks.OrientationInOut)
	require.NoError(t, err)
	assert.False(t, ok)
	_, param = lastCommand(t, f)
	assert.Equal(t, "3", param)

	ok, err = s.CheckStatus(ctx, addr)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCardManagement(t *testing.T) {
	s, f := scripted(map[aks.Command]string{
		aks.CmdSendCard:           "o",
		aks.CmdDeleteCard:         "o",
		aks.CmdClearAllCards:      "o",
		aks.CmdClearAllAccessLogs: "o",
	})
	ctx := context.Background()

	ok, err := s.AddCard(ctx, addr, "ecab2979", 1, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), "CAN CAKAR")
	require.NoError(t, err)
	assert.True(t, ok)
	_, param := lastCommand(t, f)
	assert.Equal(t, "ECAB297901311225CAN CAKAR", param)

	_, err = s.AddCard(ctx, addr, "bad", 1, time.Now(), "X")
	assert.ErrorIs(t, err, aks.ErrInvalidCardID)
	assert.Len(t, f.Written(), 1, "卡号非法时不下发")

	ok, err = s.DeleteCard(ctx, addr, "005da58c")
	require.NoError(t, err)
	assert.True(t, ok)
	_, param = lastCommand(t, f)
	assert.Equal(t, "005DA58C", param)

	ok, err = s.ClearCards(ctx, addr)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ClearAccessLogs(ctx, addr)
	require.NoError(t, err)
	assert.True(t, ok)
	cmd, param := lastCommand(t, f)
	assert.Equal(t, aks.CmdClearAllAccessLogs, cmd)
	assert.Equal(t, "DEL", param)
}

func TestCounts(t *testing.T) {
	s, _ := scripted(map[aks.Command]string{
		aks.CmdCardCount: "c00042",
		aks.CmdLogCount:  "17",
	})
	n, err := s.CardCount(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = s.LogCount(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, 17, n)

	s, _ = scripted(map[aks.Command]string{aks.CmdCardCount: "h"})
	_, err = s.CardCount(context.Background(), addr)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Equal(t, KindMalformed, KindOf(err))
}
