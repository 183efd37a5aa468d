package reader

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
)

// CheckStatus 设备状态查询
func (s *Session) CheckStatus(ctx context.Context, addr byte) (bool, error) {
	return s.expectOK(ctx, addr, aks.CmdCheckDeviceStatus, "")
}

// ReadCard 读卡；设备无应答时 ok=false
func (s *Session) ReadCard(ctx context.Context, addr byte) (ev aks.CardEvent, ok bool, err error) {
	resp, err := s.SendCommand(ctx, addr, aks.CmdReadCard, "")
	if err != nil || !resp.OK {
		return aks.CardEvent{}, false, err
	}
	ev, err = aks.ParseCardResponseIn(resp.Data, s.loc)
	if err != nil {
		return aks.CardEvent{}, false, err
	}
	return ev, true, nil
}

// GrantAccess 开门并在设备屏幕上显示 msg
func (s *Session) GrantAccess(ctx context.Context, addr byte, at time.Time, msg string) (bool, error) {
	return s.expectOK(ctx, addr, aks.CmdAccessOperation, aks.AccessParam(true, at.In(s.loc), msg))
}

// DenyAccess 拒绝通行并显示 msg
func (s *Session) DenyAccess(ctx context.Context, addr byte, at time.Time, msg string) (bool, error) {
	return s.expectOK(ctx, addr, aks.CmdAccessOperation, aks.AccessParam(false, at.In(s.loc), msg))
}

// AckLog 确认离线记录已处理，设备随后删除该记录
func (s *Session) AckLog(ctx context.Context, addr byte) error {
	_, err := s.SendCommand(ctx, addr, aks.CmdDeviceLogHandled, "")
	return err
}

func (s *Session) SetWorkType(ctx context.Context, addr byte, w aks.WorkType) (bool, error) {
	return s.expectOK(ctx, addr, aks.CmdSetDeviceWorkType, w.Param())
}

func (s *Session) SetDeviceProtocol(ctx context.Context, addr byte, p aks.DeviceProtocol) (bool, error) {
	return s.expectOK(ctx, addr, aks.CmdWriteDeviceProtocol, p.Param())
}

func (s *Session) SetOrientation(ctx context.Context, addr byte, o aks.Orientation) (bool, error) {
	return s.expectOK(ctx, addr, aks.CmdSetDeviceOrientation, o.Param())
}

// AddCard 向设备白名单写入卡片（离线模式使用）
func (s *Session) AddCard(ctx context.Context, addr byte, cardID string, cardType byte, expires time.Time, holder string) (bool, error) {
	param, err := aks.CardRecordParam(cardID, cardType, expires, holder)
	if err != nil {
		return false, err
	}
	return s.expectOK(ctx, addr, aks.CmdSendCard, param)
}

func (s *Session) DeleteCard(ctx context.Context, addr byte, cardID string) (bool, error) {
	id, err := aks.NormalizeCardID(cardID)
	if err != nil {
		return false, err
	}
	return s.expectOK(ctx, addr, aks.CmdDeleteCard, id)
}

func (s *Session) ClearCards(ctx context.Context, addr byte) (bool, error) {
	return s.expectOK(ctx, addr, aks.CmdClearAllCards, "")
}

// ClearAccessLogs 清空设备中的全部刷卡记录
func (s *Session) ClearAccessLogs(ctx context.Context, addr byte) (bool, error) {
	return s.expectOK(ctx, addr, aks.CmdClearAllAccessLogs, aks.ClearAccessLogsParam)
}

// CardCount 设备白名单中的卡片数量
func (s *Session) CardCount(ctx context.Context, addr byte) (int, error) {
	return s.count(ctx, addr, aks.CmdCardCount)
}

// LogCount 设备中未上传的刷卡记录数量
func (s *Session) LogCount(ctx context.Context, addr byte) (int, error) {
	return s.count(ctx, addr, aks.CmdLogCount)
}

// count 应答为可选的单字符前缀加十进制数字
func (s *Session) count(ctx context.Context, addr byte, cmd aks.Command) (int, error) {
	resp, err := s.SendCommand(ctx, addr, cmd, "")
	if err != nil {
		return 0, err
	}
	if !resp.OK {
		return 0, unexpected(cmd, resp)
	}
	digits := strings.TrimLeftFunc(resp.Data, func(r rune) bool { return r < '0' || r > '9' })
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, unexpected(cmd, resp)
	}
	return n, nil
}
