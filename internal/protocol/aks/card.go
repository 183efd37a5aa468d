package aks

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownResponse 读卡应答格式无法识别
var ErrUnknownResponse = errors.New("unknown card response")

// EventKind 读卡应答类型
type EventKind int

const (
	EventNoCard      EventKind = iota // a：无卡
	EventCardPresent                  // b：在线刷卡
	EventOfflineLog                   // d：离线刷卡记录
)

func (k EventKind) String() string {
	switch k {
	case EventNoCard:
		return "no_card"
	case EventCardPresent:
		return "card_present"
	case EventOfflineLog:
		return "offline_log"
	}
	return fmt.Sprintf("event_%d", int(k))
}

// 离线记录字段偏移
// d + 端口(2) + HHmmss(6) + 星期(2) + ddMMyy(6) + 卡号(8) + 人员信息
const (
	offTime   = 3
	offDate   = offTime + 6 + 2
	offCard   = offDate + 6
	offExtra  = offCard + CardIDLen
	logLayout = "150405020106"
)

// CardEvent 解析后的读卡应答
type CardEvent struct {
	Kind   EventKind
	Port   string    // 输入端口标识
	CardID string    // 卡号（b 为设备原样上报，d 为 8 位十六进制）
	At     time.Time // 仅离线记录
	Extra  string    // 离线记录中的设备人员信息
	Raw    string
}

// ParseCardResponse 解析读卡命令应答，时间按本地时区解析
func ParseCardResponse(s string) (CardEvent, error) {
	return ParseCardResponseIn(s, time.Local)
}

// ParseCardResponseIn 解析读卡命令应答
func ParseCardResponseIn(s string, loc *time.Location) (CardEvent, error) {
	if s == "" {
		return CardEvent{}, fmt.Errorf("%w: empty", ErrUnknownResponse)
	}
	ev := CardEvent{Raw: s}
	switch s[0] {
	case 'a':
		ev.Kind = EventNoCard
		return ev, nil
	case 'b':
		if len(s) <= offTime {
			return CardEvent{}, fmt.Errorf("%w: %q", ErrUnknownResponse, s)
		}
		ev.Kind = EventCardPresent
		ev.Port = s[1:offTime]
		ev.CardID = s[offTime:]
		return ev, nil
	case 'd':
		if len(s) < offExtra {
			return CardEvent{}, fmt.Errorf("%w: short offline log %q", ErrUnknownResponse, s)
		}
		at, err := time.ParseInLocation(logLayout, s[offTime:offTime+6]+s[offDate:offCard], loc)
		if err != nil {
			return CardEvent{}, fmt.Errorf("%w: offline log time: %v", ErrUnknownResponse, err)
		}
		ev.Kind = EventOfflineLog
		ev.Port = s[1:offTime]
		ev.At = at
		ev.CardID = s[offCard:offExtra]
		ev.Extra = s[offExtra:]
		return ev, nil
	}
	return CardEvent{}, fmt.Errorf("%w: %q", ErrUnknownResponse, s)
}
