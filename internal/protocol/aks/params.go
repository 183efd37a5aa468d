package aks

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CardIDLen 卡号长度（十六进制字符）
const CardIDLen = 8

// ErrInvalidCardID 卡号不是 8 位十六进制
var ErrInvalidCardID = errors.New("card id must be 8 hex characters")

const (
	clockTimeLayout = "150405"
	clockDateLayout = "020106"
	clockLayout     = clockTimeLayout + clockDateLayout
	accessLayout    = "15040502012006"
)

// ClockResponseMinLen 时钟应答的最小长度
const ClockResponseMinLen = 12

// ISOWeekday 周一=1 ... 周日=7
func ISOWeekday(t time.Time) int {
	if wd := t.Weekday(); wd != time.Sunday {
		return int(wd)
	}
	return 7
}

// ClockParam 设置时钟参数：HHmmss + "0" + 星期 + ddMMyy
func ClockParam(t time.Time) string {
	return fmt.Sprintf("%s0%d%s", t.Format(clockTimeLayout), ISOWeekday(t), t.Format(clockDateLayout))
}

// ParseClock 解析读时钟应答
// 去掉首字符与偏移 6 处的两位星期后按 HHmmssddMMyy 解析；长度不足或解析失败返回 false。
func ParseClock(s string, loc *time.Location) (time.Time, bool) {
	if len(s) < ClockResponseMinLen {
		return time.Time{}, false
	}
	body := s[1:]
	body = body[:6] + body[8:]
	t, err := time.ParseInLocation(clockLayout, body, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AccessParam 开门/拒绝参数：+|- + HHmmssddMMyyyy + 显示文本
func AccessParam(grant bool, at time.Time, msg string) string {
	sign := "-"
	if grant {
		sign = "+"
	}
	return sign + at.Format(accessLayout) + msg
}

// NormalizeCardID 统一为大写并校验格式
func NormalizeCardID(id string) (string, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if len(id) != CardIDLen {
		return "", fmt.Errorf("%w: %q", ErrInvalidCardID, id)
	}
	for _, r := range id {
		if !strings.ContainsRune("0123456789ABCDEF", r) {
			return "", fmt.Errorf("%w: %q", ErrInvalidCardID, id)
		}
	}
	return id, nil
}

// CardRecordParam 下发卡片参数：卡号(8) + 类型(2) + 有效期 ddMMyy + 持卡人
func CardRecordParam(cardID string, cardType byte, expires time.Time, holder string) (string, error) {
	id, err := NormalizeCardID(cardID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%02d%s%s", id, cardType, expires.Format(clockDateLayout), holder), nil
}
