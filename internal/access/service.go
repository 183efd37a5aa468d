package access

import (
	"context"
	"errors"
	"time"
)

// 判定原因
const (
	ReasonGranted = "granted"
	ReasonUnknown = "unknown_card"
	ReasonBlocked = "disabled"
	ReasonExpired = "expired"
)

// Decision 门禁判定结果
type Decision struct {
	CardID  string
	Granted bool
	Reason  string
	Holder  *Cardholder
}

// Service 根据目录判定是否放行
type Service struct {
	dir Directory
	now func() time.Time
}

func NewService(dir Directory) *Service {
	return &Service{dir: dir, now: time.Now}
}

// Decide 未登记、停用或过期的卡拒绝；目录查询出错时返回错误
func (s *Service) Decide(ctx context.Context, cardID string) (Decision, error) {
	d := Decision{CardID: NormalizeCardID(cardID)}
	h, err := s.dir.Lookup(ctx, d.CardID)
	switch {
	case errors.Is(err, ErrNotFound):
		d.Reason = ReasonUnknown
		return d, nil
	case err != nil:
		return d, err
	}
	d.Holder = h
	switch {
	case h.Disabled:
		d.Reason = ReasonBlocked
	case h.ValidUntil != nil && s.now().After(*h.ValidUntil):
		d.Reason = ReasonExpired
	default:
		d.Granted = true
		d.Reason = ReasonGranted
	}
	return d, nil
}
