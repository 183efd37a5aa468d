package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/storage"
	"github.com/taoyao-code/aks-gateway/internal/storage/models"
)

var errInvalidOffset = errors.New("offset must be a non-negative integer")

// AttendanceView 考勤记录
type AttendanceView struct {
	EventID    string    `json:"event_id"`
	Reader     string    `json:"reader"`
	CardID     string    `json:"card_id"`
	Port       string    `json:"port,omitempty"`
	Granted    bool      `json:"granted"`
	Reason     string    `json:"reason"`
	Source     string    `json:"source"`
	Extra      string    `json:"extra,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func attendanceView(a models.Attendance) AttendanceView {
	v := AttendanceView{
		EventID:    a.EventID.String(),
		Reader:     a.Reader,
		CardID:     a.CardID,
		Port:       a.Port,
		Granted:    a.Granted,
		Reason:     a.Reason,
		Source:     a.Source,
		OccurredAt: a.OccurredAt,
	}
	if a.Extra != nil {
		v.Extra = *a.Extra
	}
	return v
}

// ListAttendance 查询考勤记录
// @Summary 查询考勤记录
// @Description 按发生时间倒序分页返回，时间参数为 RFC3339
// @Tags 考勤
// @Produce json
// @Security ApiKeyAuth
// @Param reader query string false "读卡器名称"
// @Param card_id query string false "卡号"
// @Param since query string false "起始时间（含）"
// @Param until query string false "截止时间（不含）"
// @Param limit query int false "每页数量(默认100，最大1000)"
// @Param offset query int false "偏移量(默认0)"
// @Success 200 {object} StandardResponse{data=[]AttendanceView}
// @Failure 400 {object} StandardResponse
// @Router /api/attendance [get]
func (h *Handler) ListAttendance(c *gin.Context) {
	if h.attendance == nil {
		h.fail(c, http.StatusServiceUnavailable, "attendance store is not configured")
		return
	}
	f, err := parseFilter(c)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.attendance.ListAttendance(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list attendance failed", zap.Error(err))
		h.fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]AttendanceView, 0, len(list))
	for _, a := range list {
		out = append(out, attendanceView(a))
	}
	h.ok(c, out)
}

func parseFilter(c *gin.Context) (storage.AttendanceFilter, error) {
	f := storage.AttendanceFilter{
		Reader: c.Query("reader"),
		CardID: c.Query("card_id"),
	}
	var err error
	if v := c.Query("since"); v != "" {
		if f.Since, err = time.Parse(time.RFC3339, v); err != nil {
			return f, err
		}
	}
	if v := c.Query("until"); v != "" {
		if f.Until, err = time.Parse(time.RFC3339, v); err != nil {
			return f, err
		}
	}
	if v := c.Query("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return f, err
		}
	}
	if v := c.Query("offset"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil || f.Offset < 0 {
			return f, errInvalidOffset
		}
	}
	f.Limit = f.EffectiveLimit()
	return f, nil
}
