// Package api 网关 HTTP 接口
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/api/middleware"
	"github.com/taoyao-code/aks-gateway/internal/gateway"
	"github.com/taoyao-code/aks-gateway/internal/reader"
	"github.com/taoyao-code/aks-gateway/internal/storage"
)

// DefaultCommandTimeout 单次 API 设备操作的最长等待时间
const DefaultCommandTimeout = 5 * time.Second

// ReaderService 读卡器查询与串行化执行
type ReaderService interface {
	Readers() []gateway.ReaderInfo
	Reader(name string) (gateway.ReaderInfo, bool)
	Do(ctx context.Context, name string, fn gateway.Job) error
}

// StandardResponse 统一响应格式
type StandardResponse struct {
	Code      int         `json:"code"`           // 0=成功, >0=错误码
	Message   string      `json:"message"`        // 消息
	Data      interface{} `json:"data,omitempty"` // 业务数据
	RequestID string      `json:"request_id"`     // 请求追踪ID
	Timestamp int64       `json:"timestamp"`      // 时间戳
}

// Handler 网关 API 处理器
type Handler struct {
	readers    ReaderService
	attendance storage.AttendanceStore
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewHandler 创建处理器，attendance 为 nil 时考勤查询返回 503
func NewHandler(readers ReaderService, attendance storage.AttendanceStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		readers:    readers,
		attendance: attendance,
		timeout:    DefaultCommandTimeout,
		logger:     logger,
		now:        time.Now,
	}
}

// SetCommandTimeout 覆盖设备操作超时，非正值忽略
func (h *Handler) SetCommandTimeout(d time.Duration) {
	if d > 0 {
		h.timeout = d
	}
}

func (h *Handler) ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, StandardResponse{
		Code:      0,
		Message:   "success",
		Data:      data,
		RequestID: c.GetString(middleware.KeyRequestID),
		Timestamp: h.now().Unix(),
	})
}

func (h *Handler) fail(c *gin.Context, status int, msg string) {
	c.JSON(status, StandardResponse{
		Code:      status,
		Message:   msg,
		RequestID: c.GetString(middleware.KeyRequestID),
		Timestamp: h.now().Unix(),
	})
}

// failErr 按错误类型映射 HTTP 状态码
func (h *Handler) failErr(c *gin.Context, name string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("reader operation failed",
			zap.String("reader", name),
			zap.String("path", c.FullPath()),
			zap.String("kind", reader.KindOf(err).String()),
			zap.Error(err))
	}
	h.fail(c, status, err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, gateway.ErrUnknownReader):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, gateway.ErrQueueClosed):
		return http.StatusServiceUnavailable
	}
	switch reader.KindOf(err) {
	case reader.KindNotConnected:
		return http.StatusServiceUnavailable
	case reader.KindTimeout, reader.KindCanceled:
		return http.StatusGatewayTimeout
	case reader.KindConfig:
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// run 在读卡器队列中执行设备操作
func (h *Handler) run(c *gin.Context, fn gateway.Job) bool {
	name := c.Param("name")
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	if err := h.readers.Do(ctx, name, fn); err != nil {
		h.failErr(c, name, err)
		return false
	}
	return true
}
