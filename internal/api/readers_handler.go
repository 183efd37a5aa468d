package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
	"github.com/taoyao-code/aks-gateway/internal/reader"
)

// ClockView 设备时钟
type ClockView struct {
	Time  *time.Time `json:"time,omitempty"`
	Valid bool       `json:"valid"`
}

// SetClockRequest 设置时钟请求，time 为空时使用服务器当前时间
type SetClockRequest struct {
	Time *time.Time `json:"time"`
}

// SetClockResult 设置时钟结果
type SetClockResult struct {
	Time     time.Time `json:"time"`
	Accepted bool      `json:"accepted"`
}

// CommandRequest 原始命令请求，command 为命令名或十进制命令码
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
	Param   string `json:"param"`
}

// CommandResult 原始命令结果
type CommandResult struct {
	ID       string `json:"id"`
	Command  string `json:"command"`
	Code     int    `json:"code"`
	Answered bool   `json:"answered"`
	Data     string `json:"data"`
}

// AccessRequest 远程放行/拒绝请求
type AccessRequest struct {
	Grant   *bool  `json:"grant" binding:"required"`
	Message string `json:"message"`
}

// AccessResult 远程放行/拒绝结果
type AccessResult struct {
	Grant    bool `json:"grant"`
	Accepted bool `json:"accepted"`
}

// CountsView 设备卡片与记录数量
type CountsView struct {
	Cards int `json:"cards"`
	Logs  int `json:"logs"`
}

// ListReaders 查询读卡器列表
// @Summary 查询读卡器列表
// @Description 按配置顺序返回全部读卡器的连接、队列、限速与熔断状态
// @Tags 读卡器
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} StandardResponse{data=[]gateway.ReaderInfo}
// @Router /api/readers [get]
func (h *Handler) ListReaders(c *gin.Context) {
	h.ok(c, h.readers.Readers())
}

// GetReader 查询单个读卡器
// @Summary 查询读卡器状态
// @Tags 读卡器
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "读卡器名称"
// @Success 200 {object} StandardResponse{data=gateway.ReaderInfo}
// @Failure 404 {object} StandardResponse
// @Router /api/readers/{name} [get]
func (h *Handler) GetReader(c *gin.Context) {
	info, ok := h.readers.Reader(c.Param("name"))
	if !ok {
		h.fail(c, http.StatusNotFound, "reader not found")
		return
	}
	h.ok(c, info)
}

// GetClock 读取设备时钟
// @Summary 读取设备时钟
// @Description 设备应答缺失或无法解析时 valid=false
// @Tags 读卡器
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "读卡器名称"
// @Success 200 {object} StandardResponse{data=ClockView}
// @Failure 404 {object} StandardResponse
// @Failure 504 {object} StandardResponse
// @Router /api/readers/{name}/clock [get]
func (h *Handler) GetClock(c *gin.Context) {
	var view ClockView
	ok := h.run(c, func(ctx context.Context, s *reader.Session, addr byte) error {
		t, valid, err := s.GetDeviceClock(ctx, addr)
		if err != nil {
			return err
		}
		if valid {
			view = ClockView{Time: &t, Valid: true}
		}
		return nil
	})
	if ok {
		h.ok(c, view)
	}
}

// SetClock 设置设备时钟
// @Summary 设置设备时钟
// @Tags 读卡器
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "读卡器名称"
// @Param request body SetClockRequest false "目标时间（RFC3339）"
// @Success 200 {object} StandardResponse{data=SetClockResult}
// @Failure 400 {object} StandardResponse
// @Router /api/readers/{name}/clock [put]
func (h *Handler) SetClock(c *gin.Context) {
	var req SetClockRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	at := h.now()
	if req.Time != nil {
		at = *req.Time
	}

	res := SetClockResult{Time: at}
	ok := h.run(c, func(ctx context.Context, s *reader.Session, addr byte) error {
		var err error
		res.Accepted, err = s.SetDeviceClock(ctx, addr, at)
		return err
	})
	if ok {
		h.ok(c, res)
	}
}

// SendCommand 发送原始命令
// @Summary 发送原始命令
// @Description 命令可为名称（如 read_card）或十进制命令码；answered=false 表示设备未给出有效应答
// @Tags 读卡器
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "读卡器名称"
// @Param request body CommandRequest true "命令"
// @Success 200 {object} StandardResponse{data=CommandResult}
// @Failure 400 {object} StandardResponse
// @Failure 502 {object} StandardResponse
// @Router /api/readers/{name}/commands [post]
func (h *Handler) SendCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	cmd, ok := aks.ParseCommand(req.Command)
	if !ok {
		h.fail(c, http.StatusBadRequest, "unknown command: "+req.Command)
		return
	}

	res := CommandResult{ID: uuid.NewString(), Command: cmd.String(), Code: int(cmd)}
	if !h.run(c, func(ctx context.Context, s *reader.Session, addr byte) error {
		resp, err := s.SendRawCommand(ctx, addr, byte(cmd), req.Param)
		if err != nil {
			return err
		}
		res.Answered, res.Data = resp.OK, resp.Data
		return nil
	}) {
		return
	}
	h.logger.Info("raw command sent",
		zap.String("id", res.ID),
		zap.String("reader", c.Param("name")),
		zap.Stringer("cmd", cmd),
		zap.Bool("answered", res.Answered))
	h.ok(c, res)
}

// Access 远程放行或拒绝
// @Summary 远程放行/拒绝
// @Tags 读卡器
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "读卡器名称"
// @Param request body AccessRequest true "grant=true 放行"
// @Success 200 {object} StandardResponse{data=AccessResult}
// @Failure 400 {object} StandardResponse
// @Router /api/readers/{name}/access [post]
func (h *Handler) Access(c *gin.Context) {
	var req AccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	res := AccessResult{Grant: *req.Grant}
	at := h.now()
	ok := h.run(c, func(ctx context.Context, s *reader.Session, addr byte) error {
		var err error
		if res.Grant {
			res.Accepted, err = s.GrantAccess(ctx, addr, at, req.Message)
		} else {
			res.Accepted, err = s.DenyAccess(ctx, addr, at, req.Message)
		}
		return err
	})
	if ok {
		h.ok(c, res)
	}
}

// Counts 查询设备内卡片与离线记录数量
// @Summary 查询卡片与记录数量
// @Tags 读卡器
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "读卡器名称"
// @Success 200 {object} StandardResponse{data=CountsView}
// @Router /api/readers/{name}/counts [get]
func (h *Handler) Counts(c *gin.Context) {
	var view CountsView
	ok := h.run(c, func(ctx context.Context, s *reader.Session, addr byte) error {
		var err error
		if view.Cards, err = s.CardCount(ctx, addr); err != nil {
			return err
		}
		view.Logs, err = s.LogCount(ctx, addr)
		return err
	})
	if ok {
		h.ok(c, view)
	}
}
