// Package gateway 按配置为每个读卡器运行轮询协程，完成刷卡判定、开门与考勤记录
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/aks-gateway/internal/access"
	"github.com/taoyao-code/aks-gateway/internal/config"
	"github.com/taoyao-code/aks-gateway/internal/metrics"
	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
	"github.com/taoyao-code/aks-gateway/internal/reader"
	"github.com/taoyao-code/aks-gateway/internal/registry"
	"github.com/taoyao-code/aks-gateway/internal/storage"
	"github.com/taoyao-code/aks-gateway/internal/storage/models"
	"github.com/taoyao-code/aks-gateway/internal/transport"
)

const (
	defaultPollInterval   = 50 * time.Millisecond
	defaultReconnectDelay = 2 * time.Second
	connectTimeout        = 5 * time.Second
	// ReasonOffline 离线记录由设备自行放行
	ReasonOffline = "offline"
	// ReasonLookupError 目录查询失败时拒绝
	ReasonLookupError = "lookup_error"
)

// offlineNamespace 离线记录事件 ID 命名空间，同一记录重复上报得到相同 ID
var offlineNamespace = uuid.MustParse("6f1c6a52-3f7e-4b8e-9a55-0b7e3c2d4a10")

// Decider 门禁判定
type Decider interface {
	Decide(ctx context.Context, cardID string) (access.Decision, error)
}

// Deps 工作协程依赖，Decider 必填，其余可为空
type Deps struct {
	Decider  Decider
	Store    storage.Store
	Dedup    Deduper
	Registry *registry.Registry
	Metrics  *metrics.AppMetrics
	Logger   *zap.Logger
}

// Worker 独占一个读卡器会话，串行执行轮询与外部任务
type Worker struct {
	cfg     config.ReaderConfig
	gw      config.GatewayConfig
	addr    byte
	sess    *reader.Session
	deps    Deps
	logger  *zap.Logger
	breaker *Breaker
	pacer   *Pacer
	queue   *queue
	now     func() time.Time

	connectedOnce bool
}

// NewWorker 按读卡器配置创建 TCP 或串口会话
func NewWorker(rc config.ReaderConfig, gw config.GatewayConfig, loc *time.Location, deps Deps) *Worker {
	tl := transport.WithLogger(deps.Logger)
	var t transport.Transport
	if rc.Transport == config.TransportSerial {
		t = transport.NewSerial(rc.SerialPort, rc.BaudRate, tl)
	} else {
		t = transport.NewTCP(rc.Host, rc.Port, tl)
	}
	return newWorker(rc, gw, t, loc, deps)
}

func newWorker(rc config.ReaderConfig, gw config.GatewayConfig, t transport.Transport, loc *time.Location, deps Deps) *Worker {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("reader", rc.Name))

	w := &Worker{
		cfg:     rc,
		gw:      gw,
		addr:    rc.ReaderAddress(),
		deps:    deps,
		logger:  logger,
		breaker: NewBreaker(gw.BreakerThreshold, gw.BreakerTimeout),
		pacer:   NewPacer(gw.CommandRate, gw.CommandBurst),
		queue:   newQueue(gw.QueueSize),
		now:     time.Now,
	}
	w.sess = reader.New(t,
		reader.WithLogger(logger),
		reader.WithTimeout(rc.EffectiveTimeout()),
		reader.WithVerifyChecksum(rc.VerifyChecksum),
		reader.WithLocation(loc),
		reader.WithObserver(w.observe),
	)
	w.breaker.SetStateChangeCallback(func(from, to BreakerState) {
		logger.Warn("reconnect breaker state changed", zap.Stringer("from", from), zap.Stringer("to", to))
		if deps.Registry != nil {
			deps.Registry.SetBreaker(rc.Name, to.String())
		}
	})
	return w
}

func (w *Worker) Name() string { return w.cfg.Name }
func (w *Worker) Address() byte { return w.addr }
func (w *Worker) Endpoint() string { return w.sess.Endpoint() }
func (w *Worker) Session() *reader.Session { return w.sess }
func (w *Worker) Breaker() *Breaker { return w.breaker }
func (w *Worker) Pacer() *Pacer { return w.pacer }
func (w *Worker) QueueLen() int { return w.queue.len() }
func (w *Worker) Config() config.ReaderConfig { return w.cfg }

// Do 以 API 优先级提交任务并等待结果
func (w *Worker) Do(ctx context.Context, fn Job) error {
	return w.Submit(ctx, PriorityAPI, fn)
}

// Submit 提交任务并等待执行完成
func (w *Worker) Submit(ctx context.Context, priority int, fn Job) error {
	t := &task{ctx: ctx, fn: fn, priority: priority, done: make(chan error, 1)}
	if err := w.queue.push(t); err != nil {
		return err
	}
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run 阻塞运行直到 ctx 结束
func (w *Worker) Run(ctx context.Context) {
	defer w.shutdown()

	interval := w.gw.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for ctx.Err() == nil {
		if !w.sess.IsConnected() {
			if err := w.connect(ctx); err != nil {
				if n := w.queue.failAll(transport.ErrNotConnected); n > 0 {
					w.logger.Debug("pending tasks rejected", zap.Int("count", n))
				}
				if !sleep(ctx, w.retryDelay()) {
					return
				}
				continue
			}
		}

		if t, ok := w.queue.pop(); ok {
			w.runTask(ctx, t)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-w.queue.ready:
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Worker) retryDelay() time.Duration {
	d := w.gw.ReconnectDelay
	if d <= 0 {
		d = defaultReconnectDelay
	}
	return max(d, w.breaker.RetryAfter())
}

func (w *Worker) connect(ctx context.Context) error {
	err := w.breaker.Call(func() error {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := w.sess.Connect(cctx)
		cancel()
		if err != nil {
			return err
		}
		if err := w.configure(ctx); err != nil {
			_ = w.sess.Disconnect()
			return err
		}
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrBreakerOpen), ctx.Err() != nil:
		return err
	default:
		w.logger.Warn("reader connect failed", zap.String("endpoint", w.Endpoint()), zap.Error(err))
		if w.deps.Registry != nil {
			w.deps.Registry.OnFailure(w.cfg.Name, err)
		}
		return err
	}

	if w.connectedOnce {
		w.deps.Metrics.ObserveReconnect(w.cfg.Name)
	}
	w.connectedOnce = true
	if w.deps.Registry != nil {
		w.deps.Registry.OnConnected(w.cfg.Name, w.now())
	}
	w.saveState(ctx, true, nil)
	w.logger.Info("reader connected", zap.String("endpoint", w.Endpoint()), zap.Uint8("address", w.addr))
	return nil
}

type configStep struct {
	name string
	run  func() (bool, error)
}

// configure 下发工作模式、通讯协议、方向与时钟；设备无应答不视为失败
func (w *Worker) configure(ctx context.Context) error {
	steps := []configStep{
		{"work type", func() (bool, error) {
			wt, _ := aks.ParseWorkType(w.cfg.WorkType)
			return w.sess.SetWorkType(ctx, w.addr, wt)
		}},
		{"device protocol", func() (bool, error) {
			p, _ := aks.ParseDeviceProtocol(w.cfg.DeviceProtocol)
			return w.sess.SetDeviceProtocol(ctx, w.addr, p)
		}},
	}
	if o, ok := aks.ParseOrientation(w.cfg.Orientation); ok && w.cfg.Orientation != "" {
		steps = append(steps, configStep{"orientation", func() (bool, error) {
			return w.sess.SetOrientation(ctx, w.addr, o)
		}})
	}
	if w.gw.SyncClock {
		steps = append(steps, configStep{"clock", func() (bool, error) {
			return w.sess.SetDeviceClock(ctx, w.addr, w.now())
		}})
	}

	for _, s := range steps {
		ok, err := s.run()
		if err != nil {
			if fatal(err) {
				return err
			}
			w.logger.Warn("reader configure step failed", zap.String("step", s.name), zap.Error(err))
			continue
		}
		if !ok {
			w.logger.Debug("reader configure step not acknowledged", zap.String("step", s.name))
		}
	}
	return nil
}

// fatal 会话交互失败且连接已不可用，需要断开重连
func fatal(err error) bool {
	var ce *reader.CommandError
	if !errors.As(err, &ce) {
		return false
	}
	switch reader.KindOf(err) {
	case reader.KindBadResponse, reader.KindIO, reader.KindNotConnected:
		return true
	}
	return false
}

func (w *Worker) runTask(ctx context.Context, t *task) {
	if err := t.ctx.Err(); err != nil {
		t.done <- err
		return
	}
	tctx, cancel := context.WithCancel(t.ctx)
	stop := context.AfterFunc(ctx, cancel)
	defer func() {
		stop()
		cancel()
	}()

	if err := w.pacer.Wait(tctx); err != nil {
		t.done <- err
		return
	}
	err := t.fn(tctx, w.sess, w.addr)
	if err != nil && fatal(err) {
		w.drop(ctx, err)
	}
	t.done <- err
}

func (w *Worker) poll(ctx context.Context) {
	if err := w.pacer.Wait(ctx); err != nil {
		return
	}
	ev, ok, err := w.sess.ReadCard(ctx, w.addr)
	if err != nil {
		w.handleErr(ctx, "read card", err)
		return
	}
	if !ok {
		return
	}
	switch ev.Kind {
	case aks.EventCardPresent:
		w.handleSwipe(ctx, ev)
	case aks.EventOfflineLog:
		w.handleOfflineLog(ctx, ev)
	}
}

// handleErr 超时静默，连接类错误触发重连
func (w *Worker) handleErr(ctx context.Context, op string, err error) {
	if ctx.Err() != nil {
		return
	}
	if errors.Is(err, aks.ErrUnknownResponse) {
		w.logger.Warn("unrecognised reader response", zap.String("op", op), zap.Error(err))
		return
	}
	switch kind := reader.KindOf(err); {
	case kind == reader.KindTimeout, kind == reader.KindCanceled:
	case fatal(err):
		w.logger.Warn("reader connection lost", zap.String("op", op), zap.Error(err))
		w.drop(ctx, err)
	default:
		w.logger.Warn("reader command failed", zap.String("op", op), zap.String("kind", kind.String()), zap.Error(err))
	}
}

func (w *Worker) drop(ctx context.Context, err error) {
	_ = w.sess.Disconnect()
	if w.deps.Registry != nil {
		w.deps.Registry.OnDisconnected(w.cfg.Name, err)
	}
	w.saveState(ctx, false, err)
}

func (w *Worker) handleSwipe(ctx context.Context, ev aks.CardEvent) {
	now := w.now()
	cardID := access.NormalizeCardID(ev.CardID)

	d, err := w.deps.Decider.Decide(ctx, cardID)
	if err != nil {
		w.logger.Error("access decision failed", zap.String("card", cardID), zap.Error(err))
		d = access.Decision{CardID: cardID, Reason: ReasonLookupError}
	}
	w.deps.Metrics.ObserveDecision(d.Granted)

	var acked bool
	if d.Granted {
		acked, err = w.sess.GrantAccess(ctx, w.addr, now, d.Holder.Name)
	} else {
		acked, err = w.sess.DenyAccess(ctx, w.addr, now, w.gw.DenyMessage)
	}
	if err != nil {
		w.handleErr(ctx, "access operation", err)
	} else if !acked {
		w.logger.Warn("access operation not acknowledged", zap.String("card", cardID))
	}

	w.logger.Info("card swiped",
		zap.String("card", cardID),
		zap.String("port", ev.Port),
		zap.Bool("granted", d.Granted),
		zap.String("reason", d.Reason))

	if w.duplicate(ctx, cardID) {
		w.logger.Debug("duplicate swipe not recorded", zap.String("card", cardID))
	} else {
		_ = w.record(ctx, &models.Attendance{
			EventID:    uuid.New(),
			Reader:     w.cfg.Name,
			CardID:     cardID,
			Port:       ev.Port,
			Granted:    d.Granted,
			Reason:     d.Reason,
			Source:     models.SourceOnline,
			OccurredAt: now,
		})
	}

	sleep(ctx, w.gw.SwipeCooldown)
}

func (w *Worker) duplicate(ctx context.Context, cardID string) bool {
	if w.deps.Dedup == nil {
		return false
	}
	dup, err := w.deps.Dedup.Seen(ctx, w.cfg.Name, cardID)
	if err != nil {
		w.logger.Warn("swipe dedup failed", zap.Error(err))
		return false
	}
	return dup
}

// handleOfflineLog 记录写入成功后才确认，失败时设备会在下次轮询重发
func (w *Worker) handleOfflineLog(ctx context.Context, ev aks.CardEvent) {
	w.deps.Metrics.ObserveOfflineLog()
	a := &models.Attendance{
		EventID:    uuid.NewSHA1(offlineNamespace, []byte(w.cfg.Name+"|"+ev.Raw)),
		Reader:     w.cfg.Name,
		CardID:     ev.CardID,
		Port:       ev.Port,
		Granted:    true,
		Reason:     ReasonOffline,
		Source:     models.SourceOffline,
		OccurredAt: ev.At,
	}
	if ev.Extra != "" {
		extra := ev.Extra
		a.Extra = &extra
	}
	if err := w.record(ctx, a); err != nil {
		return
	}
	w.logger.Info("offline log collected", zap.String("card", ev.CardID), zap.Time("at", ev.At))
	if err := w.sess.AckLog(ctx, w.addr); err != nil {
		w.handleErr(ctx, "ack log", err)
	}
}

func (w *Worker) record(ctx context.Context, a *models.Attendance) error {
	if w.deps.Store == nil {
		return nil
	}
	inserted, err := w.deps.Store.RecordAttendance(ctx, a)
	if err != nil {
		w.logger.Error("record attendance failed", zap.String("card", a.CardID), zap.Error(err))
		return err
	}
	if !inserted {
		w.logger.Debug("attendance already recorded", zap.Stringer("event_id", a.EventID))
	}
	return nil
}

func (w *Worker) saveState(ctx context.Context, online bool, cause error) {
	if w.deps.Store == nil {
		return
	}
	now := w.now()
	s := &models.ReaderState{Name: w.cfg.Name, Endpoint: w.Endpoint(), Online: online, LastSeenAt: &now}
	if cause != nil {
		msg := cause.Error()
		s.LastError = &msg
	}
	// 停止阶段 ctx 已取消，单独限时
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := w.deps.Store.SaveReaderState(sctx, s); err != nil {
		w.logger.Warn("save reader state failed", zap.Error(err))
	}
}

// observe 会话交互回调：更新指标与在线状态
func (w *Worker) observe(ex reader.Exchange) {
	result := "ok"
	switch {
	case ex.Err != nil:
		result = reader.KindOf(ex.Err).String()
	case ex.Absent:
		result = "absent"
	}
	w.deps.Metrics.ObserveCommand(ex.Command.String(), result, ex.Duration)

	if w.deps.Registry == nil {
		return
	}
	switch {
	case ex.Err == nil:
		w.deps.Registry.OnSuccess(w.cfg.Name, w.now())
	case fatal(ex.Err), reader.KindOf(ex.Err) == reader.KindMalformed:
		w.deps.Registry.OnFailure(w.cfg.Name, ex.Err)
	}
}

func (w *Worker) shutdown() {
	w.queue.close()
	if w.sess.IsConnected() {
		_ = w.sess.Disconnect()
	}
	if w.deps.Registry != nil {
		w.deps.Registry.OnDisconnected(w.cfg.Name, nil)
	}
	w.saveState(context.Background(), false, nil)
	w.logger.Info("reader worker stopped")
}

// sleep 可被 ctx 打断，返回 false 表示 ctx 已结束
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
