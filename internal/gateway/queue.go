package gateway

import (
	"container/heap"
	"context"
	"errors"
	"sync"

	"github.com/taoyao-code/aks-gateway/internal/reader"
)

// 任务优先级，数值越小越先执行
const (
	PriorityAPI         = 1 // 外部请求
	PriorityMaintenance = 3 // 对时、配置
	PriorityPoll        = 5 // 轮询
)

var (
	// ErrQueueFull 待执行任务已达上限
	ErrQueueFull = errors.New("reader queue is full")
	// ErrQueueClosed 读卡器已停止
	ErrQueueClosed = errors.New("reader queue is closed")
)

// Job 在读卡器会话上执行的一次操作
type Job func(ctx context.Context, s *reader.Session, addr byte) error

type task struct {
	ctx      context.Context
	fn       Job
	priority int
	seq      uint64
	done     chan error
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any) { *h = append(*h, x.(*task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// queue 按优先级、同优先级按提交顺序出队
type queue struct {
	mu     sync.Mutex
	items  taskHeap
	seq    uint64
	max    int
	closed bool
	ready  chan struct{}
}

func newQueue(max int) *queue {
	if max <= 0 {
		max = 64
	}
	return &queue{max: max, ready: make(chan struct{}, 1)}
}

func (q *queue) push(t *task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if len(q.items) >= q.max {
		return ErrQueueFull
	}
	q.seq++
	t.seq = q.seq
	heap.Push(&q.items, t)
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

func (q *queue) pop() (*task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	return heap.Pop(&q.items).(*task), true
}

// failAll 以 err 结束所有待执行任务
func (q *queue) failAll(err error) int {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	for _, t := range items {
		t.done <- err
	}
	return len(items)
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.failAll(ErrQueueClosed)
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
