package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/taoyao-code/aks-gateway/internal/storage/models"
)

// Memory 未启用数据库时使用的内存存储，进程退出即丢失
type Memory struct {
	mu       sync.RWMutex
	seq      int64
	events   map[uuid.UUID]struct{}
	records  []models.Attendance
	readers  map[string]models.ReaderState
	capacity int
}

// NewMemory capacity<=0 时不限制条数，超出后丢弃最旧记录
func NewMemory(capacity int) *Memory {
	return &Memory{
		events:   make(map[uuid.UUID]struct{}),
		readers:  make(map[string]models.ReaderState),
		capacity: capacity,
	}
}

func (m *Memory) RecordAttendance(_ context.Context, a *models.Attendance) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.EventID == uuid.Nil {
		a.EventID = uuid.New()
	}
	if _, dup := m.events[a.EventID]; dup {
		return false, nil
	}
	m.seq++
	a.ID = m.seq
	m.events[a.EventID] = struct{}{}
	m.records = append(m.records, *a)
	if m.capacity > 0 && len(m.records) > m.capacity {
		delete(m.events, m.records[0].EventID)
		m.records = m.records[1:]
	}
	return true, nil
}

// ListAttendance 按发生时间倒序
func (m *Memory) ListAttendance(_ context.Context, f AttendanceFilter) ([]models.Attendance, error) {
	m.mu.RLock()
	var out []models.Attendance
	for _, a := range m.records {
		if f.Reader != "" && a.Reader != f.Reader {
			continue
		}
		if f.CardID != "" && a.CardID != f.CardID {
			continue
		}
		if !f.Since.IsZero() && a.OccurredAt.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && !a.OccurredAt.Before(f.Until) {
			continue
		}
		out = append(out, a)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if f.Offset >= len(out) {
		return []models.Attendance{}, nil
	}
	out = out[f.Offset:]
	if limit := f.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) SaveReaderState(_ context.Context, s *models.ReaderState) error {
	m.mu.Lock()
	m.readers[s.Name] = *s
	m.mu.Unlock()
	return nil
}

// ReaderState 读取状态快照
func (m *Memory) ReaderState(name string) (models.ReaderState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.readers[name]
	return s, ok
}
