package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/aks-gateway/internal/storage/models"
)

func TestMemory_RecordAttendance(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	a := &models.Attendance{Reader: "door1", CardID: "ECAB2979", OccurredAt: time.Now()}
	ok, err := m.RecordAttendance(ctx, a)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEqual(t, uuid.Nil, a.EventID)
	assert.EqualValues(t, 1, a.ID)

	dup := &models.Attendance{EventID: a.EventID, Reader: "door1", CardID: "ECAB2979"}
	ok, err = m.RecordAttendance(ctx, dup)
	require.NoError(t, err)
	assert.False(t, ok, "同一事件只写入一次")
}

func TestMemory_ListAttendance(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	base := time.Date(2025, 8, 19, 8, 0, 0, 0, time.UTC)
	for i, r := range []string{"door1", "door2", "door1", "door1"} {
		_, err := m.RecordAttendance(ctx, &models.Attendance{
			Reader:     r,
			CardID:     "C" + string(rune('0'+i)),
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	t.Run("按读卡器过滤并倒序", func(t *testing.T) {
		list, err := m.ListAttendance(ctx, AttendanceFilter{Reader: "door1"})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "C3", list[0].CardID)
		assert.Equal(t, "C0", list[2].CardID)
	})

	t.Run("时间范围", func(t *testing.T) {
		list, err := m.ListAttendance(ctx, AttendanceFilter{Since: base.Add(time.Minute), Until: base.Add(3 * time.Minute)})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "C2", list[0].CardID)
	})

	t.Run("分页", func(t *testing.T) {
		list, err := m.ListAttendance(ctx, AttendanceFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "C2", list[0].CardID)

		list, err = m.ListAttendance(ctx, AttendanceFilter{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestMemory_Capacity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)
	first := &models.Attendance{CardID: "A", OccurredAt: time.Now()}
	_, _ = m.RecordAttendance(ctx, first)
	_, _ = m.RecordAttendance(ctx, &models.Attendance{CardID: "B", OccurredAt: time.Now()})
	_, _ = m.RecordAttendance(ctx, &models.Attendance{CardID: "C", OccurredAt: time.Now()})

	list, err := m.ListAttendance(ctx, AttendanceFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// 被淘汰的事件可以重新写入
	ok, err := m.RecordAttendance(ctx, first)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemory_ReaderState(t *testing.T) {
	m := NewMemory(0)
	require.NoError(t, m.SaveReaderState(context.Background(), &models.ReaderState{Name: "door1", Online: true}))
	s, ok := m.ReaderState("door1")
	require.True(t, ok)
	assert.True(t, s.Online)
}

func TestAttendanceFilter_EffectiveLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, AttendanceFilter{}.EffectiveLimit())
	assert.Equal(t, 5, AttendanceFilter{Limit: 5}.EffectiveLimit())
	assert.Equal(t, 1000, AttendanceFilter{Limit: 5000}.EffectiveLimit())
}
