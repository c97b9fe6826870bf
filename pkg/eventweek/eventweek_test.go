package eventweek

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestIndex(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want ID
	}{
		{"thursday after boundary", ts(2024, time.March, 7, 9, 0), ID{2024, 10}},
		{"thursday exactly at boundary", ts(2024, time.March, 7, 8, 0), ID{2024, 10}},
		{"thursday before boundary", ts(2024, time.March, 7, 7, 59), ID{2024, 9}},
		{"wednesday", ts(2024, time.March, 6, 23, 0), ID{2024, 9}},
		{"monday", ts(2024, time.March, 4, 0, 0), ID{2024, 9}},
		{"friday", ts(2024, time.March, 8, 0, 0), ID{2024, 10}},
		{"sunday", ts(2024, time.March, 10, 12, 0), ID{2024, 10}},
		{"new year rollback", ts(2025, time.January, 1, 12, 0), ID{2024, 52}},
		{"january in trailing iso week", ts(2027, time.January, 1, 12, 0), ID{2026, 53}},
		{"53-week year boundary", ts(2021, time.January, 1, 12, 0), ID{2020, 53}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Index(tt.in))
		})
	}
}

func TestIndexDeterministic(t *testing.T) {
	at := ts(2024, time.June, 15, 10, 30)
	first := Index(at)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Index(at))
	}
}

// All timestamps between one Thursday 08:00 and the next map to one event.
func TestIndexSameEventAcrossWeek(t *testing.T) {
	start := ts(2024, time.March, 7, 8, 0)
	want := Index(start)

	for offset := time.Duration(0); offset < 7*24*time.Hour; offset += 3 * time.Hour {
		at := start.Add(offset)
		assert.Equal(t, want, Index(at), "timestamp %v", at)
	}
	assert.NotEqual(t, want, Index(start.Add(7*24*time.Hour)))
}

func TestPrevious(t *testing.T) {
	assert.Equal(t, ID{2024, 9}, Previous(ID{2024, 10}))
	assert.Equal(t, ID{2023, 52}, Previous(ID{2024, 1}))
	assert.Equal(t, ID{2020, 53}, Previous(ID{2021, 1}))
}
