package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConflictParticipations struct {
	hasConflictingFunc func(ctx context.Context, playerID, excludeGuildID int64, year, week int, candidate int64) (bool, error)
}

func (m *mockConflictParticipations) HasConflicting(ctx context.Context, playerID, excludeGuildID int64, year, week int, candidate int64) (bool, error) {
	return m.hasConflictingFunc(ctx, playerID, excludeGuildID, year, week, candidate)
}

func TestConflictResolver_PassesQueryThrough(t *testing.T) {
	var gotPlayer, gotExclude, gotCandidate int64
	var gotYear, gotWeek int
	store := &mockConflictParticipations{
		hasConflictingFunc: func(ctx context.Context, playerID, excludeGuildID int64, year, week int, candidate int64) (bool, error) {
			gotPlayer, gotExclude, gotCandidate = playerID, excludeGuildID, candidate
			gotYear, gotWeek = year, week
			return true, nil
		},
	}

	resolver := NewConflictResolver(store)
	conflict, err := resolver.HasConflictingParticipation(context.Background(), 7, 42, 2026, 35, 900)
	require.NoError(t, err)

	assert.True(t, conflict)
	assert.Equal(t, int64(7), gotPlayer)
	assert.Equal(t, int64(42), gotExclude)
	assert.Equal(t, int64(900), gotCandidate)
	assert.Equal(t, 2026, gotYear)
	assert.Equal(t, 35, gotWeek)
}
