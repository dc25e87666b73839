package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarterRoutine(t *testing.T) {
	weekday := StarterRoutine(time.Monday)
	weekend := StarterRoutine(time.Sunday)

	assert.Len(t, weekday, 6)
	assert.Len(t, weekend, 5)
	assert.Equal(t, "Wake Up", weekday[0].Title)
	assert.Equal(t, "Bedtime Story", weekday[len(weekday)-1].Title)
	assert.Equal(t, "Pack School Bag", weekday[4].Title)
}

func TestSession_AddStarterRoutine(t *testing.T) {
	store := newMemoryStore()
	// 2024-01-06 суббота
	sm, _ := newTestManager(t, store, "2024-01-06")
	s := sm.OpenSession(context.Background(), *ann, "chat-1")

	added, err := s.AddStarterRoutine()
	require.NoError(t, err)
	assert.Len(t, added, 5)
	assert.Len(t, s.Snapshot().Steps, 5)

	again, err := s.AddStarterRoutine()
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Len(t, s.Snapshot().Steps, 5)

	flushManager(t, sm)
	assert.Equal(t, 5, store.count("users/u1/2024-01-06/"))
}
