package routine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	today string
}

func (c *fakeClock) Now() string { return c.today }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("step-%d", n)
	}
}

func TestStore_AddBrushTeeth(t *testing.T) {
	clock := &fakeClock{today: "2024-01-01"}
	s := NewStore(clock.Now)

	step := s.Add("Brush Teeth", "🪥", "#FDE68A")

	snap := s.Snapshot()
	require.Len(t, snap.Steps, 1)
	assert.Equal(t, step, snap.Steps[0])
	assert.NotEmpty(t, step.ID)
	assert.Equal(t, "Brush Teeth", step.Title)
	assert.Equal(t, "🪥", step.Icon)
	assert.Equal(t, "#FDE68A", step.Color)
	assert.False(t, step.Completed)
	assert.Equal(t, "2024-01-01", snap.LastUpdated)
}

func TestStore_AddGeneratesDistinctIDs(t *testing.T) {
	s := NewStore((&fakeClock{today: "2024-01-01"}).Now)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		step := s.Add(fmt.Sprintf("step %d", i), "✅", DefaultColor)
		require.False(t, seen[step.ID], "duplicate id %s", step.ID)
		seen[step.ID] = true
	}
	require.NoError(t, s.Snapshot().Steps.CheckUnique())
}

func TestStore_ToggleTouchesLastUpdated(t *testing.T) {
	clock := &fakeClock{today: "2024-01-01"}
	s := NewStore(clock.Now, WithIDGenerator(sequentialIDs()))
	a := s.Add("A", "🅰", DefaultColor)

	clock.today = "2024-01-02"
	step, ok := s.Toggle(a.ID)
	require.True(t, ok)
	assert.True(t, step.Completed)
	assert.Equal(t, "2024-01-02", s.Snapshot().LastUpdated)

	step, ok = s.Toggle(a.ID)
	require.True(t, ok)
	assert.False(t, step.Completed)
}

func TestStore_MissingIDsAreNoOps(t *testing.T) {
	clock := &fakeClock{today: "2024-01-01"}
	s := NewStore(clock.Now, WithIDGenerator(sequentialIDs()))
	s.Add("A", "🅰", DefaultColor)
	s.Add("B", "🅱", DefaultColor)
	before := s.Snapshot()

	clock.today = "2024-01-05"
	_, ok := s.Toggle("missing")
	assert.False(t, ok)
	assert.False(t, s.Remove("missing"))
	assert.False(t, s.MoveUp("missing"))
	assert.False(t, s.MoveDown("missing"))

	assert.Equal(t, before, s.Snapshot())
}

func TestStore_MoveAndRemove(t *testing.T) {
	s := NewStore((&fakeClock{today: "2024-01-01"}).Now, WithIDGenerator(sequentialIDs()))
	a := s.Add("A", "🅰", DefaultColor)
	b := s.Add("B", "🅱", DefaultColor)
	c := s.Add("C", "©", DefaultColor)

	require.True(t, s.MoveDown(a.ID))
	assert.Equal(t, []string{b.ID, a.ID, c.ID}, ids(s.Snapshot().Steps))
	require.True(t, s.MoveUp(a.ID))
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, ids(s.Snapshot().Steps))

	require.True(t, s.Remove(b.ID))
	assert.Equal(t, []string{a.ID, c.ID}, ids(s.Snapshot().Steps))
}

func TestStore_ReplaceAllRejectsDuplicates(t *testing.T) {
	s := NewStore((&fakeClock{today: "2024-01-01"}).Now)
	s.Add("A", "🅰", DefaultColor)
	before := s.Snapshot()

	err := s.ReplaceAll([]Step{{ID: "x"}, {ID: "x"}})
	require.ErrorIs(t, err, ErrDuplicateStepID)
	assert.Equal(t, before, s.Snapshot())

	require.NoError(t, s.ReplaceAll([]Step{{ID: "x"}, {ID: "y"}}))
	assert.Equal(t, []string{"x", "y"}, ids(s.Snapshot().Steps))
}

func TestStore_ResetAll(t *testing.T) {
	s := NewStore((&fakeClock{today: "2024-01-01"}).Now, WithIDGenerator(sequentialIDs()))
	a := s.Add("A", "🅰", DefaultColor)
	s.Add("B", "🅱", DefaultColor)
	s.Toggle(a.ID)

	s.ResetAll()
	completed, total := s.Snapshot().Steps.Counts()
	assert.Equal(t, 0, completed)
	assert.Equal(t, 2, total)
}

func TestStore_AssignID(t *testing.T) {
	s := NewStore((&fakeClock{today: "2024-01-01"}).Now)
	require.NoError(t, s.ReplaceAll([]Step{{ID: "", Title: "A"}, {ID: "b", Title: "B"}}))

	assert.False(t, s.AssignID("", "b"), "new id must stay unique")
	require.True(t, s.AssignID("", "a"))
	assert.Equal(t, []string{"a", "b"}, ids(s.Snapshot().Steps))
	assert.False(t, s.AssignID("", "c"))
}

func TestStore_RolloverArchivesAndResets(t *testing.T) {
	clock := &fakeClock{today: "2024-01-01"}
	s := NewStore(clock.Now, WithIDGenerator(sequentialIDs()))
	a := s.Add("A", "🅰", DefaultColor)
	s.Add("B", "🅱", DefaultColor)
	s.Toggle(a.ID)

	clock.today = "2024-01-02"
	action := s.Rollover()
	require.NotNil(t, action.Archive)
	assert.Equal(t, HistoryEntry{Date: "2024-01-01", Completed: 1, Total: 2}, *action.Archive)

	snap := s.Snapshot()
	assert.Equal(t, "2024-01-02", snap.LastUpdated)
	assert.Equal(t, []HistoryEntry{{Date: "2024-01-01", Completed: 1, Total: 2}}, snap.History)
	for _, step := range snap.Steps {
		assert.False(t, step.Completed)
	}

	assert.True(t, s.Rollover().IsNoOp())
}

func TestStore_RolloverEmptyDaySkipsArchive(t *testing.T) {
	clock := &fakeClock{today: "2024-01-01"}
	s := NewStore(clock.Now)

	clock.today = "2024-01-02"
	action := s.Rollover()
	assert.False(t, action.IsNoOp())
	assert.Nil(t, action.Archive)
	assert.Equal(t, "2024-01-02", s.Snapshot().LastUpdated)
	assert.Empty(t, s.Snapshot().History)
}

func TestStore_SetHistoryDropsCurrentDay(t *testing.T) {
	s := NewStore((&fakeClock{today: "2024-01-03"}).Now)

	s.SetHistory([]HistoryEntry{
		{Date: "2024-01-01", Completed: 1, Total: 2},
		{Date: "2024-01-03", Completed: 2, Total: 2},
		{Date: "2024-01-02", Completed: 0, Total: 1},
	})
	assert.Equal(t, []HistoryEntry{
		{Date: "2024-01-01", Completed: 1, Total: 2},
		{Date: "2024-01-02", Completed: 0, Total: 1},
	}, s.Snapshot().History)

	s.SetLastUpdated("2024-01-02")
	assert.Equal(t, []HistoryEntry{{Date: "2024-01-01", Completed: 1, Total: 2}}, s.Snapshot().History)
}

func TestStore_SnapshotIsDetached(t *testing.T) {
	s := NewStore((&fakeClock{today: "2024-01-01"}).Now)
	s.Add("A", "🅰", DefaultColor)

	snap := s.Snapshot()
	snap.Steps[0].Title = "changed"
	assert.Equal(t, "A", s.Snapshot().Steps[0].Title)
}
