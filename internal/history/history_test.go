package history

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonprm/horizon/internal/errors"
)

func newTestLog() *Log {
	l := New()
	base := time.Date(2026, 1, 24, 13, 55, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	return l
}

func TestNew_Bootstrap(t *testing.T) {
	items := New().Items()

	require.Len(t, items, 1)
	assert.Equal(t, BootstrapID, items[0].ID)
	assert.Equal(t, "System Initialization", items[0].Label)
	assert.Equal(t, "Project Horizon PRM initialized v1.0.4", items[0].Description)
	assert.True(t, items[0].Pinned)
	assert.False(t, items[0].Revertable)
}

func TestAdd_PrependsWithUniqueIDs(t *testing.T) {
	l := newTestLog()

	a := l.Add("Added call", "Manual entry", nil)
	b := l.Add("Archived 2 calls", "Bulk archive", func() error { return nil })

	items := l.Items()
	require.Len(t, items, 3)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Regexp(t, `^act-\d+$`, a.ID)
	assert.False(t, a.Revertable)
	assert.True(t, b.Revertable)
	assert.False(t, b.Pinned)
}

func TestTogglePin(t *testing.T) {
	l := newTestLog()
	item := l.Add("x", "y", nil)

	got, err := l.TogglePin(item.ID)
	require.NoError(t, err)
	assert.True(t, got.Pinned)

	got, err = l.TogglePin(item.ID)
	require.NoError(t, err)
	assert.False(t, got.Pinned)

	_, err = l.TogglePin("act-0")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRevert(t *testing.T) {
	l := newTestLog()
	calls := 0
	item := l.Add("Archived 1 call", "Bulk archive", func() error {
		calls++
		return nil
	})

	reverted, err := l.Revert(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Reverted: Archived 1 call", reverted.Label)
	assert.Equal(t, "Undid action "+item.ID, reverted.Description)
	assert.False(t, reverted.Revertable)

	items := l.Items()
	require.Len(t, items, 3)
	assert.Equal(t, reverted.ID, items[0].ID)
	assert.False(t, items[1].Revertable)

	_, err = l.Revert(item.ID)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	assert.Equal(t, 1, calls, "callback runs at most once")
}

func TestRevert_CallbackFailureKeepsItem(t *testing.T) {
	l := newTestLog()
	fail := true
	item := l.Add("a", "b", func() error {
		if fail {
			return stderrors.New("boom")
		}
		return nil
	})

	_, err := l.Revert(item.ID)
	require.Error(t, err)
	assert.True(t, l.Items()[0].Revertable)

	fail = false
	_, err = l.Revert(item.ID)
	require.NoError(t, err)
}

func TestRevert_Errors(t *testing.T) {
	l := newTestLog()

	_, err := l.Revert("missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = l.Revert(BootstrapID)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestClear(t *testing.T) {
	l := newTestLog()
	pinned := l.Add("a", "b", nil)
	l.Add("c", "d", nil)
	_, err := l.TogglePin(pinned.ID)
	require.NoError(t, err)

	l.Clear()

	items := l.Items()
	require.Len(t, items, 1)
	assert.Equal(t, BootstrapID, items[0].ID)
}
