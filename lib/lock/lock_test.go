package lock

import (
	"context"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLock(t *testing.T) *GroupLock {
	t.Helper()
	gl := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	gl.dir = t.TempDir()
	return gl
}

func TestLockExcludesSecondHolder(t *testing.T) {
	gl := newLock(t)
	ctx := context.Background()
	group := uuid.NewString()

	acquired, err := gl.TryLock(ctx, group, time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	again, err := gl.TryLock(ctx, group, 200*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, again, "held lock must not be re-acquired")

	require.NoError(t, gl.Unlock(group))

	after, err := gl.TryLock(ctx, group, time.Second)
	require.NoError(t, err)
	assert.True(t, after, "released lock is available again")
}

func TestLockIsPerGroup(t *testing.T) {
	gl := newLock(t)
	ctx := context.Background()

	a, err := gl.TryLock(ctx, uuid.NewString(), time.Second)
	require.NoError(t, err)
	b, err := gl.TryLock(ctx, uuid.NewString(), time.Second)
	require.NoError(t, err)

	assert.True(t, a)
	assert.True(t, b)
}

func TestUnlockWithoutLockIsNoop(t *testing.T) {
	gl := newLock(t)
	assert.NoError(t, gl.Unlock(uuid.NewString()))
}
