package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dunet/session-server/internal/model"
	"github.com/dunet/session-server/internal/testutil"
)

func TestStore_PutAndFind(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewStore(clock.Now)

	rec, err := s.Put(ctx, 42, "raw-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(42), rec.IdentityID)
	assert.Equal(t, clock.Now().Add(time.Hour), rec.ExpiresAt)
	assert.Equal(t, model.RecordActive, rec.State())

	got, err := s.FindByRaw(ctx, "raw-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = s.FindByRaw(ctx, "raw-2")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.Put(ctx, 42, "raw-1", time.Hour)
	require.ErrorIs(t, err, ErrDuplicateHash)
}

func TestStore_Rotate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)

	parent, err := s.Put(ctx, 1, "parent", time.Hour)
	require.NoError(t, err)

	child, err := s.Rotate(ctx, parent, 1, "child", time.Hour)
	require.NoError(t, err)

	stored, ok := s.Get(parent.ID)
	require.True(t, ok)
	require.NotNil(t, stored.RevokedAt)
	require.NotNil(t, stored.ReplacedBy)
	assert.Equal(t, child.ID, *stored.ReplacedBy)
	assert.Equal(t, model.RecordRotated, stored.State())

	_, err = s.Rotate(ctx, parent, 1, "child-2", time.Hour)
	require.ErrorIs(t, err, model.ErrAlreadyRotated)

	_, err = s.FindByRaw(ctx, "child-2")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_Rotate_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)

	parent, err := s.Put(ctx, 1, "parent", time.Hour)
	require.NoError(t, err)

	const workers = 16
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Rotate(ctx, parent, 1, uuid.NewString(), time.Hour)
			switch {
			case err == nil:
				wins.Add(1)
			case assert.ErrorIs(t, err, model.ErrAlreadyRotated):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())
}

func TestStore_RevokeAndRevokeAll(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)

	a, err := s.Put(ctx, 1, "a", time.Hour)
	require.NoError(t, err)
	b, err := s.Put(ctx, 1, "b", time.Hour)
	require.NoError(t, err)
	other, err := s.Put(ctx, 2, "c", time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.Revoke(ctx, a.ID))
	first, _ := s.Get(a.ID)
	require.NotNil(t, first.RevokedAt)
	assert.Equal(t, model.RecordRevoked, first.State())

	require.NoError(t, s.Revoke(ctx, a.ID))
	again, _ := s.Get(a.ID)
	assert.Equal(t, *first.RevokedAt, *again.RevokedAt)

	require.NoError(t, s.RevokeAll(ctx, 1))
	gotB, _ := s.Get(b.ID)
	assert.NotNil(t, gotB.RevokedAt)
	gotOther, _ := s.Get(other.ID)
	assert.Nil(t, gotOther.RevokedAt)
}

func TestStore_RevokeChain(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)

	r1, err := s.Put(ctx, 1, "r1", time.Hour)
	require.NoError(t, err)
	r2, err := s.Rotate(ctx, r1, 1, "r2", time.Hour)
	require.NoError(t, err)
	r3, err := s.Rotate(ctx, r2, 1, "r3", time.Hour)
	require.NoError(t, err)
	unrelated, err := s.Put(ctx, 1, "other-device", time.Hour)
	require.NoError(t, err)

	n, err := s.RevokeChain(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	tail, _ := s.Get(r3.ID)
	assert.NotNil(t, tail.RevokedAt)
	assert.Nil(t, tail.ReplacedBy)
	side, _ := s.Get(unrelated.ID)
	assert.Nil(t, side.RevokedAt)
}

func TestStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewStore(clock.Now)

	short, err := s.Put(ctx, 1, "short", time.Minute)
	require.NoError(t, err)
	long, err := s.Rotate(ctx, short, 1, "long", 24*time.Hour)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	n, err := s.DeleteExpired(ctx, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok := s.Get(short.ID)
	assert.False(t, ok)
	_, err = s.FindByRaw(ctx, "short")
	require.ErrorIs(t, err, model.ErrNotFound)
	_, ok = s.Get(long.ID)
	assert.True(t, ok)
}

func TestStore_Versions(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)

	_, err := s.Version(ctx, 42)
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.IncrementVersion(ctx, 42)
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.CreateIdentity(ctx, 42)
	require.NoError(t, err)

	v, err := s.Version(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	v, err = s.IncrementVersion(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = s.Version(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStore(nil)

	_, err := s.Put(ctx, 1, "x", time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}
