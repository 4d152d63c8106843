package limiter

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dunet/session-server/internal/model"
	"github.com/dunet/session-server/internal/testutil"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_Allow(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)

	l := New(client, Config{MaxRefresh: 3, Window: time.Minute, KeyPrefix: "test"}, testutil.MakeNoopLogger())

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow(ctx, 42))
	}
	require.ErrorIs(t, l.Allow(ctx, 42), model.ErrRateLimited)

	// other identities have their own budget
	require.NoError(t, l.Allow(ctx, 7))

	assert.True(t, mr.Exists("test:refresh:42"))
	assert.Equal(t, time.Minute, mr.TTL("test:refresh:42"))
}

func TestRedis_Allow_WindowResets(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)

	l := New(client, Config{MaxRefresh: 1, Window: time.Minute, KeyPrefix: "test"}, testutil.MakeNoopLogger())

	require.NoError(t, l.Allow(ctx, 42))
	require.ErrorIs(t, l.Allow(ctx, 42), model.ErrRateLimited)

	mr.FastForward(time.Minute + time.Second)

	require.NoError(t, l.Allow(ctx, 42))
}

func TestRedis_Allow_RedisDown(t *testing.T) {
	tests := []struct {
		name     string
		failOpen bool
		wantErr  error
	}{
		{name: "fail_open", failOpen: true},
		{name: "fail_closed", failOpen: false, wantErr: model.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, client := newTestRedis(t)
			mr.Close()

			l := New(client, Config{MaxRefresh: 1, Window: time.Minute, KeyPrefix: "test", FailOpen: tt.failOpen}, testutil.MakeNoopLogger())

			err := l.Allow(context.Background(), 42)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// failExpireOnce rejects the first EXPIRE sent outside a pipeline.
type failExpireOnce struct {
	failed atomic.Bool
}

func (h *failExpireOnce) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *failExpireOnce) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if strings.EqualFold(cmd.Name(), "expire") && h.failed.CompareAndSwap(false, true) {
			err := errors.New("connection reset")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (h *failExpireOnce) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedis_Allow_RecoversLostExpire(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	hook := &failExpireOnce{}
	client.AddHook(hook)

	l := New(client, Config{MaxRefresh: 2, Window: time.Minute, KeyPrefix: "test", FailOpen: true}, testutil.MakeNoopLogger())

	require.NoError(t, l.Allow(ctx, 42))
	require.True(t, hook.failed.Load())
	assert.Zero(t, mr.TTL("test:refresh:42"), "first expire was dropped")

	require.NoError(t, l.Allow(ctx, 42))
	assert.Equal(t, time.Minute, mr.TTL("test:refresh:42"))
	require.ErrorIs(t, l.Allow(ctx, 42), model.ErrRateLimited)

	mr.FastForward(time.Minute + time.Second)

	require.NoError(t, l.Allow(ctx, 42))
}

func TestRedis_Allow_ExpireFailsClosed(t *testing.T) {
	_, client := newTestRedis(t)
	client.AddHook(&failExpireOnce{})

	l := New(client, Config{MaxRefresh: 2, Window: time.Minute, KeyPrefix: "test"}, testutil.MakeNoopLogger())

	require.ErrorIs(t, l.Allow(context.Background(), 42), model.ErrUnavailable)
	require.NoError(t, l.Allow(context.Background(), 42))
}
