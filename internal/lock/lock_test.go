package lock

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterUnderLock increments a shared counter from many goroutines holding key.
func counterUnderLock(t *testing.T, l Locker, key string) int {
	t.Helper()

	counter := 0
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				unlock, err := l.Lock(context.Background(), key)
				if !assert.NoError(t, err) {
					return
				}
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
				unlock()
			}
		}()
	}
	wg.Wait()
	return counter
}

func TestKeyedMutex_Exclusive(t *testing.T) {
	k := NewKeyedMutex()
	assert.Equal(t, 200, counterUnderLock(t, k, "abc-def-ghi"))
	assert.Equal(t, 0, k.size(), "idle keys are dropped")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := NewKeyedMutex()

	unlockA, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := k.Lock(ctx, "b")
	require.NoError(t, err, "a different key must not block")
	unlockB()
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	k := NewKeyedMutex()

	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Equal(t, 0, k.size())
}

func TestKeyedMutex_UnlockIsIdempotent(t *testing.T) {
	k := NewKeyedMutex()

	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()
	unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	again, err := k.Lock(ctx, "a")
	require.NoError(t, err)
	again()
}

// Set TEST_REDIS_ADDR (e.g. localhost:6379) to run against a real server.
func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	r, err := NewRedisLocker(context.Background(), addr, nil)
	require.NoError(t, err)
	defer r.Close()

	key := "test-" + time.Now().Format("150405.000000")
	assert.Equal(t, 200, counterUnderLock(t, r, key))

	unlock, err := r.Lock(context.Background(), key)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = r.Lock(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	unlock()
}

func TestNewRedisLocker_Errors(t *testing.T) {
	_, err := NewRedisLocker(context.Background(), "", nil)
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err = NewRedisLocker(ctx, "127.0.0.1:1", nil)
	assert.Error(t, err)
}
