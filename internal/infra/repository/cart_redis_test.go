package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	domainrepo "storefront/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, lockWait time.Duration) (*CartRedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCartRedisStore(client, time.Hour, lockWait, 10*time.Second), mr
}

func TestCartRedisStore_GetMissingReturnsEmpty(t *testing.T) {
	store, _ := setupTestRedis(t, time.Second)

	cart, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", cart.SessionID)
	assert.True(t, cart.IsEmpty())
}

func TestCartRedisStore_SaveGetClear(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t, time.Second)

	cart := model.NewCart("s1")
	cart.Add(model.Product{ID: 1, Name: "Solar Panels", Price: dec("5.00")})
	cart.Add(model.Product{ID: 1, Name: "Solar Panels", Price: dec("5.00")})
	require.NoError(t, store.Save(ctx, cart))

	assert.True(t, mr.Exists("cart:s1"))
	assert.Equal(t, time.Hour, mr.TTL("cart:s1"))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int64(2), got.Lines[0].Quantity)
	assert.True(t, dec("10.00").Equal(got.Total()))
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, store.Clear(ctx, "s1"))
	assert.False(t, mr.Exists("cart:s1"))
}

func TestCartRedisStore_ExpiresWithSession(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t, time.Second)

	cart := model.NewCart("s1")
	cart.Add(model.Product{ID: 3, Name: "Cables", Price: dec("1.00")})
	require.NoError(t, store.Save(ctx, cart))

	mr.FastForward(time.Hour + time.Second)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestCartRedisStore_InvalidJSON(t *testing.T) {
	store, mr := setupTestRedis(t, time.Second)
	require.NoError(t, mr.Set("cart:s1", "{not json"))

	_, err := store.Get(context.Background(), "s1")
	assert.Error(t, err)
}

func TestCartRedisStore_LockIsExclusive(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t, 60*time.Millisecond)

	unlock, err := store.Lock(ctx, "s1")
	require.NoError(t, err)

	_, err = store.Lock(ctx, "s1")
	assert.ErrorIs(t, err, domainrepo.ErrCartLocked)

	// 別セッションは関係ない
	unlockOther, err := store.Lock(ctx, "s2")
	require.NoError(t, err)
	unlockOther()

	unlock()
	unlock2, err := store.Lock(ctx, "s1")
	require.NoError(t, err)
	unlock2()
}

func TestCartRedisStore_StaleUnlockKeepsNewHolder(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t, 60*time.Millisecond)

	staleUnlock, err := store.Lock(ctx, "s1")
	require.NoError(t, err)

	// 自動解放された後に別の保持者が取る
	mr.FastForward(store.lockTTL + time.Second)
	_, err = store.Lock(ctx, "s1")
	require.NoError(t, err)

	staleUnlock()
	assert.True(t, mr.Exists("cart:s1:lock"))
}

func TestCartRedisStore_LockIsExtendedWhileHeld(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewCartRedisStore(client, time.Hour, 60*time.Millisecond, 300*time.Millisecond)

	unlock, err := store.Lock(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, mr.TTL("cart:s1:lock"))

	// 延長が無ければ残り100msのはず
	mr.FastForward(200 * time.Millisecond)
	require.Eventually(t, func() bool {
		return mr.TTL("cart:s1:lock") > 200*time.Millisecond
	}, time.Second, 10*time.Millisecond)

	// 保持中は二重に取れない
	_, err = store.Lock(ctx, "s1")
	assert.ErrorIs(t, err, domainrepo.ErrCartLocked)

	unlock()
	assert.False(t, mr.Exists("cart:s1:lock"))

	// 解放後は延長されない
	require.NoError(t, mr.Set("cart:s1:lock", "other"))
	mr.SetTTL("cart:s1:lock", 50*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, mr.TTL("cart:s1:lock"))
}

func TestCartRedisStore_ConcurrentAddsSerialise(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestRedis(t, 5*time.Second)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := store.Lock(ctx, "s1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			cart, err := store.Get(ctx, "s1")
			if !assert.NoError(t, err) {
				return
			}
			cart.Add(model.Product{ID: 1, Name: "Solar Panels", Price: dec("5.00")})
			assert.NoError(t, store.Save(ctx, cart))
		}()
	}
	wg.Wait()

	cart, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(n), cart.Lines[0].Quantity)
}
