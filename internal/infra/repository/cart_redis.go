package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cartLockPoll = 25 * time.Millisecond

// 自分のトークンの時だけ消す
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// 自分のトークンの時だけ延長する
var extendLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// セッションのカートをRedisに保存する。TTLはセッションと同じ。
type CartRedisStore struct {
	client   *redis.Client
	ttl      time.Duration
	lockWait time.Duration
	// 保持者が落ちた時の自動解放まで。保持中は lockTTL/3 ごとに延長する。
	lockTTL time.Duration
	now     func() time.Time
}

// DI
func NewCartRedisStore(client *redis.Client, ttl, lockWait, lockTTL time.Duration) *CartRedisStore {
	return &CartRedisStore{
		client:   client,
		ttl:      ttl,
		lockWait: lockWait,
		lockTTL:  lockTTL,
		now:      time.Now,
	}
}

var _ repo.CartStore = (*CartRedisStore)(nil)

func (s *CartRedisStore) Get(ctx context.Context, sessionID string) (model.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.NewCart(sessionID), nil
	}
	if err != nil {
		return model.Cart{}, fmt.Errorf("redis get failed: %w", err)
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return model.Cart{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	cart.SessionID = sessionID
	if cart.Lines == nil {
		cart.Lines = []model.CartLine{}
	}
	return cart, nil
}

func (s *CartRedisStore) Save(ctx context.Context, cart model.Cart) error {
	cart.UpdatedAt = s.now()
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := s.client.Set(ctx, cartKey(cart.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *CartRedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// SET NX PX で取れるまで待つ。lockWaitを過ぎたら ErrCartLocked。
func (s *CartRedisStore) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := lockKey(sessionID)
	token := uuid.NewString()
	deadline := s.now().Add(s.lockWait)

	for {
		ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock failed: %w", err)
		}
		if ok {
			return s.unlockFunc(key, token), nil
		}

		if !s.now().Before(deadline) {
			return nil, repo.ErrCartLocked
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cartLockPoll):
		}
	}
}

func (s *CartRedisStore) unlockFunc(key, token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go s.keepLock(key, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// リクエストのctxが切れていても解放する
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = releaseLockScript.Run(ctx, s.client, []string{key}, token).Err()
		})
	}
}

// 保持している間はTTLを延ばし続ける（遅いDB書き込み中に他のリクエストが取らないように）
func (s *CartRedisStore) keepLock(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.lockTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			n, err := extendLockScript.Run(ctx, s.client, []string{key}, token, s.lockTTL.Milliseconds()).Int()
			cancel()
			// 既に他人のロック or 消えている
			if err == nil && n == 0 {
				return
			}
		}
	}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func lockKey(sessionID string) string {
	return fmt.Sprintf("cart:%s:lock", sessionID)
}
