package repository

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type memoryCartEntry struct {
	cart      model.Cart
	expiresAt time.Time
}

// 待っている人数が0になったら locks から消す
type memoryCartLock struct {
	ch   chan struct{}
	refs int
}

// REDIS_ADDR 未設定の開発用。プロセス内だけで共有。
type CartMemoryStore struct {
	mu        sync.Mutex
	carts     map[string]memoryCartEntry
	locks     map[string]*memoryCartLock
	ttl       time.Duration
	lockWait  time.Duration
	nextSweep time.Time
	now       func() time.Time
}

// DI
func NewCartMemoryStore(ttl time.Duration, lockWait time.Duration) *CartMemoryStore {
	return &CartMemoryStore{
		carts:    map[string]memoryCartEntry{},
		locks:    map[string]*memoryCartLock{},
		ttl:      ttl,
		lockWait: lockWait,
		now:      time.Now,
	}
}

var _ repo.CartStore = (*CartMemoryStore)(nil)

func (s *CartMemoryStore) Get(ctx context.Context, sessionID string) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	e, ok := s.carts[sessionID]
	if !ok {
		return model.NewCart(sessionID), nil
	}
	// 期限切れはセッションと一緒に消える
	if !now.Before(e.expiresAt) {
		delete(s.carts, sessionID)
		return model.NewCart(sessionID), nil
	}

	cart := e.cart
	cart.Lines = e.cart.Snapshot()
	return cart, nil
}

func (s *CartMemoryStore) Save(ctx context.Context, cart model.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	cart.UpdatedAt = now
	cart.Lines = cart.Snapshot()
	s.carts[cart.SessionID] = memoryCartEntry{cart: cart, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *CartMemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}

// 期限切れを一括で消す。間隔はTTLごと（mu を持って呼ぶ）。
func (s *CartMemoryStore) sweepLocked(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for id, e := range s.carts {
		if !now.Before(e.expiresAt) {
			delete(s.carts, id)
		}
	}
	s.nextSweep = now.Add(s.ttl)
}

// セッションごとの1枠チャネルで排他
func (s *CartMemoryStore) Lock(ctx context.Context, sessionID string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &memoryCartLock{ch: make(chan struct{}, 1)}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		s.releaseLock(sessionID, l)
		return nil, ctx.Err()
	case <-timer.C:
		s.releaseLock(sessionID, l)
		return nil, repo.ErrCartLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			s.releaseLock(sessionID, l)
		})
	}, nil
}

func (s *CartMemoryStore) releaseLock(sessionID string, l *memoryCartLock) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.refs--
	if l.refs == 0 && s.locks[sessionID] == l {
		delete(s.locks, sessionID)
	}
}
