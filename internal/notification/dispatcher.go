package notification

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/metrics"
	"storefront/internal/usecase"
)

// レシートの送信先（メール / Kafkaなど）
type Notifier interface {
	Name() string
	Notify(ctx context.Context, receipt model.Receipt) error
}

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	Timeout     time.Duration // 1回の送信の上限
	MaxAttempts int
	Backoff     time.Duration // 試行ごとに Backoff*n 待つ
}

// Dispatcher はレシート送信をチェックアウトから切り離す。
// キューが満杯なら捨ててログに残す（注文は確定済み）。
type Dispatcher struct {
	cfg       DispatcherConfig
	notifiers []Notifier
	queue     chan model.Receipt
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	metrics   *metrics.Metrics
	log       *slog.Logger
}

var _ usecase.ReceiptDispatcher = (*Dispatcher)(nil)

// DI（workerもここで起動）
func NewDispatcher(cfg DispatcherConfig, m *metrics.Metrics, log *slog.Logger, notifiers ...Notifier) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := &Dispatcher{
		cfg:       cfg,
		notifiers: notifiers,
		queue:     make(chan model.Receipt, cfg.QueueSize),
		metrics:   m,
		log:       log,
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// ブロックしない。受け付けた場合true。
func (d *Dispatcher) Dispatch(receipt model.Receipt) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Error("receipt dropped: dispatcher closed", "order_id", receipt.OrderID)
		d.metrics.Notification("dispatcher", "dropped")
		return false
	}

	select {
	case d.queue <- receipt:
		return true
	default:
		d.log.Error("receipt dropped: queue full", "order_id", receipt.OrderID)
		d.metrics.Notification("dispatcher", "dropped")
		return false
	}
}

// 受付を止めて、キューに残った分を送り切るまで待つ
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for receipt := range d.queue {
		// 送信先ごとに独立してリトライ
		for _, n := range d.notifiers {
			d.deliver(n, receipt)
		}
	}
}

func (d *Dispatcher) deliver(n Notifier, receipt model.Receipt) {
	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
		err := n.Notify(ctx, receipt)
		cancel()

		if err == nil {
			d.metrics.Notification(n.Name(), "sent")
			return
		}
		lastErr = err

		if attempt < d.cfg.MaxAttempts {
			d.log.Warn("receipt notify failed, retrying",
				"notifier", n.Name(), "order_id", receipt.OrderID, "attempt", attempt, "err", err)
			d.metrics.Notification(n.Name(), "retry")
			time.Sleep(d.cfg.Backoff * time.Duration(attempt))
		}
	}

	err := fmt.Errorf("%w: %s: %v", usecase.ErrNotificationFailure, n.Name(), lastErr)
	d.log.Error("receipt notify gave up",
		"notifier", n.Name(), "order_id", receipt.OrderID, "attempts", d.cfg.MaxAttempts, "err", err)
	d.metrics.Notification(n.Name(), "failed")
}
