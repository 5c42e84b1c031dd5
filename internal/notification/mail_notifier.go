package notification

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"

	"github.com/sony/gobreaker/v2"
)

// メール送信の実装（Postmark / SendGrid / ログ）
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipient = errors.New("receipt has no recipient")

// レシートをメールで送る。送信側が落ちている間はブレーカーで即失敗。
type MailNotifier struct {
	mailer Mailer
	cb     *gobreaker.CircuitBreaker[struct{}]
}

func NewMailNotifier(mailer Mailer) *MailNotifier {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "mail",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &MailNotifier{mailer: mailer, cb: cb}
}

func (n *MailNotifier) Name() string {
	return "mail"
}

func (n *MailNotifier) Notify(ctx context.Context, receipt model.Receipt) error {
	if receipt.Email == "" {
		return ErrNoRecipient
	}

	msg, err := RenderReceipt(receipt)
	if err != nil {
		return err
	}

	_, err = n.cb.Execute(func() (struct{}, error) {
		return struct{}{}, n.mailer.Send(ctx, msg)
	})
	return err
}
