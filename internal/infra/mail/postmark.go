package mail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/notification"

	"github.com/keighl/postmark"
)

// Postmark でメール送信
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

var _ notification.Mailer = (*PostmarkMailer)(nil)

func NewPostmarkMailer(serverToken, from string) *PostmarkMailer {
	client := postmark.NewClient(serverToken, "")
	client.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	return &PostmarkMailer{client: client, from: from}
}

func (m *PostmarkMailer) Send(ctx context.Context, msg notification.Message) error {
	// クライアントがctxを受け取らないので送信前だけ確認
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTMLBody,
		TextBody: msg.TextBody,
		Tag:      "receipt",
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	if res.ErrorCode != 0 {
		return fmt.Errorf("postmark send: code=%d %s", res.ErrorCode, res.Message)
	}
	return nil
}
