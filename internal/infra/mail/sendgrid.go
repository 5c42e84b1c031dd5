package mail

import (
	"context"
	"fmt"

	"storefront/internal/notification"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridEndpoint = "/v3/mail/send"

// SendGrid でメール送信
type SendGridMailer struct {
	apiKey string
	from   string
	host   string // 空ならSendGrid本番
}

var _ notification.Mailer = (*SendGridMailer)(nil)

func NewSendGridMailer(apiKey, from, host string) *SendGridMailer {
	if host == "" {
		host = "https://api.sendgrid.com"
	}
	return &SendGridMailer{apiKey: apiKey, from: from, host: host}
}

func (m *SendGridMailer) Send(ctx context.Context, msg notification.Message) error {
	email := sgmail.NewSingleEmail(
		sgmail.NewEmail("Solare", m.from),
		msg.Subject,
		sgmail.NewEmail("", msg.To),
		msg.TextBody,
		msg.HTMLBody,
	)

	req := sendgrid.GetRequest(m.apiKey, sendGridEndpoint, m.host)
	req.Method = "POST"
	req.Body = sgmail.GetRequestBody(email)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status=%d body=%s", res.StatusCode, res.Body)
	}
	return nil
}
