package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// EmailDispatcher шлёт письмо пользователю. События без адреса пропускаются.
type EmailDispatcher struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewEmailDispatcher(cfg SMTPConfig) *EmailDispatcher {
	return &EmailDispatcher{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (d *EmailDispatcher) Dispatch(ctx context.Context, event Event) error {
	if event.Recipient == "" {
		return nil
	}
	subject, body, ok := renderEmail(event)
	if !ok {
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", d.cfg.FromEmail, d.cfg.FromName)
	m.SetHeader("To", event.Recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func renderEmail(event Event) (subject, body string, ok bool) {
	switch event.Type {
	case EventSubscriptionActivated:
		return "Your subscription is active",
			fmt.Sprintf("<p>Your <b>%s</b> plan is active until %s.</p>",
				event.Data["plan"], event.Data["endDate"]), true
	case EventAdPromoted:
		return "Your ad is promoted",
			fmt.Sprintf("<p>Ad %s is promoted until %s.</p>",
				event.Data["adNumber"], event.Data["endDate"]), true
	default:
		return "", "", false
	}
}
