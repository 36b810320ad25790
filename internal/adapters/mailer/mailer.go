package mailer

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/cenkalti/backoff/v4"

	pkglog "github.com/chintakjoshi/authapp/pkg/log"
)

// Mailer delivers a notification email. Send is fire-and-forget: the
// workflows must never block on, or fail because of, mail delivery.
type Mailer interface {
	Send(to, subject, body string)
}

type smtpMailer struct {
	addr   string
	from   string
	logger pkglog.Logger
}

func NewSMTPMailer(logger pkglog.Logger, host, port, from string) Mailer {
	return &smtpMailer{addr: host + ":" + port, from: from, logger: logger}
}

func (m *smtpMailer) Send(to, subject, body string) {
	go func() {
		msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
			m.from, to, subject, body))

		op := func() error {
			return smtp.SendMail(m.addr, nil, m.from, []string{to}, msg)
		}

		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 500 * time.Millisecond
		bo.MaxElapsedTime = 30 * time.Second
		if err := backoff.Retry(op, bo); err != nil {
			// Delivery failures never surface to the workflows.
			m.logger.Warn().Err(err).Str("to", to).Str("subject", subject).Msg("mail delivery failed")
		}
	}()
}
