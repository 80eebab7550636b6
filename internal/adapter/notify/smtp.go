package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"coop-ledger/internal/usecase/events"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// SMTP delivers member notifications as plain-text email.
type SMTP struct {
	addr string
	from string
	auth smtp.Auth
	log  *logrus.Logger
	send sendFunc
}

func NewSMTP(host, port, user, pass, from string, log *logrus.Logger) *SMTP {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return &SMTP{
		addr: host + ":" + port,
		from: from,
		auth: auth,
		log:  log,
		send: func(e *email.Email, addr string, a smtp.Auth) error { return e.Send(addr, a) },
	}
}

func (s *SMTP) Notify(ctx context.Context, n events.Notification) error {
	if n.Email == "" {
		s.log.WithField("member_id", n.MemberID).Debug("member has no email, notification skipped")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.from
	e.To = []string{n.Email}
	e.Subject = n.Subject
	body := "Dear member,\n\n"
	if n.Name != "" {
		body = fmt.Sprintf("Dear %s,\n\n", n.Name)
	}
	body += n.Body + "\n\nBest regards,\nCooperative Savings"
	e.Text = []byte(body)

	if err := s.send(e, s.addr, s.auth); err != nil {
		s.log.WithError(err).WithField("member_id", n.MemberID).Error("failed to send email")
		return fmt.Errorf("send email: %w", err)
	}
	s.log.WithFields(logrus.Fields{"member_id": n.MemberID, "subject": n.Subject}).Info("email sent")
	return nil
}
