package notify

import (
	"context"

	"coop-ledger/internal/usecase/events"

	"github.com/sirupsen/logrus"
)

// Log writes notifications to the application log. Used when SMTP is not configured.
type Log struct {
	log *logrus.Logger
}

func NewLog(log *logrus.Logger) *Log { return &Log{log: log} }

func (l *Log) Notify(_ context.Context, n events.Notification) error {
	l.log.WithFields(logrus.Fields{
		"member_id": n.MemberID,
		"email":     n.Email,
		"subject":   n.Subject,
	}).Info(n.Body)
	return nil
}
