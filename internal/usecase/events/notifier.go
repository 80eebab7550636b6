package events

import "context"

// Notification is a rendered message for one member.
type Notification struct {
	MemberID string
	Email    string
	Name     string
	Subject  string
	Body     string
}

// Notifier delivers member notifications. Implementations live in adapter/notify.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
