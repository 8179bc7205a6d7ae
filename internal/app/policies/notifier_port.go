package policies

import (
	"context"
)

// Notification is a user-facing message triggered by a lifecycle change.
type Notification struct {
	Recipient string
	Kind      string
	Subject   string
	Body      string
	Meta      map[string]string
}

// NotifierPort delivers notifications. Delivery failures must never fail the
// business operation; adapters log and drop.
type NotifierPort interface {
	Notify(ctx context.Context, n Notification) error
}
