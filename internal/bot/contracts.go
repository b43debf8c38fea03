package bot

import (
	"context"

	"printbot/internal/event"
	"printbot/internal/order"
)

// Sender delivers outbound messages. Send returns the id of the sent message
// so keyboards can later be re-rendered in place.
type Sender interface {
	Send(ctx context.Context, chatID int64, reply event.Reply) (int, error)
	EditKeyboard(ctx context.Context, chatID int64, messageID int, kb *event.Keyboard) error
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
}

// OrderService is the order lifecycle collaborator.
type OrderService interface {
	NewOrderNumber() string
	Confirm(ctx context.Context, o *order.Order) error
	Cancel(ctx context.Context, o *order.Order) error
	ListByUser(ctx context.Context, userID int64) ([]order.Order, error)
	UpdateStatus(ctx context.Context, id int64, status order.Status) (*order.Order, error)
}

// UserStore records known users.
type UserStore interface {
	UpsertUser(ctx context.Context, u order.User) (*order.User, error)
}

// Exporter produces operator order reports.
type Exporter interface {
	ExportOrdersToExcel(ctx context.Context) (string, error)
}
