package order

import (
	"fmt"
	"strings"
	"time"
)

// Status is the order lifecycle state driven by the operator.
type Status string

const (
	StatusCanceled  Status = "CANCELED"
	StatusAccepted  Status = "ACCEPTED"
	StatusPaid      Status = "PAID"
	StatusCompleted Status = "COMPLETED"
)

// ParseStatus validates an operator-supplied status token.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusCanceled, StatusAccepted, StatusPaid, StatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

type Order struct {
	ID           int64     `db:"id"`
	OrderNumber  string    `db:"order_number"`
	UserID       int64     `db:"user_id"`
	Description  string    `db:"description"`
	Pages        int       `db:"pages"`
	PrintType    string    `db:"print_type"`
	Color        string    `db:"color"`
	Paper        string    `db:"paper"`
	FileID       string    `db:"file_id"`
	FileName     string    `db:"file_name"`
	Cost         float64   `db:"cost"`
	CancelReason string    `db:"cancel_reason"`
	Status       Status    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
}

type User struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	CreatedAt  time.Time `db:"created_at"`
}
