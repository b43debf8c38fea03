// Package keyboard builds the bot's inline keyboards and encodes/decodes the
// callback payloads their buttons carry. Builders are pure: no transport
// types, no state.
package keyboard

import (
	"fmt"
	"strconv"
	"strings"

	"printbot/internal/event"
	"printbot/internal/order"
)

// Callback verbs.
const (
	VerbConfirmOrder = "confirm_order"
	VerbCancelOrder  = "cancel_order"
	VerbUpdateStatus = "update_status"
)

const payloadSep = ":"

// Confirmation is the two-button keyboard shown with the order summary.
func Confirmation() *event.Keyboard {
	return &event.Keyboard{Rows: [][]event.Button{{
		{Label: "Confirm", Payload: VerbConfirmOrder},
		{Label: "Cancel", Payload: VerbCancelOrder},
	}}}
}

// Status is the operator keyboard for driving the order lifecycle. Every
// button carries the order id and the message id it is anchored to, so the
// handler can re-render the keyboard in place after each update.
func Status(orderID int64, originMessageID int) *event.Keyboard {
	statuses := []order.Status{
		order.StatusCanceled,
		order.StatusAccepted,
		order.StatusPaid,
		order.StatusCompleted,
	}
	row := make([]event.Button, 0, len(statuses))
	for _, st := range statuses {
		row = append(row, event.Button{
			Label:   string(st),
			Payload: EncodeStatusUpdate(orderID, st, originMessageID),
		})
	}
	return &event.Keyboard{Rows: [][]event.Button{row}}
}

// EncodeStatusUpdate builds an update_status payload.
func EncodeStatusUpdate(orderID int64, status order.Status, originMessageID int) string {
	return strings.Join([]string{
		VerbUpdateStatus,
		strconv.FormatInt(orderID, 10),
		string(status),
		strconv.Itoa(originMessageID),
	}, payloadSep)
}

// Action is a parsed callback payload.
type Action struct {
	Verb            string
	OrderID         int64
	Status          string
	OriginMessageID int
}

// ParseAction decodes a callback payload. Malformed payloads return an error
// instead of panicking; the caller decides whether to ignore them.
func ParseAction(payload string) (Action, error) {
	parts := strings.Split(payload, payloadSep)
	switch parts[0] {
	case VerbConfirmOrder, VerbCancelOrder:
		if len(parts) != 1 {
			return Action{}, fmt.Errorf("unexpected arguments in %q", payload)
		}
		return Action{Verb: parts[0]}, nil
	case VerbUpdateStatus:
		if len(parts) != 4 {
			return Action{}, fmt.Errorf("malformed update_status payload %q", payload)
		}
		orderID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("bad order id in %q: %w", payload, err)
		}
		msgID, err := strconv.Atoi(parts[3])
		if err != nil {
			return Action{}, fmt.Errorf("bad message id in %q: %w", payload, err)
		}
		return Action{
			Verb:            VerbUpdateStatus,
			OrderID:         orderID,
			Status:          parts[2],
			OriginMessageID: msgID,
		}, nil
	default:
		return Action{}, fmt.Errorf("unknown callback verb in %q", payload)
	}
}
