package bot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"printbot/internal/dialog"
	"printbot/internal/event"
	"printbot/internal/keyboard"
	"printbot/internal/order"
)

// notifyOperator sends the new-order notification to the operator channel and
// attaches the status keyboard anchored to that message. Fire-and-forget:
// failures are logged, the end user's own confirmation is already queued.
func (h *Handler) notifyOperator(ctx context.Context, o *order.Order) {
	if h.cfg.OperatorChannelID == 0 {
		h.logger.Warn("Operator notifications disabled - no channel ID configured")
		return
	}

	text := fmt.Sprintf(dialog.MsgExecutorNewOrder, formatOrderDetails(o))
	msgID, err := h.sender.Send(ctx, h.cfg.OperatorChannelID, event.Reply{Text: text})
	if err != nil {
		h.logger.Error("Failed to send operator notification",
			zap.Int64("order_id", o.ID),
			zap.Error(err))
		return
	}

	// The status buttons encode the message id they live on, so the keyboard
	// is attached after the send, once the id is known.
	kb := keyboard.Status(o.ID, msgID)
	if err := h.sender.EditKeyboard(ctx, h.cfg.OperatorChannelID, msgID, kb); err != nil {
		h.logger.Error("Failed to attach status keyboard",
			zap.Int64("order_id", o.ID),
			zap.Error(err))
	}
}

func formatOrderDetails(o *order.Order) string {
	file := "not provided"
	if o.FileName != "" {
		file = o.FileName
	} else if o.FileID != "" {
		file = o.FileID
	}
	return fmt.Sprintf(
		"Order number: %s\n"+
			"Description: %s\n"+
			"Pages: %d\n"+
			"Print type: %s\n"+
			"Color: %s\n"+
			"Paper: %s\n"+
			"File: %s\n"+
			"Cost: %.2f\n"+
			"Status: %s",
		o.OrderNumber, o.Description, o.Pages, o.PrintType,
		o.Color, o.Paper, file, o.Cost, o.Status,
	)
}
