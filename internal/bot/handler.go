package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"printbot/internal/config"
	"printbot/internal/dialog"
	"printbot/internal/event"
	"printbot/internal/keyboard"
	"printbot/internal/order"
)

const maxDocumentSize = 20 * 1024 * 1024 // 20 MiB

// Handler routes inbound events to the conversation controller or the
// operator status path and executes the resulting side effects. It is the
// only place that touches collaborators; no error escapes it.
type Handler struct {
	sessions dialog.Store
	orders   OrderService
	users    UserStore
	exporter Exporter
	sender   Sender
	cfg      *config.Config
	logger   *zap.Logger
}

func NewHandler(
	sessions dialog.Store,
	orders OrderService,
	users UserStore,
	exporter Exporter,
	sender Sender,
	cfg *config.Config,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		sessions: sessions,
		orders:   orders,
		users:    users,
		exporter: exporter,
		sender:   sender,
		cfg:      cfg,
		logger:   logger,
	}
}

// HandleEvent processes one inbound event to completion. The dispatcher
// guarantees it is never called concurrently for the same user.
func (h *Handler) HandleEvent(ctx context.Context, ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Recovered from panic in event handler",
				zap.Int64("user_id", ev.User()),
				zap.Any("panic", r))
		}
	}()

	switch e := ev.(type) {
	case event.CallbackAction:
		h.handleCallback(ctx, e)
	case event.DocumentMessage:
		h.handleDocument(ctx, e)
	case event.TextMessage:
		h.handleText(ctx, e)
	}
}

func (h *Handler) handleCallback(ctx context.Context, ev event.CallbackAction) {
	action, err := keyboard.ParseAction(ev.Payload)
	if err != nil {
		h.logger.Debug("Ignoring malformed callback payload",
			zap.Int64("user_id", ev.UserID),
			zap.String("payload", ev.Payload))
		return
	}

	// Status updates are an out-of-band operator action and bypass any
	// conversation state.
	if action.Verb == keyboard.VerbUpdateStatus {
		h.handleStatusUpdate(ctx, ev, action)
		return
	}

	sess, err := h.sessions.Get(ctx, ev.UserID)
	if err != nil {
		h.collaboratorFailure(ctx, ev.ChatID, "get session", err)
		return
	}
	if sess.State != dialog.StateAwaitingConfirmation {
		// Stale button press from an earlier dialog: no reply, no mutation.
		return
	}

	outcome := dialog.Advance(sess.State, sess.Draft, dialog.ActionInput{Verb: action.Verb})
	h.apply(ctx, ev.UserID, ev.ChatID, sess, outcome)
}

func (h *Handler) handleDocument(ctx context.Context, ev event.DocumentMessage) {
	if ev.SizeBytes > maxDocumentSize {
		h.reply(ctx, ev.ChatID, event.Reply{Text: dialog.MsgFileSizeError})
		return
	}
	if ev.MimeType != "application/pdf" {
		h.reply(ctx, ev.ChatID, event.Reply{
			Text: fmt.Sprintf(dialog.MsgValidationError, dialog.ReasonWrongFileType),
		})
		return
	}

	sess, err := h.sessions.Get(ctx, ev.UserID)
	if err != nil {
		h.collaboratorFailure(ctx, ev.ChatID, "get session", err)
		return
	}

	outcome := dialog.Advance(sess.State, sess.Draft, dialog.FileInput{
		FileID:   ev.FileID,
		FileName: ev.FileName,
	})
	h.apply(ctx, ev.UserID, ev.ChatID, sess, outcome)
}

func (h *Handler) handleText(ctx context.Context, ev event.TextMessage) {
	switch strings.TrimSpace(ev.Text) {
	case "/start":
		h.upsertUser(ctx, ev.UserID, ev.Username)
		h.reply(ctx, ev.ChatID, event.Reply{Text: dialog.MsgGreeting})
		return

	case "/create_order":
		h.startOrder(ctx, ev)
		return

	case "/my_orders":
		h.listOrders(ctx, ev)
		return

	case "/export":
		h.exportOrders(ctx, ev)
		return
	}

	sess, err := h.sessions.Get(ctx, ev.UserID)
	if err != nil {
		h.collaboratorFailure(ctx, ev.ChatID, "get session", err)
		return
	}

	if sess.State == dialog.StateIdle {
		// No dialog in progress: echo the text back.
		h.reply(ctx, ev.ChatID, event.Reply{Text: ev.Text})
		return
	}

	outcome := dialog.Advance(sess.State, sess.Draft, dialog.TextInput{Text: ev.Text})
	h.apply(ctx, ev.UserID, ev.ChatID, sess, outcome)
}

// startOrder re-initializes the session unconditionally: /create_order
// mid-dialog restarts the form, it never resumes.
func (h *Handler) startOrder(ctx context.Context, ev event.TextMessage) {
	h.upsertUser(ctx, ev.UserID, ev.Username)

	draft := &dialog.Draft{
		OrderNumber: h.orders.NewOrderNumber(),
		UserID:      ev.UserID,
	}
	sess := dialog.Session{State: dialog.StateAwaitingDescription, Draft: draft}
	if err := h.sessions.Set(ctx, ev.UserID, sess); err != nil {
		h.collaboratorFailure(ctx, ev.ChatID, "set session", err)
		return
	}

	h.reply(ctx, ev.ChatID, event.Reply{Text: dialog.MsgDescriptionRequest})
}

func (h *Handler) listOrders(ctx context.Context, ev event.TextMessage) {
	orders, err := h.orders.ListByUser(ctx, ev.UserID)
	if err != nil {
		h.collaboratorFailure(ctx, ev.ChatID, "list orders", err)
		return
	}
	if len(orders) == 0 {
		h.reply(ctx, ev.ChatID, event.Reply{Text: dialog.MsgNoOrders})
		return
	}

	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("Order ID: %d, Status: %s", o.ID, o.Status))
	}
	h.reply(ctx, ev.ChatID, event.Reply{
		Text: fmt.Sprintf(dialog.MsgMyOrders, strings.Join(lines, "\n")),
	})
}

func (h *Handler) exportOrders(ctx context.Context, ev event.TextMessage) {
	if !h.cfg.IsAdmin(ev.ChatID) {
		return
	}

	path, err := h.exporter.ExportOrdersToExcel(ctx)
	if err != nil {
		h.collaboratorFailure(ctx, ev.ChatID, "export orders", err)
		return
	}
	if err := h.sender.SendDocument(ctx, ev.ChatID, path, "Orders export"); err != nil {
		h.logger.Error("Failed to send export document",
			zap.Int64("chat_id", ev.ChatID),
			zap.Error(err))
	}
}

// apply commits a controller outcome: stores the new session state, executes
// terminal effects, and sends replies. On a collaborator failure during a
// terminal effect the session is left untouched so the user can retry.
func (h *Handler) apply(ctx context.Context, userID, chatID int64, sess dialog.Session, outcome dialog.Outcome) {
	switch outcome.Kind {
	case dialog.OutcomeStale:
		return

	case dialog.OutcomeValidation:
		h.sendReplies(ctx, chatID, outcome.Replies)
		return
	}

	switch outcome.Effect {
	case dialog.EffectConfirm:
		h.confirmOrder(ctx, userID, chatID, sess.Draft)

	case dialog.EffectCancel:
		h.cancelOrder(ctx, userID, chatID, outcome)

	default:
		next := dialog.Session{State: outcome.Next, Draft: outcome.Draft}
		if err := h.sessions.Set(ctx, userID, next); err != nil {
			h.collaboratorFailure(ctx, chatID, "set session", err)
			return
		}
		h.sendReplies(ctx, chatID, outcome.Replies)
	}
}

func (h *Handler) confirmOrder(ctx context.Context, userID, chatID int64, draft *dialog.Draft) {
	o := orderFromDraft(draft)
	if err := h.orders.Confirm(ctx, &o); err != nil {
		// Session survives so the user can tap Confirm again without
		// re-entering the whole form.
		h.collaboratorFailure(ctx, chatID, "confirm order", err)
		return
	}

	if err := h.sessions.Clear(ctx, userID); err != nil {
		h.logger.Error("Failed to clear session after confirmation",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}

	h.reply(ctx, chatID, event.Reply{
		Text: fmt.Sprintf(dialog.MsgOrderCreated, o.OrderNumber),
	})
	h.notifyOperator(ctx, &o)
}

func (h *Handler) cancelOrder(ctx context.Context, userID, chatID int64, outcome dialog.Outcome) {
	o := orderFromDraft(outcome.Draft)
	if err := h.orders.Cancel(ctx, &o); err != nil {
		h.collaboratorFailure(ctx, chatID, "cancel order", err)
		return
	}

	if err := h.sessions.Clear(ctx, userID); err != nil {
		h.logger.Error("Failed to clear session after cancellation",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}

	h.sendReplies(ctx, chatID, outcome.Replies)
}

func (h *Handler) handleStatusUpdate(ctx context.Context, ev event.CallbackAction, action keyboard.Action) {
	status, err := order.ParseStatus(action.Status)
	if err != nil {
		h.reply(ctx, ev.ChatID, event.Reply{
			Text: fmt.Sprintf(dialog.MsgValidationError, err.Error()),
		})
		return
	}

	o, err := h.orders.UpdateStatus(ctx, action.OrderID, status)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			h.reply(ctx, ev.ChatID, event.Reply{Text: dialog.MsgOrderNotFound})
			return
		}
		h.collaboratorFailure(ctx, ev.ChatID, "update status", err)
		return
	}

	// Re-render the same keyboard on the origin message so the operator can
	// keep driving the lifecycle from one place.
	kb := keyboard.Status(o.ID, action.OriginMessageID)
	if err := h.sender.EditKeyboard(ctx, ev.ChatID, action.OriginMessageID, kb); err != nil {
		h.logger.Error("Failed to re-render status keyboard",
			zap.Int64("order_id", o.ID),
			zap.Error(err))
	}

	// Tell the order's owner. Delivery failure is the operator's problem to
	// notice, not the user's.
	if _, err := h.sender.Send(ctx, o.UserID, event.Reply{
		Text: fmt.Sprintf(dialog.MsgStatusUpdated, o.Status),
	}); err != nil {
		h.logger.Warn("Failed to notify user about status change",
			zap.Int64("user_id", o.UserID),
			zap.Int64("order_id", o.ID),
			zap.Error(err))
	}
}

func (h *Handler) upsertUser(ctx context.Context, userID int64, username string) {
	if _, err := h.users.UpsertUser(ctx, order.User{TelegramID: userID, Username: username}); err != nil {
		h.logger.Error("Failed to upsert user",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}

func (h *Handler) sendReplies(ctx context.Context, chatID int64, replies []event.Reply) {
	for _, r := range replies {
		h.reply(ctx, chatID, r)
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, r event.Reply) {
	if _, err := h.sender.Send(ctx, chatID, r); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.String("text", r.Text),
			zap.Error(err))
	}
}

func (h *Handler) collaboratorFailure(ctx context.Context, chatID int64, op string, err error) {
	h.logger.Error("Collaborator failure",
		zap.String("operation", op),
		zap.Int64("chat_id", chatID),
		zap.Error(err))
	h.reply(ctx, chatID, event.Reply{Text: dialog.MsgUnknownError})
}

func orderFromDraft(d *dialog.Draft) order.Order {
	return order.Order{
		OrderNumber:  d.OrderNumber,
		UserID:       d.UserID,
		Description:  d.Description,
		Pages:        d.Pages,
		PrintType:    d.PrintType,
		Color:        d.Color,
		Paper:        d.Paper,
		FileID:       d.FileID,
		FileName:     d.FileName,
		CancelReason: d.CancelReason,
	}
}
