package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"printbot/internal/config"
	"printbot/internal/dialog"
	"printbot/internal/event"
	"printbot/internal/order"
)

const operatorChannel = int64(-500)

type sentMessage struct {
	ChatID int64
	Reply  event.Reply
	ID     int
}

type keyboardEdit struct {
	ChatID    int64
	MessageID int
	Keyboard  *event.Keyboard
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []sentMessage
	edits  []keyboardEdit
	docs   []string
	nextID int
}

func (f *fakeSender) Send(_ context.Context, chatID int64, reply event.Reply) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Reply: reply, ID: f.nextID})
	return f.nextID, nil
}

func (f *fakeSender) EditKeyboard(_ context.Context, chatID int64, messageID int, kb *event.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, keyboardEdit{ChatID: chatID, MessageID: messageID, Keyboard: kb})
	return nil
}

func (f *fakeSender) SendDocument(_ context.Context, chatID int64, path, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, path)
	return nil
}

func (f *fakeSender) sentTo(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSender) lastTo(chatID int64) (sentMessage, bool) {
	msgs := f.sentTo(chatID)
	if len(msgs) == 0 {
		return sentMessage{}, false
	}
	return msgs[len(msgs)-1], true
}

type fakeOrderService struct {
	mu         sync.Mutex
	numbers    int
	confirmed  []order.Order
	canceled   []order.Order
	store      map[int64]*order.Order
	nextID     int64
	confirmErr error
	rate       float64
}

func newFakeOrderService() *fakeOrderService {
	return &fakeOrderService{store: make(map[int64]*order.Order), rate: 1.0}
}

func (f *fakeOrderService) NewOrderNumber() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.numbers++
	return fmt.Sprintf("ord-%d", f.numbers)
}

func (f *fakeOrderService) Confirm(_ context.Context, o *order.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmErr != nil {
		return f.confirmErr
	}
	f.nextID++
	o.ID = f.nextID
	o.Status = order.StatusAccepted
	o.Cost = float64(o.Pages) * f.rate
	saved := *o
	f.store[o.ID] = &saved
	f.confirmed = append(f.confirmed, saved)
	return nil
}

func (f *fakeOrderService) Cancel(_ context.Context, o *order.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	o.ID = f.nextID
	o.Status = order.StatusCanceled
	saved := *o
	f.store[o.ID] = &saved
	f.canceled = append(f.canceled, saved)
	return nil
}

func (f *fakeOrderService) ListByUser(_ context.Context, userID int64) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []order.Order
	for _, o := range f.store {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderService) UpdateStatus(_ context.Context, id int64, status order.Status) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.store[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Status = status
	copied := *o
	return &copied, nil
}

func (f *fakeOrderService) stored(id int64) *order.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.store[id]; ok {
		copied := *o
		return &copied
	}
	return nil
}

type fakeUserStore struct {
	mu       sync.Mutex
	upserted []order.User
}

func (f *fakeUserStore) UpsertUser(_ context.Context, u order.User) (*order.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, u)
	return &u, nil
}

type fakeExporter struct{ path string }

func (f *fakeExporter) ExportOrdersToExcel(context.Context) (string, error) {
	return f.path, nil
}

type fixture struct {
	handler  *Handler
	sessions *dialog.MemoryStore
	orders   *fakeOrderService
	users    *fakeUserStore
	sender   *fakeSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := dialog.NewMemoryStore(0)
	orders := newFakeOrderService()
	users := &fakeUserStore{}
	sender := &fakeSender{}
	cfg := &config.Config{
		OperatorChannelID: operatorChannel,
		AdminIDs:          []int64{900},
	}
	h := NewHandler(sessions, orders, users, &fakeExporter{path: "reports/out.xlsx"}, sender, cfg, zap.NewNop())
	return &fixture{handler: h, sessions: sessions, orders: orders, users: users, sender: sender}
}

func (fx *fixture) text(userID int64, text string) {
	fx.handler.HandleEvent(context.Background(), event.TextMessage{
		UserID: userID, ChatID: userID, Text: text,
	})
}

func (fx *fixture) document(userID int64, mime string, size int64, fileID, fileName string) {
	fx.handler.HandleEvent(context.Background(), event.DocumentMessage{
		UserID: userID, ChatID: userID,
		MimeType: mime, SizeBytes: size, FileID: fileID, FileName: fileName,
	})
}

func (fx *fixture) callback(userID int64, originMessageID int, payload string) {
	fx.handler.HandleEvent(context.Background(), event.CallbackAction{
		UserID: userID, ChatID: userID,
		OriginMessageID: originMessageID, Payload: payload,
	})
}

func (fx *fixture) fillForm(userID int64) {
	fx.text(userID, "/create_order")
	fx.text(userID, "Poster print")
	fx.text(userID, "5")
	fx.text(userID, "color laser")
	fx.text(userID, "color")
	fx.text(userID, "glossy")
	fx.document(userID, "application/pdf", 1024, "file-1", "poster.pdf")
}

func (fx *fixture) state(t *testing.T, userID int64) dialog.State {
	t.Helper()
	sess, err := fx.sessions.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("Get session failed: %v", err)
	}
	return sess.State
}

func TestCreateOrderScenario(t *testing.T) {
	fx := newFixture(t)
	const user = int64(10)

	fx.fillForm(user)

	if got := fx.state(t, user); got != dialog.StateAwaitingConfirmation {
		t.Fatalf("state = %s, want awaiting confirmation", got)
	}

	last, ok := fx.sender.lastTo(user)
	if !ok {
		t.Fatal("no confirmation message sent")
	}
	for _, want := range []string{"Poster print", "Pages: 5", "color laser", "Color: color", "glossy", "poster.pdf"} {
		if !strings.Contains(last.Reply.Text, want) {
			t.Errorf("confirmation summary missing %q:\n%s", want, last.Reply.Text)
		}
	}
	if last.Reply.Keyboard == nil || len(last.Reply.Keyboard.Rows[0]) != 2 {
		t.Fatalf("expected two-button keyboard, got %+v", last.Reply.Keyboard)
	}

	fx.callback(user, last.ID, "confirm_order")

	if len(fx.orders.confirmed) != 1 {
		t.Fatalf("confirmed orders = %d, want exactly 1", len(fx.orders.confirmed))
	}
	o := fx.orders.confirmed[0]
	if o.Pages != 5 {
		t.Errorf("pages = %d, want 5", o.Pages)
	}
	if o.Cost != 5.0 {
		t.Errorf("cost = %.2f, want computed cost", o.Cost)
	}

	created, ok := fx.sender.lastTo(user)
	if !ok || created.Reply.Text != fmt.Sprintf(dialog.MsgOrderCreated, o.OrderNumber) {
		t.Errorf("order created reply = %+v", created.Reply)
	}

	notifications := fx.sender.sentTo(operatorChannel)
	if len(notifications) != 1 {
		t.Fatalf("operator notifications = %d, want exactly 1", len(notifications))
	}
	for _, want := range []string{"Poster print", "Pages: 5", "color laser", "Color: color", "glossy", "poster.pdf"} {
		if !strings.Contains(notifications[0].Reply.Text, want) {
			t.Errorf("operator notification missing %q", want)
		}
	}

	// The status keyboard is attached to the notification message.
	if len(fx.sender.edits) != 1 || fx.sender.edits[0].MessageID != notifications[0].ID {
		t.Errorf("status keyboard edits = %+v", fx.sender.edits)
	}

	if got := fx.state(t, user); got != dialog.StateIdle {
		t.Errorf("state after confirm = %s, want idle", got)
	}
}

func TestCancelScenario(t *testing.T) {
	fx := newFixture(t)
	const user = int64(11)

	fx.fillForm(user)
	fx.callback(user, 1, "cancel_order")

	last, _ := fx.sender.lastTo(user)
	if last.Reply.Text != dialog.MsgCancelReasonRequest {
		t.Fatalf("reply = %q, want cancel reason request", last.Reply.Text)
	}

	fx.text(user, "Wrong paper size")

	if len(fx.orders.canceled) != 1 {
		t.Fatalf("canceled orders = %d, want 1", len(fx.orders.canceled))
	}
	o := fx.orders.canceled[0]
	if o.Status != order.StatusCanceled {
		t.Errorf("status = %s, want CANCELED", o.Status)
	}
	if o.CancelReason != "Wrong paper size" {
		t.Errorf("cancel reason = %q", o.CancelReason)
	}

	last, _ = fx.sender.lastTo(user)
	if last.Reply.Text != dialog.MsgOrderCanceled {
		t.Errorf("reply = %q, want %q", last.Reply.Text, dialog.MsgOrderCanceled)
	}
	if got := fx.state(t, user); got != dialog.StateIdle {
		t.Errorf("state = %s, want idle", got)
	}
}

func TestCreateOrderRestartsDialog(t *testing.T) {
	fx := newFixture(t)
	const user = int64(12)

	fx.text(user, "/create_order")
	fx.text(user, "first description")
	fx.text(user, "/create_order")

	sess, _ := fx.sessions.Get(context.Background(), user)
	if sess.State != dialog.StateAwaitingDescription {
		t.Errorf("state = %s, want restarted at description", sess.State)
	}
	if sess.Draft.Description != "" {
		t.Errorf("draft carried over: %+v", sess.Draft)
	}
	if sess.Draft.OrderNumber == "ord-1" {
		t.Error("restart must assign a fresh order number")
	}
}

func TestDocumentRejectedWrongMime(t *testing.T) {
	fx := newFixture(t)
	const user = int64(13)

	states := []func(){
		func() {},                                    // idle
		func() { fx.text(user, "/create_order") },    // awaiting description
		func() { fx.text(user, "some description") }, // awaiting pages
	}
	for i, advance := range states {
		advance()
		before := fx.state(t, user)
		fx.document(user, "image/png", 1024, "f", "pic.png")

		last, ok := fx.sender.lastTo(user)
		if !ok || !strings.Contains(last.Reply.Text, "Validation error") {
			t.Errorf("step %d: reply = %+v, want validation error", i, last.Reply)
		}
		if got := fx.state(t, user); got != before {
			t.Errorf("step %d: state changed from %s to %s", i, before, got)
		}
	}
}

func TestDocumentRejectedTooLarge(t *testing.T) {
	fx := newFixture(t)
	const user = int64(14)
	fx.text(user, "/create_order")

	fx.document(user, "application/pdf", 21_000_000, "f", "big.pdf")

	last, _ := fx.sender.lastTo(user)
	if last.Reply.Text != dialog.MsgFileSizeError {
		t.Errorf("reply = %q, want %q", last.Reply.Text, dialog.MsgFileSizeError)
	}
	if got := fx.state(t, user); got != dialog.StateAwaitingDescription {
		t.Errorf("state = %s, want unchanged", got)
	}

	// Size wins even when the mime type is also wrong.
	fx.document(user, "image/png", 21_000_000, "f", "big.png")
	last, _ = fx.sender.lastTo(user)
	if last.Reply.Text != dialog.MsgFileSizeError {
		t.Errorf("reply = %q, want size error regardless of mime type", last.Reply.Text)
	}
}

func TestMyOrdersEmpty(t *testing.T) {
	fx := newFixture(t)
	fx.text(20, "/my_orders")

	last, ok := fx.sender.lastTo(20)
	if !ok || last.Reply.Text != "No orders found." {
		t.Errorf("reply = %+v, want exactly %q", last.Reply, "No orders found.")
	}
}

func TestMyOrdersLists(t *testing.T) {
	fx := newFixture(t)
	const user = int64(21)

	fx.fillForm(user)
	last, _ := fx.sender.lastTo(user)
	fx.callback(user, last.ID, "confirm_order")

	fx.text(user, "/my_orders")
	last, _ = fx.sender.lastTo(user)
	if !strings.HasPrefix(last.Reply.Text, "Your orders:\n") {
		t.Errorf("reply = %q", last.Reply.Text)
	}
	if !strings.Contains(last.Reply.Text, "Order ID: 1, Status: ACCEPTED") {
		t.Errorf("reply missing order line: %q", last.Reply.Text)
	}
}

func TestStatusUpdateIdempotent(t *testing.T) {
	fx := newFixture(t)
	fx.orders.store[42] = &order.Order{ID: 42, UserID: 33, OrderNumber: "ord-x", Status: order.StatusAccepted}

	payload := "update_status:42:ACCEPTED:7"
	for i := 0; i < 2; i++ {
		fx.callback(900, 7, payload)

		if got := fx.orders.stored(42).Status; got != order.StatusAccepted {
			t.Errorf("round %d: stored status = %s, want ACCEPTED", i+1, got)
		}
	}

	if len(fx.sender.edits) != 2 {
		t.Fatalf("keyboard edits = %d, want one per update", len(fx.sender.edits))
	}
	first, second := fx.sender.edits[0], fx.sender.edits[1]
	if first.MessageID != 7 || second.MessageID != 7 {
		t.Errorf("keyboard must stay anchored to origin message: %+v", fx.sender.edits)
	}
	for row := range first.Keyboard.Rows {
		for col := range first.Keyboard.Rows[row] {
			if first.Keyboard.Rows[row][col] != second.Keyboard.Rows[row][col] {
				t.Errorf("keyboards differ between identical updates")
			}
		}
	}
	if len(first.Keyboard.Rows[0]) != 4 {
		t.Errorf("status keyboard has %d buttons, want 4", len(first.Keyboard.Rows[0]))
	}

	// The order's owner is told about each update.
	if msgs := fx.sender.sentTo(33); len(msgs) != 2 {
		t.Errorf("owner notifications = %d, want 2", len(msgs))
	}
}

func TestStatusUpdateUnknownStatus(t *testing.T) {
	fx := newFixture(t)
	fx.orders.store[42] = &order.Order{ID: 42, Status: order.StatusAccepted}

	fx.callback(900, 7, "update_status:42:SHIPPED:7")

	last, ok := fx.sender.lastTo(900)
	if !ok || !strings.Contains(last.Reply.Text, "Validation error") {
		t.Errorf("reply = %+v, want validation error", last.Reply)
	}
	if got := fx.orders.stored(42).Status; got != order.StatusAccepted {
		t.Errorf("status mutated to %s on invalid token", got)
	}
}

func TestStatusUpdateNotFound(t *testing.T) {
	fx := newFixture(t)
	fx.callback(900, 7, "update_status:999:PAID:7")

	last, ok := fx.sender.lastTo(900)
	if !ok || last.Reply.Text != dialog.MsgOrderNotFound {
		t.Errorf("reply = %+v, want %q", last.Reply, dialog.MsgOrderNotFound)
	}
}

func TestStaleCallbackIgnored(t *testing.T) {
	fx := newFixture(t)
	const user = int64(30)

	// No dialog at all.
	fx.callback(user, 1, "confirm_order")
	// Mid-dialog but not at confirmation.
	fx.text(user, "/create_order")
	sentBefore := len(fx.sender.sentTo(user))
	fx.callback(user, 1, "cancel_order")

	if got := len(fx.sender.sentTo(user)); got != sentBefore {
		t.Errorf("stale callback produced a reply")
	}
	if len(fx.orders.confirmed)+len(fx.orders.canceled) != 0 {
		t.Error("stale callback mutated orders")
	}
}

func TestMalformedCallbackIgnored(t *testing.T) {
	fx := newFixture(t)
	for _, payload := range []string{"update_status:abc", "bogus", "", "update_status:1:ACCEPTED"} {
		fx.callback(31, 1, payload)
	}
	if len(fx.sender.sent) != 0 {
		t.Errorf("malformed callbacks produced replies: %+v", fx.sender.sent)
	}
}

func TestConfirmFailureKeepsSession(t *testing.T) {
	fx := newFixture(t)
	const user = int64(32)

	fx.fillForm(user)
	fx.orders.confirmErr = errors.New("db down")

	fx.callback(user, 1, "confirm_order")

	last, _ := fx.sender.lastTo(user)
	if last.Reply.Text != dialog.MsgUnknownError {
		t.Errorf("reply = %q, want %q", last.Reply.Text, dialog.MsgUnknownError)
	}
	if got := fx.state(t, user); got != dialog.StateAwaitingConfirmation {
		t.Fatalf("state = %s, session must survive collaborator failure", got)
	}

	// Retry succeeds without re-entering the form.
	fx.orders.confirmErr = nil
	fx.callback(user, 1, "confirm_order")

	if len(fx.orders.confirmed) != 1 {
		t.Fatalf("confirmed orders = %d, want 1 after retry", len(fx.orders.confirmed))
	}
	if got := fx.state(t, user); got != dialog.StateIdle {
		t.Errorf("state = %s, want idle after successful retry", got)
	}
}

func TestIdleTextEchoed(t *testing.T) {
	fx := newFixture(t)
	fx.text(33, "hello there")

	last, ok := fx.sender.lastTo(33)
	if !ok || last.Reply.Text != "hello there" {
		t.Errorf("reply = %+v, want verbatim echo", last.Reply)
	}
}

func TestStartGreetsAndUpsertsUser(t *testing.T) {
	fx := newFixture(t)
	fx.handler.HandleEvent(context.Background(), event.TextMessage{
		UserID: 34, ChatID: 34, Username: "alice", Text: "/start",
	})

	last, _ := fx.sender.lastTo(34)
	if last.Reply.Text != dialog.MsgGreeting {
		t.Errorf("reply = %q, want greeting", last.Reply.Text)
	}
	if len(fx.users.upserted) != 1 || fx.users.upserted[0].Username != "alice" {
		t.Errorf("upserted users = %+v", fx.users.upserted)
	}
}

func TestExportAdminOnly(t *testing.T) {
	fx := newFixture(t)

	fx.text(35, "/export")
	if len(fx.sender.docs) != 0 {
		t.Error("non-admin export must be ignored")
	}

	fx.text(900, "/export")
	if len(fx.sender.docs) != 1 || fx.sender.docs[0] != "reports/out.xlsx" {
		t.Errorf("admin export docs = %+v", fx.sender.docs)
	}
}

func TestUserIsolation(t *testing.T) {
	fx := newFixture(t)

	fx.text(40, "/create_order")
	fx.text(41, "/create_order")
	fx.text(40, "order for user 40")
	fx.text(41, "order for user 41")

	sess40, _ := fx.sessions.Get(context.Background(), 40)
	sess41, _ := fx.sessions.Get(context.Background(), 41)
	if sess40.Draft.Description != "order for user 40" {
		t.Errorf("user 40 draft = %+v", sess40.Draft)
	}
	if sess41.Draft.Description != "order for user 41" {
		t.Errorf("user 41 draft = %+v", sess41.Draft)
	}
	if sess40.Draft.OrderNumber == sess41.Draft.OrderNumber {
		t.Error("distinct users share an order number")
	}
}
