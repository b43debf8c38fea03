// Package event defines the narrow value objects exchanged between the
// transport adapter and the rest of the bot. Handlers never see the Telegram
// library's object model directly.
package event

// Event is an inbound chat event: one of TextMessage, DocumentMessage or
// CallbackAction.
type Event interface {
	User() int64
	Chat() int64
}

type TextMessage struct {
	UserID   int64
	ChatID   int64
	Username string
	Text     string
}

func (m TextMessage) User() int64 { return m.UserID }
func (m TextMessage) Chat() int64 { return m.ChatID }

type DocumentMessage struct {
	UserID    int64
	ChatID    int64
	Username  string
	MimeType  string
	SizeBytes int64
	FileID    string
	FileName  string
}

func (m DocumentMessage) User() int64 { return m.UserID }
func (m DocumentMessage) Chat() int64 { return m.ChatID }

type CallbackAction struct {
	UserID          int64
	ChatID          int64
	OriginMessageID int
	Payload         string
}

func (a CallbackAction) User() int64 { return a.UserID }
func (a CallbackAction) Chat() int64 { return a.ChatID }

// Button is one inline keyboard button: a visible label plus the callback
// payload it fires.
type Button struct {
	Label   string
	Payload string
}

// Keyboard is a row-major inline button layout.
type Keyboard struct {
	Rows [][]Button
}

// Reply is one outbound message.
type Reply struct {
	Text     string
	Keyboard *Keyboard
}
