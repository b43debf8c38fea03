package dialog

// State is the current step of a user's order conversation.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingDescription  State = "awaiting_description"
	StateAwaitingPages        State = "awaiting_pages"
	StateAwaitingPrintType    State = "awaiting_print_type"
	StateAwaitingColor        State = "awaiting_color"
	StateAwaitingPaper        State = "awaiting_paper"
	StateAwaitingFile         State = "awaiting_file"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateAwaitingCancelReason State = "awaiting_cancel_reason"
)
