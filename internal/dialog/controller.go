package dialog

import (
	"fmt"
	"strconv"
	"strings"

	"printbot/internal/event"
	"printbot/internal/keyboard"
)

// Input is one piece of dialog input: free text, a validated document, or a
// confirmation-keyboard action.
type Input interface{ isInput() }

type TextInput struct{ Text string }

type FileInput struct {
	FileID   string
	FileName string
}

// ActionInput carries a confirm_order or cancel_order verb. Status updates
// never reach the controller; they are an out-of-band operator path.
type ActionInput struct{ Verb string }

func (TextInput) isInput()   {}
func (FileInput) isInput()   {}
func (ActionInput) isInput() {}

// OutcomeKind tags the result of a transition attempt.
type OutcomeKind int

const (
	// OutcomeTransition means the state machine advanced (possibly to the
	// same state with an updated draft).
	OutcomeTransition OutcomeKind = iota
	// OutcomeValidation means the input was rejected; state and draft are
	// unchanged and Replies holds the validation message.
	OutcomeValidation
	// OutcomeStale means the input is meaningless in the current state and
	// must be ignored without a reply.
	OutcomeStale
)

// Effect is a side effect the caller must execute after a terminal
// transition. The controller itself never touches collaborators.
type Effect int

const (
	EffectNone Effect = iota
	// EffectConfirm: compute cost, persist the order, notify the operator,
	// then clear the session.
	EffectConfirm
	// EffectCancel: persist the order as CANCELED with the collected reason,
	// then clear the session.
	EffectCancel
)

// Outcome is the result of Advance.
type Outcome struct {
	Kind    OutcomeKind
	Next    State
	Draft   *Draft
	Replies []event.Reply
	Effect  Effect
}

// Advance is the conversation transition function. It is pure: it never
// mutates the given draft, performs no I/O, and every input terminates in a
// transition, a validation reply, or a stale no-op.
func Advance(state State, draft *Draft, in Input) Outcome {
	switch state {
	case StateAwaitingDescription:
		return textStep(state, draft, in, ReasonEmptyDescription, func(d *Draft, text string) {
			d.Description = text
		}, StateAwaitingPages, MsgPagesRequest)

	case StateAwaitingPages:
		return advancePages(state, draft, in)

	case StateAwaitingPrintType:
		return textStep(state, draft, in, ReasonEmptyPrintType, func(d *Draft, text string) {
			d.PrintType = text
		}, StateAwaitingColor, MsgColorRequest)

	case StateAwaitingColor:
		return textStep(state, draft, in, ReasonEmptyColor, func(d *Draft, text string) {
			d.Color = text
		}, StateAwaitingPaper, MsgPaperRequest)

	case StateAwaitingPaper:
		return textStep(state, draft, in, ReasonEmptyPaper, func(d *Draft, text string) {
			d.Paper = text
		}, StateAwaitingFile, MsgFileRequest)

	case StateAwaitingFile:
		return advanceFile(state, draft, in)

	case StateAwaitingConfirmation:
		return advanceConfirmation(state, draft, in)

	case StateAwaitingCancelReason:
		return advanceCancelReason(state, draft, in)

	default:
		// Idle or unknown. A document outside any dialog gets a state-mismatch
		// validation reply; everything else is not for us.
		if _, ok := in.(FileInput); ok {
			return validation(state, draft, ReasonFileNotExpected)
		}
		return stale(state, draft)
	}
}

// textStep handles the four identical free-text steps: reject empty text,
// otherwise store the value and prompt for the next field.
func textStep(state State, draft *Draft, in Input, emptyReason string, set func(*Draft, string), next State, prompt string) Outcome {
	switch v := in.(type) {
	case TextInput:
		text := strings.TrimSpace(v.Text)
		if text == "" {
			return validation(state, draft, emptyReason)
		}
		nd := *draft
		set(&nd, text)
		return Outcome{
			Kind:    OutcomeTransition,
			Next:    next,
			Draft:   &nd,
			Replies: []event.Reply{{Text: prompt}},
		}
	case FileInput:
		return validation(state, draft, ReasonFileNotExpected)
	default:
		return stale(state, draft)
	}
}

func advancePages(state State, draft *Draft, in Input) Outcome {
	switch v := in.(type) {
	case TextInput:
		pages, err := strconv.Atoi(strings.TrimSpace(v.Text))
		if err != nil || pages <= 0 {
			return validation(state, draft, ReasonInvalidPages)
		}
		nd := *draft
		nd.Pages = pages
		return Outcome{
			Kind:    OutcomeTransition,
			Next:    StateAwaitingPrintType,
			Draft:   &nd,
			Replies: []event.Reply{{Text: MsgPrintTypeRequest}},
		}
	case FileInput:
		return validation(state, draft, ReasonFileNotExpected)
	default:
		return stale(state, draft)
	}
}

func advanceFile(state State, draft *Draft, in Input) Outcome {
	switch v := in.(type) {
	case FileInput:
		nd := *draft
		nd.FileID = v.FileID
		nd.FileName = v.FileName
		if nd.Description == "" {
			nd.Description = "Printing of " + v.FileName
		}
		return Outcome{
			Kind:  OutcomeTransition,
			Next:  StateAwaitingConfirmation,
			Draft: &nd,
			Replies: []event.Reply{{
				Text:     fmt.Sprintf(MsgConfirmation, nd.Summary()),
				Keyboard: keyboard.Confirmation(),
			}},
		}
	case TextInput:
		return validation(state, draft, ReasonFileExpected)
	default:
		return stale(state, draft)
	}
}

func advanceConfirmation(state State, draft *Draft, in Input) Outcome {
	action, ok := in.(ActionInput)
	if !ok {
		// Free text and documents at the confirmation step are ignored.
		return stale(state, draft)
	}
	switch action.Verb {
	case keyboard.VerbConfirmOrder:
		return Outcome{
			Kind:   OutcomeTransition,
			Next:   StateIdle,
			Draft:  nil,
			Effect: EffectConfirm,
		}
	case keyboard.VerbCancelOrder:
		nd := *draft
		return Outcome{
			Kind:    OutcomeTransition,
			Next:    StateAwaitingCancelReason,
			Draft:   &nd,
			Replies: []event.Reply{{Text: MsgCancelReasonRequest}},
		}
	default:
		return stale(state, draft)
	}
}

func advanceCancelReason(state State, draft *Draft, in Input) Outcome {
	switch v := in.(type) {
	case TextInput:
		reason := strings.TrimSpace(v.Text)
		if reason == "" {
			return validation(state, draft, ReasonEmptyCancelReason)
		}
		nd := *draft
		nd.CancelReason = reason
		return Outcome{
			Kind:    OutcomeTransition,
			Next:    StateIdle,
			Draft:   &nd,
			Effect:  EffectCancel,
			Replies: []event.Reply{{Text: MsgOrderCanceled}},
		}
	case FileInput:
		return validation(state, draft, ReasonFileNotExpected)
	default:
		return stale(state, draft)
	}
}

func validation(state State, draft *Draft, reason string) Outcome {
	return Outcome{
		Kind:    OutcomeValidation,
		Next:    state,
		Draft:   draft,
		Replies: []event.Reply{{Text: fmt.Sprintf(MsgValidationError, reason)}},
	}
}

func stale(state State, draft *Draft) Outcome {
	return Outcome{Kind: OutcomeStale, Next: state, Draft: draft}
}
