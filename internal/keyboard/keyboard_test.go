package keyboard

import (
	"testing"

	"printbot/internal/order"
)

func TestConfirmationKeyboard(t *testing.T) {
	kb := Confirmation()
	if len(kb.Rows) != 1 || len(kb.Rows[0]) != 2 {
		t.Fatalf("expected one row of two buttons, got %+v", kb.Rows)
	}

	confirm, cancel := kb.Rows[0][0], kb.Rows[0][1]
	if confirm.Label != "Confirm" || confirm.Payload != VerbConfirmOrder {
		t.Errorf("confirm button = %+v", confirm)
	}
	if cancel.Label != "Cancel" || cancel.Payload != VerbCancelOrder {
		t.Errorf("cancel button = %+v", cancel)
	}
}

func TestStatusKeyboard(t *testing.T) {
	kb := Status(42, 7)
	if len(kb.Rows) != 1 || len(kb.Rows[0]) != 4 {
		t.Fatalf("expected one row of four buttons, got %+v", kb.Rows)
	}

	wantLabels := []string{"CANCELED", "ACCEPTED", "PAID", "COMPLETED"}
	for i, btn := range kb.Rows[0] {
		if btn.Label != wantLabels[i] {
			t.Errorf("button %d label = %q, want %q", i, btn.Label, wantLabels[i])
		}
		wantPayload := "update_status:42:" + wantLabels[i] + ":7"
		if btn.Payload != wantPayload {
			t.Errorf("button %d payload = %q, want %q", i, btn.Payload, wantPayload)
		}
	}
}

func TestEncodeStatusUpdate(t *testing.T) {
	got := EncodeStatusUpdate(42, order.StatusAccepted, 17)
	if got != "update_status:42:ACCEPTED:17" {
		t.Errorf("payload = %q", got)
	}
}

func TestParseAction(t *testing.T) {
	cases := []struct {
		payload string
		want    Action
		wantErr bool
	}{
		{"confirm_order", Action{Verb: VerbConfirmOrder}, false},
		{"cancel_order", Action{Verb: VerbCancelOrder}, false},
		{"update_status:42:ACCEPTED:7", Action{Verb: VerbUpdateStatus, OrderID: 42, Status: "ACCEPTED", OriginMessageID: 7}, false},
		{"update_status:abc:ACCEPTED:7", Action{}, true},
		{"update_status:42:ACCEPTED:xyz", Action{}, true},
		{"update_status:42:ACCEPTED", Action{}, true},
		{"confirm_order:extra", Action{}, true},
		{"nonsense", Action{}, true},
		{"", Action{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.payload, func(t *testing.T) {
			got, err := ParseAction(tc.payload)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %+v", tc.payload, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
