package dialog

import "fmt"

// Draft is the in-progress order assembled step by step. It is owned by
// exactly one conversation session and filled monotonically: a step only ever
// sets its own field, never touches previously accepted ones.
type Draft struct {
	OrderNumber  string `json:"order_number"`
	UserID       int64  `json:"user_id"`
	Description  string `json:"description"`
	Pages        int    `json:"pages"`
	PrintType    string `json:"print_type"`
	Color        string `json:"color"`
	Paper        string `json:"paper"`
	FileID       string `json:"file_id"`
	FileName     string `json:"file_name"`
	CancelReason string `json:"cancel_reason"`
}

// Summary renders the human-readable field overview shown before
// confirmation and in the operator notification.
func (d *Draft) Summary() string {
	file := "not provided"
	if d.FileName != "" {
		file = d.FileName
	} else if d.FileID != "" {
		file = d.FileID
	}
	return fmt.Sprintf(
		"Order number: %s\n"+
			"Description: %s\n"+
			"Pages: %d\n"+
			"Print type: %s\n"+
			"Color: %s\n"+
			"Paper: %s\n"+
			"File: %s",
		d.OrderNumber, d.Description, d.Pages, d.PrintType, d.Color, d.Paper, file,
	)
}
