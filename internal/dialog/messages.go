package dialog

// Fixed reply templates. These strings are the bot's wire surface; tests
// assert on them verbatim, so do not reword casually.
const (
	MsgGreeting             = "Hello! I'm your print bot. How can I help you?"
	MsgDescriptionRequest   = "Please, enter the description of your order:"
	MsgPagesRequest         = "Please, enter the number of pages:"
	MsgPrintTypeRequest     = "Please, enter the print type:"
	MsgColorRequest         = "Please, enter the color:"
	MsgPaperRequest         = "Please, enter the paper type:"
	MsgFileRequest          = "Please, attach the file:"
	MsgConfirmation         = "Please, confirm your order:\n%s"
	MsgOrderCreated         = "Your order has been created. Order number: %s"
	MsgStatusUpdated        = "Your order status has been updated to: %s"
	MsgOrderCanceled        = "Your order has been canceled."
	MsgCancelReasonRequest  = "Please, enter the reason for canceling the order:"
	MsgMyOrders             = "Your orders:\n%s"
	MsgNoOrders             = "No orders found."
	MsgFileSizeError        = "File size is too large. Max file size is 20 MB."
	MsgValidationError      = "Validation error: %s"
	MsgUnknownError         = "Unknown error occurred."
	MsgOrderNotFound        = "Order not found."
	MsgExecutorNewOrder     = "New order created:\n%s"
)

// Validation reasons substituted into MsgValidationError.
const (
	ReasonEmptyDescription  = "description must not be empty"
	ReasonInvalidPages      = "pages must be a positive number"
	ReasonEmptyPrintType    = "print type must not be empty"
	ReasonEmptyColor        = "color must not be empty"
	ReasonEmptyPaper        = "paper type must not be empty"
	ReasonEmptyCancelReason = "cancel reason must not be empty"
	ReasonFileExpected      = "please attach a file"
	ReasonFileNotExpected   = "a file is not expected at this step"
	ReasonWrongFileType     = "only PDF files are accepted"
)
