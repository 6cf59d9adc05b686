package ledger

// NoticeKind classifies a user-facing notice.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a message shown to the user.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Notice texts shown by the page.
const (
	MsgConfirmDelete = "Are you sure you want to delete this transaction?"
	MsgDeleted       = "Transaction deleted successfully!"
	MsgDeleteFailed  = "Failed to delete transaction. Please try again."
	MsgDeleteExpired = "This transaction can no longer be deleted. The 30-minute window has expired."
	MsgNoReportData  = "No transactions to export!"
	MsgEmptyEntry    = "Please fill either Received Amount or Paid Amount!"
	// MsgOverdraft takes the current balance with two decimals.
	MsgOverdraft     = "Error: You cannot pay more than the current balance (%s)."
)

// Notifier is the side channel for confirmations and notices.
type Notifier interface {
	// Confirm asks a yes/no question and reports the answer.
	Confirm(question string) bool
	// Notify shows a notice.
	Notify(n Notice)
}

// NotifierFuncs adapts plain functions to Notifier. Nil fields decline and discard.
type NotifierFuncs struct {
	ConfirmFunc func(question string) bool
	NotifyFunc  func(n Notice)
}

// Confirm implements Notifier.
func (f NotifierFuncs) Confirm(question string) bool {
	if f.ConfirmFunc == nil {
		return false
	}
	return f.ConfirmFunc(question)
}

// Notify implements Notifier.
func (f NotifierFuncs) Notify(n Notice) {
	if f.NotifyFunc != nil {
		f.NotifyFunc(n)
	}
}
