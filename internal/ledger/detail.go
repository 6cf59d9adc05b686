package ledger

// NoCommentText replaces an empty comment in the detail view.
const NoCommentText = "No comment"

// Field is one labelled line of the detail view.
type Field struct {
	Label string
	Value string
}

// Detail is the record detail overlay: either one record is shown or none.
type Detail struct {
	current *Record
}

// Show opens the overlay for rec, replacing whatever was shown.
func (d *Detail) Show(rec Record) {
	d.current = &rec
}

// Close dismisses the overlay. Closing an already closed overlay does nothing.
func (d *Detail) Close() {
	d.current = nil
}

// ClickOutside handles a click on the backdrop around the overlay content.
// It dismisses an open overlay and never opens a closed one.
func (d *Detail) ClickOutside() {
	d.Close()
}

// Open reports whether a record is shown.
func (d *Detail) Open() bool {
	return d.current != nil
}

// Current returns the shown record.
func (d *Detail) Current() (Record, bool) {
	if d.current == nil {
		return Record{}, false
	}
	return *d.current, true
}

// Fields returns the labelled fields of the shown record, nil when closed.
func (d *Detail) Fields() []Field {
	if d.current == nil {
		return nil
	}
	return DetailFields(*d.current)
}

// DetailFields lists every field of rec for display.
func DetailFields(rec Record) []Field {
	comment := rec.Comment
	if comment == "" {
		comment = NoCommentText
	}
	return []Field{
		{Label: "Date", Value: rec.Date},
		{Label: "Time", Value: rec.Time},
		{Label: "Name", Value: rec.Name},
		{Label: "Comment", Value: comment},
		{Label: "Received", Value: rec.Received.StringFixed(2)},
		{Label: "Paid", Value: rec.Paid.StringFixed(2)},
		{Label: "Balance", Value: rec.BalanceText},
	}
}
