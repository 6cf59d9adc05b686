package ledger

import (
	"sort"
	"strings"
)

// Registry is the set of known records in display order together with the two
// filter predicates that decide which of them are visible.
// Only the filter setters and Remove mutate it; everything else reads snapshots.
type Registry struct {
	records []Record
	index   map[string]int
	visible []bool

	nameFilter  string
	monthFilter *YearMonth
}

// NewRegistry creates a registry holding records in the given order.
// Records with a duplicate id after the first are ignored.
func NewRegistry(records []Record) *Registry {
	r := &Registry{index: make(map[string]int, len(records))}
	for _, rec := range records {
		r.add(rec)
	}
	r.recompute()
	return r
}

func (r *Registry) add(rec Record) bool {
	if _, ok := r.index[rec.ID]; ok {
		return false
	}
	r.index[rec.ID] = len(r.records)
	r.records = append(r.records, rec)
	r.visible = append(r.visible, true)
	return true
}

// Len returns the number of known records, visible or not.
func (r *Registry) Len() int {
	return len(r.records)
}

// Get returns the record with the given id.
func (r *Registry) Get(id string) (Record, bool) {
	i, ok := r.index[id]
	if !ok {
		return Record{}, false
	}
	return r.records[i], true
}

// All returns a copy of every known record in display order.
func (r *Registry) All() []Record {
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Visible returns a copy of the records passing both filters, in display order.
func (r *Registry) Visible() []Record {
	out := make([]Record, 0, len(r.records))
	for i, rec := range r.records {
		if r.visible[i] {
			out = append(out, rec)
		}
	}
	return out
}

// IsVisible reports whether id is known and currently visible.
func (r *Registry) IsVisible(id string) bool {
	i, ok := r.index[id]
	return ok && r.visible[i]
}

// NameFilter returns the active name filter ("" when cleared).
func (r *Registry) NameFilter() string {
	return r.nameFilter
}

// MonthFilter returns the active month filter, if any.
func (r *Registry) MonthFilter() (YearMonth, bool) {
	if r.monthFilter == nil {
		return YearMonth{}, false
	}
	return *r.monthFilter, true
}

// SetNameFilter sets the case-insensitive name substring filter.
// The empty string matches every record.
func (r *Registry) SetNameFilter(substring string) {
	r.nameFilter = substring
	r.recompute()
}

// SetMonthFilter sets the month filter from "YYYY-MM". The empty string clears it.
// An invalid value leaves the registry unchanged and returns ErrInvalidMonth.
func (r *Registry) SetMonthFilter(value string) error {
	if strings.TrimSpace(value) == "" {
		r.ClearMonthFilter()
		return nil
	}
	ym, err := ParseYearMonth(value)
	if err != nil {
		return err
	}
	r.monthFilter = &ym
	r.recompute()
	return nil
}

// ClearMonthFilter removes the month filter.
func (r *Registry) ClearMonthFilter() {
	r.monthFilter = nil
	r.recompute()
}

// Remove deletes id from the registry. It reports whether the id was present.
func (r *Registry) Remove(id string) bool {
	i, ok := r.index[id]
	if !ok {
		return false
	}
	r.records = append(r.records[:i:i], r.records[i+1:]...)
	r.visible = append(r.visible[:i:i], r.visible[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.records); j++ {
		r.index[r.records[j].ID] = j
	}
	return true
}

// Months lists the distinct YYYY-MM values present, ascending.
func (r *Registry) Months() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range r.records {
		ym, ok := RecordMonth(rec.Date)
		if !ok || seen[ym.String()] {
			continue
		}
		seen[ym.String()] = true
		out = append(out, ym.String())
	}
	sort.Strings(out)
	return out
}

// Years lists the distinct years present, most recent first.
func (r *Registry) Years() []int {
	seen := make(map[int]bool)
	var out []int
	for _, rec := range r.records {
		ym, ok := RecordMonth(rec.Date)
		if !ok || seen[ym.Year] {
			continue
		}
		seen[ym.Year] = true
		out = append(out, ym.Year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

func (r *Registry) recompute() {
	for i, rec := range r.records {
		r.visible[i] = MatchesName(rec, r.nameFilter) && MatchesMonth(rec, r.monthFilter)
	}
}

// MatchesName reports whether rec passes the name filter.
func MatchesName(rec Record, substring string) bool {
	if substring == "" {
		return true
	}
	return strings.Contains(strings.ToLower(rec.Name), strings.ToLower(substring))
}

// MatchesMonth reports whether rec passes the month filter. A nil filter matches
// everything; a record whose date cannot be read matches no month.
func MatchesMonth(rec Record, filter *YearMonth) bool {
	if filter == nil {
		return true
	}
	ym, ok := RecordMonth(rec.Date)
	return ok && ym == *filter
}
