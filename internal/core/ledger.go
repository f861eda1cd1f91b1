package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Ledger holds the four entry lists of one profile. Insertion order is
// display order. The ledger owns id assignment: ids come from a counter that
// only moves forward, so two entries added in the same instant never collide.
type Ledger struct {
	lists  map[Kind][]Entry
	nextID int64
}

func NewLedger() *Ledger {
	return &Ledger{
		lists:  make(map[Kind][]Entry, 4),
		nextID: 1,
	}
}

// Entries returns a copy of the list for kind.
func (l *Ledger) Entries(kind Kind) []Entry {
	src := l.lists[kind]
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// Len returns the number of entries stored for kind.
func (l *Ledger) Len(kind Kind) int {
	return len(l.lists[kind])
}

// Add validates and appends a new entry. The date is ignored for recurring
// entries, which are not tied to any period.
func (l *Ledger) Add(kind Kind, amount float64, description string, date time.Time) (Entry, error) {
	if !kind.IsValid() {
		return Entry{}, ErrInvalidKind
	}
	if err := ValidateAmount(amount); err != nil {
		return Entry{}, err
	}

	e := Entry{
		ID:          l.allocID(),
		Amount:      amount,
		Description: describe(kind, description),
	}
	if kind.Dated() && !date.IsZero() {
		e.Date = FormatDate(date)
	}
	l.lists[kind] = append(l.lists[kind], e)
	return e, nil
}

// AddInstallments appends an expanded installment series. Either every entry
// is stored or none is.
func (l *Ledger) AddInstallments(series []Entry) ([]Entry, error) {
	if len(series) == 0 {
		return nil, ErrInvalidMonths
	}
	for _, e := range series {
		if err := ValidateAmount(e.Amount); err != nil {
			return nil, err
		}
	}

	out := make([]Entry, len(series))
	for i, e := range series {
		e.ID = l.allocID()
		out[i] = e
	}
	l.lists[Installment] = append(l.lists[Installment], out...)
	return out, nil
}

// Edit replaces amount and description of the entry with the given id.
// Id and date never change.
func (l *Ledger) Edit(kind Kind, id int64, amount float64, description string) (Entry, error) {
	if !kind.IsValid() {
		return Entry{}, ErrInvalidKind
	}
	if err := ValidateAmount(amount); err != nil {
		return Entry{}, err
	}
	list := l.lists[kind]
	for i := range list {
		if list[i].ID == id {
			list[i].Amount = amount
			list[i].Description = editedDescription(list[i], kind, description)
			return list[i], nil
		}
	}
	return Entry{}, fmt.Errorf("%s %d: %w", kind, id, ErrEntryNotFound)
}

// editedDescription keeps an installment's "(k/N)" position: a blank edit
// leaves the description as is and a new one gets the position appended.
func editedDescription(e Entry, kind Kind, description string) string {
	if kind != Installment || e.TotalMonths == 0 {
		return describe(kind, description)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return e.Description
	}
	position := fmt.Sprintf("(%d/%d)", e.CurrentMonth, e.TotalMonths)
	if strings.HasSuffix(description, position) {
		return description
	}
	return description + " " + position
}

// Remove deletes the entry with the given id.
func (l *Ledger) Remove(kind Kind, id int64) error {
	if !kind.IsValid() {
		return ErrInvalidKind
	}
	list := l.lists[kind]
	for i := range list {
		if list[i].ID == id {
			l.lists[kind] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s %d: %w", kind, id, ErrEntryNotFound)
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{lists: make(map[Kind][]Entry, len(l.lists)), nextID: l.nextID}
	for k := range l.lists {
		c.lists[k] = l.Entries(k)
	}
	return c
}

func (l *Ledger) allocID() int64 {
	id := l.nextID
	l.nextID++
	return id
}

// ledgerDocument is the serialized shape of a profile.
type ledgerDocument struct {
	Name            string  `json:"name"`
	IncomeList      []Entry `json:"incomeList"`
	ExpenseList     []Entry `json:"expenseList"`
	RecurringList   []Entry `json:"recurringList"`
	InstallmentList []Entry `json:"installmentList,omitempty"`
}

// RestoreLedger rebuilds a ledger from stored lists. Entries with an invalid
// amount are dropped; the id counter resumes after the highest stored id.
func RestoreLedger(lists map[Kind][]Entry) *Ledger {
	l := NewLedger()
	for _, k := range Kinds() {
		for _, e := range lists[k] {
			if ValidateAmount(e.Amount) != nil {
				continue
			}
			if !k.Dated() {
				e.Date = ""
			}
			l.lists[k] = append(l.lists[k], e)
			if e.ID >= l.nextID {
				l.nextID = e.ID + 1
			}
		}
	}
	return l
}

func (p Profile) MarshalJSON() ([]byte, error) {
	l := p.Ledger
	if l == nil {
		l = NewLedger()
	}
	return json.Marshal(ledgerDocument{
		Name:            p.Name,
		IncomeList:      nonNil(l.Entries(Income)),
		ExpenseList:     nonNil(l.Entries(Expense)),
		RecurringList:   nonNil(l.Entries(Recurring)),
		InstallmentList: l.Entries(Installment),
	})
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	var doc ledgerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	p.Name = doc.Name
	p.Ledger = RestoreLedger(map[Kind][]Entry{
		Income:      doc.IncomeList,
		Expense:     doc.ExpenseList,
		Recurring:   doc.RecurringList,
		Installment: doc.InstallmentList,
	})
	return nil
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	if p.Ledger == nil {
		return NewProfile(p.Name)
	}
	return Profile{Name: p.Name, Ledger: p.Ledger.Clone()}
}

func nonNil(in []Entry) []Entry {
	if in == nil {
		return []Entry{}
	}
	return in
}
