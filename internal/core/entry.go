package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	Income      Kind = "income"
	Expense     Kind = "expense"
	Recurring   Kind = "recurring"
	Installment Kind = "installment"
)

type (
	// Kind names one of the four ledger lists.
	Kind string

	// Entry is one monetary record. Date is an RFC 3339 timestamp and is
	// empty for recurring entries.
	Entry struct {
		ID           int64   `json:"id"`
		Amount       float64 `json:"amount"`
		Description  string  `json:"description"`
		Date         string  `json:"date,omitempty"`
		TotalMonths  int     `json:"totalMonths,omitempty"`
		CurrentMonth int     `json:"currentMonth,omitempty"`
	}

	Profile struct {
		Name   string
		Ledger *Ledger
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidMonths = errors.New("invalid number of months")
	ErrInvalidKind   = errors.New("invalid ledger kind")
	ErrEntryNotFound = errors.New("entry not found")
	ErrInvalidPeriod = errors.New("invalid period")
)

// Kinds returns the ledger kinds in display order.
func Kinds() []Kind {
	return []Kind{Income, Expense, Recurring, Installment}
}

// ParseKind maps a string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

func (k Kind) IsValid() bool {
	switch k {
	case Income, Expense, Recurring, Installment:
		return true
	default:
		return false
	}
}

// Dated reports whether entries of this kind are pinned to a period.
func (k Kind) Dated() bool {
	return k != Recurring
}

// DefaultDescription is used when an entry is added with a blank description.
func (k Kind) DefaultDescription() string {
	switch k {
	case Income:
		return "Receita"
	case Expense:
		return "Despesa"
	case Recurring:
		return "Despesa Recorrente"
	case Installment:
		return "Compra Parcelada"
	default:
		return ""
	}
}

// ValidateAmount rejects zero, negative and non-finite amounts.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Time parses the entry date. It returns false for recurring entries and
// for dates that do not parse.
func (e Entry) Time() (time.Time, bool) {
	if e.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, e.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders t in the stored entry date format.
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// NewProfile returns a profile with an empty ledger.
func NewProfile(name string) Profile {
	return Profile{Name: name, Ledger: NewLedger()}
}

func describe(kind Kind, description string) string {
	d := strings.TrimSpace(description)
	if d == "" {
		return kind.DefaultDescription()
	}
	return d
}
