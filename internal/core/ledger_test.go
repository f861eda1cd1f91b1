package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestLedgerAddValidatesAmount(t *testing.T) {
	l := NewLedger()
	date := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	for _, a := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := l.Add(Income, a, "x", date); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %v: expected ErrInvalidAmount, got %v", a, err)
		}
	}
	if l.Len(Income) != 0 {
		t.Fatalf("rejected adds must not change the ledger, len=%d", l.Len(Income))
	}

	if _, err := l.Add(Kind("savings"), 10, "x", date); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestLedgerAddAssignsUniqueIDsAndDefaults(t *testing.T) {
	l := NewLedger()
	date := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	seen := map[int64]bool{}
	for i := 0; i < 100; i++ {
		e, err := l.Add(Expense, 1, "", date)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if seen[e.ID] {
			t.Fatalf("duplicate id %d", e.ID)
		}
		seen[e.ID] = true
		if e.Description != "Despesa" {
			t.Fatalf("expected default description, got %q", e.Description)
		}
	}

	cases := map[Kind]string{
		Income:      "Receita",
		Recurring:   "Despesa Recorrente",
		Installment: "Compra Parcelada",
	}
	for k, want := range cases {
		e, err := l.Add(k, 5, "   ", date)
		if err != nil {
			t.Fatalf("%s add: %v", k, err)
		}
		if e.Description != want {
			t.Fatalf("%s: expected %q, got %q", k, want, e.Description)
		}
	}
}

func TestLedgerRecurringHasNoDate(t *testing.T) {
	l := NewLedger()
	e, err := l.Add(Recurring, 50, "Internet", time.Now())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.Date != "" {
		t.Fatalf("recurring entry should carry no date, got %q", e.Date)
	}
}

func TestLedgerEditKeepsIDAndDate(t *testing.T) {
	l := NewLedger()
	date := time.Date(2024, time.May, 2, 9, 0, 0, 0, time.UTC)
	orig, _ := l.Add(Income, 100, "Salario", date)

	got, err := l.Edit(Income, orig.ID, 150, "Salario maio")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.ID != orig.ID || got.Date != orig.Date {
		t.Fatalf("edit changed id or date: %+v -> %+v", orig, got)
	}
	if got.Amount != 150 || got.Description != "Salario maio" {
		t.Fatalf("edit did not apply: %+v", got)
	}

	if _, err := l.Edit(Income, 999, 10, "x"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if _, err := l.Edit(Income, orig.ID, -3, "x"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if e := l.Entries(Income)[0]; e.Amount != 150 {
		t.Fatalf("failed edit changed the entry: %+v", e)
	}
}

func TestLedgerEditInstallmentKeepsPosition(t *testing.T) {
	l := NewLedger()
	series, err := ExpandInstallment(300, "TV", 3, NewPeriod(2024, 1))
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	added, err := l.AddInstallments(series)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second := added[1]

	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"blank keeps description", "  ", "TV (2/3)"},
		{"new description gets position", "Televisao", "Televisao (2/3)"},
		{"position already present", "Sala (2/3)", "Sala (2/3)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Edit(Installment, second.ID, 90, tt.description)
			if err != nil {
				t.Fatalf("edit: %v", err)
			}
			if got.Description != tt.want {
				t.Fatalf("description = %q, want %q", got.Description, tt.want)
			}
			if got.CurrentMonth != 2 || got.TotalMonths != 3 || got.Date != second.Date {
				t.Fatalf("edit changed the series position: %+v", got)
			}
		})
	}
}

func TestLedgerRemoveIsIdempotent(t *testing.T) {
	l := NewLedger()
	date := time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)
	a, _ := l.Add(Expense, 10, "a", date)
	b, _ := l.Add(Expense, 20, "b", date)

	if err := l.Remove(Expense, a.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := l.Remove(Expense, a.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("second remove should be a not-found no-op, got %v", err)
	}
	entries := l.Entries(Expense)
	if len(entries) != 1 || entries[0].ID != b.ID {
		t.Fatalf("unexpected entries after remove: %+v", entries)
	}
}

func TestLedgerEntriesReturnsCopy(t *testing.T) {
	l := NewLedger()
	l.Add(Income, 10, "a", time.Now())
	got := l.Entries(Income)
	got[0].Amount = 999
	if l.Entries(Income)[0].Amount != 10 {
		t.Fatalf("Entries must not expose internal storage")
	}
}

func TestRestoreLedgerResumesIDs(t *testing.T) {
	l := RestoreLedger(map[Kind][]Entry{
		Income:    {{ID: 1700000000000, Amount: 10, Description: "a", Date: "2024-01-15T12:00:00Z"}},
		Recurring: {{ID: 7, Amount: 5, Description: "r", Date: "2024-01-15T12:00:00Z"}},
		Expense:   {{ID: 3, Amount: 0, Description: "bad"}},
	})
	if l.Len(Expense) != 0 {
		t.Fatalf("invalid stored amount should be dropped")
	}
	if l.Entries(Recurring)[0].Date != "" {
		t.Fatalf("recurring date should be cleared on restore")
	}
	e, _ := l.Add(Income, 1, "", time.Now())
	if e.ID != 1700000000001 {
		t.Fatalf("expected id after highest stored id, got %d", e.ID)
	}
}

func TestProfileJSONShape(t *testing.T) {
	p := NewProfile("Casa")
	p.Ledger.Add(Income, 1000, "Salario", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	p.Ledger.Add(Recurring, 100, "Aluguel", time.Time{})

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	for _, key := range []string{"name", "incomeList", "expenseList", "recurringList"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("serialized profile missing %q: %s", key, data)
		}
	}
	if string(raw["expenseList"]) != "[]" {
		t.Fatalf("empty list should serialize as [], got %s", raw["expenseList"])
	}

	var back Profile
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Name != "Casa" || back.Ledger.Len(Income) != 1 || back.Ledger.Len(Recurring) != 1 {
		t.Fatalf("unexpected profile after decode: %+v", back)
	}
}
