package sheets

import (
	"errors"
	"testing"
	"time"

	"carteira/internal/core"
)

func TestEncodeDecodeRows(t *testing.T) {
	p := core.NewProfile("Casa")
	p.Ledger.Add(core.Income, 3500, "Salario", time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	p.Ledger.Add(core.Recurring, 89.9, "Internet", time.Time{})
	series, _ := core.ExpandInstallment(100, "Cadeira", 3, core.NewPeriod(2024, 3))
	p.Ledger.AddInstallments(series)

	rows := EncodeRows(p)
	if len(rows) != 1+1+1+3 {
		t.Fatalf("expected header plus 5 rows, got %d", len(rows))
	}
	if rows[0][0] != "kind" {
		t.Fatalf("first row should be the header, got %v", rows[0])
	}

	got, err := DecodeRows("Casa", rows)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, kind := range core.Kinds() {
		want := p.Ledger.Entries(kind)
		have := got.Ledger.Entries(kind)
		if len(have) != len(want) {
			t.Fatalf("%s: %d entries, want %d", kind, len(have), len(want))
		}
		for i := range want {
			if have[i] != want[i] {
				t.Fatalf("%s[%d] = %+v, want %+v", kind, i, have[i], want[i])
			}
		}
	}
}

func TestDecodeRowsFromSpreadsheetStrings(t *testing.T) {
	rows := [][]any{
		{"kind", "id", "date", "description", "amount", "currentMonth", "totalMonths"},
		{"expense", "4", "2024-05-15T12:00:00Z", "Mercado", "12,50"},
		{},
		{"recurring", "5", "", "Academia", "99.9", "", ""},
	}
	p, err := DecodeRows("A", rows)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e := p.Ledger.Entries(core.Expense); len(e) != 1 || e[0].Amount != 12.5 || e[0].ID != 4 {
		t.Fatalf("unexpected expenses: %+v", e)
	}
	if e := p.Ledger.Entries(core.Recurring); len(e) != 1 || e[0].Date != "" {
		t.Fatalf("unexpected recurring: %+v", e)
	}
}

func TestDecodeRowsRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		row  []any
		want error
	}{
		{"short", []any{"income", "1", ""}, ErrBadRow},
		{"kind", []any{"bonus", "1", "", "x", "1"}, core.ErrInvalidKind},
		{"id", []any{"income", "x", "", "x", "1"}, ErrBadRow},
		{"amount", []any{"income", "1", "", "x", "abc"}, ErrBadRow},
		{"zero", []any{"income", "1", "", "x", "0"}, core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRows("A", [][]any{Header, tt.row})
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}
