package core

import "github.com/shopspring/decimal"

// Chart labels, in display order.
const (
	LabelIncome       = "Receitas"
	LabelExpenses     = "Despesas"
	LabelRecurring    = "Recorrentes"
	LabelInstallments = "Parcelas"
)

// ChartBar is one bar of the summary chart. Percent is the value scaled
// against the largest of the four totals.
type ChartBar struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// Summary is the aggregated view of one period.
type Summary struct {
	Period            Period     `json:"-"`
	TotalIncome       float64    `json:"totalIncome"`
	TotalExpenses     float64    `json:"totalExpenses"`
	TotalRecurring    float64    `json:"totalRecurring"`
	TotalInstallments float64    `json:"totalInstallments"`
	Balance           float64    `json:"balance"`
	Chart             []ChartBar `json:"chart"`
}

// Summarize computes totals for the period. Recurring entries count in
// every period.
func Summarize(l *Ledger, p Period) Summary {
	if l == nil {
		l = NewLedger()
	}
	income := sum(l.ForPeriod(Income, p))
	expenses := sum(l.ForPeriod(Expense, p))
	recurring := sum(l.ForPeriod(Recurring, p))
	installments := sum(l.ForPeriod(Installment, p))
	balance := income.Sub(expenses).Sub(recurring).Sub(installments)

	s := Summary{
		Period:            p,
		TotalIncome:       income.InexactFloat64(),
		TotalExpenses:     expenses.InexactFloat64(),
		TotalRecurring:    recurring.InexactFloat64(),
		TotalInstallments: installments.InexactFloat64(),
		Balance:           balance.InexactFloat64(),
	}
	s.Chart = chart([]ChartBar{
		{Label: LabelIncome, Value: s.TotalIncome},
		{Label: LabelExpenses, Value: s.TotalExpenses},
		{Label: LabelRecurring, Value: s.TotalRecurring},
		{Label: LabelInstallments, Value: s.TotalInstallments},
	})
	return s
}

// ListTotal is the value of the "Total" row shown under an entry list.
func ListTotal(entries []Entry) float64 {
	return sum(entries).InexactFloat64()
}

func sum(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(decimal.NewFromFloat(e.Amount))
	}
	return total
}

func chart(bars []ChartBar) []ChartBar {
	// floor of 1 keeps an all-zero month from dividing by zero
	top := 1.0
	for _, b := range bars {
		if b.Value > top {
			top = b.Value
		}
	}
	for i := range bars {
		bars[i].Percent = bars[i].Value / top * 100
	}
	return bars
}
