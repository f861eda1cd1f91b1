package core

import "fmt"

// MaxInstallmentMonths bounds a single series to fifty years.
const MaxInstallmentMonths = 600

// ExpandInstallment spreads a purchase over consecutive months starting at
// start. Each part is total/months; the parts may differ from total by
// floating point error. Ids are left zero for the ledger to assign.
func ExpandInstallment(total float64, description string, months int, start Period) ([]Entry, error) {
	if err := ValidateAmount(total); err != nil {
		return nil, err
	}
	if months < 1 || months > MaxInstallmentMonths {
		return nil, fmt.Errorf("%d months: %w", months, ErrInvalidMonths)
	}
	if err := start.Validate(); err != nil {
		return nil, err
	}
	if err := start.Next(months - 1).Validate(); err != nil {
		return nil, fmt.Errorf("series of %d months from %s: %w", months, start, ErrInvalidMonths)
	}

	desc := describe(Installment, description)
	part := total / float64(months)

	out := make([]Entry, months)
	for k := 1; k <= months; k++ {
		out[k-1] = Entry{
			Amount:       part,
			Description:  fmt.Sprintf("%s (%d/%d)", desc, k, months),
			Date:         FormatDate(start.Next(k - 1).Start()),
			TotalMonths:  months,
			CurrentMonth: k,
		}
	}
	return out, nil
}
