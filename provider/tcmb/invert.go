package tcmb

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
)

// invertRates rewrites every day of the table in place so that rates are quoted against base.
// Days lacking a base rate are all reported and the table is left unchanged
func invertRates(table RateTable, base string) error {
	var merr *multierror.Error

	baseRates := make(map[string]decimal.Decimal, len(table))
	for date, rates := range table {
		raw, ok := rates[base]
		if !ok {
			merr = multierror.Append(merr, &MissingBaseRateError{Date: date, Currency: base})
			continue
		}

		v, err := decimal.NewFromString(raw)
		if err != nil || !v.IsPositive() {
			merr = multierror.Append(merr, fmt.Errorf("%w: %s on %s: %q", errRateNotValid, base, date, raw))
			continue
		}

		baseRates[date] = v
	}

	if err := merr.ErrorOrNil(); err != nil {
		return err
	}

	one := decimal.NewFromInt(1)
	for date, rates := range table {
		baseRate := baseRates[date]
		for code, raw := range rates {
			if code == NativeBase {
				continue
			}

			v, err := decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("%w: %s on %s: %v", errRateNotValid, code, date, err)
			}

			rates[code] = v.Div(baseRate).String()
		}

		rates[NativeBase] = one.Div(baseRate).String()
	}

	return nil
}
