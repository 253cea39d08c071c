package tcmb

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// NativeBase is the currency every rate in the TCMB feed is quoted against
const NativeBase = "TRY"

// nativeBaseRate is the unit value recorded for NativeBase in every day
const nativeBaseRate = "1.0000"

const isoDateLayout = "2006-01-02"

// ErrFeedParse is returned when the feed cannot be read or its markup is malformed
var ErrFeedParse = errors.New("feed parse failed")

var (
	errAttributeNotValid = errors.New("attr is not valid")
	errRateNotValid      = errors.New("rate is not valid")
)

// MissingBaseRateError reports a day for which the feed has no rate of the requested base currency,
// so the day can not be re-expressed relative to it
type MissingBaseRateError struct {
	Date     string
	Currency string
}

func (e *MissingBaseRateError) Error() string {
	return fmt.Sprintf("missing %s rate on %s", e.Currency, e.Date)
}

// DayRates maps a currency code to its rate for one day
type DayRates map[string]string

// RateTable maps an ISO-8601 date to the rates published on that day
type RateTable map[string]DayRates

// Request describes which part of the feed to extract. A zero From or To is an open bound
type Request struct {
	Base       string
	Currencies []string
	From       time.Time
	To         time.Time
}

// Invert reports whether rates have to be re-expressed relative to Base
func (r Request) Invert() bool {
	return r.base() != NativeBase
}

// base returns the normalized base code, an empty Base means the native one
func (r Request) base() string {
	if code := normalizeCode(r.Base); code != "" {
		return code
	}

	return NativeBase
}

// EffectiveCurrencies returns the requested codes plus the base code when it is not the native one.
// The Currencies slice of the request is left untouched
func (r Request) EffectiveCurrencies() []string {
	seen := make(map[string]struct{}, len(r.Currencies)+1)
	list := make([]string, 0, len(r.Currencies)+1)
	for _, c := range r.Currencies {
		code := normalizeCode(c)
		if code == "" {
			continue
		}

		if _, ok := seen[code]; ok {
			continue
		}

		seen[code] = struct{}{}
		list = append(list, code)
	}

	if base := r.base(); base != NativeBase {
		if _, ok := seen[base]; !ok {
			list = append(list, base)
		}
	}

	return list
}

func (r Request) inRange(day time.Time) bool {
	if !r.From.IsZero() && day.Before(truncateDay(r.From)) {
		return false
	}

	if !r.To.IsZero() && day.After(truncateDay(r.To)) {
		return false
	}

	return true
}

// Result is the outcome of ExtractRates
type Result struct {
	Rates      RateTable
	Currencies []string
	Inverted   bool
}

// ExtractRates streams the feed from r and returns the rates matching req.
// When req.Base is not the native base currency every day is re-expressed relative to it.
// On error no partial result is returned
func ExtractRates(r io.Reader, req Request) (Result, error) {
	currencies := req.EffectiveCurrencies()
	filter := make(map[string]struct{}, len(currencies))
	for _, c := range currencies {
		filter[c] = struct{}{}
	}

	table, err := decodeXML(r, req, filter)
	if err != nil {
		return Result{}, err
	}

	invert := req.Invert()
	if invert {
		if err := invertRates(table, req.base()); err != nil {
			return Result{}, fmt.Errorf("invert rates: %w", err)
		}
	}

	return Result{
		Rates:      table,
		Currencies: currencies,
		Inverted:   invert,
	}, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
