package tcmb

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
)

const (
	xmlDateElement     = "Tarih_Date"
	xmlDateAttr        = "Tarih"
	xmlCurrencyElement = "Currency"
	xmlCurrencyAttr    = "CurrencyCode"
	xmlRateElement     = "ForexBuying"
)

type decodeState uint8

const (
	stateAwaitingDateSection decodeState = iota
	stateInDateSection
	stateInCurrency
	stateAwaitingRateText
)

// feedDecoder holds the state of a single pass over the feed
type feedDecoder struct {
	req    Request
	filter map[string]struct{}
	table  RateTable

	state      decodeState
	date       string
	dayInRange bool
	currency   string
	text       strings.Builder
}

// decodeXML parses the feed in streaming mode and builds the rate table restricted to the
// request bounds and the filter set
func decodeXML(r io.Reader, req Request, filter map[string]struct{}) (RateTable, error) {
	fd := &feedDecoder{
		req:    req,
		filter: filter,
		table:  make(RateTable),
	}

	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charsetReader

TokenLoop:
	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break TokenLoop
			}

			return nil, fmt.Errorf("%w: %w", ErrFeedParse, err)
		}

		switch tp := token.(type) {
		case xml.StartElement:
			if err := fd.start(tp); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFeedParse, err)
			}
		case xml.EndElement:
			if err := fd.end(tp); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFeedParse, err)
			}
		case xml.CharData:
			if fd.state == stateAwaitingRateText {
				fd.text.Write(tp)
			}
		}
	}

	return fd.table, nil
}

func (fd *feedDecoder) start(el xml.StartElement) error {
	switch el.Name.Local {
	case xmlDateElement:
		value, ok := attrValue(el, xmlDateAttr)
		if !ok {
			return nil
		}

		day, err := parseFeedDate(value)
		if err != nil {
			return err
		}

		fd.date = day.Format(isoDateLayout)
		fd.dayInRange = fd.req.inRange(day)
		fd.currency = ""
		fd.state = stateInDateSection

		if fd.dayInRange {
			if _, ok := fd.table[fd.date]; !ok {
				fd.table[fd.date] = DayRates{}
			}

			fd.table[fd.date][NativeBase] = nativeBaseRate
		}
	case xmlCurrencyElement:
		if fd.state == stateAwaitingDateSection {
			return nil
		}

		code, _ := attrValue(el, xmlCurrencyAttr)
		fd.currency = normalizeCode(code)
		fd.state = stateInCurrency
	case xmlRateElement:
		if fd.state != stateInCurrency {
			return nil
		}

		fd.text.Reset()
		fd.state = stateAwaitingRateText
	}

	return nil
}

func (fd *feedDecoder) end(el xml.EndElement) error {
	switch el.Name.Local {
	case xmlRateElement:
		if fd.state != stateAwaitingRateText {
			return nil
		}

		fd.state = stateInCurrency

		return fd.commitRate(strings.TrimSpace(fd.text.String()))
	case xmlCurrencyElement:
		if fd.state == stateInCurrency || fd.state == stateAwaitingRateText {
			fd.currency = ""
			fd.state = stateInDateSection
		}
	case xmlDateElement:
		fd.currency = ""
		fd.state = stateAwaitingDateSection
	}

	return nil
}

// commitRate records a buying rate of the current currency, rates outside the filters are skipped
func (fd *feedDecoder) commitRate(rate string) error {
	if rate == "" || !fd.dayInRange {
		return nil
	}

	if _, ok := fd.filter[fd.currency]; !ok {
		return nil
	}

	v, err := decimal.NewFromString(rate)
	if err != nil {
		return fmt.Errorf("%w: %s on %s: %v", errRateNotValid, fd.currency, fd.date, err)
	}

	if !v.IsPositive() {
		return fmt.Errorf("%w: %s on %s: %s", errRateNotValid, fd.currency, fd.date, rate)
	}

	fd.table[fd.date][fd.currency] = rate

	return nil
}

// parseFeedDate reads the day, month and year from their fixed positions in DD.MM.YYYY,
// the separator is not checked
func parseFeedDate(value string) (time.Time, error) {
	if len(value) < 10 {
		return time.Time{}, fmt.Errorf("%w: %s=%q", errAttributeNotValid, xmlDateAttr, value)
	}

	iso := value[6:10] + "-" + value[3:5] + "-" + value[0:2]
	t, err := time.Parse(isoDateLayout, iso)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s=%q: %v", errAttributeNotValid, xmlDateAttr, value, err)
	}

	return t, nil
}

func attrValue(el xml.StartElement, name string) (string, bool) {
	for _, attr := range el.Attr {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}

	return "", false
}

// charsetReader decodes the Turkish code pages the feed is served in, other labels are resolved
// by the WHATWG encoding table
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-9", "iso8859-9", "latin5":
		return charmap.ISO8859_9.NewDecoder().Reader(input), nil
	case "windows-1254", "cp1254":
		return charmap.Windows1254.NewDecoder().Reader(input), nil
	}

	r, err := charset.NewReaderLabel(label, input)
	if err != nil {
		return nil, fmt.Errorf("charset %s: %w", label, err)
	}

	return r, nil
}
