package kurlar

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/robotomize/kurlar/internal/logging"
	"github.com/robotomize/kurlar/provider"
	"github.com/robotomize/kurlar/provider/tcmb"
)

const testFeed = `<Tarih_Date Tarih="02.01.2023" Date="01/02/2023" Bulten_No="2023/1">
	<Currency CrossOrder="0" Kod="USD" CurrencyCode="USD">
		<Unit>1</Unit>
		<ForexBuying>18.5000</ForexBuying>
	</Currency>
	<Currency CrossOrder="9" Kod="EUR" CurrencyCode="EUR">
		<Unit>1</Unit>
		<ForexBuying>19.7000</ForexBuying>
	</Currency>
</Tarih_Date>`

// trackedBody records whether the client closed the feed stream
type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

func testContext() context.Context {
	var buf bytes.Buffer
	return logging.WithLogger(context.Background(), logging.NewLoggerTo(&buf, "", 0))
}

func TestNew_Options(t *testing.T) {
	t.Parallel()

	c := New(http.DefaultClient)
	if diff := cmp.Diff(DefaultRequestTimeout, c.opts.RequestTimeout); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	c = New(http.DefaultClient, WithRequestTimeout(time.Second))
	if diff := cmp.Diff(time.Second, c.opts.RequestTimeout); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	if diff := cmp.Diff(tcmb.SupportedCurrencies(), c.SupportedCurrencies()); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestClient_SupportedCurrencies(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := provider.NewMockSource(ctrl)
	source.EXPECT().GetExchangeable().Return([]string{"USD", "TRY"})

	c := New(http.DefaultClient, WithSource(source))

	if diff := cmp.Diff([]string{"USD", "TRY"}, c.SupportedCurrencies()); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestClient_ObtainRates(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		feed     string
		openErr  error
		req      tcmb.Request
		err      error
		expected tcmb.RateTable
	}{
		{
			name: "test_native_base",
			feed: testFeed,
			req:  tcmb.Request{Base: "TRY", Currencies: []string{"USD"}},
			expected: tcmb.RateTable{
				"2023-01-02": {"TRY": "1.0000", "USD": "18.5000"},
			},
		},
		{
			name: "test_usd_base",
			feed: testFeed,
			req:  tcmb.Request{Base: "USD", Currencies: []string{"USD"}},
			expected: tcmb.RateTable{
				"2023-01-02": {"TRY": "0.0540540540540541", "USD": "1"},
			},
		},
		{
			name:    "test_open_failed",
			openErr: context.DeadlineExceeded,
			req:     tcmb.Request{Base: "USD"},
			err:     context.DeadlineExceeded,
		},
		{
			name: "test_malformed_feed",
			feed: strings.TrimSuffix(testFeed, "</Tarih_Date>"),
			req:  tcmb.Request{Base: "TRY"},
			err:  tcmb.ErrFeedParse,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			source := provider.NewMockSource(ctrl)

			body := &trackedBody{Reader: strings.NewReader(tc.feed)}
			if tc.openErr != nil {
				source.EXPECT().Open(gomock.Any()).Return(nil, tc.openErr)
			} else {
				source.EXPECT().Open(gomock.Any()).Return(body, nil)
			}

			c := New(http.DefaultClient, WithSource(source))
			res, err := c.ObtainRates(testContext(), tc.req)
			if !errors.Is(err, tc.err) {
				diff := cmp.Diff(tc.err, err, cmpopts.EquateErrors())
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}

			if tc.openErr == nil && !body.closed {
				t.Errorf("feed stream was not closed")
			}

			if diff := cmp.Diff(tc.expected, res.Rates, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestClient_ObtainRatesMissingBase(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := provider.NewMockSource(ctrl)
	source.EXPECT().Open(gomock.Any()).Return(io.NopCloser(strings.NewReader(testFeed)), nil)

	c := New(http.DefaultClient, WithSource(source))
	_, err := c.ObtainRates(testContext(), tcmb.Request{Base: "GBP", Currencies: []string{"USD"}})

	var missing *tcmb.MissingBaseRateError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingBaseRateError, got %v", err)
	}

	expected := &tcmb.MissingBaseRateError{Date: "2023-01-02", Currency: "GBP"}
	if diff := cmp.Diff(expected, missing); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}
