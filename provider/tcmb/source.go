package tcmb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/robotomize/kurlar/provider"
	"github.com/robotomize/kurlar/provider/httputil"
)

const hostname = "www.tcmb.gov.tr"

const latestXMLRawPath = "/kurlar/today.xml"

var defaultLatestResourceXML = url.URL{Scheme: "https", Host: hostname, Path: latestXMLRawPath}

// List of currencies obtained from https://www.tcmb.gov.tr/kurlar/today.xml
var exchangeableSymbols = []string{
	"USD", "AUD", "DKK", "EUR", "GBP", "CHF", "SEK", "CAD",
	"KWD", "NOK", "SAR", "JPY", "BGN", "RON", "RUB", "IRR",
	"CNY", "PKR", "QAR", "XDR", "TRY",
}

// SupportedCurrencies returns the codes the TCMB feed is known to publish
func SupportedCurrencies() []string {
	list := make([]string, len(exchangeableSymbols))
	copy(list, exchangeableSymbols)

	return list
}

var _ provider.Source = (*source)(nil)

type fetcher struct {
	latestURL url.URL
	httputil.SourceHTTPClient
}

// NewSource returns the source of the TCMB daily feed
func NewSource(client *http.Client) *source {
	return &source{
		client: fetcher{
			latestURL:        defaultLatestResourceXML,
			SourceHTTPClient: httputil.NewHTTPClient(client),
		},
	}
}

// NewSourceURL returns a source reading the feed from u, a mirror or a test server
func NewSourceURL(client *http.Client, u url.URL) *source {
	s := NewSource(client)
	s.client.latestURL = u

	return s
}

type source struct {
	client fetcher
}

func (s *source) GetExchangeable() []string {
	return SupportedCurrencies()
}

// Open starts downloading the feed, the caller must close the stream
func (s *source) Open(ctx context.Context) (io.ReadCloser, error) {
	rc, err := s.client.Open(ctx, s.client.latestURL)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}

	return rc, nil
}
