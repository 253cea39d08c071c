package kurlar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/robotomize/kurlar/internal/logging"
	"github.com/robotomize/kurlar/provider"
	"github.com/robotomize/kurlar/provider/tcmb"
)

const DefaultRequestTimeout = 10 * time.Second

type Option func(*Client)

type Options struct {
	RequestTimeout time.Duration
}

// WithRequestTimeout set a timeout for downloading and reading the feed
func WithRequestTimeout(t time.Duration) Option {
	return func(c *Client) {
		c.opts.RequestTimeout = t
	}
}

// WithSource replaces the TCMB feed source, for example with a mirror
func WithSource(source provider.Source) Option {
	return func(c *Client) {
		c.source = source
	}
}

// New return client of the TCMB daily rates
func New(client *http.Client, opts ...Option) *Client {
	c := &Client{
		opts: Options{
			RequestTimeout: DefaultRequestTimeout,
		},
		source: tcmb.NewSource(client),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type Client struct {
	opts   Options
	source provider.Source
}

// SupportedCurrencies returns a list of currency codes published by the feed
func (c *Client) SupportedCurrencies() []string {
	return c.source.GetExchangeable()
}

// ObtainRates downloads the feed and extracts the rates matching req.
//
//	c := kurlar.New(http.DefaultClient)
//	res, err := c.ObtainRates(ctx, tcmb.Request{
//		Base:       "USD",
//		Currencies: []string{"EUR", "GBP"},
//	})
func (c *Client) ObtainRates(ctx context.Context, req tcmb.Request) (tcmb.Result, error) {
	logger := logging.FromContext(ctx)

	if c.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()
	}

	rc, err := c.source.Open(ctx)
	if err != nil {
		return tcmb.Result{}, fmt.Errorf("open feed: %w", err)
	}
	defer rc.Close()

	res, err := tcmb.ExtractRates(rc, req)
	if err != nil {
		return tcmb.Result{}, fmt.Errorf("extract rates: %w", err)
	}

	logger.Printf("obtained rates for %d day(s), base %s, inverted: %t", len(res.Rates), req.Base, res.Inverted)

	return res, nil
}
