package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robotomize/kurlar"
	"github.com/robotomize/kurlar/internal/logging"
	"github.com/robotomize/kurlar/provider/tcmb"
)

const dateLayout = "2006-01-02"

var flagRates = flag.NewFlagSet("flagrates", flag.ContinueOnError)

var (
	base       = flagRates.String("base", tcmb.NativeBase, "base currency of the returned rates")
	currencies = flagRates.String("currencies", "", "comma separated currency codes, all published codes by default")
	dateFrom   = flagRates.String("from", "", "first date to include, 2006-01-02")
	dateTo     = flagRates.String("to", "", "last date to include, 2006-01-02")
	feedURL    = flagRates.String("url", "", "feed location, the TCMB daily feed by default")
	timeout    = flagRates.Duration("timeout", kurlar.DefaultRequestTimeout, "feed request timeout")
)

func main() {
	ctx := logging.WithLogger(context.Background(), logging.NewLogger("Kurlar: ", log.Lmsgprefix))
	logger := logging.FromContext(ctx)

	if err := flagRates.Parse(os.Args[1:]); err != nil {
		logger.Fatalf("flag parse: %v", err)
	}

	if err := realMain(ctx, os.Stdout); err != nil {
		var multiErr *multierror.Error
		if errors.As(err, &multiErr) {
			for _, wrErr := range multiErr.WrappedErrors() {
				var missing *tcmb.MissingBaseRateError
				if errors.As(wrErr, &missing) {
					logger.Printf("no %s rate published on %s", missing.Currency, missing.Date)
					continue
				}

				logger.Print(wrErr)
			}
			os.Exit(1)
		}

		logger.Fatal(err)
	}
}

func realMain(ctx context.Context, w io.Writer) error {
	req, err := buildRequest()
	if err != nil {
		return err
	}

	opts := []kurlar.Option{kurlar.WithRequestTimeout(*timeout)}
	if *feedURL != "" {
		u, err := url.Parse(*feedURL)
		if err != nil {
			return fmt.Errorf("url parse: %w", err)
		}

		opts = append(opts, kurlar.WithSource(tcmb.NewSourceURL(http.DefaultClient, *u)))
	}

	client := kurlar.New(http.DefaultClient, opts...)
	if len(req.Currencies) == 0 {
		req.Currencies = client.SupportedCurrencies()
	}

	res, err := client.ObtainRates(ctx, req)
	if err != nil {
		return fmt.Errorf("obtain rates: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Rates); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

func buildRequest() (tcmb.Request, error) {
	req := tcmb.Request{Base: *base}

	if *currencies != "" {
		for _, code := range strings.Split(*currencies, ",") {
			if code = strings.TrimSpace(code); code != "" {
				req.Currencies = append(req.Currencies, code)
			}
		}
	}

	var err error
	if req.From, err = parseDate(*dateFrom); err != nil {
		return req, fmt.Errorf("flag -from: %w", err)
	}

	if req.To, err = parseDate(*dateTo); err != nil {
		return req, fmt.Errorf("flag -to: %w", err)
	}

	return req, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("time parse: %w", err)
	}

	return t, nil
}
