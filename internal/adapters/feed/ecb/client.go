// Package ecb fetches the European Central Bank euro foreign exchange reference rates.
//
// Both feeds share the same document shape:
//
//	<gesmes:Envelope>
//	  <Cube>
//	    <Cube time="2025-11-07">
//	      <Cube currency="USD" rate="1.1561"/>
//	      ...
//
// Rates are quoted as 1 EUR = rate units of the currency.
package ecb

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/mma_currency/internal/apperrors"
	"github.com/SscSPs/mma_currency/internal/core/domain"
	portssvc "github.com/SscSPs/mma_currency/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

const (
	// DefaultRecentURL serves the last ~90 days of reference rates.
	DefaultRecentURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-hist-90d.xml"
	// DefaultHistoricalURL serves every reference rate since 1999-01-04.
	DefaultHistoricalURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-hist.xml"

	maxDocumentSize = 64 << 20
)

// Config configures the feed client.
type Config struct {
	RecentURL     string
	HistoricalURL string
	Timeout       time.Duration
}

// Client implements the RateFeed port against the ECB XML feeds.
type Client struct {
	recentURL     string
	historicalURL string
	httpClient    *http.Client
	logger        *slog.Logger
	now           func() time.Time
}

var _ portssvc.RateFeed = (*Client)(nil)

// NewClient creates a feed client. Empty URLs fall back to the public ECB endpoints.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.RecentURL == "" {
		cfg.RecentURL = DefaultRecentURL
	}
	if cfg.HistoricalURL == "" {
		cfg.HistoricalURL = DefaultHistoricalURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		recentURL:     cfg.RecentURL,
		historicalURL: cfg.HistoricalURL,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		logger:        logger.With(slog.String("component", "ecb_feed")),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// FetchRecent downloads and parses the 90-day feed.
func (c *Client) FetchRecent(ctx context.Context) ([]domain.ExchangeRate, error) {
	return c.fetch(ctx, c.recentURL, domain.SourceRecentFeed)
}

// FetchHistorical downloads and parses the full-history feed.
func (c *Client) FetchHistorical(ctx context.Context) ([]domain.ExchangeRate, error) {
	return c.fetch(ctx, c.historicalURL, domain.SourceHistoricalFeed)
}

func (c *Client) fetch(ctx context.Context, url string, source domain.RateSource) ([]domain.ExchangeRate, error) {
	body, err := c.download(ctx, url)
	if err != nil {
		return nil, err
	}
	rates := c.Parse(bytes.NewReader(body), source)
	c.logger.Info("Fetched rate feed",
		slog.String("url", url),
		slog.String("source", source.String()),
		slog.Int("bytes", len(body)),
		slog.Int("rates", len(rates)),
	)
	return rates, nil
}

// download reads the whole document so that a broken connection surfaces as a
// fetch error instead of a parse problem.
func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewFetchError(url, 0, err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewFetchError(url, 0, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, apperrors.NewFetchError(url, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, apperrors.NewFetchError(url, 0, fmt.Errorf("read body: %w", err))
	}
	return body, nil
}

type envelope struct {
	Cube struct {
		Days []struct {
			Time  string `xml:"time,attr"`
			Rates []struct {
				Currency string `xml:"currency,attr"`
				Rate     string `xml:"rate,attr"`
			} `xml:"Cube"`
		} `xml:"Cube"`
	} `xml:"Cube"`
}

// Parse turns a feed document into rates. Bad cells are logged and skipped;
// a document that cannot be decoded at all yields no rates.
func (c *Client) Parse(r io.Reader, source domain.RateSource) []domain.ExchangeRate {
	var doc envelope
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		c.logger.Warn("Rate feed document is malformed, ignoring it",
			slog.String("source", source.String()),
			slog.String("error", err.Error()),
		)
		return []domain.ExchangeRate{}
	}

	ingestedAt := c.now()
	rates := make([]domain.ExchangeRate, 0, len(doc.Cube.Days)*32)
	skipped := 0
	for _, day := range doc.Cube.Days {
		date, dateErr := domain.ParseDate(day.Time)
		for _, cell := range day.Rates {
			if dateErr != nil {
				c.logSkipped(&apperrors.ParseError{Date: day.Time, Currency: cell.Currency, Reason: "unparseable date"})
				skipped++
				continue
			}
			if cell.Rate == "" {
				c.logSkipped(&apperrors.ParseError{Date: day.Time, Currency: cell.Currency, Reason: "missing rate"})
				skipped++
				continue
			}
			value, err := decimal.NewFromString(cell.Rate)
			if err != nil {
				c.logSkipped(&apperrors.ParseError{Date: day.Time, Currency: cell.Currency, Reason: "unparseable rate " + cell.Rate})
				skipped++
				continue
			}
			rate, err := domain.NewExchangeRate(date, cell.Currency, value, source, ingestedAt)
			if err != nil {
				c.logSkipped(&apperrors.ParseError{Date: day.Time, Currency: cell.Currency, Reason: err.Error()})
				skipped++
				continue
			}
			rates = append(rates, rate)
		}
	}
	if skipped > 0 {
		c.logger.Warn("Skipped malformed rate feed records",
			slog.String("source", source.String()),
			slog.Int("skipped", skipped),
			slog.Int("parsed", len(rates)),
		)
	}
	return rates
}

func (c *Client) logSkipped(perr *apperrors.ParseError) {
	c.logger.Debug("Skipping rate feed record",
		slog.String("date", perr.Date),
		slog.String("currency", perr.Currency),
		slog.String("error", perr.Error()),
	)
}
