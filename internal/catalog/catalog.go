// Package catalog reads the public product listing of a Shopify-style storefront.
package catalog

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Houeta/stock-flow/internal/errs"
	"github.com/Houeta/stock-flow/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const (
	productsPath     = "/products.json"
	maxPageSize      = 250
	defaultMaxPages  = 100
	defaultUserAgent = "Mozilla/5.0 (compatible; StockFlowBot/1.0)"
)

// Fetcher returns every product of the catalog.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]models.Product, error)
}

// Options configure a Client. Zero values fall back to sensible defaults.
type Options struct {
	BaseURL      string
	PageSize     int
	MaxPages     int
	Timeout      time.Duration
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	UserAgent    string
}

// Client pages through /products.json.
type Client struct {
	log      *slog.Logger
	http     *resty.Client
	baseURL  string
	pageSize int
	maxPages int
}

// NewClient creates a catalog client for the storefront at opts.BaseURL.
func NewClient(log *slog.Logger, opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid store base URL %q", opts.BaseURL)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	client := resty.New().
		SetBaseURL(base.String()).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(opts.RetryCount).
		AddRetryCondition(retryable).
		SetLogger(restyLogger{log: log})
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.RetryWait > 0 {
		client.SetRetryWaitTime(opts.RetryWait)
	}
	if opts.RetryMaxWait > 0 {
		client.SetRetryMaxWaitTime(opts.RetryMaxWait)
	}

	return &Client{
		log:      log,
		http:     client,
		baseURL:  base.String(),
		pageSize: pageSize,
		maxPages: maxPages,
	}, nil
}

// restyLogger routes resty's retry warnings into slog.
type restyLogger struct {
	log *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) { l.log.Error(fmt.Sprintf(format, v...)) }
func (l restyLogger) Warnf(format string, v ...any)  { l.log.Warn(fmt.Sprintf(format, v...)) }
func (l restyLogger) Debugf(format string, v ...any) { l.log.Debug(fmt.Sprintf(format, v...)) }

// retryable retries throttled and server-side failures; transport errors are retried by resty itself.
func retryable(resp *resty.Response, err error) bool {
	if err != nil || resp == nil {
		return true
	}

	return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
}

// FetchAll walks every page and returns the products in catalog order.
func (c *Client) FetchAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	for page, err := range c.Pages(ctx) {
		if err != nil {
			return nil, err
		}
		products = append(products, page...)
	}

	c.log.InfoContext(ctx, "Fetched catalog", "products", len(products))

	return products, nil
}

// Pages returns a lazy sequence of catalog pages starting at page 1.
// The sequence ends after an empty or short page; a failed page yields its error and stops.
// Every range over the sequence restarts from the first page.
func (c *Client) Pages(ctx context.Context) iter.Seq2[[]models.Product, error] {
	return func(yield func([]models.Product, error) bool) {
		for page := 1; ; page++ {
			if page > c.maxPages {
				c.log.WarnContext(ctx, "Reached page limit, stopping pagination", "max_pages", c.maxPages)
				return
			}

			products, err := c.Page(ctx, page)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(products) == 0 {
				return
			}
			if !yield(products, nil) {
				return
			}
			if len(products) < c.pageSize {
				return
			}
		}
	}
}

// Page fetches and decodes a single catalog page.
func (c *Client) Page(ctx context.Context, page int) ([]models.Product, error) {
	const opn = "catalog.Page"

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit": strconv.Itoa(c.pageSize),
			"page":  strconv.Itoa(page),
		}).
		Get(productsPath)
	if err != nil {
		return nil, errs.Mark(fmt.Errorf("%s: failed to request page %d: %w", opn, page, err), errs.ErrNetwork)
	}

	if resp.IsError() {
		return nil, errs.Mark(
			fmt.Errorf("%s: status code error: [%d] %s", opn, resp.StatusCode(), resp.Status()),
			errs.ErrNetwork,
		)
	}

	c.log.DebugContext(ctx, "Received catalog page", "page", page, "status code", resp.StatusCode())

	products, err := decodePage(resp.Body(), c.baseURL)
	if err != nil {
		return nil, errs.Mark(fmt.Errorf("%s: page %d: %w", opn, page, err), errs.ErrParse)
	}

	c.log.InfoContext(ctx, "Fetched catalog page", "page", page, "products", len(products))

	return products, nil
}

// decodePage converts one /products.json document into domain products.
func decodePage(body []byte, baseURL string) ([]models.Product, error) {
	var doc productsPage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("data cannot be parsed as catalog JSON: %w", err)
	}

	products := make([]models.Product, 0, len(doc.Products))
	for _, raw := range doc.Products {
		products = append(products, raw.toModel(baseURL))
	}

	return products, nil
}
