package fantrax

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/skater-value/internal/domain/dataset"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
	"github.com/riskibarqy/skater-value/internal/platform/resilience"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultMaxRows = 1000
	todayToken     = "{today}"
	maxBodyBytes   = 8 << 20
)

var (
	errTransient    = crerr.New("fantrax transient failure")
	errUnauthorized = crerr.New("fantrax session rejected")
)

type ClientConfig struct {
	HTTPClient *http.Client
	// ExportURL is the player stats CSV download. "{today}" is replaced with the current date.
	ExportURL string
	// SessionCookie is sent verbatim as the Cookie header of an already signed-in session.
	SessionCookie string
	Timeout       time.Duration
	MaxRows       int
	Location      *time.Location
	MaxRetries    int
	RetryBackoff  time.Duration
	Logger        *logging.Logger
}

type Client struct {
	httpClient    *http.Client
	exportURL     string
	sessionCookie string
	maxRows       int
	location      *time.Location
	retry         resilience.RetryPolicy
	logger        *logging.Logger
	now           func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Client{
		httpClient:    httpClient,
		exportURL:     strings.TrimSpace(cfg.ExportURL),
		sessionCookie: strings.TrimSpace(cfg.SessionCookie),
		maxRows:       maxRows,
		location:      loc,
		retry:         resilience.RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff},
		logger:        logger.Named("source.fantrax"),
		now:           time.Now,
	}
}

func (c *Client) Handles(name string) bool {
	return name == dataset.NameRoster
}

func (c *Client) Fetch(ctx context.Context, name string) (dataset.Table, error) {
	if !c.Handles(name) {
		return dataset.Table{}, crerr.Newf("fantrax has no export for dataset %q", name)
	}
	if c.exportURL == "" {
		return dataset.Table{}, crerr.New("fantrax export url is not configured")
	}

	exportURL := strings.ReplaceAll(c.exportURL, todayToken, c.now().In(c.location).Format("2006-01-02"))
	var table dataset.Table
	err := resilience.Retry(ctx, c.retry, IsTransient, func(attempt int) error {
		out, err := c.download(ctx, exportURL)
		if err != nil && attempt < c.retry.MaxRetries && IsTransient(err) {
			c.logger.WarnContext(ctx, "retrying roster export", "attempt", attempt+1, "error", err)
		}
		table = out
		return err
	})
	if err != nil {
		return dataset.Table{}, err
	}

	c.logger.InfoContext(ctx, "roster export downloaded", "rows", table.Len(), "max_rows", c.maxRows)
	return table, nil
}

func (c *Client) download(ctx context.Context, exportURL string) (dataset.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return dataset.Table{}, crerr.Wrap(err, "build request")
	}
	req.Header.Set("accept", "text/csv")
	if c.sessionCookie != "" {
		req.Header.Set("cookie", c.sessionCookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dataset.Table{}, crerr.Mark(crerr.Wrap(err, "send request"), errTransient)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return dataset.Table{}, crerr.Mark(crerr.Newf("provider status=%d", resp.StatusCode), errUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return dataset.Table{}, crerr.Mark(crerr.Newf("provider status=%d", resp.StatusCode), errTransient)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return dataset.Table{}, crerr.Newf("provider status=%d", resp.StatusCode)
	}

	// An expired session is answered with the login page instead of a CSV.
	if strings.Contains(strings.ToLower(resp.Header.Get("content-type")), "text/html") {
		return dataset.Table{}, crerr.Mark(crerr.New("export returned html, session cookie likely expired"), errUnauthorized)
	}

	table, err := ParseCSV(io.LimitReader(resp.Body, maxBodyBytes), c.maxRows)
	if err != nil {
		return dataset.Table{}, crerr.Wrap(err, "parse roster export")
	}
	return table, nil
}

// ParseCSV reads a header row and at most maxRows data rows. Short rows are padded so every
// row matches the header width.
func ParseCSV(r io.Reader, maxRows int) (dataset.Table, error) {
	buffered := bufio.NewReader(r)
	if bom, err := buffered.Peek(3); err == nil && string(bom) == "\uFEFF" {
		_, _ = buffered.Discard(3)
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dataset.Table{}, crerr.New("export is empty")
		}
		return dataset.Table{}, crerr.Wrap(err, "read header")
	}
	for idx := range header {
		header[idx] = strings.TrimSpace(header[idx])
	}

	table := dataset.Table{Columns: header}
	for maxRows <= 0 || len(table.Rows) < maxRows {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return dataset.Table{}, crerr.Wrapf(err, "read row %d", len(table.Rows)+1)
		}
		row := make([]string, len(header))
		copy(row, record)
		table.Rows = append(table.Rows, row)
	}

	if err := table.Validate(); err != nil {
		return dataset.Table{}, crerr.Wrap(err, "unexpected export shape")
	}
	return table, nil
}

func IsUnauthorized(err error) bool {
	return crerr.Is(err, errUnauthorized)
}

func IsTransient(err error) bool {
	return crerr.Is(err, errTransient)
}
