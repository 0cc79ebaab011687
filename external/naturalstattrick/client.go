package naturalstattrick

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/skater-value/internal/domain/dataset"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
	"github.com/riskibarqy/skater-value/internal/platform/resilience"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL   = "https://www.naturalstattrick.com"
	defaultUserAgent = "skater-value/1.0 (+https://github.com/riskibarqy/skater-value)"
	maxBodyBytes     = 24 << 20

	SituationAll  = "all"
	SituationEven = "ev"
)

var errTransient = crerr.New("natural stat trick transient failure")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Season     string
	Timeout    time.Duration
	// URLs overrides the page fetched for a dataset name.
	URLs map[string]string
	// MaxRetries is the number of extra attempts after a transient failure.
	MaxRetries     int
	RetryBackoff   time.Duration
	CircuitBreaker resilience.BreakerConfig
	Logger         *logging.Logger
}

type Client struct {
	httpClient *http.Client
	urls       map[string]string
	retry      resilience.RetryPolicy
	breaker    *resilience.Breaker
	flight     resilience.Group[[]byte]
	logger     *logging.Logger
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
		httpClient.Timeout = 60 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	urls := map[string]string{
		dataset.NameAllStrengths: PlayerTeamsURL(baseURL, cfg.Season, SituationAll),
		dataset.NameEvenStrength: PlayerTeamsURL(baseURL, cfg.Season, SituationEven),
	}
	for name, raw := range cfg.URLs {
		if strings.TrimSpace(raw) != "" {
			urls[name] = strings.TrimSpace(raw)
		}
	}

	return &Client{
		httpClient: httpClient,
		urls:       urls,
		retry:      resilience.RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff},
		breaker:    resilience.NewBreaker(cfg.CircuitBreaker),
		logger:     logger.Named("source.nst"),
	}
}

// PlayerTeamsURL is the regular-season individual counts page for every skater, one row per team stint.
func PlayerTeamsURL(baseURL, season, situation string) string {
	values := url.Values{}
	values.Set("fromseason", season)
	values.Set("thruseason", season)
	values.Set("stype", "2")
	values.Set("sit", situation)
	values.Set("score", "all")
	values.Set("stdoi", "std")
	values.Set("rate", "n")
	values.Set("team", "ALL")
	values.Set("pos", "S")
	values.Set("loc", "B")
	values.Set("toi", "0")
	values.Set("gpfilt", "none")
	values.Set("fd", "")
	values.Set("td", "")
	values.Set("tgp", "410")
	values.Set("lines", "single")
	values.Set("draftteam", "ALL")
	return strings.TrimRight(baseURL, "/") + "/playerteams.php?" + values.Encode()
}

// Handles reports whether the client knows a page for the dataset.
func (c *Client) Handles(name string) bool {
	_, ok := c.urls[name]
	return ok
}

func (c *Client) Fetch(ctx context.Context, name string) (dataset.Table, error) {
	pageURL, ok := c.urls[name]
	if !ok {
		return dataset.Table{}, crerr.Newf("natural stat trick has no page for dataset %q", name)
	}

	start := time.Now()
	raw, err, _ := c.flight.Do(pageURL, func() ([]byte, error) {
		return c.fetchPage(ctx, name, pageURL)
	})
	if err != nil {
		return dataset.Table{}, crerr.Wrapf(err, "fetch %s", name)
	}

	table, err := ParseTable(bytes.NewReader(raw))
	if err != nil {
		return dataset.Table{}, crerr.Wrapf(err, "parse %s", name)
	}

	c.logger.InfoContext(ctx, "player table fetched",
		"dataset", name,
		"rows", table.Len(),
		"columns", len(table.Columns),
		"bytes", len(raw),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return table, nil
}

// fetchPage retries transient failures behind the breaker. An open breaker is reported as transient.
func (c *Client) fetchPage(ctx context.Context, name, pageURL string) ([]byte, error) {
	var raw []byte
	err := c.breaker.Do(func() error {
		return resilience.Retry(ctx, c.retry, IsTransient, func(attempt int) error {
			out, err := c.executeRequest(ctx, pageURL)
			if err != nil && attempt < c.retry.MaxRetries && IsTransient(err) {
				c.logger.WarnContext(ctx, "retrying player table", "dataset", name, "attempt", attempt+1, "error", err)
			}
			raw = out
			return err
		})
	}, IsTransient)
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		return nil, crerr.Mark(crerr.Wrapf(err, "%s", pageURL), errTransient)
	}
	return raw, err
}

func (c *Client) executeRequest(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	req.Header.Set("accept", "text/html")
	req.Header.Set("user-agent", defaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "send request"), errTransient)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "read response body"), errTransient)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := crerr.Newf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
		if isTransientStatus(resp.StatusCode) {
			statusErr = crerr.Mark(statusErr, errTransient)
		}
		c.logger.WarnContext(ctx, "natural stat trick request failed", "url", pageURL, "status", resp.StatusCode)
		return nil, statusErr
	}
	return raw, nil
}

// ParseTable reads the first HTML table of a page. A blank leading header column holds row
// numbers and is dropped.
func ParseTable(r io.Reader) (dataset.Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return dataset.Table{}, crerr.Wrap(err, "parse html")
	}

	tableSel := doc.Find("table").First()
	if tableSel.Length() == 0 {
		return dataset.Table{}, crerr.New("page has no table")
	}

	var columns []string
	tableSel.Find("thead tr").First().Find("th").Each(func(_ int, th *goquery.Selection) {
		columns = append(columns, cleanText(th.Text()))
	})
	if len(columns) == 0 {
		return dataset.Table{}, crerr.New("table has no header")
	}

	dropIndex := columns[0] == "" || columns[0] == "#"
	if dropIndex {
		columns = columns[1:]
	}

	var rows [][]string
	tableSel.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := make([]string, 0, len(columns)+1)
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, cleanText(td.Text()))
		})
		if dropIndex && len(cells) > 0 {
			cells = cells[1:]
		}
		if len(cells) == 0 {
			return
		}
		rows = append(rows, cells)
	})

	table := dataset.Table{Columns: columns, Rows: rows}
	if err := table.Validate(); err != nil {
		return dataset.Table{}, crerr.Wrap(err, "unexpected table shape")
	}
	return table, nil
}

func IsTransient(err error) bool {
	return err != nil && (crerr.Is(err, errTransient) || stderrors.Is(err, context.DeadlineExceeded))
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func cleanText(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
