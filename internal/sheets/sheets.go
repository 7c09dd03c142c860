// Package sheets reads worksheets from the Google Sheets values API.
//
// The client only needs an already-authenticated *http.Client; how the
// credential is obtained is the caller's concern. Rows come back keyed by
// the header row, matching what the rest of the pipeline expects.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4"

// ErrRateLimited is returned when the API answers 429. Callers treat it
// as transient; every other error is terminal.
var ErrRateLimited = errors.New("sheets: rate limited")

// Row is one worksheet row keyed by header cell.
type Row map[string]string

// Client reads value ranges from a single spreadsheet.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	spreadsheetKey string
	limiter        *rate.Limiter
	logger         zerolog.Logger
}

// NewClient creates a client for one spreadsheet. httpClient must carry
// the authentication; requestsPerMinute throttles our side so we hit the
// quota less often (the server-side 429 path still exists).
func NewClient(spreadsheetKey string, httpClient *http.Client, requestsPerMinute int, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient:     httpClient,
		baseURL:        defaultBaseURL,
		spreadsheetKey: spreadsheetKey,
		limiter:        rate.NewLimiter(rate.Limit(rps), 1),
		logger:         logger,
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// Records reads a whole worksheet and maps every data row by the header
// row. Short rows are padded with empty cells, extra cells are dropped.
func (c *Client) Records(ctx context.Context, worksheet string) ([]Row, error) {
	values, err := c.values(ctx, worksheet)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	header := values[0]
	rows := make([]Row, 0, len(values)-1)
	for _, cells := range values[1:] {
		row := make(Row, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(cells) {
				row[name] = cells[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Range reads a fixed A1 range from a worksheet without header mapping.
func (c *Client) Range(ctx context.Context, worksheet, a1 string) ([][]string, error) {
	return c.values(ctx, worksheet+"!"+a1)
}

type valueRange struct {
	Values [][]string `json:"values"`
}

func (c *Client) values(ctx context.Context, rng string) ([][]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(c.spreadsheetKey), url.PathEscape(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets request %s: %w", rng, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn().Str("range", rng).Msg("sheets API quota exceeded")
		return nil, fmt.Errorf("%w: range %s", ErrRateLimited, rng)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets %s returned %d: %s", rng, resp.StatusCode, truncate(body, 200))
	}

	var result valueRange
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode value range: %w", err)
	}
	return result.Values, nil
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
