package yahoo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"resty.dev/v3"

	"marketfetcher/internal/fetcher"
	"marketfetcher/internal/ratelimit"
	"marketfetcher/internal/table"
)

// DefaultBaseURL is the production chart API endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Yahoo rejects requests without a browser-looking user agent.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/117.0"

// chartResponse mirrors the provider's chart payload. Bars with no trade
// data come back as JSON nulls, hence the pointer slices.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Client fetches historical bars from the Yahoo Finance chart API.
type Client struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
	log     logrus.FieldLogger
}

// NewClient creates a chart API client against baseURL, throttled by the
// given limiter.
func NewClient(baseURL string, limiter *ratelimit.Limiter, log logrus.FieldLogger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	return &Client{
		client:  client,
		limiter: limiter,
		log:     log,
	}
}

// Download implements fetcher.Source. It returns an empty table when the
// provider has no bars for the query; transport and HTTP failures come
// back as classified fetch errors.
func (c *Client) Download(ctx context.Context, ticker string, q fetcher.Query) (*table.Table, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := map[string]string{
		"interval":       q.Interval,
		"includePrePost": strconv.FormatBool(q.PrePost),
		"events":         "div,splits",
	}
	if q.Start != "" && q.End != "" {
		start, err := time.Parse("2006-01-02", q.Start)
		if err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("malformed start date %q", q.Start))
		}
		end, err := time.Parse("2006-01-02", q.End)
		if err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("malformed end date %q", q.End))
		}
		params["period1"] = strconv.FormatInt(start.Unix(), 10)
		params["period2"] = strconv.FormatInt(end.Unix(), 10)
	} else {
		params["range"] = q.Period
	}

	var result chartResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("ticker", ticker).
		SetQueryParams(params).
		SetResult(&result).
		Get("/v8/finance/chart/{ticker}")

	if err != nil {
		return nil, fetcher.ClassifyError(err)
	}
	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}
	if result.Chart.Error != nil {
		return nil, fetcher.NewValidationError(fmt.Sprintf("provider error %s: %s",
			result.Chart.Error.Code, result.Chart.Error.Description))
	}

	return c.toTable(ticker, &result, q.AutoAdjust)
}

// toTable converts a chart payload into a table, skipping null bars and
// applying the adjusted-close scaling when requested.
func (c *Client) toTable(ticker string, r *chartResponse, autoAdjust bool) (*table.Table, error) {
	t := table.New("Open", "High", "Low", "Close", "Volume")
	if len(r.Chart.Result) == 0 {
		return t, nil
	}

	res := r.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return t, nil
	}
	quote := res.Indicators.Quote[0]

	var adj []*float64
	if autoAdjust && len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}

	for i, ts := range res.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			break
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}

		open, high, low, closePx := *quote.Open[i], *quote.High[i], *quote.Low[i], *quote.Close[i]
		volume := 0.0
		if quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}

		if adj != nil && i < len(adj) && adj[i] != nil && closePx != 0 {
			ratio := *adj[i] / closePx
			open *= ratio
			high *= ratio
			low *= ratio
			closePx = *adj[i]
		}

		date := time.Unix(ts, 0).UTC()
		if err := t.AppendRow(date, open, high, low, closePx, volume); err != nil {
			return nil, err
		}
	}

	c.log.WithFields(logrus.Fields{"ticker": ticker, "rows": t.Len()}).Debug("downloaded chart data")
	return t, nil
}
