package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Exarkun1/pylab4/internal/analytics"
)

var (
	// ErrNoData is returned when the API has no usable quotes for the request.
	ErrNoData = errors.New("no data")

	// ErrUnsupportedInterval is returned for intervals the chart API cannot serve.
	ErrUnsupportedInterval = errors.New("unsupported interval")
)

// Field is a quote field of the chart response.
type Field string

const (
	FieldOpen  Field = "Open"
	FieldHigh  Field = "High"
	FieldLow   Field = "Low"
	FieldClose Field = "Close"
)

// ParseField maps a case-insensitive field name to a Field.
func ParseField(name string) (Field, error) {
	switch strings.ToLower(name) {
	case "", "open":
		return FieldOpen, nil
	case "high":
		return FieldHigh, nil
	case "low":
		return FieldLow, nil
	case "close":
		return FieldClose, nil
	default:
		return "", fmt.Errorf("unknown quote field %q", name)
	}
}

// chartIntervals are the bar sizes the chart API accepts.
var chartIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true, "60m": true, "90m": true,
	"1h": true, "1d": true, "5d": true, "1wk": true, "1mo": true, "3mo": true,
}

// ChartInterval translates an interval of the period grammar into the chart
// API's token. Weeks are spelled "wk" by the API.
func ChartInterval(interval string) (string, error) {
	token := interval
	if strings.HasSuffix(token, "w") {
		token += "k"
	}
	if !chartIntervals[token] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedInterval, interval)
	}
	return token, nil
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open  []*float64 `json:"open"`
			High  []*float64 `json:"high"`
			Low   []*float64 `json:"low"`
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Download fetches symbol from now-lookback to now at the given interval.
// Bars with a null quote are skipped.
func (c *Client) Download(ctx context.Context, symbol string, lookback time.Duration, interval string) (*analytics.Series, error) {
	if symbol == "" {
		return nil, fmt.Errorf("download: empty symbol")
	}
	if lookback <= 0 {
		return nil, fmt.Errorf("download %s: lookback must be positive, got %s", symbol, lookback)
	}
	token, err := ChartInterval(interval)
	if err != nil {
		return nil, err
	}

	end := c.now()
	start := end.Add(-lookback)

	query := url.Values{}
	query.Set("period1", strconv.FormatInt(start.Unix(), 10))
	query.Set("period2", strconv.FormatInt(end.Unix(), 10))
	query.Set("interval", token)
	query.Set("includePrePost", "false")
	query.Set("events", "div,splits")

	body, err := c.doWithRetry(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), query)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", symbol, err)
	}

	series, err := c.parseChart(body, symbol)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", symbol, err)
	}

	c.logger.Info("Quotes downloaded",
		"symbol", symbol,
		"interval", token,
		"start", start.Format(time.RFC3339),
		"samples", series.Len())

	return series, nil
}

func (c *Client) parseChart(body []byte, symbol string) (*analytics.Series, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrNoData, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: empty chart for %s", ErrNoData, symbol)
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var column []*float64
	switch c.field {
	case FieldHigh:
		column = quote.High
	case FieldLow:
		column = quote.Low
	case FieldClose:
		column = quote.Close
	default:
		column = quote.Open
	}

	ts := make([]time.Time, 0, len(result.Timestamp))
	vals := make([]float64, 0, len(result.Timestamp))
	for i, sec := range result.Timestamp {
		if i >= len(column) || column[i] == nil {
			continue
		}
		stamp := time.Unix(sec, 0).UTC()
		// The live bar can repeat the last timestamp.
		if n := len(ts); n > 0 && !stamp.After(ts[n-1]) {
			continue
		}
		ts = append(ts, stamp)
		vals = append(vals, *column[i])
	}
	if len(ts) == 0 {
		return nil, fmt.Errorf("%w: no %s quotes for %s", ErrNoData, c.field, symbol)
	}

	return analytics.NewSeries(string(c.field), ts, vals)
}
