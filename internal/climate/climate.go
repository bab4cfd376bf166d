// Package climate reads the latest global CO2 level, falling back to a
// plausible value when the public API is unavailable.
package climate

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// DefaultURL is the public CO2 endpoint.
const DefaultURL = "https://global-warming.org/api/co2-api"

// Fallback bands.
const (
	FallbackCO2        = 420.0
	FallbackCO2Spread  = 0.25
	FallbackTemp       = 1.1
	FallbackTempSpread = 0.05
	CriticalAnomaly    = 1.5
)

type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

type Reading struct {
	CO2PPM          float64   `json:"co2_ppm"`
	TempAnomaly     float64   `json:"temp_anomaly"`
	ProgressPercent float64   `json:"progress_percent"`
	Critical        bool      `json:"critical"`
	Source          Source    `json:"source"`
	FetchedAt       time.Time `json:"fetched_at"`
}

type Config struct {
	URL     string
	Timeout time.Duration
	Retries int
}

type Client struct {
	url  string
	http *retryablehttp.Client
	log  logrus.FieldLogger
	now  func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewClient builds a client. rnd drives the fallback generator.
func NewClient(cfg Config, log logrus.FieldLogger, rnd *rand.Rand) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = cfg.Retries
	hc.RetryWaitMin = 200 * time.Millisecond
	hc.RetryWaitMax = 2 * time.Second
	hc.Logger = nil
	if cfg.Timeout > 0 {
		hc.HTTPClient.Timeout = cfg.Timeout
	}

	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	return &Client{url: url, http: hc, log: log, now: time.Now, rnd: rnd}
}

// Fetch returns the latest reading. Failures are logged and replaced by a
// fallback reading; Fetch never returns an error.
func (c *Client) Fetch(ctx context.Context) Reading {
	co2, temp, err := c.fetchLive(ctx)
	if err != nil {
		c.log.WithError(err).Debug("Using fallback climate data")
		return c.Fallback()
	}
	return newReading(co2, temp, SourceLive, c.now())
}

// Fallback draws a reading inside the fixed fallback bands.
func (c *Client) Fallback() Reading {
	c.mu.Lock()
	co2 := FallbackCO2 + (c.rnd.Float64()*2*FallbackCO2Spread - FallbackCO2Spread)
	temp := FallbackTemp + (c.rnd.Float64()*2*FallbackTempSpread - FallbackTempSpread)
	c.mu.Unlock()
	return newReading(co2, temp, SourceFallback, c.now())
}

func (c *Client) fetchLive(ctx context.Context) (float64, float64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, 0, fmt.Errorf("climate api: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, err
	}
	return parseLatest(body)
}

// parseLatest reads trend and day from the last element of "co2". The API
// serves them as strings; day is what the page shows as the anomaly.
func parseLatest(body []byte) (float64, float64, error) {
	if !gjson.ValidBytes(body) {
		return 0, 0, fmt.Errorf("climate api: invalid json")
	}
	series := gjson.GetBytes(body, "co2")
	if !series.IsArray() || len(series.Array()) == 0 {
		return 0, 0, fmt.Errorf("climate api: missing co2 series")
	}
	latest := series.Array()[len(series.Array())-1]

	trend, day := latest.Get("trend"), latest.Get("day")
	if !trend.Exists() || !day.Exists() {
		return 0, 0, fmt.Errorf("climate api: latest entry lacks trend or day")
	}
	co2, err := number(trend)
	if err != nil {
		return 0, 0, fmt.Errorf("climate api: trend: %w", err)
	}
	temp, err := number(day)
	if err != nil {
		return 0, 0, fmt.Errorf("climate api: day: %w", err)
	}
	return co2, temp, nil
}

// number accepts a JSON number or a numeric string. gjson's Float reads
// anything else as 0, which would pass for a real measurement.
func number(r gjson.Result) (float64, error) {
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Num
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, err
		}
		v = f
	default:
		return 0, fmt.Errorf("not a number: %s", r.Raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite: %s", r.Raw)
	}
	return v, nil
}

func newReading(co2, temp float64, src Source, at time.Time) Reading {
	return Reading{
		CO2PPM:          co2,
		TempAnomaly:     temp,
		ProgressPercent: temp / CriticalAnomaly * 100,
		Critical:        temp > CriticalAnomaly,
		Source:          src,
		FetchedAt:       at,
	}
}
