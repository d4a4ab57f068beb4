package connect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/claude/vitalsync/internal/models"
)

// Client retrieves per-date metric payloads. Responses are decoded into
// generic JSON trees; nothing is interpreted here.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger

	mu          sync.Mutex
	displayName string
}

// NewClient creates a Client targeting baseURL. httpClient is normally the
// one returned by Session.Client.
func NewClient(baseURL string, httpClient *http.Client, log *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// getJSON fetches path and decodes the body. 204 and a literal null both
// mean "no data" and yield nil.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values) (any, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("connect: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("connect: read body: %w", err)
	}
	c.log.Debug("provider request", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("connect: %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("connect: decode %s: %w", path, err)
	}
	return v, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

func dateParam(day time.Time) string {
	return day.Format(models.DateLayout)
}

// DisplayName returns the account's display name, resolving it once.
func (c *Client) DisplayName(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.displayName != "" {
		return c.displayName, nil
	}

	v, err := c.getJSON(ctx, "/userprofile-service/socialProfile", nil)
	if err != nil {
		return "", err
	}
	profile, _ := v.(map[string]any)
	name, _ := profile["displayName"].(string)
	if name == "" {
		return "", fmt.Errorf("connect: social profile has no displayName")
	}
	c.displayName = name
	return name, nil
}

// Sleep returns the sleep summary for the night ending on day.
func (c *Client) Sleep(ctx context.Context, day time.Time) (any, error) {
	name, err := c.DisplayName(ctx)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("date", dateParam(day))
	params.Set("nonSleepBufferMinutes", "60")
	return c.getJSON(ctx, "/wellness-service/wellness/dailySleepData/"+url.PathEscape(name), params)
}

// BodyBattery returns the daily body battery report list for day.
func (c *Client) BodyBattery(ctx context.Context, day time.Time) (any, error) {
	params := url.Values{}
	params.Set("startDate", dateParam(day))
	params.Set("endDate", dateParam(day))
	return c.getJSON(ctx, "/wellness-service/wellness/bodyBattery/reports/daily", params)
}

// Stress returns the stress report for day.
func (c *Client) Stress(ctx context.Context, day time.Time) (any, error) {
	return c.getJSON(ctx, "/wellness-service/wellness/dailyStress/"+dateParam(day), nil)
}

// HeartRate returns the heart rate report for day.
func (c *Client) HeartRate(ctx context.Context, day time.Time) (any, error) {
	name, err := c.DisplayName(ctx)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("date", dateParam(day))
	return c.getJSON(ctx, "/wellness-service/wellness/dailyHeartRate/"+url.PathEscape(name), params)
}

// HRV returns the HRV report for day.
func (c *Client) HRV(ctx context.Context, day time.Time) (any, error) {
	return c.getJSON(ctx, "/hrv-service/hrv/"+dateParam(day), nil)
}

// BloodPressure returns the blood pressure measurements between start and
// end inclusive.
func (c *Client) BloodPressure(ctx context.Context, start, end time.Time) (any, error) {
	params := url.Values{}
	params.Set("includeAll", "true")
	return c.getJSON(ctx, "/bloodpressure-service/bloodpressure/range/"+dateParam(start)+"/"+dateParam(end), params)
}
