package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

const (
	EventsPath = "/api/v1/register/events"
	HealthPath = "/health"
)

type Config struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	MaxConns   int
	// Dial overrides the TCP dialer. Tests point it at an in-memory listener.
	Dial fasthttp.DialFunc
}

type Stats struct {
	Delivered int64
	Failed    int64
}

// Client pushes register events to the cashier terminal.
type Client struct {
	config    Config
	http      *fasthttp.Client
	delivered atomic.Int64
	failed    atomic.Int64
}

func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, errors.New("terminal url is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 200 * time.Millisecond
	}
	if config.MaxConns <= 0 {
		config.MaxConns = 64
	}

	c := &Client{
		config: config,
		http: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
			Dial:                config.Dial,
		},
	}
	logger.Info("terminal client initialized", "url", config.URL, "timeout", config.Timeout.String(), "max_retries", config.MaxRetries)
	return c, nil
}

// Deliver posts ev to the terminal, retrying up to MaxRetries times.
func (c *Client) Deliver(ctx context.Context, ev *model.RegisterEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode register event")
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				c.failed.Add(1)
				return ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		if _, err := c.doRequest(ctx, fasthttp.MethodPost, EventsPath, body); err != nil {
			logger.Warn("terminal delivery failed", "event_id", ev.ID, "type", ev.Type, "attempt", attempt+1, "error", err)
			lastErr = err
			continue
		}

		c.delivered.Add(1)
		return nil
	}

	c.failed.Add(1)
	return errors.Wrapf(lastErr, "terminal delivery failed after %d attempts", c.config.MaxRetries+1)
}

func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, fasthttp.MethodGet, HealthPath, nil)
	return err
}

func (c *Client) Stats() Stats {
	return Stats{Delivered: c.delivered.Load(), Failed: c.failed.Load()}
}

func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.URL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, errors.Wrap(err, "request failed")
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusOK && status != fasthttp.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", status, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return result, nil
}
