package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Logger receives retry diagnostics. kv are alternating key/value pairs.
type Logger interface {
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
}

// ZapLogger adapts a zap logger to Logger.
type ZapLogger struct{ L *zap.Logger }

func (z ZapLogger) Info(msg string, kv ...any) { z.L.Sugar().Infow(msg, kv...) }
func (z ZapLogger) Warn(msg string, kv ...any) { z.L.Sugar().Warnw(msg, kv...) }

// StatusError is a non-200 upstream answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

const maxErrorBody = 256

type Client struct {
	HTTP  *http.Client
	Token string
	// MaxElapsed bounds the whole retry loop. Zero means 3s.
	MaxElapsed time.Duration
}

// DoJSON sends req and decodes a 200 body into out. 5xx answers and transport errors are
// retried with exponential backoff until ctx ends or MaxElapsed passes; other statuses fail
// at once.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any, log Logger) error {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	req = req.WithContext(ctx)

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 1 * time.Second
	exp.MaxElapsedTime = 3 * time.Second
	if c.MaxElapsed > 0 {
		exp.MaxElapsedTime = c.MaxElapsed
	}

	attempt := 0
	op := func() error {
		attempt++
		resp, err := hc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return statusError(resp)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(statusError(resp))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode: %w", err))
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		if log != nil {
			log.Warn("httpx.retry", "url", req.URL.Redacted(), "attempt", attempt, "wait", wait, "error", err)
		}
	}
	err := backoff.RetryNotify(op, backoff.WithContext(exp, ctx), notify)
	if err == nil && log != nil && attempt > 1 {
		log.Info("httpx.recovered", "url", req.URL.Redacted(), "attempts", attempt)
	}
	return err
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Code: resp.StatusCode, Body: string(b)}
}
