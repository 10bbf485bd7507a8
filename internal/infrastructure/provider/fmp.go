package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"
	"assetsync-service/internal/infrastructure/httpx"
	"assetsync-service/internal/infrastructure/logx"
)

// FMP fetches raw endpoint payloads from a Financial Modeling Prep style API.
// Paths maps each endpoint to its URL path, optionally with fixed query parameters.
type FMP struct {
	BaseURL string
	APIKey  string
	Paths   map[domain.Endpoint]string
	Client  *httpx.Client
}

var _ application.MarketDataProvider = (*FMP)(nil)

// fmpError is the object FMP answers with, status 200, on key or plan problems.
type fmpError struct {
	Message string `json:"Error Message"`
}

func (p *FMP) Fetch(ctx context.Context, ep domain.Endpoint, symbol domain.Symbol) (json.RawMessage, error) {
	if p.BaseURL == "" || p.APIKey == "" {
		return nil, errors.New("fmp: missing configuration")
	}
	path, ok := p.Paths[ep]
	if !ok {
		return nil, fmt.Errorf("fmp: no path configured for %s", ep)
	}
	u, err := p.endpointURL(path, symbol)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("fmp: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := p.Client
	if client == nil {
		client = &httpx.Client{}
	}
	var body json.RawMessage
	if err := client.DoJSON(ctx, req, &body, httpx.ZapLogger{L: logx.WithFields(ctx)}); err != nil {
		return nil, fmt.Errorf("fmp %s: %w", ep, err)
	}
	var fe fmpError
	if json.Unmarshal(body, &fe) == nil && fe.Message != "" {
		return nil, fmt.Errorf("fmp %s: %s", ep, fe.Message)
	}
	return body, nil
}

func (p *FMP) endpointURL(path string, symbol domain.Symbol) (string, error) {
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return "", fmt.Errorf("fmp: invalid base url: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("fmp: invalid path %q: %w", path, err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + ref.Path
	q := ref.Query()
	q.Set("symbol", string(symbol))
	q.Set("apikey", p.APIKey)
	base.RawQuery = q.Encode()
	return base.String(), nil
}
