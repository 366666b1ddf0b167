package brain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/abelbrown/moviefinder/internal/logging"
)

var _ Provider = (*HTTPProvider)(nil)

// ProviderConfig defines how to talk to one LLM API.
type ProviderConfig struct {
	Name       string
	Endpoint   string
	APIKey     string
	Model      string
	AuthHeader string // "Authorization" or "" for none
	AuthPrefix string // "Bearer " or ""
	NoAuth     bool   // available without an API key (local servers)

	// RequestsPerMinute caps calls; 0 means unlimited.
	RequestsPerMinute int

	BuildBody     func(cfg *ProviderConfig, req Request) map[string]any
	ParseResponse func(body []byte) (content, model string, err error)
}

// HTTPProvider is a generic HTTP-based LLM provider.
type HTTPProvider struct {
	config  *ProviderConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPProvider creates a provider from cfg.
func NewHTTPProvider(cfg *ProviderConfig) *HTTPProvider {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.RequestsPerMinute / 6
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), burst)
	}
	return &HTTPProvider{
		config:  cfg,
		client:  &http.Client{Timeout: 120 * time.Second},
		limiter: limiter,
	}
}

func (p *HTTPProvider) Name() string {
	return p.config.Name
}

func (p *HTTPProvider) Available() bool {
	if p.config.Model == "" {
		return false
	}
	return p.config.NoAuth || p.config.APIKey != ""
}

func (p *HTTPProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if !p.Available() {
		return Response{}, fmt.Errorf("%s provider not configured", p.config.Name)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("%s: rate limiter wait failed: %w", p.config.Name, err)
	}

	logging.Debug("HTTP provider request", "provider", p.config.Name, "model", p.config.Model)

	jsonBody, err := json.Marshal(p.config.BuildBody(p.config, req))
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logging.Error("API error", "provider", p.config.Name, "status", resp.StatusCode, "body", string(respBody))
		return Response{}, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	content, model, err := p.config.ParseResponse(respBody)
	if err != nil {
		return Response{}, fmt.Errorf("parse response: %w", err)
	}

	logging.Debug("API response", "provider", p.config.Name, "model", model, "content_len", len(content))

	return Response{
		Content:     content,
		Model:       model,
		RawResponse: string(respBody),
	}, nil
}

func (p *HTTPProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if p.config.AuthHeader != "" && p.config.APIKey != "" {
		req.Header.Set(p.config.AuthHeader, p.config.AuthPrefix+p.config.APIKey)
	}
}
