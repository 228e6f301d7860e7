package convert

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
)

// ClientConfig configures the conversion service client.
type ClientConfig struct {
	// BaseURL is the conversion API root.
	BaseURL string

	// TokenURL is the OAuth2 token endpoint.
	TokenURL string

	// ClientID is the OAuth2 client identifier.
	ClientID string

	// ClientSecret is the OAuth2 client secret.
	ClientSecret string

	// Timeout bounds each HTTP call. Default: 30 seconds.
	Timeout time.Duration
}

// Client talks to the conversion service.
type Client struct {
	config ClientConfig
	http   *http.Client
	logger *slog.Logger

	// tokenMu guards the cached token.
	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// tokenResponse is the OAuth2 token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// jobResponse is the queued job envelope.
type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewClient creates a conversion service client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url cannot be empty")
	}
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("token url cannot be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: slog.Default().With("component", "tools.convert"),
	}, nil
}

// Token returns a valid access token, fetching a fresh one when the cached
// token is missing or about to expire.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty token")
	}

	c.token = token.AccessToken
	// Refresh a minute early so in-flight requests never carry a token
	// that expires mid-call.
	expiresIn := time.Duration(token.ExpiresIn) * time.Second
	if expiresIn > 2*time.Minute {
		expiresIn -= time.Minute
	}
	c.tokenExpiry = time.Now().Add(expiresIn)

	c.logger.Debug("conversion token refreshed", "expires_in", token.ExpiresIn)
	return c.token, nil
}

// Upload stores a file in the service's remote storage under the given name.
func (c *Client) Upload(ctx context.Context, name string, data []byte) error {
	resp, err := c.do(ctx, http.MethodPut,
		fmt.Sprintf("%s/storage/file/%s", c.config.BaseURL, url.PathEscape(name)),
		bytes.NewReader(data), "application/octet-stream")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	return nil
}

// Convert runs a synchronous conversion of an uploaded file and returns the
// converted bytes. Extra query parameters carry operation options such as
// the rotation angle.
func (c *Client) Convert(ctx context.Context, name, format string, query url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/convert/%s/%s",
		c.config.BaseURL, url.PathEscape(format), url.PathEscape(name))
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("convert returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read converted file: %w", err)
	}
	return data, nil
}

// StartJob enqueues an asynchronous conversion of an uploaded file and
// returns the job identifier.
func (c *Client) StartJob(ctx context.Context, name, format string) (string, error) {
	endpoint := fmt.Sprintf("%s/jobs/%s/%s",
		c.config.BaseURL, url.PathEscape(format), url.PathEscape(name))

	resp, err := c.do(ctx, http.MethodPost, endpoint, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("start job returned status %d", resp.StatusCode)
	}

	var job jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return "", fmt.Errorf("failed to decode job response: %w", err)
	}
	if job.ID == "" {
		return "", fmt.Errorf("job endpoint returned empty id")
	}
	return job.ID, nil
}

// JobStatus reports the state of a queued job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (string, string, error) {
	resp, err := c.do(ctx, http.MethodGet,
		fmt.Sprintf("%s/jobs/%s", c.config.BaseURL, url.PathEscape(jobID)), nil, "")
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("job status returned status %d", resp.StatusCode)
	}

	var job jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return "", "", fmt.Errorf("failed to decode job status: %w", err)
	}
	return job.Status, job.Error, nil
}

// FetchResult downloads the output of a finished job.
func (c *Client) FetchResult(ctx context.Context, jobID string) ([]byte, string, error) {
	resp, err := c.do(ctx, http.MethodGet,
		fmt.Sprintf("%s/jobs/%s/result", c.config.BaseURL, url.PathEscape(jobID)), nil, "")
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("job result returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read job result: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// do performs an authenticated request against the service.
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Response, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to conversion service failed: %w", err)
	}
	return resp, nil
}
