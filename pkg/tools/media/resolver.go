// Package media adapts the media resolver service into URL-driven download
// capabilities.
//
// The resolver turns a public video page URL into a direct media URL plus
// author and title metadata; the capability downloads the media and names
// the result after its author and title.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// ResolverConfig configures the media resolver client.
type ResolverConfig struct {
	// ResolverURL is the resolver API endpoint.
	ResolverURL string

	// Timeout bounds each HTTP call, including the media download.
	// Default: 60 seconds.
	Timeout time.Duration
}

// Resolution is the resolver's answer for one source URL.
type Resolution struct {
	// MediaURL is the direct download URL.
	MediaURL string `json:"media_url"`

	// Author is the uploader name.
	Author string `json:"author"`

	// Title is the media title.
	Title string `json:"title"`

	// Ext is the container extension without dot (e.g. "mp4").
	Ext string `json:"ext"`

	// ContentType is the media MIME type.
	ContentType string `json:"content_type"`
}

// Resolver resolves and downloads remote media.
type Resolver struct {
	config ResolverConfig
	http   *http.Client
	logger *slog.Logger
}

// NewResolver creates a media resolver client.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.ResolverURL == "" {
		return nil, fmt.Errorf("resolver url cannot be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Resolver{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: slog.Default().With("component", "tools.media"),
	}, nil
}

// Resolve asks the resolver for the direct media URL behind a source URL.
func (r *Resolver) Resolve(ctx context.Context, platform, sourceURL string) (*Resolution, error) {
	query := url.Values{}
	query.Set("platform", platform)
	query.Set("url", sourceURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.config.ResolverURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build resolve request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver returned status %d", resp.StatusCode)
	}

	var resolution Resolution
	if err := json.NewDecoder(resp.Body).Decode(&resolution); err != nil {
		return nil, fmt.Errorf("failed to decode resolver response: %w", err)
	}
	if resolution.MediaURL == "" {
		return nil, fmt.Errorf("resolver returned no media url")
	}

	r.logger.Debug("media resolved",
		"platform", platform,
		"author", resolution.Author,
		"title", resolution.Title,
	)
	return &resolution, nil
}

// Download fetches the media contents. The client timeout bounds the whole
// transfer so a stalled upstream cannot hold a request slot forever.
func (r *Resolver) Download(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media host returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
