package media

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"fileworks-hq/vulcan/pkg/capability"
)

// Download is an immediate capability that fetches media from a platform URL.
type Download struct {
	id       string
	platform string
	resolver *Resolver
}

// NewYouTubeDownload creates the youtube-download capability.
func NewYouTubeDownload(resolver *Resolver) *Download {
	return &Download{id: "youtube-download", platform: "youtube", resolver: resolver}
}

// NewTikTokDownload creates the tiktok-download capability.
func NewTikTokDownload(resolver *Resolver) *Download {
	return &Download{id: "tiktok-download", platform: "tiktok", resolver: resolver}
}

// ID implements capability.Capability.
func (d *Download) ID() string {
	return d.id
}

// Execute resolves the source URL and downloads the media.
func (d *Download) Execute(ctx context.Context, in *capability.Input) (*capability.Outcome, error) {
	if in.SourceURL == "" {
		return nil, &capability.Failure{
			Class:   capability.FailureInvalidInput,
			Tool:    d.id,
			Message: "no source url provided",
		}
	}

	resolution, err := d.resolver.Resolve(ctx, d.platform, in.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("resolve failed: %w", err)
	}

	data, contentType, err := d.resolver.Download(ctx, resolution.MediaURL)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	if contentType == "" {
		contentType = resolution.ContentType
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return capability.InlineOutcome(
		MediaFilename(resolution.Author, resolution.Title, resolution.Ext),
		contentType,
		data,
	), nil
}

// MediaFilename builds a safe download filename of the form
// author_title.ext. Characters outside letters, digits, dash, and underscore
// collapse to single underscores.
func MediaFilename(author, title, ext string) string {
	name := strings.Trim(sanitize(author)+"_"+sanitize(title), "_")
	if name == "" {
		name = "media"
	}
	if ext == "" {
		ext = "mp4"
	}
	return name + "." + strings.TrimPrefix(strings.ToLower(ext), ".")
}

// sanitize maps a metadata string to a filename-safe token.
func sanitize(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
