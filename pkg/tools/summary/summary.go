// Package summary provides the degraded stand-in used when page rendering
// is unavailable: a minimal preview image so the client still gets a
// downloadable result instead of an error.
package summary

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"

	"fileworks-hq/vulcan/pkg/capability"
)

// placeholderJPEG is a 1x1 white JPEG.
const placeholderJPEGBase64 = "/9j/4AAQSkZJRgABAQEAYABgAAD/2wBDAAgGBgcGBQgHBwcJCQgKDBQNDAsLDBkSEw8UHRofHh0aHBwgJC4nICIsIxwcKDcpLDAxNDQ0Hyc5PTgyPC4zNDL/2wBDAQkJCQwLDBgNDRgyIRwhMjIyMjIyMjIyMjIyMjIyMjIyMjIyMjIyMjIyMjIyMjIyMjIyMjIyMjIyMjIyMjIyMjL/wAARCAABAAEDASIAAhEBAxEB/8QAHwAAAQUBAQEBAQEAAAAAAAAAAAECAwQFBgcICQoL/8QAtRAAAgEDAwIEAwUFBAQAAAF9AQIDAAQRBRIhMUEGE1FhByJxFDKBkaEII0KxwRVS0fAkM2JyggkKFhcYGRolJicoKSo0NTY3ODk6Q0RFRkdISUpTVFVWV1hZWmNkZWZnaGlqc3R1dnd4eXqDhIWGh4iJipKTlJWWl5iZmqKjpKWmp6ipqrKztLW2t7i5usLDxMXGx8jJytLT1NXW19jZ2uHi4+Tl5ufo6erx8vP09fb3+Pn6/9oADAMBAAIRAxEAPwD3+iiigD//2Q=="

var placeholderJPEG []byte

func init() {
	data, err := base64.StdEncoding.DecodeString(placeholderJPEGBase64)
	if err != nil {
		panic("malformed placeholder image: " + err.Error())
	}
	placeholderJPEG = data
}

// Placeholder is an immediate capability that always produces the preview
// image. It serves as the fallback leg behind page rendering.
type Placeholder struct{}

// NewPlaceholder creates the placeholder capability.
func NewPlaceholder() *Placeholder {
	return &Placeholder{}
}

// ID implements capability.Capability.
func (p *Placeholder) ID() string {
	return "preview-placeholder"
}

// Execute returns the preview image named after the input file.
func (p *Placeholder) Execute(ctx context.Context, in *capability.Input) (*capability.Outcome, error) {
	base := "preview"
	if len(in.Files) > 0 && in.Files[0].Name != "" {
		name := filepath.Base(in.Files[0].Name)
		if stem := strings.TrimSuffix(name, filepath.Ext(name)); stem != "" && stem != "." {
			base = stem + "_preview"
		}
	}

	data := make([]byte, len(placeholderJPEG))
	copy(data, placeholderJPEG)
	return capability.InlineOutcome(base+".jpg", "image/jpeg", data), nil
}
