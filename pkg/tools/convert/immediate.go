package convert

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"fileworks-hq/vulcan/pkg/capability"
)

// Operation describes one synchronous conversion the service offers.
type Operation struct {
	// ID is the tool identifier.
	ID string

	// Format is the remote conversion format.
	Format string

	// OutputExt is the produced file extension, with dot.
	OutputExt string

	// OutputContentType is the produced MIME type.
	OutputContentType string

	// BuildQuery maps tool options to conversion query parameters.
	// Nil means the operation takes no options.
	BuildQuery func(options map[string]string) (url.Values, error)
}

// Conversion is an immediate capability backed by one service operation.
type Conversion struct {
	client *Client
	op     Operation
}

// NewConversion builds a capability for a service operation.
func NewConversion(client *Client, op Operation) *Conversion {
	return &Conversion{client: client, op: op}
}

// NewPDFToWord converts PDF documents to Word.
func NewPDFToWord(client *Client) *Conversion {
	return NewConversion(client, Operation{
		ID:                "pdf-to-word",
		Format:            "docx",
		OutputExt:         ".docx",
		OutputContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	})
}

// NewPDFToExcel converts PDF documents to Excel.
func NewPDFToExcel(client *Client) *Conversion {
	return NewConversion(client, Operation{
		ID:                "pdf-to-excel",
		Format:            "xlsx",
		OutputExt:         ".xlsx",
		OutputContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	})
}

// NewCompressPDF shrinks PDF documents.
func NewCompressPDF(client *Client) *Conversion {
	return NewConversion(client, Operation{
		ID:                "compress-pdf",
		Format:            "compress",
		OutputExt:         ".pdf",
		OutputContentType: "application/pdf",
	})
}

// NewRotatePDF rotates PDF pages by the angle option.
func NewRotatePDF(client *Client) *Conversion {
	return NewConversion(client, Operation{
		ID:                "rotate-pdf",
		Format:            "rotate",
		OutputExt:         ".pdf",
		OutputContentType: "application/pdf",
		BuildQuery: func(options map[string]string) (url.Values, error) {
			raw, ok := options["angle"]
			if !ok || raw == "" {
				return nil, &capability.Failure{
					Class:   capability.FailureInvalidInput,
					Tool:    "rotate-pdf",
					Message: "angle option is required",
				}
			}
			angle, err := strconv.Atoi(raw)
			if err != nil || angle%90 != 0 {
				return nil, &capability.Failure{
					Class:   capability.FailureInvalidInput,
					Tool:    "rotate-pdf",
					Message: fmt.Sprintf("invalid angle %q, must be a multiple of 90", raw),
				}
			}
			query := url.Values{}
			query.Set("angle", strconv.Itoa(angle))
			return query, nil
		},
	})
}

// ID implements capability.Capability.
func (c *Conversion) ID() string {
	return c.op.ID
}

// Execute uploads the first input file and converts it synchronously.
func (c *Conversion) Execute(ctx context.Context, in *capability.Input) (*capability.Outcome, error) {
	file, err := singleFile(c.op.ID, in)
	if err != nil {
		return nil, err
	}

	var query url.Values
	if c.op.BuildQuery != nil {
		query, err = c.op.BuildQuery(in.Options)
		if err != nil {
			return nil, err
		}
	}

	remoteName := remoteName(file.Name)
	if err := c.client.Upload(ctx, remoteName, file.Data); err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	converted, err := c.client.Convert(ctx, remoteName, c.op.Format, query)
	if err != nil {
		return nil, fmt.Errorf("conversion failed: %w", err)
	}

	return capability.InlineOutcome(
		outputFilename(file.Name, c.op.OutputExt),
		c.op.OutputContentType,
		converted,
	), nil
}

// singleFile extracts the one input file an operation works on.
func singleFile(tool string, in *capability.Input) (*capability.File, error) {
	if len(in.Files) == 0 {
		return nil, &capability.Failure{
			Class:   capability.FailureInvalidInput,
			Tool:    tool,
			Message: "no file provided",
		}
	}
	if len(in.Files[0].Data) == 0 {
		return nil, &capability.Failure{
			Class:   capability.FailureInvalidInput,
			Tool:    tool,
			Message: "file is empty",
		}
	}
	return &in.Files[0], nil
}

// remoteName builds a collision-free remote storage name that keeps the
// original extension.
func remoteName(original string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(original))
}

// outputFilename swaps the extension of the input filename.
func outputFilename(original, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	if base == "" || base == "." {
		base = "output"
	}
	return base + ext
}
