package artifact

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports an identifier with no artifact, live or expired.
var ErrNotFound = errors.New("artifact not found")

// ExpiredError reports an artifact that existed but whose time to live has
// passed. It is distinct from ErrNotFound so the download surface can tell
// clients "this link expired" instead of "this link never existed".
type ExpiredError struct {
	// ID is the artifact identifier.
	ID string

	// ExpiredAt is when the artifact's time to live ran out.
	ExpiredAt time.Time
}

// Error implements the error interface.
func (e *ExpiredError) Error() string {
	return fmt.Sprintf("artifact %q expired at %s", e.ID, e.ExpiredAt.Format(time.RFC3339))
}
