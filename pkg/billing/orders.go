package billing

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Order statuses that grant premium access.
const (
	StatusApproved = "APPROVED"
	StatusCaptured = "CAPTURED"
)

// Checker answers whether a client address has premium access.
type Checker interface {
	// IsApproved reports whether the address has at least one approved or
	// captured order. Implementations must never fail: an unreadable or
	// malformed ledger reads as "not approved".
	IsApproved(ctx context.Context, address string) bool
}

// Order is a single entry in the external order ledger.
type Order struct {
	// IP is the client address the order was placed from.
	IP string `json:"ip"`

	// Status is the payment gateway status (e.g., APPROVED, CAPTURED,
	// DECLINED).
	Status string `json:"status"`

	// TrackID is the gateway tracking identifier.
	TrackID string `json:"trackId,omitempty"`

	// Amount is the order amount as reported by the gateway.
	Amount string `json:"amount,omitempty"`
}

// ledgerFile is the on-disk shape of the order ledger.
type ledgerFile struct {
	Orders []Order `json:"orders"`
}

// OrderLedger reads premium status from an order ledger JSON file written by
// the payment collaborator. Reads are cached; Invalidate drops the cache.
type OrderLedger struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	cached bool
	// approved holds the set of addresses with an approved or captured order.
	approved map[string]struct{}
}

// NewOrderLedger creates an order ledger reader for the given file path.
func NewOrderLedger(path string) *OrderLedger {
	return &OrderLedger{
		path:   path,
		logger: slog.Default().With("component", "billing.orders"),
	}
}

// IsApproved implements Checker. Ledger read failures degrade to false.
func (l *OrderLedger) IsApproved(ctx context.Context, address string) bool {
	approved, ok := l.snapshot()
	if !ok {
		var err error
		approved, err = l.reload()
		if err != nil {
			l.logger.Debug("order ledger unavailable, treating as not premium",
				"path", l.path,
				"error", err,
			)
			return false
		}
	}

	_, found := approved[address]
	return found
}

// Invalidate drops the cached ledger so the next check re-reads the file.
func (l *OrderLedger) Invalidate() {
	l.mu.Lock()
	l.cached = false
	l.approved = nil
	l.mu.Unlock()
}

// snapshot returns the cached approved set, if any.
func (l *OrderLedger) snapshot() (map[string]struct{}, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.approved, l.cached
}

// reload reads and parses the ledger file, replacing the cache on success.
func (l *OrderLedger) reload() (map[string]struct{}, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}

	var file ledgerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	approved := make(map[string]struct{})
	for _, order := range file.Orders {
		switch strings.ToUpper(order.Status) {
		case StatusApproved, StatusCaptured:
			approved[order.IP] = struct{}{}
		}
	}

	l.mu.Lock()
	l.approved = approved
	l.cached = true
	l.mu.Unlock()

	l.logger.Debug("order ledger loaded",
		"path", l.path,
		"orders", len(file.Orders),
		"approved_addresses", len(approved),
	)

	return approved, nil
}
