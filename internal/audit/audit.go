// Package audit records what was loaded and searched, and by whom.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names the operation an entry describes.
type Action string

const (
	ActionLoad        Action = "load"
	ActionSearch      Action = "search"
	ActionKeyword     Action = "keyword"
	ActionBoundingBox Action = "bounding_box"
	ActionBroadband   Action = "broadband"
)

// DefaultLimit is used by Recent when limit is not positive.
const DefaultLimit = 50

// Entry is one audit log record.
type Entry struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Source    string    `json:"source,omitempty"`
	Query     string    `json:"query,omitempty"`
	Rows      int       `json:"rows"`
	Error     string    `json:"error,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists audit entries.
type Store interface {
	// Record saves e. Missing ID and CreatedAt are filled in.
	Record(ctx context.Context, e Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Pruner is implemented by stores that can drop old entries.
type Pruner interface {
	// Prune deletes entries created before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// prepare fills in generated fields and request metadata from ctx.
func prepare(ctx context.Context, e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = IPAddressFromContext(ctx)
	}
	if e.UserAgent == "" {
		e.UserAgent = UserAgentFromContext(ctx)
	}
	return e
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

type contextKey string

const (
	ctxKeyIPAddress contextKey = "audit_ip"
	ctxKeyUserAgent contextKey = "audit_ua"
)

// WithRequestInfo stores the client address and user agent for entries
// recorded under ctx.
func WithRequestInfo(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyIPAddress, ip)
	return context.WithValue(ctx, ctxKeyUserAgent, userAgent)
}

// IPAddressFromContext returns the address set by WithRequestInfo.
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// UserAgentFromContext returns the user agent set by WithRequestInfo.
func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
