package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actions recorded for report exports.
const (
	ActionDownload = "report.download"
	ActionEmail    = "report.email"
)

// Entry records one export delivery attempt.
type Entry struct {
	ID        string
	Action    string
	Format    string
	Mode      string
	Recipient string
	Rows      int
	Bytes     int
	Result    string
	Error     string
	IP        string
	UserAgent string
	CreatedAt time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NewID generates a random audit id.
func NewID() string {
	return uuid.NewString()
}

// Origin identifies the client that triggered an export.
type Origin struct {
	IP        string
	UserAgent string
}

type originKey struct{}

// WithOrigin attaches the request origin to ctx.
func WithOrigin(ctx context.Context, origin Origin) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFrom returns the origin stored by WithOrigin, if any.
func OriginFrom(ctx context.Context) Origin {
	origin, _ := ctx.Value(originKey{}).(Origin)
	return origin
}

// OriginFromRequest reads the client address and user agent.
func OriginFromRequest(r *http.Request) Origin {
	return Origin{IP: ClientIP(r), UserAgent: r.UserAgent()}
}

// ClientIP returns the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
