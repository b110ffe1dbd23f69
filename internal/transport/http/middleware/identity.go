package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/succession-vault/internal/domain"
)

type contextKey string

const callerKey contextKey = "caller"

// Headers set by the authenticating gateway in front of this service. The
// gateway must strip any X-User-* headers sent by clients before setting its
// own; this service trusts them as-is, including the admin role.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Caller is the authenticated principal of a request.
type Caller struct {
	UserID string
	Role   string
}

func (c *Caller) IsAdmin() bool { return c.Role == domain.RoleAdmin }

// Identity reads the caller established upstream and injects it into the
// request context. Requests without a user id, or with a role other than
// user or admin, are rejected.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if userID == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing caller identity")
			return
		}
		role := strings.TrimSpace(r.Header.Get(HeaderUserRole))
		switch role {
		case "":
			role = domain.RoleUser
		case domain.RoleUser, domain.RoleAdmin:
		default:
			writeJSONError(w, http.StatusUnauthorized, "unknown caller role")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), &Caller{UserID: userID, Role: role})))
	})
}

func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFromContext extracts the caller injected by Identity.
func CallerFromContext(ctx context.Context) (*Caller, bool) {
	c, ok := ctx.Value(callerKey).(*Caller)
	return c, ok
}
