package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/utils"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Session is the authenticated caller taken from an access token
type Session struct {
	UserID string
	Email  string
	Name   string
	Role   models.Role
}

// Outcome is the result kind of an authorization check
type Outcome int

const (
	Unauthenticated Outcome = iota
	Forbidden
	Allowed
)

// Decision is the result of Authorize. Session is set unless the caller
// is unauthenticated.
type Decision struct {
	Outcome Outcome
	Session *Session
}

// Gate checks access tokens against per-route role lists
type Gate struct {
	secret string
}

// NewGate creates a gate that verifies tokens signed with secret
func NewGate(secret string) *Gate {
	return &Gate{secret: secret}
}

// bearerToken reads the Authorization header. Browsers cannot set headers
// on WebSocket handshakes, so upgrades may pass ?token= instead.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

// Authenticate returns the session carried by r, if any
func (g *Gate) Authenticate(r *http.Request) (*Session, bool) {
	token := bearerToken(r)
	if token == "" {
		return nil, false
	}
	claims, err := utils.ValidateAccessToken(token, g.secret)
	if err != nil {
		return nil, false
	}

	s := &Session{}
	s.UserID, _ = claims["id"].(string)
	s.Email, _ = claims["email"].(string)
	s.Name, _ = claims["name"].(string)
	role, _ := claims["role"].(string)
	s.Role = models.Role(role)
	if s.UserID == "" || !s.Role.Valid() {
		return nil, false
	}
	return s, true
}

// Authorize decides whether r may proceed. An empty role list admits any
// authenticated session.
func (g *Gate) Authorize(r *http.Request, roles ...models.Role) Decision {
	session, ok := g.Authenticate(r)
	if !ok {
		return Decision{Outcome: Unauthenticated}
	}
	if len(roles) == 0 {
		return Decision{Outcome: Allowed, Session: session}
	}
	for _, role := range roles {
		if session.Role == role {
			return Decision{Outcome: Allowed, Session: session}
		}
	}
	return Decision{Outcome: Forbidden, Session: session}
}

// RequireRoles rejects requests without a session with 401 and requests
// whose role is not listed with 403
func (g *Gate) RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Authorize(r, roles...)
			switch d.Outcome {
			case Unauthenticated:
				utils.WriteError(w, utils.ErrUnauthorized)
				return
			case Forbidden:
				utils.WriteError(w, utils.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), d.Session)))
		})
	}
}

// WithSession stores s in ctx
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFrom returns the session stored by RequireRoles
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	return s, ok && s != nil
}
