package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vidshare/vidshare/internal/httputil"
)

const DefaultCookieName = "accessToken"

var (
	// ErrUnauthenticated means no credential was presented.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInvalidToken means a credential was presented but failed verification.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the verified principal attached to a request.
type Identity struct {
	ChannelID string
	Name      string
}

type contextKey string

const (
	identityKey     contextKey = "identity"
	identitySlotKey contextKey = "identity_slot"
)

type VerifierConfig struct {
	Secret     string
	CookieName string
}

type Verifier struct {
	secret     string
	cookieName string
}

func NewVerifier(cfg VerifierConfig) *Verifier {
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &Verifier{secret: cfg.Secret, cookieName: name}
}

func (v *Verifier) CookieName() string { return v.cookieName }

// credential returns the bearer token from the Authorization header, or the
// access cookie when the header carries no bearer token.
func (v *Verifier) credential(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie(v.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Verify extracts and verifies the request's credential. It never falls back to
// a lower-precedence source once a credential has been found.
func (v *Verifier) Verify(r *http.Request) (Identity, error) {
	token := v.credential(r)
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}
	claims, err := ValidateToken(v.secret, token)
	if err != nil {
		return Identity{}, errors.Join(ErrInvalidToken, err)
	}
	return Identity{ChannelID: claims.ChannelID, Name: claims.Name}, nil
}

// Middleware rejects requests without a valid credential: 401 when none is
// present, 403 when it fails verification.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := v.Verify(r)
		if err != nil {
			WriteAuthError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// Optional attaches an identity when a valid credential is present and lets
// every other request through anonymously.
func (v *Verifier) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, err := v.Verify(r); err == nil {
			r = r.WithContext(ContextWithIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

// WriteAuthError maps the auth error taxonomy onto HTTP responses.
func WriteAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		httputil.WriteError(w, http.StatusUnauthorized, "you are not authenticated")
	case errors.Is(err, ErrInvalidToken):
		httputil.WriteError(w, http.StatusForbidden, "your token is invalid")
	case errors.Is(err, ErrForbidden):
		httputil.WriteError(w, http.StatusForbidden, "you can only modify your own resources")
	default:
		httputil.WriteError(w, http.StatusInternalServerError, "authorization failed")
	}
}

// WithIdentitySlot returns a context holding an empty Identity that
// ContextWithIdentity fills in further down the chain. Middleware wrapping the
// verifier reads the slot after the handler returns.
func WithIdentitySlot(ctx context.Context) (context.Context, *Identity) {
	slot := &Identity{}
	return context.WithValue(ctx, identitySlotKey, slot), slot
}

func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	if slot, ok := ctx.Value(identitySlotKey).(*Identity); ok {
		*slot = identity
	}
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok && identity.ChannelID != ""
}

// ChannelIDFromContext returns the acting channel id, or "" for anonymous requests.
func ChannelIDFromContext(ctx context.Context) string {
	identity, _ := IdentityFromContext(ctx)
	return identity.ChannelID
}
