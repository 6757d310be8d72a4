package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/logger"
	"github.com/noah-isme/civic-portal-api/pkg/response"
)

const (
	// ContextIdentityKey stores the resolved models.Identity.
	ContextIdentityKey = "identity"
	// ContextSessionKey stores the session id when the caller used the cookie.
	ContextSessionKey = "session_id"

	// LoginPath is where unauthenticated browser callers are sent.
	LoginPath = "/login"
)

type sessionResolver interface {
	Resolve(ctx context.Context, id string) (*models.Identity, error)
}

type tokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

// Authenticator resolves the caller from the session cookie or a bearer token.
type Authenticator struct {
	sessions   sessionResolver
	tokens     tokenValidator
	cookieName string
}

// NewAuthenticator builds the gate; either source may be nil.
func NewAuthenticator(sessions sessionResolver, tokens tokenValidator, cookieName string) *Authenticator {
	if cookieName == "" {
		cookieName = "portal_session"
	}
	return &Authenticator{sessions: sessions, tokens: tokens, cookieName: cookieName}
}

// CookieName is the session cookie the gate reads.
func (a *Authenticator) CookieName() string {
	return a.cookieName
}

// Required blocks requests without a valid identity. API callers receive a
// 401 envelope, browser callers are redirected to the login page.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := a.resolve(c)
		if err != nil {
			deny(c, err)
			return
		}
		setIdentity(c, *identity)
		c.Next()
	}
}

// Optional attaches the identity when present but never blocks.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, err := a.resolve(c); err == nil {
			setIdentity(c, *identity)
		}
		c.Next()
	}
}

func (a *Authenticator) resolve(c *gin.Context) (*models.Identity, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
		}
		if a.tokens == nil {
			return nil, appErrors.ErrUnauthorized
		}
		claims, err := a.tokens.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, err
		}
		identity := claims.Identity()
		return &identity, nil
	}

	sessionID, err := c.Cookie(a.cookieName)
	if err != nil || sessionID == "" || a.sessions == nil {
		return nil, appErrors.ErrUnauthorized
	}
	identity, err := a.sessions.Resolve(c.Request.Context(), sessionID)
	if err != nil {
		return nil, err
	}
	c.Set(ContextSessionKey, sessionID)
	return identity, nil
}

func setIdentity(c *gin.Context, identity models.Identity) {
	c.Set(ContextIdentityKey, identity)
	c.Set(logger.UserIDKey, identity.UserID)
}

func deny(c *gin.Context, err error) {
	if response.WantsJSON(c) {
		response.Error(c, err)
	} else {
		_ = c.Error(err)
		response.Redirect(c, LoginPath, "", "")
	}
	c.Abort()
}

// IdentityFromContext returns the identity stored by the auth gate.
func IdentityFromContext(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(ContextIdentityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}

// SessionIDFromContext returns the cookie session id, if the caller used one.
func SessionIDFromContext(c *gin.Context) string {
	return c.GetString(ContextSessionKey)
}
