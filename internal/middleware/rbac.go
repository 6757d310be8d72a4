package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/response"
)

// RequireRoles restricts a route group to the given roles. It must run after
// the auth gate.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			deny(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[identity.Role]; ok {
			c.Next()
			return
		}

		err := appErrors.Clone(appErrors.ErrForbidden, "you do not have access to this area")
		if response.WantsJSON(c) {
			response.Error(c, err)
		} else {
			_ = c.Error(err)
			response.Redirect(c, models.HomePath(identity.Role), "error", err.Message)
		}
		c.Abort()
	}
}
