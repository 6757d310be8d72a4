package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/models"
)

const auditMetaKey = "audit_meta"

// Audit captures the caller's network details once per request so handlers
// can hand them to audited service mutations.
func Audit() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auditMetaKey, models.AuditMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")})
		c.Next()
	}
}

// AuditMeta returns the details captured by Audit, falling back to the raw
// request when the middleware is not installed.
func AuditMeta(c *gin.Context) models.AuditMeta {
	if value, ok := c.Get(auditMetaKey); ok {
		if meta, ok := value.(models.AuditMeta); ok {
			return meta
		}
	}
	if c.Request == nil {
		return models.AuditMeta{}
	}
	return models.AuditMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}
