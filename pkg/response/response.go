package response

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Message    string                 `json:"message,omitempty"`
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Message sends a success response carrying a human readable message.
func Message(c *gin.Context, status int, message string, data interface{}) {
	noStore(c)
	c.JSON(status, Envelope{Message: message, Data: data})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error response converting the error to the common structure.
// The original error is attached to the context so the request logger records it.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	noStore(c)
	public := appErrors.Public(appErr)
	c.JSON(appErr.Status, Envelope{Message: public.Message, Error: public})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// WantsJSON reports whether the caller expects a JSON body rather than a browser redirect.
func WantsJSON(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	if strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	if c.GetHeader("Authorization") != "" {
		return true
	}
	return strings.HasPrefix(c.ContentType(), "application/json")
}

// Redirect sends a browser caller to location with a query flag such as success or error.
func Redirect(c *gin.Context, location, flag, value string) {
	target := location
	if flag != "" {
		sep := "?"
		if strings.Contains(location, "?") {
			sep = "&"
		}
		target = location + sep + flag + "=" + url.QueryEscape(value)
	}
	c.Redirect(http.StatusFound, target)
	// non-GET redirects carry no body, so the status line must be committed here
	c.Writer.WriteHeaderNow()
}

// Respond renders JSON for API callers and a success redirect for browser callers.
func Respond(c *gin.Context, status int, message string, data interface{}, location string) {
	if location == "" || WantsJSON(c) {
		Message(c, status, message, data)
		return
	}
	Redirect(c, location, "success", message)
}

// Fail renders the error envelope for API callers and an error redirect for browser callers.
func Fail(c *gin.Context, err error, location string) {
	if location == "" || WantsJSON(c) {
		Error(c, err)
		return
	}
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	Redirect(c, location, "error", appErrors.Public(appErr).Message)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
