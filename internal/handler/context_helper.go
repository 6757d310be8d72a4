package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/middleware"
	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/service"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/response"
)

const (
	defaultPageSize = 20
	maxMultipartMem = 8 << 20
)

// identityFromContext returns the caller resolved by the auth gate, writing a
// 401 (or login redirect) when it is missing.
func identityFromContext(c *gin.Context) (models.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Fail(c, appErrors.ErrUnauthorized, middleware.LoginPath)
		return models.Identity{}, false
	}
	return identity, true
}

// bindPayload accepts JSON bodies and browser form posts alike.
func bindPayload(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBind(dst); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	return nil
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 {
		size = defaultPageSize
	}
	return page, size
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// uploadsFromForm converts the multipart files under field into service uploads.
func uploadsFromForm(c *gin.Context, field string) ([]service.Upload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart form")
	}
	headers := form.File[field]
	uploads := make([]service.Upload, 0, len(headers))
	for _, header := range headers {
		uploads = append(uploads, toUpload(header))
	}
	return uploads, nil
}

func toUpload(header *multipart.FileHeader) service.Upload {
	return service.Upload{
		FileName: header.Filename,
		Size:     header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

// backTo picks the redirect target for browser form posts: the submitted
// redirect field when it is a local path, otherwise fallback.
func backTo(c *gin.Context, fallback string) string {
	if target := strings.TrimSpace(c.PostForm("redirect")); strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return target
	}
	return fallback
}
