package handler

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/service"
	"github.com/noah-isme/civic-portal-api/pkg/response"
)

type documentService interface {
	List(ctx context.Context, actor models.Identity, requestID string) ([]models.Document, error)
	Add(ctx context.Context, actor models.Identity, requestID string, uploads []service.Upload) ([]models.Document, error)
	Link(ctx context.Context, actor models.Identity, requestID, documentID string) (*models.DocumentLink, error)
	Download(ctx context.Context, requestID, documentID, token string) (*os.File, *models.Document, error)
}

// DocumentHandler serves request attachments.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(svc documentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// List godoc
// @Summary List request documents
// @Tags Documents
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	docs, err := h.service.List(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Add godoc
// @Summary Attach documents
// @Tags Documents
// @Accept mpfd
// @Produce json
// @Param id path string true "Request ID"
// @Param documents formData file true "Files (.pdf .jpg .jpeg .png)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests/{id}/documents [post]
func (h *DocumentHandler) Add(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	uploads, err := uploadsFromForm(c, "documents")
	if err != nil {
		response.Fail(c, err, trackPath)
		return
	}
	docs, err := h.service.Add(c.Request.Context(), identity, c.Param("id"), uploads)
	if err != nil {
		response.Fail(c, err, trackPath)
		return
	}
	response.Respond(c, http.StatusCreated, fmt.Sprintf("%d document(s) uploaded", len(docs)), docs, trackPath)
}

// Link godoc
// @Summary Issue a signed download link
// @Tags Documents
// @Produce json
// @Param id path string true "Request ID"
// @Param documentId path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/documents/{documentId}/link [get]
func (h *DocumentHandler) Link(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	link, err := h.service.Link(c.Request.Context(), identity, c.Param("id"), c.Param("documentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download a document with a signed token
// @Tags Documents
// @Produce octet-stream
// @Param id path string true "Request ID"
// @Param documentId path string true "Document ID"
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/documents/{documentId}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	file, doc, err := h.service.Download(c.Request.Context(), c.Param("id"), c.Param("documentId"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	contentType := mime.TypeByExtension(filepath.Ext(doc.FilePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	size := doc.SizeBytes
	if info, statErr := file.Stat(); statErr == nil {
		size = info.Size()
	}
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, size, contentType, file, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.OriginalFileName),
	})
}
