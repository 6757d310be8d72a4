package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/middleware"
	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/service"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/response"
)

type paymentService interface {
	Context(ctx context.Context, actor models.Identity, requestID string) (*models.PaymentContext, error)
	Submit(ctx context.Context, actor models.Identity, requestID string, input service.PaymentInput, meta models.AuditMeta) (*models.Payment, error)
}

// PaymentHandler exposes the one-shot payment flow.
type PaymentHandler struct {
	service paymentService
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(svc paymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// Context godoc
// @Summary Payment page data
// @Tags Payments
// @Produce json
// @Param request_id query string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) Context(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	requestID := strings.TrimSpace(c.Query("request_id"))
	if requestID == "" {
		response.Fail(c, appErrors.Clone(appErrors.ErrValidation, "request_id is required"), trackPath)
		return
	}
	pc, err := h.service.Context(c.Request.Context(), identity, requestID)
	if err != nil {
		response.Fail(c, err, trackPath)
		return
	}
	response.JSON(c, http.StatusOK, pc, nil)
}

// Submit godoc
// @Summary Pay for a request
// @Description Records the single payment of a request and moves it to under review. Omitting amount pays the service fee.
// @Tags Payments
// @Accept json
// @Produce json
// @Param requestId path string true "Request ID"
// @Param payload body service.PaymentInput false "Payment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/{requestId} [post]
func (h *PaymentHandler) Submit(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	requestID := c.Param("requestId")
	if requestID == "" {
		requestID = c.Param("id")
	}

	var input service.PaymentInput
	if c.Request.ContentLength != 0 {
		if err := bindPayload(c, &input); err != nil {
			response.Fail(c, err, trackPath)
			return
		}
	}

	payment, err := h.service.Submit(c.Request.Context(), identity, requestID, input, middleware.AuditMeta(c))
	if err != nil {
		response.Fail(c, err, trackPath)
		return
	}
	response.Respond(c, http.StatusCreated, "Payment successful", payment, trackPath)
}
