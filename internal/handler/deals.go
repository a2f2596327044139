package handler

import (
	"github.com/gin-gonic/gin"

	"adstream/internal/service"
)

type DealHandler struct {
	Delivery *service.DeliveryService
}

func (h *DealHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/deals")
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/ledger", h.ledger)
	g.POST("/:id/deliver", h.deliver)
	g.POST("/:id/review", h.review)
	g.POST("/:id/payment", h.payment)
}

// @Summary List the caller's deals
// @Tags deals
// @Security BearerAuth
// @Param status query string false "active|completed|pending"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/v1/deals [get]
func (h *DealHandler) list(c *gin.Context) {
	page := pageQuery(c)
	items, total, err := h.Delivery.ListDeals(c.Request.Context(), caller(c), c.Query("status"), page)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, dealViews(items), paginationMeta(page.Limit, page.Offset, total))
}

// @Summary Get a deal
// @Tags deals
// @Security BearerAuth
// @Param id path string true "deal id"
// @Success 200 {object} apiResponse
// @Router /api/v1/deals/{id} [get]
func (h *DealHandler) get(c *gin.Context) {
	deal, err := h.Delivery.GetDeal(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, dealView(*deal), nil)
}

// @Summary Audit trail of a deal
// @Tags deals
// @Security BearerAuth
// @Param id path string true "deal id"
// @Success 200 {object} apiResponse
// @Router /api/v1/deals/{id}/ledger [get]
func (h *DealHandler) ledger(c *gin.Context) {
	items, err := h.Delivery.Ledger(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, ledgerViews(items), nil)
}

type deliverRequest struct {
	ContentURL string `json:"content_url"`
}

// @Summary Submit the delivered content URL
// @Tags deals
// @Security BearerAuth
// @Accept json
// @Param id path string true "deal id"
// @Param body body deliverRequest true "content"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/deals/{id}/deliver [post]
func (h *DealHandler) deliver(c *gin.Context) {
	var req deliverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	deal, err := h.Delivery.SubmitContent(c.Request.Context(), caller(c), c.Param("id"), req.ContentURL)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, dealView(*deal), nil)
}

type reviewRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

// @Summary Review delivered content
// @Tags deals
// @Security BearerAuth
// @Accept json
// @Param id path string true "deal id"
// @Param body body reviewRequest true "APPROVED|REJECTED|DISPUTED"
// @Success 200 {object} apiResponse
// @Router /api/v1/deals/{id}/review [post]
func (h *DealHandler) review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	deal, err := h.Delivery.ReviewDelivery(c.Request.Context(), caller(c), c.Param("id"), req.Decision, req.Notes)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, dealView(*deal), nil)
}

type paymentRequest struct {
	Status string `json:"status"`
}

// @Summary Record a payment state change
// @Tags deals
// @Security BearerAuth
// @Accept json
// @Param id path string true "deal id"
// @Param body body paymentRequest true "PROCESSING|PAID|FAILED|REFUNDED"
// @Success 200 {object} apiResponse
// @Router /api/v1/deals/{id}/payment [post]
func (h *DealHandler) payment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	deal, err := h.Delivery.UpdatePaymentStatus(c.Request.Context(), caller(c), c.Param("id"), req.Status)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, dealView(*deal), nil)
}
