package handler

import (
	"github.com/gin-gonic/gin"

	"adstream/internal/service"
)

type BidHandler struct {
	Bids       *service.BidService
	Settlement *service.SettlementService
}

func (h *BidHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/bids")
	g.POST("", h.place)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/:id/accept", h.accept)
	g.POST("/:id/reject", h.reject)
}

type placeBidRequest struct {
	SlotID  string `json:"slot_id"`
	Amount  money  `json:"amount"`
	Message string `json:"message"`
}

// @Summary Place a bid on an ad slot
// @Tags bids
// @Security BearerAuth
// @Accept json
// @Param body body placeBidRequest true "bid"
// @Success 201 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/bids [post]
func (h *BidHandler) place(c *gin.Context) {
	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	bid, err := h.Bids.PlaceBid(c.Request.Context(), caller(c), service.PlaceBidInput{
		SlotID:  req.SlotID,
		Amount:  string(req.Amount),
		Message: req.Message,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, bidView(*bid))
}

// @Summary List bids placed (brand) or received (creator)
// @Tags bids
// @Security BearerAuth
// @Param status query string false "PENDING|ACCEPTED|REJECTED|OUTBID|EXPIRED"
// @Param slot_id query string false "slot id"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/v1/bids [get]
func (h *BidHandler) list(c *gin.Context) {
	page := pageQuery(c)
	items, total, err := h.Bids.ListBids(c.Request.Context(), caller(c), service.ListBidsInput{
		Status: c.Query("status"),
		SlotID: c.Query("slot_id"),
		Page:   page,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, bidViews(items), paginationMeta(page.Limit, page.Offset, total))
}

// @Summary Get a bid
// @Tags bids
// @Security BearerAuth
// @Param id path string true "bid id"
// @Success 200 {object} apiResponse
// @Router /api/v1/bids/{id} [get]
func (h *BidHandler) get(c *gin.Context) {
	bid, err := h.Bids.GetBid(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, bidView(*bid), nil)
}

type acceptBidRequest struct {
	PaymentTiming string `json:"payment_timing"`
}

// @Summary Accept a bid and create the deal
// @Tags bids
// @Security BearerAuth
// @Accept json
// @Param id path string true "bid id"
// @Param body body acceptBidRequest false "payment timing"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/bids/{id}/accept [post]
func (h *BidHandler) accept(c *gin.Context) {
	var req acceptBidRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	res, err := h.Settlement.AcceptBid(c.Request.Context(), caller(c), c.Param("id"), req.PaymentTiming)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, AcceptView{Bid: bidView(res.Bid), Deal: dealView(res.Deal)}, nil)
}

type rejectBidRequest struct {
	Reason string `json:"reason"`
}

// @Summary Reject a pending bid
// @Tags bids
// @Security BearerAuth
// @Accept json
// @Param id path string true "bid id"
// @Param body body rejectBidRequest false "reason"
// @Success 200 {object} apiResponse
// @Router /api/v1/bids/{id}/reject [post]
func (h *BidHandler) reject(c *gin.Context) {
	var req rejectBidRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	bid, err := h.Bids.RejectBid(c.Request.Context(), caller(c), c.Param("id"), req.Reason)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, bidView(*bid), nil)
}
