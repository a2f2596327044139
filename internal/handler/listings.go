package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"adstream/internal/service"
)

type ListingHandler struct {
	Listings *service.ListingService
}

func (h *ListingHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/listings")
	g.POST("", h.create)
	g.GET("/mine", h.mine)
	g.GET("/discover", h.discover)
	g.GET("/:id", h.get)
	g.POST("/:id/slots", h.addSlots)
}

type slotRequest struct {
	SlotType        string  `json:"slot_type"`
	ReservePrice    money   `json:"reserve_price"`
	DurationSeconds *int    `json:"duration_seconds"`
	Position        *string `json:"position"`
}

type createListingRequest struct {
	Title              string        `json:"title"`
	Topic              string        `json:"topic"`
	SeriesName         string        `json:"series_name"`
	Description        string        `json:"description"`
	PlannedPublishDate time.Time     `json:"planned_publish_date"`
	AdSlots            []slotRequest `json:"ad_slots"`
}

type addSlotsRequest struct {
	AdSlots []slotRequest `json:"ad_slots"`
}

func slotInputs(items []slotRequest) []service.SlotInput {
	out := make([]service.SlotInput, 0, len(items))
	for _, it := range items {
		out = append(out, service.SlotInput{
			SlotType:        it.SlotType,
			ReservePrice:    string(it.ReservePrice),
			DurationSeconds: it.DurationSeconds,
			Position:        it.Position,
		})
	}
	return out
}

// @Summary Create a content listing with its ad slots
// @Tags listings
// @Security BearerAuth
// @Accept json
// @Param body body createListingRequest true "listing"
// @Success 201 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Failure 403 {object} apiResponse
// @Router /api/v1/listings [post]
func (h *ListingHandler) create(c *gin.Context) {
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	listing, err := h.Listings.CreateListing(c.Request.Context(), caller(c), service.CreateListingInput{
		Title:              req.Title,
		Topic:              req.Topic,
		SeriesName:         req.SeriesName,
		Description:        req.Description,
		PlannedPublishDate: req.PlannedPublishDate,
		Slots:              slotInputs(req.AdSlots),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, listingView(*listing))
}

// @Summary Add ad slots to an active listing
// @Tags listings
// @Security BearerAuth
// @Accept json
// @Param id path string true "listing id"
// @Param body body addSlotsRequest true "slots"
// @Success 201 {object} apiResponse
// @Router /api/v1/listings/{id}/slots [post]
func (h *ListingHandler) addSlots(c *gin.Context) {
	var req addSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	slots, err := h.Listings.AddSlots(c.Request.Context(), caller(c), c.Param("id"), slotInputs(req.AdSlots))
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, slotViews(slots))
}

// @Summary Get a listing
// @Tags listings
// @Security BearerAuth
// @Param id path string true "listing id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/listings/{id} [get]
func (h *ListingHandler) get(c *gin.Context) {
	listing, err := h.Listings.GetListing(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, listingView(*listing), nil)
}

// @Summary List the caller's listings with slots and received bids
// @Tags listings
// @Security BearerAuth
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/v1/listings/mine [get]
func (h *ListingHandler) mine(c *gin.Context) {
	page := pageQuery(c)
	items, total, err := h.Listings.ListCreatorListings(c.Request.Context(), caller(c), page)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, listingViews(items), paginationMeta(page.Limit, page.Offset, total))
}

// @Summary Discover listings open for sponsorship
// @Tags listings
// @Security BearerAuth
// @Param topic query string false "topic"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/v1/listings/discover [get]
func (h *ListingHandler) discover(c *gin.Context) {
	page := pageQuery(c)
	items, total, err := h.Listings.Discover(c.Request.Context(), caller(c), c.Query("topic"), page)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, discoverViews(items), paginationMeta(page.Limit, page.Offset, total))
}
