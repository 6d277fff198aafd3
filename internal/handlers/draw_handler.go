package handlers

import (
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/daily-lotto-settlement/internal/services"
)

// DrawHandler serves the upkeep interface, the oracle callback and distribution
type DrawHandler struct {
	draws  services.DrawService
	prizes services.PrizeService
}

// NewDrawHandler creates a new DrawHandler
func NewDrawHandler(draws services.DrawService, prizes services.PrizeService) *DrawHandler {
	return &DrawHandler{draws: draws, prizes: prizes}
}

// CheckUpkeep handles GET /upkeep
func (h *DrawHandler) CheckUpkeep(c *gin.Context) {
	check, err := h.draws.CheckUpkeep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

// PerformUpkeepRequest is the optional body of POST /upkeep
type PerformUpkeepRequest struct {
	PerformData string `json:"performData"`
}

// PerformUpkeep handles POST /upkeep. Anyone may call it; it answers 409 unless a draw is due.
func (h *DrawHandler) PerformUpkeep(c *gin.Context) {
	var req PerformUpkeepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	res, err := h.draws.PerformUpkeep(c.Request.Context(), req.PerformData)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetScheduler handles GET /scheduler
func (h *DrawHandler) GetScheduler(c *gin.Context) {
	view, err := h.draws.GetSchedulerStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Distribute handles POST /days/:day/distribute, retrying a distribution that failed after the draw.
func (h *DrawHandler) Distribute(c *gin.Context) {
	dayNum, ok := int64Param(c, "day")
	if !ok {
		return
	}
	day, err := h.prizes.DistributeDay(c.Request.Context(), dayNum)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// FulfillRequest is the oracle callback body. Words are decimal or 0x-prefixed hex.
type FulfillRequest struct {
	RequestID   string   `json:"requestId" binding:"required"`
	RandomWords []string `json:"randomWords" binding:"required"`
}

// Fulfill handles POST /oracle/fulfill
func (h *DrawHandler) Fulfill(c *gin.Context) {
	var req FulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	words := make([]*big.Int, len(req.RandomWords))
	for i, s := range req.RandomWords {
		w, ok := new(big.Int).SetString(s, 0)
		if !ok {
			badRequest(c, "Invalid random word "+s)
			return
		}
		words[i] = w
	}
	day, err := h.draws.OnRandomnessFulfilled(c.Request.Context(), req.RequestID, words)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}
