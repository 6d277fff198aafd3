package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/daily-lotto-settlement/internal/middleware"
	"github.com/ArowuTest/daily-lotto-settlement/internal/services"
)

// TicketHandler serves ticket purchases, lookups and claims
type TicketHandler struct {
	tickets services.TicketService
	prizes  services.PrizeService
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(tickets services.TicketService, prizes services.PrizeService) *TicketHandler {
	return &TicketHandler{tickets: tickets, prizes: prizes}
}

// BuyTicketRequest is the body of POST /tickets
type BuyTicketRequest struct {
	Numbers   []int `json:"numbers" binding:"required"`
	UseCredit bool  `json:"useCredit"`
}

// BuyTicket handles POST /tickets
func (h *TicketHandler) BuyTicket(c *gin.Context) {
	var req BuyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	claims, _ := middleware.ClaimsFrom(c)
	ticket, err := h.tickets.BuyTicket(c.Request.Context(), claims.Subject, req.Numbers, req.UseCredit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// GetTicket handles GET /tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	view, err := h.tickets.GetTicket(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ClaimPrize handles POST /tickets/:id/claim
func (h *TicketHandler) ClaimPrize(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	claims, _ := middleware.ClaimsFrom(c)
	ticket, err := h.prizes.ClaimPrize(c.Request.Context(), claims.Subject, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// MyTickets handles GET /players/me/tickets
func (h *TicketHandler) MyTickets(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	claims, _ := middleware.ClaimsFrom(c)
	tickets, err := h.tickets.ListOwnerTickets(c.Request.Context(), claims.Subject, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}

// MyCredits handles GET /players/me/credits
func (h *TicketHandler) MyCredits(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)
	credit, err := h.tickets.GetCredits(c.Request.Context(), claims.Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, credit)
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return v, true
}
