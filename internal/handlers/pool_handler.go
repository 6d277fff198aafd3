package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/services"
)

// DayEvents lists the ledger events of a game-day.
type DayEvents interface {
	ListDayEvents(ctx context.Context, day int64) ([]*models.LedgerEvent, error)
}

// PoolHandler serves pool balances and game-days
type PoolHandler struct {
	pools   services.PoolService
	tickets services.TicketService
	events  DayEvents
	amounts Amounts
}

// NewPoolHandler creates a new PoolHandler
func NewPoolHandler(pools services.PoolService, tickets services.TicketService, events DayEvents, amounts Amounts) *PoolHandler {
	return &PoolHandler{pools: pools, tickets: tickets, events: events, amounts: amounts}
}

// GetPools handles GET /pools
func (h *PoolHandler) GetPools(c *gin.Context) {
	b, err := h.pools.GetBalances(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.amounts.balancesView(b))
}

// CurrentDay handles GET /days/current
func (h *PoolHandler) CurrentDay(c *gin.Context) {
	day, err := h.tickets.CurrentDay(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": day})
}

// GetDay handles GET /days/:day
func (h *PoolHandler) GetDay(c *gin.Context) {
	dayNum, ok := int64Param(c, "day")
	if !ok {
		return
	}
	day, err := h.tickets.GetDay(c.Request.Context(), dayNum)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"day":              day,
		"collectedDisplay": h.amounts.Format(day.TotalCollected),
	})
}

// GetDayTickets handles GET /days/:day/tickets
func (h *PoolHandler) GetDayTickets(c *gin.Context) {
	dayNum, ok := int64Param(c, "day")
	if !ok {
		return
	}
	ids, err := h.tickets.GetDayTickets(c.Request.Context(), dayNum)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": dayNum, "ticketIds": ids})
}

// GetDayEvents handles GET /days/:day/events
func (h *PoolHandler) GetDayEvents(c *gin.Context) {
	dayNum, ok := int64Param(c, "day")
	if !ok {
		return
	}
	events, err := h.events.ListDayEvents(c.Request.Context(), dayNum)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": dayNum, "events": events, "count": len(events)})
}
