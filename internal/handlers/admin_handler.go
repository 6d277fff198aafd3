package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/daily-lotto-settlement/internal/middleware"
	"github.com/ArowuTest/daily-lotto-settlement/internal/services"
)

// AdminHandler handles the owner-only settings endpoints
type AdminHandler struct {
	admin   services.AdminService
	draws   services.DrawService
	amounts Amounts
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin services.AdminService, draws services.DrawService, amounts Amounts) *AdminHandler {
	return &AdminHandler{admin: admin, draws: draws, amounts: amounts}
}

func caller(c *gin.Context) services.Caller {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return services.Caller{}
	}
	return services.Caller{Address: claims.Subject, Role: claims.Role}
}

// GetSettings handles GET /admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.admin.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"settings":           settings,
		"ticketPriceDisplay": h.amounts.Format(settings.TicketPrice),
	})
}

// ListAudit handles GET /admin/settings/audit
func (h *AdminHandler) ListAudit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.admin.ListSettingsAudit(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// SetTicketPrice handles PUT /admin/settings/ticket-price with a decimal token amount.
func (h *AdminHandler) SetTicketPrice(c *gin.Context) {
	var req struct {
		Price string `json:"price" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	units, err := h.amounts.Parse(req.Price)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	settings, err := h.admin.SetTicketPrice(c.Request.Context(), caller(c), units)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type hourRequest struct {
	Hour *int `json:"hour" binding:"required"`
}

// SetDrawHour handles PUT /admin/settings/draw-hour
func (h *AdminHandler) SetDrawHour(c *gin.Context) {
	var req hourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	settings, err := h.admin.SetDrawHour(c.Request.Context(), caller(c), *req.Hour)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SetDayChangeHour handles PUT /admin/settings/day-change-hour
func (h *AdminHandler) SetDayChangeHour(c *gin.Context) {
	var req hourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	settings, err := h.admin.SetDayChangeHour(c.Request.Context(), caller(c), *req.Hour)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SetLastDrawTime handles PUT /admin/settings/last-draw-time
func (h *AdminHandler) SetLastDrawTime(c *gin.Context) {
	var req struct {
		LastDrawTime time.Time `json:"lastDrawTime" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	view, err := h.admin.SetLastDrawTime(c.Request.Context(), caller(c), req.LastDrawTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetAutomation handles PUT /admin/settings/automation
func (h *AdminHandler) SetAutomation(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	settings, err := h.admin.SetAutomationEnabled(c.Request.Context(), caller(c), *req.Enabled)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SetPause handles PUT /admin/settings/pause
func (h *AdminHandler) SetPause(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	settings, err := h.admin.SetEmergencyPause(c.Request.Context(), caller(c), *req.Enabled)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// RecoverScheduler handles POST /admin/scheduler/recover
func (h *AdminHandler) RecoverScheduler(c *gin.Context) {
	view, err := h.draws.RecoverScheduler(c.Request.Context(), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
