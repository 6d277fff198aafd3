package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/daily-lotto-settlement/internal/config"
	"github.com/ArowuTest/daily-lotto-settlement/internal/handlers"
	"github.com/ArowuTest/daily-lotto-settlement/internal/metrics"
	"github.com/ArowuTest/daily-lotto-settlement/internal/middleware"
	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/pkg/jwt"
)

// Handlers groups the HTTP handlers mounted by SetupRouter.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Tickets *handlers.TicketHandler
	Pools   *handlers.PoolHandler
	Draws   *handlers.DrawHandler
	Admin   *handlers.AdminHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, h *Handlers, tokens *jwt.TokenService) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(metrics.GinMiddleware())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		public.POST("/auth/login", h.Auth.Login)

		public.GET("/pools", h.Pools.GetPools)
		public.GET("/days/current", h.Pools.CurrentDay)
		public.GET("/days/:day", h.Pools.GetDay)
		public.GET("/days/:day/tickets", h.Pools.GetDayTickets)
		public.GET("/days/:day/events", h.Pools.GetDayEvents)
		public.GET("/tickets/:id", h.Tickets.GetTicket)

		public.GET("/scheduler", h.Draws.GetScheduler)
		public.GET("/upkeep", h.Draws.CheckUpkeep)
		// Upkeep is permissionless; it only acts when a draw is due.
		public.POST("/upkeep", h.Draws.PerformUpkeep)
		public.POST("/days/:day/distribute", h.Draws.Distribute)
	}

	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(tokens))

	players := protected.Group("")
	players.Use(middleware.RequireRole(models.RolePlayer))
	{
		players.POST("/tickets", h.Tickets.BuyTicket)
		players.POST("/tickets/:id/claim", h.Tickets.ClaimPrize)
		players.GET("/players/me/tickets", h.Tickets.MyTickets)
		players.GET("/players/me/credits", h.Tickets.MyCredits)
	}

	oracle := protected.Group("/oracle")
	oracle.Use(middleware.RequireRole(models.RoleOracle))
	{
		oracle.POST("/fulfill", h.Draws.Fulfill)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleOwner))
	{
		admin.GET("/settings", h.Admin.GetSettings)
		admin.GET("/settings/audit", h.Admin.ListAudit)
		admin.PUT("/settings/ticket-price", h.Admin.SetTicketPrice)
		admin.PUT("/settings/draw-hour", h.Admin.SetDrawHour)
		admin.PUT("/settings/day-change-hour", h.Admin.SetDayChangeHour)
		admin.PUT("/settings/last-draw-time", h.Admin.SetLastDrawTime)
		admin.PUT("/settings/automation", h.Admin.SetAutomation)
		admin.PUT("/settings/pause", h.Admin.SetPause)
		admin.POST("/scheduler/recover", h.Admin.RecoverScheduler)
	}

	return router
}

