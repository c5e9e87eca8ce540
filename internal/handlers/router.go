package handlers

import (
	"net/http"

	"rental-manager/internal/auth"
	"rental-manager/internal/config"
	"rental-manager/internal/database"
	"rental-manager/internal/history"
	"rental-manager/internal/increase"
	"rental-manager/internal/metrics"
	"rental-manager/internal/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps carries everything the HTTP layer needs. Search, Reminders, Limiter and
// Metrics are optional.
type Deps struct {
	Store     *database.GormDB
	Increases *increase.Service
	History   *history.Service
	Search    Indexer
	Reminders ReminderRunner
	Verifier  *auth.Verifier
	Limiter   *ratelimit.RateLimiter
	Metrics   *metrics.Collector
	Config    *config.Config
	Logger    *zap.Logger
}

// NewRouter builds the gin engine with every route registered
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     d.Config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		if err := d.Store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Mutations are limited per account
	limit := func(c *gin.Context) { c.Next() }
	if d.Limiter != nil {
		limit = d.Limiter.Middleware(auth.AccountID)
	}

	props := NewPropertyHandler(d.Store, d.Search, d.Logger)
	rent := NewRentHandler(d.Store, d.Increases, d.History, d.Config.Increase, d.Logger)
	admin := NewAdminHandler(d.Reminders, d.Limiter, d.Logger)

	api := r.Group("/api", d.Verifier.Middleware())
	{
		api.GET("/properties", props.ListProperties)
		api.GET("/properties/:id", props.GetProperty)
		api.POST("/properties", limit, props.CreateProperty)
		api.PUT("/properties/:id", limit, props.UpdateProperty)
		api.DELETE("/properties/:id", limit, props.DeleteProperty)

		api.GET("/tenants", props.ListTenants)
		api.GET("/tenants/:id", props.GetTenant)
		api.POST("/tenants", limit, props.CreateTenant)
		api.PUT("/tenants/:id", limit, props.UpdateTenant)
		api.DELETE("/tenants/:id", limit, props.DeleteTenant)

		api.GET("/search", props.Search)

		rentGroup := api.Group("/rent")
		{
			rentGroup.GET("/schedules", rent.ListRentSchedules)
			rentGroup.GET("/schedules/:id", rent.GetRentSchedule)
			rentGroup.POST("/schedules", limit, rent.CreateRentSchedule)
			rentGroup.PUT("/schedules/:id", limit, rent.UpdateRentSchedule)
			rentGroup.PUT("/schedules/:id/increase-policy", limit, rent.UpdateIncreasePolicy)
			rentGroup.POST("/schedules/:id/apply-increase", limit, rent.ApplyIncrease)

			rentGroup.GET("/increases/pending", rent.ListPendingIncreases)
			rentGroup.GET("/increases/history", rent.ListIncreaseHistory)
			rentGroup.GET("/increases/history/export", rent.ExportIncreaseHistory)

			rentGroup.GET("/payments", rent.ListRentPayments)
			rentGroup.POST("/payments", limit, rent.CreateRentPayment)
			rentGroup.DELETE("/payments/:id", limit, rent.DeleteRentPayment)
		}

		adminGroup := api.Group("/admin")
		{
			adminGroup.POST("/reminders/run", limit, admin.RunReminders)
			adminGroup.GET("/ratelimit/stats", admin.GetRateLimitStats)
		}
	}

	return r
}
