package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crop-trade-ledger/internal/api_gateway/handler"
	"github.com/crop-trade-ledger/internal/api_gateway/middleware"
	"github.com/crop-trade-ledger/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

type handlers struct {
	posting        *handler.PostingHandler
	postingRequest *handler.PostingRequestHandler
	account        *handler.AccountHandler
	item           *handler.ItemHandler
	contact        *handler.ContactHandler
	season         *handler.SeasonHandler
	report         *handler.ReportHandler
	journal        *handler.JournalHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, cfg *config.Config, r *gin.Engine, rateLimiter *limiter.Limiter, h handlers) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))

	// Health check endpoint for monitoring, outside rate limiting and auth
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	v1 := r.Group("/api/v1")
	if rateLimiter != nil {
		v1.Use(middleware.RateLimit(rateLimiter, logger))
	}
	if cfg.Auth.Enabled() {
		v1.Use(middleware.Auth(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer))
	}
	{
		// Synchronous postings
		v1.POST("/purchases", h.posting.Purchase)
		v1.POST("/sales", h.posting.Sale)
		v1.POST("/payments", h.posting.Payment)
		v1.POST("/expenses", h.posting.Expense)
		v1.POST("/adjustments", h.posting.Adjustment)
		v1.POST("/purchase-returns", h.posting.PurchaseReturn)
		v1.POST("/sale-returns", h.posting.SaleReturn)
		v1.POST("/manual-journals", h.posting.ManualJournal)
		v1.POST("/reversals", h.posting.Reverse)

		// Asynchronous postings executed by the processor
		postings := v1.Group("/postings")
		{
			postings.POST("", h.postingRequest.Submit)
			postings.GET("/:request_id", h.postingRequest.Status)
		}

		accounts := v1.Group("/accounts")
		{
			accounts.GET("", h.account.List)
			accounts.POST("", h.account.Create)
			accounts.GET("/:id", h.account.GetByID)
			accounts.DELETE("/:id", h.account.Delete)
			accounts.GET("/:id/entries", h.account.Entries)
			accounts.GET("/:id/journals", h.journal.GetByAccountID)
		}

		items := v1.Group("/items")
		{
			items.GET("", h.item.List)
			items.POST("", h.item.Create)
			items.GET("/:id", h.item.GetByID)
			items.GET("/:id/position", h.item.Position)
			items.GET("/:id/movements", h.item.Movements)
		}

		contacts := v1.Group("/contacts")
		{
			contacts.GET("", h.contact.List)
			contacts.POST("", h.contact.Create)
			contacts.GET("/:id", h.contact.GetByID)
			contacts.GET("/:id/statement", h.contact.Statement)
		}

		seasons := v1.Group("/seasons")
		{
			seasons.GET("", h.season.List)
			seasons.POST("", h.season.Create)
			seasons.GET("/active", h.season.Active)
			seasons.GET("/:id", h.season.GetByID)
			seasons.PUT("/:id", h.season.Update)
			seasons.DELETE("/:id", h.season.Delete)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/trial-balance", h.report.TrialBalance)
			reports.GET("/balance-sheet", h.report.BalanceSheet)
			reports.GET("/income-statement", h.report.IncomeStatement)
			reports.GET("/cash-flow", h.report.CashFlow)
			reports.GET("/inventory-valuation", h.report.InventoryValuation)
			reports.GET("/item-margins", h.report.ItemMargins)
			reports.GET("/seasons/:id/performance", h.report.SeasonPerformance)
		}

		v1.GET("/ledger/:ref", h.report.LedgerEntries)
		v1.GET("/journals/:ref", h.journal.GetByRef)
		v1.GET("/audit", h.report.AuditTrail)
	}
}
