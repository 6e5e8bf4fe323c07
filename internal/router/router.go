package router

import (
	"time"

	"gstbilling/internal/config"
	"gstbilling/internal/handler"
	"gstbilling/internal/infra"
	"gstbilling/internal/invoice"
	"gstbilling/internal/metrics"
	"gstbilling/internal/middleware"
	"gstbilling/internal/model"
	"gstbilling/internal/repository"
	"gstbilling/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators built in main.
type Deps struct {
	DB    *gorm.DB
	Redis *redis.Client // nil disables the words cache, queues and Redis health
	// Words is the amount-in-words backend; WordsBreaker guards it when remote.
	Words        invoice.WordsConverter
	WordsBreaker *infra.CircuitBreaker
	Jobs         service.JobQueue
	EmailEnabled bool
	Metrics      *metrics.Metrics
}

// App is the wired HTTP surface plus the services main drives directly.
type App struct {
	Engine *gin.Engine
	Drafts service.DraftService
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *App {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(d.Metrics.GinMiddleware())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(d.DB)
	billRepo := repository.NewBillRepository(d.DB)
	itemRepo := repository.NewPredefinedItemRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	wordsSvc := service.NewWordsService(d.Words, d.Redis, cfg.WordsCacheTTL(), d.Metrics)
	catalogSvc := service.NewPredefinedItemService(itemRepo)
	billSvc := service.NewBillService(billRepo, wordsSvc, service.BillOptions{
		Jobs:           d.Jobs,
		Company:        infra.CompanyFromConfig(cfg),
		PDFStoragePath: cfg.PDFStoragePath,
		EmailEnabled:   d.EmailEnabled,
	})
	draftSvc := service.NewDraftService(billSvc, catalogSvc, wordsSvc, service.DraftOptions{
		TTL:          cfg.DraftTTL(),
		WordsTimeout: cfg.WordsTimeout(),
		Metrics:      d.Metrics,
	})
	analyticsSvc := service.NewAnalyticsService(billRepo, nil)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	wordsH := handler.NewWordsHandler(wordsSvc)
	billsH := handler.NewBillsHandler(billSvc)
	draftsH := handler.NewDraftsHandler(draftSvc)
	itemsH := handler.NewPredefinedItemsHandler(catalogSvc)
	analyticsH := handler.NewAnalyticsHandler(analyticsSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.WordsBreaker))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	auth := r.Group("/v1/auth")
	{
		auth.POST("/register", middleware.LoginRateLimiter(), authH.Register)
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	r.GET("/v1/number-to-words/:amount", wordsH.Convert)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		bills := v1.Group("/bills")
		{
			bills.POST("", billsH.Create)
			bills.GET("", billsH.List)
			bills.GET("/:id", billsH.Get)
			bills.PUT("/:id", billsH.Update)
			bills.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), billsH.Delete)
			bills.PUT("/:id/payment-status", billsH.UpdatePaymentStatus)
			bills.GET("/:id/pdf", billsH.PDF)
			bills.POST("/:id/email", billsH.Email)
		}

		drafts := v1.Group("/drafts")
		{
			drafts.POST("", draftsH.Create)
			drafts.GET("/:id", draftsH.Get)
			drafts.DELETE("/:id", draftsH.Discard)
			drafts.PUT("/:id/header", draftsH.UpdateHeader)
			drafts.POST("/:id/items", draftsH.AddItem)
			drafts.PATCH("/:id/items/:item_id", draftsH.UpdateItem)
			drafts.DELETE("/:id/items/:item_id", draftsH.RemoveItem)
			drafts.POST("/:id/submit", draftsH.Submit)
		}

		items := v1.Group("/predefined-items")
		{
			items.GET("", itemsH.List)
			items.POST("", itemsH.Create)
			items.PUT("/:id", itemsH.Update)
			items.DELETE("/:id", itemsH.Delete)
		}

		analytics := v1.Group("/analytics")
		{
			analytics.GET("/sales-summary", analyticsH.SalesSummary)
			analytics.GET("/due-bills", analyticsH.DueBills)
			analytics.GET("/monthly-sales", analyticsH.MonthlySales)
		}
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return &App{Engine: r, Drafts: draftSvc}
}
