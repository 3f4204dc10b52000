package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ortoqbank/ortoqbank-backend/internal/handlers"
	"github.com/ortoqbank/ortoqbank-backend/internal/middleware"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/envutil"
)

type RouterConfig struct {
	AuthMiddleware     *middleware.AuthMiddleware
	TaxonomyHandler    *handlers.TaxonomyHandler
	CountHandler       *handlers.CountHandler
	QuestionHandler    *handlers.QuestionHandler
	InteractionHandler *handlers.InteractionHandler
	QuizHandler        *handlers.QuizHandler
	SessionHandler     *handlers.SessionHandler
	PaymentHandler     *handlers.PaymentHandler
	AdminHandler       *handlers.AdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(envutil.String("OTEL_SERVICE_NAME", "ortoqbank-backend")))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
			envutil.String("FRONTEND_ORIGIN", "https://app.ortoqbank.com"),
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Admin-Key"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/webhooks/payment", cfg.PaymentHandler.HandleWebhook)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Taxonomy reads are part of onboarding, so no entitlement gate.
	api.GET("/taxonomy/hierarchy", cfg.TaxonomyHandler.GetHierarchy)
	api.GET("/taxonomy", cfg.TaxonomyHandler.List)
	api.GET("/taxonomy/:id/descendants", cfg.TaxonomyHandler.GetDescendants)
	api.GET("/taxonomy/:id/path", cfg.TaxonomyHandler.GetHierarchyPath)

	api.POST("/counts/live", cfg.CountHandler.CountLive)
	api.GET("/counts/taxonomy/:id", cfg.CountHandler.CountByTaxonomy)
	api.GET("/counts/me", cfg.CountHandler.GetMyCounts)

	api.POST("/checkout", cfg.PaymentHandler.CreateCheckout)

	// Paid content.
	paid := api.Group("/")
	paid.Use(cfg.AuthMiddleware.RequireEntitlement())

	paid.GET("/questions", cfg.QuestionHandler.ListByTaxonomy)
	paid.GET("/questions/:id", cfg.QuestionHandler.GetByID)
	paid.POST("/questions/:id/answer", cfg.InteractionHandler.RecordAnswer)
	paid.POST("/questions/:id/bookmark", cfg.InteractionHandler.Bookmark)
	paid.DELETE("/questions/:id/bookmark", cfg.InteractionHandler.Unbookmark)

	paid.GET("/quizzes/presets", cfg.QuizHandler.ListPresets)
	paid.GET("/quizzes/presets/:id", cfg.QuizHandler.GetPreset)
	paid.POST("/quizzes/custom", cfg.QuizHandler.CreateCustom)
	paid.GET("/quizzes/custom", cfg.QuizHandler.ListCustom)
	paid.GET("/quizzes/custom/:id", cfg.QuizHandler.GetCustom)
	paid.DELETE("/quizzes/custom/:id", cfg.QuizHandler.DeleteCustom)

	paid.POST("/sessions", cfg.SessionHandler.Start)
	paid.GET("/sessions", cfg.SessionHandler.List)
	paid.GET("/sessions/:id", cfg.SessionHandler.Get)
	paid.POST("/sessions/:id/answer", cfg.SessionHandler.SubmitAnswer)
	paid.POST("/sessions/:id/complete", cfg.SessionHandler.Complete)

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/api/admin")
	admin.Use(cfg.AuthMiddleware.RequireAdminKey())

	admin.POST("/taxonomy", cfg.TaxonomyHandler.Create)
	admin.PATCH("/taxonomy/:id", cfg.TaxonomyHandler.Rename)
	admin.DELETE("/taxonomy/:id", cfg.TaxonomyHandler.Delete)

	admin.POST("/questions", cfg.QuestionHandler.Create)
	admin.PUT("/questions/:id", cfg.QuestionHandler.Update)
	admin.POST("/questions/:id/archive", cfg.QuestionHandler.Archive)
	admin.POST("/questions/:id/unarchive", cfg.QuestionHandler.Unarchive)

	admin.POST("/quizzes/presets", cfg.QuizHandler.CreatePreset)
	admin.PUT("/quizzes/presets/:id", cfg.QuizHandler.UpdatePreset)
	admin.DELETE("/quizzes/presets/:id", cfg.QuizHandler.DeletePreset)

	admin.POST("/backfill/taxonomy", cfg.AdminHandler.BackfillTaxonomy)
	admin.POST("/backfill/question-names", cfg.AdminHandler.RefreshQuestionNames)
	admin.POST("/aggregates/rebuild", cfg.AdminHandler.RebuildAggregates)

	return router
}
