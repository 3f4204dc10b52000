package app

import (
	"github.com/gin-gonic/gin"

	"github.com/ortoqbank/ortoqbank-backend/internal/handlers"
	"github.com/ortoqbank/ortoqbank-backend/internal/middleware"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/server"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

type Handlers struct {
	Taxonomy    *handlers.TaxonomyHandler
	Count       *handlers.CountHandler
	Question    *handlers.QuestionHandler
	Interaction *handlers.InteractionHandler
	Quiz        *handlers.QuizHandler
	Session     *handlers.SessionHandler
	Payment     *handlers.PaymentHandler
	Admin       *handlers.AdminHandler
}

func wireHandlers(log *logger.Logger, s Services, r Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Taxonomy:    handlers.NewTaxonomyHandler(log, s.Taxonomy),
		Count:       handlers.NewCountHandler(log, s.Count),
		Question:    handlers.NewQuestionHandler(log, s.Question),
		Interaction: handlers.NewInteractionHandler(log, s.Interaction),
		Quiz:        handlers.NewQuizHandler(log, s.Quiz),
		Session:     handlers.NewSessionHandler(log, s.Session),
		Payment:     handlers.NewPaymentHandler(log, s.Payment, r.User),
		Admin:       handlers.NewAdminHandler(log, s.Backfill),
	}
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, s.Auth),
	}
}

func wireRouter(h Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:     mw.Auth,
		TaxonomyHandler:    h.Taxonomy,
		CountHandler:       h.Count,
		QuestionHandler:    h.Question,
		InteractionHandler: h.Interaction,
		QuizHandler:        h.Quiz,
		SessionHandler:     h.Session,
		PaymentHandler:     h.Payment,
		AdminHandler:       h.Admin,
	})
}
