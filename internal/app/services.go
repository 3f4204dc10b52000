package app

import (
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/aggregate"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/services"
)

type Services struct {
	Taxonomy    services.TaxonomyService
	Count       services.CountService
	Question    services.QuestionService
	Interaction services.InteractionService
	Quiz        services.QuizService
	Session     services.SessionService
	Backfill    services.BackfillService
	Auth        services.AuthService
	Payment     services.PaymentService
}

func wireServices(db *gorm.DB, log *logger.Logger, reg *aggregate.Registry, wp *aggregate.WritePath, r Repos) Services {
	log.Info("Wiring services...")

	cache := services.NewHierarchyCache(log)
	taxonomy := services.NewTaxonomyService(db, log, r.Taxonomy, r.Question, cache)
	count := services.NewCountService(db, log, reg, r.Question, r.Stat, r.Bookmark)
	question := services.NewQuestionService(db, log, wp, r.Question, r.Taxonomy)
	interaction := services.NewInteractionService(db, log, wp, r.Question, r.Stat, r.Bookmark)
	quiz := services.NewQuizService(db, log, r.PresetQuiz, r.CustomQuiz, r.Question, count)
	session := services.NewSessionService(db, log, r.QuizSession, r.PresetQuiz, r.CustomQuiz, interaction)
	backfill := services.NewBackfillService(db, log, reg, r.LegacyTaxonomy, taxonomy, r.Taxonomy, r.Question, r.Stat, r.Bookmark)
	auth := services.NewAuthService(db, log, r.User, r.Purchase)
	payment := services.NewPaymentService(db, log, r.Purchase)

	return Services{
		Taxonomy:    taxonomy,
		Count:       count,
		Question:    question,
		Interaction: interaction,
		Quiz:        quiz,
		Session:     session,
		Backfill:    backfill,
		Auth:        auth,
		Payment:     payment,
	}
}
