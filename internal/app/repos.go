package app

import (
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/repos"
)

type Repos struct {
	Taxonomy       repos.TaxonomyRepo
	Question       repos.QuestionRepo
	Stat           repos.UserQuestionStatRepo
	Bookmark       repos.UserBookmarkRepo
	User           repos.UserRepo
	PresetQuiz     repos.PresetQuizRepo
	CustomQuiz     repos.CustomQuizRepo
	QuizSession    repos.QuizSessionRepo
	Purchase       repos.PurchaseRepo
	LegacyTaxonomy repos.LegacyTaxonomyRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Taxonomy:       repos.NewTaxonomyRepo(db, log),
		Question:       repos.NewQuestionRepo(db, log),
		Stat:           repos.NewUserQuestionStatRepo(db, log),
		Bookmark:       repos.NewUserBookmarkRepo(db, log),
		User:           repos.NewUserRepo(db, log),
		PresetQuiz:     repos.NewPresetQuizRepo(db, log),
		CustomQuiz:     repos.NewCustomQuizRepo(db, log),
		QuizSession:    repos.NewQuizSessionRepo(db, log),
		Purchase:       repos.NewPurchaseRepo(db, log),
		LegacyTaxonomy: repos.NewLegacyTaxonomyRepo(db, log),
	}
}
