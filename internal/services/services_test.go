package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/aggregate"
	"github.com/ortoqbank/ortoqbank-backend/internal/db"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/repos"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

// env bundles everything the service tests need against an in-memory sqlite.
type env struct {
	db  *gorm.DB
	reg *aggregate.Registry
	wp  *aggregate.WritePath

	taxonomyRepo repos.TaxonomyRepo
	questionRepo repos.QuestionRepo
	statRepo     repos.UserQuestionStatRepo
	bookmarkRepo repos.UserBookmarkRepo
	legacyRepo   repos.LegacyTaxonomyRepo

	taxonomy    TaxonomyService
	counts      CountService
	questions   QuestionService
	interaction InteractionService
	quizzes     QuizService
	sessions    SessionService
	backfill    BackfillService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	log := logger.NewNop()

	reg := aggregate.NewRegistry(aggregate.Config{MaxNodeSize: 4})
	wp := aggregate.NewWritePath(gdb, log, reg)
	RegisterAggregateListeners(wp, reg)

	e := &env{
		db:           gdb,
		reg:          reg,
		wp:           wp,
		taxonomyRepo: repos.NewTaxonomyRepo(gdb, log),
		questionRepo: repos.NewQuestionRepo(gdb, log),
		statRepo:     repos.NewUserQuestionStatRepo(gdb, log),
		bookmarkRepo: repos.NewUserBookmarkRepo(gdb, log),
		legacyRepo:   repos.NewLegacyTaxonomyRepo(gdb, log),
	}
	presetRepo := repos.NewPresetQuizRepo(gdb, log)
	customRepo := repos.NewCustomQuizRepo(gdb, log)
	sessionRepo := repos.NewQuizSessionRepo(gdb, log)

	e.taxonomy = NewTaxonomyService(gdb, log, e.taxonomyRepo, e.questionRepo, nil)
	e.counts = NewCountService(gdb, log, reg, e.questionRepo, e.statRepo, e.bookmarkRepo)
	e.questions = NewQuestionService(gdb, log, wp, e.questionRepo, e.taxonomyRepo)
	e.interaction = NewInteractionService(gdb, log, wp, e.questionRepo, e.statRepo, e.bookmarkRepo)
	e.quizzes = NewQuizService(gdb, log, presetRepo, customRepo, e.questionRepo, e.counts)
	e.sessions = NewSessionService(gdb, log, sessionRepo, presetRepo, customRepo, e.interaction)
	e.backfill = NewBackfillService(gdb, log, reg, e.legacyRepo, e.taxonomy, e.taxonomyRepo, e.questionRepo, e.statRepo, e.bookmarkRepo)
	return e
}

func (e *env) mustTheme(t *testing.T, name string) *types.TaxonomyNode {
	t.Helper()
	node, err := e.taxonomy.Create(context.Background(), name, types.LevelTheme, nil)
	if err != nil {
		t.Fatalf("create theme %q: %v", name, err)
	}
	return node
}

func (e *env) mustSubtheme(t *testing.T, name string, parent uuid.UUID) *types.TaxonomyNode {
	t.Helper()
	node, err := e.taxonomy.Create(context.Background(), name, types.LevelSubtheme, &parent)
	if err != nil {
		t.Fatalf("create subtheme %q: %v", name, err)
	}
	return node
}

func (e *env) mustGroup(t *testing.T, name string, parent uuid.UUID) *types.TaxonomyNode {
	t.Helper()
	node, err := e.taxonomy.Create(context.Background(), name, types.LevelGroup, &parent)
	if err != nil {
		t.Fatalf("create group %q: %v", name, err)
	}
	return node
}

// mustQuestion creates a question at the deepest level the ids describe.
func (e *env) mustQuestion(t *testing.T, theme uuid.UUID, subtheme, group *uuid.UUID) *types.Question {
	t.Helper()
	q, err := e.questions.Create(context.Background(), QuestionInput{
		Stem:         "stem",
		Explanation:  "explanation",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 1,
		ThemeID:      theme,
		SubthemeID:   subtheme,
		GroupID:      group,
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}

func (e *env) totalCount() int {
	return e.reg.Tree(aggregate.TreeQuestionsTotal).Count(aggregate.GlobalNamespace, aggregate.Bounds{})
}

func (e *env) userCount(tree string, userID uuid.UUID) int {
	return e.reg.Tree(tree).Count(aggregate.UserNamespace(userID), aggregate.Bounds{})
}
