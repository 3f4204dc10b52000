package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/aggregate"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/repos"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

// QuestionMode filters a taxonomy selection against a user's interaction
// history. Every mode except "all" requires a user.
type QuestionMode string

const (
	ModeAll        QuestionMode = "all"
	ModeUnanswered QuestionMode = "unanswered"
	ModeIncorrect  QuestionMode = "incorrect"
	ModeBookmarked QuestionMode = "bookmarked"
)

func (m QuestionMode) Valid() bool {
	switch m {
	case ModeAll, ModeUnanswered, ModeIncorrect, ModeBookmarked:
		return true
	}
	return false
}

func (m QuestionMode) UserScoped() bool { return m != ModeAll }

// QuestionCounts is the per-user dashboard bundle, answered entirely from the
// aggregate trees.
type QuestionCounts struct {
	Total      int `json:"total"`
	Answered   int `json:"answered"`
	Unanswered int `json:"unanswered"`
	Incorrect  int `json:"incorrect"`
	Bookmarked int `json:"bookmarked"`
}

type CountService interface {
	// CountByTaxonomy counts live questions under one taxonomy node via the
	// node's direct index on the question table.
	CountByTaxonomy(ctx context.Context, level types.TaxonomyLevel, id uuid.UUID) (int, error)
	// CountLive answers "how many questions match this selection" without
	// ever scanning the question table.
	CountLive(ctx context.Context, taxonomyIDs []uuid.UUID, userID *uuid.UUID, mode QuestionMode) (int, error)
	// ResolveQuestionIDs is CountLive's id-producing form, shared with
	// custom quiz creation so a quiz holds exactly the questions it counted.
	ResolveQuestionIDs(ctx context.Context, taxonomyIDs []uuid.UUID, userID *uuid.UUID, mode QuestionMode) ([]uuid.UUID, error)
	// GetAllQuestionCounts reads the four trees for one user. O(1) queries.
	GetAllQuestionCounts(ctx context.Context, userID uuid.UUID) (*QuestionCounts, error)
}

type countService struct {
	db           *gorm.DB
	log          *logger.Logger
	reg          *aggregate.Registry
	questionRepo repos.QuestionRepo
	statRepo     repos.UserQuestionStatRepo
	bookmarkRepo repos.UserBookmarkRepo
}

func NewCountService(
	db *gorm.DB,
	baseLog *logger.Logger,
	reg *aggregate.Registry,
	questionRepo repos.QuestionRepo,
	statRepo repos.UserQuestionStatRepo,
	bookmarkRepo repos.UserBookmarkRepo,
) CountService {
	return &countService{
		db:           db,
		log:          baseLog.With("service", "CountService"),
		reg:          reg,
		questionRepo: questionRepo,
		statRepo:     statRepo,
		bookmarkRepo: bookmarkRepo,
	}
}

func (s *countService) CountByTaxonomy(ctx context.Context, level types.TaxonomyLevel, id uuid.UUID) (int, error) {
	if !level.Valid() {
		return 0, apierr.IntegrityViolation("unknown taxonomy level %q", level)
	}
	n, err := s.questionRepo.CountByTaxonomy(ctx, nil, level, id)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *countService) CountLive(ctx context.Context, taxonomyIDs []uuid.UUID, userID *uuid.UUID, mode QuestionMode) (int, error) {
	if mode == "" {
		mode = ModeAll
	}
	// Fast path: no taxonomy filter and no user scoping is a single tree
	// count, no set materialization at all.
	if len(taxonomyIDs) == 0 && mode == ModeAll {
		return s.reg.Tree(aggregate.TreeQuestionsTotal).Count(aggregate.GlobalNamespace, aggregate.Bounds{}), nil
	}
	ids, err := s.ResolveQuestionIDs(ctx, taxonomyIDs, userID, mode)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *countService) ResolveQuestionIDs(ctx context.Context, taxonomyIDs []uuid.UUID, userID *uuid.UUID, mode QuestionMode) ([]uuid.UUID, error) {
	if mode == "" {
		mode = ModeAll
	}
	if !mode.Valid() {
		return nil, apierr.IntegrityViolation("unknown question mode %q", mode)
	}
	if len(taxonomyIDs) == 0 {
		// A user-scoped mode with no taxonomy filter has no index to walk;
		// serving it would mean scanning the question table.
		return nil, apierr.InvalidCombination("mode %q requires at least one taxonomy filter", mode)
	}
	if mode.UserScoped() && userID == nil {
		return nil, apierr.InvalidCombination("mode %q requires a user", mode)
	}

	selection, err := s.resolveTaxonomyUnion(ctx, taxonomyIDs)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeAll:
		// nothing to fold in
	case ModeUnanswered:
		answered, err := s.statRepo.PluckQuestionIDs(ctx, nil, *userID, false)
		if err != nil {
			return nil, err
		}
		subtract(selection, answered)
	case ModeIncorrect:
		incorrect, err := s.statRepo.PluckQuestionIDs(ctx, nil, *userID, true)
		if err != nil {
			return nil, err
		}
		intersect(selection, incorrect)
	case ModeBookmarked:
		bookmarked, err := s.bookmarkRepo.PluckQuestionIDs(ctx, nil, *userID)
		if err != nil {
			return nil, err
		}
		intersect(selection, bookmarked)
	}

	out := make([]uuid.UUID, 0, len(selection))
	for id := range selection {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// resolveTaxonomyUnion resolves each selected id against all three per-level
// indexes and unions the results. A subtheme id selected alongside its parent
// theme therefore adds nothing new, which is what the union is for.
func (s *countService) resolveTaxonomyUnion(ctx context.Context, taxonomyIDs []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	selection := make(map[uuid.UUID]struct{})
	levels := []types.TaxonomyLevel{types.LevelTheme, types.LevelSubtheme, types.LevelGroup}
	for _, taxID := range taxonomyIDs {
		for _, level := range levels {
			qids, err := s.questionRepo.PluckIDsByTaxonomy(ctx, nil, level, taxID)
			if err != nil {
				return nil, err
			}
			for _, qid := range qids {
				selection[qid] = struct{}{}
			}
		}
	}
	return selection, nil
}

func (s *countService) GetAllQuestionCounts(ctx context.Context, userID uuid.UUID) (*QuestionCounts, error) {
	ns := aggregate.UserNamespace(userID)
	counts := &QuestionCounts{
		Total:      s.reg.Tree(aggregate.TreeQuestionsTotal).Count(aggregate.GlobalNamespace, aggregate.Bounds{}),
		Answered:   s.reg.Tree(aggregate.TreeAnsweredByUser).Count(ns, aggregate.Bounds{}),
		Incorrect:  s.reg.Tree(aggregate.TreeIncorrectByUser).Count(ns, aggregate.Bounds{}),
		Bookmarked: s.reg.Tree(aggregate.TreeBookmarkedByUser).Count(ns, aggregate.Bounds{}),
	}
	counts.Unanswered = counts.Total - counts.Answered
	return counts, nil
}

func intersect(set map[uuid.UUID]struct{}, keep []uuid.UUID) {
	keepSet := make(map[uuid.UUID]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	for id := range set {
		if _, ok := keepSet[id]; !ok {
			delete(set, id)
		}
	}
}

func subtract(set map[uuid.UUID]struct{}, drop []uuid.UUID) {
	for _, id := range drop {
		delete(set, id)
	}
}
