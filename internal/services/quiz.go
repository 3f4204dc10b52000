package services

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/repos"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

const (
	defaultCustomQuizSize = 30
	maxCustomQuizSize     = 120
)

type PresetQuizInput struct {
	Name         string      `json:"name" binding:"required"`
	Description  string      `json:"description"`
	Category     string      `json:"category" binding:"required"`
	QuestionIDs  []uuid.UUID `json:"question_ids" binding:"required"`
	DisplayOrder int         `json:"display_order"`
	Published    bool        `json:"published"`
}

// CustomQuizInput drives the same resolver as CountLive, so the quiz holds
// exactly the questions the preceding count promised.
type CustomQuizInput struct {
	Name         string       `json:"name" binding:"required"`
	TaxonomyIDs  []uuid.UUID  `json:"taxonomy_ids" binding:"required"`
	Mode         QuestionMode `json:"mode"`
	MaxQuestions int          `json:"max_questions"`
}

type QuizService interface {
	CreatePreset(ctx context.Context, in PresetQuizInput) (*types.PresetQuiz, error)
	UpdatePreset(ctx context.Context, id uuid.UUID, in PresetQuizInput) (*types.PresetQuiz, error)
	DeletePreset(ctx context.Context, id uuid.UUID) error
	GetPreset(ctx context.Context, id uuid.UUID) (*types.PresetQuiz, error)
	ListPresets(ctx context.Context, category string, publishedOnly bool) ([]*types.PresetQuiz, error)

	CreateCustom(ctx context.Context, userID uuid.UUID, in CustomQuizInput) (*types.CustomQuiz, error)
	GetCustom(ctx context.Context, userID, id uuid.UUID) (*types.CustomQuiz, error)
	ListCustom(ctx context.Context, userID uuid.UUID) ([]*types.CustomQuiz, error)
	DeleteCustom(ctx context.Context, userID, id uuid.UUID) error
}

type quizService struct {
	db           *gorm.DB
	log          *logger.Logger
	presetRepo   repos.PresetQuizRepo
	customRepo   repos.CustomQuizRepo
	questionRepo repos.QuestionRepo
	counts       CountService
}

func NewQuizService(
	db *gorm.DB,
	baseLog *logger.Logger,
	presetRepo repos.PresetQuizRepo,
	customRepo repos.CustomQuizRepo,
	questionRepo repos.QuestionRepo,
	counts CountService,
) QuizService {
	return &quizService{
		db:           db,
		log:          baseLog.With("service", "QuizService"),
		presetRepo:   presetRepo,
		customRepo:   customRepo,
		questionRepo: questionRepo,
		counts:       counts,
	}
}

func (s *quizService) validatePresetInput(ctx context.Context, in PresetQuizInput) error {
	if in.Category != types.QuizCategoryTrail && in.Category != types.QuizCategoryExam {
		return apierr.IntegrityViolation("unknown quiz category %q", in.Category)
	}
	if len(in.QuestionIDs) == 0 {
		return apierr.IntegrityViolation("a preset quiz needs at least one question")
	}
	found, err := s.questionRepo.GetByIDs(ctx, nil, in.QuestionIDs)
	if err != nil {
		return err
	}
	if len(found) != len(dedupe(in.QuestionIDs)) {
		return apierr.IntegrityViolation("preset quiz references questions that do not exist")
	}
	return nil
}

func (s *quizService) CreatePreset(ctx context.Context, in PresetQuizInput) (*types.PresetQuiz, error) {
	if err := s.validatePresetInput(ctx, in); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	quiz := &types.PresetQuiz{
		ID:           uuid.New(),
		Name:         in.Name,
		Description:  in.Description,
		Category:     in.Category,
		QuestionIDs:  datatypes.NewJSONSlice(dedupe(in.QuestionIDs)),
		DisplayOrder: in.DisplayOrder,
		Published:    in.Published,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.presetRepo.Create(ctx, nil, quiz); err != nil {
		return nil, err
	}
	s.log.Info("preset quiz created", "id", quiz.ID, "category", quiz.Category, "questions", len(quiz.QuestionIDs))
	return quiz, nil
}

func (s *quizService) UpdatePreset(ctx context.Context, id uuid.UUID, in PresetQuizInput) (*types.PresetQuiz, error) {
	quiz, err := s.presetRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, apierr.NotFound("preset quiz %s not found", id)
	}
	if err := s.validatePresetInput(ctx, in); err != nil {
		return nil, err
	}
	quiz.Name = in.Name
	quiz.Description = in.Description
	quiz.Category = in.Category
	quiz.QuestionIDs = datatypes.NewJSONSlice(dedupe(in.QuestionIDs))
	quiz.DisplayOrder = in.DisplayOrder
	quiz.Published = in.Published
	quiz.UpdatedAt = time.Now().UTC()
	if err := s.presetRepo.Save(ctx, nil, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *quizService) DeletePreset(ctx context.Context, id uuid.UUID) error {
	quiz, err := s.presetRepo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if quiz == nil {
		return apierr.NotFound("preset quiz %s not found", id)
	}
	return s.presetRepo.Delete(ctx, nil, id)
}

func (s *quizService) GetPreset(ctx context.Context, id uuid.UUID) (*types.PresetQuiz, error) {
	quiz, err := s.presetRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, apierr.NotFound("preset quiz %s not found", id)
	}
	return quiz, nil
}

func (s *quizService) ListPresets(ctx context.Context, category string, publishedOnly bool) ([]*types.PresetQuiz, error) {
	return s.presetRepo.List(ctx, nil, category, publishedOnly)
}

func (s *quizService) CreateCustom(ctx context.Context, userID uuid.UUID, in CustomQuizInput) (*types.CustomQuiz, error) {
	mode := in.Mode
	if mode == "" {
		mode = ModeAll
	}
	ids, err := s.counts.ResolveQuestionIDs(ctx, in.TaxonomyIDs, &userID, mode)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apierr.NotFound("no questions match the selected filters")
	}

	limit := in.MaxQuestions
	if limit <= 0 {
		limit = defaultCustomQuizSize
	}
	if limit > maxCustomQuizSize {
		limit = maxCustomQuizSize
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if len(ids) > limit {
		ids = ids[:limit]
	}

	now := time.Now().UTC()
	quiz := &types.CustomQuiz{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        in.Name,
		Mode:        string(mode),
		QuestionIDs: datatypes.NewJSONSlice(ids),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.customRepo.Create(ctx, nil, quiz); err != nil {
		return nil, err
	}
	s.log.Info("custom quiz created", "id", quiz.ID, "user", userID, "mode", mode, "questions", len(ids))
	return quiz, nil
}

func (s *quizService) GetCustom(ctx context.Context, userID, id uuid.UUID) (*types.CustomQuiz, error) {
	quiz, err := s.customRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	// Another user's quiz is indistinguishable from a missing one.
	if quiz == nil || quiz.UserID != userID {
		return nil, apierr.NotFound("custom quiz %s not found", id)
	}
	return quiz, nil
}

func (s *quizService) ListCustom(ctx context.Context, userID uuid.UUID) ([]*types.CustomQuiz, error) {
	return s.customRepo.GetByUser(ctx, nil, userID)
}

func (s *quizService) DeleteCustom(ctx context.Context, userID, id uuid.UUID) error {
	quiz, err := s.customRepo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if quiz == nil || quiz.UserID != userID {
		return apierr.NotFound("custom quiz %s not found", id)
	}
	return s.customRepo.Delete(ctx, nil, id)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
