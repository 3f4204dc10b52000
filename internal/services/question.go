package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/aggregate"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/repos"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

// QuestionInput is the write shape for create and update. Taxonomy ancestry
// is validated against the live hierarchy, never trusted from the client.
type QuestionInput struct {
	Stem         string     `json:"stem" binding:"required"`
	Explanation  string     `json:"explanation"`
	Options      []string   `json:"options" binding:"required"`
	CorrectIndex int        `json:"correct_index"`
	ImageURLs    []string   `json:"image_urls"`
	ThemeID      uuid.UUID  `json:"theme_id" binding:"required"`
	SubthemeID   *uuid.UUID `json:"subtheme_id"`
	GroupID      *uuid.UUID `json:"group_id"`
}

type QuestionService interface {
	Create(ctx context.Context, in QuestionInput) (*types.Question, error)
	Update(ctx context.Context, id uuid.UUID, in QuestionInput) (*types.Question, error)
	Archive(ctx context.Context, id uuid.UUID) error
	Unarchive(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*types.Question, error)
	ListByTaxonomy(ctx context.Context, level types.TaxonomyLevel, taxonomyID uuid.UUID, limit, offset int) ([]*types.Question, error)
}

type questionService struct {
	db           *gorm.DB
	log          *logger.Logger
	wp           *aggregate.WritePath
	questionRepo repos.QuestionRepo
	taxonomyRepo repos.TaxonomyRepo
}

func NewQuestionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	wp *aggregate.WritePath,
	questionRepo repos.QuestionRepo,
	taxonomyRepo repos.TaxonomyRepo,
) QuestionService {
	return &questionService{
		db:           db,
		log:          baseLog.With("service", "QuestionService"),
		wp:           wp,
		questionRepo: questionRepo,
		taxonomyRepo: taxonomyRepo,
	}
}

// resolvedTaxonomy is the validated node chain an input points at.
type resolvedTaxonomy struct {
	theme    *types.TaxonomyNode
	subtheme *types.TaxonomyNode
	group    *types.TaxonomyNode
}

// resolveTaxonomy checks that the referenced nodes exist, sit at the right
// level, and form a single ancestor chain. A group without its subtheme is
// rejected outright.
func (s *questionService) resolveTaxonomy(ctx context.Context, in QuestionInput) (*resolvedTaxonomy, error) {
	out := &resolvedTaxonomy{}

	theme, err := s.taxonomyRepo.GetByID(ctx, nil, in.ThemeID)
	if err != nil {
		return nil, err
	}
	if theme == nil {
		return nil, apierr.NotFound("theme %s not found", in.ThemeID)
	}
	if theme.Type != types.LevelTheme {
		return nil, apierr.IntegrityViolation("node %s is a %s, not a theme", theme.ID, theme.Type)
	}
	out.theme = theme

	if in.GroupID != nil && in.SubthemeID == nil {
		return nil, apierr.IntegrityViolation("a group reference requires its subtheme")
	}
	if in.SubthemeID != nil {
		sub, err := s.taxonomyRepo.GetByID(ctx, nil, *in.SubthemeID)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			return nil, apierr.NotFound("subtheme %s not found", *in.SubthemeID)
		}
		if sub.Type != types.LevelSubtheme || !sub.HasAncestor(theme.ID) {
			return nil, apierr.IntegrityViolation("subtheme %s does not belong to theme %s", sub.ID, theme.ID)
		}
		out.subtheme = sub
	}
	if in.GroupID != nil {
		grp, err := s.taxonomyRepo.GetByID(ctx, nil, *in.GroupID)
		if err != nil {
			return nil, err
		}
		if grp == nil {
			return nil, apierr.NotFound("group %s not found", *in.GroupID)
		}
		if grp.Type != types.LevelGroup || !grp.HasAncestor(*in.SubthemeID) {
			return nil, apierr.IntegrityViolation("group %s does not belong to subtheme %s", grp.ID, *in.SubthemeID)
		}
		out.group = grp
	}
	return out, nil
}

func validateOptions(in QuestionInput) error {
	if len(in.Options) < 2 {
		return apierr.IntegrityViolation("a question needs at least two options")
	}
	if in.CorrectIndex < 0 || in.CorrectIndex >= len(in.Options) {
		return apierr.IntegrityViolation("correct_index %d is out of range for %d options", in.CorrectIndex, len(in.Options))
	}
	return nil
}

func applyInput(q *types.Question, in QuestionInput, tax *resolvedTaxonomy) {
	q.Stem = in.Stem
	q.Explanation = in.Explanation
	q.Options = datatypes.NewJSONSlice(in.Options)
	q.CorrectIndex = in.CorrectIndex
	q.ImageURLs = datatypes.NewJSONSlice(in.ImageURLs)

	q.TaxonomyThemeID = tax.theme.ID
	q.TaxonomyThemeName = tax.theme.Name
	q.TaxonomySubthemeID = nil
	q.TaxonomySubthemeName = ""
	q.TaxonomyGroupID = nil
	q.TaxonomyGroupName = ""
	if tax.subtheme != nil {
		q.TaxonomySubthemeID = &tax.subtheme.ID
		q.TaxonomySubthemeName = tax.subtheme.Name
	}
	if tax.group != nil {
		q.TaxonomyGroupID = &tax.group.ID
		q.TaxonomyGroupName = tax.group.Name
	}
}

func (s *questionService) Create(ctx context.Context, in QuestionInput) (*types.Question, error) {
	if err := validateOptions(in); err != nil {
		return nil, err
	}
	tax, err := s.resolveTaxonomy(ctx, in)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	q := &types.Question{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	applyInput(q, in, tax)

	err = s.wp.Write(ctx, func(tx *gorm.DB, emit *aggregate.Emitter) error {
		if err := s.questionRepo.Create(ctx, tx, q); err != nil {
			return err
		}
		emit.Emit(aggregate.Event{Source: SourceQuestions, Op: aggregate.OpCreate, Row: q})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("question created", "id", q.ID, "theme", q.TaxonomyThemeName)
	return q, nil
}

func (s *questionService) Update(ctx context.Context, id uuid.UUID, in QuestionInput) (*types.Question, error) {
	if err := validateOptions(in); err != nil {
		return nil, err
	}
	q, err := s.questionRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apierr.NotFound("question %s not found", id)
	}
	tax, err := s.resolveTaxonomy(ctx, in)
	if err != nil {
		return nil, err
	}

	old := *q
	applyInput(q, in, tax)
	q.UpdatedAt = time.Now().UTC()

	err = s.wp.Write(ctx, func(tx *gorm.DB, emit *aggregate.Emitter) error {
		if err := s.questionRepo.Save(ctx, tx, q); err != nil {
			return err
		}
		emit.Emit(aggregate.Event{Source: SourceQuestions, Op: aggregate.OpUpdate, Row: q, Old: &old})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *questionService) setArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	q, err := s.questionRepo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if q == nil {
		return apierr.NotFound("question %s not found", id)
	}
	if q.Archived == archived {
		return nil
	}

	old := *q
	q.Archived = archived
	q.UpdatedAt = time.Now().UTC()

	err = s.wp.Write(ctx, func(tx *gorm.DB, emit *aggregate.Emitter) error {
		if err := s.questionRepo.Save(ctx, tx, q); err != nil {
			return err
		}
		emit.Emit(aggregate.Event{Source: SourceQuestions, Op: aggregate.OpUpdate, Row: q, Old: &old})
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("question archival changed", "id", id, "archived", archived)
	return nil
}

func (s *questionService) Archive(ctx context.Context, id uuid.UUID) error {
	return s.setArchived(ctx, id, true)
}

func (s *questionService) Unarchive(ctx context.Context, id uuid.UUID) error {
	return s.setArchived(ctx, id, false)
}

func (s *questionService) GetByID(ctx context.Context, id uuid.UUID) (*types.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apierr.NotFound("question %s not found", id)
	}
	return q, nil
}

func (s *questionService) ListByTaxonomy(ctx context.Context, level types.TaxonomyLevel, taxonomyID uuid.UUID, limit, offset int) ([]*types.Question, error) {
	if !level.Valid() {
		return nil, apierr.IntegrityViolation("unknown taxonomy level %q", level)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.questionRepo.ListByTaxonomy(ctx, nil, level, taxonomyID, limit, offset)
}
