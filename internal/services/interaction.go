package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/aggregate"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/repos"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

// AnswerResult is what the client gets back after grading.
type AnswerResult struct {
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correct_index"`
	Explanation  string `json:"explanation"`
}

type InteractionService interface {
	// RecordAnswer grades and upserts the user's stat row. Repeating the
	// same answer is a no-op; a different answer re-grades in place.
	RecordAnswer(ctx context.Context, userID, questionID uuid.UUID, selectedIndex int) (*AnswerResult, error)
	Bookmark(ctx context.Context, userID, questionID uuid.UUID) error
	Unbookmark(ctx context.Context, userID, questionID uuid.UUID) error
}

type interactionService struct {
	db           *gorm.DB
	log          *logger.Logger
	wp           *aggregate.WritePath
	questionRepo repos.QuestionRepo
	statRepo     repos.UserQuestionStatRepo
	bookmarkRepo repos.UserBookmarkRepo
}

func NewInteractionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	wp *aggregate.WritePath,
	questionRepo repos.QuestionRepo,
	statRepo repos.UserQuestionStatRepo,
	bookmarkRepo repos.UserBookmarkRepo,
) InteractionService {
	return &interactionService{
		db:           db,
		log:          baseLog.With("service", "InteractionService"),
		wp:           wp,
		questionRepo: questionRepo,
		statRepo:     statRepo,
		bookmarkRepo: bookmarkRepo,
	}
}

func (s *interactionService) RecordAnswer(ctx context.Context, userID, questionID uuid.UUID, selectedIndex int) (*AnswerResult, error) {
	q, err := s.questionRepo.GetByID(ctx, nil, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apierr.NotFound("question %s not found", questionID)
	}
	if selectedIndex < 0 || selectedIndex >= len(q.Options) {
		return nil, apierr.IntegrityViolation("selected_index %d is out of range for %d options", selectedIndex, len(q.Options))
	}
	correct := selectedIndex == q.CorrectIndex
	result := &AnswerResult{Correct: correct, CorrectIndex: q.CorrectIndex, Explanation: q.Explanation}

	err = s.wp.Write(ctx, func(tx *gorm.DB, emit *aggregate.Emitter) error {
		stat, err := s.statRepo.GetByUserAndQuestion(ctx, tx, userID, questionID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if stat == nil {
			stat = &types.UserQuestionStat{
				ID:            uuid.New(),
				UserID:        userID,
				QuestionID:    questionID,
				HasAnswered:   true,
				IsIncorrect:   !correct,
				SelectedIndex: selectedIndex,
				AnsweredAt:    &now,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.statRepo.Create(ctx, tx, stat); err != nil {
				return err
			}
			emit.Emit(aggregate.Event{Source: SourceStats, Op: aggregate.OpCreate, Row: stat})
			return nil
		}
		if stat.HasAnswered && stat.SelectedIndex == selectedIndex {
			return nil
		}
		old := *stat
		stat.HasAnswered = true
		stat.IsIncorrect = !correct
		stat.SelectedIndex = selectedIndex
		stat.AnsweredAt = &now
		stat.UpdatedAt = now
		if err := s.statRepo.Save(ctx, tx, stat); err != nil {
			return err
		}
		emit.Emit(aggregate.Event{Source: SourceStats, Op: aggregate.OpUpdate, Row: stat, Old: &old})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *interactionService) Bookmark(ctx context.Context, userID, questionID uuid.UUID) error {
	q, err := s.questionRepo.GetByID(ctx, nil, questionID)
	if err != nil {
		return err
	}
	if q == nil {
		return apierr.NotFound("question %s not found", questionID)
	}
	return s.wp.Write(ctx, func(tx *gorm.DB, emit *aggregate.Emitter) error {
		existing, err := s.bookmarkRepo.GetByUserAndQuestion(ctx, tx, userID, questionID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		row := &types.UserBookmark{
			ID:         uuid.New(),
			UserID:     userID,
			QuestionID: questionID,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.bookmarkRepo.Create(ctx, tx, row); err != nil {
			return err
		}
		emit.Emit(aggregate.Event{Source: SourceBookmarks, Op: aggregate.OpCreate, Row: row})
		return nil
	})
}

func (s *interactionService) Unbookmark(ctx context.Context, userID, questionID uuid.UUID) error {
	return s.wp.Write(ctx, func(tx *gorm.DB, emit *aggregate.Emitter) error {
		existing, err := s.bookmarkRepo.GetByUserAndQuestion(ctx, tx, userID, questionID)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		if err := s.bookmarkRepo.DeleteByUserAndQuestion(ctx, tx, userID, questionID); err != nil {
			return err
		}
		emit.Emit(aggregate.Event{Source: SourceBookmarks, Op: aggregate.OpDelete, Old: existing})
		return nil
	})
}
