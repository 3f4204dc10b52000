package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/repos"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

// SessionProgress reports where a session stands after one answer.
type SessionProgress struct {
	Correct      bool `json:"correct"`
	CurrentIndex int  `json:"current_index"`
	Total        int  `json:"total"`
	Complete     bool `json:"complete"`
	Score        int  `json:"score"`
}

type SessionService interface {
	// Start resumes the user's incomplete session for the quiz if one
	// exists, otherwise creates a fresh one.
	Start(ctx context.Context, userID uuid.UUID, quizType string, quizID uuid.UUID) (*types.QuizSession, error)
	// SubmitAnswer grades the question at the session cursor and advances
	// it. The answer also lands in the user's stat row, so session work
	// feeds the same per-user counts as standalone answering.
	SubmitAnswer(ctx context.Context, userID, sessionID uuid.UUID, selectedIndex int) (*SessionProgress, error)
	// Complete closes a session early and scores whatever was answered.
	Complete(ctx context.Context, userID, sessionID uuid.UUID) (*types.QuizSession, error)
	Get(ctx context.Context, userID, sessionID uuid.UUID) (*types.QuizSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.QuizSession, error)
}

type sessionService struct {
	db           *gorm.DB
	log          *logger.Logger
	sessionRepo  repos.QuizSessionRepo
	presetRepo   repos.PresetQuizRepo
	customRepo   repos.CustomQuizRepo
	interactions InteractionService
}

func NewSessionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sessionRepo repos.QuizSessionRepo,
	presetRepo repos.PresetQuizRepo,
	customRepo repos.CustomQuizRepo,
	interactions InteractionService,
) SessionService {
	return &sessionService{
		db:           db,
		log:          baseLog.With("service", "SessionService"),
		sessionRepo:  sessionRepo,
		presetRepo:   presetRepo,
		customRepo:   customRepo,
		interactions: interactions,
	}
}

// quizQuestionIDs resolves the ordered question list behind a session's quiz
// reference, enforcing ownership for custom quizzes.
func (s *sessionService) quizQuestionIDs(ctx context.Context, userID uuid.UUID, quizType string, quizID uuid.UUID) ([]uuid.UUID, error) {
	switch quizType {
	case types.QuizRefPreset:
		quiz, err := s.presetRepo.GetByID(ctx, nil, quizID)
		if err != nil {
			return nil, err
		}
		if quiz == nil {
			return nil, apierr.NotFound("preset quiz %s not found", quizID)
		}
		return quiz.QuestionIDs, nil
	case types.QuizRefCustom:
		quiz, err := s.customRepo.GetByID(ctx, nil, quizID)
		if err != nil {
			return nil, err
		}
		if quiz == nil || quiz.UserID != userID {
			return nil, apierr.NotFound("custom quiz %s not found", quizID)
		}
		return quiz.QuestionIDs, nil
	}
	return nil, apierr.IntegrityViolation("unknown quiz type %q", quizType)
}

func (s *sessionService) Start(ctx context.Context, userID uuid.UUID, quizType string, quizID uuid.UUID) (*types.QuizSession, error) {
	qids, err := s.quizQuestionIDs(ctx, userID, quizType, quizID)
	if err != nil {
		return nil, err
	}
	if len(qids) == 0 {
		return nil, apierr.IntegrityViolation("quiz %s has no questions", quizID)
	}

	active, err := s.sessionRepo.GetActive(ctx, nil, userID, quizID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return active, nil
	}

	now := time.Now().UTC()
	session := &types.QuizSession{
		ID:        uuid.New(),
		UserID:    userID,
		QuizID:    quizID,
		QuizType:  quizType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, nil, session); err != nil {
		return nil, err
	}
	s.log.Info("quiz session started", "id", session.ID, "user", userID, "quiz", quizID, "type", quizType)
	return session, nil
}

func (s *sessionService) getOwned(ctx context.Context, userID, sessionID uuid.UUID) (*types.QuizSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, apierr.NotFound("quiz session %s not found", sessionID)
	}
	return session, nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, userID, sessionID uuid.UUID, selectedIndex int) (*SessionProgress, error) {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsComplete {
		return nil, apierr.IntegrityViolation("quiz session %s is already complete", sessionID)
	}
	qids, err := s.quizQuestionIDs(ctx, userID, session.QuizType, session.QuizID)
	if err != nil {
		return nil, err
	}
	if session.CurrentIndex >= len(qids) {
		return nil, apierr.IntegrityViolation("quiz session %s has no question at index %d", sessionID, session.CurrentIndex)
	}
	questionID := qids[session.CurrentIndex]

	result, err := s.interactions.RecordAnswer(ctx, userID, questionID, selectedIndex)
	if err != nil {
		return nil, err
	}

	session.Answers = append(session.Answers, types.SessionAnswer{
		QuestionID:    questionID,
		SelectedIndex: selectedIndex,
		Correct:       result.Correct,
	})
	session.CurrentIndex++
	if result.Correct {
		session.Score++
	}
	session.UpdatedAt = time.Now().UTC()
	if session.CurrentIndex >= len(qids) {
		session.IsComplete = true
		now := time.Now().UTC()
		session.CompletedAt = &now
	}
	if err := s.sessionRepo.Save(ctx, nil, session); err != nil {
		return nil, err
	}
	return &SessionProgress{
		Correct:      result.Correct,
		CurrentIndex: session.CurrentIndex,
		Total:        len(qids),
		Complete:     session.IsComplete,
		Score:        session.Score,
	}, nil
}

func (s *sessionService) Complete(ctx context.Context, userID, sessionID uuid.UUID) (*types.QuizSession, error) {
	session, err := s.getOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsComplete {
		return session, nil
	}
	now := time.Now().UTC()
	session.IsComplete = true
	session.CompletedAt = &now
	session.UpdatedAt = now
	if err := s.sessionRepo.Save(ctx, nil, session); err != nil {
		return nil, err
	}
	s.log.Info("quiz session completed", "id", sessionID, "score", session.Score, "answered", len(session.Answers))
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, userID, sessionID uuid.UUID) (*types.QuizSession, error) {
	return s.getOwned(ctx, userID, sessionID)
}

func (s *sessionService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.QuizSession, error) {
	return s.sessionRepo.GetByUser(ctx, nil, userID)
}
