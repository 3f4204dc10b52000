package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

func TestCreateCustomQuizMatchesCount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	theme := e.mustTheme(t, "Joelho")
	for i := 0; i < 5; i++ {
		e.mustQuestion(t, theme.ID, nil, nil)
	}

	promised, err := e.counts.CountLive(ctx, []uuid.UUID{theme.ID}, &userID, ModeUnanswered)
	if err != nil {
		t.Fatalf("CountLive: %v", err)
	}
	quiz, err := e.quizzes.CreateCustom(ctx, userID, CustomQuizInput{
		Name:        "Revisao",
		TaxonomyIDs: []uuid.UUID{theme.ID},
		Mode:        ModeUnanswered,
	})
	if err != nil {
		t.Fatalf("CreateCustom: %v", err)
	}
	if len(quiz.QuestionIDs) != promised {
		t.Fatalf("quiz has %d questions, count promised %d", len(quiz.QuestionIDs), promised)
	}

	// The cap trims, never pads.
	small, err := e.quizzes.CreateCustom(ctx, userID, CustomQuizInput{
		Name:         "Curta",
		TaxonomyIDs:  []uuid.UUID{theme.ID},
		Mode:         ModeAll,
		MaxQuestions: 2,
	})
	if err != nil {
		t.Fatalf("CreateCustom capped: %v", err)
	}
	if len(small.QuestionIDs) != 2 {
		t.Fatalf("capped quiz has %d questions, want 2", len(small.QuestionIDs))
	}
}

func TestCreateCustomQuizEmptySelection(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	theme := e.mustTheme(t, "Vazio")
	_, err := e.quizzes.CreateCustom(ctx, userID, CustomQuizInput{
		Name:        "Nada",
		TaxonomyIDs: []uuid.UUID{theme.ID},
	})
	if !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("empty selection: got %v, want not_found", err)
	}
}

func TestCustomQuizOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	theme := e.mustTheme(t, "Ombro")
	e.mustQuestion(t, theme.ID, nil, nil)

	quiz, err := e.quizzes.CreateCustom(ctx, owner, CustomQuizInput{
		Name:        "Minha",
		TaxonomyIDs: []uuid.UUID{theme.ID},
	})
	if err != nil {
		t.Fatalf("CreateCustom: %v", err)
	}
	if _, err := e.quizzes.GetCustom(ctx, stranger, quiz.ID); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("stranger access: got %v, want not_found", err)
	}
	if _, err := e.quizzes.GetCustom(ctx, owner, quiz.ID); err != nil {
		t.Fatalf("owner access: %v", err)
	}
}

func TestPresetQuizValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	theme := e.mustTheme(t, "Coluna")
	q := e.mustQuestion(t, theme.ID, nil, nil)

	_, err := e.quizzes.CreatePreset(ctx, PresetQuizInput{
		Name:        "Trilha 1",
		Category:    "bogus",
		QuestionIDs: []uuid.UUID{q.ID},
	})
	if !apierr.IsCode(err, apierr.CodeIntegrityViolation) {
		t.Fatalf("bogus category: got %v, want integrity_violation", err)
	}

	_, err = e.quizzes.CreatePreset(ctx, PresetQuizInput{
		Name:        "Trilha 1",
		Category:    types.QuizCategoryTrail,
		QuestionIDs: []uuid.UUID{q.ID, uuid.New()},
	})
	if !apierr.IsCode(err, apierr.CodeIntegrityViolation) {
		t.Fatalf("dangling question: got %v, want integrity_violation", err)
	}

	quiz, err := e.quizzes.CreatePreset(ctx, PresetQuizInput{
		Name:        "Trilha 1",
		Category:    types.QuizCategoryTrail,
		QuestionIDs: []uuid.UUID{q.ID, q.ID},
		Published:   true,
	})
	if err != nil {
		t.Fatalf("CreatePreset: %v", err)
	}
	if len(quiz.QuestionIDs) != 1 {
		t.Fatalf("duplicate ids not collapsed: %v", quiz.QuestionIDs)
	}
}

func TestSessionFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	theme := e.mustTheme(t, "Mao")
	q1 := e.mustQuestion(t, theme.ID, nil, nil)
	q2 := e.mustQuestion(t, theme.ID, nil, nil)

	quiz, err := e.quizzes.CreatePreset(ctx, PresetQuizInput{
		Name:        "Simulado",
		Category:    types.QuizCategoryExam,
		QuestionIDs: []uuid.UUID{q1.ID, q2.ID},
		Published:   true,
	})
	if err != nil {
		t.Fatalf("CreatePreset: %v", err)
	}

	session, err := e.sessions.Start(ctx, userID, types.QuizRefPreset, quiz.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Starting again resumes the same session.
	again, err := e.sessions.Start(ctx, userID, types.QuizRefPreset, quiz.ID)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if again.ID != session.ID {
		t.Fatalf("restart made a new session: %s vs %s", again.ID, session.ID)
	}

	p1, err := e.sessions.SubmitAnswer(ctx, userID, session.ID, q1.CorrectIndex)
	if err != nil {
		t.Fatalf("SubmitAnswer 1: %v", err)
	}
	if !p1.Correct || p1.Complete || p1.CurrentIndex != 1 {
		t.Fatalf("progress 1 = %+v", p1)
	}

	wrong := (q2.CorrectIndex + 1) % len(q2.Options)
	p2, err := e.sessions.SubmitAnswer(ctx, userID, session.ID, wrong)
	if err != nil {
		t.Fatalf("SubmitAnswer 2: %v", err)
	}
	if p2.Correct || !p2.Complete || p2.Score != 1 {
		t.Fatalf("progress 2 = %+v", p2)
	}

	// Session answers landed in the per-user stat counts too.
	if got := e.userCount("answered_by_user", userID); got != 2 {
		t.Fatalf("answered via session = %d, want 2", got)
	}
	if got := e.userCount("incorrect_by_user", userID); got != 1 {
		t.Fatalf("incorrect via session = %d, want 1", got)
	}

	if _, err := e.sessions.SubmitAnswer(ctx, userID, session.ID, 0); !apierr.IsCode(err, apierr.CodeIntegrityViolation) {
		t.Fatalf("answer after completion: got %v, want integrity_violation", err)
	}
}
