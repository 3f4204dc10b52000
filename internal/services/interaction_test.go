package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ortoqbank/ortoqbank-backend/internal/aggregate"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
)

func TestRecordAnswerIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	theme := e.mustTheme(t, "Tornozelo")
	q := e.mustQuestion(t, theme.ID, nil, nil)
	wrong := (q.CorrectIndex + 1) % len(q.Options)

	res, err := e.interaction.RecordAnswer(ctx, userID, q.ID, wrong)
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if res.Correct {
		t.Fatal("wrong answer graded as correct")
	}
	if got := e.userCount(aggregate.TreeIncorrectByUser, userID); got != 1 {
		t.Fatalf("incorrect count = %d, want 1", got)
	}

	// Repeating the same answer changes nothing.
	for i := 0; i < 3; i++ {
		if _, err := e.interaction.RecordAnswer(ctx, userID, q.ID, wrong); err != nil {
			t.Fatalf("repeat RecordAnswer: %v", err)
		}
	}
	if got := e.userCount(aggregate.TreeAnsweredByUser, userID); got != 1 {
		t.Fatalf("answered count after repeats = %d, want 1", got)
	}
	if got := e.userCount(aggregate.TreeIncorrectByUser, userID); got != 1 {
		t.Fatalf("incorrect count after repeats = %d, want 1", got)
	}
}

func TestRecordAnswerRegrade(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	theme := e.mustTheme(t, "Cotovelo")
	q := e.mustQuestion(t, theme.ID, nil, nil)
	wrong := (q.CorrectIndex + 1) % len(q.Options)

	if _, err := e.interaction.RecordAnswer(ctx, userID, q.ID, wrong); err != nil {
		t.Fatalf("RecordAnswer wrong: %v", err)
	}
	if got := e.userCount(aggregate.TreeIncorrectByUser, userID); got != 1 {
		t.Fatalf("incorrect = %d, want 1", got)
	}

	// Changing to the correct answer removes the incorrect membership but
	// keeps the answered one.
	if _, err := e.interaction.RecordAnswer(ctx, userID, q.ID, q.CorrectIndex); err != nil {
		t.Fatalf("RecordAnswer correct: %v", err)
	}
	if got := e.userCount(aggregate.TreeIncorrectByUser, userID); got != 0 {
		t.Fatalf("incorrect after regrade = %d, want 0", got)
	}
	if got := e.userCount(aggregate.TreeAnsweredByUser, userID); got != 1 {
		t.Fatalf("answered after regrade = %d, want 1", got)
	}

	stat, err := e.statRepo.GetByUserAndQuestion(ctx, nil, userID, q.ID)
	if err != nil || stat == nil {
		t.Fatalf("stat row: %v, %v", stat, err)
	}
	if stat.IsIncorrect || !stat.HasAnswered || stat.SelectedIndex != q.CorrectIndex {
		t.Fatalf("stat row = %+v", stat)
	}
}

func TestRecordAnswerValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	theme := e.mustTheme(t, "Punho")
	q := e.mustQuestion(t, theme.ID, nil, nil)

	if _, err := e.interaction.RecordAnswer(ctx, userID, uuid.New(), 0); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("missing question: got %v, want not_found", err)
	}
	if _, err := e.interaction.RecordAnswer(ctx, userID, q.ID, len(q.Options)); !apierr.IsCode(err, apierr.CodeIntegrityViolation) {
		t.Fatalf("out-of-range index: got %v, want integrity_violation", err)
	}
}

func TestBookmarkLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	theme := e.mustTheme(t, "Quadril")
	q := e.mustQuestion(t, theme.ID, nil, nil)

	// Bookmarking twice keeps the count at one.
	for i := 0; i < 2; i++ {
		if err := e.interaction.Bookmark(ctx, userID, q.ID); err != nil {
			t.Fatalf("Bookmark: %v", err)
		}
	}
	if got := e.userCount(aggregate.TreeBookmarkedByUser, userID); got != 1 {
		t.Fatalf("bookmarked = %d, want 1", got)
	}

	if err := e.interaction.Unbookmark(ctx, userID, q.ID); err != nil {
		t.Fatalf("Unbookmark: %v", err)
	}
	if got := e.userCount(aggregate.TreeBookmarkedByUser, userID); got != 0 {
		t.Fatalf("bookmarked after removal = %d, want 0", got)
	}

	// Removing a bookmark that is not there is a no-op.
	if err := e.interaction.Unbookmark(ctx, userID, q.ID); err != nil {
		t.Fatalf("repeat Unbookmark: %v", err)
	}
}
