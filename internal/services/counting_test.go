package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

func TestCountLiveTaxonomyUnion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	knee := e.mustTheme(t, "Joelho")
	meniscus := e.mustSubtheme(t, "Menisco", knee.ID)
	tears := e.mustGroup(t, "Lesoes", meniscus.ID)
	shoulder := e.mustTheme(t, "Ombro")

	// Two directly under the theme, one under the subtheme, one under the
	// group, one under the other theme.
	e.mustQuestion(t, knee.ID, nil, nil)
	e.mustQuestion(t, knee.ID, nil, nil)
	e.mustQuestion(t, knee.ID, &meniscus.ID, nil)
	e.mustQuestion(t, knee.ID, &meniscus.ID, &tears.ID)
	e.mustQuestion(t, shoulder.ID, nil, nil)

	tests := []struct {
		name string
		ids  []uuid.UUID
		want int
	}{
		{"whole_theme", []uuid.UUID{knee.ID}, 4},
		{"subtheme_only", []uuid.UUID{meniscus.ID}, 2},
		{"group_only", []uuid.UUID{tears.ID}, 1},
		{"theme_plus_own_subtheme_dedupes", []uuid.UUID{knee.ID, meniscus.ID}, 4},
		{"two_themes", []uuid.UUID{knee.ID, shoulder.ID}, 5},
		{"unknown_id_matches_nothing", []uuid.UUID{uuid.New()}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.counts.CountLive(ctx, tt.ids, nil, ModeAll)
			if err != nil {
				t.Fatalf("CountLive: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CountLive = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCountLiveFastPathMatchesTree(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	theme := e.mustTheme(t, "Quadril")
	q1 := e.mustQuestion(t, theme.ID, nil, nil)
	e.mustQuestion(t, theme.ID, nil, nil)

	got, err := e.counts.CountLive(ctx, nil, nil, ModeAll)
	if err != nil {
		t.Fatalf("CountLive: %v", err)
	}
	if got != 2 || got != e.totalCount() {
		t.Fatalf("fast path = %d, tree = %d, want 2", got, e.totalCount())
	}

	// Archival removes from both the fast path and the indexed path.
	if err := e.questions.Archive(ctx, q1.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	got, err = e.counts.CountLive(ctx, nil, nil, ModeAll)
	if err != nil {
		t.Fatalf("CountLive after archive: %v", err)
	}
	if got != 1 {
		t.Fatalf("fast path after archive = %d, want 1", got)
	}
	byTheme, err := e.counts.CountLive(ctx, []uuid.UUID{theme.ID}, nil, ModeAll)
	if err != nil {
		t.Fatalf("CountLive by theme: %v", err)
	}
	if byTheme != 1 {
		t.Fatalf("indexed path after archive = %d, want 1", byTheme)
	}
}

func TestCountLiveUserModes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	theme := e.mustTheme(t, "Coluna")
	q1 := e.mustQuestion(t, theme.ID, nil, nil)
	q2 := e.mustQuestion(t, theme.ID, nil, nil)
	q3 := e.mustQuestion(t, theme.ID, nil, nil)

	// q1 answered correctly, q2 answered wrong, q3 untouched but bookmarked.
	if _, err := e.interaction.RecordAnswer(ctx, userID, q1.ID, q1.CorrectIndex); err != nil {
		t.Fatalf("RecordAnswer q1: %v", err)
	}
	wrong := (q2.CorrectIndex + 1) % len(q2.Options)
	if _, err := e.interaction.RecordAnswer(ctx, userID, q2.ID, wrong); err != nil {
		t.Fatalf("RecordAnswer q2: %v", err)
	}
	if err := e.interaction.Bookmark(ctx, userID, q3.ID); err != nil {
		t.Fatalf("Bookmark q3: %v", err)
	}

	sel := []uuid.UUID{theme.ID}
	tests := []struct {
		mode QuestionMode
		want int
	}{
		{ModeAll, 3},
		{ModeUnanswered, 1},
		{ModeIncorrect, 1},
		{ModeBookmarked, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got, err := e.counts.CountLive(ctx, sel, &userID, tt.mode)
			if err != nil {
				t.Fatalf("CountLive(%s): %v", tt.mode, err)
			}
			if got != tt.want {
				t.Fatalf("CountLive(%s) = %d, want %d", tt.mode, got, tt.want)
			}
		})
	}

	// A second user sees a clean slate.
	other := uuid.New()
	got, err := e.counts.CountLive(ctx, sel, &other, ModeUnanswered)
	if err != nil {
		t.Fatalf("CountLive other user: %v", err)
	}
	if got != 3 {
		t.Fatalf("other user unanswered = %d, want 3", got)
	}
}

func TestCountLiveRejectsScans(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	for _, mode := range []QuestionMode{ModeUnanswered, ModeIncorrect, ModeBookmarked} {
		_, err := e.counts.CountLive(ctx, nil, &userID, mode)
		if !apierr.IsCode(err, apierr.CodeInvalidCombination) {
			t.Fatalf("mode %s without taxonomy filter: got %v, want invalid_combination", mode, err)
		}
	}

	theme := e.mustTheme(t, "Pe")
	_, err := e.counts.CountLive(ctx, []uuid.UUID{theme.ID}, nil, ModeIncorrect)
	if !apierr.IsCode(err, apierr.CodeInvalidCombination) {
		t.Fatalf("user mode without user: got %v, want invalid_combination", err)
	}

	_, err = e.counts.CountLive(ctx, []uuid.UUID{theme.ID}, &userID, QuestionMode("bogus"))
	if !apierr.IsCode(err, apierr.CodeIntegrityViolation) {
		t.Fatalf("bogus mode: got %v, want integrity_violation", err)
	}
}

func TestGetAllQuestionCounts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	theme := e.mustTheme(t, "Mao")
	q1 := e.mustQuestion(t, theme.ID, nil, nil)
	q2 := e.mustQuestion(t, theme.ID, nil, nil)

	wrong := (q1.CorrectIndex + 1) % len(q1.Options)
	if _, err := e.interaction.RecordAnswer(ctx, userID, q1.ID, wrong); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if err := e.interaction.Bookmark(ctx, userID, q2.ID); err != nil {
		t.Fatalf("Bookmark: %v", err)
	}

	counts, err := e.counts.GetAllQuestionCounts(ctx, userID)
	if err != nil {
		t.Fatalf("GetAllQuestionCounts: %v", err)
	}
	if counts.Total != 2 || counts.Answered != 1 || counts.Incorrect != 1 || counts.Bookmarked != 1 {
		t.Fatalf("counts = %+v, want {2 1 1 1}", counts)
	}
	if counts.Unanswered != counts.Total-counts.Answered {
		t.Fatalf("unanswered = %d, want total-answered = %d", counts.Unanswered, counts.Total-counts.Answered)
	}
}

func TestCountByTaxonomyPerLevel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	spine := e.mustTheme(t, "Coluna")
	hernia := e.mustSubtheme(t, "Hernia Discal", spine.ID)
	l4l5 := e.mustGroup(t, "L4-L5", hernia.ID)
	for i := 0; i < 3; i++ {
		e.mustQuestion(t, spine.ID, &hernia.ID, &l4l5.ID)
	}

	assertLevels := func(wantTheme, wantSubtheme, wantGroup int) {
		t.Helper()
		cases := []struct {
			level types.TaxonomyLevel
			id    uuid.UUID
			want  int
		}{
			{types.LevelTheme, spine.ID, wantTheme},
			{types.LevelSubtheme, hernia.ID, wantSubtheme},
			{types.LevelGroup, l4l5.ID, wantGroup},
		}
		for _, tc := range cases {
			got, err := e.counts.CountByTaxonomy(ctx, tc.level, tc.id)
			if err != nil {
				t.Fatalf("CountByTaxonomy(%s): %v", tc.level, err)
			}
			if got != tc.want {
				t.Fatalf("CountByTaxonomy(%s) = %d, want %d", tc.level, got, tc.want)
			}
		}
	}

	assertLevels(3, 3, 3)

	// A question attached to the theme alone moves only the theme count.
	e.mustQuestion(t, spine.ID, nil, nil)
	assertLevels(4, 3, 3)

	got, err := e.counts.CountByTaxonomy(ctx, types.LevelTheme, uuid.New())
	if err != nil {
		t.Fatalf("CountByTaxonomy unknown id: %v", err)
	}
	if got != 0 {
		t.Fatalf("unknown id count = %d, want 0", got)
	}
}

func TestArchiveAfterTimestampRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	theme := e.mustTheme(t, "Pe")
	q := e.mustQuestion(t, theme.ID, nil, nil)

	// Postgres stores timestamps at microsecond precision, so the row the
	// archive path reads back carries less precision than the in-memory row
	// the create path keyed the tree item on.
	truncated := q.CreatedAt.UTC().Truncate(time.Microsecond)
	if err := e.db.Model(&types.Question{}).Where("id = ?", q.ID).
		Update("created_at", truncated).Error; err != nil {
		t.Fatalf("truncate created_at: %v", err)
	}

	if err := e.questions.Archive(ctx, q.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if got := e.totalCount(); got != 0 {
		t.Fatalf("total after archive = %d, want 0", got)
	}

	if err := e.questions.Unarchive(ctx, q.ID); err != nil {
		t.Fatalf("Unarchive: %v", err)
	}
	if got := e.totalCount(); got != 1 {
		t.Fatalf("total after unarchive = %d, want 1", got)
	}
}
