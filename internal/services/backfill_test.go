package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ortoqbank/ortoqbank-backend/internal/aggregate"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

func seedLegacy(t *testing.T, e *env) (theme types.LegacyTheme, sub types.LegacySubtheme, grp types.LegacyGroup) {
	t.Helper()
	now := time.Now().UTC()
	theme = types.LegacyTheme{ID: uuid.New(), Name: "Joelho", CreatedAt: now}
	sub = types.LegacySubtheme{ID: uuid.New(), Name: "Menisco", ThemeID: theme.ID, CreatedAt: now}
	grp = types.LegacyGroup{ID: uuid.New(), Name: "Lesoes", SubthemeID: sub.ID, CreatedAt: now}
	if err := e.db.Create(&theme).Error; err != nil {
		t.Fatalf("seed legacy theme: %v", err)
	}
	if err := e.db.Create(&sub).Error; err != nil {
		t.Fatalf("seed legacy subtheme: %v", err)
	}
	if err := e.db.Create(&grp).Error; err != nil {
		t.Fatalf("seed legacy group: %v", err)
	}
	return theme, sub, grp
}

func TestBackfillTaxonomy(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedLegacy(t, e)

	report, err := e.backfill.BackfillTaxonomy(ctx)
	if err != nil {
		t.Fatalf("BackfillTaxonomy: %v", err)
	}
	if report.ThemesCreated != 1 || report.SubthemesCreated != 1 || report.GroupsCreated != 1 {
		t.Fatalf("report = %+v", report)
	}

	groups, err := e.taxonomyRepo.GetByType(ctx, nil, types.LevelGroup)
	if err != nil {
		t.Fatalf("GetByType: %v", err)
	}
	if len(groups) != 1 || len(groups[0].PathIDs) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	if groups[0].PathNames[0] != "Joelho" || groups[0].PathNames[1] != "Menisco" {
		t.Fatalf("group path names = %v", groups[0].PathNames)
	}

	// A second run creates nothing.
	report, err = e.backfill.BackfillTaxonomy(ctx)
	if err != nil {
		t.Fatalf("repeat BackfillTaxonomy: %v", err)
	}
	if report.ThemesCreated != 0 || report.SubthemesCreated != 0 || report.GroupsCreated != 0 {
		t.Fatalf("repeat report = %+v", report)
	}
	if report.Skipped != 3 {
		t.Fatalf("repeat skipped = %d, want 3", report.Skipped)
	}
}

func TestRebuildAggregatesMatchesSource(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	theme := e.mustTheme(t, "Ombro")
	q1 := e.mustQuestion(t, theme.ID, nil, nil)
	q2 := e.mustQuestion(t, theme.ID, nil, nil)
	q3 := e.mustQuestion(t, theme.ID, nil, nil)
	if err := e.questions.Archive(ctx, q3.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	wrong := (q1.CorrectIndex + 1) % len(q1.Options)
	if _, err := e.interaction.RecordAnswer(ctx, userID, q1.ID, wrong); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if err := e.interaction.Bookmark(ctx, userID, q2.ID); err != nil {
		t.Fatalf("Bookmark: %v", err)
	}

	before, err := e.counts.GetAllQuestionCounts(ctx, userID)
	if err != nil {
		t.Fatalf("counts before: %v", err)
	}

	// Rebuild from scratch under a different fan-out; counts must agree.
	if err := e.backfill.RebuildAggregates(ctx, aggregate.Config{MaxNodeSize: 8, LazyRoot: true}); err != nil {
		t.Fatalf("RebuildAggregates: %v", err)
	}
	after, err := e.counts.GetAllQuestionCounts(ctx, userID)
	if err != nil {
		t.Fatalf("counts after: %v", err)
	}
	if *before != *after {
		t.Fatalf("counts diverged: before %+v, after %+v", before, after)
	}
	if after.Total != 2 || after.Answered != 1 || after.Unanswered != 1 || after.Incorrect != 1 || after.Bookmarked != 1 {
		t.Fatalf("rebuilt counts = %+v", after)
	}
}

func TestRefreshQuestionNames(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	theme := e.mustTheme(t, "Quadril")
	q := e.mustQuestion(t, theme.ID, nil, nil)

	// Skew the denormalized name directly, then refresh.
	if err := e.db.Model(&types.Question{}).Where("id = ?", q.ID).
		Update("taxonomy_theme_name", "stale").Error; err != nil {
		t.Fatalf("skew name: %v", err)
	}
	if err := e.backfill.RefreshQuestionNames(ctx); err != nil {
		t.Fatalf("RefreshQuestionNames: %v", err)
	}
	qr, err := e.questionRepo.GetByID(ctx, nil, q.ID)
	if err != nil {
		t.Fatalf("reload question: %v", err)
	}
	if qr.TaxonomyThemeName != "Quadril" {
		t.Fatalf("theme name = %q, want Quadril", qr.TaxonomyThemeName)
	}
}
