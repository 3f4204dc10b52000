package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

func TestTaxonomyCreateIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first := e.mustTheme(t, "Joelho")
	// Same name, sloppy whitespace: must come back as the same node.
	second, err := e.taxonomy.Create(ctx, "  Joelho ", types.LevelTheme, nil)
	if err != nil {
		t.Fatalf("repeat create: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat create made a new node: %s vs %s", second.ID, first.ID)
	}

	all, err := e.taxonomyRepo.GetByType(ctx, nil, types.LevelTheme)
	if err != nil {
		t.Fatalf("GetByType: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("themes = %d, want 1", len(all))
	}
}

func TestTaxonomyLevelRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	theme := e.mustTheme(t, "Ombro")
	sub := e.mustSubtheme(t, "Manguito", theme.ID)

	// A group under a theme skips a level.
	if _, err := e.taxonomy.Create(ctx, "Ruptura", types.LevelGroup, &theme.ID); !apierr.IsCode(err, apierr.CodeIntegrityViolation) {
		t.Fatalf("group under theme: got %v, want integrity_violation", err)
	}
	// A theme with a parent.
	if _, err := e.taxonomy.Create(ctx, "Outra", types.LevelTheme, &sub.ID); !apierr.IsCode(err, apierr.CodeIntegrityViolation) {
		t.Fatalf("theme with parent: got %v, want integrity_violation", err)
	}
	// A subtheme under a missing parent.
	missing := uuid.New()
	if _, err := e.taxonomy.Create(ctx, "Orfao", types.LevelSubtheme, &missing); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("missing parent: got %v, want not_found", err)
	}

	grp := e.mustGroup(t, "Ruptura", sub.ID)
	if len(grp.PathIDs) != 2 || grp.PathIDs[0] != theme.ID || grp.PathIDs[1] != sub.ID {
		t.Fatalf("group path = %v", grp.PathIDs)
	}
	if grp.PathNames[0] != "Ombro" || grp.PathNames[1] != "Manguito" {
		t.Fatalf("group path names = %v", grp.PathNames)
	}
}

func TestTaxonomyRenamePropagates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	theme := e.mustTheme(t, "Coluna")
	sub := e.mustSubtheme(t, "Lombar", theme.ID)
	grp := e.mustGroup(t, "Hernia", sub.ID)
	q := e.mustQuestion(t, theme.ID, &sub.ID, &grp.ID)

	if _, err := e.taxonomy.Rename(ctx, theme.ID, "Coluna Vertebral"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	// Descendant materialized paths carry the new name.
	reloaded, err := e.taxonomyRepo.GetByID(ctx, nil, grp.ID)
	if err != nil {
		t.Fatalf("reload group: %v", err)
	}
	if reloaded.PathNames[0] != "Coluna Vertebral" {
		t.Fatalf("group path names after rename = %v", reloaded.PathNames)
	}

	// The question's denormalized theme name follows.
	qr, err := e.questionRepo.GetByID(ctx, nil, q.ID)
	if err != nil {
		t.Fatalf("reload question: %v", err)
	}
	if qr.TaxonomyThemeName != "Coluna Vertebral" {
		t.Fatalf("question theme name = %q", qr.TaxonomyThemeName)
	}
}

func TestTaxonomyDeleteGuards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	theme := e.mustTheme(t, "Mao")
	sub := e.mustSubtheme(t, "Tendao", theme.ID)
	e.mustQuestion(t, theme.ID, &sub.ID, nil)

	if err := e.taxonomy.Delete(ctx, theme.ID); !apierr.IsCode(err, apierr.CodeIntegrityViolation) {
		t.Fatalf("delete with children: got %v, want integrity_violation", err)
	}
	if err := e.taxonomy.Delete(ctx, sub.ID); !apierr.IsCode(err, apierr.CodeIntegrityViolation) {
		t.Fatalf("delete with questions: got %v, want integrity_violation", err)
	}

	empty := e.mustSubtheme(t, "Vazio", theme.ID)
	if err := e.taxonomy.Delete(ctx, empty.ID); err != nil {
		t.Fatalf("delete empty subtheme: %v", err)
	}
	if err := e.taxonomy.Delete(ctx, empty.ID); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("double delete: got %v, want not_found", err)
	}
}

func TestTaxonomyHierarchyAndPath(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	theme := e.mustTheme(t, "Pe")
	sub := e.mustSubtheme(t, "Antepe", theme.ID)
	grp := e.mustGroup(t, "Halux", sub.ID)

	tree, err := e.taxonomy.GetHierarchy(ctx)
	if err != nil {
		t.Fatalf("GetHierarchy: %v", err)
	}
	if len(tree) != 1 || tree[0].ID != theme.ID {
		t.Fatalf("hierarchy roots = %+v", tree)
	}
	if len(tree[0].Children) != 1 || len(tree[0].Children[0].Children) != 1 {
		t.Fatalf("hierarchy nesting wrong: %+v", tree[0])
	}

	path, err := e.taxonomy.GetHierarchyPath(ctx, grp.ID)
	if err != nil {
		t.Fatalf("GetHierarchyPath: %v", err)
	}
	if path.Theme.ID != theme.ID || path.Subtheme.ID != sub.ID || path.Group.ID != grp.ID {
		t.Fatalf("path = %+v", path)
	}

	// Path for a mid-level node leaves the group slot empty.
	path, err = e.taxonomy.GetHierarchyPath(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetHierarchyPath sub: %v", err)
	}
	if path.Group != nil || path.Subtheme.ID != sub.ID {
		t.Fatalf("sub path = %+v", path)
	}

	descendants, err := e.taxonomy.GetDescendants(ctx, theme.ID)
	if err != nil {
		t.Fatalf("GetDescendants: %v", err)
	}
	if len(descendants) != 2 {
		t.Fatalf("descendants = %d, want 2", len(descendants))
	}
}
