package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/aggregate"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/repos"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

const rebuildBatchSize = 500

// BackfillReport summarizes one taxonomy backfill run.
type BackfillReport struct {
	ThemesCreated    int `json:"themes_created"`
	SubthemesCreated int `json:"subthemes_created"`
	GroupsCreated    int `json:"groups_created"`
	Skipped          int `json:"skipped"`
}

type BackfillService interface {
	// BackfillTaxonomy copies the legacy flat tables into the unified
	// hierarchy. Safe to run repeatedly; existing nodes are skipped.
	BackfillTaxonomy(ctx context.Context) (*BackfillReport, error)
	// RefreshQuestionNames rewrites every denormalized taxonomy name on the
	// question table from the current node names.
	RefreshQuestionNames(ctx context.Context) error
	// RebuildAggregates clears the trees and reloads them from the source
	// tables. Runs at startup and on demand; API writes must be quiesced
	// for the on-demand case.
	RebuildAggregates(ctx context.Context, cfg aggregate.Config) error
}

type backfillService struct {
	db           *gorm.DB
	log          *logger.Logger
	reg          *aggregate.Registry
	legacyRepo   repos.LegacyTaxonomyRepo
	taxonomy     TaxonomyService
	taxonomyRepo repos.TaxonomyRepo
	questionRepo repos.QuestionRepo
	statRepo     repos.UserQuestionStatRepo
	bookmarkRepo repos.UserBookmarkRepo
}

func NewBackfillService(
	db *gorm.DB,
	baseLog *logger.Logger,
	reg *aggregate.Registry,
	legacyRepo repos.LegacyTaxonomyRepo,
	taxonomy TaxonomyService,
	taxonomyRepo repos.TaxonomyRepo,
	questionRepo repos.QuestionRepo,
	statRepo repos.UserQuestionStatRepo,
	bookmarkRepo repos.UserBookmarkRepo,
) BackfillService {
	return &backfillService{
		db:           db,
		log:          baseLog.With("service", "BackfillService"),
		reg:          reg,
		legacyRepo:   legacyRepo,
		taxonomy:     taxonomy,
		taxonomyRepo: taxonomyRepo,
		questionRepo: questionRepo,
		statRepo:     statRepo,
		bookmarkRepo: bookmarkRepo,
	}
}

func (s *backfillService) BackfillTaxonomy(ctx context.Context) (*BackfillReport, error) {
	report := &BackfillReport{}

	themes, err := s.legacyRepo.GetThemes(ctx, nil)
	if err != nil {
		return nil, err
	}
	themeNodes := make(map[uuid.UUID]uuid.UUID, len(themes))
	for _, t := range themes {
		node, created, err := s.ensureNode(ctx, t.Name, types.LevelTheme, nil)
		if err != nil {
			return nil, err
		}
		themeNodes[t.ID] = node.ID
		if created {
			report.ThemesCreated++
		} else {
			report.Skipped++
		}
	}

	subthemes, err := s.legacyRepo.GetSubthemes(ctx, nil)
	if err != nil {
		return nil, err
	}
	subthemeNodes := make(map[uuid.UUID]uuid.UUID, len(subthemes))
	for _, st := range subthemes {
		parentID, ok := themeNodes[st.ThemeID]
		if !ok {
			s.log.Warn("legacy subtheme has no theme, skipping", "subtheme", st.ID, "theme", st.ThemeID)
			report.Skipped++
			continue
		}
		node, created, err := s.ensureNode(ctx, st.Name, types.LevelSubtheme, &parentID)
		if err != nil {
			return nil, err
		}
		subthemeNodes[st.ID] = node.ID
		if created {
			report.SubthemesCreated++
		} else {
			report.Skipped++
		}
	}

	groups, err := s.legacyRepo.GetGroups(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		parentID, ok := subthemeNodes[g.SubthemeID]
		if !ok {
			s.log.Warn("legacy group has no subtheme, skipping", "group", g.ID, "subtheme", g.SubthemeID)
			report.Skipped++
			continue
		}
		_, created, err := s.ensureNode(ctx, g.Name, types.LevelGroup, &parentID)
		if err != nil {
			return nil, err
		}
		if created {
			report.GroupsCreated++
		} else {
			report.Skipped++
		}
	}

	s.log.Info("taxonomy backfill complete",
		"themes", report.ThemesCreated,
		"subthemes", report.SubthemesCreated,
		"groups", report.GroupsCreated,
		"skipped", report.Skipped)
	return report, nil
}

func (s *backfillService) ensureNode(ctx context.Context, name string, level types.TaxonomyLevel, parentID *uuid.UUID) (*types.TaxonomyNode, bool, error) {
	existing, err := s.taxonomyRepo.FindExisting(ctx, nil, parentID, name, level)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	node, err := s.taxonomy.Create(ctx, name, level, parentID)
	if err != nil {
		return nil, false, err
	}
	return node, true, nil
}

func (s *backfillService) RefreshQuestionNames(ctx context.Context) error {
	nodes, err := s.taxonomyRepo.GetAll(ctx, nil)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		if err := s.questionRepo.UpdateTaxonomyName(ctx, nil, n.Type, n.ID, n.Name); err != nil {
			return err
		}
	}
	s.log.Info("question taxonomy names refreshed", "nodes", len(nodes))
	return nil
}

func (s *backfillService) RebuildAggregates(ctx context.Context, cfg aggregate.Config) error {
	s.reg.ClearAll(cfg)

	total := s.reg.Tree(aggregate.TreeQuestionsTotal)
	answered := s.reg.Tree(aggregate.TreeAnsweredByUser)
	incorrect := s.reg.Tree(aggregate.TreeIncorrectByUser)
	bookmarked := s.reg.Tree(aggregate.TreeBookmarkedByUser)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.questionRepo.ForEachLive(gctx, nil, rebuildBatchSize, func(rows []*types.Question) error {
			for _, q := range rows {
				if err := total.Insert(aggregate.GlobalNamespace, questionItem(q)); err != nil {
					return err
				}
			}
			return nil
		})
	})
	g.Go(func() error {
		return s.statRepo.ForEach(gctx, nil, rebuildBatchSize, func(rows []*types.UserQuestionStat) error {
			for _, st := range rows {
				ns := aggregate.UserNamespace(st.UserID)
				it := interactionItem(st.QuestionID.String())
				if st.HasAnswered {
					if err := answered.Insert(ns, it); err != nil {
						return err
					}
				}
				if st.IsIncorrect {
					if err := incorrect.Insert(ns, it); err != nil {
						return err
					}
				}
			}
			return nil
		})
	})
	g.Go(func() error {
		return s.bookmarkRepo.ForEach(gctx, nil, rebuildBatchSize, func(rows []*types.UserBookmark) error {
			for _, b := range rows {
				if err := bookmarked.Insert(aggregate.UserNamespace(b.UserID), interactionItem(b.QuestionID.String())); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.log.Info("aggregate trees rebuilt",
		"total", total.Count(aggregate.GlobalNamespace, aggregate.Bounds{}),
		"answered_namespaces", len(answered.Namespaces()),
		"bookmarked_namespaces", len(bookmarked.Namespaces()))
	return nil
}
