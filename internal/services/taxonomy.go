package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/normalization"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/repos"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

// HierarchyNode is one node of the rendered taxonomy tree, nested down to
// groups. It is the shape the hierarchy endpoint returns and the cache stores.
type HierarchyNode struct {
	ID       uuid.UUID           `json:"id"`
	Name     string              `json:"name"`
	Type     types.TaxonomyLevel `json:"type"`
	Children []*HierarchyNode    `json:"children,omitempty"`
}

// HierarchyPath is the resolved ancestor chain of a node, including the node
// itself in its own slot. Slots below the node's level stay nil.
type HierarchyPath struct {
	Theme    *types.TaxonomyNode `json:"theme"`
	Subtheme *types.TaxonomyNode `json:"subtheme,omitempty"`
	Group    *types.TaxonomyNode `json:"group,omitempty"`
}

type TaxonomyService interface {
	GetHierarchy(ctx context.Context) ([]*HierarchyNode, error)
	GetByType(ctx context.Context, level types.TaxonomyLevel) ([]*types.TaxonomyNode, error)
	GetByParent(ctx context.Context, parentID *uuid.UUID) ([]*types.TaxonomyNode, error)
	GetDescendants(ctx context.Context, id uuid.UUID) ([]*types.TaxonomyNode, error)
	GetHierarchyPath(ctx context.Context, id uuid.UUID) (*HierarchyPath, error)
	Create(ctx context.Context, name string, level types.TaxonomyLevel, parentID *uuid.UUID) (*types.TaxonomyNode, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*types.TaxonomyNode, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type taxonomyService struct {
	db           *gorm.DB
	log          *logger.Logger
	taxonomyRepo repos.TaxonomyRepo
	questionRepo repos.QuestionRepo
	cache        *HierarchyCache
}

func NewTaxonomyService(
	db *gorm.DB,
	baseLog *logger.Logger,
	taxonomyRepo repos.TaxonomyRepo,
	questionRepo repos.QuestionRepo,
	cache *HierarchyCache,
) TaxonomyService {
	return &taxonomyService{
		db:           db,
		log:          baseLog.With("service", "TaxonomyService"),
		taxonomyRepo: taxonomyRepo,
		questionRepo: questionRepo,
		cache:        cache,
	}
}

func (s *taxonomyService) GetHierarchy(ctx context.Context) ([]*HierarchyNode, error) {
	if cached, ok := s.cache.Get(ctx); ok {
		return cached, nil
	}
	nodes, err := s.taxonomyRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	tree := buildHierarchy(nodes)
	s.cache.Set(ctx, tree)
	return tree, nil
}

// buildHierarchy nests a flat node list into themes > subthemes > groups,
// each sibling list sorted by name.
func buildHierarchy(nodes []*types.TaxonomyNode) []*HierarchyNode {
	byID := make(map[uuid.UUID]*HierarchyNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = &HierarchyNode{ID: n.ID, Name: n.Name, Type: n.Type}
	}
	var roots []*HierarchyNode
	for _, n := range nodes {
		h := byID[n.ID]
		if n.ParentID == nil {
			roots = append(roots, h)
			continue
		}
		if parent, ok := byID[*n.ParentID]; ok {
			parent.Children = append(parent.Children, h)
		}
	}
	var sortLevel func(list []*HierarchyNode)
	sortLevel = func(list []*HierarchyNode) {
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		for _, h := range list {
			sortLevel(h.Children)
		}
	}
	sortLevel(roots)
	return roots
}

func (s *taxonomyService) GetByType(ctx context.Context, level types.TaxonomyLevel) ([]*types.TaxonomyNode, error) {
	if !level.Valid() {
		return nil, apierr.IntegrityViolation("unknown taxonomy level %q", level)
	}
	return s.taxonomyRepo.GetByType(ctx, nil, level)
}

func (s *taxonomyService) GetByParent(ctx context.Context, parentID *uuid.UUID) ([]*types.TaxonomyNode, error) {
	return s.taxonomyRepo.GetByParent(ctx, nil, parentID)
}

// GetDescendants returns every node carrying id in its ancestor chain. The
// materialized path makes this a single scan with no recursion.
func (s *taxonomyService) GetDescendants(ctx context.Context, id uuid.UUID) ([]*types.TaxonomyNode, error) {
	all, err := s.taxonomyRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	var out []*types.TaxonomyNode
	for _, n := range all {
		if n.HasAncestor(id) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *taxonomyService) GetHierarchyPath(ctx context.Context, id uuid.UUID) (*HierarchyPath, error) {
	node, err := s.taxonomyRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, apierr.NotFound("taxonomy node %s not found", id)
	}
	path := &HierarchyPath{}
	assign := func(n *types.TaxonomyNode) {
		switch n.Type {
		case types.LevelTheme:
			path.Theme = n
		case types.LevelSubtheme:
			path.Subtheme = n
		case types.LevelGroup:
			path.Group = n
		}
	}
	if len(node.PathIDs) > 0 {
		ancestors, err := s.taxonomyRepo.GetByIDs(ctx, nil, node.PathIDs)
		if err != nil {
			return nil, err
		}
		if len(ancestors) != len(node.PathIDs) {
			return nil, apierr.IntegrityViolation("taxonomy node %s has dangling ancestor references", id)
		}
		for _, a := range ancestors {
			assign(a)
		}
	}
	assign(node)
	return path, nil
}

// Create is idempotent on (parent, name, level): creating a node that already
// exists returns the existing row unchanged.
func (s *taxonomyService) Create(ctx context.Context, name string, level types.TaxonomyLevel, parentID *uuid.UUID) (*types.TaxonomyNode, error) {
	name = normalization.NodeName(name)
	if name == "" {
		return nil, apierr.IntegrityViolation("taxonomy node name is required")
	}
	if !level.Valid() {
		return nil, apierr.IntegrityViolation("unknown taxonomy level %q", level)
	}

	var parent *types.TaxonomyNode
	if level == types.LevelTheme {
		if parentID != nil {
			return nil, apierr.IntegrityViolation("themes cannot have a parent")
		}
	} else {
		if parentID == nil {
			return nil, apierr.IntegrityViolation("%s nodes require a parent", level)
		}
		var err error
		parent, err = s.taxonomyRepo.GetByID(ctx, nil, *parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apierr.NotFound("parent taxonomy node %s not found", *parentID)
		}
		if parent.Type != level.ParentLevel() {
			return nil, apierr.IntegrityViolation("a %s cannot be a child of a %s", level, parent.Type)
		}
	}

	existing, err := s.taxonomyRepo.FindExisting(ctx, nil, parentID, name, level)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	node := &types.TaxonomyNode{
		ID:        uuid.New(),
		Name:      name,
		Type:      level,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if parent != nil {
		node.PathIDs = append(append([]uuid.UUID{}, parent.PathIDs...), parent.ID)
		node.PathNames = append(append([]string{}, parent.PathNames...), parent.Name)
	}
	if err := s.taxonomyRepo.Create(ctx, nil, node); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	s.log.Info("taxonomy node created", "id", node.ID, "level", level, "name", name)
	return node, nil
}

// Rename updates the node, rewrites the materialized path names of every
// descendant, and refreshes the denormalized name on questions at the node's
// level. All of it runs in one transaction.
func (s *taxonomyService) Rename(ctx context.Context, id uuid.UUID, name string) (*types.TaxonomyNode, error) {
	name = normalization.NodeName(name)
	if name == "" {
		return nil, apierr.IntegrityViolation("taxonomy node name is required")
	}
	node, err := s.taxonomyRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, apierr.NotFound("taxonomy node %s not found", id)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.taxonomyRepo.UpdateName(ctx, tx, id, name); err != nil {
			return err
		}
		all, err := s.taxonomyRepo.GetAll(ctx, tx)
		if err != nil {
			return err
		}
		for _, d := range all {
			idx := -1
			for i, p := range d.PathIDs {
				if p == id {
					idx = i
					break
				}
			}
			if idx < 0 {
				continue
			}
			names := append([]string{}, d.PathNames...)
			names[idx] = name
			if err := s.taxonomyRepo.UpdatePathNames(ctx, tx, d.ID, names); err != nil {
				return err
			}
		}
		return s.questionRepo.UpdateTaxonomyName(ctx, tx, node.Type, id, name)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	node.Name = name
	s.log.Info("taxonomy node renamed", "id", id, "name", name)
	return node, nil
}

// Delete refuses to remove a node that still has children or questions
// pointing at it; deletions never cascade.
func (s *taxonomyService) Delete(ctx context.Context, id uuid.UUID) error {
	node, err := s.taxonomyRepo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if node == nil {
		return apierr.NotFound("taxonomy node %s not found", id)
	}
	children, err := s.taxonomyRepo.CountChildren(ctx, nil, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return apierr.IntegrityViolation("taxonomy node %s still has %d children", id, children)
	}
	refs, err := s.questionRepo.CountReferencingTaxonomy(ctx, nil, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return apierr.IntegrityViolation("taxonomy node %s is referenced by %d questions", id, refs)
	}
	if err := s.taxonomyRepo.Delete(ctx, nil, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	s.log.Info("taxonomy node deleted", "id", id)
	return nil
}
