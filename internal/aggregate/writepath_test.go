package aggregate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/db"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

func newWritePath(t *testing.T) (*WritePath, *Registry) {
	t.Helper()
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	reg := NewRegistry(Config{MaxNodeSize: 4})
	return NewWritePath(gdb, logger.NewNop(), reg), reg
}

func bookmarkRow(userID uuid.UUID) *types.UserBookmark {
	return &types.UserBookmark{
		ID:         uuid.New(),
		UserID:     userID,
		QuestionID: uuid.New(),
		CreatedAt:  time.Now().UTC(),
	}
}

func bookmarkCount(tree *Tree, userID uuid.UUID) int {
	return tree.Count(UserNamespace(userID), Bounds{})
}

func TestWritePathCommitThenApply(t *testing.T) {
	wp, reg := newWritePath(t)
	tree := reg.Tree(TreeBookmarkedByUser)
	userID := uuid.New()

	wp.Register("user_bookmark", Typed(func(op Op, oldRow, row *types.UserBookmark) ([]Delta, error) {
		it := Item{SortKey: row.QuestionID.String(), ItemKey: row.QuestionID.String()}
		return []Delta{Insert(tree, UserNamespace(row.UserID), it)}, nil
	}))

	row := bookmarkRow(userID)
	err := wp.Write(context.Background(), func(tx *gorm.DB, emit *Emitter) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		emit.Emit(Event{Source: "user_bookmark", Op: OpCreate, Row: row})
		// The trees change only after the commit: a reader at this
		// point must not see the pending row.
		if got := tree.Count(UserNamespace(userID), Bounds{}); got != 0 {
			t.Errorf("count inside transaction = %d, want 0", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := bookmarkCount(tree, userID); got != 1 {
		t.Fatalf("count after commit = %d, want 1", got)
	}
}

func TestWritePathListenerErrorRollsBackRow(t *testing.T) {
	wp, reg := newWritePath(t)
	tree := reg.Tree(TreeBookmarkedByUser)
	userID := uuid.New()

	wp.Register("user_bookmark", Typed(func(op Op, oldRow, row *types.UserBookmark) ([]Delta, error) {
		return nil, fmt.Errorf("bad row")
	}))

	row := bookmarkRow(userID)
	err := wp.Write(context.Background(), func(tx *gorm.DB, emit *Emitter) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		emit.Emit(Event{Source: "user_bookmark", Op: OpCreate, Row: row})
		return nil
	})
	if !apierr.IsCode(err, apierr.CodeAggregateDrift) {
		t.Fatalf("Write: got %v, want aggregate_drift", err)
	}
	var n int64
	if err := wp.db.Model(&types.UserBookmark{}).Where("id = ?", row.ID).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if n != 0 {
		t.Fatalf("row survived a listener failure")
	}
	if got := bookmarkCount(tree, userID); got != 0 {
		t.Fatalf("count after rollback = %d, want 0", got)
	}
}

func TestWritePathApplyFailureKeepsCommittedRow(t *testing.T) {
	wp, reg := newWritePath(t)
	tree := reg.Tree(TreeBookmarkedByUser)
	userID := uuid.New()

	// A delta that cannot apply: removal of an item never inserted.
	wp.Register("user_bookmark", Typed(func(op Op, oldRow, row *types.UserBookmark) ([]Delta, error) {
		it := Item{SortKey: row.QuestionID.String(), ItemKey: row.QuestionID.String()}
		return []Delta{Remove(tree, UserNamespace(row.UserID), it)}, nil
	}))

	row := bookmarkRow(userID)
	err := wp.Write(context.Background(), func(tx *gorm.DB, emit *Emitter) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		emit.Emit(Event{Source: "user_bookmark", Op: OpCreate, Row: row})
		return nil
	})
	if !apierr.IsCode(err, apierr.CodeAggregateDrift) {
		t.Fatalf("Write: got %v, want aggregate_drift", err)
	}
	// The row committed; the caller learns the trees are stale, a rebuild
	// reconciles them.
	var n int64
	if err := wp.db.Model(&types.UserBookmark{}).Where("id = ?", row.ID).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if n != 1 {
		t.Fatalf("committed row missing after apply failure")
	}
	if got := bookmarkCount(tree, userID); got != 0 {
		t.Fatalf("count after failed apply = %d, want 0", got)
	}
}

func TestWritePathFnErrorLeavesTreesUntouched(t *testing.T) {
	wp, reg := newWritePath(t)
	tree := reg.Tree(TreeBookmarkedByUser)
	userID := uuid.New()

	wp.Register("user_bookmark", Typed(func(op Op, oldRow, row *types.UserBookmark) ([]Delta, error) {
		it := Item{SortKey: row.QuestionID.String(), ItemKey: row.QuestionID.String()}
		return []Delta{Insert(tree, UserNamespace(row.UserID), it)}, nil
	}))

	row := bookmarkRow(userID)
	err := wp.Write(context.Background(), func(tx *gorm.DB, emit *Emitter) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		emit.Emit(Event{Source: "user_bookmark", Op: OpCreate, Row: row})
		return fmt.Errorf("caller abort")
	})
	if err == nil {
		t.Fatal("Write succeeded, want caller error")
	}
	if got := bookmarkCount(tree, userID); got != 0 {
		t.Fatalf("count after aborted write = %d, want 0", got)
	}
}
