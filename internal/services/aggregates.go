package services

import (
	"fmt"
	"time"

	"github.com/ortoqbank/ortoqbank-backend/internal/aggregate"
	"github.com/ortoqbank/ortoqbank-backend/internal/types"
)

// Source names the write path dispatches on. They match the table names so a
// log line reads the same as the schema.
const (
	SourceQuestions = "question"
	SourceStats     = "user_question_stat"
	SourceBookmarks = "user_bookmark"
)

// questionItem keys a question by creation time so the global tree can also
// answer "how many questions existed before T" with a sort-key range. The
// timestamp is truncated to microseconds: postgres stores no finer, and the
// insert (in-memory row) and remove (row read back from the store) sides of a
// question's lifetime must produce the same key.
func questionItem(q *types.Question) aggregate.Item {
	return aggregate.Item{
		SortKey: q.CreatedAt.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano),
		ItemKey: q.ID.String(),
	}
}

func interactionItem(questionID string) aggregate.Item {
	return aggregate.Item{SortKey: questionID, ItemKey: questionID}
}

// RegisterAggregateListeners binds the named trees to their source tables.
// Called once during wiring, before the write path sees any traffic.
func RegisterAggregateListeners(wp *aggregate.WritePath, reg *aggregate.Registry) {
	total := reg.Tree(aggregate.TreeQuestionsTotal)
	answered := reg.Tree(aggregate.TreeAnsweredByUser)
	incorrect := reg.Tree(aggregate.TreeIncorrectByUser)
	bookmarked := reg.Tree(aggregate.TreeBookmarkedByUser)

	wp.Register(SourceQuestions, aggregate.Typed(questionListener(total)))
	wp.Register(SourceStats, aggregate.Typed(statListener(answered, incorrect)))
	wp.Register(SourceBookmarks, aggregate.Typed(bookmarkListener(bookmarked)))
}

// questionListener tracks membership of the global live-question count: a
// question is in the tree iff it exists and is not archived.
func questionListener(total *aggregate.Tree) func(op aggregate.Op, oldRow, row *types.Question) ([]aggregate.Delta, error) {
	return func(op aggregate.Op, oldRow, row *types.Question) ([]aggregate.Delta, error) {
		liveBefore := oldRow != nil && !oldRow.Archived
		liveAfter := row != nil && !row.Archived
		switch {
		case !liveBefore && liveAfter:
			return []aggregate.Delta{aggregate.Insert(total, aggregate.GlobalNamespace, questionItem(row))}, nil
		case liveBefore && !liveAfter:
			return []aggregate.Delta{aggregate.Remove(total, aggregate.GlobalNamespace, questionItem(oldRow))}, nil
		}
		return nil, nil
	}
}

// statListener keeps the answered and incorrect trees in step with the stat
// row. A flip of is_incorrect moves exactly one unit in the incorrect tree.
func statListener(answered, incorrect *aggregate.Tree) func(op aggregate.Op, oldRow, row *types.UserQuestionStat) ([]aggregate.Delta, error) {
	return func(op aggregate.Op, oldRow, row *types.UserQuestionStat) ([]aggregate.Delta, error) {
		ref := row
		if ref == nil {
			ref = oldRow
		}
		if ref == nil {
			return nil, nil
		}
		if row != nil && row.IsIncorrect && !row.HasAnswered {
			return nil, fmt.Errorf("stat row %s: is_incorrect without has_answered", row.ID)
		}

		ns := aggregate.UserNamespace(ref.UserID)
		it := interactionItem(ref.QuestionID.String())

		var deltas []aggregate.Delta
		ansBefore := oldRow != nil && oldRow.HasAnswered
		ansAfter := row != nil && row.HasAnswered
		if !ansBefore && ansAfter {
			deltas = append(deltas, aggregate.Insert(answered, ns, it))
		} else if ansBefore && !ansAfter {
			deltas = append(deltas, aggregate.Remove(answered, ns, it))
		}

		incBefore := oldRow != nil && oldRow.IsIncorrect
		incAfter := row != nil && row.IsIncorrect
		if !incBefore && incAfter {
			deltas = append(deltas, aggregate.Insert(incorrect, ns, it))
		} else if incBefore && !incAfter {
			deltas = append(deltas, aggregate.Remove(incorrect, ns, it))
		}
		return deltas, nil
	}
}

func bookmarkListener(bookmarked *aggregate.Tree) func(op aggregate.Op, oldRow, row *types.UserBookmark) ([]aggregate.Delta, error) {
	return func(op aggregate.Op, oldRow, row *types.UserBookmark) ([]aggregate.Delta, error) {
		switch op {
		case aggregate.OpCreate:
			if row == nil {
				return nil, fmt.Errorf("bookmark create event without row")
			}
			ns := aggregate.UserNamespace(row.UserID)
			return []aggregate.Delta{aggregate.Insert(bookmarked, ns, interactionItem(row.QuestionID.String()))}, nil
		case aggregate.OpDelete:
			if oldRow == nil {
				return nil, fmt.Errorf("bookmark delete event without old row")
			}
			ns := aggregate.UserNamespace(oldRow.UserID)
			return []aggregate.Delta{aggregate.Remove(bookmarked, ns, interactionItem(oldRow.QuestionID.String()))}, nil
		}
		return nil, nil
	}
}
