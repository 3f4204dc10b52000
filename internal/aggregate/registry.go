package aggregate

import (
	"sync"

	"github.com/google/uuid"
)

// Named trees the service maintains. questions_total is namespaced by the
// single global key; the per-user trees are namespaced by user id.
const (
	TreeQuestionsTotal   = "questions_total"
	TreeAnsweredByUser   = "answered_by_user"
	TreeIncorrectByUser  = "incorrect_by_user"
	TreeBookmarkedByUser = "bookmarked_by_user"
)

// GlobalNamespace partitions counts that are not scoped to a user.
const GlobalNamespace = "global"

// UserNamespace is the namespace key for a user's per-user counts.
func UserNamespace(userID uuid.UUID) string { return userID.String() }

// Registry holds the named tree handles, built once at startup and passed
// explicitly to whatever needs them. Its mutex serializes write-path batches
// so a batch's view of the trees cannot interleave with another batch.
type Registry struct {
	mu    sync.Mutex
	trees map[string]*Tree
}

func NewRegistry(cfg Config) *Registry {
	r := &Registry{trees: make(map[string]*Tree)}
	for _, name := range []string{
		TreeQuestionsTotal,
		TreeAnsweredByUser,
		TreeIncorrectByUser,
		TreeBookmarkedByUser,
	} {
		r.trees[name] = NewTree(cfg)
	}
	return r
}

func (r *Registry) Tree(name string) *Tree {
	return r.trees[name]
}

// ClearAll resets every tree to empty under the new config. Source-table
// writes should be paused for the rebuild window that follows.
func (r *Registry) ClearAll(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trees {
		t.Clear(cfg)
	}
}
