package aggregate

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrDuplicateItem = errors.New("aggregate: duplicate item")
	ErrItemNotFound  = errors.New("aggregate: item not found")
)

// Item is one entry in a tree. Entries within a namespace are ordered by
// SortKey, then ItemKey.
type Item struct {
	SortKey string
	ItemKey string
}

func (a Item) less(b Item) bool {
	if a.SortKey != b.SortKey {
		return a.SortKey < b.SortKey
	}
	return a.ItemKey < b.ItemKey
}

// Bounds is an optional half-open sort-key range [Lower, Upper). A nil side
// is unbounded; the zero value covers the whole namespace.
type Bounds struct {
	Lower *string
	Upper *string
}

type Config struct {
	// MaxNodeSize is the fan-out: a node splits once it holds more than
	// this many items. Clamped to a minimum of 4.
	MaxNodeSize int
	// LazyRoot lets the root hold up to twice MaxNodeSize before it
	// splits, trading balance for fewer root rewrites under write load.
	LazyRoot bool
}

const defaultMaxNodeSize = 16

type node struct {
	items    []Item
	children []*node // empty for leaves, otherwise len(items)+1
	count    int     // items in this whole subtree
}

func (n *node) leaf() bool { return len(n.children) == 0 }

func (n *node) computeCount() int {
	c := len(n.items)
	for _, ch := range n.children {
		c += ch.count
	}
	return c
}

// Tree is an order-statistics B-tree partitioned by namespace. Count is
// O(log n) per namespace and never consults the source table the tree
// mirrors; consistency with that table is the write path's job.
type Tree struct {
	mu  sync.RWMutex
	cfg Config
	ns  map[string]*node
}

func NewTree(cfg Config) *Tree {
	return &Tree{cfg: clampConfig(cfg), ns: make(map[string]*node)}
}

func clampConfig(cfg Config) Config {
	if cfg.MaxNodeSize == 0 {
		cfg.MaxNodeSize = defaultMaxNodeSize
	}
	if cfg.MaxNodeSize < 4 {
		cfg.MaxNodeSize = 4
	}
	return cfg
}

// Clear drops every node in every namespace and adopts the new config.
// Administrative use only; callers rebuild from the source table afterwards.
func (t *Tree) Clear(cfg Config) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = clampConfig(cfg)
	t.ns = make(map[string]*node)
}

func (t *Tree) Insert(namespace string, it Item) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	root := t.ns[namespace]
	if root == nil {
		root = &node{}
		t.ns[namespace] = root
	}

	rootLimit := t.cfg.MaxNodeSize
	if t.cfg.LazyRoot {
		rootLimit *= 2
	}
	if len(root.items) >= rootLimit {
		newRoot := &node{children: []*node{root}, count: root.count}
		t.splitChild(newRoot, 0)
		root = newRoot
		t.ns[namespace] = root
	}
	return t.insertNonFull(root, it)
}

// insertNonFull descends to a leaf, splitting any full child on the way down
// so a split never has to propagate back up.
func (t *Tree) insertNonFull(n *node, it Item) error {
	i := sort.Search(len(n.items), func(j int) bool { return !n.items[j].less(it) })
	if i < len(n.items) && n.items[i] == it {
		return ErrDuplicateItem
	}
	if n.leaf() {
		n.items = append(n.items, Item{})
		copy(n.items[i+1:], n.items[i:])
		n.items[i] = it
		n.count++
		return nil
	}
	if len(n.children[i].items) >= t.cfg.MaxNodeSize {
		t.splitChild(n, i)
		if n.items[i] == it {
			return ErrDuplicateItem
		}
		if n.items[i].less(it) {
			i++
		}
	}
	if err := t.insertNonFull(n.children[i], it); err != nil {
		return err
	}
	n.count++
	return nil
}

// splitChild splits parent.children[i] around its median, promoting the
// median into parent. Subtree counts are recomputed locally; parent.count is
// unchanged because no item leaves the subtree.
func (t *Tree) splitChild(parent *node, i int) {
	child := parent.children[i]
	mid := len(child.items) / 2
	median := child.items[mid]

	right := &node{items: append([]Item(nil), child.items[mid+1:]...)}
	if !child.leaf() {
		right.children = append([]*node(nil), child.children[mid+1:]...)
		child.children = child.children[:mid+1]
	}
	child.items = child.items[:mid]
	child.count = child.computeCount()
	right.count = right.computeCount()

	parent.items = append(parent.items, Item{})
	copy(parent.items[i+1:], parent.items[i:])
	parent.items[i] = median

	parent.children = append(parent.children, nil)
	copy(parent.children[i+2:], parent.children[i+1:])
	parent.children[i+1] = right
}

func (t *Tree) Delete(namespace string, it Item) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	root := t.ns[namespace]
	if root == nil {
		return ErrItemNotFound
	}
	if err := deleteItem(root, it); err != nil {
		return err
	}
	for len(root.items) == 0 && len(root.children) == 1 {
		root = root.children[0]
		t.ns[namespace] = root
	}
	if root.count == 0 {
		delete(t.ns, namespace)
	}
	return nil
}

// deleteItem removes it from the subtree. Nodes are not rebalanced on the
// way out; only subtree counts are maintained, which is all Count needs.
func deleteItem(n *node, it Item) error {
	i := sort.Search(len(n.items), func(j int) bool { return !n.items[j].less(it) })
	if i < len(n.items) && n.items[i] == it {
		if n.leaf() {
			n.items = append(n.items[:i], n.items[i+1:]...)
			n.count--
			return nil
		}
		left, right := n.children[i], n.children[i+1]
		switch {
		case left.count > 0:
			pred := maxItem(left)
			n.items[i] = pred
			if err := deleteItem(left, pred); err != nil {
				return err
			}
		case right.count > 0:
			succ := minItem(right)
			n.items[i] = succ
			if err := deleteItem(right, succ); err != nil {
				return err
			}
		default:
			// Both neighbors drained; drop the separator and one of
			// the empty leaves beside it.
			n.items = append(n.items[:i], n.items[i+1:]...)
			n.children = append(n.children[:i+1], n.children[i+2:]...)
		}
		n.count--
		return nil
	}
	if n.leaf() {
		return ErrItemNotFound
	}
	if err := deleteItem(n.children[i], it); err != nil {
		return err
	}
	n.count--
	return nil
}

// maxItem returns the largest item in a subtree with count > 0. Internal
// nodes always hold at least one item, so the fallback to n.items is safe
// when the rightmost child has drained.
func maxItem(n *node) Item {
	for {
		if n.leaf() {
			return n.items[len(n.items)-1]
		}
		last := n.children[len(n.children)-1]
		if last.count == 0 {
			return n.items[len(n.items)-1]
		}
		n = last
	}
}

func minItem(n *node) Item {
	for {
		if n.leaf() {
			return n.items[0]
		}
		first := n.children[0]
		if first.count == 0 {
			return n.items[0]
		}
		n = first
	}
}

// Count returns the number of items in the namespace whose sort key falls in
// bounds. Zero-value bounds count the whole namespace.
func (t *Tree) Count(namespace string, b Bounds) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	root := t.ns[namespace]
	if root == nil {
		return 0
	}
	if b.Lower == nil && b.Upper == nil {
		return root.count
	}
	upper := root.count
	if b.Upper != nil {
		upper = countBefore(root, *b.Upper)
	}
	lower := 0
	if b.Lower != nil {
		lower = countBefore(root, *b.Lower)
	}
	if upper < lower {
		return 0
	}
	return upper - lower
}

// countBefore counts items with sort key strictly below key, descending one
// boundary child per level.
func countBefore(n *node, key string) int {
	total := 0
	for n != nil {
		i := sort.Search(len(n.items), func(j int) bool { return n.items[j].SortKey >= key })
		total += i
		if n.leaf() {
			return total
		}
		for j := 0; j < i; j++ {
			total += n.children[j].count
		}
		n = n.children[i]
	}
	return total
}

// Namespaces returns the namespaces currently holding at least one item.
func (t *Tree) Namespaces() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.ns))
	for ns := range t.ns {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}
