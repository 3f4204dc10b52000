package aggregate

import (
	"fmt"
	"math/rand"
	"testing"
)

func item(sortKey, itemKey string) Item {
	return Item{SortKey: sortKey, ItemKey: itemKey}
}

func strptr(s string) *string { return &s }

func TestTreeInsertCountDelete(t *testing.T) {
	tr := NewTree(Config{MaxNodeSize: 4})

	for i := 0; i < 100; i++ {
		it := item(fmt.Sprintf("k%03d", i), fmt.Sprintf("id%03d", i))
		if err := tr.Insert("ns", it); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if got := tr.Count("ns", Bounds{}); got != 100 {
		t.Fatalf("count after inserts = %d, want 100", got)
	}

	if err := tr.Insert("ns", item("k050", "id050")); err != ErrDuplicateItem {
		t.Fatalf("duplicate insert err = %v, want ErrDuplicateItem", err)
	}
	if got := tr.Count("ns", Bounds{}); got != 100 {
		t.Fatalf("count after duplicate insert = %d, want 100", got)
	}

	for i := 0; i < 40; i++ {
		it := item(fmt.Sprintf("k%03d", i), fmt.Sprintf("id%03d", i))
		if err := tr.Delete("ns", it); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}
	if got := tr.Count("ns", Bounds{}); got != 60 {
		t.Fatalf("count after deletes = %d, want 60", got)
	}

	if err := tr.Delete("ns", item("k000", "id000")); err != ErrItemNotFound {
		t.Fatalf("delete missing err = %v, want ErrItemNotFound", err)
	}
}

func TestTreeCountBounds(t *testing.T) {
	tr := NewTree(Config{MaxNodeSize: 4})
	keys := []string{"a", "b", "b", "c", "d", "e"}
	for i, k := range keys {
		if err := tr.Insert("ns", item(k, fmt.Sprintf("id%d", i))); err != nil {
			t.Fatalf("insert %q: %v", k, err)
		}
	}

	cases := []struct {
		name   string
		bounds Bounds
		want   int
	}{
		{name: "all", bounds: Bounds{}, want: 6},
		{name: "lower_inclusive", bounds: Bounds{Lower: strptr("b")}, want: 5},
		{name: "upper_exclusive", bounds: Bounds{Upper: strptr("b")}, want: 1},
		{name: "half_open_range", bounds: Bounds{Lower: strptr("b"), Upper: strptr("d")}, want: 3},
		{name: "empty_range", bounds: Bounds{Lower: strptr("x"), Upper: strptr("y")}, want: 0},
		{name: "inverted_range", bounds: Bounds{Lower: strptr("d"), Upper: strptr("b")}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tr.Count("ns", tc.bounds); got != tc.want {
				t.Fatalf("Count(%v) = %d, want %d", tc.bounds, got, tc.want)
			}
		})
	}
}

func TestTreeNamespacesIsolated(t *testing.T) {
	tr := NewTree(Config{MaxNodeSize: 4})
	for i := 0; i < 10; i++ {
		if err := tr.Insert("u1", item("q", fmt.Sprintf("id%d", i))); err != nil {
			t.Fatalf("insert u1: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := tr.Insert("u2", item("q", fmt.Sprintf("id%d", i))); err != nil {
			t.Fatalf("insert u2: %v", err)
		}
	}
	if got := tr.Count("u1", Bounds{}); got != 10 {
		t.Fatalf("u1 count = %d, want 10", got)
	}
	if got := tr.Count("u2", Bounds{}); got != 3 {
		t.Fatalf("u2 count = %d, want 3", got)
	}
	if got := tr.Count("u3", Bounds{}); got != 0 {
		t.Fatalf("u3 count = %d, want 0", got)
	}
}

func TestTreeRandomizedAgainstReference(t *testing.T) {
	configs := []Config{
		{MaxNodeSize: 4},
		{MaxNodeSize: 4, LazyRoot: true},
		{MaxNodeSize: 16},
	}
	for _, cfg := range configs {
		name := fmt.Sprintf("max%d_lazy%v", cfg.MaxNodeSize, cfg.LazyRoot)
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			tr := NewTree(cfg)
			ref := map[string]map[Item]bool{}

			namespaces := []string{"n0", "n1", "n2"}
			for step := 0; step < 5000; step++ {
				ns := namespaces[rng.Intn(len(namespaces))]
				it := item(
					fmt.Sprintf("s%02d", rng.Intn(40)),
					fmt.Sprintf("q%03d", rng.Intn(400)),
				)
				if ref[ns] == nil {
					ref[ns] = map[Item]bool{}
				}
				if rng.Intn(3) == 0 {
					err := tr.Delete(ns, it)
					if ref[ns][it] {
						if err != nil {
							t.Fatalf("step %d: delete existing: %v", step, err)
						}
						delete(ref[ns], it)
					} else if err != ErrItemNotFound {
						t.Fatalf("step %d: delete missing err = %v", step, err)
					}
				} else {
					err := tr.Insert(ns, it)
					if ref[ns][it] {
						if err != ErrDuplicateItem {
							t.Fatalf("step %d: duplicate insert err = %v", step, err)
						}
					} else {
						if err != nil {
							t.Fatalf("step %d: insert: %v", step, err)
						}
						ref[ns][it] = true
					}
				}

				if step%500 == 0 || step == 4999 {
					for _, n := range namespaces {
						if got, want := tr.Count(n, Bounds{}), len(ref[n]); got != want {
							t.Fatalf("step %d ns %s: count = %d, want %d", step, n, got, want)
						}
						lo, hi := "s05", "s25"
						want := 0
						for r := range ref[n] {
							if r.SortKey >= lo && r.SortKey < hi {
								want++
							}
						}
						if got := tr.Count(n, Bounds{Lower: &lo, Upper: &hi}); got != want {
							t.Fatalf("step %d ns %s: ranged count = %d, want %d", step, n, got, want)
						}
					}
				}
			}
		})
	}
}

func TestTreeClear(t *testing.T) {
	tr := NewTree(Config{MaxNodeSize: 4})
	for i := 0; i < 20; i++ {
		if err := tr.Insert("ns", item("k", fmt.Sprintf("id%d", i))); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	tr.Clear(Config{MaxNodeSize: 8, LazyRoot: true})
	if got := tr.Count("ns", Bounds{}); got != 0 {
		t.Fatalf("count after clear = %d, want 0", got)
	}
	if err := tr.Insert("ns", item("k", "id0")); err != nil {
		t.Fatalf("insert after clear: %v", err)
	}
	if got := tr.Count("ns", Bounds{}); got != 1 {
		t.Fatalf("count after reinsert = %d, want 1", got)
	}
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	tr := NewTree(Config{MaxNodeSize: 4})
	if err := tr.Insert("ns", item("k", "existing")); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	deltas := []Delta{
		Insert(tr, "ns", item("k", "a")),
		Insert(tr, "ns", item("k", "b")),
		// Duplicate of the seeded item: the batch must fail as a whole.
		Insert(tr, "ns", item("k", "existing")),
	}
	if err := Apply(deltas); err != ErrDuplicateItem {
		t.Fatalf("Apply err = %v, want ErrDuplicateItem", err)
	}
	if got := tr.Count("ns", Bounds{}); got != 1 {
		t.Fatalf("count after failed batch = %d, want 1", got)
	}
}
