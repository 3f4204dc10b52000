package aggregate

import (
	"fmt"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is one row mutation observed by the write path. Row is the row after
// the mutation (nil for deletes), Old the row before it (nil for creates).
type Event struct {
	Source string
	Op     Op
	Row    interface{}
	Old    interface{}
}

type DeltaOp int

const (
	DeltaInsert DeltaOp = iota
	DeltaDelete
)

// Delta is a single pending tree mutation derived from an Event.
type Delta struct {
	Tree      *Tree
	Op        DeltaOp
	Namespace string
	Item      Item
}

func (d Delta) apply() error {
	switch d.Op {
	case DeltaInsert:
		return d.Tree.Insert(d.Namespace, d.Item)
	case DeltaDelete:
		return d.Tree.Delete(d.Namespace, d.Item)
	}
	return fmt.Errorf("aggregate: unknown delta op %d", d.Op)
}

func (d Delta) invert() Delta {
	inv := d
	if d.Op == DeltaInsert {
		inv.Op = DeltaDelete
	} else {
		inv.Op = DeltaInsert
	}
	return inv
}

// Insert and Remove are the delta constructors listeners use.
func Insert(t *Tree, namespace string, it Item) Delta {
	return Delta{Tree: t, Op: DeltaInsert, Namespace: namespace, Item: it}
}

func Remove(t *Tree, namespace string, it Item) Delta {
	return Delta{Tree: t, Op: DeltaDelete, Namespace: namespace, Item: it}
}

// Apply applies deltas in order. On failure the already-applied prefix is
// undone before returning, so a batch is all-or-nothing against the trees.
func Apply(deltas []Delta) error {
	for i, d := range deltas {
		if err := d.apply(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = deltas[j].invert().apply()
			}
			return err
		}
	}
	return nil
}

// Listener turns a row event into tree deltas. A listener error aborts the
// surrounding write.
type Listener func(ev Event) ([]Delta, error)

// Typed adapts a strongly-typed extractor into a Listener. A row of the
// wrong type is a listener failure, which rolls the triggering write back.
func Typed[R any](fn func(op Op, oldRow, newRow *R) ([]Delta, error)) Listener {
	return func(ev Event) ([]Delta, error) {
		var oldRow, newRow *R
		if ev.Row != nil {
			r, ok := ev.Row.(*R)
			if !ok {
				return nil, fmt.Errorf("aggregate: listener for %s got row type %T", ev.Source, ev.Row)
			}
			newRow = r
		}
		if ev.Old != nil {
			r, ok := ev.Old.(*R)
			if !ok {
				return nil, fmt.Errorf("aggregate: listener for %s got old row type %T", ev.Source, ev.Old)
			}
			oldRow = r
		}
		return fn(ev.Op, oldRow, newRow)
	}
}
