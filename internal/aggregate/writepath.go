package aggregate

import (
	"context"

	"gorm.io/gorm"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/apierr"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
)

// Emitter collects the row events a write-path transaction produces.
type Emitter struct {
	events []Event
}

func (e *Emitter) Emit(ev Event) {
	e.events = append(e.events, ev)
}

// WritePath is the single mutation path for every table that feeds an
// aggregate tree. It runs the row writes and the derived tree deltas as one
// unit: a listener failure rolls the row writes back, and the trees are only
// touched once the transaction has committed, so readers never see a count
// for an uncommitted row. Writing to a source table around this path breaks
// the count invariant.
type WritePath struct {
	db        *gorm.DB
	log       *logger.Logger
	reg       *Registry
	listeners map[string][]Listener
}

func NewWritePath(db *gorm.DB, log *logger.Logger, reg *Registry) *WritePath {
	return &WritePath{
		db:        db,
		log:       log.With("component", "WritePath"),
		reg:       reg,
		listeners: make(map[string][]Listener),
	}
}

// Register attaches a listener to a source table name. Registration happens
// once during wiring, before any Write call.
func (w *WritePath) Register(source string, l Listener) {
	w.listeners[source] = append(w.listeners[source], l)
}

// Write runs fn inside a database transaction, feeding every emitted event
// through the registered listeners while the transaction is still open, so a
// listener error rolls the row writes back. The collected deltas hit the
// trees only after the commit, still under the registry lock, which keeps
// concurrent Count readers from ever observing an uncommitted row.
func (w *WritePath) Write(ctx context.Context, fn func(tx *gorm.DB, emit *Emitter) error) error {
	w.reg.mu.Lock()
	defer w.reg.mu.Unlock()

	var deltas []Delta
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		em := &Emitter{}
		if err := fn(tx, em); err != nil {
			return err
		}
		for _, ev := range em.events {
			for _, l := range w.listeners[ev.Source] {
				ds, lerr := l(ev)
				if lerr != nil {
					w.log.Error("aggregate listener failed, aborting write", "source", ev.Source, "op", ev.Op, "error", lerr)
					return apierr.AggregateDrift(lerr)
				}
				deltas = append(deltas, ds...)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if aerr := Apply(deltas); aerr != nil {
		// The rows are committed; the trees are stale until the next
		// rebuild. Apply has already undone its partial batch.
		w.log.Error("aggregate delta apply failed after commit", "error", aerr)
		return apierr.AggregateDrift(aerr)
	}
	return nil
}
