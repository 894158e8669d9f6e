// Package hierarchy applies parent changes to the cached task view
// optimistically and reconciles them with the authoritative store:
// snapshot, apply, then confirm or revert.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
)

// Store is the authoritative side of a mutation: fetch the current view,
// confirm a parent change.
type Store interface {
	Tasks(ctx context.Context) ([]model.Task, error)
	SetParent(ctx context.Context, taskID uint, parentID *uint) error
}

// Cache is the optimistic side: the user's dashboard view.
type Cache interface {
	Get() ([]model.Task, bool)
	Set(update func([]model.Task) []model.Task)
	Replace(tasks []model.Task)
	Invalidate()
}

// Outcome tells what became of one mutation attempt.
type Outcome string

const (
	// OutcomeNoop: the task already had the requested parent; nothing
	// moved and no request was issued.
	OutcomeNoop Outcome = "noop"
	// OutcomeRejected: the move never became a request — validation
	// failed or the view could not be loaded. The cache is untouched.
	OutcomeRejected Outcome = "rejected"
	// OutcomeConfirmed: the store accepted the change and the view was
	// refreshed from it.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeReverted: the store refused the change and the snapshot
	// was restored.
	OutcomeReverted Outcome = "reverted"
)

// Rejection reasons, matched with errors.Is.
var (
	ErrTaskNotFound   = errors.New("task is not in the current view")
	ErrParentNotFound = errors.New("target parent is not in the current view")
	ErrWouldCycle     = errors.New("move would make the task its own ancestor")
)

// Result reports one mutation attempt. Previous is the parent before the
// move and feeds the undo button.
type Result struct {
	Outcome  Outcome
	Previous *uint
	Err      error
}

// Coordinator runs the optimistic reparent protocol over an injected cache
// and store. It holds no state of its own: every attempt is a fresh
// snapshot/restore pair, so overlapping attempts on one view compose
// instead of interfering.
type Coordinator struct {
	store Store
	cache Cache
}

func NewCoordinator(store Store, cache Cache) *Coordinator {
	return &Coordinator{store: store, cache: cache}
}

// Reparent moves taskID under newParent (nil promotes to top level).
//
// The happy path: validate against the cached view, apply the move to the
// view synchronously, then confirm with the store. Confirmation failure
// restores the pre-move snapshot exactly and surfaces the error with no
// retry; success refreshes the view from the store so any discrepancy
// between the optimistic guess and the server's truth heals itself.
func (c *Coordinator) Reparent(ctx context.Context, taskID uint, newParent *uint) Result {
	view, err := c.view(ctx)
	if err != nil {
		return Result{Outcome: OutcomeRejected, Err: fmt.Errorf("load task view: %w", err)}
	}

	prev, ok := currentParent(view, taskID)
	if !ok {
		return Result{Outcome: OutcomeRejected, Err: ErrTaskNotFound}
	}
	if sameParent(prev, newParent) {
		return Result{Outcome: OutcomeNoop, Previous: prev}
	}
	if newParent != nil {
		if _, ok := topIndex(view, *newParent); !ok {
			return Result{Outcome: OutcomeRejected, Previous: prev, Err: ErrParentNotFound}
		}
		if createsCycle(view, taskID, *newParent) {
			return Result{Outcome: OutcomeRejected, Previous: prev, Err: ErrWouldCycle}
		}
	}

	// view is already a private deep copy; it doubles as the snapshot.
	snapshot := view
	c.cache.Set(func(cur []model.Task) []model.Task {
		return applyMove(cur, taskID, newParent)
	})

	if err := c.store.SetParent(ctx, taskID, newParent); err != nil {
		c.cache.Replace(snapshot)
		return Result{Outcome: OutcomeReverted, Previous: prev, Err: fmt.Errorf("confirm move: %w", err)}
	}

	c.refresh(ctx)
	return Result{Outcome: OutcomeConfirmed, Previous: prev}
}

// Undo re-enters the reparent path to put the task back under its previous
// parent. It refreshes the view from the store even when the correcting
// move fails: an undo is never assumed risk-free, and after a failed one
// the cached view cannot be trusted either way.
func (c *Coordinator) Undo(ctx context.Context, taskID uint, previousParent *uint) Result {
	res := c.Reparent(ctx, taskID, previousParent)
	if res.Err != nil {
		c.refresh(ctx)
	}
	return res
}

// view returns a private deep copy of the cached view, seeding the cache
// from the store when it is cold.
func (c *Coordinator) view(ctx context.Context) ([]model.Task, error) {
	if view, ok := c.cache.Get(); ok {
		return view, nil
	}
	tasks, err := c.store.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Replace(tasks)
	return model.CloneTasks(tasks), nil
}

func (c *Coordinator) refresh(ctx context.Context) {
	tasks, err := c.store.Tasks(ctx)
	if err != nil {
		log.Printf("refresh task view: %v", err)
		c.cache.Invalidate()
		return
	}
	c.cache.Replace(tasks)
}
