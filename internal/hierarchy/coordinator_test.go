package hierarchy

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
	"github.com/aleksandr-bogdanov/whendoist/internal/taskcache"
)

type setCall struct {
	taskID uint
	parent *uint
}

// fakeStore mirrors confirmed moves into its own task list, the way the
// real store would, so a post-confirmation refresh returns the new truth.
type fakeStore struct {
	tasks    []model.Task
	fetches  int
	sets     []setCall
	fetchErr error
	setErr   error
	onSet    func(*fakeStore)
}

func (f *fakeStore) Tasks(ctx context.Context) ([]model.Task, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return model.CloneTasks(f.tasks), nil
}

func (f *fakeStore) SetParent(ctx context.Context, taskID uint, parentID *uint) error {
	f.sets = append(f.sets, setCall{taskID: taskID, parent: parentID})
	if f.setErr != nil {
		return f.setErr
	}
	f.tasks = applyMove(model.CloneTasks(f.tasks), taskID, parentID)
	if f.onSet != nil {
		f.onSet(f)
	}
	return nil
}

func fixture() []model.Task {
	return []model.Task{
		{ID: 1, UserID: 7, Title: "release", Subtasks: []model.Subtask{{ID: 4, Title: "changelog", Position: 1}}},
		{ID: 2, UserID: 7, Title: "quarterly review"},
		{ID: 3, UserID: 7, Title: "inbox zero"},
	}
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeStore, *taskcache.Cache) {
	t.Helper()
	store := &fakeStore{tasks: fixture()}
	cache := taskcache.New()
	return NewCoordinator(store, cache), store, cache
}

func uintPtr(v uint) *uint { return &v }

func mustView(t *testing.T, cache *taskcache.Cache) []model.Task {
	t.Helper()
	view, ok := cache.Get()
	if !ok {
		t.Fatal("cache is cold")
	}
	return view
}

func topByID(t *testing.T, view []model.Task, id uint) model.Task {
	t.Helper()
	if i, ok := topIndex(view, id); ok {
		return view[i]
	}
	t.Fatalf("task %d not at top level: %+v", id, view)
	return model.Task{}
}

func TestReparentNestsUnderTarget(t *testing.T) {
	coord, store, cache := newTestCoordinator(t)

	res := coord.Reparent(context.Background(), 2, uintPtr(1))

	if res.Outcome != OutcomeConfirmed || res.Err != nil {
		t.Fatalf("outcome %s, err %v", res.Outcome, res.Err)
	}
	if res.Previous != nil {
		t.Errorf("previous parent = %v, want nil for a top-level task", *res.Previous)
	}
	if want := []setCall{{taskID: 2, parent: uintPtr(1)}}; !reflect.DeepEqual(store.sets, want) {
		t.Errorf("store calls = %+v, want %+v", store.sets, want)
	}

	view := mustView(t, cache)
	if _, ok := topIndex(view, 2); ok {
		t.Error("moved task still at top level")
	}
	parent := topByID(t, view, 1)
	last := parent.Subtasks[len(parent.Subtasks)-1]
	if last.ID != 2 || last.Position != model.TrailingPosition {
		t.Errorf("moved task not appended as trailing child: %+v", parent.Subtasks)
	}
}

func TestReparentPromotesToTopLevel(t *testing.T) {
	coord, store, cache := newTestCoordinator(t)

	res := coord.Reparent(context.Background(), 4, nil)

	if res.Outcome != OutcomeConfirmed || res.Err != nil {
		t.Fatalf("outcome %s, err %v", res.Outcome, res.Err)
	}
	if res.Previous == nil || *res.Previous != 1 {
		t.Errorf("previous parent = %v, want 1", res.Previous)
	}

	view := mustView(t, cache)
	promoted := topByID(t, view, 4)
	if promoted.ParentID != nil || promoted.Title != "changelog" {
		t.Errorf("promoted task malformed: %+v", promoted)
	}
	if len(topByID(t, view, 1).Subtasks) != 0 {
		t.Error("old parent still lists the promoted task")
	}
	if want := []setCall{{taskID: 4, parent: nil}}; !reflect.DeepEqual(store.sets, want) {
		t.Errorf("store calls = %+v, want %+v", store.sets, want)
	}
}

func TestReparentNoop(t *testing.T) {
	coord, store, cache := newTestCoordinator(t)

	cases := []struct {
		name   string
		taskID uint
		parent *uint
	}{
		{"subtask to its own parent", 4, uintPtr(1)},
		{"top-level task to top level", 2, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := mustViewOrSeed(t, coord, cache)
			res := coord.Reparent(context.Background(), tc.taskID, tc.parent)
			if res.Outcome != OutcomeNoop || res.Err != nil {
				t.Fatalf("outcome %s, err %v", res.Outcome, res.Err)
			}
			if len(store.sets) != 0 {
				t.Errorf("no-op issued store calls: %+v", store.sets)
			}
			if after := mustView(t, cache); !reflect.DeepEqual(before, after) {
				t.Error("no-op changed the view")
			}
		})
	}
}

// mustViewOrSeed warms the cache through the coordinator's own seed path.
func mustViewOrSeed(t *testing.T, coord *Coordinator, cache *taskcache.Cache) []model.Task {
	t.Helper()
	if view, ok := cache.Get(); ok {
		return view
	}
	if _, err := coord.view(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return mustView(t, cache)
}

func TestReparentRejections(t *testing.T) {
	cases := []struct {
		name    string
		taskID  uint
		parent  *uint
		wantErr error
	}{
		{"unknown task", 99, uintPtr(1), ErrTaskNotFound},
		{"unknown parent", 2, uintPtr(99), ErrParentNotFound},
		{"subtask as parent", 2, uintPtr(4), ErrParentNotFound},
		{"task under itself", 1, uintPtr(1), ErrWouldCycle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			coord, store, cache := newTestCoordinator(t)
			before := mustViewOrSeed(t, coord, cache)

			res := coord.Reparent(context.Background(), tc.taskID, tc.parent)

			if res.Outcome != OutcomeRejected {
				t.Fatalf("outcome = %s, want rejected", res.Outcome)
			}
			if !errors.Is(res.Err, tc.wantErr) {
				t.Errorf("err = %v, want %v", res.Err, tc.wantErr)
			}
			if len(store.sets) != 0 {
				t.Errorf("rejected move issued store calls: %+v", store.sets)
			}
			if after := mustView(t, cache); !reflect.DeepEqual(before, after) {
				t.Error("rejected move changed the view")
			}
		})
	}
}

func TestReparentRejectsAncestorChain(t *testing.T) {
	coord, store, cache := newTestCoordinator(t)
	// A view mid-sync can show a child at top level while its ParentID
	// still points at the ancestor; the cycle walk must follow it.
	store.tasks = []model.Task{
		{ID: 1, UserID: 7, Title: "epic"},
		{ID: 2, UserID: 7, Title: "story", ParentID: uintPtr(1)},
	}
	cache.Invalidate()

	res := coord.Reparent(context.Background(), 1, uintPtr(2))

	if res.Outcome != OutcomeRejected || !errors.Is(res.Err, ErrWouldCycle) {
		t.Fatalf("outcome %s, err %v; want rejected cycle", res.Outcome, res.Err)
	}
	if len(store.sets) != 0 {
		t.Errorf("cycle issued store calls: %+v", store.sets)
	}
}

func TestReparentRevertsOnConfirmFailure(t *testing.T) {
	coord, store, cache := newTestCoordinator(t)
	before := mustViewOrSeed(t, coord, cache)

	errBoom := errors.New("parent change refused")
	store.setErr = errBoom

	res := coord.Reparent(context.Background(), 2, uintPtr(1))

	if res.Outcome != OutcomeReverted {
		t.Fatalf("outcome = %s, want reverted", res.Outcome)
	}
	if !errors.Is(res.Err, errBoom) {
		t.Errorf("err = %v, want wrapped %v", res.Err, errBoom)
	}
	if after := mustView(t, cache); !reflect.DeepEqual(before, after) {
		t.Errorf("view not restored exactly:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestConfirmRefreshesFromStore(t *testing.T) {
	coord, store, cache := newTestCoordinator(t)
	store.onSet = func(f *fakeStore) {
		f.tasks = append(f.tasks, model.Task{ID: 99, UserID: 7, Title: "added concurrently"})
	}

	res := coord.Reparent(context.Background(), 2, uintPtr(1))
	if res.Outcome != OutcomeConfirmed {
		t.Fatalf("outcome = %s", res.Outcome)
	}

	view := mustView(t, cache)
	if _, ok := topIndex(view, 99); !ok {
		t.Error("refresh did not pick up the store's concurrent change")
	}
}

func TestColdCacheSeedsOnce(t *testing.T) {
	coord, store, _ := newTestCoordinator(t)

	res := coord.Reparent(context.Background(), 99, uintPtr(1))
	if res.Outcome != OutcomeRejected {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if store.fetches != 1 {
		t.Errorf("cold reject fetched %d times, want 1", store.fetches)
	}

	coord.Reparent(context.Background(), 99, uintPtr(1))
	if store.fetches != 1 {
		t.Errorf("warm reject fetched again: %d", store.fetches)
	}

	if res := coord.Reparent(context.Background(), 2, uintPtr(1)); res.Outcome != OutcomeConfirmed {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if store.fetches != 2 {
		t.Errorf("confirmed move fetched %d times total, want 2 (seed + refresh)", store.fetches)
	}
}

func TestUndoRestoresPreviousParent(t *testing.T) {
	coord, store, cache := newTestCoordinator(t)

	moved := coord.Reparent(context.Background(), 4, uintPtr(2))
	if moved.Outcome != OutcomeConfirmed || moved.Previous == nil || *moved.Previous != 1 {
		t.Fatalf("setup move: %+v", moved)
	}

	undone := coord.Undo(context.Background(), 4, moved.Previous)
	if undone.Outcome != OutcomeConfirmed || undone.Err != nil {
		t.Fatalf("undo: outcome %s, err %v", undone.Outcome, undone.Err)
	}

	view := mustView(t, cache)
	parent := topByID(t, view, 1)
	if len(parent.Subtasks) != 1 || parent.Subtasks[0].ID != 4 {
		t.Errorf("task not back under its old parent: %+v", parent.Subtasks)
	}
	want := []setCall{{taskID: 4, parent: uintPtr(2)}, {taskID: 4, parent: uintPtr(1)}}
	if !reflect.DeepEqual(store.sets, want) {
		t.Errorf("store calls = %+v, want %+v", store.sets, want)
	}
}

func TestUndoRefreshesEvenOnFailure(t *testing.T) {
	coord, store, cache := newTestCoordinator(t)

	moved := coord.Reparent(context.Background(), 4, uintPtr(2))
	if moved.Outcome != OutcomeConfirmed {
		t.Fatalf("setup move: %+v", moved)
	}
	fetchesBefore := store.fetches
	store.setErr = errors.New("undo refused")

	res := coord.Undo(context.Background(), 4, moved.Previous)

	if res.Outcome != OutcomeReverted || res.Err == nil {
		t.Fatalf("outcome %s, err %v; want reverted with error", res.Outcome, res.Err)
	}
	if store.fetches <= fetchesBefore {
		t.Error("failed undo did not refresh from the store")
	}
	// The store still has the task under its post-move parent; the view
	// must agree after the forced refresh.
	view := mustView(t, cache)
	target := topByID(t, view, 2)
	if len(target.Subtasks) != 1 || target.Subtasks[0].ID != 4 {
		t.Errorf("view disagrees with the store after failed undo: %+v", target.Subtasks)
	}
}
