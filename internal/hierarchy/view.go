package hierarchy

import "github.com/aleksandr-bogdanov/whendoist/internal/model"

// The cached view is two levels deep: top-level tasks carrying denormalized
// child summaries. A task therefore lives either in the top-level slice or
// inside exactly one parent's Subtasks, never both.

func topIndex(view []model.Task, id uint) (int, bool) {
	for i := range view {
		if view[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func subIndex(view []model.Task, id uint) (parent, sub int, ok bool) {
	for i := range view {
		for j := range view[i].Subtasks {
			if view[i].Subtasks[j].ID == id {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// currentParent reports where the task sits in the view: nil for top level,
// the owner's id for a subtask. ok is false when the task is not in the
// view at all.
func currentParent(view []model.Task, id uint) (*uint, bool) {
	if _, ok := topIndex(view, id); ok {
		return nil, true
	}
	if p, _, ok := subIndex(view, id); ok {
		pid := view[p].ID
		return &pid, true
	}
	return nil, false
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// createsCycle reports whether putting the task under parentID would make
// it its own ancestor. The parent chain is walked link by link rather than
// depth-bounded; a visited set keeps a corrupt view from looping.
func createsCycle(view []model.Task, taskID, parentID uint) bool {
	parentOf := make(map[uint]*uint, len(view))
	for i := range view {
		parentOf[view[i].ID] = view[i].ParentID
		for _, s := range view[i].Subtasks {
			pid := view[i].ID
			parentOf[s.ID] = &pid
		}
	}

	seen := make(map[uint]bool)
	for cur := &parentID; cur != nil; cur = parentOf[*cur] {
		if *cur == taskID {
			return true
		}
		if seen[*cur] {
			return false
		}
		seen[*cur] = true
	}
	return false
}

// applyMove rewrites the view for a validated parent change: detach the
// task from wherever it sits, then attach it under the new parent as a
// trailing child summary, or back at top level when promoting. A summary
// carries no children, so a moved parent's own subtasks drop out of the
// view until the post-confirmation refresh fills them back in.
func applyMove(view []model.Task, taskID uint, newParent *uint) []model.Task {
	var (
		moved model.Task
		found bool
	)
	if i, ok := topIndex(view, taskID); ok {
		moved, found = view[i], true
		view = append(view[:i], view[i+1:]...)
	} else if p, s, ok := subIndex(view, taskID); ok {
		moved, found = view[p].Subtasks[s].AsTask(view[p].UserID), true
		view[p].Subtasks = append(view[p].Subtasks[:s], view[p].Subtasks[s+1:]...)
	}
	if !found {
		return view
	}

	if newParent == nil {
		moved.ParentID = nil
		moved.Subtasks = nil
		moved.Position = model.TrailingPosition
		return append(view, moved)
	}

	pid := *newParent
	moved.ParentID = &pid
	if i, ok := topIndex(view, pid); ok {
		sum := model.SummaryOf(moved)
		sum.Position = model.TrailingPosition
		view[i].Subtasks = append(view[i].Subtasks, sum)
	}
	return view
}
