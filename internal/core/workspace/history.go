package workspace

import "github.com/agenthands/blockvoice/internal/core/model"

const defaultHistoryLimit = 50

// History keeps a bounded list of graph snapshots for undo and redo.
type History struct {
	states  []model.Snapshot
	current int
	max     int
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = defaultHistoryLimit
	}
	return &History{
		states:  make([]model.Snapshot, 0, max),
		current: -1,
		max:     max,
	}
}

// Save records s as the newest state, dropping any redo tail.
func (h *History) Save(s model.Snapshot) {
	if h.current < len(h.states)-1 {
		h.states = h.states[:h.current+1]
	}
	h.states = append(h.states, s.Clone())
	if len(h.states) > h.max {
		h.states = h.states[1:]
	} else {
		h.current++
	}
}

func (h *History) CanUndo() bool {
	return h.current > 0
}

func (h *History) CanRedo() bool {
	return h.current < len(h.states)-1
}

func (h *History) Undo() (model.Snapshot, bool) {
	if !h.CanUndo() {
		return model.Snapshot{}, false
	}
	h.current--
	return h.states[h.current].Clone(), true
}

func (h *History) Redo() (model.Snapshot, bool) {
	if !h.CanRedo() {
		return model.Snapshot{}, false
	}
	h.current++
	return h.states[h.current].Clone(), true
}

// Stats returns the 1-based current position and the number of stored states.
func (h *History) Stats() (current, total int) {
	return h.current + 1, len(h.states)
}
