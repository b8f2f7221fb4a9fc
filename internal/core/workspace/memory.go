package workspace

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/agenthands/blockvoice/internal/core/blocks"
	"github.com/agenthands/blockvoice/internal/core/model"
)

const (
	MinScale   = 0.5
	MaxScale   = 2.0
	ScaleSpeed = 1.2
)

// IDGenerator returns a fresh node id.
type IDGenerator func() string

func defaultID() string {
	return uuid.New().String()
}

// Workspace is an in-memory Graph. It is not safe for concurrent use; the
// owning session serializes access.
type Workspace struct {
	NewID IDGenerator

	nodes   map[string]*model.Node
	order   []string
	center  model.Position
	scale   float64
	history *History
	batch   int
	dirty   bool
}

type Option func(*Workspace)

func WithIDGenerator(gen IDGenerator) Option {
	return func(w *Workspace) { w.NewID = gen }
}

func WithHistoryLimit(n int) Option {
	return func(w *Workspace) { w.history = NewHistory(n) }
}

func New(opts ...Option) *Workspace {
	w := &Workspace{
		NewID:   defaultID,
		nodes:   make(map[string]*model.Node),
		scale:   1,
		history: NewHistory(defaultHistoryLimit),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.history.Save(w.Snapshot())
	return w
}

var _ Graph = (*Workspace)(nil)

// commit records the graph in history, or defers that to the end of the
// open batch.
func (w *Workspace) commit() {
	if w.batch > 0 {
		w.dirty = true
		return
	}
	w.history.Save(w.Snapshot())
}

// Begin opens a batch: mutations until the matching Commit form a single
// undo step. Batches nest.
func (w *Workspace) Begin() {
	w.batch++
}

// Commit closes a batch and records one history entry if anything changed.
func (w *Workspace) Commit() {
	if w.batch == 0 {
		return
	}
	w.batch--
	if w.batch == 0 && w.dirty {
		w.dirty = false
		w.history.Save(w.Snapshot())
	}
}

func (w *Workspace) NewNode(blockType string) (model.Node, error) {
	def, ok := blocks.Lookup(blockType)
	if !ok {
		return model.Node{}, fmt.Errorf("%w: %s", ErrUnknownBlockType, blockType)
	}
	n := &model.Node{
		ID:          w.NewID(),
		Type:        blockType,
		Fields:      def.DefaultFields(),
		Connections: def.ConnectionPoints(),
	}
	w.nodes[n.ID] = n
	w.order = append(w.order, n.ID)
	w.commit()
	return n.Clone(), nil
}

func (w *Workspace) Node(id string) (model.Node, bool) {
	n, ok := w.nodes[id]
	if !ok {
		return model.Node{}, false
	}
	return n.Clone(), true
}

func (w *Workspace) AllNodes() []model.Node {
	out := make([]model.Node, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.nodes[id].Clone())
	}
	return out
}

func (w *Workspace) TopLevelNodes() []model.Node {
	var out []model.Node
	for _, id := range w.order {
		if n := w.nodes[id]; n.IsTopLevel() {
			out = append(out, n.Clone())
		}
	}
	return out
}

func (w *Workspace) lookup(id string) (*model.Node, error) {
	n, ok := w.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n, nil
}

func point(n *model.Node, name string) (*model.ConnectionPoint, error) {
	for i := range n.Connections {
		if n.Connections[i].Name == name {
			return &n.Connections[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrPointNotFound, n.ID, name)
}

// children lists nodes plugged into n's input, next and statement points.
func (w *Workspace) children(n *model.Node) []string {
	var ids []string
	for _, c := range n.Connections {
		if c.IsParentSide() && c.Target != nil {
			ids = append(ids, c.Target.NodeID)
		}
	}
	return ids
}

// subtree returns id followed by all of its descendants.
func (w *Workspace) subtree(id string) []string {
	var out []string
	stack := []string{id}
	seen := map[string]bool{}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		if n, ok := w.nodes[cur]; ok {
			stack = append(stack, w.children(n)...)
		}
	}
	return out
}

func (w *Workspace) unplug(c *model.ConnectionPoint) {
	if c.Target == nil {
		return
	}
	if other, ok := w.nodes[c.Target.NodeID]; ok {
		if p, err := point(other, c.Target.Name); err == nil {
			p.Target = nil
		}
	}
	c.Target = nil
}

func (w *Workspace) DeleteNode(id string) (int, error) {
	n, err := w.lookup(id)
	if err != nil {
		return 0, err
	}
	for i := range n.Connections {
		if c := &n.Connections[i]; !c.IsParentSide() {
			w.unplug(c)
		}
	}
	doomed := w.subtree(id)
	gone := make(map[string]bool, len(doomed))
	for _, d := range doomed {
		gone[d] = true
		delete(w.nodes, d)
	}
	kept := w.order[:0]
	for _, o := range w.order {
		if !gone[o] {
			kept = append(kept, o)
		}
	}
	w.order = kept
	w.commit()
	return len(doomed), nil
}

func (w *Workspace) MoveNode(id string, dx, dy float64) (model.Position, error) {
	n, err := w.lookup(id)
	if err != nil {
		return model.Position{}, err
	}
	for _, d := range w.subtree(id) {
		c := w.nodes[d]
		c.Position = c.Position.Add(dx, dy)
	}
	w.commit()
	return n.Position, nil
}

func (w *Workspace) ConnectionPoints(id string) ([]model.ConnectionPoint, error) {
	n, err := w.lookup(id)
	if err != nil {
		return nil, err
	}
	return n.Clone().Connections, nil
}

// Connect binds point a to point b. The child side (output or previous)
// must not be an ancestor of the parent side.
func (w *Workspace) Connect(a, b model.ConnRef) error {
	if a.NodeID == b.NodeID {
		return fmt.Errorf("%w: cannot connect %s to itself", ErrIncompatible, a.NodeID)
	}
	na, err := w.lookup(a.NodeID)
	if err != nil {
		return err
	}
	nb, err := w.lookup(b.NodeID)
	if err != nil {
		return err
	}
	pa, err := point(na, a.Name)
	if err != nil {
		return err
	}
	pb, err := point(nb, b.Name)
	if err != nil {
		return err
	}
	if pa.Connected() || pb.Connected() {
		return ErrAlreadyConnected
	}
	if !pa.Compatible(*pb) {
		return fmt.Errorf("%w: %s.%s and %s.%s", ErrIncompatible, a.NodeID, a.Name, b.NodeID, b.Name)
	}

	child, parent := a.NodeID, b.NodeID
	if pa.IsParentSide() {
		child, parent = parent, child
	}
	for _, d := range w.subtree(child) {
		if d == parent {
			return fmt.Errorf("%w: would form a cycle", ErrIncompatible)
		}
	}

	pa.Target = &model.ConnRef{NodeID: b.NodeID, Name: b.Name}
	pb.Target = &model.ConnRef{NodeID: a.NodeID, Name: a.Name}
	w.commit()
	return nil
}

func (w *Workspace) Disconnect(id string) (int, error) {
	n, err := w.lookup(id)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range n.Connections {
		if n.Connections[i].Connected() {
			w.unplug(&n.Connections[i])
			count++
		}
	}
	if count > 0 {
		w.commit()
	}
	return count, nil
}

func (w *Workspace) SetField(id, field string, v model.Value) error {
	n, err := w.lookup(id)
	if err != nil {
		return err
	}
	if n.Fields == nil {
		n.Fields = make(map[string]model.Value)
	}
	n.Fields[field] = v
	w.commit()
	return nil
}

func (w *Workspace) ViewportCenter() model.Position {
	return w.center
}

// Zoom scales the viewport by ScaleSpeed, clamped to [MinScale, MaxScale].
func (w *Workspace) Zoom(in bool) float64 {
	if in {
		w.scale *= ScaleSpeed
	} else {
		w.scale /= ScaleSpeed
	}
	w.scale = min(max(w.scale, MinScale), MaxScale)
	return w.scale
}

func (w *Workspace) Scale() float64 {
	return w.scale
}

// ScrollCenter points the viewport at the middle of the nodes' bounding box.
func (w *Workspace) ScrollCenter() {
	if len(w.order) == 0 {
		w.center = model.Position{}
		return
	}
	first := w.nodes[w.order[0]].Position
	minP, maxP := first, first
	for _, id := range w.order[1:] {
		p := w.nodes[id].Position
		minP.X, minP.Y = min(minP.X, p.X), min(minP.Y, p.Y)
		maxP.X, maxP.Y = max(maxP.X, p.X), max(maxP.Y, p.Y)
	}
	w.center = model.Position{X: (minP.X + maxP.X) / 2, Y: (minP.Y + maxP.Y) / 2}
}

func (w *Workspace) Clear() int {
	n := len(w.order)
	w.nodes = make(map[string]*model.Node)
	w.order = nil
	w.commit()
	return n
}

func (w *Workspace) Undo() bool {
	w.flush()
	s, ok := w.history.Undo()
	if ok {
		w.load(s)
	}
	return ok
}

func (w *Workspace) Redo() bool {
	w.flush()
	s, ok := w.history.Redo()
	if ok {
		w.load(s)
	}
	return ok
}

// flush saves pending batch changes so undo starts from the current graph.
func (w *Workspace) flush() {
	if w.dirty {
		w.dirty = false
		w.history.Save(w.Snapshot())
	}
}

func (w *Workspace) Snapshot() model.Snapshot {
	return model.Snapshot{Nodes: w.AllNodes()}
}

// Restore replaces the graph with s and records it as a new history state.
func (w *Workspace) Restore(s model.Snapshot) {
	w.load(s)
	w.commit()
}

func (w *Workspace) load(s model.Snapshot) {
	w.nodes = make(map[string]*model.Node, len(s.Nodes))
	w.order = make([]string, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		c := n.Clone()
		w.nodes[c.ID] = &c
		w.order = append(w.order, c.ID)
	}
}
