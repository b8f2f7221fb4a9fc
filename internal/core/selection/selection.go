// Package selection tracks which blocks voice commands act on. It holds node
// ids only and re-validates them against the graph on every access.
package selection

import (
	"fmt"
	"slices"

	"github.com/agenthands/blockvoice/internal/core/model"
)

// Enumerator is the read-only view of the graph the selection needs.
type Enumerator interface {
	AllNodes() []model.Node
	Node(id string) (model.Node, bool)
}

// Selection is a cursor over a graph. When group is non-empty it always
// contains primary.
type Selection struct {
	primary string
	group   []string
}

func New() *Selection {
	return &Selection{}
}

// validate drops references to nodes the graph no longer has. A stale
// primary clears the whole selection.
func (s *Selection) validate(g Enumerator) {
	if s.primary != "" {
		if _, ok := g.Node(s.primary); !ok {
			s.Clear()
			return
		}
	}
	s.group = slices.DeleteFunc(s.group, func(id string) bool {
		_, ok := g.Node(id)
		return !ok
	})
}

// Primary returns the selected node, if it still exists.
func (s *Selection) Primary(g Enumerator) (model.Node, bool) {
	s.validate(g)
	if s.primary == "" {
		return model.Node{}, false
	}
	return g.Node(s.primary)
}

// Group returns the highlighted nodes in the order they were added.
func (s *Selection) Group(g Enumerator) []model.Node {
	s.validate(g)
	out := make([]model.Node, 0, len(s.group))
	for _, id := range s.group {
		if n, ok := g.Node(id); ok {
			out = append(out, n)
		}
	}
	return out
}

func (s *Selection) PrimaryID() string {
	return s.primary
}

func (s *Selection) GroupIDs() []string {
	return slices.Clone(s.group)
}

func (s *Selection) Empty() bool {
	return s.primary == "" && len(s.group) == 0
}

// Set makes id the sole selected node.
func (s *Selection) Set(id string) {
	s.primary = id
	s.group = []string{id}
}

func (s *Selection) Clear() {
	s.primary = ""
	s.group = nil
}

func selected(n model.Node, what string) model.Result {
	r := model.Succeed(model.OutcomeNavigate, fmt.Sprintf("Selected %s: %s", what, n.DisplayName()))
	r.NodeID = n.ID
	return r
}

func noBlocks() model.Result {
	return model.Fail("There are no blocks in the workspace")
}

// SelectByPosition selects the first or last node in enumeration order.
func (s *Selection) SelectByPosition(g Enumerator, position string) model.Result {
	s.validate(g)
	nodes := g.AllNodes()
	if len(nodes) == 0 {
		return noBlocks()
	}
	n := nodes[0]
	if position == model.PositionLast {
		n = nodes[len(nodes)-1]
	}
	s.Set(n.ID)
	return selected(n, position+" block")
}

func indexOf(nodes []model.Node, id string) int {
	return slices.IndexFunc(nodes, func(n model.Node) bool { return n.ID == id })
}

func step(nodes []model.Node, from int, direction string) int {
	if direction == model.DirectionPrevious {
		return (from - 1 + len(nodes)) % len(nodes)
	}
	return (from + 1) % len(nodes)
}

// SelectAdjacent moves one step through the enumeration, wrapping at both ends.
// Without a selection it selects the first node.
func (s *Selection) SelectAdjacent(g Enumerator, direction string) model.Result {
	s.validate(g)
	nodes := g.AllNodes()
	if len(nodes) == 0 {
		return noBlocks()
	}
	i := indexOf(nodes, s.primary)
	if i < 0 {
		return s.SelectByPosition(g, model.PositionFirst)
	}
	n := nodes[step(nodes, i, direction)]
	s.Set(n.ID)
	return selected(n, direction+" block")
}

// SelectByType cycles through the nodes that share the selected node's type.
func (s *Selection) SelectByType(g Enumerator) model.Result {
	s.validate(g)
	nodes := g.AllNodes()
	if len(nodes) == 0 {
		return noBlocks()
	}
	cur, ok := g.Node(s.primary)
	if !ok {
		s.Set(nodes[0].ID)
		return selected(nodes[0], "block")
	}
	same := slices.DeleteFunc(slices.Clone(nodes), func(n model.Node) bool { return n.Type != cur.Type })
	if len(same) <= 1 {
		r := model.Succeed(model.OutcomeNoop, fmt.Sprintf("Only one %s block", cur.DisplayName()))
		r.NodeID = cur.ID
		return r
	}
	n := same[step(same, indexOf(same, cur.ID), model.DirectionNext)]
	s.Set(n.ID)
	return selected(n, "block")
}

// Deselect clears the selection. Clearing an empty selection still succeeds.
func (s *Selection) Deselect(g Enumerator) model.Result {
	s.validate(g)
	if s.Empty() {
		return model.Succeed(model.OutcomeNoop, "No block selected")
	}
	s.Clear()
	return model.Succeed(model.OutcomeNavigate, "Block deselected")
}

func (s *Selection) SelectAll(g Enumerator) model.Result {
	s.validate(g)
	nodes := g.AllNodes()
	if len(nodes) == 0 {
		return model.Fail("There are no blocks to select")
	}
	s.primary = nodes[0].ID
	s.group = make([]string, len(nodes))
	for i, n := range nodes {
		s.group[i] = n.ID
	}
	r := model.Succeed(model.OutcomeNavigate, fmt.Sprintf("Selected all %d blocks", len(nodes)))
	r.NodeID = s.primary
	return r
}

// GroupAdd extends the group. With no direction the primary node is added;
// with a direction the primary moves one step and the new node joins the
// group alongside the existing members.
func (s *Selection) GroupAdd(g Enumerator, direction string) model.Result {
	s.validate(g)
	nodes := g.AllNodes()
	if len(nodes) == 0 {
		return noBlocks()
	}
	var n model.Node
	i := indexOf(nodes, s.primary)
	switch {
	case direction == "" && i < 0:
		return model.Fail("No block selected to add to the group")
	case direction == "":
		n = nodes[i]
	case i < 0:
		n = nodes[0]
	default:
		n = nodes[step(nodes, i, direction)]
	}
	s.primary = n.ID
	if !slices.Contains(s.group, n.ID) {
		s.group = append(s.group, n.ID)
	}
	r := model.Succeed(model.OutcomeNavigate, fmt.Sprintf("Added %s to group (%d blocks)", n.DisplayName(), len(s.group)))
	r.NodeID = n.ID
	return r
}
