package model

// Snapshot is a detached copy of a whole graph in enumeration order.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
}

func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Nodes: make([]Node, len(s.Nodes))}
	for i, n := range s.Nodes {
		out.Nodes[i] = n.Clone()
	}
	return out
}

// Index maps node ids to positions in Nodes.
func (s Snapshot) Index() map[string]*Node {
	idx := make(map[string]*Node, len(s.Nodes))
	for i := range s.Nodes {
		idx[s.Nodes[i].ID] = &s.Nodes[i]
	}
	return idx
}

// TopLevel returns the nodes without a parent, preserving order.
func (s Snapshot) TopLevel() []Node {
	var out []Node
	for _, n := range s.Nodes {
		if n.IsTopLevel() {
			out = append(out, n)
		}
	}
	return out
}
