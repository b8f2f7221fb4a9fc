package model

type ConnectionKind string

const (
	ConnOutput    ConnectionKind = "output"    // value produced by the block
	ConnInput     ConnectionKind = "input"     // value socket
	ConnPrevious  ConnectionKind = "previous"  // statement notch on top
	ConnNext      ConnectionKind = "next"      // statement notch below
	ConnStatement ConnectionKind = "statement" // nested statement body
)

// Well-known connection point names for the non-input sockets.
const (
	PointOutput   = "OUTPUT"
	PointPrevious = "PREVIOUS"
	PointNext     = "NEXT"
)

// ConnRef addresses one connection point on one node.
type ConnRef struct {
	NodeID string `json:"node_id"`
	Name   string `json:"name"`
}

// ConnectionPoint is a typed socket. Target is nil while unconnected.
type ConnectionPoint struct {
	Name   string         `json:"name"`
	Kind   ConnectionKind `json:"kind"`
	Check  []string       `json:"check,omitempty"`
	Target *ConnRef       `json:"target,omitempty"`
}

func (c ConnectionPoint) Clone() ConnectionPoint {
	out := c
	if c.Check != nil {
		out.Check = append([]string(nil), c.Check...)
	}
	if c.Target != nil {
		t := *c.Target
		out.Target = &t
	}
	return out
}

func (c ConnectionPoint) Connected() bool {
	return c.Target != nil
}

// IsParentSide reports whether c accepts a child (input, next, statement).
func (c ConnectionPoint) IsParentSide() bool {
	return c.Kind == ConnInput || c.Kind == ConnNext || c.Kind == ConnStatement
}

// Compatible reports whether c and o may be bound together: the kinds must pair
// up and the type checks, when both present, must share at least one type.
// Whether either side is already connected is not considered here.
func (c ConnectionPoint) Compatible(o ConnectionPoint) bool {
	if !kindsPair(c.Kind, o.Kind) {
		return false
	}
	if len(c.Check) == 0 || len(o.Check) == 0 {
		return true
	}
	for _, a := range c.Check {
		for _, b := range o.Check {
			if a == b {
				return true
			}
		}
	}
	return false
}

func kindsPair(a, b ConnectionKind) bool {
	switch a {
	case ConnOutput:
		return b == ConnInput
	case ConnInput:
		return b == ConnOutput
	case ConnPrevious:
		return b == ConnNext || b == ConnStatement
	case ConnNext, ConnStatement:
		return b == ConnPrevious
	}
	return false
}
