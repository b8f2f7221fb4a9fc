package model

import (
	"math"
	"strconv"
	"strings"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) Add(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Distance is the Euclidean distance between p and o.
func (p Position) Distance(o Position) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

type ValueKind string

const (
	ValueText   ValueKind = "text"
	ValueNumber ValueKind = "number"
)

// Value is a primitive field value: either text or a number.
type Value struct {
	Kind   ValueKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Number float64   `json:"number,omitempty"`
}

func Text(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

func Number(f float64) Value {
	return Value{Kind: ValueNumber, Number: f}
}

func (v Value) String() string {
	if v.Kind == ValueNumber {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

// Node is one block instance owned by a graph.
type Node struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Fields      map[string]Value  `json:"fields,omitempty"`
	Position    Position          `json:"position"`
	Connections []ConnectionPoint `json:"connections,omitempty"`
}

// Clone returns a deep copy so callers never alias graph-owned state.
func (n Node) Clone() Node {
	out := n
	if n.Fields != nil {
		out.Fields = make(map[string]Value, len(n.Fields))
		for k, v := range n.Fields {
			out.Fields[k] = v
		}
	}
	if n.Connections != nil {
		out.Connections = make([]ConnectionPoint, len(n.Connections))
		for i, c := range n.Connections {
			out.Connections[i] = c.Clone()
		}
	}
	return out
}

// DisplayName is the type with underscores replaced by spaces, as spoken back to the user.
func (n Node) DisplayName() string {
	return DisplayType(n.Type)
}

func DisplayType(blockType string) string {
	return strings.ReplaceAll(blockType, "_", " ")
}

func (n Node) Connection(name string) (ConnectionPoint, bool) {
	for _, c := range n.Connections {
		if c.Name == name {
			return c, true
		}
	}
	return ConnectionPoint{}, false
}

// Parent returns the connection that attaches n beneath another node, if any.
func (n Node) Parent() (ConnRef, bool) {
	for _, c := range n.Connections {
		if (c.Kind == ConnOutput || c.Kind == ConnPrevious) && c.Target != nil {
			return *c.Target, true
		}
	}
	return ConnRef{}, false
}

// IsTopLevel reports whether n is not plugged into any parent.
func (n Node) IsTopLevel() bool {
	_, ok := n.Parent()
	return !ok
}
