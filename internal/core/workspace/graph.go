// Package workspace holds the block graph the voice engine mutates.
package workspace

import (
	"errors"

	"github.com/agenthands/blockvoice/internal/core/model"
)

var (
	ErrUnknownBlockType = errors.New("unknown block type")
	ErrNodeNotFound     = errors.New("node not found")
	ErrPointNotFound    = errors.New("connection point not found")
	ErrIncompatible     = errors.New("incompatible connection points")
	ErrAlreadyConnected = errors.New("connection point already connected")
)

// Graph is the capability surface the engine needs from a visual programming
// workspace. Nodes returned are copies; mutate only through the methods.
type Graph interface {
	NewNode(blockType string) (model.Node, error)
	Node(id string) (model.Node, bool)
	// AllNodes returns every node in creation order.
	AllNodes() []model.Node
	TopLevelNodes() []model.Node
	// DeleteNode disposes the node and everything plugged beneath it,
	// returning how many nodes were removed.
	DeleteNode(id string) (int, error)
	// MoveNode shifts the node and its children, returning the node's new position.
	MoveNode(id string, dx, dy float64) (model.Position, error)
	ConnectionPoints(id string) ([]model.ConnectionPoint, error)
	Connect(a, b model.ConnRef) error
	// Disconnect unbinds every connected point of the node and reports how many were bound.
	Disconnect(id string) (int, error)
	SetField(id, field string, v model.Value) error
	ViewportCenter() model.Position

	Zoom(in bool) float64
	ScrollCenter()
	Clear() int
	// Begin and Commit bracket one user command so it undoes as a single step.
	Begin()
	Commit()
	Undo() bool
	Redo() bool
	Snapshot() model.Snapshot
	Restore(s model.Snapshot)
}
