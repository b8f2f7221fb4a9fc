// Package executor applies parsed voice commands to a block graph.
package executor

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/agenthands/blockvoice/internal/core/blocks"
	"github.com/agenthands/blockvoice/internal/core/model"
	"github.com/agenthands/blockvoice/internal/core/selection"
	"github.com/agenthands/blockvoice/internal/core/workspace"
)

const (
	DefaultConnectThreshold = 100
	DefaultDuplicateOffset  = 50
)

// Host carries out the commands that reach beyond the graph. The session
// implements it.
type Host interface {
	SwitchLanguage(lang string) model.Result
	RunCode(ctx context.Context) model.Result
	DescribeWorkspace(ctx context.Context) model.Result
	ChallengeStatus() model.Result
}

type Executor struct {
	ConnectThreshold float64
	DuplicateOffset  float64
	Spatial          bool
	Host             Host
	Logger           *zap.Logger
}

func New(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		ConnectThreshold: DefaultConnectThreshold,
		DuplicateOffset:  DefaultDuplicateOffset,
		Spatial:          true,
		Logger:           logger,
	}
}

// Execute applies cmd and reports the outcome. It never panics and never
// returns an error; every failure becomes an unsuccessful Result.
func (e *Executor) Execute(ctx context.Context, cmd model.Command, g workspace.Graph, sel *selection.Selection) (res model.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("command panicked", zap.String("command", string(cmd.Kind)), zap.Any("panic", r))
			res = model.Fail("Something went wrong running that command")
		}
	}()

	if cmd.Kind.Spatial() && !e.Spatial {
		return model.Fail("Block selection commands are turned off")
	}

	g.Begin()
	defer g.Commit()

	switch cmd.Kind {
	case model.KindCreateNode:
		return e.create(cmd, g, sel)
	case model.KindSelectByPosition:
		return sel.SelectByPosition(g, cmd.Position)
	case model.KindSelectAdjacent:
		return sel.SelectAdjacent(g, cmd.Direction)
	case model.KindSelectByType:
		return sel.SelectByType(g)
	case model.KindGroupAdd:
		return sel.GroupAdd(g, cmd.Direction)
	case model.KindDeselect:
		return sel.Deselect(g)
	case model.KindSelectAll:
		return sel.SelectAll(g)
	case model.KindMove:
		return e.move(cmd, g, sel)
	case model.KindDelete:
		return e.delete(g, sel)
	case model.KindDuplicate:
		return e.duplicate(g, sel)
	case model.KindConnect:
		return e.connect(g, sel)
	case model.KindDisconnect:
		return e.disconnect(g, sel)
	case model.KindSetValue:
		return e.setValue(cmd, g, sel)
	case model.KindWorkspaceAction:
		return e.workspaceAction(cmd, g, sel)
	case model.KindLanguageSwitch:
		if e.Host == nil {
			return model.Fail("Language switching is not available")
		}
		return e.Host.SwitchLanguage(cmd.Language)
	case model.KindRunCode:
		if e.Host == nil {
			return model.Fail("Running code is not available")
		}
		return e.Host.RunCode(ctx)
	case model.KindDescribe:
		if e.Host == nil {
			return model.Fail("Workspace descriptions are not available")
		}
		return e.Host.DescribeWorkspace(ctx)
	case model.KindChallengeStatus:
		if e.Host == nil {
			return model.Fail("Challenges are not available")
		}
		return e.Host.ChallengeStatus()
	}
	return model.Fail(fmt.Sprintf("Command not recognized: %s", cmd.Phrase))
}

func mutated(r model.Result, nodeID string) model.Result {
	r.Mutated = true
	r.NodeID = nodeID
	return r
}

func (e *Executor) adapterFailed(cmd model.CommandKind, nodeID string, err error) {
	e.Logger.Warn("graph adapter failed", zap.String("command", string(cmd)), zap.String("node", nodeID), zap.Error(err))
}

func (e *Executor) create(cmd model.Command, g workspace.Graph, sel *selection.Selection) model.Result {
	name := model.DisplayType(cmd.BlockType)
	n, err := g.NewNode(cmd.BlockType)
	if err != nil {
		e.adapterFailed(cmd.Kind, "", err)
		return model.Fail(fmt.Sprintf("Could not create %s block", name))
	}
	c := g.ViewportCenter()
	if _, err := g.MoveNode(n.ID, c.X, c.Y); err != nil {
		e.adapterFailed(cmd.Kind, n.ID, err)
	}
	sel.Set(n.ID)
	return mutated(model.Succeed(model.OutcomeCreate, fmt.Sprintf("Created %s block", name)), n.ID)
}

func (e *Executor) move(cmd model.Command, g workspace.Graph, sel *selection.Selection) model.Result {
	n, ok := sel.Primary(g)
	if !ok {
		return model.Fail("No block selected to move")
	}
	pos, err := g.MoveNode(n.ID, cmd.DX, cmd.DY)
	if err != nil {
		e.adapterFailed(cmd.Kind, n.ID, err)
		return model.Fail("Could not move the selected block")
	}
	msg := fmt.Sprintf("Moved block to position %.0f, %.0f", pos.X, pos.Y)
	return mutated(model.Succeed(model.OutcomeSuccess, msg), n.ID)
}

func (e *Executor) delete(g workspace.Graph, sel *selection.Selection) model.Result {
	n, ok := sel.Primary(g)
	if !ok {
		return model.Fail("No block selected to delete")
	}
	sel.Clear()
	if _, err := g.DeleteNode(n.ID); err != nil {
		e.adapterFailed(model.KindDelete, n.ID, err)
		return model.Fail("That block no longer exists")
	}
	return mutated(model.Succeed(model.OutcomeDelete, fmt.Sprintf("Deleted %s block", n.DisplayName())), n.ID)
}

func (e *Executor) duplicate(g workspace.Graph, sel *selection.Selection) model.Result {
	src, ok := sel.Primary(g)
	if !ok {
		return model.Fail("No block selected to duplicate")
	}
	dup, err := g.NewNode(src.Type)
	if err != nil {
		e.adapterFailed(model.KindDuplicate, src.ID, err)
		return model.Fail(fmt.Sprintf("Could not duplicate %s block", src.DisplayName()))
	}
	for name, v := range src.Fields {
		if err := g.SetField(dup.ID, name, v); err != nil {
			e.adapterFailed(model.KindDuplicate, dup.ID, err)
		}
	}
	at := src.Position.Add(e.DuplicateOffset, e.DuplicateOffset)
	if _, err := g.MoveNode(dup.ID, at.X-dup.Position.X, at.Y-dup.Position.Y); err != nil {
		e.adapterFailed(model.KindDuplicate, dup.ID, err)
	}
	sel.Set(dup.ID)
	return mutated(model.Succeed(model.OutcomeCreate, fmt.Sprintf("Duplicated %s block", src.DisplayName())), dup.ID)
}

// tryConnect binds the first compatible pair of free points between a and b,
// in a's then b's point order. Pairs the graph refuses are skipped.
func (e *Executor) tryConnect(g workspace.Graph, a, b model.Node) bool {
	for _, pa := range a.Connections {
		if pa.Connected() {
			continue
		}
		for _, pb := range b.Connections {
			if pb.Connected() || !pa.Compatible(pb) {
				continue
			}
			err := g.Connect(model.ConnRef{NodeID: a.ID, Name: pa.Name}, model.ConnRef{NodeID: b.ID, Name: pb.Name})
			if err == nil {
				return true
			}
			e.Logger.Debug("connection refused", zap.String("node", a.ID), zap.String("target", b.ID), zap.Error(err))
		}
	}
	return false
}

func connected() model.Result {
	return model.Result{Success: true, Outcome: model.OutcomeConnect, Message: "Blocks connected successfully", Mutated: true}
}

// connect joins the first two group members, or failing a group, the primary
// and the first nearby top-level node that fits.
func (e *Executor) connect(g workspace.Graph, sel *selection.Selection) model.Result {
	if group := sel.Group(g); len(group) >= 2 {
		if e.tryConnect(g, group[0], group[1]) {
			return connected()
		}
		return model.Fail("No compatible connection points found between the selected blocks")
	}

	n, ok := sel.Primary(g)
	if !ok {
		return model.Fail("No blocks selected. Select blocks first to connect them.")
	}
	nearby := 0
	for _, other := range g.TopLevelNodes() {
		if other.ID == n.ID || n.Position.Distance(other.Position) > e.ConnectThreshold {
			continue
		}
		nearby++
		if e.tryConnect(g, n, other) {
			r := connected()
			r.NodeID = n.ID
			return r
		}
	}
	if nearby == 0 {
		return model.Fail("No nearby blocks to connect to. Select multiple blocks first.")
	}
	return model.Fail("No compatible connection points found with nearby blocks")
}

func (e *Executor) disconnect(g workspace.Graph, sel *selection.Selection) model.Result {
	n, ok := sel.Primary(g)
	if !ok {
		return model.Fail("No block selected to disconnect")
	}
	count, err := g.Disconnect(n.ID)
	if err != nil {
		e.adapterFailed(model.KindDisconnect, n.ID, err)
		return model.Fail("Could not disconnect the selected block")
	}
	if count == 0 {
		return model.Fail("Block has no connections to disconnect")
	}
	return mutated(model.Succeed(model.OutcomeSuccess, "Block disconnected"), n.ID)
}

func (e *Executor) setValue(cmd model.Command, g workspace.Graph, sel *selection.Selection) model.Result {
	if cmd.Value == "" {
		return model.Fail("Please specify a value to set")
	}
	n, ok := sel.Primary(g)
	if !ok {
		return model.Fail("No block selected to set a value on")
	}
	lit, ok := blocks.LiteralFor(n.Type)
	if !ok {
		return model.Fail("Selected block is not a text or number block")
	}
	v := model.Text(cmd.Value)
	if lit.Kind == model.ValueNumber {
		f, err := strconv.ParseFloat(cmd.Value, 64)
		if err != nil {
			return model.Fail(fmt.Sprintf("%s is not a number", cmd.Value))
		}
		v = model.Number(f)
	}
	if err := g.SetField(n.ID, lit.Field, v); err != nil {
		e.adapterFailed(cmd.Kind, n.ID, err)
		return model.Fail("Could not set the block value")
	}
	msg := fmt.Sprintf("Set %s block to: %s", n.DisplayName(), v.String())
	if n.Type == "math_number" {
		msg = fmt.Sprintf("Set number block to: %s", v.String())
	}
	return mutated(model.Succeed(model.OutcomeSuccess, msg), n.ID)
}

func (e *Executor) workspaceAction(cmd model.Command, g workspace.Graph, sel *selection.Selection) model.Result {
	switch cmd.Action {
	case model.ActionZoomIn:
		g.Zoom(true)
		return model.Succeed(model.OutcomeZoom, "Zoomed in")
	case model.ActionZoomOut:
		g.Zoom(false)
		return model.Succeed(model.OutcomeZoom, "Zoomed out")
	case model.ActionCenter:
		g.ScrollCenter()
		return model.Succeed(model.OutcomeNavigate, "Workspace centered")
	case model.ActionClear:
		g.Clear()
		sel.Clear()
		return mutated(model.Succeed(model.OutcomeClear, "Workspace cleared"), "")
	case model.ActionUndo:
		if !g.Undo() {
			return model.Fail("Nothing to undo")
		}
		return mutated(model.Succeed(model.OutcomeSuccess, "Undone"), "")
	case model.ActionRedo:
		if !g.Redo() {
			return model.Fail("Nothing to redo")
		}
		return mutated(model.Succeed(model.OutcomeSuccess, "Redone"), "")
	}
	return model.Fail(fmt.Sprintf("Unknown workspace action: %s", cmd.Action))
}
