package model

type CommandKind string

const (
	KindCreateNode       CommandKind = "create_node"
	KindSelectByPosition CommandKind = "select_by_position"
	KindSelectAdjacent   CommandKind = "select_adjacent"
	KindSelectByType     CommandKind = "select_by_type"
	KindGroupAdd         CommandKind = "group_add"
	KindDeselect         CommandKind = "deselect"
	KindSelectAll        CommandKind = "select_all"
	KindMove             CommandKind = "move"
	KindDelete           CommandKind = "delete"
	KindDuplicate        CommandKind = "duplicate"
	KindConnect          CommandKind = "connect"
	KindDisconnect       CommandKind = "disconnect"
	KindSetValue         CommandKind = "set_value"
	KindWorkspaceAction  CommandKind = "workspace_action"
	KindLanguageSwitch   CommandKind = "language_switch"
	KindRunCode          CommandKind = "run_code"
	KindDescribe         CommandKind = "describe_workspace"
	KindChallengeStatus  CommandKind = "challenge_status"
)

// Spatial reports whether the kind operates on the selection. Sessions
// configured without spatial commands reject these kinds.
func (k CommandKind) Spatial() bool {
	switch k {
	case KindSelectByPosition, KindSelectAdjacent, KindSelectByType, KindGroupAdd,
		KindDeselect, KindSelectAll, KindMove, KindDelete, KindDuplicate,
		KindConnect, KindDisconnect, KindSetValue:
		return true
	}
	return false
}

type WorkspaceAction string

const (
	ActionZoomIn  WorkspaceAction = "zoom_in"
	ActionZoomOut WorkspaceAction = "zoom_out"
	ActionCenter  WorkspaceAction = "center"
	ActionClear   WorkspaceAction = "clear"
	ActionUndo    WorkspaceAction = "undo"
	ActionRedo    WorkspaceAction = "redo"
)

const (
	PositionFirst = "first"
	PositionLast  = "last"

	DirectionNext     = "next"
	DirectionPrevious = "previous"
)

// Command is one resolved voice instruction. Only the fields relevant to Kind are set.
type Command struct {
	Kind      CommandKind     `json:"kind"`
	Phrase    string          `json:"phrase"`
	BlockType string          `json:"block_type,omitempty"`
	Position  string          `json:"position,omitempty"`
	Direction string          `json:"direction,omitempty"`
	DX        float64         `json:"dx,omitempty"`
	DY        float64         `json:"dy,omitempty"`
	Value     string          `json:"value,omitempty"`
	Action    WorkspaceAction `json:"action,omitempty"`
	Language  string          `json:"language,omitempty"`
}
