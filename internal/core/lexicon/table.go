package lexicon

import "github.com/agenthands/blockvoice/internal/core/model"

func direct(phrase string, cmd model.Command) Entry {
	return Entry{Phrase: phrase, Mode: Direct, Command: cmd}
}

// block creates blockType whenever its keyword is spoken, with or without a
// placement verb ("print", "add a print block").
func block(phrase, blockType string) Entry {
	return direct(phrase, model.Command{Kind: model.KindCreateNode, BlockType: blockType})
}

// place is for keywords that are common filler words on their own ("and",
// "not"); they only create a block after a placement verb.
func place(phrase, blockType string) Entry {
	return Entry{Phrase: phrase, Mode: Placement, Command: model.Command{Kind: model.KindCreateNode, BlockType: blockType}}
}

func move(phrase string, dx, dy float64) Entry {
	return direct(phrase, model.Command{Kind: model.KindMove, DX: dx, DY: dy})
}

func action(phrase string, a model.WorkspaceAction) Entry {
	return direct(phrase, model.Command{Kind: model.KindWorkspaceAction, Action: a})
}

func language(lang string) Entry {
	return direct("switch to "+lang, model.Command{Kind: model.KindLanguageSwitch, Language: lang})
}

func table(step, nudge float64) []Entry {
	return []Entry{
		// value setting
		{Phrase: "set block value to", Mode: Parametric, Command: model.Command{Kind: model.KindSetValue}},
		{Phrase: "set value to", Mode: Parametric, Command: model.Command{Kind: model.KindSetValue}},

		// selection
		direct("select first block", model.Command{Kind: model.KindSelectByPosition, Position: model.PositionFirst}),
		direct("select last block", model.Command{Kind: model.KindSelectByPosition, Position: model.PositionLast}),
		direct("select next block", model.Command{Kind: model.KindSelectAdjacent, Direction: model.DirectionNext}),
		direct("select previous block", model.Command{Kind: model.KindSelectAdjacent, Direction: model.DirectionPrevious}),
		direct("group next block", model.Command{Kind: model.KindGroupAdd, Direction: model.DirectionNext}),
		direct("group previous block", model.Command{Kind: model.KindGroupAdd, Direction: model.DirectionPrevious}),
		direct("group block", model.Command{Kind: model.KindGroupAdd}),
		direct("deselect block", model.Command{Kind: model.KindDeselect}),
		direct("deselect all", model.Command{Kind: model.KindDeselect}),
		direct("select all blocks", model.Command{Kind: model.KindSelectAll}),
		direct("select block", model.Command{Kind: model.KindSelectByType}),

		// movement
		move("move block up", 0, -step),
		move("move block down", 0, step),
		move("move block left", -step, 0),
		move("move block right", step, 0),
		move("move up", 0, -step),
		move("move down", 0, step),
		move("move left", -step, 0),
		move("move right", step, 0),
		move("nudge up", 0, -nudge),
		move("nudge down", 0, nudge),
		move("nudge left", -nudge, 0),
		move("nudge right", nudge, 0),

		// manipulation
		direct("delete selected block", model.Command{Kind: model.KindDelete}),
		direct("delete block", model.Command{Kind: model.KindDelete}),
		direct("duplicate selected block", model.Command{Kind: model.KindDuplicate}),
		direct("duplicate block", model.Command{Kind: model.KindDuplicate}),
		direct("disconnect block", model.Command{Kind: model.KindDisconnect}),
		direct("connect blocks", model.Command{Kind: model.KindConnect}),
		direct("connect block", model.Command{Kind: model.KindConnect}),

		// workspace
		action("zoom in", model.ActionZoomIn),
		action("zoom out", model.ActionZoomOut),
		action("center workspace", model.ActionCenter),
		action("clear workspace", model.ActionClear),
		action("clear code", model.ActionClear),
		action("undo", model.ActionUndo),
		action("redo", model.ActionRedo),
		direct("run code", model.Command{Kind: model.KindRunCode}),
		direct("describe workspace", model.Command{Kind: model.KindDescribe}),
		direct("read workspace", model.Command{Kind: model.KindDescribe}),
		direct("challenge progress", model.Command{Kind: model.KindChallengeStatus}),
		direct("check challenge", model.Command{Kind: model.KindChallengeStatus}),

		// code language
		language("python"),
		language("javascript"),
		language("lua"),
		language("php"),
		language("dart"),

		// block placement
		block("for loop", "controls_for"),
		block("while", "controls_whileUntil"),
		block("repeat", "controls_repeat"),
		block("loop", "controls_repeat"),
		block("if else", "controls_ifelse"),
		block("if", "controls_if"),
		block("print", "text_print"),
		block("join text", "text_join"),
		block("text length", "text_length"),
		block("text", "text"),
		place("ask", "text_prompt_ext"),
		block("random number", "math_random_int"),
		block("number", "math_number"),
		block("square root", "math_single"),
		place("round", "math_round"),
		block("math", "math_arithmetic"),
		block("plus", "math_arithmetic"),
		block("subtract", "math_arithmetic"),
		block("multiply", "math_arithmetic"),
		block("divide", "math_arithmetic"),
		place("true", "logic_boolean"),
		place("false", "logic_boolean"),
		block("compare", "logic_compare"),
		place("and", "logic_operation"),
		place("or", "logic_operation"),
		place("not", "logic_negate"),
		place("list", "lists_create_with"),
		block("set variable", "variables_set"),
		block("change variable", "variables_change"),
		block("variable", "variables_get"),
		block("call function", "procedures_callnoreturn"),
		place("return", "procedures_defreturn"),
		block("function", "procedures_defnoreturn"),
	}
}
