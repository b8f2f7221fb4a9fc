// Package blocks describes the block types a workspace can instantiate: their
// connection points, default field values and which ones hold a settable literal.
package blocks

import (
	"sort"

	"github.com/agenthands/blockvoice/internal/core/model"
)

// Input is a named value or statement socket on a block.
type Input struct {
	Name  string
	Kind  model.ConnectionKind
	Check []string
}

type Definition struct {
	Type        string
	HasOutput   bool
	OutputCheck []string
	Previous    bool
	Next        bool
	Inputs      []Input
	Fields      map[string]model.Value
}

func valueIn(name string, check ...string) Input {
	return Input{Name: name, Kind: model.ConnInput, Check: check}
}

func body(name string) Input {
	return Input{Name: name, Kind: model.ConnStatement}
}

func statement(t string, inputs ...Input) Definition {
	return Definition{Type: t, Previous: true, Next: true, Inputs: inputs}
}

func expression(t string, check []string, inputs ...Input) Definition {
	return Definition{Type: t, HasOutput: true, OutputCheck: check, Inputs: inputs}
}

var (
	str = []string{"String"}
	num = []string{"Number"}
	boo = []string{"Boolean"}
	arr = []string{"Array"}
)

var catalog = map[string]Definition{}

func register(defs ...Definition) {
	for _, d := range defs {
		catalog[d.Type] = d
	}
}

func init() {
	register(
		// text
		withFields(expression("text", str), "TEXT", model.Text("")),
		statement("text_print", valueIn("TEXT")),
		expression("text_join", str, valueIn("A"), valueIn("B")),
		expression("text_length", num, valueIn("VALUE", "String", "Array")),
		expression("text_prompt_ext", str, valueIn("TEXT", "String")),

		// math
		withFields(expression("math_number", num), "NUM", model.Number(0)),
		withFields(expression("math_arithmetic", num, valueIn("A", "Number"), valueIn("B", "Number")), "OP", model.Text("ADD")),
		withFields(expression("math_single", num, valueIn("NUM", "Number")), "OP", model.Text("ROOT")),
		expression("math_random_int", num, valueIn("FROM", "Number"), valueIn("TO", "Number")),
		withFields(expression("math_round", num, valueIn("NUM", "Number")), "OP", model.Text("ROUND")),

		// logic
		withFields(expression("logic_compare", boo, valueIn("A"), valueIn("B")), "OP", model.Text("EQ")),
		withFields(expression("logic_operation", boo, valueIn("A", "Boolean"), valueIn("B", "Boolean")), "OP", model.Text("AND")),
		withFields(expression("logic_boolean", boo), "BOOL", model.Text("TRUE")),
		expression("logic_negate", boo, valueIn("BOOL", "Boolean")),
		expression("logic_ternary", nil, valueIn("IF", "Boolean"), valueIn("THEN"), valueIn("ELSE")),
		expression("logic_null", nil),

		// lists
		expression("lists_create_with", arr, valueIn("ADD0"), valueIn("ADD1"), valueIn("ADD2")),
		expression("lists_length", num, valueIn("VALUE", "String", "Array")),
		expression("lists_isEmpty", boo, valueIn("VALUE", "String", "Array")),
		withFields(expression("lists_indexOf", num, valueIn("VALUE", "Array"), valueIn("FIND")), "END", model.Text("FIRST")),

		// loops and conditionals
		statement("controls_repeat", valueIn("TIMES", "Number"), body("DO")),
		withFields(statement("controls_whileUntil", valueIn("BOOL", "Boolean"), body("DO")), "MODE", model.Text("WHILE")),
		withFields(statement("controls_for", valueIn("FROM", "Number"), valueIn("TO", "Number"), valueIn("BY", "Number"), body("DO")), "VAR", model.Text("i")),
		statement("controls_if", valueIn("IF0", "Boolean"), body("DO0")),
		statement("controls_ifelse", valueIn("IF0", "Boolean"), body("DO0"), body("ELSE")),

		// variables
		withFields(expression("variables_get", nil), "VAR", model.Text("item")),
		withFields(statement("variables_set", valueIn("VALUE")), "VAR", model.Text("item")),
		withFields(statement("variables_change", valueIn("DELTA", "Number")), "VAR", model.Text("item")),

		// procedures
		withFields(Definition{Type: "procedures_defnoreturn", Inputs: []Input{body("STACK")}}, "NAME", model.Text("do_something")),
		withFields(Definition{Type: "procedures_defreturn", Inputs: []Input{body("STACK"), valueIn("RETURN")}}, "NAME", model.Text("do_something")),
		withFields(statement("procedures_callnoreturn"), "NAME", model.Text("do_something")),
	)
}

func withFields(d Definition, kv ...any) Definition {
	d.Fields = map[string]model.Value{}
	for i := 0; i+1 < len(kv); i += 2 {
		d.Fields[kv[i].(string)] = kv[i+1].(model.Value)
	}
	return d
}

// Lookup returns the definition for blockType.
func Lookup(blockType string) (Definition, bool) {
	d, ok := catalog[blockType]
	return d, ok
}

// Types lists every registered block type in sorted order.
func Types() []string {
	out := make([]string, 0, len(catalog))
	for t := range catalog {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ConnectionPoints builds a fresh, unconnected set of points for blockType.
// Order: output or previous first, then inputs in declaration order, then next.
func (d Definition) ConnectionPoints() []model.ConnectionPoint {
	var pts []model.ConnectionPoint
	if d.HasOutput {
		pts = append(pts, model.ConnectionPoint{Name: model.PointOutput, Kind: model.ConnOutput, Check: clone(d.OutputCheck)})
	}
	if d.Previous {
		pts = append(pts, model.ConnectionPoint{Name: model.PointPrevious, Kind: model.ConnPrevious})
	}
	for _, in := range d.Inputs {
		pts = append(pts, model.ConnectionPoint{Name: in.Name, Kind: in.Kind, Check: clone(in.Check)})
	}
	if d.Next {
		pts = append(pts, model.ConnectionPoint{Name: model.PointNext, Kind: model.ConnNext})
	}
	return pts
}

// DefaultFields returns a copy of the definition's initial field values.
func (d Definition) DefaultFields() map[string]model.Value {
	out := make(map[string]model.Value, len(d.Fields))
	for k, v := range d.Fields {
		out[k] = v
	}
	return out
}

func clone(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
