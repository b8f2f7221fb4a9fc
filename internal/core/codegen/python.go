package codegen

import (
	"sort"
	"strconv"
	"strings"

	"github.com/agenthands/blockvoice/internal/core/model"
)

type python struct{}

var pyCompare = map[string]string{"EQ": "==", "NEQ": "!=", "LT": "<", "LTE": "<=", "GT": ">", "GTE": ">="}

var arithmetic = map[string]string{"ADD": "+", "MINUS": "-", "MULTIPLY": "*", "DIVIDE": "/"}

func (python) expr(w *walker, n *model.Node) string {
	switch n.Type {
	case "text":
		return strconv.Quote(field(n, "TEXT", ""))
	case "text_join":
		return "str(" + w.value(n, "A", "''") + ") + str(" + w.value(n, "B", "''") + ")"
	case "text_length", "lists_length":
		return "len(" + w.value(n, "VALUE", "''") + ")"
	case "text_prompt_ext":
		return "input(" + w.value(n, "TEXT", "''") + ")"
	case "math_number":
		return field(n, "NUM", "0")
	case "math_arithmetic":
		a, b := w.value(n, "A", "0"), w.value(n, "B", "0")
		if op := field(n, "OP", "ADD"); op == "POWER" {
			return a + " ** " + b
		} else if sym, ok := arithmetic[op]; ok {
			return a + " " + sym + " " + b
		}
		return a + " + " + b
	case "math_single":
		x := w.value(n, "NUM", "0")
		switch field(n, "OP", "ROOT") {
		case "ABS":
			return "abs(" + x + ")"
		case "NEG":
			return "-" + x
		}
		w.imports["math"] = true
		return "math.sqrt(" + x + ")"
	case "math_random_int":
		w.imports["random"] = true
		return "random.randint(" + w.value(n, "FROM", "0") + ", " + w.value(n, "TO", "0") + ")"
	case "math_round":
		return "round(" + w.value(n, "NUM", "0") + ")"
	case "logic_compare":
		return w.value(n, "A", "None") + " " + pyCompare[field(n, "OP", "EQ")] + " " + w.value(n, "B", "None")
	case "logic_operation":
		op := " and "
		if field(n, "OP", "AND") == "OR" {
			op = " or "
		}
		return w.value(n, "A", "False") + op + w.value(n, "B", "False")
	case "logic_boolean":
		if field(n, "BOOL", "TRUE") == "FALSE" {
			return "False"
		}
		return "True"
	case "logic_negate":
		return "not " + w.value(n, "BOOL", "True")
	case "logic_ternary":
		return "(" + w.value(n, "THEN", "None") + " if " + w.value(n, "IF", "False") + " else " + w.value(n, "ELSE", "None") + ")"
	case "logic_null":
		return "None"
	case "lists_create_with":
		return "[" + items(w, n, "None") + "]"
	case "lists_isEmpty":
		return "not len(" + w.value(n, "VALUE", "[]") + ")"
	case "lists_indexOf":
		return w.value(n, "VALUE", "[]") + ".index(" + w.value(n, "FIND", "None") + ") + 1"
	case "variables_get":
		return w.variable(n)
	}
	return "None"
}

func (python) stmt(w *walker, n *model.Node, indent string) []string {
	line := func(s string) []string { return []string{indent + s} }
	switch n.Type {
	case "text_print":
		return line("print(" + w.value(n, "TEXT", "''") + ")")
	case "controls_repeat":
		return append(line("for count in range("+w.value(n, "TIMES", "0")+"):"), w.body(n, "DO", indent)...)
	case "controls_whileUntil":
		cond := w.value(n, "BOOL", "False")
		if field(n, "MODE", "WHILE") == "UNTIL" {
			cond = "not " + cond
		}
		return append(line("while "+cond+":"), w.body(n, "DO", indent)...)
	case "controls_for":
		v := w.variable(n)
		return append(line("for "+v+" in range("+w.value(n, "FROM", "0")+", "+w.value(n, "TO", "0")+" + 1, "+w.value(n, "BY", "1")+"):"), w.body(n, "DO", indent)...)
	case "controls_if":
		return append(line("if "+w.value(n, "IF0", "False")+":"), w.body(n, "DO0", indent)...)
	case "controls_ifelse":
		out := append(line("if "+w.value(n, "IF0", "False")+":"), w.body(n, "DO0", indent)...)
		out = append(out, indent+"else:")
		return append(out, w.body(n, "ELSE", indent)...)
	case "variables_set":
		return line(w.variable(n) + " = " + w.value(n, "VALUE", "None"))
	case "variables_change":
		return line(w.variable(n) + " += " + w.value(n, "DELTA", "0"))
	case "procedures_defnoreturn":
		return append(line("def "+field(n, "NAME", "do_something")+"():"), w.body(n, "STACK", indent)...)
	case "procedures_defreturn":
		out := line("def " + field(n, "NAME", "do_something") + "():")
		if t := w.target(n, "STACK"); t != nil {
			out = append(out, w.chain(t, indent+"    ")...)
		}
		return append(out, indent+"    return "+w.value(n, "RETURN", "None"))
	case "procedures_callnoreturn":
		return line(field(n, "NAME", "do_something") + "()")
	}
	return line(python{}.expr(w, n))
}

func (python) prelude(w *walker) []string {
	var out []string
	for mod := range w.imports {
		out = append(out, "import "+mod)
	}
	sort.Strings(out)
	return out
}

func (python) emptyBody(indent string) []string {
	return []string{indent + "pass"}
}

func items(w *walker, n *model.Node, def string) string {
	var parts []string
	for _, c := range n.Connections {
		if c.Kind == model.ConnInput && c.Target != nil {
			parts = append(parts, w.value(n, c.Name, def))
		}
	}
	return strings.Join(parts, ", ")
}
