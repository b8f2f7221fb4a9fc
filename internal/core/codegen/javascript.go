package codegen

import (
	"strconv"
	"strings"

	"github.com/agenthands/blockvoice/internal/core/model"
)

type javascript struct{}

var jsCompare = map[string]string{"EQ": "==", "NEQ": "!=", "LT": "<", "LTE": "<=", "GT": ">", "GTE": ">="}

func (javascript) expr(w *walker, n *model.Node) string {
	switch n.Type {
	case "text":
		return strconv.Quote(field(n, "TEXT", ""))
	case "text_join":
		return "String(" + w.value(n, "A", "''") + ") + String(" + w.value(n, "B", "''") + ")"
	case "text_length", "lists_length":
		return w.value(n, "VALUE", "''") + ".length"
	case "text_prompt_ext":
		return "window.prompt(" + w.value(n, "TEXT", "''") + ")"
	case "math_number":
		return field(n, "NUM", "0")
	case "math_arithmetic":
		a, b := w.value(n, "A", "0"), w.value(n, "B", "0")
		op := field(n, "OP", "ADD")
		if op == "POWER" {
			return "Math.pow(" + a + ", " + b + ")"
		}
		if sym, ok := arithmetic[op]; ok {
			return a + " " + sym + " " + b
		}
		return a + " + " + b
	case "math_single":
		x := w.value(n, "NUM", "0")
		switch field(n, "OP", "ROOT") {
		case "ABS":
			return "Math.abs(" + x + ")"
		case "NEG":
			return "-" + x
		}
		return "Math.sqrt(" + x + ")"
	case "math_random_int":
		from, to := w.value(n, "FROM", "0"), w.value(n, "TO", "0")
		return "Math.floor(Math.random() * (" + to + " - " + from + " + 1)) + " + from
	case "math_round":
		return "Math.round(" + w.value(n, "NUM", "0") + ")"
	case "logic_compare":
		return w.value(n, "A", "null") + " " + jsCompare[field(n, "OP", "EQ")] + " " + w.value(n, "B", "null")
	case "logic_operation":
		op := " && "
		if field(n, "OP", "AND") == "OR" {
			op = " || "
		}
		return w.value(n, "A", "false") + op + w.value(n, "B", "false")
	case "logic_boolean":
		return strings.ToLower(field(n, "BOOL", "TRUE"))
	case "logic_negate":
		return "!" + w.value(n, "BOOL", "true")
	case "logic_ternary":
		return w.value(n, "IF", "false") + " ? " + w.value(n, "THEN", "null") + " : " + w.value(n, "ELSE", "null")
	case "logic_null":
		return "null"
	case "lists_create_with":
		return "[" + items(w, n, "null") + "]"
	case "lists_isEmpty":
		return "!" + w.value(n, "VALUE", "[]") + ".length"
	case "lists_indexOf":
		return w.value(n, "VALUE", "[]") + ".indexOf(" + w.value(n, "FIND", "null") + ") + 1"
	case "variables_get":
		return w.variable(n)
	}
	return "null"
}

func (javascript) stmt(w *walker, n *model.Node, indent string) []string {
	line := func(s string) []string { return []string{indent + s} }
	block := func(head, input string) []string {
		out := append(line(head+" {"), w.body(n, input, indent)...)
		return append(out, indent+"}")
	}
	switch n.Type {
	case "text_print":
		return line("window.alert(" + w.value(n, "TEXT", "''") + ");")
	case "controls_repeat":
		return block("for (var count = 0; count < "+w.value(n, "TIMES", "0")+"; count++)", "DO")
	case "controls_whileUntil":
		cond := w.value(n, "BOOL", "false")
		if field(n, "MODE", "WHILE") == "UNTIL" {
			cond = "!(" + cond + ")"
		}
		return block("while ("+cond+")", "DO")
	case "controls_for":
		v := w.variable(n)
		return block("for ("+v+" = "+w.value(n, "FROM", "0")+"; "+v+" <= "+w.value(n, "TO", "0")+"; "+v+" += "+w.value(n, "BY", "1")+")", "DO")
	case "controls_if":
		return block("if ("+w.value(n, "IF0", "false")+")", "DO0")
	case "controls_ifelse":
		out := append(line("if ("+w.value(n, "IF0", "false")+") {"), w.body(n, "DO0", indent)...)
		out = append(out, indent+"} else {")
		out = append(out, w.body(n, "ELSE", indent)...)
		return append(out, indent+"}")
	case "variables_set":
		return line(w.variable(n) + " = " + w.value(n, "VALUE", "null") + ";")
	case "variables_change":
		return line(w.variable(n) + " += " + w.value(n, "DELTA", "0") + ";")
	case "procedures_defnoreturn":
		return block("function "+field(n, "NAME", "do_something")+"()", "STACK")
	case "procedures_defreturn":
		out := line("function " + field(n, "NAME", "do_something") + "() {")
		if t := w.target(n, "STACK"); t != nil {
			out = append(out, w.chain(t, indent+"  ")...)
		}
		out = append(out, indent+"  return "+w.value(n, "RETURN", "null")+";")
		return append(out, indent+"}")
	case "procedures_callnoreturn":
		return line(field(n, "NAME", "do_something") + "();")
	}
	return line(javascript{}.expr(w, n) + ";")
}

func (javascript) prelude(w *walker) []string {
	if len(w.vars) == 0 {
		return nil
	}
	return []string{"var " + strings.Join(w.vars, ", ") + ";"}
}

func (javascript) emptyBody(string) []string {
	return nil
}
