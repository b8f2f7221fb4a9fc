// Package codegen renders a block graph snapshot as source text.
package codegen

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/agenthands/blockvoice/internal/core/model"
)

var (
	ErrNoBlocks             = errors.New("no blocks")
	ErrGeneratorUnavailable = errors.New("generator unavailable")
)

// Languages lists every language a session may switch to, whether or not a
// generator is registered for it.
var Languages = []string{"python", "javascript", "lua", "php", "dart"}

type Generator interface {
	Generate(s model.Snapshot, lang string) (string, error)
}

// CommentPrefix returns the line comment marker for lang.
func CommentPrefix(lang string) string {
	switch lang {
	case "python":
		return "#"
	case "lua":
		return "--"
	default:
		return "//"
	}
}

// Placeholder is the text shown in place of code for an empty workspace.
func Placeholder(lang string) string {
	c := CommentPrefix(lang)
	return fmt.Sprintf("%s Workspace cleared\n%s Drag blocks to get started", c, c)
}

type dialect interface {
	expr(w *walker, n *model.Node) string
	stmt(w *walker, n *model.Node, indent string) []string
	prelude(w *walker) []string
	emptyBody(indent string) []string
}

// Registry holds the generators this build ships.
type Registry struct {
	dialects map[string]dialect
}

func NewRegistry() *Registry {
	return &Registry{dialects: map[string]dialect{
		"python":     python{},
		"javascript": javascript{},
	}}
}

func (r *Registry) Available(lang string) bool {
	_, ok := r.dialects[lang]
	return ok
}

func (r *Registry) Generate(s model.Snapshot, lang string) (string, error) {
	d, ok := r.dialects[lang]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrGeneratorUnavailable, lang)
	}
	if len(s.Nodes) == 0 {
		return "", ErrNoBlocks
	}
	w := &walker{idx: s.Index(), d: d, imports: map[string]bool{}}

	// Definitions come first so calls below them resolve.
	top := s.TopLevel()
	slices.SortStableFunc(top, func(a, b model.Node) int {
		return rank(a) - rank(b)
	})
	var body []string
	for i := range top {
		n := w.idx[top[i].ID]
		var lines []string
		if isStatement(n) {
			lines = w.chain(n, "")
		} else {
			lines = []string{d.expr(w, n)}
		}
		if len(body) > 0 && (isProcedure(n) || len(lines) > 1) {
			body = append(body, "")
		}
		body = append(body, lines...)
	}

	out := d.prelude(w)
	if len(out) > 0 {
		out = append(out, "")
	}
	out = append(out, body...)
	return strings.Join(out, "\n") + "\n", nil
}

func rank(n model.Node) int {
	if isProcedure(&n) {
		return 0
	}
	return 1
}

func isProcedure(n *model.Node) bool {
	return n.Type == "procedures_defnoreturn" || n.Type == "procedures_defreturn"
}

func isStatement(n *model.Node) bool {
	if isProcedure(n) {
		return true
	}
	_, ok := n.Connection(model.PointPrevious)
	return ok
}

type walker struct {
	idx     map[string]*model.Node
	d       dialect
	imports map[string]bool
	vars    []string
}

func (w *walker) target(n *model.Node, input string) *model.Node {
	c, ok := n.Connection(input)
	if !ok || c.Target == nil {
		return nil
	}
	return w.idx[c.Target.NodeID]
}

// value renders the expression plugged into input, or def when it is empty.
func (w *walker) value(n *model.Node, input, def string) string {
	if t := w.target(n, input); t != nil {
		return w.d.expr(w, t)
	}
	return def
}

// chain renders n and every statement linked below it through NEXT.
func (w *walker) chain(n *model.Node, indent string) []string {
	var out []string
	seen := map[string]bool{}
	for cur := n; cur != nil && !seen[cur.ID]; cur = w.target(cur, model.PointNext) {
		seen[cur.ID] = true
		out = append(out, w.d.stmt(w, cur, indent)...)
	}
	return out
}

// body renders the statements nested in input one level deeper than indent.
func (w *walker) body(n *model.Node, input, indent string) []string {
	inner := indent + "  "
	if _, ok := w.d.(python); ok {
		inner = indent + "    "
	}
	if t := w.target(n, input); t != nil {
		return w.chain(t, inner)
	}
	return w.d.emptyBody(inner)
}

func (w *walker) variable(n *model.Node) string {
	name := field(n, "VAR", "item")
	if !slices.Contains(w.vars, name) {
		w.vars = append(w.vars, name)
	}
	return name
}

func field(n *model.Node, name, def string) string {
	if v, ok := n.Fields[name]; ok && v.String() != "" {
		return v.String()
	}
	return def
}
