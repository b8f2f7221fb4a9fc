package codegen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/blockvoice/internal/core/model"
	"github.com/agenthands/blockvoice/internal/core/workspace"
)

func newGraph() *workspace.Workspace {
	i := 0
	return workspace.New(workspace.WithIDGenerator(func() string {
		i++
		return fmt.Sprintf("n%d", i)
	}))
}

func plug(t *testing.T, w *workspace.Workspace, child, childPoint, parent, parentPoint string) {
	t.Helper()
	require.NoError(t, w.Connect(model.ConnRef{NodeID: child, Name: childPoint}, model.ConnRef{NodeID: parent, Name: parentPoint}))
}

// repeat 3 times: print "hi"
func loopProgram(t *testing.T) *workspace.Workspace {
	w := newGraph()
	rep, _ := w.NewNode("controls_repeat")
	num, _ := w.NewNode("math_number")
	p, _ := w.NewNode("text_print")
	txt, _ := w.NewNode("text")
	require.NoError(t, w.SetField(num.ID, "NUM", model.Number(3)))
	require.NoError(t, w.SetField(txt.ID, "TEXT", model.Text("hi")))
	plug(t, w, num.ID, model.PointOutput, rep.ID, "TIMES")
	plug(t, w, p.ID, model.PointPrevious, rep.ID, "DO")
	plug(t, w, txt.ID, model.PointOutput, p.ID, "TEXT")
	return w
}

func TestGenerate_Python(t *testing.T) {
	code, err := NewRegistry().Generate(loopProgram(t).Snapshot(), "python")
	require.NoError(t, err)
	assert.Equal(t, "for count in range(3):\n    print(\"hi\")\n", code)
}

func TestGenerate_JavaScript(t *testing.T) {
	code, err := NewRegistry().Generate(loopProgram(t).Snapshot(), "javascript")
	require.NoError(t, err)
	assert.Equal(t, "for (var count = 0; count < 3; count++) {\n  window.alert(\"hi\");\n}\n", code)
}

func TestGenerate_EmptyBodyAndImports(t *testing.T) {
	w := newGraph()
	_, _ = w.NewNode("controls_if")
	sq, _ := w.NewNode("math_single")
	set, _ := w.NewNode("variables_set")
	plug(t, w, set.ID, model.PointPrevious, "n1", "DO0")
	plug(t, w, sq.ID, model.PointOutput, set.ID, "VALUE")

	code, err := NewRegistry().Generate(w.Snapshot(), "python")
	require.NoError(t, err)
	assert.Equal(t, "import math\n\nif False:\n    item = math.sqrt(0)\n", code)

	code, err = NewRegistry().Generate(w.Snapshot(), "javascript")
	require.NoError(t, err)
	assert.Equal(t, "var item;\n\nif (false) {\n  item = Math.sqrt(0);\n}\n", code)
}

func TestGenerate_ProceduresFirst(t *testing.T) {
	w := newGraph()
	_, _ = w.NewNode("procedures_callnoreturn")
	_, _ = w.NewNode("procedures_defnoreturn")

	code, err := NewRegistry().Generate(w.Snapshot(), "python")
	require.NoError(t, err)
	assert.Equal(t, "def do_something():\n    pass\ndo_something()\n", code)
}

func TestGenerate_StatementChain(t *testing.T) {
	w := newGraph()
	a, _ := w.NewNode("text_print")
	b, _ := w.NewNode("text_print")
	plug(t, w, b.ID, model.PointPrevious, a.ID, model.PointNext)

	code, err := NewRegistry().Generate(w.Snapshot(), "python")
	require.NoError(t, err)
	assert.Equal(t, "print('')\nprint('')\n", code)
}

func TestGenerate_Errors(t *testing.T) {
	r := NewRegistry()

	_, err := r.Generate(model.Snapshot{}, "python")
	assert.ErrorIs(t, err, ErrNoBlocks)

	_, err = r.Generate(loopProgram(t).Snapshot(), "lua")
	assert.ErrorIs(t, err, ErrGeneratorUnavailable)
	assert.False(t, r.Available("dart"))
	assert.True(t, r.Available("javascript"))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "# Workspace cleared\n# Drag blocks to get started", Placeholder("python"))
	assert.Equal(t, "--", CommentPrefix("lua"))
	assert.Equal(t, "//", CommentPrefix("php"))
}
