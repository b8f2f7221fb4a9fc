package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/blockvoice/internal/core/model"
)

func TestLookup_Statement(t *testing.T) {
	d, ok := Lookup("controls_repeat")
	require.True(t, ok)

	pts := d.ConnectionPoints()
	names := make([]string, len(pts))
	for i, p := range pts {
		names[i] = p.Name
	}
	assert.Equal(t, []string{model.PointPrevious, "TIMES", "DO", model.PointNext}, names)
	assert.Equal(t, model.ConnStatement, pts[2].Kind)
	assert.Equal(t, []string{"Number"}, pts[1].Check)
}

func TestLookup_Expression(t *testing.T) {
	d, ok := Lookup("text")
	require.True(t, ok)

	pts := d.ConnectionPoints()
	require.Len(t, pts, 1)
	assert.Equal(t, model.ConnOutput, pts[0].Kind)
	assert.Equal(t, model.Text(""), d.DefaultFields()["TEXT"])
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := Lookup("html_div")
	assert.False(t, ok)
}

func TestConnectionPoints_AreFresh(t *testing.T) {
	d, _ := Lookup("text_print")
	a := d.ConnectionPoints()
	a[0].Target = &model.ConnRef{NodeID: "x", Name: "NEXT"}

	b := d.ConnectionPoints()
	assert.Nil(t, b[0].Target)
}

func TestLiteralFor(t *testing.T) {
	l, ok := LiteralFor("text")
	assert.True(t, ok)
	assert.Equal(t, "TEXT", l.Field)

	l, ok = LiteralFor("math_number")
	assert.True(t, ok)
	assert.Equal(t, model.ValueNumber, l.Kind)

	_, ok = LiteralFor("controls_repeat")
	assert.False(t, ok)
}

func TestTypes_Sorted(t *testing.T) {
	types := Types()
	assert.Contains(t, types, "controls_for")
	assert.IsIncreasing(t, types)
}
