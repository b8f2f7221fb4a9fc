package driver

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/blockvoice/internal/core/model"
)

type call struct {
	Query  string
	Params map[string]any
}

type MockDriver struct {
	Calls   []call
	Results map[string]neo4j.EagerResult
	Err     error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	m.Calls = append(m.Calls, call{Query: query, Params: params})
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	return m.Results[query], nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error { return nil }

func (m *MockDriver) Close(ctx context.Context) error { return nil }

func sample() model.Snapshot {
	return model.Snapshot{Nodes: []model.Node{
		{
			ID:       "print",
			Type:     "text_print",
			Position: model.Position{X: 10, Y: 20},
			Connections: []model.ConnectionPoint{
				{Name: "TEXT", Kind: model.ConnInput, Target: &model.ConnRef{NodeID: "hello", Name: model.PointOutput}},
			},
		},
		{
			ID:          "hello",
			Type:        "text",
			Fields:      map[string]model.Value{"TEXT": model.Text("hi")},
			Connections: []model.ConnectionPoint{{Name: model.PointOutput, Kind: model.ConnOutput, Target: &model.ConnRef{NodeID: "print", Name: "TEXT"}}},
		},
	}}
}

func TestSave(t *testing.T) {
	m := &MockDriver{}
	s := NewSnapshotStore(m, nil)

	require.NoError(t, s.Save(context.Background(), "ws1", "python", sample()))
	require.Len(t, m.Calls, 3)
	assert.Equal(t, DeleteWorkspaceQuery, m.Calls[0].Query)
	assert.Equal(t, SaveWorkspaceQuery, m.Calls[1].Query)
	assert.Equal(t, SaveConnectionsQuery, m.Calls[2].Query)

	blocks := m.Calls[1].Params["blocks"].([]map[string]any)
	require.Len(t, blocks, 2)
	assert.Equal(t, "text_print", blocks[0]["type"])
	assert.Equal(t, 10.0, blocks[0]["x"])
	assert.JSONEq(t, `{"TEXT":{"kind":"text","text":"hi"}}`, blocks[1]["fields"].(string))

	// Only the parent side of a connection becomes an edge.
	links := m.Calls[2].Params["links"].([]map[string]any)
	require.Len(t, links, 1)
	assert.Equal(t, "print", links[0]["parent"])
	assert.Equal(t, "hello", links[0]["child"])
}

func TestSave_NoConnections(t *testing.T) {
	m := &MockDriver{}
	require.NoError(t, NewSnapshotStore(m, nil).Save(context.Background(), "empty", "python", model.Snapshot{}))
	assert.Len(t, m.Calls, 2)
}

func TestSave_DriverError(t *testing.T) {
	m := &MockDriver{Err: errors.New("connection refused")}
	err := NewSnapshotStore(m, nil).Save(context.Background(), "ws1", "python", sample())
	assert.ErrorContains(t, err, "connection refused")
}

func TestLoad(t *testing.T) {
	keys := []string{"language", "id", "seq", "type", "x", "y", "fields", "points"}
	m := &MockDriver{Results: map[string]neo4j.EagerResult{
		LoadWorkspaceQuery: {
			Keys: keys,
			Records: []*neo4j.Record{
				{Keys: keys, Values: []any{"javascript", "a", int64(0), "math_number", 1.5, 2.0, `{"NUM":{"kind":"number","number":4}}`, `[{"name":"OUTPUT","kind":"output"}]`}},
				{Keys: keys, Values: []any{"javascript", "b", int64(1), "text", 0.0, 0.0, "null", "null"}},
			},
		},
	}}
	snap, lang, err := NewSnapshotStore(m, nil).Load(context.Background(), "ws1")
	require.NoError(t, err)
	assert.Equal(t, "javascript", lang)
	require.Len(t, snap.Nodes, 2)
	assert.Equal(t, model.Number(4), snap.Nodes[0].Fields["NUM"])
	assert.Equal(t, model.Position{X: 1.5, Y: 2}, snap.Nodes[0].Position)
	require.Len(t, snap.Nodes[0].Connections, 1)
	assert.Equal(t, model.ConnOutput, snap.Nodes[0].Connections[0].Kind)
	assert.Empty(t, snap.Nodes[1].Fields)
}

func TestLoad_EmptyWorkspace(t *testing.T) {
	keys := []string{"language", "id"}
	m := &MockDriver{Results: map[string]neo4j.EagerResult{
		LoadWorkspaceQuery: {Records: []*neo4j.Record{{Keys: keys, Values: []any{"python", nil}}}},
	}}
	snap, lang, err := NewSnapshotStore(m, nil).Load(context.Background(), "ws1")
	require.NoError(t, err)
	assert.Equal(t, "python", lang)
	assert.Empty(t, snap.Nodes)
}

func TestLoad_NotFound(t *testing.T) {
	_, _, err := NewSnapshotStore(&MockDriver{}, nil).Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestMemgraphRoundTrip(t *testing.T) {
	uri := os.Getenv("MEMGRAPH_URI")
	if uri == "" {
		t.Skip("MEMGRAPH_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d, err := NewMemgraphDriver(ctx, uri, os.Getenv("MEMGRAPH_USER"), os.Getenv("MEMGRAPH_PASSWORD"), nil)
	require.NoError(t, err)
	defer d.Close(ctx)
	require.NoError(t, d.BuildIndices(ctx))

	s := NewSnapshotStore(d, nil)
	id := uuid.New().String()
	defer s.Delete(ctx, id)

	require.NoError(t, s.Save(ctx, id, "python", sample()))
	snap, lang, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "python", lang)
	assert.Equal(t, sample(), snap)
}
