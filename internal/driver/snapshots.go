package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/agenthands/blockvoice/internal/core/model"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore saves whole workspaces under a caller-chosen id. Saving an id
// again replaces the previous snapshot.
type SnapshotStore struct {
	Driver GraphDriver
	Logger *zap.Logger
	now    func() time.Time
}

func NewSnapshotStore(d GraphDriver, logger *zap.Logger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{Driver: d, Logger: logger, now: time.Now}
}

func (s *SnapshotStore) Save(ctx context.Context, id, language string, snap model.Snapshot) error {
	blocks := make([]map[string]any, 0, len(snap.Nodes))
	var links []map[string]any
	for i, n := range snap.Nodes {
		fields, err := json.Marshal(n.Fields)
		if err != nil {
			return fmt.Errorf("encode fields of %s: %w", n.ID, err)
		}
		points, err := json.Marshal(n.Connections)
		if err != nil {
			return fmt.Errorf("encode connections of %s: %w", n.ID, err)
		}
		blocks = append(blocks, map[string]any{
			"id":     n.ID,
			"seq":    int64(i),
			"type":   n.Type,
			"x":      n.Position.X,
			"y":      n.Position.Y,
			"fields": string(fields),
			"points": string(points),
		})
		for _, c := range n.Connections {
			if c.Target != nil && c.IsParentSide() {
				links = append(links, map[string]any{
					"parent":      n.ID,
					"child":       c.Target.NodeID,
					"point":       c.Name,
					"child_point": c.Target.Name,
				})
			}
		}
	}

	if err := s.Delete(ctx, id); err != nil {
		return err
	}
	params := map[string]any{
		"id":       id,
		"language": language,
		"saved_at": s.now().UTC(),
		"blocks":   blocks,
	}
	if _, err := s.Driver.ExecuteQuery(ctx, SaveWorkspaceQuery, params); err != nil {
		return fmt.Errorf("save workspace %s: %w", id, err)
	}
	if len(links) > 0 {
		if _, err := s.Driver.ExecuteQuery(ctx, SaveConnectionsQuery, map[string]any{"id": id, "links": links}); err != nil {
			return fmt.Errorf("save connections of %s: %w", id, err)
		}
	}
	s.Logger.Debug("workspace saved", zap.String("workspace", id), zap.Int("blocks", len(blocks)))
	return nil
}

// Load returns the snapshot and the language it was saved with.
func (s *SnapshotStore) Load(ctx context.Context, id string) (model.Snapshot, string, error) {
	res, err := s.Driver.ExecuteQuery(ctx, LoadWorkspaceQuery, map[string]any{"id": id})
	if err != nil {
		return model.Snapshot{}, "", fmt.Errorf("load workspace %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return model.Snapshot{}, "", fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}

	var snap model.Snapshot
	var language string
	for _, rec := range res.Records {
		if lang, ok := value[string](rec, "language"); ok {
			language = lang
		}
		nodeID, ok := value[string](rec, "id")
		if !ok {
			// Workspace saved without blocks.
			continue
		}
		n, err := decodeNode(rec, nodeID)
		if err != nil {
			return model.Snapshot{}, "", fmt.Errorf("load workspace %s: %w", id, err)
		}
		snap.Nodes = append(snap.Nodes, n)
	}
	return snap, language, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	if _, err := s.Driver.ExecuteQuery(ctx, DeleteWorkspaceQuery, map[string]any{"id": id}); err != nil {
		return fmt.Errorf("delete workspace %s: %w", id, err)
	}
	return nil
}

func decodeNode(rec *neo4j.Record, id string) (model.Node, error) {
	n := model.Node{ID: id}
	n.Type, _ = value[string](rec, "type")
	n.Position.X, _ = value[float64](rec, "x")
	n.Position.Y, _ = value[float64](rec, "y")
	if raw, ok := value[string](rec, "fields"); ok && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &n.Fields); err != nil {
			return model.Node{}, fmt.Errorf("decode fields of %s: %w", id, err)
		}
	}
	if raw, ok := value[string](rec, "points"); ok && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &n.Connections); err != nil {
			return model.Node{}, fmt.Errorf("decode connections of %s: %w", id, err)
		}
	}
	return n, nil
}

// value reads key from rec, treating a missing key, null or a different type
// as absent.
func value[T any](rec *neo4j.Record, key string) (T, bool) {
	var zero T
	raw, ok := rec.Get(key)
	if !ok || raw == nil {
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}
