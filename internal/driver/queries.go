package driver

var indexQueries = []string{
	"CREATE INDEX ON :Workspace(id);",
	"CREATE INDEX ON :Block(workspace_id);",
}

const (
	DeleteWorkspaceQuery = `
		MATCH (w:Workspace {id: $id})
		OPTIONAL MATCH (w)-[:HAS_BLOCK]->(b:Block)
		DETACH DELETE w, b
	`

	SaveWorkspaceQuery = `
		CREATE (w:Workspace {id: $id, language: $language, saved_at: $saved_at})
		WITH w
		UNWIND $blocks AS blk
		CREATE (w)-[:HAS_BLOCK]->(:Block {
			workspace_id: $id,
			id: blk.id,
			seq: blk.seq,
			type: blk.type,
			x: blk.x,
			y: blk.y,
			fields: blk.fields,
			points: blk.points
		})
	`

	// Edges mirror the parent-side connections so the layout can be queried
	// as a graph; loading reads the points property instead.
	SaveConnectionsQuery = `
		UNWIND $links AS l
		MATCH (p:Block {workspace_id: $id, id: l.parent}), (c:Block {workspace_id: $id, id: l.child})
		CREATE (p)-[:CONNECTED {point: l.point, child_point: l.child_point}]->(c)
	`

	LoadWorkspaceQuery = `
		MATCH (w:Workspace {id: $id})
		OPTIONAL MATCH (w)-[:HAS_BLOCK]->(b:Block)
		RETURN w.language AS language, b.id AS id, b.seq AS seq, b.type AS type,
			b.x AS x, b.y AS y, b.fields AS fields, b.points AS points
		ORDER BY seq
	`
)
