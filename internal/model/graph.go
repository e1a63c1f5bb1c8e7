package model

// EdgeKind is the type of a graph edge.
type EdgeKind string

// Edge kinds.
const (
	// EdgeParentChild links a page to a child page.
	EdgeParentChild EdgeKind = "parent_child"
	// EdgePageDatabase links a page to a database embedded in it.
	EdgePageDatabase EdgeKind = "page_database"
	// EdgeDatabaseRelation links a database to the target of one of its relation columns.
	EdgeDatabaseRelation EdgeKind = "database_relation"
)

// GraphEdge is a directed relationship between two pages or databases.
// Property is only set for database relations.
type GraphEdge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Type     EdgeKind `json:"type"`
	Property string   `json:"property,omitempty"`
}

// NodeType is the type of a graph node.
type NodeType string

// Node types.
const (
	NodePage     NodeType = "page"
	NodeDatabase NodeType = "database"
)

// GraphNode is a page or database in the graph.
type GraphNode struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Type  NodeType `json:"type"`
}

// Graph is the node and edge lists of graph.json.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
