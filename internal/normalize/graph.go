package normalize

import "github.com/nao1215/notionscan/internal/model"

// BuildGraph lists every known page and database as a node, followed by
// the edges whose endpoints are both known. Edges to entities that failed
// to resolve are dropped, as are exact duplicates.
func BuildGraph(snap *model.Snapshot) model.Graph {
	g := model.Graph{
		Nodes: make([]model.GraphNode, 0, len(snap.Pages)+len(snap.Databases)),
		Edges: make([]model.GraphEdge, 0, len(snap.Edges)),
	}

	known := make(map[string]bool, cap(g.Nodes))
	for _, p := range snap.Pages {
		g.Nodes = append(g.Nodes, model.GraphNode{ID: p.ID, Label: nfc(p.Title), Type: model.NodePage})
		known[model.CompactID(p.ID)] = true
	}
	for _, d := range snap.Databases {
		g.Nodes = append(g.Nodes, model.GraphNode{ID: d.ID, Label: nfc(d.Title), Type: model.NodeDatabase})
		known[model.CompactID(d.ID)] = true
	}

	seen := make(map[model.GraphEdge]bool, len(snap.Edges))
	for _, kind := range []model.EdgeKind{model.EdgeParentChild, model.EdgePageDatabase, model.EdgeDatabaseRelation} {
		for _, e := range snap.Edges {
			if e.Type != kind || seen[e] {
				continue
			}
			if !known[model.CompactID(e.From)] || !known[model.CompactID(e.To)] {
				continue
			}
			seen[e] = true
			g.Edges = append(g.Edges, e)
		}
	}
	return g
}
