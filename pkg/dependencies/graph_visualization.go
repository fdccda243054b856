package dependencies

import (
	"github.com/platinummonkey/slnreload/pkg/projectpath"
)

// CytoscapeNode represents a node in Cytoscape.js format
type CytoscapeNode struct {
	Data CytoscapeNodeData `json:"data"`
}

// CytoscapeNodeData contains node data for Cytoscape.js
type CytoscapeNodeData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // "root" or "dependency"
}

// CytoscapeEdge represents an edge in Cytoscape.js format
type CytoscapeEdge struct {
	Data CytoscapeEdgeData `json:"data"`
}

// CytoscapeEdgeData contains edge data for Cytoscape.js
type CytoscapeEdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"` // "direct", "transitive"
}

// CytoscapeGraph represents the complete graph in Cytoscape.js format
type CytoscapeGraph struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// BuildCytoscapeGraph converts a closure's recorded references into a
// Cytoscape.js graph. maxDepth limits how many hops from the root edges are
// followed; a negative value is unlimited. Projects are expanded breadth-first,
// so each one is measured at its shortest distance from the root.
func BuildCytoscapeGraph(closure *Closure, maxDepth int) CytoscapeGraph {
	cytoGraph := CytoscapeGraph{
		Nodes: make([]CytoscapeNode, 0),
		Edges: make([]CytoscapeEdge, 0),
	}

	cmp := closure.cmp
	graph := closure.graph
	root := closure.root

	type entry struct {
		project projectpath.Path
		depth   int
	}

	visited := map[projectpath.Key]bool{cmp.Key(root): true}
	cytoGraph.Nodes = append(cytoGraph.Nodes, newCytoscapeNode(cmp, root, "root"))

	queue := []entry{{project: root}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if maxDepth >= 0 && current.depth >= maxDepth {
			continue
		}
		node := graph.GetNode(current.project)
		if node == nil {
			continue
		}

		key := cmp.Key(current.project)
		edgeType := "direct"
		if current.depth > 0 {
			edgeType = "transitive"
		}

		for _, ref := range node.References {
			refKey := cmp.Key(ref)
			if !visited[refKey] {
				visited[refKey] = true
				cytoGraph.Nodes = append(cytoGraph.Nodes, newCytoscapeNode(cmp, ref, "dependency"))
				queue = append(queue, entry{project: ref, depth: current.depth + 1})
			}

			cytoGraph.Edges = append(cytoGraph.Edges, CytoscapeEdge{
				Data: CytoscapeEdgeData{
					ID:     string(key) + "->" + string(refKey),
					Source: string(key),
					Target: string(refKey),
					Type:   edgeType,
				},
			})
		}
	}

	return cytoGraph
}

func newCytoscapeNode(cmp projectpath.Comparer, p projectpath.Path, nodeType string) CytoscapeNode {
	return CytoscapeNode{
		Data: CytoscapeNodeData{
			ID:   string(cmp.Key(p)),
			Name: p.Name(),
			Path: string(p),
			Type: nodeType,
		},
	}
}
