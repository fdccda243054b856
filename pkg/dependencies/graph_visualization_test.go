package dependencies

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveFake(t *testing.T, refs map[string][]string, root string) *Closure {
	t.Helper()

	resolver := newTestResolver(newFakeSession(refs), Options{})
	closure, err := resolver.Resolve(context.Background(), root)
	require.NoError(t, err)
	return closure
}

func TestBuildCytoscapeGraph(t *testing.T) {
	// App -> Lib -> Shared
	closure := resolveFake(t, map[string][]string{
		"/repo/App/App.csproj": {"/repo/Lib/Lib.csproj"},
		"/repo/Lib/Lib.csproj": {"/repo/Shared/Shared.csproj"},
	}, "/repo/App/App.csproj")

	cytoGraph := BuildCytoscapeGraph(closure, -1)

	require.Len(t, cytoGraph.Nodes, 3)
	require.Len(t, cytoGraph.Edges, 2)

	root := cytoGraph.Nodes[0].Data
	assert.Equal(t, "App", root.Name)
	assert.Equal(t, "root", root.Type)
	assert.Equal(t, "/repo/App/App.csproj", root.Path)

	for _, node := range cytoGraph.Nodes[1:] {
		assert.Equal(t, "dependency", node.Data.Type)
	}

	assert.Equal(t, CytoscapeEdgeData{
		ID:     "/repo/App/App.csproj->/repo/Lib/Lib.csproj",
		Source: "/repo/App/App.csproj",
		Target: "/repo/Lib/Lib.csproj",
		Type:   "direct",
	}, cytoGraph.Edges[0].Data)
	assert.Equal(t, "transitive", cytoGraph.Edges[1].Data.Type)
}

func TestBuildCytoscapeGraph_MaxDepth(t *testing.T) {
	closure := resolveFake(t, map[string][]string{
		"/repo/App.csproj": {"/repo/Lib.csproj"},
		"/repo/Lib.csproj": {"/repo/Shared.csproj"},
	}, "/repo/App.csproj")

	cytoGraph := BuildCytoscapeGraph(closure, 1)
	assert.Len(t, cytoGraph.Nodes, 2)
	assert.Len(t, cytoGraph.Edges, 1)

	cytoGraph = BuildCytoscapeGraph(closure, 0)
	assert.Len(t, cytoGraph.Nodes, 1)
	assert.Empty(t, cytoGraph.Edges)
}

func TestBuildCytoscapeGraph_MaxDepthUsesShortestDistance(t *testing.T) {
	// A -> B -> C -> D -> E, plus a shortcut A -> C
	closure := resolveFake(t, map[string][]string{
		"/repo/A.csproj": {"/repo/B.csproj", "/repo/C.csproj"},
		"/repo/B.csproj": {"/repo/C.csproj"},
		"/repo/C.csproj": {"/repo/D.csproj"},
		"/repo/D.csproj": {"/repo/E.csproj"},
	}, "/repo/A.csproj")

	cytoGraph := BuildCytoscapeGraph(closure, 3)

	names := make([]string, 0, len(cytoGraph.Nodes))
	for _, node := range cytoGraph.Nodes {
		names = append(names, node.Data.Name)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, names)

	edges := make([]string, 0, len(cytoGraph.Edges))
	for _, edge := range cytoGraph.Edges {
		edges = append(edges, edge.Data.ID)
	}
	assert.Equal(t, []string{
		"/repo/A.csproj->/repo/B.csproj",
		"/repo/A.csproj->/repo/C.csproj",
		"/repo/B.csproj->/repo/C.csproj",
		"/repo/C.csproj->/repo/D.csproj",
		"/repo/D.csproj->/repo/E.csproj",
	}, edges)

	// D is two hops from A, so depth 2 stops before D -> E
	cytoGraph = BuildCytoscapeGraph(closure, 2)
	assert.Len(t, cytoGraph.Nodes, 4)
	assert.Len(t, cytoGraph.Edges, 4)
}

func TestBuildCytoscapeGraph_DiamondAndCycle(t *testing.T) {
	closure := resolveFake(t, map[string][]string{
		"/repo/A.csproj": {"/repo/B.csproj", "/repo/C.csproj"},
		"/repo/B.csproj": {"/repo/D.csproj"},
		"/repo/C.csproj": {"/repo/D.csproj"},
		"/repo/D.csproj": {"/repo/A.csproj"},
	}, "/repo/A.csproj")

	cytoGraph := BuildCytoscapeGraph(closure, -1)

	assert.Len(t, cytoGraph.Nodes, 4, "each project should appear once")
	assert.Len(t, cytoGraph.Edges, 5, "every reference should appear once")
}

func TestBuildCytoscapeGraph_JSON(t *testing.T) {
	closure := resolveFake(t, map[string][]string{}, "/repo/App.csproj")

	data, err := json.Marshal(BuildCytoscapeGraph(closure, -1))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"nodes": [{"data": {"id": "/repo/App.csproj", "name": "App", "path": "/repo/App.csproj", "type": "root"}}],
		"edges": []
	}`, string(data))
}
