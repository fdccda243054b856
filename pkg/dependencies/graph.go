package dependencies

import (
	"sort"

	"github.com/platinummonkey/slnreload/pkg/projectpath"
)

// Dependency represents one reference edge target
type Dependency struct {
	Project string `json:"project"`
	Type    string `json:"type"` // "direct" or "transitive"
}

// Node represents a project in the dependency graph
type Node struct {
	Path       projectpath.Path
	References []projectpath.Path
}

// DependencyGraph records the reference edges seen during a resolution
type DependencyGraph struct {
	cmp   projectpath.Comparer
	nodes map[projectpath.Key]*Node
	edges map[projectpath.Key][]projectpath.Key // key -> list of references
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph(cmp projectpath.Comparer) *DependencyGraph {
	return &DependencyGraph{
		cmp:   cmp,
		nodes: make(map[projectpath.Key]*Node),
		edges: make(map[projectpath.Key][]projectpath.Key),
	}
}

// AddNode adds a project and its references to the graph
func (g *DependencyGraph) AddNode(project projectpath.Path, refs []projectpath.Path) {
	key := g.cmp.Key(project)
	g.nodes[key] = &Node{
		Path:       project,
		References: refs,
	}

	edges := make([]projectpath.Key, 0, len(refs))
	for _, ref := range refs {
		edges = append(edges, g.cmp.Key(ref))
	}
	g.edges[key] = edges
}

// GetNode retrieves a node from the graph
func (g *DependencyGraph) GetNode(project projectpath.Path) *Node {
	return g.nodes[g.cmp.Key(project)]
}

// Len returns the number of nodes
func (g *DependencyGraph) Len() int {
	return len(g.nodes)
}

// GetDependencies returns the direct references of a project
func (g *DependencyGraph) GetDependencies(project projectpath.Path) []Dependency {
	node := g.GetNode(project)
	if node == nil {
		return nil
	}

	deps := make([]Dependency, 0, len(node.References))
	for _, ref := range node.References {
		deps = append(deps, Dependency{Project: string(ref), Type: "direct"})
	}
	return deps
}

// GetTransitiveDependencies returns every project reachable from project,
// each listed once, excluding project itself
func (g *DependencyGraph) GetTransitiveDependencies(project projectpath.Path) []Dependency {
	start := g.cmp.Key(project)
	visited := map[projectpath.Key]bool{start: true}
	result := make([]Dependency, 0)

	var traverse func(projectpath.Key)
	traverse = func(key projectpath.Key) {
		node := g.nodes[key]
		if node == nil {
			return
		}

		for _, ref := range node.References {
			refKey := g.cmp.Key(ref)
			if visited[refKey] {
				continue
			}
			visited[refKey] = true
			result = append(result, Dependency{
				Project: string(ref),
				Type:    "transitive",
			})
			traverse(refKey)
		}
	}

	traverse(start)
	return result
}

// GetDependents returns all projects that directly reference project,
// sorted by path
func (g *DependencyGraph) GetDependents(project projectpath.Path) []Dependency {
	target := g.cmp.Key(project)
	dependents := make([]Dependency, 0)

	for nodeKey, edges := range g.edges {
		for _, edge := range edges {
			if edge == target {
				if node, ok := g.nodes[nodeKey]; ok {
					dependents = append(dependents, Dependency{
						Project: string(node.Path),
						Type:    "direct",
					})
				}
				break
			}
		}
	}

	sort.Slice(dependents, func(i, j int) bool { return dependents[i].Project < dependents[j].Project })
	return dependents
}

// DetectCircularDependencies returns the first reference cycle reachable
// from project, starting and ending with the same path, or nil.
func (g *DependencyGraph) DetectCircularDependencies(project projectpath.Path) []string {
	path := make([]projectpath.Key, 0)
	visited := make(map[projectpath.Key]bool)
	onStack := make(map[projectpath.Key]int)

	var cycle []projectpath.Key
	var hasCycle func(projectpath.Key) bool
	hasCycle = func(key projectpath.Key) bool {
		visited[key] = true
		onStack[key] = len(path)
		path = append(path, key)

		for _, dep := range g.edges[key] {
			if idx, ok := onStack[dep]; ok {
				cycle = append(append([]projectpath.Key{}, path[idx:]...), dep)
				return true
			}
			if !visited[dep] && hasCycle(dep) {
				return true
			}
		}

		delete(onStack, key)
		path = path[:len(path)-1]
		return false
	}

	if !hasCycle(g.cmp.Key(project)) {
		return nil
	}

	result := make([]string, 0, len(cycle))
	for _, key := range cycle {
		if node, ok := g.nodes[key]; ok {
			result = append(result, string(node.Path))
		} else {
			result = append(result, string(key))
		}
	}
	return result
}

// Edge is a directed reference from one project to another
type Edge struct {
	From projectpath.Path `json:"from"`
	To   projectpath.Path `json:"to"`
}

// Edges returns every recorded edge, sorted by source then declaration order
func (g *DependencyGraph) Edges() []Edge {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })

	edges := make([]Edge, 0)
	for _, node := range nodes {
		for _, ref := range node.References {
			edges = append(edges, Edge{From: node.Path, To: ref})
		}
	}
	return edges
}
