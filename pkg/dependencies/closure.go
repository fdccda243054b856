package dependencies

import (
	"fmt"
	"sort"
	"time"

	"github.com/platinummonkey/slnreload/pkg/projectpath"
)

// Closure is the set of projects reachable from a root, including the root
type Closure struct {
	root    projectpath.Path
	cmp     projectpath.Comparer
	members map[projectpath.Key]projectpath.Path
	order   []projectpath.Path
	graph   *DependencyGraph
	elapsed time.Duration
}

func (c *Closure) ensureRoot() {
	key := c.cmp.Key(c.root)
	if _, ok := c.members[key]; ok {
		return
	}
	c.members[key] = c.root
	c.order = append(c.order, c.root)
}

// Root returns the project the closure was resolved from
func (c *Closure) Root() projectpath.Path {
	return c.root
}

// Comparer returns the path identity the closure was deduplicated with
func (c *Closure) Comparer() projectpath.Comparer {
	return c.cmp
}

// Len returns the number of projects in the closure
func (c *Closure) Len() int {
	return len(c.members)
}

// Contains reports whether path names a member of the closure
func (c *Closure) Contains(path string) bool {
	p, err := projectpath.Normalize(path)
	if err != nil {
		return false
	}
	_, ok := c.members[c.cmp.Key(p)]
	return ok
}

// Paths returns the members sorted by path
func (c *Closure) Paths() []projectpath.Path {
	paths := make([]projectpath.Path, 0, len(c.members))
	for _, p := range c.members {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

// Order returns the members in depth-first post-order: every project
// appears after the projects it references (cycles excepted), root last.
func (c *Closure) Order() []projectpath.Path {
	out := make([]projectpath.Path, len(c.order))
	copy(out, c.order)
	return out
}

// Graph returns the reference edges recorded while resolving
func (c *Closure) Graph() *DependencyGraph {
	return c.graph
}

// Elapsed returns how long the resolution took
func (c *Closure) Elapsed() time.Duration {
	return c.elapsed
}

// Cycles reports a reference cycle reachable from the root, if any. Cycles
// never fail a resolution; this is diagnostic only.
func (c *Closure) Cycles() []string {
	return c.graph.DetectCircularDependencies(c.root)
}

// Dependencies lists the references of project recorded in the closure.
// With transitive set, every project reachable from it is listed once.
func (c *Closure) Dependencies(project string, transitive bool) ([]Dependency, error) {
	p, err := c.member(project)
	if err != nil {
		return nil, err
	}
	if transitive {
		return c.graph.GetTransitiveDependencies(p), nil
	}
	deps := c.graph.GetDependencies(p)
	if deps == nil {
		deps = make([]Dependency, 0)
	}
	return deps, nil
}

// Dependents lists the closure members that reference project directly
func (c *Closure) Dependents(project string) ([]Dependency, error) {
	p, err := c.member(project)
	if err != nil {
		return nil, err
	}
	return c.graph.GetDependents(p), nil
}

// Edges returns the references recorded between closure members
func (c *Closure) Edges() []Edge {
	return c.graph.Edges()
}

func (c *Closure) member(project string) (projectpath.Path, error) {
	p, err := projectpath.Normalize(project)
	if err != nil {
		return "", err
	}
	known, ok := c.members[c.cmp.Key(p)]
	if !ok {
		return "", fmt.Errorf("%w: %s (root %s)", ErrNotInClosure, p, c.root)
	}
	return known, nil
}

// Equal reports whether both closures hold the same members
func (c *Closure) Equal(other *Closure) bool {
	if other == nil || len(c.members) != len(other.members) {
		return false
	}
	for key := range c.members {
		if _, ok := other.members[key]; !ok {
			return false
		}
	}
	return true
}

// Union merges closures into one ordered list without duplicates. Each
// closure contributes its Order in turn.
func Union(cmp projectpath.Comparer, closures ...*Closure) []projectpath.Path {
	seen := make(map[projectpath.Key]bool)
	result := make([]projectpath.Path, 0)
	for _, c := range closures {
		if c == nil {
			continue
		}
		for _, p := range c.order {
			key := cmp.Key(p)
			if seen[key] {
				continue
			}
			seen[key] = true
			result = append(result, p)
		}
	}
	return result
}
