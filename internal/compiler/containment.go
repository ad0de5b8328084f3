package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/cityq/internal/schema"
)

// CycleWarning reports recursive containment in a mapping.
//
// Recursion is legal (building parts contain building parts), but it bounds
// LOD search in "all" mode by the schema's containment depth rather than by
// the data, so it is worth knowing about.
type CycleWarning struct {
	Path    []string `json:"path"`    // type names in Clark notation, first repeated last
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeContainment finds cycles in the containment graph of m. Nodes are
// types; an object property adds an edge from its declaring type and every
// subtype to every concrete subtype of its target.
//
// Strongly connected components are found with Tarjan's algorithm. Each
// component with more than one type, or a type containing itself, becomes
// one warning. Warnings are ordered by their first type name.
func AnalyzeContainment(m *schema.Mapping) []CycleWarning {
	graph := buildContainmentGraph(m)

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Path[0] < warnings[j].Path[0] })
	return warnings
}

// containmentGraph maps a type name to the names of types it may contain.
// Neighbours are sorted so that traversal is deterministic.
type containmentGraph map[string][]string

func buildContainmentGraph(m *schema.Mapping) containmentGraph {
	graph := make(containmentGraph)
	for _, t := range m.Types() {
		from := t.Name.String()
		seen := make(map[string]bool)
		graph[from] = []string{}
		for _, dp := range m.AllProperties(t) {
			target, ok := m.Target(dp.Property)
			if !ok {
				continue
			}
			for _, sub := range m.ConcreteSubtypes(target) {
				to := sub.Name.String()
				if !seen[to] {
					seen[to] = true
					graph[from] = append(graph[from], to)
				}
			}
		}
		sort.Strings(graph[from])
	}
	return graph
}

func hasSelfLoop(node string, graph containmentGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC returns the strongly connected components of graph, each with
// its members sorted.
func tarjanSCC(graph containmentGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of a component
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []string, graph containmentGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Type contains itself: %s → %s", name, name),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Recursive containment: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks from the first member of scc along edges inside
// the component until it returns to the start.
func reconstructCyclePath(scc []string, graph containmentGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
