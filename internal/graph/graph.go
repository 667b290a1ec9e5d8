// Package graph models the dependency graph of an assembly. A graph is
// populated once while the assembly is being built and is read-only
// afterwards, so no locking happens here.
package graph

import "sort"

type Graph struct {
	nodes map[string][]string
	order []string
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string][]string),
	}
}

// Add registers a node and its outgoing edges. Re-adding a node replaces
// its edges; the assembly builder rejects duplicates before they get here.
func (g *Graph) Add(id string, dependencies []string) {
	if _, exists := g.nodes[id]; !exists {
		g.order = append(g.order, id)
	}
	deps := make([]string, len(dependencies))
	copy(deps, dependencies)
	g.nodes[id] = deps
}

func (g *Graph) Has(id string) bool {
	_, exists := g.nodes[id]
	return exists
}

func (g *Graph) Dependencies(id string) []string {
	deps, exists := g.nodes[id]
	if !exists {
		return nil
	}
	result := make([]string, len(deps))
	copy(result, deps)
	return result
}

func (g *Graph) Dependents(id string) []string {
	var dependents []string
	for _, node := range g.order {
		for _, dep := range g.nodes[node] {
			if dep == id {
				dependents = append(dependents, node)
				break
			}
		}
	}
	return dependents
}

// Nodes returns node ids in insertion order.
func (g *Graph) Nodes() []string {
	nodes := make([]string, len(g.order))
	copy(nodes, g.order)
	return nodes
}

func (g *Graph) Size() int {
	return len(g.nodes)
}

// MissingDependencies returns every referenced id that has no node of its
// own, sorted for deterministic error messages.
func (g *Graph) MissingDependencies() []string {
	seen := make(map[string]bool)
	var missing []string

	for _, node := range g.order {
		for _, dep := range g.nodes[node] {
			if _, exists := g.nodes[dep]; !exists && !seen[dep] {
				missing = append(missing, dep)
				seen[dep] = true
			}
		}
	}

	sort.Strings(missing)
	return missing
}
