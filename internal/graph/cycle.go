package graph

// HasCycle reports whether any node can reach itself. Edges to missing
// nodes are skipped; MissingDependencies covers those separately.
func (g *Graph) HasCycle() bool {
	return g.FirstCycle() != nil
}

// FirstCycle returns one cycle as a path ending on its starting node,
// e.g. [a b a], or nil when the graph is acyclic. Nodes are visited in
// insertion order so the reported path is deterministic.
func (g *Graph) FirstCycle() []string {
	visited := make(map[string]bool, len(g.nodes))

	for _, start := range g.order {
		if visited[start] {
			continue
		}
		if path := g.findCycle(start, visited); path != nil {
			return path
		}
	}
	return nil
}

func (g *Graph) findCycle(start string, visited map[string]bool) []string {
	var path []string
	inPath := make(map[string]bool)

	var dfs func(id string) []string
	dfs = func(id string) []string {
		if inPath[id] {
			return closeCycle(path, id)
		}
		if visited[id] {
			return nil
		}

		visited[id] = true
		path = append(path, id)
		inPath[id] = true

		for _, dep := range g.nodes[id] {
			if _, exists := g.nodes[dep]; !exists {
				continue
			}
			if cycle := dfs(dep); cycle != nil {
				return cycle
			}
		}

		path = path[:len(path)-1]
		inPath[id] = false
		return nil
	}

	return dfs(start)
}

// closeCycle trims the prefix of path that is not part of the cycle and
// appends the repeated node.
func closeCycle(path []string, repeated string) []string {
	for i, node := range path {
		if node == repeated {
			cycle := make([]string, 0, len(path)-i+1)
			cycle = append(cycle, path[i:]...)
			return append(cycle, repeated)
		}
	}
	return nil
}
