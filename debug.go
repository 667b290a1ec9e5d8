package loom

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/loomdi/loom/internal/scope"
)

type GraphInfo struct {
	Components []ComponentInfo
}

type ComponentInfo struct {
	Key          string
	Scope        string
	Dependencies []string
	Dependents   []string
	Instantiated bool
}

// Graph returns a structured snapshot of the assembly graph and the
// container's instantiation state, sorted by key.
func (c *Container) Graph() GraphInfo {
	keys := c.internal.Keys()
	sort.Strings(keys)

	asm := c.internal.Assembly()
	graph := asm.Graph()
	components := make([]ComponentInfo, 0, len(keys))

	for _, key := range keys {
		info := ComponentInfo{
			Key:          key,
			Scope:        scope.Singleton.String(),
			Dependencies: graph.Dependencies(key),
			Dependents:   graph.Dependents(key),
			Instantiated: c.internal.Instantiated(key),
		}
		if def, err := asm.Definition(key); err == nil {
			info.Scope = def.Scope.String()
			if def.HasValue {
				info.Instantiated = true
			}
		}
		components = append(components, info)
	}

	return GraphInfo{Components: components}
}

func (c *Container) PrintGraph() {
	c.FprintGraph(os.Stdout)
}

func (c *Container) FprintGraph(w io.Writer) {
	info := c.Graph()

	if len(info.Components) == 0 {
		_, _ = fmt.Fprintln(w, "(empty assembly)")
		return
	}

	for _, comp := range info.Components {
		status := "○"
		if comp.Instantiated {
			status = "●"
		}

		if len(comp.Dependencies) == 0 {
			_, _ = fmt.Fprintf(w, "%s %s [%s]\n", status, comp.Key, comp.Scope)
		} else {
			_, _ = fmt.Fprintf(
				w, "%s %s [%s] ← %s\n",
				status, comp.Key, comp.Scope, strings.Join(comp.Dependencies, ", "),
			)
		}
	}
}

func (c *Container) SprintGraph() string {
	var sb strings.Builder
	c.FprintGraph(&sb)
	return sb.String()
}

func (c *Container) PrintGraphDOT() {
	c.FprintGraphDOT(os.Stdout)
}

func (c *Container) FprintGraphDOT(w io.Writer) {
	info := c.Graph()

	_, _ = fmt.Fprintln(w, "digraph assembly {")
	_, _ = fmt.Fprintln(w, "  rankdir=LR;")
	_, _ = fmt.Fprintln(w, "  node [shape=box];")

	for _, comp := range info.Components {
		style := ""
		if comp.Instantiated {
			style = ", style=filled, fillcolor=lightblue"
		}
		_, _ = fmt.Fprintf(w, "  %q [label=%q%s];\n", comp.Key, dotLabel(comp.Key), style)
	}

	_, _ = fmt.Fprintln(w)

	for _, comp := range info.Components {
		for _, dep := range comp.Dependencies {
			_, _ = fmt.Fprintf(w, "  %q -> %q;\n", comp.Key, dep)
		}
	}

	_, _ = fmt.Fprintln(w, "}")
}

func (c *Container) SprintGraphDOT() string {
	var sb strings.Builder
	c.FprintGraphDOT(&sb)
	return sb.String()
}

// dotLabel shortens a component key for display: drop the pointer marker
// and the package path prefix.
func dotLabel(key string) string {
	key = strings.ReplaceAll(key, "*", "")
	if idx := strings.LastIndex(key, "/"); idx != -1 {
		key = key[idx+1:]
	}
	return key
}
