package techtree

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
)

// Dangling is a prerequisite id that names no known technology.
type Dangling struct {
	Tech    string
	Missing string
}

// Report summarizes the prerequisite graph.
type Report struct {
	Technologies int
	Edges        int
	Roots        int
	Dangling     []Dangling
	Cycles       [][]string
}

// Analyze builds the prerequisite graph, edges pointing from prerequisite to
// dependent, and reports dangling ids and cycles.
func Analyze(records []Record) (Report, error) {
	g := graph.New(graph.StringHash, graph.Directed())
	for _, r := range records {
		if err := g.AddVertex(r.ID); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return Report{}, fmt.Errorf("add %s: %w", r.ID, err)
		}
	}

	rep := Report{Technologies: len(records)}
	selfLoops := map[string]bool{}
	for _, r := range records {
		if len(r.Prerequisites) == 0 {
			rep.Roots++
		}
		for _, p := range r.Prerequisites {
			if _, err := g.Vertex(p); err != nil {
				rep.Dangling = append(rep.Dangling, Dangling{Tech: r.ID, Missing: p})
				continue
			}
			if p == r.ID {
				selfLoops[p] = true
				continue
			}
			err := g.AddEdge(p, r.ID)
			if errors.Is(err, graph.ErrEdgeAlreadyExists) {
				continue
			}
			if err != nil {
				return Report{}, fmt.Errorf("link %s -> %s: %w", p, r.ID, err)
			}
			rep.Edges++
		}
	}

	sccs, err := graph.StronglyConnectedComponents(g)
	if err != nil {
		return Report{}, fmt.Errorf("cycle detection: %w", err)
	}
	for _, c := range sccs {
		if len(c) > 1 {
			sort.Strings(c)
			rep.Cycles = append(rep.Cycles, c)
		}
	}
	for id := range selfLoops {
		rep.Cycles = append(rep.Cycles, []string{id})
	}
	sort.Slice(rep.Cycles, func(i, j int) bool {
		return rep.Cycles[i][0] < rep.Cycles[j][0]
	})
	sort.Slice(rep.Dangling, func(i, j int) bool {
		if rep.Dangling[i].Tech != rep.Dangling[j].Tech {
			return rep.Dangling[i].Tech < rep.Dangling[j].Tech
		}
		return rep.Dangling[i].Missing < rep.Dangling[j].Missing
	})
	return rep, nil
}

// Lines renders the report as `tech -> missing` lines followed by one
// `cycle: a, b` line per cycle.
func (r Report) Lines() []string {
	lines := make([]string, 0, len(r.Dangling)+len(r.Cycles))
	for _, d := range r.Dangling {
		lines = append(lines, d.Tech+" -> "+d.Missing)
	}
	for _, c := range r.Cycles {
		lines = append(lines, "cycle: "+strings.Join(c, ", "))
	}
	return lines
}
