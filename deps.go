package hascoq

import (
	"sort"

	"github.com/hascoq/hascoq/ir"
)

// Dependency analysis groups the declarations of a module into
// strongly connected components, ordered so every component precedes
// the components that depend on it.

// SCC is one component of the dependency graph. A component is
// NonRecursive exactly when it is a singleton without a self-edge.
type SCC struct {
	Recursive bool
	// Vertices in source order within the component.
	Decls []int
}

// depGraph is a directed graph over declaration indices. Edges point
// from a declaration to the declarations it references.
type depGraph struct {
	n     int
	edges [][]int
}

func newDepGraph(n int) *depGraph {
	return &depGraph{n: n, edges: make([][]int, n)}
}

func (g *depGraph) addEdge(from, to int) {
	g.edges[from] = append(g.edges[from], to)
}

// normalize sorts adjacency lists and removes duplicate edges so the
// traversal order (and with it the SCC output order) is deterministic.
func (g *depGraph) normalize() {
	for i, adj := range g.edges {
		sort.Ints(adj)
		out := adj[:0]
		for j, v := range adj {
			if j > 0 && adj[j-1] == v {
				continue
			}
			out = append(out, v)
		}
		g.edges[i] = out
	}
}

func (g *depGraph) hasEdge(from, to int) bool {
	for _, v := range g.edges[from] {
		if v == to {
			return true
		}
	}
	return false
}

// sccs computes strongly connected components with an iterative Tarjan
// (an explicit stack; adversarial inputs must not overflow the
// goroutine stack). Tarjan finalizes a component only after everything
// reachable from it, so with edges pointing at dependencies the output
// is already in reverse-topological order of the condensation:
// dependencies first. Vertices are visited in index order, which is
// source order, making ties deterministic.
func (g *depGraph) sccs() []SCC {
	const unvisited = -1
	index := make([]int, g.n)
	lowlink := make([]int, g.n)
	onStack := make([]bool, g.n)
	for i := range index {
		index[i] = unvisited
	}
	var stack []int
	var out []SCC
	next := 0

	type task struct {
		v    int
		edge int // next adjacency position to explore
	}

	for root := 0; root < g.n; root++ {
		if index[root] != unvisited {
			continue
		}
		work := []task{{v: root}}
		for len(work) > 0 {
			t := &work[len(work)-1]
			v := t.v
			if t.edge == 0 {
				index[v] = next
				lowlink[v] = next
				next++
				stack = append(stack, v)
				onStack[v] = true
			}
			advanced := false
			for t.edge < len(g.edges[v]) {
				w := g.edges[v][t.edge]
				t.edge++
				if index[w] == unvisited {
					work = append(work, task{v: w})
					advanced = true
					break
				}
				if onStack[w] && index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
			if advanced {
				continue
			}
			// v is fully explored
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1].v
				if lowlink[v] < lowlink[parent] {
					lowlink[parent] = lowlink[v]
				}
			}
			if lowlink[v] == index[v] {
				var comp []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				sort.Ints(comp)
				recursive := len(comp) > 1 || g.hasEdge(comp[0], comp[0])
				out = append(out, SCC{Recursive: recursive, Decls: comp})
			}
		}
	}
	return out
}

// typeDeclSCCs builds the type-level dependency graph of a module and
// returns its components in emission order.
func typeDeclSCCs(decls []ir.TypeDecl, resolve func(ir.Name) (int, bool)) []SCC {
	g := newDepGraph(len(decls))
	for i, d := range decls {
		var types []ir.Type
		switch d := d.(type) {
		case *ir.DataDecl:
			for _, c := range d.Cons {
				types = append(types, c.Fields...)
			}
		case *ir.TypeSynDecl:
			types = append(types, d.Rhs)
		}
		for _, t := range types {
			for _, name := range ir.TypeConNames(t) {
				if j, ok := resolve(name); ok {
					g.addEdge(i, j)
				}
			}
		}
	}
	g.normalize()
	return g.sccs()
}

// funcDeclSCCs builds the value-level dependency graph of a module and
// returns its components in emission order.
func funcDeclSCCs(decls []*ir.FuncDecl, resolve func(ir.Name) (int, bool)) []SCC {
	g := newDepGraph(len(decls))
	for i, d := range decls {
		params := make([]string, len(d.Pats))
		for k, p := range d.Pats {
			params[k] = p.Ident
		}
		for _, name := range ir.ReferencedNames(d.Rhs, params...) {
			if j, ok := resolve(name); ok {
				g.addEdge(i, j)
			}
		}
	}
	g.normalize()
	return g.sccs()
}
