package coreir

import "github.com/plasma-lang/plasmac/internal/ids"

// ComputeSCCs finds the strongly connected components of the call
// graph (edges: caller -> callee, collected from e_call and
// e_constant(c_func) sites) using Tarjan's algorithm, and stores them
// on c in dependency order: a callee's SCC is always finished (and
// therefore appears earlier in the result) before its caller's SCC,
// because Tarjan's algorithm only roots a component once every node
// reachable from it has already been explored. SCCs() then returns
// exactly the order the arity-inference driver needs.
func (c *Core) ComputeSCCs() {
	t := &tarjan{
		core:    c,
		index:   make(map[ids.FuncID]int),
		lowlink: make(map[ids.FuncID]int),
		onStack: make(map[ids.FuncID]bool),
	}
	for fid := range c.Functions {
		if _, visited := t.index[fid]; !visited {
			t.strongConnect(fid)
		}
	}
	c.sccs = t.result
}

type tarjan struct {
	core    *Core
	counter int
	index   map[ids.FuncID]int
	lowlink map[ids.FuncID]int
	onStack map[ids.FuncID]bool
	stack   []ids.FuncID
	result  [][]ids.FuncID
}

func (t *tarjan) strongConnect(v ids.FuncID) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range calleesOf(t.core, v) {
		if _, ok := t.core.Functions[w]; !ok {
			continue // imported/unknown function: not part of this call graph
		}
		if _, visited := t.index[w]; !visited {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var component []ids.FuncID
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		t.result = append(t.result, component)
	}
}

// calleesOf returns every FuncID called or referenced-as-a-value from
// fn's body, in document order with duplicates allowed (the SCC
// algorithm doesn't care about multiplicity).
func calleesOf(c *Core, fid ids.FuncID) []ids.FuncID {
	fn, ok := c.Functions[fid]
	if !ok || fn.Body == nil {
		return nil
	}
	var out []ids.FuncID
	var walk func(*Expr)
	walk = func(e *Expr) {
		if e == nil {
			return
		}
		switch k := e.Kind.(type) {
		case ESequence:
			for _, sub := range k.Exprs {
				walk(sub)
			}
		case ELet:
			walk(k.Rhs)
			walk(k.Body)
		case ETuple:
			for _, sub := range k.Exprs {
				walk(sub)
			}
		case ECall:
			out = append(out, k.Func)
			for _, arg := range k.Args {
				walk(arg)
			}
		case EConstant:
			if cf, ok := k.Const.(CFunc); ok {
				out = append(out, cf.Func)
			}
		case EConstruction:
			for _, arg := range k.Args {
				walk(arg)
			}
		case EMatch:
			for _, mc := range k.Cases {
				walk(mc.Body)
			}
		}
	}
	walk(fn.Body.Expr)
	return out
}
