package fact

import (
	"fmt"
	"sort"
	"strings"
)

// Handle addresses a fact inside its Graph. Handles are stable for the
// lifetime of the graph.
type Handle uint32

// node is the arena slot behind a Handle.
type node struct {
	typ      Type
	tag      string
	attrs    map[string]string
	children []Handle
	parents  []Handle
	level    int
	line     int64

	// flattened in-order view, valid while flatVersion == Graph.version
	flat        []Handle
	flatVersion uint64
}

// Graph is the arena holding every fact of one document together with the
// attribute index. A Graph is not safe for concurrent mutation.
type Graph struct {
	nodes   []node
	index   *Index
	version uint64
}

// NewGraph creates an empty graph with its root fact at level 0.
func NewGraph() *Graph {
	g := &Graph{index: NewIndex()}
	g.add(TypeRoot, TypeRoot.String(), 0, 0)
	return g
}

// Root returns the handle of the root fact.
func (g *Graph) Root() Handle { return 0 }

// Len returns the number of facts in the arena.
func (g *Graph) Len() int { return len(g.nodes) }

// Index returns the attribute index populated by Put.
func (g *Graph) Index() *Index { return g.index }

// NewFact allocates a fact that is not linked to anything yet.
func (g *Graph) NewFact(typ Type, tag string, level int, line int64) Handle {
	return g.add(typ, tag, level, line)
}

func (g *Graph) add(typ Type, tag string, level int, line int64) Handle {
	g.nodes = append(g.nodes, node{
		typ:   typ,
		tag:   tag,
		attrs: make(map[string]string),
		level: level,
		line:  line,
	})
	g.version++
	return Handle(len(g.nodes) - 1)
}

func (g *Graph) node(h Handle) *node {
	if int(h) >= len(g.nodes) {
		panic(fmt.Sprintf("fact: handle %d out of range (%d facts)", h, len(g.nodes)))
	}
	return &g.nodes[h]
}

// Link makes child a child of parent. The child list of parent and the parent
// list of child are always updated together.
func (g *Graph) Link(parent, child Handle) {
	p, c := g.node(parent), g.node(child)
	p.children = append(p.children, child)
	c.parents = append(c.parents, parent)
	g.version++
}

// AddChild creates a fact one level below parent and links it.
func (g *Graph) AddChild(parent Handle, typ Type, tag string, line int64) Handle {
	h := g.add(typ, tag, g.node(parent).level+1, line)
	g.Link(parent, h)
	return h
}

// Type returns the taxonomy type of the fact.
func (g *Graph) Type(h Handle) Type { return g.node(h).typ }

// Tag returns the element name the fact was created from.
func (g *Graph) Tag(h Handle) string { return g.node(h).tag }

// Level returns the tree depth; the root is on level 0.
func (g *Graph) Level(h Handle) int { return g.node(h).level }

// Line returns the source line used as ordering tie-break.
func (g *Graph) Line(h Handle) int64 { return g.node(h).line }

// IsValue reports whether the fact is a value fact.
func (g *Graph) IsValue(h Handle) bool { return g.node(h).typ == TypeValue }

// Attr returns an attribute value, or "" when it is not set.
func (g *Graph) Attr(h Handle, name string) string { return g.node(h).attrs[name] }

// LookupAttr returns an attribute value and whether it is set.
func (g *Graph) LookupAttr(h Handle, name string) (string, bool) {
	v, ok := g.node(h).attrs[name]
	return v, ok
}

// Attrs returns a copy of the attribute map.
func (g *Graph) Attrs(h Handle) map[string]string {
	src := g.node(h).attrs
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Put sets an attribute and registers the value in the index.
func (g *Graph) Put(h Handle, name, value string) {
	g.node(h).attrs[name] = value
	g.index.Put(value, h)
}

// PutAll sets every attribute of values.
func (g *Graph) PutAll(h Handle, values map[string]string) {
	for k, v := range values {
		g.Put(h, k, v)
	}
}

// Children returns the child handles in document order.
func (g *Graph) Children(h Handle) []Handle {
	return append([]Handle(nil), g.node(h).children...)
}

// ChildrenOfType returns the children with the indicated type.
func (g *Graph) ChildrenOfType(h Handle, typ Type) []Handle {
	var out []Handle
	for _, c := range g.node(h).children {
		if g.nodes[c].typ == typ {
			out = append(out, c)
		}
	}
	return out
}

// Parents returns the parent handles.
func (g *Graph) Parents(h Handle) []Handle {
	return append([]Handle(nil), g.node(h).parents...)
}

// Clear drops attributes, children, parents and the flattened view of a fact
// in one step.
func (g *Graph) Clear(h Handle) {
	n := g.node(h)
	n.attrs = make(map[string]string)
	n.children = nil
	n.parents = nil
	n.flat = nil
	g.version++
}

// Flatten returns the in-order list of the subtree rooted at h, starting with
// h itself. The result is cached until the next structural change anywhere in
// the graph.
func (g *Graph) Flatten(h Handle) []Handle {
	n := g.node(h)
	if n.flat == nil || n.flatVersion != g.version {
		flat := make([]Handle, 0, len(n.children)+1)
		n.flat = g.explode(h, flat)
		n.flatVersion = g.version
	}
	return n.flat
}

func (g *Graph) explode(h Handle, list []Handle) []Handle {
	list = append(list, h)
	for _, c := range g.nodes[h].children {
		list = g.explode(c, list)
	}
	return list
}

// Facts returns the facts of the subtree with one of the indicated types and a
// level in [fromLevel, toLevel].
func (g *Graph) Facts(h Handle, types []Type, fromLevel, toLevel int) []Handle {
	want := make(map[Type]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []Handle
	for _, f := range g.Flatten(h) {
		n := &g.nodes[f]
		if n.level >= fromLevel && n.level <= toLevel && want[n.typ] {
			out = append(out, f)
		}
	}
	return out
}

// FactsOfType returns all facts of the subtree with the indicated type.
func (g *Graph) FactsOfType(h Handle, typ Type) []Handle {
	return g.Facts(h, []Type{typ}, 0, int(^uint(0)>>1))
}

// Compare orders facts by type and then by source line.
func (g *Graph) Compare(a, b Handle) int {
	na, nb := g.node(a), g.node(b)
	switch {
	case na.typ != nb.typ:
		if na.typ < nb.typ {
			return -1
		}
		return 1
	case na.line < nb.line:
		return -1
	case na.line > nb.line:
		return 1
	}
	return 0
}

// Sort orders handles in place using Compare.
func (g *Graph) Sort(handles []Handle) {
	sort.SliceStable(handles, func(i, j int) bool { return g.Compare(handles[i], handles[j]) < 0 })
}

// DataType classifies the "value" attribute of the fact.
func (g *Graph) DataType(h Handle) DataType {
	return ClassifyValue(g.Attr(h, AttrValue))
}

// ParameterName returns the parameterName attribute.
func (g *Graph) ParameterName(h Handle) string {
	return g.Attr(h, AttrParameterName)
}

// String renders a fact for debugging.
func (g *Graph) String(h Handle) string {
	n := g.node(h)
	keys := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s(%d)[%d]{", n.typ, n.level, len(n.children))
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%s", k, n.attrs[k])
	}
	sb.WriteString("}")
	return sb.String()
}
