package graph

import (
	"py2uml/internal/resolver"
)

// ClassNode is one internal class in the final graph. Its ID (the
// module-qualified name) is unique across the whole graph.
type ClassNode struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`   // in-unit name, nested classes qualified ("Outer.Inner")
	Module     string         `json:"module"` // owning module id
	Methods    []string       `json:"methods,omitempty"`
	Attributes []string       `json:"attributes,omitempty"`
	Bases      []resolver.Ref `json:"bases,omitempty"` // inheritance edges, declaration order
}

// ModuleNode is one internal module. Imports holds the deduplicated
// dependency edges: module-level dependency is a set, not a multiset.
type ModuleNode struct {
	ID        string         `json:"id"`
	Classes   []string       `json:"classes,omitempty"` // class node ids, declaration order
	Functions []string       `json:"functions,omitempty"`
	Imports   []resolver.Ref `json:"imports,omitempty"`
}

// Graph is the full assembled result. Slice order is derived from selector
// file order and in-unit declaration order, so iteration is stable and the
// rendered output reproducible. A Graph is immutable once assembled.
type Graph struct {
	Modules []*ModuleNode `json:"modules"`
	Classes []*ClassNode  `json:"classes"`

	classIndex  map[string]*ClassNode
	moduleIndex map[string]*ModuleNode
}

// Class returns the class node with the given id, or nil.
func (g *Graph) Class(id string) *ClassNode {
	return g.classIndex[id]
}

// Module returns the module node with the given id, or nil.
func (g *Graph) Module(id string) *ModuleNode {
	return g.moduleIndex[id]
}

// Reindex rebuilds the id lookup maps from the node slices. Needed after a
// Graph is reconstructed from a snapshot or store.
func (g *Graph) Reindex() {
	g.classIndex = make(map[string]*ClassNode, len(g.Classes))
	for _, c := range g.Classes {
		g.classIndex[c.ID] = c
	}
	g.moduleIndex = make(map[string]*ModuleNode, len(g.Modules))
	for _, m := range g.Modules {
		g.moduleIndex[m.ID] = m
	}
}
