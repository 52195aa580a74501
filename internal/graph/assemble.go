package graph

import (
	"fmt"

	"py2uml/internal/pyast"
	"py2uml/internal/resolver"
)

// Assemble folds the parsed corpus and its resolutions into a single Graph.
// units must be in selector order; the resulting node and edge order is
// derived from it and from each unit's declaration order.
func Assemble(units []*pyast.SourceUnit, res *resolver.Resolver) (*Graph, error) {
	g := &Graph{
		classIndex:  make(map[string]*ClassNode),
		moduleIndex: make(map[string]*ModuleNode),
	}

	for _, unit := range units {
		mod := &ModuleNode{ID: unit.Module}

		for _, c := range unit.Classes {
			node := &ClassNode{
				ID:         resolver.ClassID(unit.Module, c.Name),
				Name:       c.Name,
				Module:     unit.Module,
				Methods:    c.Methods,
				Attributes: c.Attributes,
			}
			for _, base := range c.Bases {
				node.Bases = append(node.Bases, res.ResolveBase(unit, base))
			}
			// The parser keeps one declaration per qualified name, so a
			// collision here is an assembly bug, not bad input.
			if g.classIndex[node.ID] != nil {
				return nil, fmt.Errorf("duplicate class node id %s", node.ID)
			}
			g.Classes = append(g.Classes, node)
			g.classIndex[node.ID] = node
			mod.Classes = append(mod.Classes, node.ID)
		}

		mod.Functions = unit.Functions

		seen := make(map[string]bool)
		for _, imp := range unit.Imports {
			for _, ref := range res.ResolveImport(unit, imp) {
				// A module does not depend on itself.
				if ref.Kind == resolver.RefModule && ref.Target == unit.Module {
					continue
				}
				key := string(ref.Kind) + "|" + ref.Target + "|" + ref.Label
				if seen[key] {
					continue
				}
				seen[key] = true
				mod.Imports = append(mod.Imports, ref)
			}
		}

		// Module ids derive from distinct relative paths; same reasoning.
		if g.moduleIndex[mod.ID] != nil {
			return nil, fmt.Errorf("duplicate module node id %s", mod.ID)
		}
		g.Modules = append(g.Modules, mod)
		g.moduleIndex[mod.ID] = mod
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the structural invariant that every internal edge
// endpoint references a node present in the graph. A violation is an
// assembly bug, not a property of the input tree.
func (g *Graph) Validate() error {
	for _, m := range g.Modules {
		for _, id := range m.Classes {
			if g.classIndex[id] == nil {
				return fmt.Errorf("module %s lists unknown class %s", m.ID, id)
			}
		}
		for _, ref := range m.Imports {
			if ref.Kind == resolver.RefModule && g.moduleIndex[ref.Target] == nil {
				return fmt.Errorf("module %s has dangling dependency edge to %s", m.ID, ref.Target)
			}
		}
	}
	for _, c := range g.Classes {
		if g.moduleIndex[c.Module] == nil {
			return fmt.Errorf("class %s belongs to unknown module %s", c.ID, c.Module)
		}
		for _, ref := range c.Bases {
			if ref.Kind == resolver.RefClass && g.classIndex[ref.Target] == nil {
				return fmt.Errorf("class %s has dangling inheritance edge to %s", c.ID, ref.Target)
			}
		}
	}
	return nil
}
