package resolver

import (
	"strings"

	"py2uml/internal/pyast"
)

// RefKind discriminates what a reference resolved to.
type RefKind string

const (
	// RefClass targets an internal class node.
	RefClass RefKind = "class"
	// RefModule targets an internal module node.
	RefModule RefKind = "module"
	// RefExternal carries a display label only; it never becomes a shared
	// graph node.
	RefExternal RefKind = "external"
)

// Ref is the outcome of resolving one base-class reference or import target.
type Ref struct {
	Kind   RefKind `json:"kind"`
	Target string  `json:"target,omitempty"` // node id, internal kinds only
	Label  string  `json:"label"`            // display name
}

type classEntry struct {
	module string // owning module id
	id     string // qualified class node id
}

// Resolver resolves references against a complete, immutable corpus of
// parsed units. It must only be constructed after every unit has finished
// parsing: forward references across files resolve correctly regardless of
// traversal order.
type Resolver struct {
	ownModule string
	modules   map[string]bool
	ordered   []string // module ids in selector order

	// unqualified class name -> entries in corpus order
	classByName map[string][]classEntry
}

// New builds a Resolver over units. ownModule anchors internal-module
// resolution; an empty ownModule disables prefix anchoring.
func New(units []*pyast.SourceUnit, ownModule string) *Resolver {
	r := &Resolver{
		ownModule:   ownModule,
		modules:     make(map[string]bool, len(units)),
		classByName: make(map[string][]classEntry),
	}
	for _, u := range units {
		r.modules[u.Module] = true
		r.ordered = append(r.ordered, u.Module)
		for _, c := range u.Classes {
			name := unqualified(c.Name)
			r.classByName[name] = append(r.classByName[name], classEntry{
				module: u.Module,
				id:     ClassID(u.Module, c.Name),
			})
		}
	}
	return r
}

// ClassID forms the globally unique node id for a class.
func ClassID(module, className string) string {
	return module + "." + className
}

// ResolveBase resolves a base-class reference written in unit.
//
// Same-file classes win over any cross-file match. Among cross-file
// candidates with the same unqualified name, the first in selector order is
// taken; duplicate class names across files are a documented limitation,
// not an error. Anything else is external, labeled with the literal text.
func (r *Resolver) ResolveBase(unit *pyast.SourceUnit, base string) Ref {
	name := unqualified(base)

	for _, c := range unit.Classes {
		if unqualified(c.Name) == name {
			return Ref{Kind: RefClass, Target: ClassID(unit.Module, c.Name), Label: c.Name}
		}
	}

	if entries, ok := r.classByName[name]; ok && len(entries) > 0 {
		return Ref{Kind: RefClass, Target: entries[0].id, Label: name}
	}

	return Ref{Kind: RefExternal, Label: base}
}

// ResolveImport resolves one import declaration to its dependency targets.
// A selective import ("from pkg import a, b") may name several submodules
// and therefore yield several refs; a plain import yields exactly one.
// Unresolvable targets are external, never errors.
func (r *Resolver) ResolveImport(unit *pyast.SourceUnit, imp pyast.ImportDecl) []Ref {
	base := r.normalize(unit, imp)

	if len(imp.Names) > 0 && !imp.IsWildcard {
		var refs []Ref
		matched := false
		for _, name := range imp.Names {
			candidate := name
			if base != "" {
				candidate = base + "." + name
			}
			if id, ok := r.lookupModule(candidate); ok {
				refs = append(refs, Ref{Kind: RefModule, Target: id, Label: id})
				matched = true
			}
		}
		if matched {
			return refs
		}
		// The imported names are symbols, not submodules: the dependency
		// is on the enclosing module itself.
	}

	if base != "" {
		if id, ok := r.lookupModule(base); ok {
			return []Ref{{Kind: RefModule, Target: id, Label: id}}
		}
	}
	return []Ref{{Kind: RefExternal, Label: imp.Path}}
}

// normalize maps an import path to the corpus's dotted module space,
// expanding relative imports against the importing unit's package.
func (r *Resolver) normalize(unit *pyast.SourceUnit, imp pyast.ImportDecl) string {
	if !imp.IsRelative {
		return imp.Path
	}

	dots := 0
	rest := imp.Path
	for strings.HasPrefix(rest, ".") {
		dots++
		rest = rest[1:]
	}

	segments := strings.Split(unit.Module, ".")
	// One dot is the unit's own package; each further dot climbs one level.
	if dots > len(segments) {
		return rest
	}
	pkg := segments[:len(segments)-dots]

	switch {
	case len(pkg) == 0:
		return rest
	case rest == "":
		return strings.Join(pkg, ".")
	default:
		return strings.Join(pkg, ".") + "." + rest
	}
}

// lookupModule maps a dotted path to an analyzed module id.
//
// Exact matches win. Under the own-module anchor the path is retried with
// the anchor stripped, then by nearest prefix: the longest leading segment
// run that names an analyzed module, and failing that the first analyzed
// module (selector order) living under the path. The prefix rules keep
// package-level imports of untracked submodules internal instead of
// misclassifying them as external.
func (r *Resolver) lookupModule(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if r.modules[path] {
		return path, true
	}

	if r.ownModule == "" {
		return "", false
	}
	anchored := path == r.ownModule || strings.HasPrefix(path, r.ownModule+".")
	if !anchored {
		return "", false
	}

	stripped := strings.TrimPrefix(strings.TrimPrefix(path, r.ownModule), ".")
	if stripped != "" && r.modules[stripped] {
		return stripped, true
	}

	for _, candidate := range []string{path, stripped} {
		if candidate == "" {
			continue
		}
		segs := strings.Split(candidate, ".")
		for i := len(segs) - 1; i > 0; i-- {
			prefix := strings.Join(segs[:i], ".")
			if r.modules[prefix] {
				return prefix, true
			}
		}
	}

	for _, candidate := range []string{path, stripped} {
		if candidate == "" {
			continue
		}
		for _, id := range r.ordered {
			if strings.HasPrefix(id, candidate+".") {
				return id, true
			}
		}
	}

	return "", false
}

func unqualified(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
