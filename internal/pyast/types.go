package pyast

import (
	"path"
	"strings"
)

// SourceUnit is the structural summary of one analyzed Python file.
// It is immutable once produced by the parser.
type SourceUnit struct {
	Module    string       `json:"module"`   // dotted identifier, e.g. "pkg.sub.mod"
	Path      string       `json:"path"`     // relative slash path the unit was parsed from
	Classes   []ClassDecl  `json:"classes"`  // declaration order, nested classes qualified
	Imports   []ImportDecl `json:"imports"`  // declaration order
	Functions []string     `json:"functions"`
}

// ClassDecl is one class definition found in a unit. Nested classes carry a
// qualified name ("Outer.Inner") so names stay unique within the unit.
type ClassDecl struct {
	Name       string   `json:"name"`
	Bases      []string `json:"bases"` // exactly as written, left-to-right
	Methods    []string `json:"methods,omitempty"`
	Attributes []string `json:"attributes,omitempty"`
}

// ImportDecl is one import statement.
type ImportDecl struct {
	Path       string   `json:"path"`            // module path as written ("." prefixes kept for relative imports)
	Alias      string   `json:"alias,omitempty"` // "import x as y"
	Names      []string `json:"names,omitempty"` // "from x import a, b"
	IsRelative bool     `json:"is_relative,omitempty"`
	IsWildcard bool     `json:"is_wildcard,omitempty"`
}

// addClass records a class declaration. Python rebinds a redefined name,
// so a later declaration replaces an earlier one with the same qualified
// name in this unit, together with the replaced declaration's nested
// classes.
func (u *SourceUnit) addClass(decl ClassDecl) {
	kept := u.Classes[:0]
	for _, c := range u.Classes {
		if c.Name == decl.Name || strings.HasPrefix(c.Name, decl.Name+".") {
			continue
		}
		kept = append(kept, c)
	}
	u.Classes = append(kept, decl)
}

// ModuleID derives the dotted module identifier from a relative slash path.
func ModuleID(relPath string) string {
	p := strings.TrimSuffix(relPath, path.Ext(relPath))
	return strings.ReplaceAll(strings.Trim(p, "/"), "/", ".")
}
