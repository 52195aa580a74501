package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"py2uml/internal/pyast"
)

func corpus() []*pyast.SourceUnit {
	return []*pyast.SourceUnit{
		{
			Module: "pkg.a",
			Classes: []pyast.ClassDecl{
				{Name: "A", Bases: []string{"B"}},
				{Name: "B"}, // shadows pkg.b.B for references inside pkg.a
			},
		},
		{
			Module: "pkg.b",
			Classes: []pyast.ClassDecl{
				{Name: "B"},
				{Name: "Outer"},
				{Name: "Outer.Inner"},
			},
		},
		{
			Module: "pkg.sub.c",
			Classes: []pyast.ClassDecl{
				{Name: "C"},
			},
		},
	}
}

func TestResolveBase(t *testing.T) {
	units := corpus()
	r := New(units, "pkg")

	t.Run("Same-file match wins over cross-file", func(t *testing.T) {
		ref := r.ResolveBase(units[0], "B")
		assert.Equal(t, RefClass, ref.Kind)
		assert.Equal(t, "pkg.a.B", ref.Target)
	})

	t.Run("Cross-file match", func(t *testing.T) {
		ref := r.ResolveBase(units[2], "Outer")
		assert.Equal(t, RefClass, ref.Kind)
		assert.Equal(t, "pkg.b.Outer", ref.Target)
	})

	t.Run("Ambiguity broken by corpus order", func(t *testing.T) {
		// B exists in pkg.a and pkg.b; from pkg.sub.c the first corpus
		// match is taken, deterministically.
		ref := r.ResolveBase(units[2], "B")
		assert.Equal(t, RefClass, ref.Kind)
		assert.Equal(t, "pkg.a.B", ref.Target)
	})

	t.Run("Nested class by unqualified name", func(t *testing.T) {
		ref := r.ResolveBase(units[2], "Inner")
		assert.Equal(t, RefClass, ref.Kind)
		assert.Equal(t, "pkg.b.Outer.Inner", ref.Target)
	})

	t.Run("Dotted base matches by last segment", func(t *testing.T) {
		ref := r.ResolveBase(units[0], "models.Outer")
		assert.Equal(t, RefClass, ref.Kind)
		assert.Equal(t, "pkg.b.Outer", ref.Target)
	})

	t.Run("Unresolvable base is external with literal label", func(t *testing.T) {
		ref := r.ResolveBase(units[0], "dict")
		assert.Equal(t, RefExternal, ref.Kind)
		assert.Equal(t, "dict", ref.Label)
		assert.Empty(t, ref.Target)

		ref = r.ResolveBase(units[0], "abc.ABC")
		assert.Equal(t, RefExternal, ref.Kind)
		assert.Equal(t, "abc.ABC", ref.Label)
	})
}

func TestResolveImport(t *testing.T) {
	units := corpus()
	r := New(units, "pkg")

	t.Run("Exact module match", func(t *testing.T) {
		refs := r.ResolveImport(units[0], pyast.ImportDecl{Path: "pkg.b"})
		assert.Equal(t, []Ref{{Kind: RefModule, Target: "pkg.b", Label: "pkg.b"}}, refs)
	})

	t.Run("Selective import names a submodule", func(t *testing.T) {
		refs := r.ResolveImport(units[0], pyast.ImportDecl{Path: "pkg", Names: []string{"b"}})
		assert.Equal(t, []Ref{{Kind: RefModule, Target: "pkg.b", Label: "pkg.b"}}, refs)
	})

	t.Run("Selective import of a symbol falls back to the module", func(t *testing.T) {
		refs := r.ResolveImport(units[0], pyast.ImportDecl{Path: "pkg.b", Names: []string{"B"}})
		assert.Equal(t, []Ref{{Kind: RefModule, Target: "pkg.b", Label: "pkg.b"}}, refs)
	})

	t.Run("Relative import against unit package", func(t *testing.T) {
		refs := r.ResolveImport(units[0], pyast.ImportDecl{Path: ".", Names: []string{"b"}, IsRelative: true})
		assert.Equal(t, []Ref{{Kind: RefModule, Target: "pkg.b", Label: "pkg.b"}}, refs)
	})

	t.Run("Relative import climbing a level", func(t *testing.T) {
		refs := r.ResolveImport(units[2], pyast.ImportDecl{Path: "..", Names: []string{"b"}, IsRelative: true})
		assert.Equal(t, []Ref{{Kind: RefModule, Target: "pkg.b", Label: "pkg.b"}}, refs)
	})

	t.Run("Package import resolves to nearest tracked module", func(t *testing.T) {
		refs := r.ResolveImport(units[1], pyast.ImportDecl{Path: "pkg.sub"})
		assert.Equal(t, []Ref{{Kind: RefModule, Target: "pkg.sub.c", Label: "pkg.sub.c"}}, refs)
	})

	t.Run("Stdlib import is external, not an error", func(t *testing.T) {
		refs := r.ResolveImport(units[0], pyast.ImportDecl{Path: "os"})
		assert.Equal(t, []Ref{{Kind: RefExternal, Label: "os"}}, refs)

		refs = r.ResolveImport(units[0], pyast.ImportDecl{Path: "os.path", Names: []string{"join"}})
		assert.Equal(t, []Ref{{Kind: RefExternal, Label: "os.path"}}, refs)
	})

	t.Run("Wildcard import resolves the module path", func(t *testing.T) {
		refs := r.ResolveImport(units[0], pyast.ImportDecl{Path: "pkg.b", IsWildcard: true})
		assert.Equal(t, []Ref{{Kind: RefModule, Target: "pkg.b", Label: "pkg.b"}}, refs)
	})
}

func TestResolveImport_NoOwnModule(t *testing.T) {
	units := corpus()
	r := New(units, "")

	// Exact ids still resolve, but prefix anchoring is disabled.
	refs := r.ResolveImport(units[0], pyast.ImportDecl{Path: "pkg.b"})
	assert.Equal(t, RefModule, refs[0].Kind)

	refs = r.ResolveImport(units[1], pyast.ImportDecl{Path: "pkg.sub"})
	assert.Equal(t, RefExternal, refs[0].Kind)
}
