package pyast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `import os
import os.path as osp
from typing import List, Optional
from . import sibling
from .helpers import util
from pkg.sub import thing
from queue import *

CONSTANT = 1


def top_level(x):
    return x


class Base:
    kind = "base"

    def __init__(self, name):
        self.name = name
        self.size = 0

    def describe(self):
        return self.name


class Child(Base, abc.ABC, Generic[T]):
    def __init__(self):
        super().__init__("child")
        self.extra = []

    class Meta:
        ordering = "name"


@decorated
def helper():
    import json
    return json
`

func TestParser_Parse(t *testing.T) {
	p := NewParser()
	unit, err := p.Parse([]byte(sampleSource), "pkg/mod.py")
	require.NoError(t, err)

	t.Run("Module identifier", func(t *testing.T) {
		assert.Equal(t, "pkg.mod", unit.Module)
		assert.Equal(t, "pkg/mod.py", unit.Path)
	})

	t.Run("Imports", func(t *testing.T) {
		require.Len(t, unit.Imports, 8)

		assert.Equal(t, ImportDecl{Path: "os"}, unit.Imports[0])
		assert.Equal(t, ImportDecl{Path: "os.path", Alias: "osp"}, unit.Imports[1])
		assert.Equal(t, ImportDecl{Path: "typing", Names: []string{"List", "Optional"}}, unit.Imports[2])
		assert.Equal(t, ImportDecl{Path: ".", Names: []string{"sibling"}, IsRelative: true}, unit.Imports[3])
		assert.Equal(t, ImportDecl{Path: ".helpers", Names: []string{"util"}, IsRelative: true}, unit.Imports[4])
		assert.Equal(t, ImportDecl{Path: "pkg.sub", Names: []string{"thing"}}, unit.Imports[5])
		assert.Equal(t, ImportDecl{Path: "queue", IsWildcard: true}, unit.Imports[6])

		// Inline import inside a function body still counts.
		assert.Equal(t, ImportDecl{Path: "json"}, unit.Imports[7])
	})

	t.Run("Classes", func(t *testing.T) {
		require.Len(t, unit.Classes, 3)

		base := unit.Classes[0]
		assert.Equal(t, "Base", base.Name)
		assert.Empty(t, base.Bases)
		assert.Equal(t, []string{"__init__", "describe"}, base.Methods)
		assert.Equal(t, []string{"kind", "name", "size"}, base.Attributes)

		child := unit.Classes[1]
		assert.Equal(t, "Child", child.Name)
		assert.Equal(t, []string{"Base", "abc.ABC", "Generic"}, child.Bases)
		assert.Equal(t, []string{"extra"}, child.Attributes)

		meta := unit.Classes[2]
		assert.Equal(t, "Child.Meta", meta.Name)
		assert.Empty(t, meta.Bases)
		assert.Equal(t, []string{"ordering"}, meta.Attributes)
	})

	t.Run("Functions", func(t *testing.T) {
		assert.Equal(t, []string{"top_level", "helper"}, unit.Functions)
	})
}

func TestParser_DecoratedClass(t *testing.T) {
	p := NewParser()
	unit, err := p.Parse([]byte("@register\nclass Handler(Base):\n    pass\n"), "h.py")
	require.NoError(t, err)

	require.Len(t, unit.Classes, 1)
	assert.Equal(t, "Handler", unit.Classes[0].Name)
	assert.Equal(t, []string{"Base"}, unit.Classes[0].Bases)
}

func TestParser_RedefinedClass(t *testing.T) {
	p := NewParser()

	t.Run("Last declaration wins", func(t *testing.T) {
		src := `class A:
    def old(self):
        pass


class A(Base):
    def new(self):
        pass


class Base:
    pass
`
		unit, err := p.Parse([]byte(src), "m.py")
		require.NoError(t, err)

		require.Len(t, unit.Classes, 2)
		a := unit.Classes[0]
		assert.Equal(t, "A", a.Name)
		assert.Equal(t, []string{"Base"}, a.Bases)
		assert.Equal(t, []string{"new"}, a.Methods)
		assert.Equal(t, "Base", unit.Classes[1].Name)
	})

	t.Run("Replacement drops nested classes", func(t *testing.T) {
		src := `class Outer:
    class Inner:
        pass


class Outer:
    pass
`
		unit, err := p.Parse([]byte(src), "m.py")
		require.NoError(t, err)

		require.Len(t, unit.Classes, 1)
		assert.Equal(t, "Outer", unit.Classes[0].Name)
	})
}

func TestParser_SyntaxError(t *testing.T) {
	p := NewParser()
	_, err := p.Parse([]byte("class (:\n  ???"), "bad.py")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.py")
}

func TestParser_EmptyFile(t *testing.T) {
	p := NewParser()
	unit, err := p.Parse([]byte(""), "empty.py")
	require.NoError(t, err)
	assert.Empty(t, unit.Classes)
	assert.Empty(t, unit.Imports)
	assert.Empty(t, unit.Functions)
}

func TestModuleID(t *testing.T) {
	assert.Equal(t, "a", ModuleID("a.py"))
	assert.Equal(t, "pkg.sub.mod", ModuleID("pkg/sub/mod.py"))
}
