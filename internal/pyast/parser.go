package pyast

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// DefaultMaxFileSize guards against pathological inputs.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Parser turns Python source text into SourceUnits using tree-sitter.
// Each Parse call creates its own tree-sitter parser, so a Parser is safe
// for concurrent use.
type Parser struct {
	maxFileSize int64
}

// NewParser creates a Parser with default limits.
func NewParser() *Parser {
	return &Parser{maxFileSize: DefaultMaxFileSize}
}

// ParseFile reads and parses a single source file. relPath is the path
// relative to the scan root and determines the module identifier.
func (p *Parser) ParseFile(absPath, relPath string) (*SourceUnit, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", relPath, err)
	}
	if info.Size() > p.maxFileSize {
		return nil, fmt.Errorf("file %s exceeds size limit (%d bytes)", relPath, info.Size())
	}
	src, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", relPath, err)
	}
	return p.Parse(src, relPath)
}

// Parse parses source text into a SourceUnit. It is a pure transformation:
// no file-system access, no shared state.
func (p *Parser) Parse(src []byte, relPath string) (*SourceUnit, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", relPath, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("syntax error in %s", relPath)
	}

	unit := &SourceUnit{
		Module: ModuleID(relPath),
		Path:   relPath,
	}

	extractImports(root, src, unit, 0)

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "class_definition":
			extractClass(child, src, "", unit)
		case "function_definition":
			if name := nodeField(child, "name", src); name != "" {
				unit.Functions = append(unit.Functions, name)
			}
		case "decorated_definition":
			if def := child.ChildByFieldName("definition"); def != nil {
				switch def.Type() {
				case "class_definition":
					extractClass(def, src, "", unit)
				case "function_definition":
					if name := nodeField(def, "name", src); name != "" {
						unit.Functions = append(unit.Functions, name)
					}
				}
			}
		}
	}

	return unit, nil
}

const maxImportDepth = 64

// extractImports walks the whole tree, not just top-level statements:
// Python code routinely imports inside function bodies to break cycles,
// and those imports still induce module dependencies.
func extractImports(node *sitter.Node, src []byte, unit *SourceUnit, depth int) {
	if node == nil || depth > maxImportDepth {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "import_statement":
			extractImportStatement(child, src, unit)
		case "import_from_statement":
			extractImportFrom(child, src, unit)
		default:
			extractImports(child, src, unit, depth+1)
		}
	}
}

// extractImportStatement handles "import a.b" and "import a.b as c".
func extractImportStatement(node *sitter.Node, src []byte, unit *SourceUnit) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			unit.Imports = append(unit.Imports, ImportDecl{Path: text(child, src)})
		case "aliased_import":
			var path, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name":
					path = text(gc, src)
				case "identifier":
					alias = text(gc, src)
				}
			}
			if path != "" {
				unit.Imports = append(unit.Imports, ImportDecl{Path: path, Alias: alias})
			}
		}
	}
}

// extractImportFrom handles "from x import a, b as c" including relative
// ("from . import x") and wildcard ("from x import *") forms.
func extractImportFrom(node *sitter.Node, src []byte, unit *SourceUnit) {
	decl := ImportDecl{}
	sawImport := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import":
			sawImport = true
		case "relative_import":
			decl.IsRelative = true
			var prefix, name string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "import_prefix":
					prefix = text(gc, src)
				case "dotted_name":
					name = text(gc, src)
				}
			}
			decl.Path = prefix + name
		case "dotted_name":
			if !sawImport {
				decl.Path = text(child, src)
			} else {
				decl.Names = append(decl.Names, text(child, src))
			}
		case "identifier":
			if sawImport {
				decl.Names = append(decl.Names, text(child, src))
			}
		case "aliased_import":
			var name string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if (gc.Type() == "dotted_name" || gc.Type() == "identifier") && name == "" {
					name = text(gc, src)
				}
			}
			if name != "" {
				decl.Names = append(decl.Names, name)
			}
		case "wildcard_import":
			decl.IsWildcard = true
		}
	}

	if decl.Path == "" && decl.IsRelative {
		decl.Path = "."
	}
	if decl.Path != "" {
		unit.Imports = append(unit.Imports, decl)
	}
}

// extractClass records one class declaration and recurses into nested
// classes, qualifying their names with the enclosing class name.
func extractClass(node *sitter.Node, src []byte, prefix string, unit *SourceUnit) {
	name := nodeField(node, "name", src)
	if name == "" {
		return
	}
	if prefix != "" {
		name = prefix + "." + name
	}

	decl := ClassDecl{Name: name}

	if args := node.ChildByFieldName("superclasses"); args != nil {
		decl.Bases = extractBases(args, src)
	}

	body := node.ChildByFieldName("body")
	var nested []*sitter.Node
	if body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			switch child.Type() {
			case "function_definition":
				extractMethod(child, src, &decl)
			case "decorated_definition":
				if def := child.ChildByFieldName("definition"); def != nil {
					switch def.Type() {
					case "function_definition":
						extractMethod(def, src, &decl)
					case "class_definition":
						nested = append(nested, def)
					}
				}
			case "class_definition":
				nested = append(nested, child)
			case "expression_statement":
				if child.ChildCount() > 0 {
					stmt := child.Child(0)
					if stmt.Type() == "assignment" || stmt.Type() == "augmented_assignment" {
						if attr := assignmentTarget(stmt, src); attr != "" {
							decl.Attributes = appendUnique(decl.Attributes, attr)
						}
					}
				}
			}
		}
	}

	unit.addClass(decl)

	// Nested classes follow their parent in declaration order.
	for _, n := range nested {
		extractClass(n, src, name, unit)
	}
}

// extractBases collects base-class references from an argument_list,
// preserving source order. Keyword arguments (metaclass=...) are not bases.
func extractBases(args *sitter.Node, src []byte) []string {
	var bases []string
	for i := 0; i < int(args.ChildCount()); i++ {
		arg := args.Child(i)
		switch arg.Type() {
		case "identifier", "attribute":
			bases = append(bases, text(arg, src))
		case "subscript":
			// Generic[T], Protocol[X]: the base is the value before the brackets.
			if v := arg.ChildByFieldName("value"); v != nil {
				bases = append(bases, text(v, src))
			}
		}
	}
	return bases
}

// extractMethod records a method name and, for __init__, mines
// "self.x = ..." assignments for instance attributes.
func extractMethod(node *sitter.Node, src []byte, decl *ClassDecl) {
	name := nodeField(node, "name", src)
	if name == "" {
		return
	}
	decl.Methods = append(decl.Methods, name)

	if name == "__init__" {
		if body := node.ChildByFieldName("body"); body != nil {
			extractSelfAssignments(body, src, decl, 0)
		}
	}
}

func extractSelfAssignments(node *sitter.Node, src []byte, decl *ClassDecl, depth int) {
	if node == nil || depth > maxImportDepth {
		return
	}
	if node.Type() == "assignment" {
		if left := node.ChildByFieldName("left"); left != nil && left.Type() == "attribute" {
			obj := left.ChildByFieldName("object")
			attr := left.ChildByFieldName("attribute")
			if obj != nil && attr != nil && text(obj, src) == "self" {
				decl.Attributes = appendUnique(decl.Attributes, text(attr, src))
			}
		}
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		extractSelfAssignments(node.Child(i), src, decl, depth+1)
	}
}

// assignmentTarget returns the identifier on the left of a class-body
// assignment, or "" when the target is not a plain name.
func assignmentTarget(node *sitter.Node, src []byte) string {
	left := node.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return ""
	}
	return text(left, src)
}

func nodeField(node *sitter.Node, field string, src []byte) string {
	if n := node.ChildByFieldName(field); n != nil {
		return text(n, src)
	}
	return ""
}

func text(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
