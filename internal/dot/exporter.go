// Package dot serializes an assembled graph to the Graphviz DOT language:
// one cluster per module, UML-style class records, dashed dependency edges
// and empty-arrowhead inheritance edges.
package dot

import (
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"

	"py2uml/internal/graph"
	"py2uml/internal/resolver"
)

var idSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Exporter renders a Graph to DOT text. Output is byte-identical across
// runs for the same Graph.
type Exporter struct{}

// New creates an Exporter.
func New() *Exporter {
	return &Exporter{}
}

// Export renders g with the given diagram title.
func (e *Exporter) Export(g *graph.Graph, title string) string {
	var sb strings.Builder
	sb.WriteString("digraph UmlDiagram {\n")
	if title != "" {
		fmt.Fprintf(&sb, "  label=<<B>%s</B>>\n  labelloc=t\n", html.EscapeString(title))
	}
	sb.WriteString("  node[shape=record, style=filled, fillcolor=gray95]\n")
	sb.WriteString("  nodesep=\"0.5\"\n  ranksep=\"5.0\"\n  compound=true\n")

	clusterIdx := make(map[string]int, len(g.Modules))
	anchors := make(map[string]string, len(g.Modules))

	for i, m := range g.Modules {
		clusterIdx[m.ID] = i
		fmt.Fprintf(&sb, "\n  subgraph cluster%d{\n    label = <Module: <B>%s</B>>\n    labeljust=l\n",
			i, html.EscapeString(m.ID))

		for _, classID := range m.Classes {
			c := g.Class(classID)
			sb.WriteString(e.classRecord(c))
		}

		if len(m.Classes) > 0 {
			anchors[m.ID] = classNodeID(m.Classes[0])
		}
		if len(m.Functions) > 0 {
			sb.WriteString(e.functionsRecord(m))
			anchors[m.ID] = functionsNodeID(m.ID)
		}
		if anchors[m.ID] == "" {
			// Module with neither classes nor functions still needs an
			// attachment point for dependency edges.
			anchor := sanitize(m.ID) + "Anchor"
			fmt.Fprintf(&sb, "    %s [shape=point style=invis]\n", anchor)
			anchors[m.ID] = anchor
		}

		sb.WriteString("  }\n")
	}
	sb.WriteString("\n")

	var externalFolders []string
	folderSeen := make(map[string]bool)
	for _, m := range g.Modules {
		end := anchors[m.ID]
		endCluster := clusterIdx[m.ID]
		for _, ref := range m.Imports {
			switch ref.Kind {
			case resolver.RefModule:
				start := anchors[ref.Target]
				fmt.Fprintf(&sb, "  %s -> %s[arrowhead=vee style=dashed ltail=cluster%d lhead=cluster%d tailport=s]\n",
					start, end, clusterIdx[ref.Target], endCluster)
			case resolver.RefExternal:
				folder := "ext_" + sanitize(ref.Label)
				if !folderSeen[folder] {
					folderSeen[folder] = true
					externalFolders = append(externalFolders, folder)
					fmt.Fprintf(&sb, "  %s [shape=\"folder\" label=\"%s\"]\n", folder, escape(ref.Label))
				}
				fmt.Fprintf(&sb, "  %s -> %s[arrowhead=vee style=dashed lhead=cluster%d tailport=s]\n",
					folder, end, endCluster)
			}
		}
	}

	// Inheritance edges. External bases get a fresh label-only terminal per
	// edge so unrelated classes never appear to converge on one node.
	externalBase := 0
	for _, c := range g.Classes {
		child := classNodeID(c.ID)
		for _, ref := range c.Bases {
			switch ref.Kind {
			case resolver.RefClass:
				fmt.Fprintf(&sb, "  %s -> %s[arrowhead=empty headport=s tailport=n]\n",
					child, classNodeID(ref.Target))
			case resolver.RefExternal:
				terminal := fmt.Sprintf("xbase%d", externalBase)
				externalBase++
				fmt.Fprintf(&sb, "  %s [shape=box style=dashed label=\"%s\"]\n", terminal, escape(ref.Label))
				fmt.Fprintf(&sb, "  %s -> %s[arrowhead=empty headport=s tailport=n]\n", child, terminal)
			}
		}
	}

	if len(externalFolders) > 0 {
		fmt.Fprintf(&sb, "\n  {rank = same; %s}\n", strings.Join(externalFolders, "; "))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// WriteFile renders g and writes the result to path.
func (e *Exporter) WriteFile(g *graph.Graph, title, path string) error {
	if err := os.WriteFile(path, []byte(e.Export(g, title)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// classRecord renders one class as an HTML-table record listing its
// attributes and methods.
func (e *Exporter) classRecord(c *graph.ClassNode) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "    %s [\n", classNodeID(c.ID))
	sb.WriteString("      shape=plain\n      label=<<table border=\"0\" cellborder=\"1\" cellspacing=\"0\" cellpadding=\"4\">\n")
	fmt.Fprintf(&sb, "        <tr> <td> <b>%s</b> </td> </tr>\n", html.EscapeString(c.Name))

	if len(c.Attributes) > 0 {
		sb.WriteString("        <tr> <td>\n          <table border=\"0\" cellborder=\"0\" cellspacing=\"0\">\n")
		sb.WriteString("            <tr> <td align=\"left\">+ property</td> </tr>\n")
		for _, attr := range c.Attributes {
			fmt.Fprintf(&sb, "            <tr> <td align=\"left\">- %s</td> </tr>\n", html.EscapeString(attr))
		}
		sb.WriteString("          </table>\n        </td> </tr>\n")
	}

	if len(c.Methods) > 0 {
		sb.WriteString("        <tr> <td>\n          <table border=\"0\" cellborder=\"0\" cellspacing=\"0\">\n")
		sb.WriteString("            <tr> <td align=\"left\">+ method</td> </tr>\n")
		for _, method := range c.Methods {
			fmt.Fprintf(&sb, "            <tr> <td align=\"left\">- %s</td> </tr>\n", html.EscapeString(method))
		}
		sb.WriteString("          </table>\n        </td> </tr>\n")
	}

	sb.WriteString("      </table>>]\n")
	return sb.String()
}

// functionsRecord renders a module's free functions as one folder-shaped
// record.
func (e *Exporter) functionsRecord(m *graph.ModuleNode) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "    %s [\n", functionsNodeID(m.ID))
	sb.WriteString("      shape=\"folder\"\n      label=<<table border=\"0\" cellborder=\"1\" cellspacing=\"0\" cellpadding=\"4\">\n")
	sb.WriteString("        <tr> <td align=\"left\">+ functions</td> </tr>\n")
	for _, fn := range m.Functions {
		fmt.Fprintf(&sb, "        <tr> <td align=\"left\">- %s</td> </tr>\n", html.EscapeString(fn))
	}
	sb.WriteString("      </table>>]\n")
	return sb.String()
}

func classNodeID(id string) string {
	return sanitize(id) + "Class"
}

func functionsNodeID(module string) string {
	return sanitize(module) + "Functions"
}

func sanitize(s string) string {
	return idSanitizer.ReplaceAllString(s, "_")
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
