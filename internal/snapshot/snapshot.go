// Package snapshot provides a versioned, machine-readable JSON export of an
// assembled graph, validated against an embedded JSON Schema.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"py2uml/internal/graph"
)

// Version identifies the snapshot format.
const Version = "1"

// Snapshot is the serialized form of a Graph plus its diagram title.
type Snapshot struct {
	Version string              `json:"version"`
	Title   string              `json:"title,omitempty"`
	Modules []*graph.ModuleNode `json:"modules"`
	Classes []*graph.ClassNode  `json:"classes"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("snapshot.schema.json", strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile("snapshot.schema.json")
	})
	return schema, schemaErr
}

// Encode serializes g to indented JSON after validating the result against
// the snapshot schema.
func Encode(g *graph.Graph, title string) ([]byte, error) {
	snap := Snapshot{
		Version: Version,
		Title:   title,
		Modules: g.Modules,
		Classes: g.Classes,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode reconstructs a Graph and its title from snapshot JSON.
func Decode(data []byte) (*graph.Graph, string, error) {
	if err := Validate(data); err != nil {
		return nil, "", err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, "", fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != Version {
		return nil, "", fmt.Errorf("unsupported snapshot version %q", snap.Version)
	}
	g := &graph.Graph{Modules: snap.Modules, Classes: snap.Classes}
	g.Reindex()
	if err := g.Validate(); err != nil {
		return nil, "", fmt.Errorf("snapshot failed graph validation: %w", err)
	}
	return g, snap.Title, nil
}

// Validate checks raw snapshot JSON against the embedded schema.
func Validate(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile snapshot schema: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("snapshot is not valid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("snapshot schema validation: %w", err)
	}
	return nil
}

// WriteFile encodes g and writes the snapshot to path.
func WriteFile(g *graph.Graph, title, path string) error {
	data, err := Encode(g, title)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a snapshot from path.
func ReadFile(path string) (*graph.Graph, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Decode(data)
}
