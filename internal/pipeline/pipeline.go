// Package pipeline drives the batch analysis: select files, parse every
// unit, then resolve and assemble over the completed corpus.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"py2uml/internal/config"
	"py2uml/internal/graph"
	"py2uml/internal/pyast"
	"py2uml/internal/resolver"
	"py2uml/internal/selector"
)

// FileError is a per-file failure that excluded the file from the corpus
// without aborting the run.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Report summarizes one run. Per-file errors are collected here and
// surfaced at the end instead of aborting, so a large, partially broken
// tree still yields a graph for everything that parsed.
type Report struct {
	FilesSelected int
	FilesParsed   int
	FileErrors    []FileError
}

// Summary renders the report for terminal output.
func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d files selected, %d parsed", r.FilesSelected, r.FilesParsed)
	if len(r.FileErrors) > 0 {
		fmt.Fprintf(&sb, ", %d skipped:\n", len(r.FileErrors))
		for _, fe := range r.FileErrors {
			fmt.Fprintf(&sb, "  %s\n", fe.Error())
		}
	} else {
		sb.WriteString("\n")
	}
	return sb.String()
}

// Pipeline runs the full analysis for one configuration.
type Pipeline struct {
	cfg    *config.Config
	parser *pyast.Parser
}

// New creates a Pipeline. The configuration is validated on Run, before
// any file is touched.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg, parser: pyast.NewParser()}
}

// Run executes selection, parsing, resolution, and assembly. Parsing fans
// out across workers since units are independent; resolution starts only
// after every unit has finished, which is the single hard synchronization
// point of the design.
func (p *Pipeline) Run(ctx context.Context) (*graph.Graph, *Report, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	files, err := selector.New(p.cfg.Project.Root, p.cfg.Project.Ignore).Select()
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	report := &Report{FilesSelected: len(files)}

	units := make([]*pyast.SourceUnit, len(files))
	parseErrs := make([]error, len(files))

	workers := p.cfg.Project.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, f := range files {
		i, f := i, f
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			// Slotted by index: results keep selector order without locking.
			units[i], parseErrs[i] = p.parser.ParseFile(f.AbsPath, f.RelPath)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	corpus := make([]*pyast.SourceUnit, 0, len(files))
	for i, f := range files {
		if parseErrs[i] != nil {
			report.FileErrors = append(report.FileErrors, FileError{Path: f.RelPath, Err: parseErrs[i]})
			continue
		}
		corpus = append(corpus, units[i])
	}
	report.FilesParsed = len(corpus)

	res := resolver.New(corpus, p.cfg.Project.Module)
	g, err := graph.Assemble(corpus, res)
	if err != nil {
		return nil, report, fmt.Errorf("graph assembly failed: %w", err)
	}
	return g, report, nil
}
