package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"py2uml/internal/config"
	"py2uml/internal/dot"
	"py2uml/internal/graph"
	"py2uml/internal/pipeline"
	"py2uml/internal/snapshot"
	"py2uml/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:   "py2uml",
		Short: "Generate UML class and dependency diagrams from a Python package",
	}

	dbPath     string
	configPath string

	flagModule  string
	flagIgnore  []string
	flagWorkers int
	flagOut     string
	flagTitle   string
	flagJSON    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "py2uml.db", "Path to the local graph database (SQLite)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")

	for _, cmd := range []*cobra.Command{scanCmd, runCmd} {
		cmd.Flags().StringVarP(&flagModule, "module", "m", "", "Own-module identifier anchoring internal import resolution")
		cmd.Flags().StringSliceVarP(&flagIgnore, "ignore", "i", nil, "Substring patterns excluding files by relative path")
		cmd.Flags().IntVarP(&flagWorkers, "workers", "w", 0, "Parallel parse workers (0 = number of CPUs)")
	}
	for _, cmd := range []*cobra.Command{exportCmd, runCmd} {
		cmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file base name (default from config)")
		cmd.Flags().StringVarP(&flagTitle, "title", "t", "", "Diagram title (default from config)")
		cmd.Flags().BoolVar(&flagJSON, "json", false, "Write a JSON graph snapshot instead of DOT")
	}

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(runCmd)
}

// loadConfig merges the config file with command-line overrides.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Project.Root = args[0]
	}
	if flagModule != "" {
		cfg.Project.Module = flagModule
	}
	if len(flagIgnore) > 0 {
		cfg.Project.Ignore = append(cfg.Project.Ignore, flagIgnore...)
	}
	if flagWorkers > 0 {
		cfg.Project.Workers = flagWorkers
	}
	if flagOut != "" {
		cfg.Output.Path = flagOut
	}
	if flagTitle != "" {
		cfg.Output.Title = flagTitle
	}
	return cfg, nil
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Analyze the package tree and save the graph to the local database",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(args)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		fmt.Printf("Scanning %s...\n", cfg.Project.Root)
		start := time.Now()
		g, report, err := pipeline.New(cfg).Run(context.Background())
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		fmt.Print(report.Summary())
		fmt.Printf("Graph built in %v: %d modules, %d classes.\n",
			time.Since(start), len(g.Modules), len(g.Classes))

		store, err := storage.NewSQLiteStore(dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()

		if err := store.SaveGraph(context.Background(), g, cfg.Output.Title); err != nil {
			log.Fatalf("Failed to save graph: %v", err)
		}
		fmt.Printf("Scan complete. Database: %s\n", dbPath)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored graph as a .dot file or JSON snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(nil)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		store, err := storage.NewSQLiteStore(dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()

		g, title, err := store.LoadGraph(context.Background())
		if err != nil {
			log.Fatalf("Failed to load graph: %v", err)
		}
		if flagTitle != "" {
			title = flagTitle
		} else if title == "" {
			title = cfg.Output.Title
		}

		if err := writeOutput(cfg, g, title); err != nil {
			log.Fatal(err)
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Analyze the package tree and export in one step, without the database",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(args)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		fmt.Printf("Scanning %s...\n", cfg.Project.Root)
		g, report, err := pipeline.New(cfg).Run(context.Background())
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		fmt.Print(report.Summary())

		if err := writeOutput(cfg, g, cfg.Output.Title); err != nil {
			log.Fatal(err)
		}
	},
}

func writeOutput(cfg *config.Config, g *graph.Graph, title string) error {
	if flagJSON {
		out := cfg.Output.Path + ".json"
		if err := snapshot.WriteFile(g, title, out); err != nil {
			return fmt.Errorf("failed to export snapshot: %w", err)
		}
		fmt.Printf("Snapshot written to %s\n", out)
		return nil
	}

	out := cfg.Output.Path + ".dot"
	if err := dot.New().WriteFile(g, title, out); err != nil {
		return fmt.Errorf("failed to export diagram: %w", err)
	}
	fmt.Printf("Diagram written to %s\n", out)
	return nil
}
