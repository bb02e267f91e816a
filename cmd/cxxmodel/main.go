package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/cxxmodel/internal/config"
	"github.com/standardbeagle/cxxmodel/internal/debug"
)

var Version = "0.1.0"

// loadConfigWithOverrides loads the project configuration and applies the
// command-line overrides on top of it.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	cfg, err := config.LoadWithRoot(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config for %q: %w", root, err)
	}

	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludes...)
	}
	if dirs := c.StringSlice("include-dir"); len(dirs) > 0 {
		cfg.Index.IncludeDirs = append(cfg.Index.IncludeDirs, dirs...)
	}
	if c.IsSet("workers") {
		cfg.Performance.ParallelFileWorkers = c.Int("workers")
	}
	if c.IsSet("storage") {
		cfg.Storage.Backend = c.String("storage")
	}
	if c.IsSet("local") {
		cfg.Model.Global = !c.Bool("local")
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp() *cli.App {
	var cpuProfile *os.File

	return &cli.App{
		Name:                   "cxxmodel",
		Usage:                  "Build and query a semantic declaration model of C/C++ sources",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (default: current directory)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Only index files matching glob patterns (e.g., --include 'src/**')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/third_party/**')",
			},
			&cli.StringSliceFlag{
				Name:    "include-dir",
				Aliases: []string{"I"},
				Usage:   "Additional include directory for resolving #include directives",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of files parsed in parallel",
			},
			&cli.StringFlag{
				Name:  "storage",
				Usage: "Declaration store backend (memory or sqlite)",
			},
			&cli.BoolFlag{
				Name:  "local",
				Usage: "Build without a global repository; identities are file-local",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Print debug output to stderr",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug output to a log file under the temp directory",
			},
			&cli.StringFlag{
				Name:   "profile-cpu",
				Usage:  "Write CPU profile to file",
				Hidden: true,
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(c.App.ErrWriter)
			}
			if c.Bool("debug-log") {
				debug.EnableDebug = "true"
				path, err := debug.InitDebugLogFile()
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.ErrWriter, "debug log: %s\n", path)
			}
			if path := c.String("profile-cpu"); path != "" {
				f, err := os.Create(filepath.Clean(path))
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(f); err != nil {
					f.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				cpuProfile = f
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if cpuProfile != nil {
				pprof.StopCPUProfile()
				cpuProfile.Close()
			}
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Index the project and report model statistics",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Keep the model current with changes until interrupted",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: indexCommand,
			},
			{
				Name:      "dump",
				Aliases:   []string{"d"},
				Usage:     "List the declarations built from a file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "Only list declarations of this kind",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: dumpCommand,
			},
			{
				Name:      "lookup",
				Aliases:   []string{"l"},
				Usage:     "Find declarations by qualified name",
				ArgsUsage: "<qualified-name>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: lookupCommand,
			},
			{
				Name:   "serve",
				Usage:  "Index the project and answer queries as an MCP server on stdio",
				Action: serveCommand,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
