package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/cxxmodel/internal/config"
	"github.com/standardbeagle/cxxmodel/internal/debug"
	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/indexing"
	"github.com/standardbeagle/cxxmodel/internal/mcp"
	"github.com/standardbeagle/cxxmodel/internal/project"
)

const suggestionLimit = 5

// openIndexer loads the configuration, opens the session and indexes the
// project. Per-file build failures are reported to stderr and do not stop
// the command.
func openIndexer(c *cli.Context) (*indexing.Indexer, *config.Config, func(), error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, nil, nil, err
	}
	p := project.New()
	s, err := indexing.OpenSession(cfg, p)
	if err != nil {
		return nil, nil, nil, err
	}
	ix := indexing.New(cfg, s, p)
	cleanup := func() {
		ix.Close()
		if err := s.Close(); err != nil {
			debug.LogStore("closing session: %v", err)
		}
	}

	if err := ix.IndexAll(c.Context); err != nil {
		var multi *cxerrors.MultiError
		if !errors.As(err, &multi) {
			cleanup()
			return nil, nil, nil, err
		}
		if !debug.ServeMode {
			fmt.Fprintf(c.App.ErrWriter, "warning: %d files built with errors\n", len(multi.Errors))
			for _, e := range multi.Errors {
				fmt.Fprintf(c.App.ErrWriter, "  %v\n", e)
			}
		}
	}
	return ix, cfg, cleanup, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func indexCommand(c *cli.Context) error {
	start := time.Now()
	ix, cfg, cleanup, err := openIndexer(c)
	if err != nil {
		return err
	}
	defer cleanup()

	st := ix.Stats()
	if c.Bool("json") {
		if err := writeJSON(c.App.Writer, map[string]interface{}{
			"root":          cfg.Project.Root,
			"files":         st.Files,
			"declarations":  st.Declarations,
			"parsed":        st.Parsed,
			"fast_reparsed": st.FastReparsed,
			"failed":        st.Failed,
			"elapsed_ms":    time.Since(start).Milliseconds(),
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(c.App.Writer, "Indexed %d files, %d declarations in %v (%d failed)\n",
			st.Files, st.Declarations, time.Since(start).Round(time.Millisecond), st.Failed)
	}

	if !c.Bool("watch") {
		return nil
	}
	ctx, stop := signalContext(c.Context)
	defer stop()
	fmt.Fprintf(c.App.ErrWriter, "Watching %s for changes, press Ctrl+C to stop\n", cfg.Project.Root)
	return ix.Watch(ctx)
}

func dumpCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("dump requires exactly one file argument")
	}
	ix, cfg, cleanup, err := openIndexer(c)
	if err != nil {
		return err
	}
	defer cleanup()

	path := c.Args().First()
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			if _, statErr := os.Stat(abs); statErr == nil {
				path = abs
			} else {
				path = filepath.Join(cfg.Project.Root, path)
			}
		}
	}
	fi, ok := ix.Project().Lookup(filepath.Clean(path))
	if !ok {
		return fmt.Errorf("file not indexed: %s", c.Args().First())
	}

	kind := c.String("kind")
	var views []mcp.DeclarationView
	for _, d := range fi.Declarations() {
		if kind == "" || strings.EqualFold(d.Kind.String(), kind) {
			views = append(views, mcp.NewDeclarationView(c.Context, ix.Project(), d))
		}
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, views)
	}
	return printViews(c.App.Writer, views, false)
}

func lookupCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("lookup requires exactly one qualified name")
	}
	ix, _, cleanup, err := openIndexer(c)
	if err != nil {
		return err
	}
	defer cleanup()

	name := c.Args().First()
	p := ix.Project()
	var views []mcp.DeclarationView
	for _, d := range p.FindDeclarations(c.Context, name) {
		views = append(views, mcp.NewDeclarationView(c.Context, p, d))
	}
	if len(views) == 0 {
		msg := fmt.Sprintf("no declaration named %s", name)
		if sugg := p.Suggest(name, suggestionLimit); len(sugg) > 0 {
			names := make([]string, len(sugg))
			for i, s := range sugg {
				names[i] = s.QualifiedName
			}
			msg += "; did you mean " + strings.Join(names, ", ") + "?"
		}
		return errors.New(msg)
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, views)
	}
	return printViews(c.App.Writer, views, true)
}

func printViews(w io.Writer, views []mcp.DeclarationView, withFile bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, v := range views {
		loc := v.Position
		if withFile {
			loc = v.File + ":" + v.Position
		}
		extra := v.Visibility
		if len(v.Flags) > 0 {
			if extra != "" {
				extra += " "
			}
			extra += "[" + strings.Join(v.Flags, ",") + "]"
		}
		name := v.QualifiedName
		if v.Include != "" {
			name = v.Include
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", loc, v.Kind, name, v.Type, extra)
	}
	return tw.Flush()
}

func serveCommand(c *cli.Context) error {
	debug.SetServeMode(true)
	defer debug.SetServeMode(false)

	ctx, stop := signalContext(c.Context)
	defer stop()

	ix, cfg, cleanup, err := openIndexer(c)
	if err != nil {
		return debug.Fatal("failed to build model: %v", err)
	}
	defer cleanup()

	if cfg.Index.WatchMode {
		watchErr := make(chan error, 1)
		go func() { watchErr <- ix.Watch(ctx) }()
		defer func() {
			stop()
			if err := <-watchErr; err != nil {
				debug.Log(debug.ComponentServe, "watcher stopped: %v", err)
			}
		}()
	}

	server := mcp.NewServer(ix.Project(), cfg.Project.Root, nil)
	defer server.Shutdown()
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return debug.Fatal("MCP server error: %v", err)
	}
	return nil
}
