// Command tk browses a tree loaded from a JSON/YAML file or a directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/treekit/pkg/config"
	"github.com/vanderheijden86/treekit/pkg/debug"
	"github.com/vanderheijden86/treekit/pkg/loader"
	"github.com/vanderheijden86/treekit/pkg/metrics"
	"github.com/vanderheijden86/treekit/pkg/tree"
	"github.com/vanderheijden86/treekit/pkg/ui"
	"github.com/vanderheijden86/treekit/pkg/version"
	"github.com/vanderheijden86/treekit/pkg/watcher"
)

// options holds the parsed command line.
type options struct {
	file       string
	dir        string
	configPath string
	search     string
	watch      bool
	print      bool
	format     string
	depth      int
	hidden     bool
	debug      bool
	metrics    bool
	version    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("tk", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.file, "file", "", "Load the tree from a JSON or YAML file")
	fs.StringVar(&o.dir, "dir", "", "Browse a directory; subdirectories load when expanded")
	fs.StringVar(&o.configPath, "config", "", "Config file (default "+config.ConfigPath()+")")
	fs.StringVar(&o.search, "search", "", "Start with this search applied")
	fs.BoolVar(&o.watch, "watch", false, "Reload -file when it changes")
	fs.BoolVar(&o.print, "print", false, "Print the tree and exit")
	fs.StringVar(&o.format, "format", "text", "Output format for -print: text, json or yaml")
	fs.IntVar(&o.depth, "depth", 1, "Directory levels to load for -print with -dir")
	fs.BoolVar(&o.hidden, "hidden", false, "Include dot files with -dir")
	fs.BoolVar(&o.debug, "debug", false, "Write debug logs to stderr")
	fs.BoolVar(&o.metrics, "metrics", false, "Print timing metrics to stderr on exit")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: tk [options] [path]")
		fmt.Fprintln(stderr, "\nA terminal tree browser with tri-state checkboxes.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if rest := fs.Args(); len(rest) > 0 {
		if o.file != "" || o.dir != "" || len(rest) > 1 {
			return o, errors.New("give one path, either positionally or with -file/-dir")
		}
		info, err := os.Stat(rest[0])
		if err != nil {
			return o, err
		}
		if info.IsDir() {
			o.dir = rest[0]
		} else {
			o.file = rest[0]
		}
	}
	if o.file != "" && o.dir != "" {
		return o, errors.New("-file and -dir are mutually exclusive")
	}
	if o.watch && o.dir != "" {
		return o, errors.New("-watch works with -file only")
	}
	if o.depth < 1 {
		return o, fmt.Errorf("-depth must be at least 1, got %d", o.depth)
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if o.version {
		fmt.Fprintf(stdout, "tk %s\n", version.String())
		return 0
	}
	if o.debug {
		debug.SetOutput(stderr)
		debug.SetEnabled(true)
	}
	if o.metrics {
		defer printMetrics(stderr)
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	interactive := !o.print && isTerminal(os.Stdin) && isTerminal(os.Stdout)
	if o.file == "" && o.dir == "" {
		if !interactive {
			fmt.Fprintln(stderr, "Error: no tree to show; pass -file, -dir or a path")
			return 2
		}
		if o.file, o.dir, err = promptSource(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	ctx := context.Background()
	t, src, err := buildTree(ctx, o, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if !interactive {
		if err := printTree(ctx, stdout, t, src, o, cfg); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	uiOpts := []ui.Option{ui.WithQuery(o.search)}
	if src != nil {
		uiOpts = append(uiOpts, ui.WithDirSource(src))
	}
	if o.file != "" {
		uiOpts = append(uiOpts, ui.WithFile(o.file))
	}
	if o.watch {
		w, err := watcher.New(o.file,
			watcher.WithDebounce(cfg.Debounce()),
			watcher.WithForcePoll(cfg.Watch.ForcePoll),
			watcher.WithOnError(func(err error) { debug.Log("watch: %v", err) }),
		)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			fmt.Fprintf(stderr, "Error: watching %s: %v\n", o.file, err)
			return 1
		}
		defer w.Stop()
		uiOpts = append(uiOpts, ui.WithWatcher(w))
	}

	if err := runTUIProgram(ui.NewModel(t, cfg, uiOpts...)); err != nil {
		fmt.Fprintf(stderr, "Error running tk: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads path, or the default location when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// buildTree loads the initial forest. The DirSource is returned for -dir so
// the caller can load deeper levels.
func buildTree(ctx context.Context, o options, cfg config.Config) (*tree.Tree, *loader.DirSource, error) {
	if o.dir != "" {
		src := loader.NewDirSource(o.dir, loader.WithHidden(o.hidden))
		roots, err := src.Roots(ctx)
		if err != nil {
			return nil, nil, err
		}
		return tree.New(roots, cfg.TreeOptions()...), src, nil
	}
	roots, err := loader.LoadFile(o.file, loader.WithPolicy(cfg.CheckPolicy()))
	if err != nil {
		return nil, nil, err
	}
	return tree.New(roots, cfg.TreeOptions()...), nil, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func printMetrics(w io.Writer) {
	for _, s := range metrics.AllTimingStats() {
		fmt.Fprintf(w, "%-18s n=%-6d avg=%.3fms max=%.3fms total=%.3fms\n",
			s.Name, s.Count, s.AvgMs, s.MaxMs, s.TotalMs)
	}
	for _, g := range metrics.AllGauges() {
		s := g.Stats()
		fmt.Fprintf(w, "%-18s value=%d peak=%d\n", s.Name, s.Value, s.Peak)
	}
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set TK_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TK_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}
				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
