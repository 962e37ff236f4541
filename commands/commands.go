// Package commands defines the dsv-scripts command set and the shared
// machinery that binds command-line arguments into resolved file pairs.
package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DiverseStardewValley/dsv-scripts/config"
	"github.com/DiverseStardewValley/dsv-scripts/fileio"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/symfony-cli/console"
)

// setupExitCode is reserved for configuration failures (for example a missing
// or rejected API credential), so scripts can tell them apart from the
// positive changed-file and warning counts.
const setupExitCode = 255

// Spec describes one invocable command. The set of specs is fixed at build
// time; see All.
type Spec struct {
	Name       string
	Usage      string
	Extensions []string
	WithCopy   bool
	WithForce  bool
	Run        RunFunc
}

// RunFunc is the transform loop of a command. It receives the bound
// invocation and reports how many files it changed and how many warnings it
// accumulated. Per-file problems are counted as warnings, never returned as
// errors; a returned error aborts the command.
type RunFunc func(*Invocation) (Result, error)

// Result is the outcome of a command run.
type Result struct {
	Changed  int
	Warnings int
}

// Invocation carries everything a command's Run needs: the resolved file
// pairs, the copy predicate, the loaded config, the injected logger, and the
// writer for human-facing output.
type Invocation struct {
	Pairs      []fileio.FilePair
	ShouldCopy func(string) bool
	Verbose    bool
	Config     *config.Config
	Log        zerolog.Logger
	Out        io.Writer
}

// SetupError aborts a command before any file is touched and maps to
// setupExitCode.
type SetupError struct {
	Reason string
}

func (e *SetupError) Error() string {
	return e.Reason
}

// specs is the full command inventory, registered statically.
var specs = []Spec{
	minifyJSONSpec,
	removeBlankLinesSpec,
	tinifyPNGsSpec,
}

// All returns the console commands for every registered spec.
func All() []*console.Command {
	cmds := make([]*console.Command, 0, len(specs))
	for _, spec := range specs {
		cmds = append(cmds, newCommand(spec))
	}
	return cmds
}

// newCommand wraps a spec in a console command with the uniform flag surface.
func newCommand(spec Spec) *console.Command {
	flags := []console.Flag{
		&console.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Name of the input folder."},
		&console.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Name of the output folder."},
	}
	if spec.WithCopy {
		flags = append(flags, &console.StringFlag{Name: "copy", Aliases: []string{"c"}, Usage: "Files to copy as-is from input to output."})
	}
	if spec.WithForce {
		flags = append(flags, &console.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Force execute. (May overwrite files!)"})
	}
	flags = append(flags,
		&console.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Enable verbose console output."},
		&console.StringFlag{Name: "config", Usage: "Path to a dsv.yaml config file."},
	)

	return &console.Command{
		Name:        spec.Name,
		Usage:       spec.Usage,
		Description: fmt.Sprintf("dsv-scripts %s [options] [PATHS...]\n\n%s", spec.Name, pathsHelp(spec.Extensions)),
		Flags:       flags,
		Action: func(c *console.Context) error {
			return execute(c, spec)
		},
	}
}

// execute binds the command line for a spec and runs its transform loop.
func execute(c *console.Context, spec Spec) error {
	verbose := c.Bool("verbose")
	log := newLogger(c.App.ErrWriter, verbose)

	cfg, err := config.LoadPrefer(c.String("config"))
	if err != nil {
		return console.Exit(fmt.Sprintf("Failed to load config: %v", err), 1)
	}

	copyPattern := ""
	if spec.WithCopy {
		copyPattern = c.String("copy")
	}
	force := false
	if spec.WithForce {
		force = c.Bool("force")
	}

	binding, err := fileio.Bind(fileio.Options{
		Paths:       c.Args().Slice(),
		InputDir:    firstNonEmpty(c.String("input"), cfg.Input, "."),
		OutputDir:   firstNonEmpty(c.String("output"), cfg.Output, "."),
		CopyPattern: copyPattern,
		Force:       force,
		Verbose:     verbose,
		Extensions:  spec.Extensions,
		Logger:      log,
	})
	if err != nil {
		return console.Exit(err.Error(), 1)
	}
	log.Debug().Str("input", binding.InputDir).Str("output", binding.OutputDir).Msg("resolved directories")

	res, err := spec.Run(&Invocation{
		Pairs:      binding.Pairs,
		ShouldCopy: binding.ShouldCopy,
		Verbose:    binding.Verbose,
		Config:     cfg,
		Log:        log,
		Out:        c.App.Writer,
	})
	if err != nil {
		var setupErr *SetupError
		if errors.As(err, &setupErr) {
			return console.Exit(setupErr.Error(), setupExitCode)
		}
		return console.Exit(err.Error(), 1)
	}
	return exitFor(res)
}

// exitCode maps a result onto the process exit code. Warnings win over the
// changed-file count so callers notice problems first; zero means a clean
// no-op.
func exitCode(res Result) int {
	if res.Warnings > 0 {
		return res.Warnings
	}
	return res.Changed
}

func exitFor(res Result) error {
	if code := exitCode(res); code != 0 {
		return console.Exit("", code)
	}
	return nil
}

// newLogger builds the leveled logger handed to every command. Debug lines
// only show up with --verbose.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// displayPath shortens abs for human output, relative to the working
// directory when possible.
func displayPath(abs string) string {
	wd, err := os.Getwd()
	if err != nil {
		return abs
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return abs
	}
	return rel
}

func pathsHelp(exts []string) string {
	specific := ""
	if len(exts) > 0 {
		specific = " ." + strings.Join(exts, " or .")
	}
	return fmt.Sprintf("Paths to specific%s files.\nIf omitted, will scan the current directory.", specific)
}

// fileHasContent reports whether path exists with exactly the given bytes.
func fileHasContent(path string, data []byte) bool {
	existing, err := os.ReadFile(path)
	return err == nil && bytes.Equal(existing, data)
}

func pluralS(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// sizeMarkup renders a signed byte count in binary units, colored by whether
// any space was actually saved.
func sizeMarkup(n int64) string {
	if n < 0 {
		return fmt.Sprintf("<fg=red>-%s</>", humanize.IBytes(uint64(-n)))
	}
	return fmt.Sprintf("<info>%s</>", humanize.IBytes(uint64(n)))
}

// printTaskSummary writes the closing lines shared by the size-accounting
// commands, e.g. "Minification complete." plus a processed-file total.
func printTaskSummary(w io.Writer, task string, res Result, bytesSaved int64) {
	if res.Warnings > 0 {
		fmt.Fprintf(w, "<fg=red>%s complete with %d warning(s).</>", task, res.Warnings)
	} else {
		fmt.Fprintf(w, "<info>%s complete.</>", task)
	}
	if res.Changed == 0 && res.Warnings == 0 {
		fmt.Fprint(w, " (All files were already up-to-date.)")
	}
	fmt.Fprintln(w)

	if res.Changed > 0 {
		fmt.Fprintf(w, "Processed <info>%d file%s</>, saving a total of %s.\n",
			res.Changed, pluralS(res.Changed), sizeMarkup(bytesSaved))
	}
}
