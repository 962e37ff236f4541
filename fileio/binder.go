package fileio

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog"
)

// neverMatch cannot match any non-empty path, so an absent copy pattern
// compiles to a predicate that always says no.
const neverMatch = `$^`

// FilePair couples an input file with the output path derived from its
// scope-relative location.
type FilePair struct {
	Input  string
	Output string
}

// Options carries the uniform argument surface shared by all file-processing
// commands.
type Options struct {
	Paths       []string // positional file/directory arguments
	InputDir    string   // -i; empty means the current directory
	OutputDir   string   // -o; empty means the current directory
	CopyPattern string   // -c; empty means nothing is copied verbatim
	Force       bool     // -f
	Verbose     bool     // -v
	Extensions  []string // the command's extension filter
	Logger      zerolog.Logger
}

// Binding is what a command's transform loop consumes.
type Binding struct {
	Pairs      []FilePair
	ShouldCopy func(path string) bool
	Verbose    bool
	InputDir   string
	OutputDir  string
}

// Bind resolves the input/output scope, discovers the relevant files and
// prepares the output tree: parent directories under the output scope are
// created up front so transforms can write without further checks. The copy
// pattern is compiled once, before any directory is touched.
func Bind(opts Options) (*Binding, error) {
	pattern := opts.CopyPattern
	if pattern == "" {
		pattern = neverMatch
	}
	copyRe, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid copy pattern %q: %w", opts.CopyPattern, err)
	}

	in, out, err := ResolveInputOutput(opts.InputDir, opts.OutputDir, opts.Force)
	if err != nil {
		return nil, err
	}
	rels, err := Discover(opts.Paths, opts.Extensions, in, opts.Logger)
	if err != nil {
		return nil, err
	}

	pairs := make([]FilePair, 0, len(rels))
	for _, rel := range rels {
		output := filepath.Join(out, rel)
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return nil, fmt.Errorf("creating output directory for %q: %w", rel, err)
		}
		pairs = append(pairs, FilePair{Input: filepath.Join(in, rel), Output: output})
	}
	opts.Logger.Info().Msgf("Found %d files to check and/or process.", len(pairs))

	return &Binding{
		Pairs:      pairs,
		ShouldCopy: copyRe.MatchString,
		Verbose:    opts.Verbose,
		InputDir:   in,
		OutputDir:  out,
	}, nil
}
