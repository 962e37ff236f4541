package fileio

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Discover expands rawPaths into the sorted, scope-relative list of files a
// command should process. Directory arguments are searched recursively, file
// arguments must pass the extension filter, and any argument that resolves
// outside scopeDir is skipped. An empty exts set matches every file; an empty
// rawPaths list defaults to the scope directory itself. The result is
// deduplicated and sorted by absolute path, so the same tree always yields
// the same sequence.
func Discover(rawPaths []string, exts []string, scopeDir string, log zerolog.Logger) ([]string, error) {
	allowed := normalizeExts(exts)
	scope, err := ResolveDir(scopeDir, false)
	if err != nil {
		return nil, err
	}
	if len(rawPaths) == 0 {
		rawPaths = []string{scope}
	}

	found := make(map[string]struct{})
	for _, raw := range rawPaths {
		abs, info, err := resolvePath(raw)
		if err != nil {
			return nil, err
		}
		if !withinDir(abs, scope) {
			log.Debug().Str("path", abs).Msg("path is not in the relevant directory, ignoring")
			continue
		}
		switch {
		case info.IsDir():
			if err := collectFiles(abs, allowed, found); err != nil {
				return nil, err
			}
		case matchesExt(abs, allowed):
			found[abs] = struct{}{}
		default:
			log.Debug().Str("path", abs).Msg("path has an irrelevant file extension, ignoring")
		}
	}

	absPaths := make([]string, 0, len(found))
	for p := range found {
		absPaths = append(absPaths, p)
	}
	sort.Strings(absPaths)

	rels := make([]string, 0, len(absPaths))
	for _, p := range absPaths {
		rel, err := filepath.Rel(scope, p)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// resolvePath resolves raw to a symlink-normalized absolute path, requiring it
// to exist.
func resolvePath(raw string) (string, os.FileInfo, error) {
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", nil, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, &NotFoundError{Path: abs}
		}
		return "", nil, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", nil, err
	}
	return resolved, info, nil
}

// withinDir reports whether path is dir itself or a descendant of it. Both
// arguments must already be absolute and symlink-normalized.
func withinDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func collectFiles(dir string, allowed map[string]struct{}, found map[string]struct{}) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if matchesExt(path, allowed) {
			found[path] = struct{}{}
		}
		return nil
	})
}

func matchesExt(path string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := allowed[ext]
	return ok
}

// normalizeExts lowercases the filter entries and strips any leading dots, so
// "JSON" and ".json" both mean the json suffix. An empty result means every
// extension is allowed.
func normalizeExts(exts []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.Trim(ext, "."))
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}
	return allowed
}
