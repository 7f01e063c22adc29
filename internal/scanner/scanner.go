package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/pygenii/genii/pkg/config"
	"github.com/pygenii/genii/pkg/parser"
)

// Scanner turns command-line arguments into the list of modules to analyze.
type Scanner struct {
	config    *config.Config
	recursive bool

	// patterns are config exclusions, matched relative to the scanned root.
	patterns gitignore.Matcher
	// gitignores are keyed by repository root.
	gitignores map[string]gitignore.Matcher
}

// NewScanner creates a new module scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Scanner{
		config:     cfg,
		recursive:  cfg.Analysis.Recursive,
		gitignores: make(map[string]gitignore.Matcher),
	}

	if len(cfg.Exclude.Patterns) > 0 {
		ps := make([]gitignore.Pattern, 0, len(cfg.Exclude.Patterns))
		for _, p := range cfg.Exclude.Patterns {
			ps = append(ps, gitignore.ParsePattern(p, nil))
		}
		s.patterns = gitignore.NewMatcher(ps)
	}
	return s
}

// SetRecursive overrides the configured recursion flag.
func (s *Scanner) SetRecursive(recursive bool) {
	s.recursive = recursive
}

// Expand resolves each argument (~ and $VAR expansion, then glob expansion)
// and collects the Python modules it names. Directories are walked only when
// the scanner is recursive. The result is deduplicated and sorted.
func (s *Scanner) Expand(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var modules []string
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		modules = append(modules, abs)
	}

	for _, arg := range args {
		matches, err := filepath.Glob(ExpandPath(arg))
		if err != nil {
			return nil, err
		}
		for _, item := range matches {
			info, err := os.Stat(item)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if !s.recursive {
					continue
				}
				found, err := s.ScanDir(item)
				if err != nil {
					return nil, err
				}
				for _, f := range found {
					add(f)
				}
				continue
			}
			if ok, _ := s.ScanFile(item); ok {
				add(item)
			}
		}
	}

	slices.Sort(modules)
	return modules, nil
}

// envRef matches $NAME and ${NAME} references.
var envRef = regexp.MustCompile(`\$(\w+|\{[^}]*\})`)

// ExpandPath expands a leading ~ and $VAR / ${VAR} references. References to
// unset variables are left exactly as written.
func ExpandPath(arg string) string {
	if arg == "~" || strings.HasPrefix(arg, "~/") || strings.HasPrefix(arg, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			arg = home + arg[1:]
		}
	}
	return envRef.ReplaceAllStringFunc(arg, func(ref string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(ref[1:], "{"), "}")
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return ref
	})
}

// IsModule reports whether path names an analyzable Python module.
func (s *Scanner) IsModule(path string) bool {
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return false
	}
	if s.config.Analysis.SkipDunder && IsDunder(path) {
		return false
	}
	return true
}

// IsDunder reports whether the module name starts with a double underscore.
func IsDunder(path string) bool {
	return strings.HasPrefix(parser.ModuleName(path), "__")
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// gitignoreFor returns the matcher for the repository containing dir, and
// the repository root. The matcher is nil outside a repository.
func (s *Scanner) gitignoreFor(dir string) (gitignore.Matcher, string) {
	if !s.config.Exclude.Gitignore {
		return nil, ""
	}
	gitRoot := findGitRoot(dir)
	if gitRoot == "" {
		return nil, ""
	}
	if m, ok := s.gitignores[gitRoot]; ok {
		return m, gitRoot
	}

	var m gitignore.Matcher
	// ReadPatterns recursively reads every .gitignore below gitRoot.
	if ps, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil && len(ps) > 0 {
		m = gitignore.NewMatcher(ps)
	}
	s.gitignores[gitRoot] = m
	return m, gitRoot
}

// isExcluded checks path against config directories, config patterns
// (relative to root) and .gitignore rules (relative to the repository).
func (s *Scanner) isExcluded(path, root string, isDir bool) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}

	if isDir {
		if slices.Contains(s.config.Exclude.Dirs, filepath.Base(path)) {
			return true
		}
	} else if s.config.ShouldExclude(rel) {
		return true
	}

	if s.patterns != nil && s.patterns.Match(splitPath(rel), isDir) {
		return true
	}

	if m, gitRoot := s.gitignoreFor(root); m != nil {
		if grel, err := filepath.Rel(gitRoot, path); err == nil && !strings.HasPrefix(grel, "..") {
			if m.Match(splitPath(grel), isDir) {
				return true
			}
		}
	}
	return false
}

func splitPath(rel string) []string {
	return strings.Split(filepath.ToSlash(rel), "/")
}

// ScanDir recursively scans a directory for Python modules.
// Uses filepath.WalkDir for better performance (avoids stat calls).
// Validates that all paths stay within the root directory to prevent traversal attacks.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	// Resolve root to absolute path for security validation
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	// Resolve any symlinks in the root path
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		// Security: validate path stays within root (prevent symlink traversal)
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if path != absRoot && s.isExcluded(path, absRoot, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.IsModule(path) || s.isExcluded(path, absRoot, false) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile checks if a single file should be analyzed. Explicitly named
// files are subject to the module rules and .gitignore, but not to the
// config patterns, which are relative to a scanned directory.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if !s.IsModule(path) {
		return false, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	if m, gitRoot := s.gitignoreFor(filepath.Dir(abs)); m != nil {
		if rel, err := filepath.Rel(gitRoot, abs); err == nil && m.Match(splitPath(rel), false) {
			return false, nil
		}
	}
	return true, nil
}
