// Package discover finds test candidates in a directory and applies the
// exclusion set.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPattern matches test executables by their suffix.
const DefaultPattern = "*.test"

// candidatePrefix is prepended to every entry name so identifiers read as
// paths relative to the test directory, e.g. "./ansi.test".
const candidatePrefix = "./"

// Discover returns the identifiers of all entries in dir whose names match
// pattern. Only the top level of dir is searched, and matching directories are
// skipped since they cannot be executed. Hidden entries (names starting with a
// dot) only match a pattern that itself starts with a dot, as in shell globs.
// The result follows directory listing order.
func Discover(dir, pattern string) ([]string, error) {
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	hidden := strings.HasPrefix(pattern, ".")

	var candidates []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") && !hidden {
			continue
		}
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		if isDir(dir, entry) {
			continue
		}
		candidates = append(candidates, candidatePrefix+name)
	}

	return candidates, nil
}

// ValidatePattern checks that pattern is a well-formed glob naming entries in
// a single directory.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("pattern is empty")
	}
	if strings.ContainsAny(pattern, `/\`) {
		return fmt.Errorf("pattern %q must not contain a path separator", pattern)
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return fmt.Errorf("pattern %q: %w", pattern, err)
	}
	return nil
}

// isDir reports whether entry is a directory, following symlinks.
func isDir(dir string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.IsDir()
}

// Filter splits candidates into those to run and those excluded. Membership is
// an exact string match on the identifier. Both results preserve input order.
func Filter(candidates, exclusions []string) (kept, excluded []string) {
	skip := make(map[string]struct{}, len(exclusions))
	for _, e := range exclusions {
		skip[e] = struct{}{}
	}

	for _, c := range candidates {
		if _, ok := skip[c]; ok {
			excluded = append(excluded, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, excluded
}

// NormalizeExclusion rewrites a bare entry name ("ansi.test") into identifier
// form ("./ansi.test"). Entries that already carry a directory are returned
// unchanged.
func NormalizeExclusion(entry string) string {
	entry = strings.TrimSpace(entry)
	if entry == "" || strings.ContainsAny(entry, `/\`) {
		return entry
	}
	return candidatePrefix + entry
}

// NormalizeExclusions normalizes every entry and drops blanks and duplicates,
// keeping first-seen order.
func NormalizeExclusions(entries []string) []string {
	seen := make(map[string]bool, len(entries))
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		n := NormalizeExclusion(e)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	return result
}

// Path returns the filesystem path of candidate inside dir. The result always
// contains a separator so exec never searches PATH for it.
func Path(dir, candidate string) string {
	p := filepath.Join(dir, strings.TrimPrefix(candidate, candidatePrefix))
	if !strings.ContainsRune(p, filepath.Separator) {
		p = "." + string(filepath.Separator) + p
	}
	return p
}
