package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"coderag/internal/port"
)

// Walker lists the regular files directly inside a directory whose base
// names match one of the include patterns and none of the excludes.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"*"}
	}
	normalized := make([]string, 0, len(includes))
	for _, p := range includes {
		normalized = append(normalized, NormalizePattern(p))
	}
	return &Walker{
		includes: normalized,
		excludes: excludes,
	}
}

// NormalizePattern turns a bare extension such as ".py" into "*.py".
func NormalizePattern(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	if strings.HasPrefix(pattern, ".") && !strings.ContainsAny(pattern, "*?[{/") {
		return "*" + pattern
	}
	return pattern
}

// ValidatePattern reports a malformed glob.
func ValidatePattern(pattern string) error {
	if !doublestar.ValidatePattern(NormalizePattern(pattern)) {
		return fmt.Errorf("invalid file pattern: %q", pattern)
	}
	return nil
}

// List does not descend into subdirectories. Results are sorted by path.
func (w *Walker) List(dir string) ([]port.FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []port.FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !w.shouldInclude(name) || w.shouldExclude(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", name, err)
		}
		files = append(files, port.FileInfo{
			Path:    filepath.Join(dir, name),
			ModTime: info.ModTime().Unix(),
			Size:    info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func (w *Walker) shouldInclude(name string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(name string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// Reader reads files from the local disk.
type Reader struct{}

func (Reader) ReadFile(path string) (string, error) {
	return ReadFile(path)
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NormalizeNewlines turns CRLF and lone CR line endings into LF.
func NormalizeNewlines(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
