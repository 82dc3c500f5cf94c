// File: pkg/compiler/traversal.go
package compiler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// SourcePattern selects the files enumerated under src.
const SourcePattern = "**/*.*"

// IgnorePatterns exclude nested dependency folders at any depth.
var IgnorePatterns = []string{"node_modules/**", "**/node_modules/**"}

// CollectSources lists every file under srcDir as a slash separated relative
// path, sorted. Hidden files and folders are skipped. A missing srcDir yields
// an empty list.
func CollectSources(srcDir string, logger *zap.Logger) ([]string, error) {
	if _, err := os.Stat(srcDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Source directory does not exist", zap.String("srcDir", srcDir))
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to stat source directory: %w", err)
	}

	matches, err := doublestar.Glob(os.DirFS(srcDir), SourcePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate sources: %w", err)
	}

	files := make([]string, 0, len(matches))
	for _, rel := range matches {
		if isHidden(rel) {
			continue
		}
		if ignored(rel) {
			logger.Debug("Skipping ignored path", zap.String("file", rel))
			continue
		}
		files = append(files, rel)
	}
	sort.Strings(files)

	logger.Debug("Collected sources", zap.String("srcDir", srcDir), zap.Int("files", len(files)))
	return files, nil
}

func ignored(rel string) bool {
	for _, pattern := range IgnorePatterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func isHidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
