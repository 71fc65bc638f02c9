// Package walker discovers indexable files under a collection root
// (spec.md §4.6). Grounded on internal/scanner's package shape
// (recursive filepath.WalkDir, extension filter, hidden-path skip),
// generalized from the teacher's dozens of source-code extensions down
// to docbert's two: ".md" and ".txt".
package walker

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	docerrors "github.com/docbert/docbert/internal/errors"
)

// File is a single discovered document.
type File struct {
	RelativePath string
	AbsolutePath string
	MTime        uint64 // Unix seconds
}

var indexableExtensions = map[string]bool{
	".md":  true,
	".txt": true,
}

// Discover walks root recursively and returns every regular file with
// an indexable extension, skipping any path component beginning with
// ".". Results are sorted by relative path for deterministic ingest
// ordering.
func Discover(root string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if hasHiddenComponent(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !indexableExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		files = append(files, File{
			RelativePath: filepath.ToSlash(rel),
			AbsolutePath: path,
			MTime:        uint64(info.ModTime().Unix()),
		})
		return nil
	})
	if err != nil {
		return nil, docerrors.New(docerrors.ErrCodeIoWalk, "failed to walk collection root", err).
			WithDetail("root", root)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelativePath < files[j].RelativePath })
	return files, nil
}

func hasHiddenComponent(relPath string) bool {
	for _, part := range strings.Split(relPath, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
