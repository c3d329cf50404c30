package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"bioprep/domain/core"
	"bioprep/domain/files"
	"bioprep/internal/errors"
)

// FolderSource walks a local folder tree and produces the flat RawFile list
// classification works from. It implements ports.FolderSource.
type FolderSource struct{}

// NewFolderSource creates a local filesystem source
func NewFolderSource() *FolderSource {
	return &FolderSource{}
}

// List walks root and returns one RawFile per regular file. Hidden entries
// and symlinks are skipped; directories only shape the relative paths.
// Relative paths are rooted at the folder's own name so downstream subject
// extraction sees root/<subject>/... shapes.
func (s *FolderSource) List(root string) ([]files.RawFile, error) {
	if root == "" {
		return nil, core.ErrNoFolderSelected
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "cannot open folder %s", root))
	}
	if !info.IsDir() {
		return nil, errors.InvalidInput("selected path is not a folder")
	}

	rootName := filepath.Base(filepath.Clean(root))
	var picked []files.RawFile

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		picked = append(picked, files.RawFile{
			Name:         entry.Name(),
			RelativePath: rootName + "/" + filepath.ToSlash(rel),
			Path:         path,
		})
		return nil
	})
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "walking folder %s", root))
	}

	if len(picked) == 0 {
		return nil, core.ErrNoFilesFound
	}
	return picked, nil
}
