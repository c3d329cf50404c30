package ports

import (
	"bioprep/domain/files"
)

// FolderSource lists the files under a user-selected data folder. Listing
// never reads file contents; classification and sampling happen later and
// only for the files that need it.
type FolderSource interface {
	// List walks root and returns one RawFile per regular file. Hidden files
	// and symlinks are skipped. Relative paths are rooted at the folder name
	// itself so subject extraction sees root/<subject>/... shapes.
	List(root string) ([]files.RawFile, error)
}
