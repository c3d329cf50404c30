package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Discovery errors
	ErrNoFolderSelected = errors.New("no folder selected")
	ErrNoFilesFound     = errors.New("no recognizable data files found")
	ErrSubjectNotFound  = errors.New("subject not found")

	// Sampling errors
	ErrUnreadableFile  = errors.New("file could not be read")
	ErrUnsupportedFile = errors.New("unsupported file format")

	// Request assembly errors
	ErrConfigurationInvalid = errors.New("configuration has unresolved issues")
	ErrScanRequired         = errors.New("folder scan has not completed")
	ErrMetricFileMissing    = errors.New("no file found for metric")
)

// Error constructors with context
func NewSubjectNotFoundError(subject SubjectID) error {
	return fmt.Errorf("%w: %s", ErrSubjectNotFound, subject)
}

func NewMetricFileError(metric string) error {
	return fmt.Errorf("%w: %s", ErrMetricFileMissing, metric)
}

func NewUnsupportedFile(filename string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
}

// IsDiscoveryError reports whether err belongs to the folder discovery class
func IsDiscoveryError(err error) bool {
	return errors.Is(err, ErrNoFolderSelected) ||
		errors.Is(err, ErrNoFilesFound) ||
		errors.Is(err, ErrSubjectNotFound)
}

// IsSamplingError reports whether err belongs to the per-file sampling class.
// These are recovered locally: the file is dropped and its siblings proceed.
func IsSamplingError(err error) bool {
	return errors.Is(err, ErrUnreadableFile) ||
		errors.Is(err, ErrUnsupportedFile)
}
