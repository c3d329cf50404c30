package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// SubjectID identifies one recorded subject. It is the second path segment of
// a picked file's relative path (root/<subject>/...), so it stays stable when
// the same dataset folder is re-selected.
type SubjectID string

// String returns the string representation
func (s SubjectID) String() string { return string(s) }

// ExperimentKey is the derived grouping key for stimulus-log files that
// belong to the same logical experiment across subjects.
type ExperimentKey string

// String returns the string representation
func (k ExperimentKey) String() string { return string(k) }

// SessionID identifies one wizard session
type SessionID ID

// String returns the string representation
func (id SessionID) String() string { return ID(id).String() }

// NewSessionID creates a session identifier
func NewSessionID() SessionID {
	return SessionID(NewID())
}

// ParseSubjectID parses a string into a SubjectID
func ParseSubjectID(s string) (SubjectID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("subject ID cannot be empty")
	}
	return SubjectID(s), nil
}
