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

// Domain-specific ID types
type (
	RunID     ID
	SubjectID ID
	ROIName   ID
)

// NewRunID creates a time-ordered run identifier
func NewRunID() RunID { return RunID(NewID()) }

// String conversions for domain IDs
func (id RunID) String() string     { return ID(id).String() }
func (id SubjectID) String() string { return ID(id).String() }
func (id ROIName) String() string   { return ID(id).String() }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseSubjectID parses a string into SubjectID
func ParseSubjectID(s string) (SubjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("subject ID cannot be empty")
	}
	return SubjectID(s), nil
}

// ParseROIName parses a string into ROIName
func ParseROIName(s string) (ROIName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("ROI name cannot be empty")
	}
	return ROIName(s), nil
}
