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
	// RunID names one comparable dataset (a fold log of a training run)
	RunID ID
	// DatasetID names the labelled dataset a run was trained on
	DatasetID ID
	// CellID identifies a rendered cell across redraws
	CellID ID
	// SubscriptionID identifies a listener registered on the notification bus
	SubscriptionID ID
)

func (id RunID) String() string          { return ID(id).String() }
func (id DatasetID) String() string      { return ID(id).String() }
func (id CellID) String() string         { return ID(id).String() }
func (id SubscriptionID) String() string { return ID(id).String() }

// NewSubscriptionID returns a fresh subscription identifier
func NewSubscriptionID() SubscriptionID {
	return SubscriptionID(NewID())
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseDatasetID parses a string into DatasetID
func ParseDatasetID(s string) (DatasetID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("dataset ID cannot be empty")
	}
	return DatasetID(s), nil
}

// MatrixCellID returns the stable identifier of the matrix cell at (groundTruth, predicted)
func MatrixCellID(groundTruth, predicted int) CellID {
	return CellID(fmt.Sprintf("matrix-%d-%d", groundTruth, predicted))
}

// PanelCellID returns the stable identifier of a panel cell of the given type
func PanelCellID(panelType string, column, row int) CellID {
	return CellID(fmt.Sprintf("%s-%d-%d", panelType, column, row))
}
