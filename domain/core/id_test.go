package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"mnist_fold1", RunID("mnist_fold1"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestParseDatasetID tests dataset ID parsing
func TestParseDatasetID(t *testing.T) {
	if _, err := ParseDatasetID(""); err == nil {
		t.Error("Expected error for empty dataset ID")
	}
	id, err := ParseDatasetID("cifar10")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id.String() != "cifar10" {
		t.Errorf("Expected cifar10, got %s", id)
	}
}

func TestCellIDs(t *testing.T) {
	if got := MatrixCellID(2, 1); got != "matrix-2-1" {
		t.Errorf("Expected matrix-2-1, got %s", got)
	}
	if got := PanelCellID("fp", 3, -1); got != "fp-3--1" {
		t.Errorf("Expected fp-3--1, got %s", got)
	}
	if NewSubscriptionID() == NewSubscriptionID() {
		t.Error("Expected distinct subscription IDs")
	}
}
