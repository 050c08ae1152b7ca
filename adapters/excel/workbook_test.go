package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"confusionflow/domain/measures"
	"confusionflow/internal/errors"
)

func sampleRuns() []measures.RunMeasures {
	return []measures.RunMeasures{
		{
			Run:    "mnist/run:1",
			Labels: []string{"a", "b"},
			Classes: []measures.ClassMeasures{
				{Epoch: 0, Class: "a", TP: 4, FP: 1, FN: 2, TN: 3, Precision: 0.8, Recall: 4.0 / 6, ClassSize: 5},
				{Epoch: 0, Class: "b", TP: 3, FP: 2, FN: 1, TN: 4, Precision: 0.6, Recall: 0.75, ClassSize: 5},
			},
			Epochs: []measures.EpochSummary{{Epoch: 0, OverallAccuracy: 0.7, MacroPrecision: 0.7}},
		},
		{
			Run:    "other",
			Epochs: []measures.EpochSummary{{Epoch: 3, OverallAccuracy: 0.9}},
		},
	}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "measures.xlsx")
	require.NoError(t, Write(path, sampleRuns()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{OverallSheet, "mnist_run_1", "other"}, f.GetSheetList())

	overall, err := f.GetRows(OverallSheet)
	require.NoError(t, err)
	require.Len(t, overall, 3)
	assert.Equal(t, "Overall Accuracy", overall[0][2])
	assert.Equal(t, []string{"mnist/run:1", "0", "0.7", "0.7", "0", "0"}, overall[1])
	assert.Equal(t, "other", overall[2][0])

	rows, err := f.GetRows("mnist_run_1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Class Size", rows[0][10])
	assert.Equal(t, []string{"0", "b", "3", "2", "1", "4", "0.6", "0.75", "0", "0", "5"}, rows[2])
}

func TestWriteRequiresRuns(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "empty.xlsx"), nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{OverallSheet: true}
	tests := []struct {
		run  string
		want string
	}{
		{"plain", "plain"},
		{"a[b]*c?", "a_b__c_"},
		{"", "run"},
		{"plain", "plain (2)"},
		{"a_very_long_run_name_that_exceeds_the_limit", "a_very_long_run_name_that_excee"},
		{"a_very_long_run_name_that_exceeds_the_limit", "a_very_long_run_name_that_e (2)"},
	}
	for _, tt := range tests {
		got := SheetName(tt.run, used)
		used[got] = true
		assert.Equal(t, tt.want, got, tt.run)
		assert.LessOrEqual(t, len([]rune(got)), 31)
	}
}
