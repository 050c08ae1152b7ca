package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confusionflow/domain/matrix"
	"confusionflow/internal/errors"
)

func record(t *testing.T, id int, vals [][]float64) EpochRecord {
	t.Helper()
	m, err := matrix.FromValues(vals)
	require.NoError(t, err)
	return EpochRecord{Name: "epoch" + string(rune('0'+id)), ID: id, Matrix: m}
}

func TestExtractEpochID(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"epoch12", 12},
		{"3", 3},
		{"run7-epoch9", 7},
		{"final", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := ExtractEpochID(tt.name); got != tt.want {
			t.Errorf("ExtractEpochID(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestFillMissingEpochs(t *testing.T) {
	dense := FillMissingEpochs([]EpochInfo{
		{Name: "epoch3", ID: 3},
		{Name: "epoch0", ID: 0},
		{Name: "epoch1", ID: 1},
		{Name: "broken", ID: -1},
	})

	require.Len(t, dense, 4)
	assert.Equal(t, "epoch0", dense[0].Name)
	assert.Equal(t, "epoch1", dense[1].Name)
	assert.Nil(t, dense[2])
	assert.Equal(t, 3, dense[3].ID)

	assert.Nil(t, FillMissingEpochs(nil))
}

func TestPalette(t *testing.T) {
	colors := Palette(4)
	assert.Equal(t, []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728"}, colors)
	assert.Equal(t, ColorForSlot(0), ColorForSlot(10))
}

func TestCalcClassSizes(t *testing.T) {
	multi := []EpochRecord{record(t, 0, [][]float64{{5, 1}, {2, 4}})}
	single := record(t, 1, [][]float64{{1, 1}, {0, 9}})

	sizes, err := CalcClassSizes(multi, &single)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 6}, sizes)

	sizes, err = CalcClassSizes(nil, &single)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 9}, sizes)

	sizes, err = CalcClassSizes(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, sizes)
}

func TestFilterRun(t *testing.T) {
	single := record(t, 1, [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	r := LoadedRun{
		Name:            "run_a",
		Color:           "#1f77b4",
		SingleEpoch:     &single,
		MultiEpochRange: []EpochRecord{record(t, 0, [][]float64{{9, 0, 0}, {0, 9, 0}, {0, 0, 9}}), single},
		Labels:          []string{"cat", "dog", "bird"},
		LabelIDs:        []int{0, 1, 2},
		ClassSizes:      []float64{6, 15, 24},
	}

	filtered, err := FilterRun(r, []int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"bird", "cat"}, filtered.Labels)
	assert.Equal(t, []int{2, 0}, filtered.LabelIDs)
	assert.Equal(t, []float64{24, 6}, filtered.ClassSizes)
	assert.Equal(t, [][]float64{{9, 7}, {3, 1}}, filtered.SingleEpoch.Matrix.Values())
	require.Len(t, filtered.MultiEpochRange, 2)
	assert.Equal(t, 1, filtered.IndexInRange())
	assert.Equal(t, "#1f77b4", filtered.Color)

	_, err = FilterRun(r, []int{0, 5})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidIndex))
}

func TestChooseRenderMode(t *testing.T) {
	single := record(t, 0, [][]float64{{1}})
	tests := []struct {
		name string
		runs []LoadedRun
		want RenderMode
	}{
		{"no runs", nil, RenderClear},
		{"single only", []LoadedRun{{SingleEpoch: &single}}, RenderSingle},
		{"multi only", []LoadedRun{{MultiEpochRange: []EpochRecord{single}}}, RenderMulti},
		{"mixed runs", []LoadedRun{{SingleEpoch: &single}, {MultiEpochRange: []EpochRecord{single}}}, RenderCombined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChooseRenderMode(tt.runs))
		})
	}
	assert.Equal(t, "combined", RenderCombined.String())
}
