package run

import (
	"confusionflow/domain/core"
	"confusionflow/domain/matrix"
)

// EpochInfo describes one logged epoch of a dataset before its matrix is loaded
type EpochInfo struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// Dataset is a comparable performance log: one fold log of a training run.
// EpochInfos is dense by epoch id; nil entries mark epochs that were not logged.
type Dataset struct {
	Name       core.RunID     `json:"name"`
	DatasetID  core.DatasetID `json:"dataset_id"`
	EpochInfos []*EpochInfo   `json:"epoch_infos"`
	Labels     []string       `json:"labels"`
	LabelIDs   []int          `json:"label_ids"`
}

// EpochRecord is an epoch with its loaded confusion matrix
type EpochRecord struct {
	Name   string
	ID     int
	Matrix *matrix.NumberMatrix
}

// LoadedRun is one comparison slot after its matrices were fetched.
// SingleEpoch is nil when no single epoch is selected; MultiEpochRange is empty
// when no range is selected.
type LoadedRun struct {
	Name            core.RunID
	Color           string
	SingleEpoch     *EpochRecord
	MultiEpochRange []EpochRecord
	Labels          []string
	LabelIDs        []int
	ClassSizes      []float64
}

// HasSingleEpoch reports whether the run carries single epoch data
func (r LoadedRun) HasSingleEpoch() bool {
	return r.SingleEpoch != nil && r.SingleEpoch.Matrix != nil
}

// HasMultiEpochs reports whether the run carries a non-empty epoch range
func (r LoadedRun) HasMultiEpochs() bool {
	return len(r.MultiEpochRange) > 0
}

// MultiMatrices returns the matrices of the selected epoch range in order
func (r LoadedRun) MultiMatrices() []*matrix.NumberMatrix {
	return Matrices(r.MultiEpochRange)
}

// IndexInRange returns the position of the single epoch inside the multi epoch
// range, or -1 if it is not part of it.
func (r LoadedRun) IndexInRange() int {
	if r.SingleEpoch == nil {
		return -1
	}
	for i, e := range r.MultiEpochRange {
		if e.ID == r.SingleEpoch.ID {
			return i
		}
	}
	return -1
}

// RenderMode selects which content the matrix shows. It is a bit set:
// Combined is Single|Multi.
type RenderMode int

const (
	RenderClear    RenderMode = 0
	RenderSingle   RenderMode = 1
	RenderMulti    RenderMode = 2
	RenderCombined RenderMode = 3
)

func (m RenderMode) String() string {
	switch m {
	case RenderClear:
		return "clear"
	case RenderSingle:
		return "single"
	case RenderMulti:
		return "multi"
	case RenderCombined:
		return "combined"
	}
	return "unknown"
}
