package run

import (
	"regexp"
	"slices"
	"strconv"

	"github.com/samber/lo"

	"confusionflow/domain/matrix"
	"confusionflow/domain/measures"
	"confusionflow/internal/errors"
)

var epochNumber = regexp.MustCompile(`[0-9]+`)

// ExtractEpochID returns the first number in an epoch name, or -1 if there is none
func ExtractEpochID(name string) int {
	match := epochNumber.FindString(name)
	if match == "" {
		return -1
	}
	id, err := strconv.Atoi(match)
	if err != nil {
		return -1
	}
	return id
}

// FillMissingEpochs sorts infos by id and returns a dense slice indexed by epoch id
// where epochs that were not logged are nil. Infos with a negative id are dropped.
func FillMissingEpochs(infos []EpochInfo) []*EpochInfo {
	valid := lo.Filter(infos, func(e EpochInfo, _ int) bool { return e.ID >= 0 })
	if len(valid) == 0 {
		return nil
	}
	slices.SortFunc(valid, func(a, b EpochInfo) int { return a.ID - b.ID })

	dense := make([]*EpochInfo, valid[len(valid)-1].ID+1)
	for i := range valid {
		e := valid[i]
		if dense[e.ID] == nil {
			dense[e.ID] = &e
		}
	}
	return dense
}

// category10 is the d3 categorical palette used for run colors
var category10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Palette returns the first n run colors
func Palette(n int) []string {
	return lo.Times(n, ColorForSlot)
}

// ColorForSlot returns the stable color of a comparison slot
func ColorForSlot(slot int) string {
	return category10[slot%len(category10)]
}

// CalcClassSizes derives class sizes from the first epoch of the range, falling
// back to the single epoch. It returns nil when neither exists.
func CalcClassSizes(multi []EpochRecord, single *EpochRecord) ([]float64, error) {
	switch {
	case len(multi) > 0:
		return measures.CalcForMultipleClasses(multi[0].Matrix, measures.ClassSize)
	case single != nil && single.Matrix != nil:
		return measures.CalcForMultipleClasses(single.Matrix, measures.ClassSize)
	}
	return nil, nil
}

// FilterRun projects every matrix, label and class size of r onto classIndices
func FilterRun(r LoadedRun, classIndices []int) (LoadedRun, error) {
	filterEpoch := func(e EpochRecord) (EpochRecord, error) {
		m, err := e.Matrix.Filter(classIndices)
		if err != nil {
			return EpochRecord{}, errors.Wrapf(err, "failed to filter epoch %s", e.Name)
		}
		return EpochRecord{Name: e.Name, ID: e.ID, Matrix: m}, nil
	}

	out := LoadedRun{
		Name:            r.Name,
		Color:           r.Color,
		MultiEpochRange: make([]EpochRecord, 0, len(r.MultiEpochRange)),
	}
	for _, e := range r.MultiEpochRange {
		fe, err := filterEpoch(e)
		if err != nil {
			return LoadedRun{}, err
		}
		out.MultiEpochRange = append(out.MultiEpochRange, fe)
	}
	if r.HasSingleEpoch() {
		fe, err := filterEpoch(*r.SingleEpoch)
		if err != nil {
			return LoadedRun{}, err
		}
		out.SingleEpoch = &fe
	}

	var err error
	if out.Labels, err = pick(r.Labels, classIndices); err != nil {
		return LoadedRun{}, err
	}
	if out.LabelIDs, err = pick(r.LabelIDs, classIndices); err != nil {
		return LoadedRun{}, err
	}
	if r.ClassSizes != nil {
		if out.ClassSizes, err = pick(r.ClassSizes, classIndices); err != nil {
			return LoadedRun{}, err
		}
	}
	return out, nil
}

func pick[T any](values []T, indices []int) ([]T, error) {
	res := make([]T, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(values) {
			return nil, errors.InvalidIndex(idx, len(values))
		}
		res[i] = values[idx]
	}
	return res, nil
}

// ChooseRenderMode ORs in Single when any run has single epoch data and Multi
// when any run has a non-empty epoch range.
func ChooseRenderMode(runs []LoadedRun) RenderMode {
	mode := RenderClear
	if lo.SomeBy(runs, LoadedRun.HasSingleEpoch) {
		mode |= RenderSingle
	}
	if lo.SomeBy(runs, LoadedRun.HasMultiEpochs) {
		mode |= RenderMulti
	}
	return mode
}

// Matrices returns the matrix of every epoch record
func Matrices(epochs []EpochRecord) []*matrix.NumberMatrix {
	return lo.Map(epochs, func(e EpochRecord, _ int) *matrix.NumberMatrix { return e.Matrix })
}
