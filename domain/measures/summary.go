package measures

import (
	"github.com/samber/lo"

	"confusionflow/domain/core"
)

// ClassMeasures are the confusion measures of one class in one epoch
type ClassMeasures struct {
	Epoch     int     `json:"epoch"`
	Class     string  `json:"class"`
	TP        float64 `json:"tp"`
	FP        float64 `json:"fp"`
	FN        float64 `json:"fn"`
	TN        float64 `json:"tn"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Accuracy  float64 `json:"accuracy"`
	ClassSize float64 `json:"class_size"`
}

// EpochSummary aggregates one epoch over all classes
type EpochSummary struct {
	Epoch           int     `json:"epoch"`
	OverallAccuracy float64 `json:"overall_accuracy"`
	MacroPrecision  float64 `json:"macro_precision"`
	MacroRecall     float64 `json:"macro_recall"`
	MacroF1         float64 `json:"macro_f1"`
}

// RunMeasures holds the measures of every epoch of a run
type RunMeasures struct {
	Run     core.RunID      `json:"run"`
	Color   string          `json:"color,omitempty"`
	Labels  []string        `json:"labels"`
	Classes []ClassMeasures `json:"classes"`
	Epochs  []EpochSummary  `json:"epochs"`
}

// Final returns the summary of the last epoch
func (m RunMeasures) Final() (EpochSummary, bool) {
	if len(m.Epochs) == 0 {
		return EpochSummary{}, false
	}
	return m.Epochs[len(m.Epochs)-1], true
}

// FinalClasses returns the class rows of the last epoch
func (m RunMeasures) FinalClasses() []ClassMeasures {
	last, ok := m.Final()
	if !ok {
		return nil
	}
	return lo.Filter(m.Classes, func(c ClassMeasures, _ int) bool { return c.Epoch == last.Epoch })
}
