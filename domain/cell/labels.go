package cell

import "fmt"

// Display strings shared by the views
const (
	TextPredicted       = "Predicted"
	TextGroundTruth     = "Ground Truth"
	TextFN              = "FN"
	TextFP              = "FP"
	TextPrecision       = "Precision"
	TextRecall          = "Recall"
	TextF1Score         = "F1 Score"
	TextClassSize       = "Class Size"
	TextClassLabels     = "Class Labels"
	TextEpoch           = "Epoch"
	TextRuns            = "Runs"
	TextOverallAccuracy = "Overall Accuracy"
	textNumber          = "#"
	textPercent         = "%"
	textConfused        = "of Confused Instances"
	textFPNum           = "# False Positives"
	textFPRate          = "False Positive Rate"
	textFPRates         = "False Positive Rates"
	textFNNum           = "# False Negatives"
	textFNRate          = "False Negative Rate"
	textFNRates         = "False Negative Rates"
)

func scaleType(absolute bool) string {
	if absolute {
		return textNumber
	}
	return textPercent
}

func pick(absolute bool, abs, rel string) string {
	if absolute {
		return abs
	}
	return rel
}

// YLabel returns the y axis title of a chart drawn for the selected cell
func YLabel(selected *Cell, absolute bool) string {
	if selected == nil {
		return ""
	}
	switch {
	case selected.Kind == KindMatrix:
		return fmt.Sprintf("%s %s", scaleType(absolute), textConfused)
	case selected.IsPanel():
		switch selected.PanelType {
		case PanelFP:
			return pick(absolute, textFPNum, textFPRate)
		case PanelFN:
			return pick(absolute, textFNNum, textFNRate)
		case PanelPrecision:
			return TextPrecision
		case PanelRecall:
			return TextRecall
		case PanelF1:
			return TextF1Score
		case PanelClassSize:
			return TextClassSize
		}
	}
	return ""
}

// Header returns the detail chart title for the selected cell
func Header(selected *Cell, absolute bool) string {
	if selected == nil {
		return ""
	}
	if selected.Kind == KindMatrix {
		return fmt.Sprintf("%s %s for class %s with %s",
			scaleType(absolute), textConfused, selected.GroundTruthLabel, selected.PredictedLabel)
	}
	if !selected.IsPanel() {
		return ""
	}

	first, _ := selected.firstLine()
	switch selected.PanelType {
	case PanelFP:
		return fmt.Sprintf("%s for all classes predicted as %s", pick(absolute, textFPNum, textFPRates), first.PredictedLabel)
	case PanelFN:
		label, _ := selected.RowLabel()
		return fmt.Sprintf("%s for all classes given %s", pick(absolute, textFNNum, textFNRates), label)
	case PanelPrecision:
		return fmt.Sprintf("Precision [%%] for class %s", first.PredictedLabel)
	case PanelRecall:
		return fmt.Sprintf("Recall [%%] for class %s", first.PredictedLabel)
	case PanelF1:
		return fmt.Sprintf("F1 Score [%%] for class %s", first.PredictedLabel)
	case PanelOverallAccuracy:
		return TextOverallAccuracy
	case PanelClassSize:
		return TextClassSize
	}
	return ""
}
