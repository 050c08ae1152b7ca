package ports

import (
	"context"

	"confusionflow/domain/core"
	"confusionflow/domain/matrix"
	"confusionflow/domain/run"
)

// DatasetProvider supplies performance logs and their confusion matrices.
// Implementations skip and log malformed records instead of failing the listing.
type DatasetProvider interface {
	// ListDatasets returns every comparable dataset with dense epoch infos
	ListDatasets(ctx context.Context) ([]run.Dataset, error)

	// LoadConfusionMatrix returns the matrix logged for epochID of a dataset
	LoadConfusionMatrix(ctx context.Context, name core.RunID, epochID int) (*matrix.NumberMatrix, error)
}

// RunLoader yields one loaded run per selected comparison slot
type RunLoader interface {
	LoadRuns(ctx context.Context) ([]run.LoadedRun, error)
}
