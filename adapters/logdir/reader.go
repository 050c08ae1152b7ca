// Package logdir reads performance logs from a ConfusionFlow log directory
package logdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"confusionflow/adapters/foldlog"
	"confusionflow/internal/errors"
)

// Reader is a foldlog.Source over a log directory laid out as
// runs/index.json, datasets/index.json and foldlogdata/<id>_data.json
type Reader struct {
	root string
}

var _ foldlog.Source = (*Reader)(nil)

// NewReader creates a reader for the log directory at root
func NewReader(root string) *Reader {
	return &Reader{root: root}
}

// NewProvider returns a dataset provider over the log directory. Files are
// read again on every request so a training run can keep logging.
func NewProvider(root string) *foldlog.Provider {
	return foldlog.NewProvider(NewReader(root), false)
}

func (r *Reader) Runs(ctx context.Context) ([]byte, error) {
	return r.read(ctx, "runs", "index.json")
}

func (r *Reader) Datasets(ctx context.Context) ([]byte, error) {
	return r.read(ctx, "datasets", "index.json")
}

func (r *Reader) FoldLogData(ctx context.Context, foldLogID string) ([]byte, error) {
	if foldLogID == "" || filepath.Base(foldLogID) != foldLogID {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid fold log id %q", foldLogID))
	}
	return r.read(ctx, "foldlogdata", foldLogID+"_data.json")
}

func (r *Reader) read(ctx context.Context, folder, file string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(r.root, folder, file)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFound(filepath.Join(folder, file))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
