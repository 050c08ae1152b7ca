package foldlog

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"confusionflow/domain/core"
	"confusionflow/domain/matrix"
	"confusionflow/domain/run"
	"confusionflow/internal/errors"
	"confusionflow/ports"
)

// Source fetches the raw documents of a log
type Source interface {
	Runs(ctx context.Context) ([]byte, error)
	Datasets(ctx context.Context) ([]byte, error)
	FoldLogData(ctx context.Context, foldLogID string) ([]byte, error)
}

// Provider serves datasets and matrices from a Source. Concurrent requests for
// the same fold log share one fetch; with caching enabled the document is kept
// for later epochs as well.
type Provider struct {
	source Source
	cache  bool

	mu     sync.RWMutex
	index  *Index
	data   map[string][]byte
	flight singleflight.Group
}

var _ ports.DatasetProvider = (*Provider)(nil)

// NewProvider creates a provider over source
func NewProvider(source Source, cache bool) *Provider {
	return &Provider{
		source: source,
		cache:  cache,
		data:   make(map[string][]byte),
	}
}

// ListDatasets reads both indices and returns one dataset per fold log
func (p *Provider) ListDatasets(ctx context.Context) ([]run.Dataset, error) {
	ix, err := p.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	return ix.Datasets, nil
}

func (p *Provider) loadIndex(ctx context.Context) (*Index, error) {
	runs, err := p.source.Runs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read run index")
	}
	datasets, err := p.source.Datasets(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read dataset index")
	}
	ix, err := ParseIndex(runs, datasets)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.index = ix
	p.mu.Unlock()
	return ix, nil
}

// LoadConfusionMatrix returns the matrix of epochID of the named fold log
func (p *Provider) LoadConfusionMatrix(ctx context.Context, name core.RunID, epochID int) (*matrix.NumberMatrix, error) {
	numClass, err := p.numClass(ctx, name)
	if err != nil {
		return nil, err
	}
	data, err := p.foldLogData(ctx, name.String())
	if err != nil {
		return nil, err
	}
	m, err := ParseEpoch(data, epochID, numClass)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read epoch %d of %s", epochID, name)
	}
	return m, nil
}

func (p *Provider) numClass(ctx context.Context, name core.RunID) (int, error) {
	p.mu.RLock()
	n, ok := p.index.NumClass(name)
	p.mu.RUnlock()
	if ok {
		return n, nil
	}

	ix, err := p.loadIndex(ctx)
	if err != nil {
		return 0, err
	}
	if n, ok = ix.NumClass(name); !ok {
		return 0, errors.NotFound(fmt.Sprintf("fold log %s", name))
	}
	return n, nil
}

func (p *Provider) foldLogData(ctx context.Context, id string) ([]byte, error) {
	p.mu.RLock()
	data, ok := p.data[id]
	p.mu.RUnlock()
	if ok {
		return data, nil
	}

	v, err, _ := p.flight.Do(id, func() (interface{}, error) {
		p.mu.RLock()
		cached, ok := p.data[id]
		p.mu.RUnlock()
		if ok {
			return cached, nil
		}
		data, err := p.source.FoldLogData(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read data of fold log %s", id)
		}
		if p.cache {
			p.mu.Lock()
			p.data[id] = data
			p.mu.Unlock()
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate drops cached fold log data and the index
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index = nil
	p.data = make(map[string][]byte)
}
