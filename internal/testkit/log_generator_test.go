package testkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confusionflow/adapters/logdir"
	"confusionflow/domain/core"
	"confusionflow/domain/matrix"
)

func TestGeneratedLogIsReadable(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultLogConfig()
	cfg.Epochs = 3
	g := NewLogGenerator(cfg)
	require.NoError(t, g.WriteLogDir(dir))

	p := logdir.NewProvider(dir)
	datasets, err := p.ListDatasets(context.Background())
	require.NoError(t, err)
	require.Len(t, datasets, 4)
	assert.Equal(t, []string{"run1_synthetic_train", "run1_synthetic_test", "run2_synthetic_train", "run2_synthetic_test"}, g.FoldLogIDs())
	assert.Equal(t, cfg.Classes, datasets[0].Labels)
	assert.Len(t, datasets[0].EpochInfos, 3)

	for epoch := range 3 {
		m, err := p.LoadConfusionMatrix(context.Background(), core.RunID(g.FoldLogIDs()[0]), epoch)
		require.NoError(t, err)
		assert.Equal(t, float64(len(cfg.Classes)*cfg.SamplesPerClass), matrix.Sum(m))
		for _, row := range m.Values() {
			total := 0.0
			for _, v := range row {
				total += v
			}
			assert.Equal(t, float64(cfg.SamplesPerClass), total)
		}
	}
}

func TestAccuracyInterpolation(t *testing.T) {
	g := NewLogGenerator(LogGeneratorConfig{Epochs: 5, StartAccuracy: 0.2, EndAccuracy: 1})
	assert.InDelta(t, 0.2, g.accuracyAt(0), 1e-9)
	assert.InDelta(t, 0.6, g.accuracyAt(2), 1e-9)
	assert.InDelta(t, 1.0, g.accuracyAt(4), 1e-9)
}

func TestPerfectAccuracyIsDiagonal(t *testing.T) {
	g := NewLogGenerator(LogGeneratorConfig{Classes: []string{"a", "b"}, SamplesPerClass: 5, Seed: 1})
	assert.Equal(t, []int{5, 0, 0, 5}, g.confMat(1))
}

func TestWriteLogDirValidates(t *testing.T) {
	g := NewLogGenerator(LogGeneratorConfig{Classes: []string{"a"}, Epochs: 1, Runs: 1})
	assert.Error(t, g.WriteLogDir(t.TempDir()))
}
