package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfapi "confusionflow/adapters/api"
	"confusionflow/internal/errors"
)

func writeLogDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"runs/index.json":     `[{"runId": "r", "trainfoldId": "ds_train", "foldlogs": [{"foldlogId": "r_ds_train", "numepochs": 1}]}]`,
		"datasets/index.json": `[{"datasetId": "ds", "numclass": 2, "classes": ["cat", "dog"], "folds": [{"foldId": "ds_train"}]}]`,
		"foldlogdata/r_ds_train_data.json": `{"epochdata": [{"epochId": 0, "confmat": [3, 1, 0, 4]}]}`,
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestLogServerRoundTrip(t *testing.T) {
	srv := httptest.NewServer(NewLogServer(writeLogDir(t)).Handler())
	t.Cleanup(srv.Close)

	p := cfapi.NewProvider(srv.URL+"/api", time.Second)
	datasets, err := p.ListDatasets(context.Background())
	require.NoError(t, err)
	require.Len(t, datasets, 1)

	m, err := p.LoadConfusionMatrix(context.Background(), "r_ds_train", 0)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3, 1}, {0, 4}}, m.Values())

	_, err = cfapi.NewReader(srv.URL+"/api", time.Second).FoldLogData(context.Background(), "unknown")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestLogServerHeaders(t *testing.T) {
	s := NewLogServer(writeLogDir(t))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/foldlog/missing/data", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data for foldlogId not found", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
}
