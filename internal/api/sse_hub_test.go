package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confusionflow/domain/core"
	"confusionflow/internal/events"
)

func TestHubStreamsBusEvents(t *testing.T) {
	bus := events.NewBus()
	hub := NewSSEHub(16)
	hub.Attach(bus)
	t.Cleanup(hub.Close)

	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	bus.Fire(events.DataSetAdded, core.RunID("mnist"))

	scanner := bufio.NewScanner(resp.Body)
	var data string
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, "data:") {
			data = strings.TrimPrefix(line, "data:")
			break
		}
	}
	require.NotEmpty(t, data)

	var ev ViewEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, string(events.DataSetAdded), ev.Kind)
	assert.Equal(t, "mnist", ev.Payload)
	assert.NotEmpty(t, ev.ID)
}

func TestHubCloseDetachesFromBus(t *testing.T) {
	bus := events.NewBus()
	hub := NewSSEHub(4)
	hub.Attach(bus)
	assert.Equal(t, 1, bus.Total())

	hub.Close()
	hub.Close()
	assert.Equal(t, 0, bus.Total())
}

func TestPayloadOf(t *testing.T) {
	type renderer string
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"id", core.CellID("matrix-0-1"), "matrix-0-1"},
		{"named string", renderer("line"), "line"},
		{"bool", true, true},
		{"float", 0.5, 0.5},
		{"indices", []int{2, 0}, []int{2, 0}},
		{"struct", struct{ A int }{1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, payloadOf(tt.in))
		})
	}
}
