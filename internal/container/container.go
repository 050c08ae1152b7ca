package container

import (
	"fmt"
	"log"

	"confusionflow/adapters/api"
	"confusionflow/adapters/logdir"
	"confusionflow/adapters/svg"
	"confusionflow/app"
	sse "confusionflow/internal/api"
	"confusionflow/internal/config"
	"confusionflow/internal/events"
	"confusionflow/internal/viewstate"
	"confusionflow/ports"
)

// layoutClasses is the class count the matrix width is sized for; matrices
// with fewer classes get larger cells.
const layoutClasses = 10

// maxFetches bounds concurrent matrix requests per refresh
const maxFetches = 8

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Data access
	Provider ports.DatasetProvider
	Measures *app.MeasuresService

	// View state
	Bus       *events.Bus
	State     *viewstate.State
	Selection *app.Selection
	Loader    *app.MatrixDataLoader

	// Views
	Canvas       *svg.Canvas
	MatrixView   *app.MatrixView
	DetailChart  *app.DetailChart
	MeasuresView *app.MeasuresView

	// Notifications
	SSEHub *sse.SSEHub
}

// NewProvider creates the dataset provider selected by the configuration
func NewProvider(cfg *config.Config) (ports.DatasetProvider, error) {
	switch cfg.Data.Source {
	case config.SourceLogDir:
		log.Printf("[Container] Reading logs from %s", cfg.Data.LogDir)
		return logdir.NewProvider(cfg.Data.LogDir), nil
	case config.SourceAPI:
		log.Printf("[Container] Reading logs from %s", cfg.Data.APIBaseURL)
		return api.NewProvider(cfg.Data.APIBaseURL, cfg.Data.Timeout), nil
	}
	return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithProvider(cfg, provider), nil
}

// NewWithProvider wires every component around provider and attaches the
// views to the bus
func NewWithProvider(cfg *config.Config, provider ports.DatasetProvider) *Container {
	c := &Container{
		Config:   cfg,
		Provider: provider,
		Measures: app.NewMeasuresService(provider),
		Bus:      events.NewBus(),
		Canvas:   svg.NewCanvas(),
	}

	c.State = viewstate.New(c.Bus)
	c.State.SetCellRenderer(cfg.View.DefaultCellRenderer)
	c.Selection = app.NewSelection(c.Bus, cfg.View.MaxRunCount)
	c.Loader = app.NewMatrixDataLoader(provider, c.Selection, c.Bus, maxFetches)

	size := cfg.View.CellSize
	c.MatrixView = app.NewMatrixView(c.State, c.Loader, c.Canvas, size*layoutClasses, cfg.View.MaxRunCount)
	c.DetailChart = app.NewDetailChart(c.State, c.MatrixView, c.Canvas, size*8, size*4, cfg.View.MaxRunCount)
	c.MeasuresView = app.NewMeasuresView(c.State, c.Canvas, size*8, size*5, cfg.View.MaxRunCount)
	c.MatrixView.Attach()
	c.DetailChart.Attach()
	c.MeasuresView.Attach()

	c.SSEHub = sse.NewSSEHub(cfg.Server.SSEBuffer)
	c.SSEHub.Attach(c.Bus)

	log.Printf("[Container] Initialized with up to %d runs, cell size %.0f", cfg.View.MaxRunCount, size)
	return c
}

// Shutdown detaches the views and stops the SSE hub
func (c *Container) Shutdown() {
	c.SSEHub.Close()
	c.MeasuresView.Detach()
	c.DetailChart.Detach()
	c.MatrixView.Detach()
}
