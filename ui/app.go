package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"confusionflow/internal/container"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App represents the UI application
type App struct {
	router    *chi.Mux
	c         *container.Container
	templates *template.Template
}

// NewApp creates a new UI application over the wired container
func NewApp(c *container.Container) (*App, error) {
	templates, err := template.ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		c:         c,
		templates: templates,
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/render.svg", a.handleSVG)

	a.router.Route("/api", func(r chi.Router) {
		r.Get("/datasets", a.handleDatasets)
		r.Post("/runs/{name}", a.handleAddRun)
		r.Delete("/runs/{name}", a.handleRemoveRun)
		r.Post("/timeline", a.handleTimeline)
		r.Get("/state", a.handleState)
		r.Post("/state/{toggle}", a.handleToggle)
		r.Get("/measures", a.handleMeasures)
		// gin serves the event stream
		r.Handle("/events", a.c.SSEHub.Handler())
	})
}

// Handler returns the root handler, e.g. for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start(port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("[UI] Starting ConfusionFlow server on %s", srv.Addr)
	return srv.ListenAndServe()
}

func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		log.Printf("[UI] Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
