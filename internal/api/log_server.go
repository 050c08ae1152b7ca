package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"confusionflow/adapters/logdir"
	"confusionflow/internal/errors"
)

// LogServer serves a log directory over the REST API read by adapters/api
type LogServer struct {
	reader *logdir.Reader
	engine *gin.Engine
}

// NewLogServer creates a server for the log directory at root
func NewLogServer(root string) *LogServer {
	gin.SetMode(gin.ReleaseMode)
	s := &LogServer{reader: logdir.NewReader(root), engine: gin.New()}
	s.engine.Use(gin.Recovery(), noCache)

	api := s.engine.Group("/api")
	api.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "Welcome to ConfusionFlow API") })
	api.GET("/runs", s.serve("Could not load runs.", func(c *gin.Context) ([]byte, error) {
		return s.reader.Runs(c.Request.Context())
	}))
	api.GET("/datasets", s.serve("Could not load datasets.", func(c *gin.Context) ([]byte, error) {
		return s.reader.Datasets(c.Request.Context())
	}))
	api.GET("/foldlog/:id/data", s.serve("data for foldlogId not found", func(c *gin.Context) ([]byte, error) {
		return s.reader.FoldLogData(c.Request.Context(), c.Param("id"))
	}))
	return s
}

// Handler returns the server's root handler
func (s *LogServer) Handler() http.Handler {
	return s.engine
}

// serve writes the document returned by read. Missing documents are answered
// with a plain text message and status 200, which clients treat as not found.
func (s *LogServer) serve(missing string, read func(c *gin.Context) ([]byte, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := read(c)
		switch {
		case err == nil:
			c.Data(http.StatusOK, "application/json", data)
		case errors.IsCode(err, errors.CodeNotFound), errors.IsCode(err, errors.CodeInvalidInput):
			c.String(http.StatusOK, missing)
		default:
			log.Printf("[API] Failed to serve %s: %v", c.Request.URL.Path, err)
			c.String(http.StatusInternalServerError, "internal error")
		}
	}
}

func noCache(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Next()
}
