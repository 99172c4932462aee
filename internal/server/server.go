package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lmercier/pricewatch/internal/repository/sqlite"
	"github.com/lmercier/pricewatch/internal/services/tracker"
)

// Server is the HTTP surface exposing the tracking operations.
type Server struct {
	log     *slog.Logger
	tracker tracker.Interface
	repo    sqlite.ProductRepository
	engine  *gin.Engine
}

// New builds the router. The gin mode is the caller's concern (set via
// GIN_MODE); the server itself only wires routes.
func New(log *slog.Logger, trk tracker.Interface, repo sqlite.ProductRepository) *Server {
	s := &Server{
		log:     log,
		tracker: trk,
		repo:    repo,
		engine:  gin.New(),
	}

	s.engine.Use(gin.Recovery())
	s.registerRoutes()

	return s
}

// Handler returns the http.Handler to mount on an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.healthHandler)

	products := s.engine.Group("/products")
	{
		products.POST("", s.registerHandler)
		products.GET("", s.listHandler)
		products.GET("/:id", s.getHandler)
		products.DELETE("/:id", s.deleteHandler)
		products.POST("/:id/refresh", s.refreshOneHandler)
		products.POST("/refresh", s.refreshAllHandler)
		products.GET("/:id/history", s.historyHandler)
	}
}

// errorPayload is the structured error body returned by every failing
// operation: a machine-readable kind plus a human message.
func errorPayload(kind string, err error) gin.H {
	return gin.H{"error": kind, "message": err.Error()}
}
