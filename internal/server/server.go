package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emilythestrangee/feedgraph/backend/internal/config"
	"github.com/emilythestrangee/feedgraph/backend/internal/database"
	"github.com/emilythestrangee/feedgraph/backend/internal/handlers"
	"github.com/emilythestrangee/feedgraph/backend/internal/middleware"
)

type Server struct {
	cfg     config.Config
	db      database.Service
	handler *handlers.Handler
	logger  *slog.Logger
}

func New(cfg config.Config, db database.Service, handler *handlers.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, db: db, handler: handler, logger: logger}
}

// HTTPServer wraps the router in an http.Server listening on the configured port
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(s.logger))

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowsAll(s.cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	secret := []byte(s.cfg.JWTSecret)

	// API routes
	api := r.Group("/api")
	{
		// Public reads; a valid token personalises the response
		public := api.Group("")
		public.Use(middleware.OptionalAuth(secret))
		{
			public.GET("/posts/:id", s.handler.Post.GetPost)
			public.GET("/posts/:id/thread", s.handler.Post.GetThread)
			public.GET("/posts/:id/comments", s.handler.Comment.GetComments)
			public.GET("/users/:id/replies", s.handler.Post.GetUserReplies)
			public.GET("/polls/:id", s.handler.Poll.GetPoll)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(secret))
		{
			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)
			protected.POST("/posts/:id/like", s.handler.Post.LikePost)
			protected.POST("/posts/:id/bookmark", s.handler.Post.BookmarkPost)
			protected.POST("/posts/:id/comments", s.handler.Comment.CreateComment)

			protected.POST("/polls", s.handler.Poll.CreatePoll)
			protected.POST("/polls/:id/vote", s.handler.Poll.CastVote)
		}
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.db.Health(c.Request.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}

// credentials can't be combined with a wildcard origin
func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
