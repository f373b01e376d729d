// Package api serves scans, the stored collections, insights, exports and
// chat sessions over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"

	"veribuy/config"
	"veribuy/models"
	"veribuy/services"
	"veribuy/storage"
	"veribuy/utils"
)

// Scanner produces scan records. *services.Scanner satisfies it.
type Scanner interface {
	ScanImage(ctx context.Context, img models.ImagePayload) (*models.ScanRecord, error)
	ScanQuery(ctx context.Context, query string) (*models.ScanRecord, error)
}

// ChatStarter opens a new backend conversation.
type ChatStarter func(ctx context.Context) (services.ChatTransport, error)

// Server holds the HTTP handlers' dependencies.
type Server struct {
	cfg       *config.Config
	store     *storage.ScanStore
	scanner   Scanner
	startChat ChatStarter
	insights  *services.InsightService
	sessions  *lru.Cache[string, *services.ChatSession]
	logger    *utils.Logger
}

// New creates a Server. Chat sessions beyond cfg.ChatSessionLimit evict the
// least recently used one.
func New(cfg *config.Config, store *storage.ScanStore, scanner Scanner, startChat ChatStarter, logger *utils.Logger) (*Server, error) {
	limit := cfg.ChatSessionLimit
	if limit < 1 {
		limit = 1
	}
	sessions, err := lru.New[string, *services.ChatSession](limit)
	if err != nil {
		return nil, fmt.Errorf("api: create session cache: %w", err)
	}
	return &Server{
		cfg:       cfg,
		store:     store,
		scanner:   scanner,
		startChat: startChat,
		insights:  services.NewInsightService(logger),
		sessions:  sessions,
		logger:    logger.With("component", "api"),
	}, nil
}

// Router builds the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestID())
	r.Use(requestLogger(s.logger))
	r.Use(gin.Recovery())
	r.Use(cors.New(s.corsConfig()))
	r.MaxMultipartMemory = 16 << 20

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.POST("/scans", s.createScan)

	r.GET("/history", s.listHistory)
	r.GET("/history/:id", s.getHistory)
	r.DELETE("/history/:id", s.deleteHistory)

	r.GET("/saved", s.listSaved)
	r.POST("/saved/:id/toggle", s.toggleSaved)
	r.DELETE("/saved/:id", s.deleteSaved)

	r.GET("/insights", s.getInsights)
	r.GET("/export", s.export)

	r.POST("/chat", s.createChat)
	r.GET("/chat/:id/messages", s.listChatMessages)
	r.POST("/chat/:id/messages", s.sendChatMessage)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

func (s *Server) corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	if len(s.cfg.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.AllowedOrigins
	}
	corsConfig.AddAllowMethods("GET", "POST", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", viewHeader)
	return corsConfig
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.ServerPort,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()
	s.logger.Info("[api] Listening on :%s", s.cfg.ServerPort)

	select {
	case err := <-serverErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("[api] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	return nil
}
