package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/duochat/duochat/config"
	"github.com/duochat/duochat/db"
	"github.com/duochat/duochat/mailingservices"
	"github.com/duochat/duochat/realtime"
	"github.com/duochat/duochat/services"
)

type Server struct {
	Config              *config.Config
	Mail                mailingservices.Mailer
	AuthRepository      db.AuthRepository
	AuthService         services.AuthService
	ConversationService services.ConversationService
	MessageService      services.MessageService
	MediaService        services.MediaService
	Hub                 *realtime.Hub
	DB                  db.GormDB
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests. Open message streams end when their request context is
// cancelled by the shutdown.
func (s *Server) Start() {
	r := s.setupRouter()

	port := s.Config.Port
	if port == 0 {
		port = 8080
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	go func() {
		log.Printf("Server starting on port %d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

// decode binds the JSON request body into v.
func decode(c *gin.Context, v interface{}) error {
	return c.ShouldBindJSON(v)
}
