// Package server is the development backend: the task and user resources
// plus an emulator of the identity toolkit endpoints the client signs in
// with.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"taskdeck/pkg/database"
	"taskdeck/pkg/utils"
)

// Config configures a Server
type Config struct {
	Addr   string
	Tokens TokenConfig
	// APIKey, when set, must be passed as ?key= to identity endpoints
	APIKey string
	// SignInRate limits password sign-in attempts per email. Zero disables
	// the limit.
	SignInRate  rate.Limit
	SignInBurst int
	BcryptCost  int
}

// Server serves the REST resources
type Server struct {
	db            *database.DB
	tokens        *TokenManager
	hasher        *PasswordHasher
	signInLimiter *keyedLimiter
	apiKey        string
	addr          string
	router        *gin.Engine
}

// New creates a server on an initialised database
func New(db *database.DB, cfg Config) *Server {
	limit := cfg.SignInRate
	if limit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.SignInBurst
	if burst <= 0 {
		burst = 5
	}

	s := &Server{
		db:            db,
		tokens:        NewTokenManager(cfg.Tokens),
		hasher:        NewPasswordHasher(cfg.BcryptCost),
		signInLimiter: newKeyedLimiter(limit, burst),
		apiKey:        cfg.APIKey,
		addr:          cfg.Addr,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	api := router.Group("/", s.requireBearer())
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleCreateTask)
		api.PUT("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.POST("/users", s.handleCreateUser)
	}

	router.POST("/identitytoolkit.googleapis.com/v1/:action", s.handleIdentity)
	router.POST("/securetoken.googleapis.com/v1/token", s.handleToken)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router = router
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Tokens returns the token manager, e.g. to mint federated assertions
func (s *Server) Tokens() *TokenManager {
	return s.tokens
}

// Run serves until ctx is cancelled and then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Log("Serving on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	utils.Log("Shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
