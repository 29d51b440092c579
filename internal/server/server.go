/*
Package server implements the application's network transport layer.
It wires the database, the model client and the HTTP handlers together,
configures timeouts and owns the router.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	user "FitCoachAI/internal/User"
	"FitCoachAI/internal/auth"
	"FitCoachAI/internal/config"
	"FitCoachAI/internal/database"
	"FitCoachAI/internal/gateway"
	"FitCoachAI/internal/geminiservice"
	"FitCoachAI/internal/utility"
)

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	cfg *config.Config

	// db provides access to the database service and connection pool.
	db database.Service

	verifier *auth.Verifier
	limiter  *gateway.RateLimiter
	hub      *utility.Hub

	gateway *gateway.Handler
	users   *user.Handler

	startTime time.Time
}

// New builds the application handlers on top of db and gen.
func New(cfg *config.Config, db database.Service, gen geminiservice.Generator) (*Server, error) {
	store := db.Store()

	gw, err := gateway.NewHandler(store, gen)
	if err != nil {
		return nil, fmt.Errorf("server: gateway: %w", err)
	}

	limiter, err := gateway.NewRateLimiter(cfg.ChatRatePerMinute)
	if err != nil {
		return nil, fmt.Errorf("server: rate limiter: %w", err)
	}

	hub := utility.NewHub()

	return &Server{
		port:      cfg.Port,
		cfg:       cfg,
		db:        db,
		verifier:  auth.NewVerifier(cfg.JWTSecret),
		limiter:   limiter,
		hub:       hub,
		gateway:   gw,
		users:     user.NewHandler(store, hub),
		startTime: time.Now(),
	}, nil
}

// NewServer returns a configured *http.Server with production network timeouts.
func NewServer(cfg *config.Config, db database.Service, gen geminiservice.Generator) (*http.Server, error) {
	app, err := New(cfg, db, gen)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.port),
		Handler:      app.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout(cfg),
	}

	return server, nil
}

// writeTimeout leaves room above the model request timeout so a slow
// generation can still be written back.
func writeTimeout(cfg *config.Config) time.Duration {
	timeout := 30 * time.Second
	if model := cfg.GeminiTimeout + 10*time.Second; model > timeout {
		timeout = model
	}
	return timeout
}
