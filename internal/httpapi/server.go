package httpapi

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rmacdonaldsmith/commitlog-go/internal/logging"
	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

// Server represents the HTTP API server
type Server struct {
	log        commitlog.CommitLog
	jwtAuth    *JWTAuth
	handlers   *Handlers
	middleware *Middleware
	server     *http.Server
	logger     logrus.FieldLogger
	config     Config
}

// Config holds server configuration
type Config struct {
	Address        string
	AuthEnabled    bool
	SecretKey      string
	TokenTTL       time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRecordBytes int64
}

// SetDefaults fills unset fields
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = DefaultTokenTTL
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 120 * time.Second
	}
	if c.MaxRecordBytes <= 0 {
		c.MaxRecordBytes = 1 << 20 // 1MB
	}
}

// NewServer creates a new HTTP API server for log. A nil logger discards output.
func NewServer(log commitlog.CommitLog, config Config, logger logrus.FieldLogger) *Server {
	config.SetDefaults()
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	logger = logger.WithField(logging.ComponentKey, "httpapi")

	jwtAuth := NewJWTAuth(config.SecretKey, config.TokenTTL)

	server := &Server{
		log:        log,
		jwtAuth:    jwtAuth,
		handlers:   NewHandlers(log, jwtAuth, logger, config.MaxRecordBytes),
		middleware: NewMiddleware(jwtAuth, config.AuthEnabled, logger),
		logger:     logger,
		config:     config,
	}

	server.server = &http.Server{
		Addr:           config.Address,
		Handler:        server.Handler(),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	return server
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithField("address", s.server.Addr).Info("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on lis
func (s *Server) Serve(lis net.Listener) error {
	s.logger.WithField("address", lis.Addr().String()).Info("HTTP server listening")
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the fully wrapped route handler
func (s *Server) Handler() http.Handler {
	m := s.middleware
	chain := m.Recovery(m.RequestID(m.Logging(m.CORS(m.ContentType(s.setupRoutes().ServeHTTP)))))
	return otelhttp.NewHandler(chain, "commitlog.http")
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Authentication endpoints (no auth required)
	if s.config.AuthEnabled {
		mux.HandleFunc("/api/v1/auth/login", s.methods(map[string]http.HandlerFunc{
			http.MethodPost: s.handlers.Login,
		}))
	}

	// Record endpoints (auth required when enabled)
	mux.HandleFunc("/api/v1/records", s.methods(map[string]http.HandlerFunc{
		http.MethodPost: s.middleware.AuthRequired(s.handlers.ProduceRecord),
	}))
	mux.HandleFunc("/api/v1/records/", s.methods(map[string]http.HandlerFunc{
		http.MethodGet: s.middleware.AuthRequired(s.handlers.ConsumeRecord),
	}))

	// Health and stats (no auth required)
	mux.HandleFunc("/api/v1/health", s.methods(map[string]http.HandlerFunc{
		http.MethodGet: s.handlers.Health,
	}))
	mux.HandleFunc("/api/v1/stats", s.methods(map[string]http.HandlerFunc{
		http.MethodGet: s.handlers.Stats,
	}))

	mux.HandleFunc("/", s.handleRoot)

	return mux
}

// methods dispatches on HTTP method, rejecting anything not listed
func (s *Server) methods(byMethod map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := byMethod[r.Method]; ok {
			h(w, r)
			return
		}
		s.handlers.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRoot serves the original produce/consume API on "/". A body-less GET
// returns API information instead.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.handlers.writeError(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.middleware.AuthRequired(s.handlers.LegacyProduce)(w, r)
	case http.MethodGet:
		if r.ContentLength == 0 {
			s.writeInfo(w)
			return
		}
		s.middleware.AuthRequired(s.handlers.LegacyConsume)(w, r)
	default:
		s.handlers.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// writeInfo provides API information
func (s *Server) writeInfo(w http.ResponseWriter) {
	endpoints := map[string]interface{}{
		"records": map[string]string{
			"produce": "POST /api/v1/records",
			"consume": "GET /api/v1/records/{offset}",
		},
		"legacy": map[string]string{
			"produce": "POST /",
			"consume": "GET / with body {\"offset\": N}",
		},
		"health": "GET /api/v1/health",
		"stats":  "GET /api/v1/stats",
	}
	authentication := "disabled"
	if s.config.AuthEnabled {
		endpoints["auth"] = map[string]string{"login": "POST /api/v1/auth/login"}
		authentication = "Bearer JWT token required for record endpoints"
	}

	s.handlers.writeJSON(w, map[string]interface{}{
		"service":        "commitlog HTTP API",
		"version":        "1.0.0",
		"description":    "Append-only commit log",
		"endpoints":      endpoints,
		"authentication": authentication,
	}, http.StatusOK)
}
