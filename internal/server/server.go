package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lidercheck/apiserver/config"
	"github.com/lidercheck/apiserver/internal/db"
	"github.com/lidercheck/apiserver/internal/handlers"
	"github.com/lidercheck/apiserver/internal/mq"
	"github.com/lidercheck/apiserver/internal/report"
	"github.com/lidercheck/apiserver/internal/services"
	"github.com/lidercheck/apiserver/internal/storage"
	"github.com/lidercheck/apiserver/internal/store"
	"go.uber.org/zap"
)

// Services groups the use-cases the HTTP layer is built on.
type Services struct {
	Users     *services.UserService
	Logs      *services.LogService
	LineStops *services.LineStopService
	Config    *services.ConfigService
	Meetings  *services.MeetingService
	Scraps    *services.ScrapService
	Backups   *services.BackupService
}

// NewServices builds every repository and service on one database handle.
// publisher may be nil.
func NewServices(dbConn *sql.DB, dialect db.Dialect, objects services.BackupStore, publisher services.LineStopPublisher, loc *time.Location, logger *zap.Logger) Services {
	userRepo := store.NewUserRepository(dbConn)

	return Services{
		Users:     services.NewUserService(userRepo),
		Logs:      services.NewLogService(store.NewChecklistLogRepository(dbConn), userRepo, report.NewAggregator(loc)),
		LineStops: services.NewLineStopService(store.NewLineStopRepository(dbConn), publisher, logger),
		Config:    services.NewConfigService(store.NewConfigRepository(dbConn)),
		Meetings:  services.NewMeetingService(store.NewMeetingRepository(dbConn)),
		Scraps:    services.NewScrapService(store.NewScrapRepository(dbConn), store.NewMaterialRepository(dbConn)),
		Backups:   services.NewBackupService(dbConn, dialect, objects, logger),
	}
}

// Routes mounts every endpoint under /api.
func Routes(svc Services, jwtSecret string) *chi.Mux {
	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		handlers.AuthRouter(r, svc.Users, jwtSecret)
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, svc.Users, authMiddleware)
		})
		r.Route("/logs", func(r chi.Router) {
			handlers.LogRouter(r, svc.Logs)
		})
		r.Route("/reports", func(r chi.Router) {
			handlers.ReportRouter(r, svc.Logs)
		})
		r.Route("/line-stops", func(r chi.Router) {
			handlers.LineStopRouter(r, svc.LineStops)
		})
		r.Route("/config", func(r chi.Router) {
			handlers.ConfigRouter(r, svc.Config)
		})
		r.Route("/meetings", func(r chi.Router) {
			handlers.MeetingRouter(r, svc.Meetings)
		})
		r.Route("/scraps", func(r chi.Router) {
			handlers.ScrapRouter(r, svc.Scraps)
		})
		r.Route("/materials", func(r chi.Router) {
			handlers.MaterialRouter(r, svc.Scraps)
		})
		r.Route("/backup", func(r chi.Router) {
			handlers.BackupRouter(r, svc.Backups)
		})
		r.Route("/admin", func(r chi.Router) {
			handlers.AdminBackupRouter(r, svc.Backups, svc.Users, authMiddleware)
		})
	})
	return router
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	objects    *storage.Storage
	broker     *mq.MQ
	logger     *zap.Logger
}

// New opens the database, brings its schema up to date and wires the
// routes. A broker is connected only when one is configured.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("REPORT_TIMEZONE: %w", err)
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	dialect := db.DialectOf(cfg.Database)

	manager := db.NewManager(dbConn, dialect, db.MigrationURL(cfg.Database), cfg.AdminPassword, logger)
	if err := manager.EnsureSchema(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = objects.Close()
		_ = dbConn.Close()
		return nil, err
	}
	var publisher services.LineStopPublisher
	if broker != nil {
		publisher = mq.NewLineStopChannel(broker, cfg.MQ.Channel)
	}

	svc := NewServices(dbConn, dialect, objects, publisher, loc, logger)
	router := Routes(svc, jwtSecret)

	port := cfg.ServerPort
	if port == 0 {
		port = 3000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server configured",
		zap.Int("port", port),
		zap.String("dialect", string(dialect)),
		zap.String("storage", objects.Bucket()),
		zap.Bool("events", broker != nil),
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		objects:    objects,
		broker:     broker,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the broker, the object
// storage client and the database handle.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.broker != nil {
		if closeErr := s.broker.Close(); closeErr != nil {
			s.logger.Warn("broker close failed", zap.Error(closeErr))
		}
	}
	if s.objects != nil {
		if closeErr := s.objects.Close(); closeErr != nil {
			s.logger.Warn("object storage close failed", zap.Error(closeErr))
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
