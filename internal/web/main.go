// Package web wires the fiber application: middleware, handlers and the
// prometheus side listener.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/audit"
	"github.com/shiftdesk/shiftdesk/internal/authz"
	"github.com/shiftdesk/shiftdesk/internal/config"
	"github.com/shiftdesk/shiftdesk/internal/identity"
	fiberlogger "github.com/shiftdesk/shiftdesk/internal/logger/adapter/fiber"
	"github.com/shiftdesk/shiftdesk/internal/perf"
	"github.com/shiftdesk/shiftdesk/internal/web/handler/admin/user"
	"github.com/shiftdesk/shiftdesk/internal/web/handler/auditlog"
	"github.com/shiftdesk/shiftdesk/internal/web/handler/clock"
	"github.com/shiftdesk/shiftdesk/internal/web/handler/feedback"
	"github.com/shiftdesk/shiftdesk/internal/web/handler/reminder"
	"github.com/shiftdesk/shiftdesk/internal/web/handler/sop"
	"github.com/shiftdesk/shiftdesk/internal/web/handler/task"
)

const checkAliveURI = "/healthz"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	ring         *perf.Ring
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// startMetricsListener serves /metrics on a plain net/http side listener,
// keeping the scrape surface off the public fiber port.
func startMetricsListener(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		addr := fmt.Sprintf(":%d", port)
		log.Info().Str("addr", addr).Msg("starting metrics listener")

		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics listener failed")
		}
	}()
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	service := &Service{
		cfg:  cfg,
		App:  app,
		db:   db,
		ring: perf.NewRing(perf.DefaultCapacity),
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: checkAliveURI,
		Ring:          service.ring,
	}))

	app.Get(checkAliveURI, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendStatus(fiber.StatusOK)
	})

	// identity resolution for everything below
	resolver := identity.NewResolver(cfg.Auth.JWTSecret)
	app.Use(identity.Middleware(resolver))

	auditLogger := audit.NewLogger(audit.NewGormStore(db))

	// init handlers (they register their own routes)
	task.Handler.Init(app, cfg, db, auditLogger)
	sop.Handler.Init(app, cfg, db, auditLogger)
	clock.Handler.Init(app, cfg, db, auditLogger)
	reminder.Handler.Init(app, cfg, db)
	feedback.Handler.Init(app, cfg, db)
	user.Handler.Init(app, cfg, db, auditLogger)
	auditlog.Handler.Init(app, cfg, db)

	// recent request timings, admin eyes only
	app.Get("/admin/perf",
		identity.RequireRole("perf", authz.RoleAdmin, authz.RoleGod),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"samples": service.ring.Snapshot()})
		})

	if cfg.Webserver.MetricsPort > 0 {
		startMetricsListener(cfg.Webserver.MetricsPort)
	}

	return service
}
