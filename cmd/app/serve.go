package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"

	"github.com/jobflow/jobflow-backend/internal/accrual"
	"github.com/jobflow/jobflow-backend/internal/chat"
	"github.com/jobflow/jobflow-backend/internal/contract"
	"github.com/jobflow/jobflow-backend/internal/jobs"
	"github.com/jobflow/jobflow-backend/internal/leave"
	"github.com/jobflow/jobflow-backend/internal/middleware"
	"github.com/jobflow/jobflow-backend/internal/push"
	"github.com/jobflow/jobflow-backend/internal/relay"
	"github.com/jobflow/jobflow-backend/internal/schedule"
	"github.com/jobflow/jobflow-backend/internal/timeentry"
	"github.com/jobflow/jobflow-backend/internal/user"
	"github.com/jobflow/jobflow-backend/internal/workpattern"
)

const relayBuffer = 64

type ServeOptions struct {
	*RootOptions
	SkipMigrate bool
	NoJobs      bool
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the websocket relay and the scheduled jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipMigrate, "skip-migrate", false, "do not apply migrations on start")
	cmd.Flags().BoolVar(&opts.NoJobs, "no-jobs", false, "do not run the scheduled jobs in this process")
	return cmd
}

func runServe(parent context.Context, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.Close()

	if !opts.SkipMigrate {
		if err := migrate(ctx, e); err != nil {
			return err
		}
	}

	svc := buildServices(e)
	hub := relay.NewHub(relayBuffer, e.log)
	rl := relay.New(hub, svc.chat, svc.push, svc.users, e.log)

	app := newApp(e, svc, hub, rl)

	var scheduler *jobs.Scheduler
	if !opts.NoJobs {
		scheduler, err = jobs.NewScheduler(e.cfg.Accrual, e.cfg.Schedule, svc.accrual, svc.schedule, e.log)
		if err != nil {
			return err
		}
		scheduler.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		e.log.Infow("http server listening", "addr", e.cfg.ServerAddr())
		errCh <- app.Listen(e.cfg.ServerAddr())
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	e.log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		e.log.Errorw("http shutdown failed", "err", err)
	}
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			e.log.Errorw("scheduler stop failed", "err", err)
		}
	}
	rl.Wait()
	e.log.Infow("stopped", "relay_dropped_events", hub.Dropped())
	return nil
}

// newApp builds the fiber app. Public routes and the websocket endpoint are
// registered before the JWT middleware; everything after it requires a
// bearer token.
func newApp(e *env, svc *services, hub *relay.Hub, rl *relay.Relay) *fiber.App {
	cfg := e.cfg
	log := e.log

	app := fiber.New(fiber.Config{
		AppName:      "jobflow",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	setupCORS(app, cfg.HTTP.AllowOrigins)
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := e.db.Pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	userHandler := user.NewHandler(svc.users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
	pushHandler := push.NewHandler(svc.push, log)

	userHandler.RegisterPublicRoutes(app)
	pushHandler.RegisterPublicRoutes(app)
	relay.NewHandler(rl, svc.users, cfg.Auth.JWTSecret, cfg.HTTP.RequestTimeout, log).RegisterRoutes(app)

	app.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	app.Use(user.NewJWTMiddleware(cfg.Auth.JWTSecret))

	userHandler.RegisterProtectedRoutes(app)
	workpattern.NewHandler(svc.patterns, log).RegisterProtectedRoutes(app)
	timeentry.NewHandler(svc.entries, svc.users, log).RegisterProtectedRoutes(app)
	accrual.NewHandler(svc.accrual, log).RegisterProtectedRoutes(app)
	leave.NewHandler(svc.leave, log).RegisterProtectedRoutes(app)
	schedule.NewHandler(svc.schedule, log).RegisterProtectedRoutes(app)
	contract.NewHandler(svc.contracts, log).RegisterProtectedRoutes(app)
	chat.NewHandler(svc.chat, hub, log).RegisterProtectedRoutes(app)
	pushHandler.RegisterProtectedRoutes(app)

	return app
}

func setupCORS(app *fiber.App, origins string) {
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}
