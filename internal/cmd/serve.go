package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"medform/internal/app"
	"medform/internal/service"
	"medform/internal/transport/rest"
	"medform/internal/transport/ws"
)

const shutdownTimeout = 30 * time.Second

// NewServeCommand creates the 'medform serve' command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(parent context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, logger)
	defer a.Close(context.Background())

	specs, err := a.Specs(ctx)
	if err != nil {
		return err
	}
	sessions, err := a.SessionCache(ctx)
	if err != nil {
		return err
	}
	submitter, err := a.Submitter(ctx)
	if err != nil {
		return err
	}
	responses, err := a.Responses(ctx)
	if err != nil {
		return err
	}

	wsHub := ws.NewHub(logger)
	authSvc := service.NewAuthService(cfg.AdminPasswordHash, cfg.JWTSecret, cfg.AdminTokenTTL)
	sessionSvc := service.NewSessionService(specs, sessions, submitter, logger)
	reportSvc := service.NewReportService(responses, specs)

	// wsHub implements service.Broadcaster
	sessionSvc.SetBroadcaster(wsHub)
	specs.SetBroadcaster(wsHub)

	if !cfg.AdminEnabled() {
		logger.Warn().Msg("JWT_SECRET or ADMIN_PASSWORD_HASH not set, admin API disabled")
	}

	router := rest.NewRouter(&rest.Container{
		SpecService:    specs,
		SessionService: sessionSvc,
		ReportService:  reportSvc,
		AuthService:    authSvc,
		WSHub:          wsHub,
		Logger:         logger,
		CORSOrigins:    cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("spec_source", cfg.SpecSource).
			Str("store", cfg.StoreDriver).
			Str("sink", cfg.SubmitSink).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server exited")
	return nil
}
