package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/taskhub/identity/pkg/account"
	accountapi "github.com/taskhub/identity/pkg/account/api"
	"github.com/taskhub/identity/pkg/avatar"
	"github.com/taskhub/identity/pkg/config"
	"github.com/taskhub/identity/pkg/guard"
	"github.com/taskhub/identity/pkg/notice"
	"github.com/taskhub/identity/pkg/password"
	"github.com/taskhub/identity/pkg/storage"
	"github.com/taskhub/identity/pkg/task"
	taskapi "github.com/taskhub/identity/pkg/task/api"
	"github.com/taskhub/identity/pkg/token"
)

// store is the persistence surface main wires the services onto
type store interface {
	Accounts() account.Repository
	Tasks() task.Repository
	account.Remover
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Optional local overrides; absence is not an error
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	var st store
	if cfg.Database.Host != "" {
		pg, err := storage.NewPostgresStore(cfg.Database.ToDatabaseURL())
		if err != nil {
			slog.Error("Failed to open database", "err", err)
			os.Exit(1)
		}
		defer pg.Close()
		st = pg
		slog.Info("Using PostgreSQL store", "host", cfg.Database.Host, "database", cfg.Database.Database)
	} else {
		st = storage.NewInMemStore()
		slog.Warn("No database configured, using in-memory store")
	}

	noticeManager, err := notice.NewManager(cfg.Email.ToSMTPConfig())
	if err != nil {
		slog.Error("Failed to set up notifications", "err", err)
		os.Exit(1)
	}

	tokenService := token.NewService(
		cfg.Jwt.Secret, cfg.Jwt.Issuer, cfg.Jwt.Audience,
		token.WithExpiry(cfg.Jwt.Expiry(token.DefaultExpiry)),
	)

	accountService := account.NewService(
		st.Accounts(),
		st,
		password.NewBcryptHasher(),
		password.DefaultPolicy(),
		tokenService,
		notice.NewMailer(noticeManager),
	)
	taskService := task.NewService(st.Tasks())

	sessionGuard := guard.NewGuard(tokenService, st.Accounts())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Mount("/users", accountapi.NewHandle(accountService, avatar.NewPipeline()).Routes(sessionGuard))
	r.Mount("/tasks", taskapi.NewHandle(taskService).Routes(sessionGuard))

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: r,
	}

	go func() {
		slog.Info("Identity service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server stopped", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Graceful shutdown failed", "err", err)
	}
}
